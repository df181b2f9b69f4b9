package config

import "strings"

type Config struct {
	API     APIConfig
	Storage StorageConfig
	Speech  SpeechConfig
}

type APIConfig struct {
	BaseURL        string
	Key            string
	DefaultModel   string
	TimeoutSeconds int
}

type StorageConfig struct {
	DataDir string
}

type SpeechConfig struct {
	SynthCmd string
	STTCmd   string
}

const (
	keychainService = "solace"
	keychainAccount = "api_key"
)

func defaults() Config {
	dataDir := defaultDataDir()
	return Config{
		API: APIConfig{
			BaseURL:        "https://generativelanguage.googleapis.com/v1beta",
			DefaultModel:   "gemini-2.0-flash",
			TimeoutSeconds: 60,
		},
		Storage: StorageConfig{
			DataDir: dataDir,
		},
	}
}

// Load reads configuration from the platform-native backend, environment
// variables, and the platform secret store.
//
// On macOS the backend is UserDefaults (domain: com.solace.app) and the
// API key falls back to macOS Keychain.
// On Linux the backend is a JSON file at $XDG_CONFIG_HOME/solace/config.json
// and the key falls back to a secrets file under $XDG_DATA_HOME.
//
// Environment variables (SOLACE_*) override backend values on all platforms.
// A missing API key is not a load error: the key may also live in the
// persisted session, and a send without one fails with its own notice.
func Load() (Config, error) {
	return loadWith(newPlatformBackend(), keychainReader{})
}

// keychain abstracts secret-store access for testing.
type keychain interface {
	Get(service, account string) (string, error)
}

func loadWith(b ConfigBackend, kc keychain) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	// Try the platform secret store for the API key if still empty.
	if cfg.API.Key == "" {
		if key, err := kc.Get(keychainService, keychainAccount); err == nil && key != "" {
			cfg.API.Key = key
		}
	}

	return cfg, nil
}

// keychainReader reads from the platform secret store.
type keychainReader struct{}

func (keychainReader) Get(service, account string) (string, error) {
	out, err := keychainGet(service, account)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// StoreAPIKey saves the API key to the platform secret store.
func StoreAPIKey(key string) error {
	return keychainSet(keychainService, keychainAccount, key)
}

// APIKeyHint names where the key can be supplied, for error messages.
func APIKeyHint() string {
	return "Set it via `solace auth set-key`, the SOLACE_API_KEY environment variable," + apiKeyHint()
}
