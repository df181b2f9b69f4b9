package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"
)

// memBackend is an in-memory ConfigBackend for tests.
type memBackend struct {
	strings map[string]string
	ints    map[string]int
	err     error
}

func (m *memBackend) GetString(key string) (string, bool, error) {
	if m.err != nil {
		return "", false, m.err
	}
	v, ok := m.strings[key]
	return v, ok, nil
}

func (m *memBackend) GetInt(key string) (int, bool, error) {
	if m.err != nil {
		return 0, false, m.err
	}
	v, ok := m.ints[key]
	return v, ok, nil
}

func (m *memBackend) SetString(key, val string) error {
	if m.strings == nil {
		m.strings = make(map[string]string)
	}
	m.strings[key] = val
	return nil
}

func (m *memBackend) SetInt(key string, val int) error {
	if m.ints == nil {
		m.ints = make(map[string]int)
	}
	m.ints[key] = val
	return nil
}

func (m *memBackend) Delete(key string) error {
	delete(m.strings, key)
	delete(m.ints, key)
	return nil
}

type memKeychain struct {
	value string
	err   error
}

func (m memKeychain) Get(service, account string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.value, nil
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := loadWith(&memBackend{}, memKeychain{err: errors.New("no keychain")})
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}
	if cfg.API.BaseURL != "https://generativelanguage.googleapis.com/v1beta" {
		t.Errorf("BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.API.DefaultModel != "gemini-2.0-flash" {
		t.Errorf("DefaultModel = %q", cfg.API.DefaultModel)
	}
	if cfg.API.TimeoutSeconds != 60 {
		t.Errorf("TimeoutSeconds = %d", cfg.API.TimeoutSeconds)
	}
	if cfg.API.Key != "" {
		t.Errorf("missing key should load as empty, got %q", cfg.API.Key)
	}
	if cfg.Storage.DataDir == "" {
		t.Error("DataDir should have a platform default")
	}
}

func TestLoad_BackendValues(t *testing.T) {
	b := &memBackend{
		strings: map[string]string{
			"api.base_url":     "http://localhost:9999/v1beta",
			"speech.synth_cmd": "festival --tts",
		},
		ints: map[string]int{"api.timeout_seconds": 15},
	}
	cfg, err := loadWith(b, memKeychain{err: errors.New("no keychain")})
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}
	if cfg.API.BaseURL != "http://localhost:9999/v1beta" {
		t.Errorf("BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.Speech.SynthCmd != "festival --tts" {
		t.Errorf("SynthCmd = %q", cfg.Speech.SynthCmd)
	}
	if cfg.API.TimeoutSeconds != 15 {
		t.Errorf("TimeoutSeconds = %d", cfg.API.TimeoutSeconds)
	}
}

func TestLoad_BackendError(t *testing.T) {
	b := &memBackend{err: fmt.Errorf("defaults unavailable")}
	if _, err := loadWith(b, memKeychain{}); err == nil {
		t.Fatal("backend failure should surface as a load error")
	}
}

func TestLoad_EnvOverridesBackend(t *testing.T) {
	t.Setenv("SOLACE_API_DEFAULT_MODEL", "gemini-2.5-pro")
	b := &memBackend{strings: map[string]string{"api.default_model": "from-backend"}}

	cfg, err := loadWith(b, memKeychain{err: errors.New("no keychain")})
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}
	if cfg.API.DefaultModel != "gemini-2.5-pro" {
		t.Errorf("env should win over backend, got %q", cfg.API.DefaultModel)
	}
}

func TestLoad_SecretNeverReadFromBackend(t *testing.T) {
	b := &memBackend{strings: map[string]string{"api.key": "leaked"}}
	cfg, err := loadWith(b, memKeychain{err: errors.New("no keychain")})
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}
	if cfg.API.Key != "" {
		t.Errorf("secrets must not come from the plain backend, got %q", cfg.API.Key)
	}
}

func TestLoad_KeychainFallback(t *testing.T) {
	cfg, err := loadWith(&memBackend{}, memKeychain{value: "kc-secret"})
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}
	if cfg.API.Key != "kc-secret" {
		t.Errorf("Key = %q, want keychain value", cfg.API.Key)
	}
}

func TestLoad_EnvKeyWinsOverKeychain(t *testing.T) {
	t.Setenv("SOLACE_API_KEY", "env-secret")
	cfg, err := loadWith(&memBackend{}, memKeychain{value: "kc-secret"})
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}
	if cfg.API.Key != "env-secret" {
		t.Errorf("Key = %q, want env value", cfg.API.Key)
	}
}

func TestShowAll_ExcludesSecrets(t *testing.T) {
	cfg := defaults()
	cfg.API.Key = "secret"

	for _, info := range ShowAll(cfg) {
		if info.Key == "api.key" || strings.Contains(info.Value, "secret") {
			t.Errorf("ShowAll leaked a secret: %+v", info)
		}
	}
}

func TestValidKeys(t *testing.T) {
	keys := ValidKeys()
	if slices.Contains(keys, "api.key") {
		t.Error("secret keys are not settable via config")
	}
	for _, want := range []string{"api.base_url", "api.default_model", "storage.data_dir", "speech.synth_cmd", "speech.stt_cmd"} {
		if !slices.Contains(keys, want) {
			t.Errorf("ValidKeys missing %q", want)
		}
	}
}
