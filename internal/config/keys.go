package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "api.base_url", typ: kString, env: "SOLACE_API_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.API.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.API.BaseURL },
	},
	{
		key: "api.default_model", typ: kString, env: "SOLACE_API_DEFAULT_MODEL",
		apply:   func(cfg *Config, v any) { cfg.API.DefaultModel = v.(string) },
		extract: func(cfg Config) any { return cfg.API.DefaultModel },
	},
	{
		key: "api.timeout_seconds", typ: kInt, env: "SOLACE_API_TIMEOUT_SECONDS",
		apply:   func(cfg *Config, v any) { cfg.API.TimeoutSeconds = v.(int) },
		extract: func(cfg Config) any { return cfg.API.TimeoutSeconds },
	},
	{
		key: "api.key", typ: kString, env: "SOLACE_API_KEY",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.API.Key = v.(string) },
		extract: func(cfg Config) any { return cfg.API.Key },
	},
	{
		key: "storage.data_dir", typ: kString, env: "SOLACE_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "speech.synth_cmd", typ: kString, env: "SOLACE_SPEECH_SYNTH_CMD",
		apply:   func(cfg *Config, v any) { cfg.Speech.SynthCmd = v.(string) },
		extract: func(cfg Config) any { return cfg.Speech.SynthCmd },
	},
	{
		key: "speech.stt_cmd", typ: kString, env: "SOLACE_SPEECH_STT_CMD",
		apply:   func(cfg *Config, v any) { cfg.Speech.STTCmd = v.(string) },
		extract: func(cfg Config) any { return cfg.Speech.STTCmd },
	},
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
