package main

import (
	"fmt"
	"time"

	"solace/internal/chat"
	"solace/internal/config"
	"solace/internal/genai"
	"solace/internal/state"
)

// app bundles the wiring every command needs: config, the persisted
// session, and the model client.
type app struct {
	cfg     config.Config
	store   *state.Store
	client  *genai.Client
	session *chat.Session
}

func openApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	store, err := state.Open(cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening session store: %w", err)
	}

	// A key from the environment or secret store seeds the session once;
	// after that the session's own key wins.
	if cfg.API.Key != "" && store.State().APIKey == "" {
		store.SetAPIKey(cfg.API.Key)
	}

	client := genai.NewWithBaseURL(cfg.API.BaseURL)
	client.SetTimeout(time.Duration(cfg.API.TimeoutSeconds) * time.Second)

	return &app{
		cfg:     cfg,
		store:   store,
		client:  client,
		session: chat.NewSession(store, client),
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}
