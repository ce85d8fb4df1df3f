package config

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	supa "github.com/supabase-community/supabase-go"
)

// NewSupabaseClient initializes the Supabase client used for auth and the credit ledger.
func NewSupabaseClient(cfg SupabaseConfig, log *logrus.Logger) (*supa.Client, error) {
	if cfg.URL == "" || cfg.ServiceKey == "" {
		return nil, errors.New("supabase url and service key are required")
	}

	client, err := supa.NewClient(cfg.URL, cfg.ServiceKey, nil)
	if err != nil {
		return nil, fmt.Errorf("error initializing Supabase client: %w", err)
	}

	log.WithField("url", cfg.URL).Info("Supabase client initialized successfully.")
	return client, nil
}
