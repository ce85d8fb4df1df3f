package config

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestInitLogger(t *testing.T) {
	log := InitLogger(LogConfig{Level: "debug", Format: "json"})
	assert.Same(t, Log, log)
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)

	log = InitLogger(LogConfig{Level: "loud", Format: "text"})
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)
}

func TestNewSupabaseClientRequiresCredentials(t *testing.T) {
	_, err := NewSupabaseClient(SupabaseConfig{URL: "https://project.supabase.co"}, logrus.New())
	assert.Error(t, err)
}
