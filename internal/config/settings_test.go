package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSettings_ScanIntervalClamped(t *testing.T) {
	s := &Settings{}
	assert.Equal(t, 60*time.Second, s.ScanInterval())

	s.ScanIntervalSeconds = 10
	assert.Equal(t, 60*time.Second, s.ScanInterval(), "anything below a minute is clamped")

	s.ScanIntervalSeconds = 300
	assert.Equal(t, 5*time.Minute, s.ScanInterval())
}

func TestSettings_ExcludedVINList(t *testing.T) {
	s := &Settings{}
	assert.Nil(t, s.ExcludedVINList())

	s.ExcludedVINs = "WDD111, WDD222 ,WDD333"
	assert.Equal(t, []string{"WDD111", "WDD222", "WDD333"}, s.ExcludedVINList())
}

func TestSettings_CommandPollDefaults(t *testing.T) {
	s := &Settings{}
	assert.Equal(t, 3*time.Second, s.CommandPollInterval())
	assert.Equal(t, 30, s.CommandPolls())

	s.CommandPollIntervalSeconds = 5
	s.CommandMaxPolls = 10
	assert.Equal(t, 5*time.Second, s.CommandPollInterval())
	assert.Equal(t, 10, s.CommandPolls())
}

func TestSettings_Validate(t *testing.T) {
	s := &Settings{
		MercedesUsername: "user@example.com",
		MercedesPassword: "hunter2",
		TokenCachePath:   ".token.json",
	}
	assert.NoError(t, s.Validate())

	s.MercedesUsername = ""
	assert.ErrorContains(t, s.Validate(), "MERCEDES_USERNAME")

	s.MercedesUsername = "user@example.com"
	s.MercedesPassword = ""
	assert.ErrorContains(t, s.Validate(), "MERCEDES_PASSWORD")

	s.MercedesPassword = "hunter2"
	s.TokenCachePath = ""
	assert.ErrorContains(t, s.Validate(), "TOKEN_CACHE_PATH")
}

func TestSettings_IsProduction(t *testing.T) {
	assert.False(t, (&Settings{Environment: "dev"}).IsProduction())
	assert.True(t, (&Settings{Environment: "prod"}).IsProduction())
}
