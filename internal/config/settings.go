package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Settings contains the application config
type Settings struct {
	Environment          string `yaml:"ENVIRONMENT"`
	Port                 string `yaml:"PORT"`
	MonitoringServerPort string `yaml:"MONITORING_SERVER_PORT"`
	LogLevel             string `yaml:"LOG_LEVEL"`
	ServiceName          string `yaml:"SERVICE_NAME"`

	MercedesUsername string `yaml:"MERCEDES_USERNAME"`
	MercedesPassword string `yaml:"MERCEDES_PASSWORD"`
	AcceptLanguage   string `yaml:"ACCEPT_LANGUAGE"`
	CountryCode      string `yaml:"COUNTRY_CODE"`

	// ScanIntervalSeconds is the minimum delay between two telemetry cycles.
	// The vendor rate-limits aggressively, so anything below 60 is clamped.
	ScanIntervalSeconds int    `yaml:"SCAN_INTERVAL_SECONDS"`
	ExcludedVINs        string `yaml:"EXCLUDED_VINS"`
	VehiclePIN          string `yaml:"VEHICLE_PIN"`
	TokenCachePath      string `yaml:"TOKEN_CACHE_PATH"`

	// DebugSaveDirectory, when set, dumps the raw vendor documents (account
	// status, features, dynamic status) into this directory on every fetch.
	DebugSaveDirectory string `yaml:"DEBUG_SAVE_DIRECTORY"`
	TireWarningField   string `yaml:"TIRE_WARNING_FIELD"`

	CommandPollIntervalSeconds int `yaml:"COMMAND_POLL_INTERVAL_SECONDS"`
	CommandMaxPolls            int `yaml:"COMMAND_MAX_POLLS"`
}

func (s *Settings) IsProduction() bool {
	return s.Environment == "prod"
}

// Validate reports the first missing setting the service cannot run without.
// Credentials are required even with a cached token: the refresh token dies
// eventually and only a full login revives it.
func (s *Settings) Validate() error {
	if s.MercedesUsername == "" {
		return errors.New("MERCEDES_USERNAME is not set")
	}
	if s.MercedesPassword == "" {
		return errors.New("MERCEDES_PASSWORD is not set")
	}
	if s.TokenCachePath == "" {
		return errors.New("TOKEN_CACHE_PATH is not set")
	}
	return nil
}

// ScanInterval returns the configured polling interval, clamped to one minute.
func (s *Settings) ScanInterval() time.Duration {
	if s.ScanIntervalSeconds < 60 {
		return 60 * time.Second
	}
	return time.Duration(s.ScanIntervalSeconds) * time.Second
}

// ExcludedVINList splits the comma separated exclusion setting.
func (s *Settings) ExcludedVINList() []string {
	if s.ExcludedVINs == "" {
		return nil
	}
	vins := strings.Split(s.ExcludedVINs, ",")
	for i := range vins {
		vins[i] = strings.TrimSpace(vins[i])
	}
	return vins
}

// CommandPollInterval returns the sleep between pending-command polls. The
// vendor does not document this; 3s matches the mobile app's behavior.
func (s *Settings) CommandPollInterval() time.Duration {
	if s.CommandPollIntervalSeconds <= 0 {
		return 3 * time.Second
	}
	return time.Duration(s.CommandPollIntervalSeconds) * time.Second
}

// CommandPolls returns how many times a pending command is re-checked before
// giving up.
func (s *Settings) CommandPolls() int {
	if s.CommandMaxPolls <= 0 {
		return 30
	}
	return s.CommandMaxPolls
}
