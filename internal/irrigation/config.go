//
// Copyright (C) 2023 Alex Mihai
//
// SPDX-License-Identifier: Apache-2.0

package irrigation

import (
	"io/ioutil"
	"net/url"
	"strings"
	"time"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
)

// ApplicationSettings holds the service-level knobs. Field names use
// explicit units so the TOML reads unambiguously.
type ApplicationSettings struct {
	GatewayURL string
	DeviceName string

	MaxWriteAttempts     uint
	WriteRetryBaseMillis uint

	HistoryPollIntervalMillis uint
	HistoryTimeoutSeconds     uint

	StatusPollIntervalSeconds uint

	// RedisAddress enables the history archive when non-empty.
	RedisAddress string

	// ListenAddress is the HTTP bind address; empty means the default.
	ListenAddress string
}

const DefaultListenAddress = ":48090"

// ListenAddr returns the configured bind address or the default.
func (as ApplicationSettings) ListenAddr() string {
	if strings.TrimSpace(as.ListenAddress) == "" {
		return DefaultListenAddress
	}
	return as.ListenAddress
}

// ServiceConfig is the root of the TOML file and of the config
// provider's key tree.
type ServiceConfig struct {
	ApplicationSettings ApplicationSettings
}

// Validate checks settings that would otherwise fail in confusing ways
// deep inside the device client.
func (as ApplicationSettings) Validate() error {
	u, err := url.Parse(strings.TrimSpace(as.GatewayURL))
	if err != nil {
		return errors.Wrap(err, "invalid GatewayURL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.Errorf("invalid GatewayURL scheme %q", u.Scheme)
	}
	if strings.TrimSpace(as.DeviceName) == "" {
		return errors.New("DeviceName is required")
	}
	if as.MaxWriteAttempts == 0 {
		return errors.New("MaxWriteAttempts must be at least 1")
	}
	if as.WriteRetryBaseMillis == 0 {
		return errors.New("WriteRetryBaseMillis must be positive")
	}
	if as.HistoryPollIntervalMillis == 0 {
		return errors.New("HistoryPollIntervalMillis must be positive")
	}
	if as.HistoryTimeoutSeconds == 0 {
		return errors.New("HistoryTimeoutSeconds must be positive")
	}
	if as.StatusPollIntervalSeconds == 0 {
		return errors.New("StatusPollIntervalSeconds must be positive")
	}
	return nil
}

// GatewayURLParsed returns the gateway base URL. Call Validate first.
func (as ApplicationSettings) GatewayURLParsed() (*url.URL, error) {
	return url.Parse(strings.TrimSpace(as.GatewayURL))
}

func (as ApplicationSettings) WriteRetryBase() time.Duration {
	return time.Duration(as.WriteRetryBaseMillis) * time.Millisecond
}

func (as ApplicationSettings) HistoryPollInterval() time.Duration {
	return time.Duration(as.HistoryPollIntervalMillis) * time.Millisecond
}

func (as ApplicationSettings) HistoryTimeout() time.Duration {
	return time.Duration(as.HistoryTimeoutSeconds) * time.Second
}

func (as ApplicationSettings) StatusPollInterval() time.Duration {
	return time.Duration(as.StatusPollIntervalSeconds) * time.Second
}

// LoadConfigFile reads and validates a local TOML configuration.
func LoadConfigFile(path string) (ServiceConfig, error) {
	var cfg ServiceConfig

	data, err := ioutil.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "unable to read config file %s", path)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "unable to parse config file %s", path)
	}
	if err := cfg.ApplicationSettings.Validate(); err != nil {
		return cfg, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}
