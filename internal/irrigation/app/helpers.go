//
// Copyright (C) 2023 Alex Mihai
//
// SPDX-License-Identifier: Apache-2.0

package irrigationapp

import (
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/AlexMihai1804/autowatering-smart-dashboard-sub003/internal/irrigation"
	"github.com/edgexfoundry/go-mod-bootstrap/bootstrap/flags"
	"github.com/edgexfoundry/go-mod-configuration/configuration"
	"github.com/edgexfoundry/go-mod-configuration/pkg/types"
	"github.com/edgexfoundry/go-mod-core-contracts/clients/logger"
	"github.com/pkg/errors"
)

const baseConfigPath = "irrigation/dashboard/1.0/"

// getConfigClient returns a configuration client based on the command
// line args. The empty string means no provider was requested and the
// local TOML file is authoritative.
func getConfigClient() (configuration.Client, string, error) {
	sdkFlags := flags.New()
	sdkFlags.Parse(os.Args[1:])
	providerURL := sdkFlags.ConfigProviderUrl()
	if providerURL == "" {
		return nil, "", nil
	}

	cpUrl, err := url.Parse(providerURL)
	if err != nil {
		return nil, "", err
	}

	cpPort := 8500
	port := cpUrl.Port()
	if port != "" {
		cpPort, err = strconv.Atoi(port)
		if err != nil {
			return nil, "", errors.Wrap(err, "bad config port")
		}
	}

	configClient, err := configuration.NewConfigurationClient(types.ServiceConfig{
		Host:     cpUrl.Hostname(),
		Port:     cpPort,
		BasePath: baseConfigPath,
		Type:     strings.Split(cpUrl.Scheme, ".")[0],
	})

	return configClient, providerURL, errors.Wrap(err, "failed to get config client")
}

// loadConfig reads the local TOML file and, when a config provider was
// given on the command line, lets the provider's values win.
func loadConfig(lc logger.LoggingClient, path string) (irrigation.ServiceConfig, error) {
	cfg, err := irrigation.LoadConfigFile(path)
	if err != nil {
		return cfg, err
	}

	configClient, providerURL, err := getConfigClient()
	if err != nil {
		return cfg, errors.Wrap(err, "failed to create config client")
	}
	if configClient == nil {
		return cfg, nil
	}

	lc.Info("Using configuration provider.", "url", providerURL)

	hasConfig, err := configClient.HasConfiguration()
	if err != nil {
		return cfg, errors.Wrap(err, "failed to check config provider")
	}
	if !hasConfig {
		// seed the provider from the local file so later edits happen there
		if err := configClient.PutConfiguration(cfg, true); err != nil {
			return cfg, errors.Wrap(err, "failed to seed config provider")
		}
		return cfg, nil
	}

	raw, err := configClient.GetConfiguration(&irrigation.ServiceConfig{})
	if err != nil {
		return cfg, errors.Wrap(err, "failed to fetch provider configuration")
	}
	provided, ok := raw.(*irrigation.ServiceConfig)
	if !ok {
		return cfg, errors.New("unexpected configuration type from provider")
	}
	if err := provided.ApplicationSettings.Validate(); err != nil {
		return cfg, errors.Wrap(err, "invalid provider configuration")
	}
	return *provided, nil
}
