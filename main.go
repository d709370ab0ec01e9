//
// Copyright (C) 2023 Alex Mihai
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"

	irrigationapp "github.com/AlexMihai1804/autowatering-smart-dashboard-sub003/internal/irrigation/app"
	"github.com/AlexMihai1804/autowatering-smart-dashboard-sub003/internal/logutil"
	"github.com/edgexfoundry/go-mod-core-contracts/clients/logger"
)

const (
	serviceKey        = "autowatering-dashboard"
	configPathEnv     = "IRRIGATION_CONFIG"
	defaultConfigPath = "res/configuration.toml"
)

func main() {
	lgr := logutil.LogWrap{LoggingClient: logger.NewClient(serviceKey, false, "", "INFO")}

	configPath := os.Getenv(configPathEnv)
	if configPath == "" {
		configPath = defaultConfigPath
	}

	app := irrigationapp.NewIrrigationApp()
	lgr.ExitIfErr(app.Initialize(configPath), "Initialization failed.",
		logutil.KeyValue{Key: "config", Val: configPath})

	lgr.ExitIfErr(app.RunUntilCancelled(), "Service stopped with an error.")
}
