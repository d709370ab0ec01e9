//
// Copyright (C) 2023 Alex Mihai
//
// SPDX-License-Identifier: Apache-2.0

package irrigationapp

import (
	stdctx "context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/AlexMihai1804/autowatering-smart-dashboard-sub003/internal/archive"
	"github.com/AlexMihai1804/autowatering-smart-dashboard-sub003/internal/device"
	"github.com/AlexMihai1804/autowatering-smart-dashboard-sub003/internal/irrigation"
	"github.com/edgexfoundry/go-mod-core-contracts/clients/logger"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"golang.org/x/net/context"
)

const (
	serviceKey = "autowatering-dashboard"

	shutdownTimeout = 10 * time.Second
)

// IrrigationApp wires the device client, the monitor loop, the optional
// history archive, and the HTTP surface together.
type IrrigationApp struct {
	lc      logger.LoggingClient
	config  irrigation.ServiceConfig
	client  *device.Client
	monitor *irrigation.Monitor
	archive *archive.Archive
	router  *mux.Router
}

func NewIrrigationApp() *IrrigationApp {
	return &IrrigationApp{router: mux.NewRouter()}
}

// Initialize loads configuration, connects the gateway client and the
// optional archive, and registers the routes. It does not start serving.
func (app *IrrigationApp) Initialize(configPath string) error {
	app.lc = logger.NewClient(serviceKey, false, "", "DEBUG")
	app.lc.Info("Starting.")

	cfg, err := loadConfig(app.lc, configPath)
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}
	app.config = cfg
	settings := cfg.ApplicationSettings

	gatewayURL, err := settings.GatewayURLParsed()
	if err != nil {
		return errors.Wrap(err, "invalid gateway URL")
	}

	gateway := device.NewGatewayClient(&url.URL{
		Scheme: gatewayURL.Scheme,
		Host:   gatewayURL.Host,
	}, settings.DeviceName, http.DefaultClient)

	app.client = device.NewClient(gateway, app.lc, device.ClientConfig{
		Retry: device.RetryPolicy{
			MaxAttempts: int(settings.MaxWriteAttempts),
			BaseDelay:   settings.WriteRetryBase(),
		},
		HistoryPoll:    settings.HistoryPollInterval(),
		HistoryTimeout: settings.HistoryTimeout(),
	})

	if settings.RedisAddress != "" {
		app.archive, err = archive.New(settings.RedisAddress, app.lc)
		if err != nil {
			return errors.Wrap(err, "failed to connect history archive")
		}
	}

	var store irrigation.HistoryArchive
	if app.archive != nil {
		store = app.archive
	}
	app.monitor = irrigation.NewMonitor(app.client, store, settings.StatusPollInterval(), app.lc)

	app.addRoutes()
	return nil
}

// RunUntilCancelled starts the monitor loop and the HTTP server and
// blocks until SIGINT or SIGTERM.
func (app *IrrigationApp) RunUntilCancelled() error {
	listenAddr := app.config.ApplicationSettings.ListenAddr()
	ctx, cancel := stdctx.WithCancel(stdctx.Background())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		app.monitor.TaskLoop(ctx)
		app.lc.Info("Task loop has exited.")
	}()

	server := &http.Server{Addr: listenAddr, Handler: app.router}

	go func() {
		signals := make(chan os.Signal, 1)
		signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
		s := <-signals

		app.lc.Info(fmt.Sprintf("Received '%s' signal from OS.", s.String()))
		cancel()

		shutdownCtx, done := stdctx.WithTimeout(stdctx.Background(), shutdownTimeout)
		defer done()
		if err := server.Shutdown(shutdownCtx); err != nil {
			app.lc.Error("HTTP server shutdown failed.", "error", err.Error())
		}
	}()

	app.lc.Info("Listening.", "address", listenAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		cancel()
		wg.Wait()
		return errors.Wrap(err, "http server failed")
	}

	wg.Wait()
	if app.archive != nil {
		if err := app.archive.Close(); err != nil {
			app.lc.Warn("Failed to close archive pool.", "error", err.Error())
		}
	}
	app.lc.Info("Exiting.")
	return nil
}

func (app *IrrigationApp) addRoutes() {
	settings := SettingsHandler{
		Logger:  app.lc,
		Monitor: app.monitor,
		Client:  app.client,
	}
	if app.archive != nil {
		settings.Archive = app.archive
	}

	app.router.HandleFunc("/", passSettings(settings, Index)).Methods(http.MethodGet)
	app.router.HandleFunc("/ping", passSettings(settings, Ping)).Methods(http.MethodGet)
	app.router.HandleFunc(statusRoute, passSettings(settings, GetStatus)).Methods(http.MethodGet)
	app.router.HandleFunc(setupRoute, passSettings(settings, GetSetup)).Methods(http.MethodGet)
	app.router.HandleFunc(channelRoute, passSettings(settings, GetChannelConfig)).Methods(http.MethodGet)
	app.router.HandleFunc(channelRoute, passSettings(settings, SetChannelConfig)).Methods(http.MethodPut)
	app.router.HandleFunc(manualRoute, passSettings(settings, IssueManualCommand)).Methods(http.MethodPost)
	app.router.HandleFunc(resetRoute, passSettings(settings, IssueReset)).Methods(http.MethodPost)
	app.router.HandleFunc(historyRoute, passSettings(settings, GetHistory)).Methods(http.MethodGet)
}

func passSettings(settings SettingsHandler, handler func(http.ResponseWriter, *http.Request)) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), SettingsKey, settings)
		handler(w, r.WithContext(ctx))
	}
}
