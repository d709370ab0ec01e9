//
// Copyright (C) 2023 Alex Mihai
//
// SPDX-License-Identifier: Apache-2.0

package irrigationapp

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/AlexMihai1804/autowatering-smart-dashboard-sub003/internal/device"
	"github.com/AlexMihai1804/autowatering-smart-dashboard-sub003/internal/gatt"
	"github.com/AlexMihai1804/autowatering-smart-dashboard-sub003/internal/history"
	"github.com/AlexMihai1804/autowatering-smart-dashboard-sub003/internal/irrigation"
	"github.com/edgexfoundry/go-mod-core-contracts/clients/logger"
	"github.com/pkg/errors"
)

type ctxKey string

// SettingsKey stores the handler settings in each request's context.
const SettingsKey ctxKey = "irrigationSettings"

const maxBodyBytes = 100 * 1024

// SettingsHandler carries everything a route handler needs. It rides in
// on the request context so handlers stay plain functions.
type SettingsHandler struct {
	Logger  logger.LoggingClient
	Monitor *irrigation.Monitor
	Client  irrigation.ControllerClient
	Archive ArchiveReader
}

// ArchiveReader is the read side of the history archive used by the
// history route. Nil when the archive is disabled.
type ArchiveReader interface {
	Recent(dt history.DataType, n int) ([]json.RawMessage, error)
}

// GetSettingsHandler returns the settings placed in the request context.
func GetSettingsHandler(req *http.Request) (SettingsHandler, error) {
	sh, ok := req.Context().Value(SettingsKey).(SettingsHandler)
	if !ok {
		return SettingsHandler{}, fmt.Errorf("cannot find handler settings")
	}
	if sh.Logger == nil || sh.Monitor == nil || sh.Client == nil {
		return SettingsHandler{}, fmt.Errorf("handler settings incomplete")
	}
	return sh, nil
}

func writeJSONHTTPResponse(w http.ResponseWriter, lc logger.LoggingClient, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		lc.Error("Failed to write JSON response.", "error", err.Error())
	}
}

func writePlainTextHTTPResponse(w http.ResponseWriter, content string, statusCode int) {
	w.WriteHeader(statusCode)
	fmt.Fprint(w, content)
}

func writeErrorHTTPResponse(w http.ResponseWriter, lc logger.LoggingClient, msg string, statusCode int) {
	lc.Error(msg)
	http.Error(w, msg, statusCode)
}

// decodeBody unmarshals a bounded request body into v.
func decodeBody(req *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(req.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// statusCodeFor maps the device layer's error taxonomy onto HTTP codes.
// Validation failures are the caller's fault, a device refusal carries
// the controller's verdict, and transport trouble is a gateway problem.
func statusCodeFor(err error) int {
	if gatt.IsCodecError(err) {
		return http.StatusBadRequest
	}
	var devErr *device.DeviceError
	if errors.As(err, &devErr) {
		return http.StatusConflict
	}
	return http.StatusBadGateway
}
