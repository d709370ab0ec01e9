//
// Copyright (C) 2023 Alex Mihai
//
// SPDX-License-Identifier: Apache-2.0

package irrigationapp

import (
	"fmt"
	"io/ioutil"
	"net/http"
	"strconv"

	"github.com/AlexMihai1804/autowatering-smart-dashboard-sub003/internal/gatt"
	"github.com/AlexMihai1804/autowatering-smart-dashboard-sub003/internal/history"
	"github.com/AlexMihai1804/autowatering-smart-dashboard-sub003/internal/onboarding"
	"github.com/gorilla/mux"
)

const (
	apiBase       = "/api/v1"
	statusRoute   = apiBase + "/status"
	setupRoute    = apiBase + "/setup"
	channelRoute  = apiBase + "/channels/{id}/config"
	manualRoute   = apiBase + "/command/manual"
	resetRoute    = apiBase + "/command/reset"
	historyRoute  = apiBase + "/history/{type}"
	indexHTMLPath = "res/html/index.html"
)

// Index serves the dashboard page.
func Index(w http.ResponseWriter, req *http.Request) {
	sh, err := GetSettingsHandler(req)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	data, err := ioutil.ReadFile(indexHTMLPath)
	if err != nil {
		writeErrorHTTPResponse(w, sh.Logger, "Index page unavailable.", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html")
	if _, err := w.Write(data); err != nil {
		sh.Logger.Error(err.Error())
	}
}

// Ping reports that the service is up.
func Ping(w http.ResponseWriter, req *http.Request) {
	if _, err := GetSettingsHandler(req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	writePlainTextHTTPResponse(w, "pong", http.StatusOK)
}

// GetStatus writes the monitor's cached status snapshot.
func GetStatus(w http.ResponseWriter, req *http.Request) {
	sh, err := GetSettingsHandler(req)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := sh.Monitor.RequestSnapshot(req.Context(), w); err != nil {
		writeErrorHTTPResponse(w, sh.Logger,
			fmt.Sprintf("Failed to write status snapshot: %v", err), http.StatusInternalServerError)
	}
}

// GetSetup reads the onboarding status fresh from the controller and
// returns the derived setup view.
func GetSetup(w http.ResponseWriter, req *http.Request) {
	sh, err := GetSettingsHandler(req)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	rec, err := sh.Client.ReadRecord(req.Context(), gatt.CharOnboardingStatus)
	if err != nil {
		writeErrorHTTPResponse(w, sh.Logger,
			fmt.Sprintf("Failed to read onboarding status: %v", err), statusCodeFor(err))
		return
	}
	status, ok := rec.(gatt.OnboardingStatus)
	if !ok {
		writeErrorHTTPResponse(w, sh.Logger, "Unexpected record type.", http.StatusInternalServerError)
		return
	}

	writeJSONHTTPResponse(w, sh.Logger, onboarding.Summarize(status))
}

// GetChannelConfig reads the channel configuration currently selected on
// the controller. The id in the path must match what the controller
// reports; a stale selection is the caller's signal to re-select by
// writing first.
func GetChannelConfig(w http.ResponseWriter, req *http.Request) {
	sh, err := GetSettingsHandler(req)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	id, ok := channelIDFromPath(w, sh, req)
	if !ok {
		return
	}

	rec, err := sh.Client.ReadRecord(req.Context(), gatt.CharChannelConfig)
	if err != nil {
		writeErrorHTTPResponse(w, sh.Logger,
			fmt.Sprintf("Failed to read channel config: %v", err), statusCodeFor(err))
		return
	}
	cfg, ok := rec.(gatt.ChannelConfig)
	if !ok {
		writeErrorHTTPResponse(w, sh.Logger, "Unexpected record type.", http.StatusInternalServerError)
		return
	}
	if cfg.ChannelID != id {
		writeErrorHTTPResponse(w, sh.Logger,
			fmt.Sprintf("Controller has channel %d selected, not %d.", cfg.ChannelID, id),
			http.StatusConflict)
		return
	}

	writeJSONHTTPResponse(w, sh.Logger, cfg)
}

// SetChannelConfig writes a full channel configuration record.
func SetChannelConfig(w http.ResponseWriter, req *http.Request) {
	sh, err := GetSettingsHandler(req)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	id, ok := channelIDFromPath(w, sh, req)
	if !ok {
		return
	}

	var cfg gatt.ChannelConfig
	if err := decodeBody(req, &cfg); err != nil {
		writeErrorHTTPResponse(w, sh.Logger,
			fmt.Sprintf("Failed to unmarshal channel config: %v", err), http.StatusBadRequest)
		return
	}
	if cfg.ChannelID != id {
		writeErrorHTTPResponse(w, sh.Logger,
			fmt.Sprintf("Body channel %d does not match path channel %d.", cfg.ChannelID, id),
			http.StatusBadRequest)
		return
	}

	if err := sh.Monitor.SubmitWrite(req.Context(), cfg); err != nil {
		writeErrorHTTPResponse(w, sh.Logger,
			fmt.Sprintf("Failed to write channel config: %v", err), statusCodeFor(err))
		return
	}
	sh.Logger.Info("Updated channel config.", "channel", cfg.ChannelID)
	w.WriteHeader(http.StatusOK)
}

// IssueManualCommand opens or stops a valve.
func IssueManualCommand(w http.ResponseWriter, req *http.Request) {
	sh, err := GetSettingsHandler(req)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	var cmd gatt.ManualControl
	if err := decodeBody(req, &cmd); err != nil {
		writeErrorHTTPResponse(w, sh.Logger,
			fmt.Sprintf("Failed to unmarshal manual command: %v", err), http.StatusBadRequest)
		return
	}

	if err := sh.Monitor.SubmitWrite(req.Context(), cmd); err != nil {
		writeErrorHTTPResponse(w, sh.Logger,
			fmt.Sprintf("Failed to issue manual command: %v", err), statusCodeFor(err))
		return
	}
	sh.Logger.Info("Issued manual command.", "channel", cmd.ChannelID, "action", cmd.Action)
	w.WriteHeader(http.StatusOK)
}

// IssueReset starts a reset on the controller. The confirmation code is
// required by the firmware; the service passes it through untouched.
func IssueReset(w http.ResponseWriter, req *http.Request) {
	sh, err := GetSettingsHandler(req)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	var cmd gatt.ResetControl
	if err := decodeBody(req, &cmd); err != nil {
		writeErrorHTTPResponse(w, sh.Logger,
			fmt.Sprintf("Failed to unmarshal reset command: %v", err), http.StatusBadRequest)
		return
	}

	if err := sh.Monitor.SubmitWrite(req.Context(), cmd); err != nil {
		writeErrorHTTPResponse(w, sh.Logger,
			fmt.Sprintf("Failed to issue reset: %v", err), statusCodeFor(err))
		return
	}
	sh.Logger.Info("Issued reset.", "type", cmd.ResetType, "channel", cmd.ChannelID)
	w.WriteHeader(http.StatusOK)
}

// GetHistory fetches one history stream live from the controller, or
// serves archived entries when ?source=archive is given.
func GetHistory(w http.ResponseWriter, req *http.Request) {
	sh, err := GetSettingsHandler(req)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	kind := mux.Vars(req)["type"]
	dt, ok := historyTypeFor(kind)
	if !ok {
		writeErrorHTTPResponse(w, sh.Logger,
			fmt.Sprintf("Unknown history type %q.", kind), http.StatusNotFound)
		return
	}

	q := req.URL.Query()
	since, err := queryUint(q.Get("since"), 32, 0)
	if err != nil {
		writeErrorHTTPResponse(w, sh.Logger, "Invalid since parameter.", http.StatusBadRequest)
		return
	}
	until, err := queryUint(q.Get("until"), 32, 0)
	if err != nil {
		writeErrorHTTPResponse(w, sh.Logger, "Invalid until parameter.", http.StatusBadRequest)
		return
	}
	max, err := queryUint(q.Get("max"), 16, 100)
	if err != nil || max == 0 {
		writeErrorHTTPResponse(w, sh.Logger, "Invalid max parameter.", http.StatusBadRequest)
		return
	}

	if q.Get("source") == "archive" {
		if sh.Archive == nil {
			writeErrorHTTPResponse(w, sh.Logger, "History archive is not enabled.", http.StatusNotFound)
			return
		}
		docs, err := sh.Archive.Recent(dt, int(max))
		if err != nil {
			writeErrorHTTPResponse(w, sh.Logger,
				fmt.Sprintf("Failed to read history archive: %v", err), http.StatusInternalServerError)
			return
		}
		writeJSONHTTPResponse(w, sh.Logger, docs)
		return
	}

	docs, err := sh.Monitor.FetchHistory(req.Context(), kind, uint32(since), uint32(until), uint16(max))
	if err != nil {
		writeErrorHTTPResponse(w, sh.Logger,
			fmt.Sprintf("Failed to fetch %s history: %v", kind, err), statusCodeFor(err))
		return
	}
	writeJSONHTTPResponse(w, sh.Logger, docs)
}

func queryUint(raw string, bits int, def uint64) (uint64, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.ParseUint(raw, 10, bits)
}

func channelIDFromPath(w http.ResponseWriter, sh SettingsHandler, req *http.Request) (uint8, bool) {
	raw := mux.Vars(req)["id"]
	id, err := strconv.ParseUint(raw, 10, 8)
	if err != nil || id > 7 {
		writeErrorHTTPResponse(w, sh.Logger,
			fmt.Sprintf("Invalid channel id %q.", raw), http.StatusBadRequest)
		return 0, false
	}
	return uint8(id), true
}

func historyTypeFor(kind string) (history.DataType, bool) {
	switch kind {
	case "watering":
		return history.WateringHistory, true
	case "moisture":
		return history.MoistureHistory, true
	case "errors":
		return history.ErrorHistory, true
	}
	return 0, false
}
