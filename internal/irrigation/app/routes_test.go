//
// Copyright (C) 2023 Alex Mihai
//
// SPDX-License-Identifier: Apache-2.0

package irrigationapp

import (
	"bytes"
	stdctx "context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/AlexMihai1804/autowatering-smart-dashboard-sub003/internal/gatt"
	"github.com/AlexMihai1804/autowatering-smart-dashboard-sub003/internal/history"
	"github.com/AlexMihai1804/autowatering-smart-dashboard-sub003/internal/irrigation"
	"github.com/edgexfoundry/go-mod-core-contracts/clients/logger"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/context"
)

type stubController struct {
	records  map[gatt.CharacteristicID]gatt.Record
	readErr  error
	writes   []gatt.Record
	writeErr error
	watering []gatt.WateringHistoryEntry
}

func (s *stubController) ReadRecord(_ stdctx.Context, id gatt.CharacteristicID) (gatt.Record, error) {
	if s.readErr != nil {
		return nil, s.readErr
	}
	rec, ok := s.records[id]
	if !ok {
		return nil, errors.Errorf("no stub record for %v", id)
	}
	return rec, nil
}

func (s *stubController) WriteRecord(_ stdctx.Context, r gatt.Record) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.writes = append(s.writes, r)
	return nil
}

func (s *stubController) FetchWateringHistory(stdctx.Context, uint32, uint32, uint16) ([]gatt.WateringHistoryEntry, error) {
	return s.watering, nil
}

func (s *stubController) FetchMoistureHistory(stdctx.Context, uint32, uint32, uint16) ([]gatt.MoistureHistoryEntry, error) {
	return nil, nil
}

func (s *stubController) FetchErrorLog(stdctx.Context, uint32, uint32, uint16) ([]gatt.ErrorLogEntry, error) {
	return nil, nil
}

type stubArchive struct {
	docs []json.RawMessage
}

func (s *stubArchive) Recent(history.DataType, int) ([]json.RawMessage, error) {
	return s.docs, nil
}

// testSettings builds a SettingsHandler over the stub controller with a
// running monitor loop, torn down with the test.
func testSettings(t *testing.T, sc *stubController, ar ArchiveReader) SettingsHandler {
	t.Helper()

	lc := logger.NewClient("test", false, "", "DEBUG")
	m := irrigation.NewMonitor(sc, nil, time.Hour, lc)

	ctx, cancel := stdctx.WithCancel(stdctx.Background())
	done := make(chan struct{})
	go func() {
		m.TaskLoop(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	return SettingsHandler{Logger: lc, Monitor: m, Client: sc, Archive: ar}
}

func serveWithSettings(settings SettingsHandler, handler http.HandlerFunc, req *http.Request, vars map[string]string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	ctx := context.WithValue(req.Context(), SettingsKey, settings)
	req = req.WithContext(ctx)
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	handler.ServeHTTP(recorder, req)
	return recorder
}

func stubRecords() map[gatt.CharacteristicID]gatt.Record {
	return map[gatt.CharacteristicID]gatt.Record{
		gatt.CharOnboardingStatus: gatt.OnboardingStatus{OverallPct: 50, ChannelFlags: 0x1F},
		gatt.CharSystemStatus:     gatt.SystemStatus{BatteryMV: 3700},
		gatt.CharDiagnostics:      gatt.Diagnostics{BatteryPct: 90},
		gatt.CharChannelConfig: gatt.ChannelConfig{
			ChannelID: 2, Name: "Tomatoes", AutoEnabled: true,
			Coverage: gatt.AreaCoverage(12.5), SunPercentage: 80,
		},
	}
}

func TestPingWithoutContext(t *testing.T) {
	request, err := http.NewRequest(http.MethodGet, "/ping", nil)
	require.NoError(t, err)

	recorder := httptest.NewRecorder()
	http.HandlerFunc(Ping).ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestPing(t *testing.T) {
	settings := testSettings(t, &stubController{records: stubRecords()}, nil)

	request, err := http.NewRequest(http.MethodGet, "/ping", nil)
	require.NoError(t, err)

	recorder := serveWithSettings(settings, Ping, request, nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "pong", recorder.Body.String())
}

func TestGetStatus(t *testing.T) {
	settings := testSettings(t, &stubController{records: stubRecords()}, nil)

	request, err := http.NewRequest(http.MethodGet, statusRoute, nil)
	require.NoError(t, err)

	recorder := serveWithSettings(settings, GetStatus, request, nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var snap irrigation.StatusSnapshot
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &snap))
	require.NotNil(t, snap.System)
	assert.Equal(t, uint16(3700), snap.System.BatteryMV)
}

func TestGetSetup(t *testing.T) {
	settings := testSettings(t, &stubController{records: stubRecords()}, nil)

	request, err := http.NewRequest(http.MethodGet, setupRoute, nil)
	require.NoError(t, err)

	recorder := serveWithSettings(settings, GetSetup, request, nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, float64(50), body["overallPct"])
}

func TestGetChannelConfig(t *testing.T) {
	settings := testSettings(t, &stubController{records: stubRecords()}, nil)

	request, err := http.NewRequest(http.MethodGet, "/api/v1/channels/2/config", nil)
	require.NoError(t, err)

	recorder := serveWithSettings(settings, GetChannelConfig, request, map[string]string{"id": "2"})
	require.Equal(t, http.StatusOK, recorder.Code)

	var cfg gatt.ChannelConfig
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &cfg))
	assert.Equal(t, "Tomatoes", cfg.Name)
}

func TestGetChannelConfigSelectionMismatch(t *testing.T) {
	settings := testSettings(t, &stubController{records: stubRecords()}, nil)

	request, err := http.NewRequest(http.MethodGet, "/api/v1/channels/5/config", nil)
	require.NoError(t, err)

	recorder := serveWithSettings(settings, GetChannelConfig, request, map[string]string{"id": "5"})
	assert.Equal(t, http.StatusConflict, recorder.Code)
}

func TestGetChannelConfigBadID(t *testing.T) {
	settings := testSettings(t, &stubController{records: stubRecords()}, nil)

	for _, raw := range []string{"9", "x", "-1"} {
		request, err := http.NewRequest(http.MethodGet, "/api/v1/channels/"+raw+"/config", nil)
		require.NoError(t, err)

		recorder := serveWithSettings(settings, GetChannelConfig, request, map[string]string{"id": raw})
		assert.Equal(t, http.StatusBadRequest, recorder.Code, "id %q", raw)
	}
}

func TestSetChannelConfig(t *testing.T) {
	sc := &stubController{records: stubRecords()}
	settings := testSettings(t, sc, nil)

	cfg := gatt.ChannelConfig{
		ChannelID: 3, Name: "Herbs", AutoEnabled: true,
		Coverage: gatt.PlantCountCoverage(12), SunPercentage: 60,
	}
	body, err := json.Marshal(cfg)
	require.NoError(t, err)

	request, err := http.NewRequest(http.MethodPut, "/api/v1/channels/3/config", bytes.NewReader(body))
	require.NoError(t, err)

	recorder := serveWithSettings(settings, SetChannelConfig, request, map[string]string{"id": "3"})
	require.Equal(t, http.StatusOK, recorder.Code)

	require.Len(t, sc.writes, 1)
	assert.Equal(t, cfg, sc.writes[0])
}

func TestSetChannelConfigPathBodyMismatch(t *testing.T) {
	settings := testSettings(t, &stubController{records: stubRecords()}, nil)

	body, err := json.Marshal(gatt.ChannelConfig{ChannelID: 1})
	require.NoError(t, err)

	request, err := http.NewRequest(http.MethodPut, "/api/v1/channels/3/config", bytes.NewReader(body))
	require.NoError(t, err)

	recorder := serveWithSettings(settings, SetChannelConfig, request, map[string]string{"id": "3"})
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestIssueManualCommand(t *testing.T) {
	sc := &stubController{records: stubRecords()}
	settings := testSettings(t, sc, nil)

	body, err := json.Marshal(gatt.ManualControl{ChannelID: 1, Action: gatt.ManualOpen, DurationSec: 120})
	require.NoError(t, err)

	request, err := http.NewRequest(http.MethodPost, manualRoute, bytes.NewReader(body))
	require.NoError(t, err)

	recorder := serveWithSettings(settings, IssueManualCommand, request, nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Len(t, sc.writes, 1)
}

func TestIssueManualCommandRejected(t *testing.T) {
	sc := &stubController{
		records:  stubRecords(),
		writeErr: &gatt.OutOfRangeError{Characteristic: gatt.CharManualControl, Field: "action", Value: uint8(9)},
	}
	settings := testSettings(t, sc, nil)

	body, err := json.Marshal(gatt.ManualControl{ChannelID: 1, Action: 9})
	require.NoError(t, err)

	request, err := http.NewRequest(http.MethodPost, manualRoute, bytes.NewReader(body))
	require.NoError(t, err)

	recorder := serveWithSettings(settings, IssueManualCommand, request, nil)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestIssueReset(t *testing.T) {
	sc := &stubController{records: stubRecords()}
	settings := testSettings(t, sc, nil)

	body, err := json.Marshal(gatt.ResetControl{
		ResetType: gatt.ResetHistory, ChannelID: gatt.AllChannels, ConfirmationCode: 0xDEADBEEF,
	})
	require.NoError(t, err)

	request, err := http.NewRequest(http.MethodPost, resetRoute, bytes.NewReader(body))
	require.NoError(t, err)

	recorder := serveWithSettings(settings, IssueReset, request, nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Len(t, sc.writes, 1)
	assert.Equal(t, gatt.CharResetControl, sc.writes[0].Characteristic())
}

func TestGetHistoryLive(t *testing.T) {
	sc := &stubController{
		records: stubRecords(),
		watering: []gatt.WateringHistoryEntry{
			{Timestamp: 1000, Channel: 0, DurationSec: 30},
		},
	}
	settings := testSettings(t, sc, nil)

	request, err := http.NewRequest(http.MethodGet, "/api/v1/history/watering?max=10", nil)
	require.NoError(t, err)

	recorder := serveWithSettings(settings, GetHistory, request, map[string]string{"type": "watering"})
	require.Equal(t, http.StatusOK, recorder.Code)

	var docs []gatt.WateringHistoryEntry
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &docs))
	require.Len(t, docs, 1)
	assert.Equal(t, uint32(1000), docs[0].Timestamp)
}

func TestGetHistoryFromArchive(t *testing.T) {
	ar := &stubArchive{docs: []json.RawMessage{json.RawMessage(`{"Timestamp":5}`)}}
	settings := testSettings(t, &stubController{records: stubRecords()}, ar)

	request, err := http.NewRequest(http.MethodGet, "/api/v1/history/moisture?source=archive", nil)
	require.NoError(t, err)

	recorder := serveWithSettings(settings, GetHistory, request, map[string]string{"type": "moisture"})
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"Timestamp":5`)
}

func TestGetHistoryArchiveDisabled(t *testing.T) {
	settings := testSettings(t, &stubController{records: stubRecords()}, nil)

	request, err := http.NewRequest(http.MethodGet, "/api/v1/history/moisture?source=archive", nil)
	require.NoError(t, err)

	recorder := serveWithSettings(settings, GetHistory, request, map[string]string{"type": "moisture"})
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestGetHistoryUnknownType(t *testing.T) {
	settings := testSettings(t, &stubController{records: stubRecords()}, nil)

	request, err := http.NewRequest(http.MethodGet, "/api/v1/history/rainfall", nil)
	require.NoError(t, err)

	recorder := serveWithSettings(settings, GetHistory, request, map[string]string{"type": "rainfall"})
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}
