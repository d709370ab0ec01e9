//
// Copyright (C) 2023 Alex Mihai
//
// SPDX-License-Identifier: Apache-2.0

package device

import (
	"context"
	"testing"
	"time"

	"github.com/AlexMihai1804/autowatering-smart-dashboard-sub003/internal/gatt"
	"github.com/AlexMihai1804/autowatering-smart-dashboard-sub003/internal/history"
	"github.com/edgexfoundry/go-mod-core-contracts/clients/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeExchanger scripts the transport: writes are recorded, reads are
// served from per-characteristic queues (the last queued value repeats).
type fakeExchanger struct {
	writes     []writeCall
	writeErrs  []error // consumed in order; nil = success
	reads      map[gatt.CharacteristicID][][]byte
	readErr    error
}

type writeCall struct {
	id    gatt.CharacteristicID
	value []byte
}

func (f *fakeExchanger) ReadCharacteristic(_ context.Context, id gatt.CharacteristicID) ([]byte, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	queue := f.reads[id]
	if len(queue) == 0 {
		return nil, nil
	}
	head := queue[0]
	if len(queue) > 1 {
		f.reads[id] = queue[1:]
	}
	return head, nil
}

func (f *fakeExchanger) WriteCharacteristic(_ context.Context, id gatt.CharacteristicID, value []byte) error {
	f.writes = append(f.writes, writeCall{id: id, value: append([]byte(nil), value...)})
	if len(f.writeErrs) > 0 {
		err := f.writeErrs[0]
		f.writeErrs = f.writeErrs[1:]
		return err
	}
	return nil
}

func testClient(f *fakeExchanger) *Client {
	return NewClient(f, logger.NewClient("test", false, "", "DEBUG"), ClientConfig{
		Retry:          RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond},
		HistoryPoll:    time.Millisecond,
		HistoryTimeout: 50 * time.Millisecond,
	})
}

func TestReadRecord(t *testing.T) {
	want := gatt.Diagnostics{UptimeMin: 500, BatteryPct: 77, RadioRSSI: -60}
	buf, err := gatt.Encode(want)
	require.NoError(t, err)

	f := &fakeExchanger{reads: map[gatt.CharacteristicID][][]byte{gatt.CharDiagnostics: {buf}}}
	got, err := testClient(f).ReadRecord(context.Background(), gatt.CharDiagnostics)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestReadRecordShortBuffer(t *testing.T) {
	f := &fakeExchanger{reads: map[gatt.CharacteristicID][][]byte{gatt.CharDiagnostics: {make([]byte, 5)}}}
	_, err := testClient(f).ReadRecord(context.Background(), gatt.CharDiagnostics)
	assert.IsType(t, &gatt.SizeMismatchError{}, err)
}

func TestWriteRecordRetriesTransportFailures(t *testing.T) {
	f := &fakeExchanger{writeErrs: []error{
		&TransportError{Kind: Timeout},
		&TransportError{Kind: Timeout},
		nil,
	}}

	err := testClient(f).WriteRecord(context.Background(), gatt.TimeConfig{
		UnixTime: 1690000000, TZOffsetMin: 60, TimeSource: gatt.TimeSourceApp,
	})
	require.NoError(t, err)
	assert.Len(t, f.writes, 3)
}

func TestWriteRecordDoesNotRetryCodecFailure(t *testing.T) {
	f := &fakeExchanger{}
	err := testClient(f).WriteRecord(context.Background(), gatt.ChannelConfig{
		ChannelID: 1, SunPercentage: 250,
	})
	assert.IsType(t, &gatt.OutOfRangeError{}, err)
	assert.Empty(t, f.writes, "an invalid record must never reach the link")
}

func TestWriteRecordDoesNotRetryDeviceError(t *testing.T) {
	f := &fakeExchanger{writeErrs: []error{&DeviceError{Code: DeviceBusy}}}
	err := testClient(f).WriteRecord(context.Background(), gatt.ManualControl{
		ChannelID: 0, Action: gatt.ManualOpen, DurationSec: 60,
	})

	devErr, ok := err.(*DeviceError)
	require.True(t, ok, "got %T", err)
	assert.Equal(t, DeviceBusy, devErr.Code)
	assert.Len(t, f.writes, 1)
}

func TestSaveConfigurationPartialSuccess(t *testing.T) {
	// second piece exhausts its retry budget, the rest still go through
	f := &fakeExchanger{writeErrs: []error{
		nil,
		&TransportError{Kind: Timeout},
		&TransportError{Kind: Timeout},
		&TransportError{Kind: Timeout},
		nil,
	}}

	results := testClient(f).SaveConfiguration(context.Background(), []gatt.Record{
		gatt.ChannelConfig{ChannelID: 2, Name: "Tomatoes", Coverage: gatt.AreaCoverage(12.5), SunPercentage: 80},
		gatt.EnvironmentConfig{RainDelayHours: 24},
		gatt.ScheduleConfig{ChannelID: 2, Plan: gatt.DailyPlan(), StartMinute: 360, DurationSec: 300},
	})

	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err)
	assert.Equal(t, gatt.CharEnvironmentConfig, results[1].Characteristic)
	assert.NoError(t, results[2].Err)
}

func historyDeliveries(t *testing.T, entries []gatt.WateringHistoryEntry) [][]byte {
	t.Helper()
	var payload []byte
	for _, e := range entries {
		payload = append(payload, gatt.EncodeWateringEntry(e)...)
	}
	total := (len(payload) + history.MaxFragmentPayload - 1) / history.MaxFragmentPayload
	var out [][]byte
	for i := 0; i < total; i++ {
		start := i * history.MaxFragmentPayload
		end := start + history.MaxFragmentPayload
		if end > len(payload) {
			end = len(payload)
		}
		out = append(out, history.EncodeDelivery(history.Header{
			DataType:       history.WateringHistory,
			EntryCount:     uint16(len(entries)),
			FragmentIndex:  uint8(i),
			TotalFragments: uint8(total),
		}, payload[start:end]))
	}
	return out
}

func TestFetchWateringHistory(t *testing.T) {
	want := []gatt.WateringHistoryEntry{
		{Timestamp: 1690000000, Channel: 1, Trigger: gatt.TriggerSchedule, DurationSec: 300, VolumeML: 1200, MoistureBeforePct: 25, MoistureAfterPct: 58},
		{Timestamp: 1690003600, Channel: 4, Trigger: gatt.TriggerManual, DurationSec: 120, VolumeML: 400, MoistureBeforePct: 40, MoistureAfterPct: 63},
	}
	deliveries := historyDeliveries(t, want)

	// simulate "no data ready yet" before the first fragment
	queue := append([][]byte{nil}, deliveries...)
	f := &fakeExchanger{reads: map[gatt.CharacteristicID][][]byte{gatt.CharHistoryData: queue}}

	got, err := testClient(f).FetchWateringHistory(context.Background(), 0, 0, 100)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// the query write preceded the polling
	require.NotEmpty(t, f.writes)
	assert.Equal(t, gatt.CharHistoryControl, f.writes[0].id)
}

func TestFetchHistoryTimesOut(t *testing.T) {
	// the device never produces a fragment
	f := &fakeExchanger{reads: map[gatt.CharacteristicID][][]byte{}}
	_, err := testClient(f).FetchWateringHistory(context.Background(), 0, 0, 10)
	assert.Equal(t, history.ErrReassemblyTimeout, err)
}

func TestFetchHistoryDeviceStatus(t *testing.T) {
	status := int8(-3)
	delivery := history.EncodeDelivery(history.Header{
		DataType: history.WateringHistory, Status: uint8(status), TotalFragments: 1, EntryCount: 1,
	}, make([]byte, 12))
	f := &fakeExchanger{reads: map[gatt.CharacteristicID][][]byte{gatt.CharHistoryData: {delivery}}}

	_, err := testClient(f).FetchWateringHistory(context.Background(), 0, 0, 10)
	devErr, ok := err.(*history.DeviceStatusError)
	require.True(t, ok, "got %T: %v", err, err)
	assert.EqualValues(t, -3, devErr.Code)
}

func TestFetchHistoryToleratesRestart(t *testing.T) {
	stale, _ := []gatt.WateringHistoryEntry{
		{Timestamp: 1, Channel: 0, DurationSec: 1, VolumeML: 1},
		{Timestamp: 2, Channel: 1, DurationSec: 2, VolumeML: 2},
		{Timestamp: 3, Channel: 2, DurationSec: 3, VolumeML: 3},
	}, 0
	staleDeliveries := historyDeliveries(t, stale) // 3 fragments

	want := []gatt.WateringHistoryEntry{
		{Timestamp: 9, Channel: 5, Trigger: gatt.TriggerAuto, DurationSec: 30, VolumeML: 150},
	}
	freshDeliveries := historyDeliveries(t, want) // 1 fragment

	queue := [][]byte{staleDeliveries[0], staleDeliveries[1], freshDeliveries[0]}
	f := &fakeExchanger{reads: map[gatt.CharacteristicID][][]byte{gatt.CharHistoryData: queue}}

	got, err := testClient(f).FetchWateringHistory(context.Background(), 0, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, want, got, "the restarted remote query wins over the stale reassembly")
}
