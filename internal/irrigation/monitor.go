//
// Copyright (C) 2023 Alex Mihai
//
// SPDX-License-Identifier: Apache-2.0

package irrigation

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/AlexMihai1804/autowatering-smart-dashboard-sub003/internal/gatt"
	"github.com/AlexMihai1804/autowatering-smart-dashboard-sub003/internal/onboarding"
	"github.com/edgexfoundry/go-mod-core-contracts/clients/logger"
	"github.com/pkg/errors"
)

// ControllerClient is the slice of the device client the monitor uses.
type ControllerClient interface {
	ReadRecord(ctx context.Context, id gatt.CharacteristicID) (gatt.Record, error)
	WriteRecord(ctx context.Context, r gatt.Record) error
	FetchWateringHistory(ctx context.Context, startUnix, endUnix uint32, max uint16) ([]gatt.WateringHistoryEntry, error)
	FetchMoistureHistory(ctx context.Context, startUnix, endUnix uint32, max uint16) ([]gatt.MoistureHistoryEntry, error)
	FetchErrorLog(ctx context.Context, startUnix, endUnix uint32, max uint16) ([]gatt.ErrorLogEntry, error)
}

// HistoryArchive receives fetched history entries. A nil archive
// disables persistence without disabling fetches.
type HistoryArchive interface {
	StoreWatering(entries []gatt.WateringHistoryEntry) error
	StoreMoisture(entries []gatt.MoistureHistoryEntry) error
	StoreErrors(entries []gatt.ErrorLogEntry) error
}

// StatusSnapshot is the monitor's cached view of the controller,
// refreshed on every status poll.
type StatusSnapshot struct {
	UpdatedAt  time.Time            `json:"updated_at"`
	Onboarding *onboarding.Snapshot `json:"onboarding,omitempty"`
	System     *gatt.SystemStatus   `json:"system,omitempty"`
	Battery    *gatt.Diagnostics    `json:"diagnostics,omitempty"`
}

type snapshotDest struct {
	w      io.Writer
	result chan error
}

type writeReq struct {
	record gatt.Record
	result chan error
}

// Monitor polls the controller's status characteristics on a fixed
// interval and serializes all device access through its task loop, so
// the single in-flight exchange rule holds no matter how many HTTP
// requests arrive at once.
type Monitor struct {
	lc      logger.LoggingClient
	client  ControllerClient
	archive HistoryArchive

	pollInterval time.Duration

	snapshotReqs chan snapshotDest
	writeReqs    chan writeReq
}

func NewMonitor(client ControllerClient, archive HistoryArchive, pollInterval time.Duration, lc logger.LoggingClient) *Monitor {
	return &Monitor{
		lc:           lc,
		client:       client,
		archive:      archive,
		pollInterval: pollInterval,
		snapshotReqs: make(chan snapshotDest),
		writeReqs:    make(chan writeReq),
	}
}

// RequestSnapshot writes the monitor's current status snapshot as JSON
// to w. It blocks until the task loop serves the request.
func (m *Monitor) RequestSnapshot(ctx context.Context, w io.Writer) error {
	result := make(chan error, 1)
	select {
	case m.snapshotReqs <- snapshotDest{w, result}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SubmitWrite sends one record to the controller through the task loop
// and blocks for the outcome.
func (m *Monitor) SubmitWrite(ctx context.Context, r gatt.Record) error {
	result := make(chan error, 1)
	select {
	case m.writeReqs <- writeReq{r, result}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// FetchHistory pulls one history stream from the controller and, when an
// archive is attached, persists the entries. It returns them as JSON
// documents for the caller.
//
// History transfers run for seconds at BLE pace, so they execute here in
// the caller's goroutine; device.Client serializes the underlying
// exchanges against the task loop's own reads.
func (m *Monitor) FetchHistory(ctx context.Context, kind string, startUnix, endUnix uint32, max uint16) ([]json.RawMessage, error) {
	switch kind {
	case "watering":
		entries, err := m.client.FetchWateringHistory(ctx, startUnix, endUnix, max)
		if err != nil {
			return nil, err
		}
		if m.archive != nil {
			if err := m.archive.StoreWatering(entries); err != nil {
				m.lc.Warn("Failed to archive watering history.", "error", err.Error())
			}
		}
		return marshalEach(len(entries), func(i int) interface{} { return entries[i] })

	case "moisture":
		entries, err := m.client.FetchMoistureHistory(ctx, startUnix, endUnix, max)
		if err != nil {
			return nil, err
		}
		if m.archive != nil {
			if err := m.archive.StoreMoisture(entries); err != nil {
				m.lc.Warn("Failed to archive moisture history.", "error", err.Error())
			}
		}
		return marshalEach(len(entries), func(i int) interface{} { return entries[i] })

	case "errors":
		entries, err := m.client.FetchErrorLog(ctx, startUnix, endUnix, max)
		if err != nil {
			return nil, err
		}
		if m.archive != nil {
			if err := m.archive.StoreErrors(entries); err != nil {
				m.lc.Warn("Failed to archive error log.", "error", err.Error())
			}
		}
		return marshalEach(len(entries), func(i int) interface{} { return entries[i] })
	}

	return nil, errors.Errorf("unknown history kind %q", kind)
}

func marshalEach(n int, at func(int) interface{}) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, n)
	for i := 0; i < n; i++ {
		data, err := json.Marshal(at(i))
		if err != nil {
			return nil, errors.Wrap(err, "unable to marshal history entry")
		}
		out = append(out, json.RawMessage(data))
	}
	return out, nil
}

// TaskLoop is the monitor's main loop. It refreshes the status snapshot
// on every tick and serves snapshot and write requests in between, so
// every device exchange initiated here happens from one goroutine.
func (m *Monitor) TaskLoop(ctx context.Context) {
	statusTicker := time.NewTicker(m.pollInterval)
	defer statusTicker.Stop()

	var snapshot StatusSnapshot
	m.refresh(ctx, &snapshot)

	m.lc.Info("Starting task loop.")
	for {
		select {
		case <-ctx.Done():
			m.lc.Info("Task loop stopped.")
			return

		case <-statusTicker.C:
			m.refresh(ctx, &snapshot)

		case req := <-m.writeReqs:
			err := m.client.WriteRecord(ctx, req.record)
			if err == nil {
				// a successful command usually changes status; pick it up now
				m.refresh(ctx, &snapshot)
			}
			req.result <- err

		case req := <-m.snapshotReqs:
			data, err := json.Marshal(snapshot)
			if err == nil {
				_, err = req.w.Write(data)
			}
			req.result <- err
		}
	}
}

// refresh re-reads the status characteristics, keeping whatever parts
// succeed. A controller that is asleep between sessions makes partial
// failures routine, so they log at Warn and leave the stale value.
func (m *Monitor) refresh(ctx context.Context, snapshot *StatusSnapshot) {
	if rec, err := m.client.ReadRecord(ctx, gatt.CharOnboardingStatus); err != nil {
		m.lc.Warn("Failed to read onboarding status.", "error", err.Error())
	} else if status, ok := rec.(gatt.OnboardingStatus); ok {
		s := onboarding.Summarize(status)
		snapshot.Onboarding = &s
	}

	if rec, err := m.client.ReadRecord(ctx, gatt.CharSystemStatus); err != nil {
		m.lc.Warn("Failed to read system status.", "error", err.Error())
	} else if status, ok := rec.(gatt.SystemStatus); ok {
		snapshot.System = &status
	}

	if rec, err := m.client.ReadRecord(ctx, gatt.CharDiagnostics); err != nil {
		m.lc.Warn("Failed to read diagnostics.", "error", err.Error())
	} else if diag, ok := rec.(gatt.Diagnostics); ok {
		snapshot.Battery = &diag
	}

	snapshot.UpdatedAt = time.Now().UTC()
}
