//
// Copyright (C) 2023 Alex Mihai
//
// SPDX-License-Identifier: Apache-2.0

package device

import (
	"context"
	"sync"
	"time"

	"github.com/AlexMihai1804/autowatering-smart-dashboard-sub003/internal/gatt"
	"github.com/AlexMihai1804/autowatering-smart-dashboard-sub003/internal/history"
	"github.com/edgexfoundry/go-mod-core-contracts/clients/logger"
	"github.com/pkg/errors"
)

// Client drives one irrigation controller through an Exchanger. The link
// allows exactly one outstanding exchange, so every operation - including
// the waits between write retries - runs under one mutex.
type Client struct {
	mu sync.Mutex
	ex Exchanger
	lc logger.LoggingClient

	retry RetryPolicy

	historyPoll    time.Duration
	historyTimeout time.Duration
}

// ClientConfig carries the client's timing knobs.
type ClientConfig struct {
	Retry          RetryPolicy
	HistoryPoll    time.Duration
	HistoryTimeout time.Duration
}

func NewClient(ex Exchanger, lc logger.LoggingClient, cfg ClientConfig) *Client {
	c := &Client{
		ex:             ex,
		lc:             lc,
		retry:          cfg.Retry,
		historyPoll:    cfg.HistoryPoll,
		historyTimeout: cfg.HistoryTimeout,
	}
	if c.retry.OnAttempt == nil {
		c.retry.OnAttempt = func(attempt int, err error) {
			lc.Warn("Write attempt failed.", "attempt", attempt, "error", err.Error())
		}
	}
	return c
}

// ReadRecord reads and decodes one characteristic.
func (c *Client) ReadRecord(ctx context.Context, id gatt.CharacteristicID) (gatt.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readRecord(ctx, id)
}

func (c *Client) readRecord(ctx context.Context, id gatt.CharacteristicID) (gatt.Record, error) {
	buf, err := c.ex.ReadCharacteristic(ctx, id)
	if err != nil {
		return nil, err
	}
	return gatt.Decode(id, buf)
}

// WriteRecord encodes r and writes it with the bounded retry sequence.
// Encoding failures are the caller's bug and are returned without touching
// the link.
func (c *Client) WriteRecord(ctx context.Context, r gatt.Record) error {
	buf, err := gatt.Encode(r)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return Retry(ctx, c.retry, func(ctx context.Context) error {
		return c.ex.WriteCharacteristic(ctx, r.Characteristic(), buf)
	})
}

// WriteResult is one logical piece of a multi-record save.
type WriteResult struct {
	Characteristic gatt.CharacteristicID
	Err            error
}

// SaveConfiguration writes several logically related records, each under
// its own retry budget, and reports per-record outcomes. A failed piece
// does not abort the rest: partial success is a valid, reportable result.
func (c *Client) SaveConfiguration(ctx context.Context, records []gatt.Record) []WriteResult {
	results := make([]WriteResult, 0, len(records))
	for _, r := range records {
		err := c.WriteRecord(ctx, r)
		if err != nil {
			c.lc.Error("Configuration piece failed.",
				"characteristic", r.Characteristic().String(), "error", err.Error())
		}
		results = append(results, WriteResult{Characteristic: r.Characteristic(), Err: err})
	}
	return results
}

// FetchWateringHistory runs a history query and reassembles the result.
func (c *Client) FetchWateringHistory(ctx context.Context, startUnix, endUnix uint32, max uint16) ([]gatt.WateringHistoryEntry, error) {
	r, err := c.fetchStream(ctx, history.WateringHistory, startUnix, endUnix, max)
	if err != nil {
		return nil, err
	}
	return r.WateringEntries()
}

// FetchMoistureHistory runs a moisture-sample query and reassembles the
// result.
func (c *Client) FetchMoistureHistory(ctx context.Context, startUnix, endUnix uint32, max uint16) ([]gatt.MoistureHistoryEntry, error) {
	r, err := c.fetchStream(ctx, history.MoistureHistory, startUnix, endUnix, max)
	if err != nil {
		return nil, err
	}
	return r.MoistureEntries()
}

// FetchErrorLog runs an error-log query and reassembles the result.
func (c *Client) FetchErrorLog(ctx context.Context, startUnix, endUnix uint32, max uint16) ([]gatt.ErrorLogEntry, error) {
	r, err := c.fetchStream(ctx, history.ErrorHistory, startUnix, endUnix, max)
	if err != nil {
		return nil, err
	}
	return r.ErrorEntries()
}

// fetchStream issues the HistoryControl query, then polls HistoryData and
// feeds each delivery to a fresh reassembler until the stream completes.
// A restarted stream (the device began a new query) is tolerated; a stall
// longer than the history timeout is reported as ErrReassemblyTimeout.
func (c *Client) fetchStream(ctx context.Context, dt history.DataType, startUnix, endUnix uint32, max uint16) (*history.Reassembler, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	query := gatt.HistoryControl{
		DataType:   uint8(dt),
		Command:    gatt.HistoryQuery,
		StartUnix:  startUnix,
		EndUnix:    endUnix,
		MaxEntries: max,
	}
	buf, err := gatt.Encode(query)
	if err != nil {
		return nil, err
	}
	if err := Retry(ctx, c.retry, func(ctx context.Context) error {
		return c.ex.WriteCharacteristic(ctx, gatt.CharHistoryControl, buf)
	}); err != nil {
		return nil, errors.WithMessagef(err, "failed to start %s history query", dt)
	}

	reassembler := history.NewReassembler()
	deadline := time.Now().Add(c.historyTimeout)

	for {
		delivery, err := c.ex.ReadCharacteristic(ctx, gatt.CharHistoryData)
		if err != nil {
			reassembler.Abort()
			return nil, errors.WithMessagef(err, "%s history fetch failed", dt)
		}

		if len(delivery) > 0 {
			done, err := reassembler.Offer(delivery)
			switch {
			case err == history.ErrStreamRestarted:
				// the device started over; our collection already follows
				// the new stream
				c.lc.Info("History stream restarted by device.", "type", dt.String())
			case err != nil:
				return nil, err
			}
			if done {
				c.lc.Debug("History stream complete.",
					"type", dt.String(), "fragments", reassembler.ReceivedFragments())
				return reassembler, nil
			}
			deadline = time.Now().Add(c.historyTimeout)
			continue
		}

		// nothing pending yet; wait out one poll interval
		if time.Now().After(deadline) {
			reassembler.Abort()
			return nil, history.ErrReassemblyTimeout
		}
		select {
		case <-ctx.Done():
			reassembler.Abort()
			return nil, &TransportError{Kind: Disconnected, Err: ctx.Err()}
		case <-time.After(c.historyPoll):
		}
	}
}
