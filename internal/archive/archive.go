//
// Copyright (C) 2023 Alex Mihai
//
// SPDX-License-Identifier: Apache-2.0
//

// Package archive persists history entries pulled from the controller
// into Redis so later queries do not require another BLE transfer.
package archive

import (
	"encoding/json"
	"fmt"

	"github.com/AlexMihai1804/autowatering-smart-dashboard-sub003/internal/gatt"
	"github.com/AlexMihai1804/autowatering-smart-dashboard-sub003/internal/history"
	"github.com/edgexfoundry/go-mod-core-contracts/clients/logger"
	"github.com/gomodule/redigo/redis"
	"github.com/pkg/errors"
)

const (
	keyWatering = "irrigation:history:watering"
	keyMoisture = "irrigation:history:moisture"
	keyErrorLog = "irrigation:history:errors"
)

// Archive stores history entries in per-type sorted sets, scored by the
// entry timestamp so range queries come back in chronological order.
type Archive struct {
	pool *redis.Pool
	lc   logger.LoggingClient
}

// New dials the given Redis address and verifies the connection with a PING.
func New(address string, lc logger.LoggingClient) (*Archive, error) {
	pool := &redis.Pool{
		MaxIdle: 10,
		Dial: func() (redis.Conn, error) {
			return redis.Dial("tcp", address)
		},
	}

	c := pool.Get()
	defer c.Close()
	if _, err := redis.String(c.Do("PING")); err != nil {
		_ = pool.Close()
		return nil, errors.Wrapf(err, "unable to reach redis at %s", address)
	}

	lc.Info("connected to redis", "address", address)
	return &Archive{pool: pool, lc: lc}, nil
}

// NewWithPool wraps an existing pool; used by tests.
func NewWithPool(pool *redis.Pool, lc logger.LoggingClient) *Archive {
	return &Archive{pool: pool, lc: lc}
}

// Close releases the underlying connection pool.
func (a *Archive) Close() error {
	return a.pool.Close()
}

func keyFor(dt history.DataType) (string, error) {
	switch dt {
	case history.WateringHistory:
		return keyWatering, nil
	case history.MoistureHistory:
		return keyMoisture, nil
	case history.ErrorHistory:
		return keyErrorLog, nil
	default:
		return "", errors.Errorf("no archive key for data type %d", dt)
	}
}

// StoreWatering upserts watering entries keyed by their timestamp.
func (a *Archive) StoreWatering(entries []gatt.WateringHistoryEntry) error {
	c := a.pool.Get()
	defer c.Close()

	for _, e := range entries {
		if err := a.zadd(c, keyWatering, int64(e.Timestamp), e); err != nil {
			return err
		}
	}
	return nil
}

// StoreMoisture upserts moisture entries keyed by their timestamp.
func (a *Archive) StoreMoisture(entries []gatt.MoistureHistoryEntry) error {
	c := a.pool.Get()
	defer c.Close()

	for _, e := range entries {
		if err := a.zadd(c, keyMoisture, int64(e.Timestamp), e); err != nil {
			return err
		}
	}
	return nil
}

// StoreErrors upserts error log entries keyed by their timestamp.
func (a *Archive) StoreErrors(entries []gatt.ErrorLogEntry) error {
	c := a.pool.Get()
	defer c.Close()

	for _, e := range entries {
		if err := a.zadd(c, keyErrorLog, int64(e.Timestamp), e); err != nil {
			return err
		}
	}
	return nil
}

func (a *Archive) zadd(c redis.Conn, key string, score int64, entry interface{}) error {
	m, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrap(err, "unable to marshal history entry")
	}
	if _, err := c.Do("ZADD", key, score, m); err != nil {
		return errors.Wrapf(err, "ZADD %s failed", key)
	}
	return nil
}

// Recent returns up to n of the newest archived entries for the given type,
// newest first, as raw JSON documents.
func (a *Archive) Recent(dt history.DataType, n int) ([]json.RawMessage, error) {
	key, err := keyFor(dt)
	if err != nil {
		return nil, err
	}
	if n < 1 {
		return nil, errors.Errorf("invalid entry count %d", n)
	}

	c := a.pool.Get()
	defer c.Close()

	vals, err := redis.ByteSlices(c.Do("ZREVRANGE", key, 0, n-1))
	if err != nil {
		return nil, errors.Wrapf(err, "ZREVRANGE %s failed", key)
	}

	out := make([]json.RawMessage, 0, len(vals))
	for _, v := range vals {
		out = append(out, json.RawMessage(v))
	}
	return out, nil
}

// Counts reports how many entries are archived per type.
func (a *Archive) Counts() (map[string]int, error) {
	c := a.pool.Get()
	defer c.Close()

	counts := make(map[string]int, 3)
	for _, it := range []struct {
		name string
		key  string
	}{
		{"watering", keyWatering},
		{"moisture", keyMoisture},
		{"errors", keyErrorLog},
	} {
		n, err := redis.Int(c.Do("ZCARD", it.key))
		if err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("ZCARD %s failed", it.key))
		}
		counts[it.name] = n
	}
	return counts, nil
}
