//
// Copyright (C) 2023 Alex Mihai
//
// SPDX-License-Identifier: Apache-2.0
//

package archive

import (
	"encoding/json"
	"testing"

	"github.com/AlexMihai1804/autowatering-smart-dashboard-sub003/internal/gatt"
	"github.com/AlexMihai1804/autowatering-smart-dashboard-sub003/internal/history"
	"github.com/edgexfoundry/go-mod-core-contracts/clients/logger"
	"github.com/gomodule/redigo/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedCmd struct {
	name string
	args []interface{}
}

// fakeConn keeps sorted-set members in memory, enough to satisfy the
// commands the archive issues.
type fakeConn struct {
	cmds    []recordedCmd
	members map[string][]string
}

func (f *fakeConn) Close() error                      { return nil }
func (f *fakeConn) Err() error                        { return nil }
func (f *fakeConn) Send(string, ...interface{}) error { return nil }
func (f *fakeConn) Flush() error                      { return nil }
func (f *fakeConn) Receive() (interface{}, error)     { return nil, nil }

func (f *fakeConn) Do(commandName string, args ...interface{}) (interface{}, error) {
	f.cmds = append(f.cmds, recordedCmd{name: commandName, args: args})

	switch commandName {
	case "PING":
		return "PONG", nil
	case "ZADD":
		key := args[0].(string)
		f.members[key] = append(f.members[key], string(args[2].([]byte)))
		return int64(1), nil
	case "ZREVRANGE":
		key := args[0].(string)
		vals := f.members[key]
		out := make([]interface{}, 0, len(vals))
		// stored oldest first; reverse for ZREVRANGE
		for i := len(vals) - 1; i >= 0; i-- {
			out = append(out, []byte(vals[i]))
		}
		return out, nil
	case "ZCARD":
		key := args[0].(string)
		return int64(len(f.members[key])), nil
	}
	return nil, nil
}

func testArchive(t *testing.T) (*Archive, *fakeConn) {
	t.Helper()

	fc := &fakeConn{members: make(map[string][]string)}
	pool := &redis.Pool{
		Dial: func() (redis.Conn, error) { return fc, nil },
	}
	lc := logger.NewClient("test", false, "", "DEBUG")
	return NewWithPool(pool, lc), fc
}

func TestStoreWateringScoresByTimestamp(t *testing.T) {
	a, fc := testArchive(t)

	entries := []gatt.WateringHistoryEntry{
		{Timestamp: 100, Channel: 0, DurationSec: 60, VolumeML: 250, Trigger: gatt.TriggerSchedule},
		{Timestamp: 200, Channel: 1, DurationSec: 30, VolumeML: 120, Trigger: gatt.TriggerManual},
	}
	require.NoError(t, a.StoreWatering(entries))

	var zadds []recordedCmd
	for _, c := range fc.cmds {
		if c.name == "ZADD" {
			zadds = append(zadds, c)
		}
	}
	require.Len(t, zadds, 2)
	assert.Equal(t, "irrigation:history:watering", zadds[0].args[0])
	assert.Equal(t, int64(100), zadds[0].args[1])
	assert.Equal(t, int64(200), zadds[1].args[1])

	var got gatt.WateringHistoryEntry
	require.NoError(t, json.Unmarshal(zadds[1].args[2].([]byte), &got))
	assert.Equal(t, entries[1], got)
}

func TestRecentReturnsNewestFirst(t *testing.T) {
	a, _ := testArchive(t)

	require.NoError(t, a.StoreMoisture([]gatt.MoistureHistoryEntry{
		{Timestamp: 10, Channel: 2, MoisturePct: 41},
		{Timestamp: 20, Channel: 2, MoisturePct: 44},
	}))

	recent, err := a.Recent(history.MoistureHistory, 5)
	require.NoError(t, err)
	require.Len(t, recent, 2)

	var first gatt.MoistureHistoryEntry
	require.NoError(t, json.Unmarshal(recent[0], &first))
	assert.Equal(t, uint32(20), first.Timestamp)
}

func TestRecentRejectsBadArgs(t *testing.T) {
	a, _ := testArchive(t)

	_, err := a.Recent(history.DataType(9), 5)
	assert.Error(t, err)

	_, err = a.Recent(history.WateringHistory, 0)
	assert.Error(t, err)
}

func TestCounts(t *testing.T) {
	a, _ := testArchive(t)

	require.NoError(t, a.StoreErrors([]gatt.ErrorLogEntry{
		{Timestamp: 5, Code: 3, Channel: gatt.SystemChannel},
	}))

	counts, err := a.Counts()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"watering": 0, "moisture": 0, "errors": 1}, counts)
}
