//
// Copyright (C) 2023 Alex Mihai
//
// SPDX-License-Identifier: Apache-2.0

package gatt

// History entries are fixed-size records carried inside the HistoryData
// fragment stream rather than read as standalone characteristics, so they
// are not in the characteristic registry. The history package splits an
// assembled stream into these using the widths below.

const (
	WateringEntrySize = 12
	MoistureEntrySize = 8
	ErrorLogEntrySize = 12
)

// Watering triggers (WateringHistoryEntry byte 5).
const (
	TriggerManual   uint8 = 0
	TriggerSchedule uint8 = 1
	TriggerAuto     uint8 = 2
	TriggerApp      uint8 = 3
)

// SystemChannel marks an ErrorLogEntry that is not tied to a channel.
const SystemChannel = 0xFF

// WateringHistoryEntry is one completed watering run (12 bytes).
type WateringHistoryEntry struct {
	Timestamp         uint32
	Channel           uint8
	Trigger           uint8
	DurationSec       uint16
	VolumeML          uint16
	MoistureBeforePct uint8
	MoistureAfterPct  uint8
}

// DecodeWateringEntry decodes one fixed-width watering entry.
func DecodeWateringEntry(buf []byte) (WateringHistoryEntry, error) {
	if len(buf) != WateringEntrySize {
		return WateringHistoryEntry{}, &SizeMismatchError{
			Characteristic: CharHistoryData, Want: WateringEntrySize, Got: len(buf)}
	}
	return WateringHistoryEntry{
		Timestamp:         u32(buf, 0),
		Channel:           buf[4],
		Trigger:           buf[5],
		DurationSec:       u16(buf, 6),
		VolumeML:          u16(buf, 8),
		MoistureBeforePct: buf[10],
		MoistureAfterPct:  buf[11],
	}, nil
}

// EncodeWateringEntry produces the entry's wire form. The firmware is the
// normal producer; this exists for the simulator and tests.
func EncodeWateringEntry(e WateringHistoryEntry) []byte {
	buf := make([]byte, WateringEntrySize)
	putU32(buf, 0, e.Timestamp)
	buf[4] = e.Channel
	buf[5] = e.Trigger
	putU16(buf, 6, e.DurationSec)
	putU16(buf, 8, e.VolumeML)
	buf[10] = e.MoistureBeforePct
	buf[11] = e.MoistureAfterPct
	return buf
}

// MoistureHistoryEntry is one periodic soil-moisture sample (8 bytes).
type MoistureHistoryEntry struct {
	Timestamp   uint32
	Channel     uint8
	MoisturePct uint8
	Raw         uint16
}

func DecodeMoistureEntry(buf []byte) (MoistureHistoryEntry, error) {
	if len(buf) != MoistureEntrySize {
		return MoistureHistoryEntry{}, &SizeMismatchError{
			Characteristic: CharHistoryData, Want: MoistureEntrySize, Got: len(buf)}
	}
	return MoistureHistoryEntry{
		Timestamp:   u32(buf, 0),
		Channel:     buf[4],
		MoisturePct: buf[5],
		Raw:         u16(buf, 6),
	}, nil
}

func EncodeMoistureEntry(e MoistureHistoryEntry) []byte {
	buf := make([]byte, MoistureEntrySize)
	putU32(buf, 0, e.Timestamp)
	buf[4] = e.Channel
	buf[5] = e.MoisturePct
	putU16(buf, 6, e.Raw)
	return buf
}

// ErrorLogEntry is one firmware error report (12 bytes).
type ErrorLogEntry struct {
	Timestamp uint32
	Code      uint16
	Channel   uint8 // SystemChannel when not channel-scoped
	Count     uint8
	Detail    uint32
}

func DecodeErrorLogEntry(buf []byte) (ErrorLogEntry, error) {
	if len(buf) != ErrorLogEntrySize {
		return ErrorLogEntry{}, &SizeMismatchError{
			Characteristic: CharHistoryData, Want: ErrorLogEntrySize, Got: len(buf)}
	}
	return ErrorLogEntry{
		Timestamp: u32(buf, 0),
		Code:      u16(buf, 4),
		Channel:   buf[6],
		Count:     buf[7],
		Detail:    u32(buf, 8),
	}, nil
}

func EncodeErrorLogEntry(e ErrorLogEntry) []byte {
	buf := make([]byte, ErrorLogEntrySize)
	putU32(buf, 0, e.Timestamp)
	putU16(buf, 4, e.Code)
	buf[6] = e.Channel
	buf[7] = e.Count
	putU32(buf, 8, e.Detail)
	return buf
}
