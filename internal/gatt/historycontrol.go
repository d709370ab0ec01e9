//
// Copyright (C) 2023 Alex Mihai
//
// SPDX-License-Identifier: Apache-2.0

package gatt

// History commands (characteristic 0x0A, byte 1).
const (
	HistoryQuery uint8 = 0
	HistoryClear uint8 = 1
)

// HistoryControl starts or clears a history query on the controller
// (characteristic 0x0A, 12 bytes). The response arrives as a fragment
// stream on the HistoryData characteristic; see the history package.
type HistoryControl struct {
	DataType   uint8 // a history.DataType value
	Command    uint8
	StartUnix  uint32
	EndUnix    uint32
	MaxEntries uint16
}

func (HistoryControl) Characteristic() CharacteristicID { return CharHistoryControl }

func (r HistoryControl) encodeTo(buf []byte) error {
	if r.Command > HistoryClear {
		return &OutOfRangeError{Characteristic: CharHistoryControl, Field: "command", Value: r.Command}
	}
	if r.EndUnix != 0 && r.StartUnix > r.EndUnix {
		return &OutOfRangeError{Characteristic: CharHistoryControl, Field: "start_ts", Value: r.StartUnix}
	}
	buf[0] = r.DataType
	buf[1] = r.Command
	putU32(buf, 2, r.StartUnix)
	putU32(buf, 6, r.EndUnix)
	putU16(buf, 10, r.MaxEntries)
	return nil
}

func decodeHistoryControl(buf []byte) (Record, error) {
	return HistoryControl{
		DataType:   buf[0],
		Command:    buf[1],
		StartUnix:  u32(buf, 2),
		EndUnix:    u32(buf, 6),
		MaxEntries: u16(buf, 10),
	}, nil
}
