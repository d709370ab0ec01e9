//
// Copyright (C) 2023 Alex Mihai
//
// SPDX-License-Identifier: Apache-2.0

// Package history implements the fragmentation protocol used to move
// paginated history records across the 20-byte exchange ceiling. Each
// delivery on the HistoryData characteristic is an 8-byte header followed
// by at most 12 payload bytes; the Reassembler turns an arbitrary-order
// sequence of such deliveries into a typed entry list.
package history

import (
	"github.com/AlexMihai1804/autowatering-smart-dashboard-sub003/internal/gatt"
)

// HeaderSize is the fixed size of the unified history header.
const HeaderSize = 8

// MaxFragmentPayload is the largest payload one delivery can carry.
const MaxFragmentPayload = gatt.MaxExchangeBytes - HeaderSize

// DataType identifies which history stream a fragment belongs to.
type DataType uint8

const (
	WateringHistory DataType = 1
	MoistureHistory DataType = 2
	ErrorHistory    DataType = 3
)

func (d DataType) String() string {
	switch d {
	case WateringHistory:
		return "watering"
	case MoistureHistory:
		return "moisture"
	case ErrorHistory:
		return "errors"
	}
	return "unknown"
}

// EntrySize returns the fixed record width of the stream's entries,
// or -1 for an unknown data type.
func (d DataType) EntrySize() int {
	switch d {
	case WateringHistory:
		return gatt.WateringEntrySize
	case MoistureHistory:
		return gatt.MoistureEntrySize
	case ErrorHistory:
		return gatt.ErrorLogEntrySize
	}
	return -1
}

// Header is the unified 8-byte header preceding every fragment payload.
//
//	offset 0: data_type u8
//	offset 1: status u8 (0 = ok; non-zero = firmware error, int8)
//	offset 2: entry_count u16 LE (total entries in the whole stream)
//	offset 4: fragment_index u8
//	offset 5: total_fragments u8
//	offset 6: fragment_size u8 (payload bytes after this header)
//	offset 7: reserved
type Header struct {
	DataType       DataType
	Status         uint8
	EntryCount     uint16
	FragmentIndex  uint8
	TotalFragments uint8
	FragmentSize   uint8
}

// ParseDelivery splits one HistoryData delivery into its header and
// payload. The delivery must carry exactly FragmentSize payload bytes.
func ParseDelivery(buf []byte) (Header, []byte, error) {
	if len(buf) < HeaderSize {
		return Header{}, nil, &gatt.SizeMismatchError{
			Characteristic: gatt.CharHistoryData, Want: HeaderSize, Got: len(buf)}
	}

	h := Header{
		DataType:       DataType(buf[0]),
		Status:         buf[1],
		EntryCount:     uint16(buf[2]) | uint16(buf[3])<<8,
		FragmentIndex:  buf[4],
		TotalFragments: buf[5],
		FragmentSize:   buf[6],
	}

	payload := buf[HeaderSize:]
	if int(h.FragmentSize) != len(payload) || len(payload) > MaxFragmentPayload {
		return Header{}, nil, &gatt.SizeMismatchError{
			Characteristic: gatt.CharHistoryData,
			Want:           HeaderSize + int(h.FragmentSize),
			Got:            len(buf),
		}
	}

	return h, payload, nil
}

// EncodeDelivery produces the wire form of one fragment delivery. The
// firmware is the normal producer; the simulator and tests use this.
func EncodeDelivery(h Header, payload []byte) []byte {
	buf := make([]byte, HeaderSize+len(payload))
	buf[0] = byte(h.DataType)
	buf[1] = h.Status
	buf[2] = byte(h.EntryCount)
	buf[3] = byte(h.EntryCount >> 8)
	buf[4] = h.FragmentIndex
	buf[5] = h.TotalFragments
	buf[6] = byte(len(payload))
	buf[7] = 0
	copy(buf[HeaderSize:], payload)
	return buf
}
