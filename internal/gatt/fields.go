//
// Copyright (C) 2023 Alex Mihai
//
// SPDX-License-Identifier: Apache-2.0

package gatt

import (
	"bytes"
	"math"
)

// Fixed-point fields are stored as scaled integers (e.g. degrees x100).
// The multiply and divide are done in integer arithmetic so repeated
// round trips can never drift.

// scaledToRaw converts value to its scaled integer representation,
// rounding half away from zero.
func scaledToRaw(value float64, scale int64) int64 {
	scaled := value * float64(scale)
	if scaled < 0 {
		return int64(scaled - 0.5)
	}
	return int64(scaled + 0.5)
}

// rawToScaled converts a stored integer back to its engineering value.
func rawToScaled(raw int64, scale int64) float64 {
	return float64(raw) / float64(scale)
}

// putScaledU16 encodes value*scale as a little-endian uint16 at buf[off].
func putScaledU16(buf []byte, off int, value float64, scale int64, id CharacteristicID, field string) error {
	raw := scaledToRaw(value, scale)
	if raw < 0 || raw > math.MaxUint16 {
		return &OutOfRangeError{Characteristic: id, Field: field, Value: value}
	}
	putU16(buf, off, uint16(raw))
	return nil
}

// putScaledI16 encodes value*scale as a little-endian int16 at buf[off].
func putScaledI16(buf []byte, off int, value float64, scale int64, id CharacteristicID, field string) error {
	raw := scaledToRaw(value, scale)
	if raw < math.MinInt16 || raw > math.MaxInt16 {
		return &OutOfRangeError{Characteristic: id, Field: field, Value: value}
	}
	putU16(buf, off, uint16(int16(raw)))
	return nil
}

func scaledU16(buf []byte, off int, scale int64) float64 {
	return rawToScaled(int64(u16(buf, off)), scale)
}

func scaledI16(buf []byte, off int, scale int64) float64 {
	return rawToScaled(int64(int16(u16(buf, off))), scale)
}

// Little-endian accessors. encoding/binary would do the same thing, but
// keeping these local makes every record layout read as offset arithmetic.

func u16(buf []byte, off int) uint16 {
	return uint16(buf[off]) | uint16(buf[off+1])<<8
}

func putU16(buf []byte, off int, v uint16) {
	buf[off] = byte(v)
	buf[off+1] = byte(v >> 8)
}

func u32(buf []byte, off int) uint32 {
	return uint32(buf[off]) | uint32(buf[off+1])<<8 |
		uint32(buf[off+2])<<16 | uint32(buf[off+3])<<24
}

func putU32(buf []byte, off int, v uint32) {
	buf[off] = byte(v)
	buf[off+1] = byte(v >> 8)
	buf[off+2] = byte(v >> 16)
	buf[off+3] = byte(v >> 24)
}

func u64(buf []byte, off int) uint64 {
	return uint64(u32(buf, off)) | uint64(u32(buf, off+4))<<32
}

func putU64(buf []byte, off int, v uint64) {
	putU32(buf, off, uint32(v))
	putU32(buf, off+4, uint32(v>>32))
}

// putString writes s into the fixed-capacity field at buf[off:off+width],
// NUL-padded. Input longer than width-1 bytes is truncated, never rejected:
// the firmware reserves the final byte for a terminator.
func putString(buf []byte, off, width int, s string) {
	b := []byte(s)
	if len(b) > width-1 {
		b = b[:width-1]
	}
	copy(buf[off:off+width], b)
	for i := off + len(b); i < off+width; i++ {
		buf[i] = 0
	}
}

// getString reads up to the first NUL or the field width, whichever is
// shorter.
func getString(buf []byte, off, width int) string {
	field := buf[off : off+width]
	if i := bytes.IndexByte(field, 0); i >= 0 {
		field = field[:i]
	}
	return string(field)
}

func putBool(buf []byte, off int, v bool) {
	if v {
		buf[off] = 1
	} else {
		buf[off] = 0
	}
}

func putPercent(buf []byte, off int, v uint8, id CharacteristicID, field string) error {
	if v > 100 {
		return &OutOfRangeError{Characteristic: id, Field: field, Value: v}
	}
	buf[off] = v
	return nil
}
