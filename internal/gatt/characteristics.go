//
// Copyright (C) 2023 Alex Mihai
//
// SPDX-License-Identifier: Apache-2.0

// Package gatt implements the binary codec for the irrigation controller's
// GATT characteristics. Every characteristic is a fixed-size little-endian
// record; the firmware and this package must agree on every offset, width,
// scale factor, and bit position, so encode and decode are byte-exact and
// never accept partial buffers.
package gatt

// CharacteristicID identifies one independently addressable record exchanged
// with the controller.
type CharacteristicID uint8

const (
	CharSystemStatus        CharacteristicID = 0x01
	CharDiagnostics         CharacteristicID = 0x02
	CharTimeConfig          CharacteristicID = 0x03
	CharChannelConfig       CharacteristicID = 0x04
	CharScheduleConfig      CharacteristicID = 0x05
	CharEnvironmentConfig   CharacteristicID = 0x06
	CharMoistureCalibration CharacteristicID = 0x07
	CharOnboardingStatus    CharacteristicID = 0x08
	CharManualControl       CharacteristicID = 0x09
	CharHistoryControl      CharacteristicID = 0x0A
	CharHistoryData         CharacteristicID = 0x0B
	CharResetControl        CharacteristicID = 0x0C
)

// MaxExchangeBytes is the single-exchange payload ceiling of the link.
// Records larger than this are carried only through the history
// fragmentation protocol, never as a raw oversized read or write.
const MaxExchangeBytes = 20

type characteristicInfo struct {
	name string
	size int
	decode func([]byte) (Record, error)
}

// characteristics is the registry of every fixed-layout record this package
// understands. HistoryData is absent on purpose: its length varies with the
// fragment payload and it is parsed by the history package instead.
var characteristics = map[CharacteristicID]characteristicInfo{
	CharSystemStatus:        {"SystemStatus", 16, decodeSystemStatus},
	CharDiagnostics:         {"Diagnostics", 12, decodeDiagnostics},
	CharTimeConfig:          {"TimeConfig", 8, decodeTimeConfig},
	CharChannelConfig:       {"ChannelConfig", 76, decodeChannelConfig},
	CharScheduleConfig:      {"ScheduleConfig", 16, decodeScheduleConfig},
	CharEnvironmentConfig:   {"EnvironmentConfig", 12, decodeEnvironmentConfig},
	CharMoistureCalibration: {"MoistureCalibration", 8, decodeMoistureCalibration},
	CharOnboardingStatus:    {"OnboardingStatus", 33, decodeOnboardingStatus},
	CharManualControl:       {"ManualControl", 8, decodeManualControl},
	CharHistoryControl:      {"HistoryControl", 12, decodeHistoryControl},
	CharResetControl:        {"ResetControl", 16, decodeResetControl},
}

func (id CharacteristicID) String() string {
	if info, ok := characteristics[id]; ok {
		return info.name
	}
	return "Unknown"
}

// Size returns the fixed byte length of the characteristic's record,
// or -1 if the id is not registered.
func (id CharacteristicID) Size() int {
	info, ok := characteristics[id]
	if !ok {
		return -1
	}
	return info.size
}

// Record is one decoded characteristic value. Records are immutable value
// objects once decoded; a write encodes a freshly constructed record.
type Record interface {
	Characteristic() CharacteristicID
	encodeTo(buf []byte) error
}

// Decode interprets buf as the characteristic's record. A buffer whose
// length differs from the declared fixed size is always a SizeMismatchError,
// never a best-effort partial record.
func Decode(id CharacteristicID, buf []byte) (Record, error) {
	info, ok := characteristics[id]
	if !ok {
		return nil, &UnknownCharacteristicError{ID: id}
	}
	if len(buf) != info.size {
		return nil, &SizeMismatchError{Characteristic: id, Want: info.size, Got: len(buf)}
	}
	return info.decode(buf)
}

// Encode validates r's field values against their declared domains and
// produces the record's fixed-size buffer. Validation happens here, at
// encode time, so a structurally invalid write never reaches the link.
func Encode(r Record) ([]byte, error) {
	size := r.Characteristic().Size()
	if size < 0 {
		return nil, &UnknownCharacteristicError{ID: r.Characteristic()}
	}
	buf := make([]byte, size)
	if err := r.encodeTo(buf); err != nil {
		return nil, err
	}
	return buf, nil
}
