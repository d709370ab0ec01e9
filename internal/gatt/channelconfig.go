//
// Copyright (C) 2023 Alex Mihai
//
// SPDX-License-Identifier: Apache-2.0

package gatt

import "math"

// CoverageMode discriminates the two mutually exclusive ways a channel's
// coverage is described.
type CoverageMode uint8

const (
	CoverageByArea       CoverageMode = 0
	CoverageByPlantCount CoverageMode = 1
)

// Coverage is a tagged variant: either an irrigated area in square meters or
// a plant count, never both. Construct values with AreaCoverage or
// PlantCountCoverage; the zero value means area 0.
type Coverage struct {
	Mode       CoverageMode
	AreaM2     float32
	PlantCount uint16
}

func AreaCoverage(m2 float32) Coverage {
	return Coverage{Mode: CoverageByArea, AreaM2: m2}
}

func PlantCountCoverage(n uint16) Coverage {
	return Coverage{Mode: CoverageByPlantCount, PlantCount: n}
}

const (
	channelNameOff   = 1
	channelNameWidth = 64 // 63 usable bytes plus the firmware's terminator
)

// ChannelConfig is the per-zone configuration record (characteristic 0x04,
// 76 bytes). The name field is a fixed 64-byte NUL-padded UTF-8 buffer.
type ChannelConfig struct {
	ChannelID        uint8
	Name             string
	AutoEnabled      bool
	PlantType        uint8
	SoilType         uint8
	IrrigationMethod uint8
	Coverage         Coverage
	SunPercentage    uint8
}

func (ChannelConfig) Characteristic() CharacteristicID { return CharChannelConfig }

func (r ChannelConfig) encodeTo(buf []byte) error {
	if r.ChannelID > 7 {
		return &OutOfRangeError{Characteristic: CharChannelConfig, Field: "channel_id", Value: r.ChannelID}
	}
	buf[0] = r.ChannelID
	putString(buf, channelNameOff, channelNameWidth, r.Name)
	putBool(buf, 65, r.AutoEnabled)
	buf[66] = r.PlantType
	buf[67] = r.SoilType
	buf[68] = r.IrrigationMethod

	buf[69] = uint8(r.Coverage.Mode)
	switch r.Coverage.Mode {
	case CoverageByArea:
		putU32(buf, 70, math.Float32bits(r.Coverage.AreaM2))
	case CoverageByPlantCount:
		putU16(buf, 70, r.Coverage.PlantCount)
		putU16(buf, 72, 0)
	default:
		return &UnknownDiscriminatorError{
			Characteristic: CharChannelConfig, Field: "coverage_mode", Value: uint8(r.Coverage.Mode)}
	}

	if err := putPercent(buf, 74, r.SunPercentage, CharChannelConfig, "sun_percentage"); err != nil {
		return err
	}
	buf[75] = 0
	return nil
}

func decodeChannelConfig(buf []byte) (Record, error) {
	r := ChannelConfig{
		ChannelID:        buf[0],
		Name:             getString(buf, channelNameOff, channelNameWidth),
		AutoEnabled:      buf[65] != 0,
		PlantType:        buf[66],
		SoilType:         buf[67],
		IrrigationMethod: buf[68],
		SunPercentage:    buf[74],
	}

	// The union decodes exactly one branch; the other branch's bytes are
	// ignored rather than carried along.
	switch CoverageMode(buf[69]) {
	case CoverageByArea:
		r.Coverage = AreaCoverage(math.Float32frombits(u32(buf, 70)))
	case CoverageByPlantCount:
		r.Coverage = PlantCountCoverage(u16(buf, 70))
	default:
		return nil, &UnknownDiscriminatorError{
			Characteristic: CharChannelConfig, Field: "coverage_mode", Value: buf[69]}
	}

	return r, nil
}
