//
// Copyright (C) 2023 Alex Mihai
//
// SPDX-License-Identifier: Apache-2.0

package gatt

// Environment flag bits (characteristic 0x06, byte 9).
const (
	EnvRainPauseEnabled uint8 = 1 << 0
	EnvTempPauseEnabled uint8 = 1 << 1
	EnvHumidityPauseEnabled uint8 = 1 << 2
)

// EnvironmentConfig holds the weather-skip rules (characteristic 0x06,
// 12 bytes). Temperatures are hundredths of a degree on the wire; the rain
// threshold is hundredths of a millimeter.
type EnvironmentConfig struct {
	RainDelayHours   uint8
	LowTempPauseC    float64 // x100
	HighTempPauseC   float64 // x100
	RainThresholdMM  float64 // x100
	HumidityPausePct uint8
	Flags            uint8
}

func (EnvironmentConfig) Characteristic() CharacteristicID { return CharEnvironmentConfig }

func (r EnvironmentConfig) encodeTo(buf []byte) error {
	buf[0] = r.RainDelayHours
	buf[1] = 0
	if err := putScaledI16(buf, 2, r.LowTempPauseC, 100, CharEnvironmentConfig, "low_temp_pause_c"); err != nil {
		return err
	}
	if err := putScaledI16(buf, 4, r.HighTempPauseC, 100, CharEnvironmentConfig, "high_temp_pause_c"); err != nil {
		return err
	}
	if err := putScaledU16(buf, 6, r.RainThresholdMM, 100, CharEnvironmentConfig, "rain_threshold_mm"); err != nil {
		return err
	}
	if err := putPercent(buf, 8, r.HumidityPausePct, CharEnvironmentConfig, "humidity_pause_pct"); err != nil {
		return err
	}
	buf[9] = r.Flags
	putU16(buf, 10, 0)
	return nil
}

func decodeEnvironmentConfig(buf []byte) (Record, error) {
	return EnvironmentConfig{
		RainDelayHours:   buf[0],
		LowTempPauseC:    scaledI16(buf, 2, 100),
		HighTempPauseC:   scaledI16(buf, 4, 100),
		RainThresholdMM:  scaledU16(buf, 6, 100),
		HumidityPausePct: buf[8],
		Flags:            buf[9],
	}, nil
}

// MoistureCalibration maps a channel's raw sensor readings to 0-100%
// (characteristic 0x07, 8 bytes).
type MoistureCalibration struct {
	ChannelID  uint8
	SensorType uint8
	DryRaw     uint16
	WetRaw     uint16
}

func (MoistureCalibration) Characteristic() CharacteristicID { return CharMoistureCalibration }

func (r MoistureCalibration) encodeTo(buf []byte) error {
	if r.ChannelID > 7 {
		return &OutOfRangeError{Characteristic: CharMoistureCalibration, Field: "channel_id", Value: r.ChannelID}
	}
	buf[0] = r.ChannelID
	buf[1] = r.SensorType
	putU16(buf, 2, r.DryRaw)
	putU16(buf, 4, r.WetRaw)
	putU16(buf, 6, 0)
	return nil
}

func decodeMoistureCalibration(buf []byte) (Record, error) {
	return MoistureCalibration{
		ChannelID:  buf[0],
		SensorType: buf[1],
		DryRaw:     u16(buf, 2),
		WetRaw:     u16(buf, 4),
	}, nil
}

// Manual valve actions (characteristic 0x09, byte 1).
const (
	ManualStop uint8 = 0
	ManualOpen uint8 = 1
)

// ManualControl commands a valve directly (characteristic 0x09, 8 bytes).
type ManualControl struct {
	ChannelID     uint8
	Action        uint8
	DurationSec   uint16
	VolumeLimitML uint16
	RequestedBy   uint8
}

func (ManualControl) Characteristic() CharacteristicID { return CharManualControl }

func (r ManualControl) encodeTo(buf []byte) error {
	if r.ChannelID > 7 {
		return &OutOfRangeError{Characteristic: CharManualControl, Field: "channel_id", Value: r.ChannelID}
	}
	if r.Action > ManualOpen {
		return &OutOfRangeError{Characteristic: CharManualControl, Field: "action", Value: r.Action}
	}
	buf[0] = r.ChannelID
	buf[1] = r.Action
	putU16(buf, 2, r.DurationSec)
	putU16(buf, 4, r.VolumeLimitML)
	buf[6] = r.RequestedBy
	buf[7] = 0
	return nil
}

func decodeManualControl(buf []byte) (Record, error) {
	return ManualControl{
		ChannelID:     buf[0],
		Action:        buf[1],
		DurationSec:   u16(buf, 2),
		VolumeLimitML: u16(buf, 4),
		RequestedBy:   buf[6],
	}, nil
}
