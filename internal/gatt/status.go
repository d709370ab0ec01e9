//
// Copyright (C) 2023 Alex Mihai
//
// SPDX-License-Identifier: Apache-2.0

package gatt

// BatteryExternalPower is reported in Diagnostics.BatteryPct when the
// controller runs from a wired supply instead of its battery.
const BatteryExternalPower = 0xFF

// NoActiveChannel is reported in SystemStatus.ActiveChannel when no valve
// is open.
const NoActiveChannel = 0xFF

// Diagnostics is the controller's health record (characteristic 0x02,
// 12 bytes). Read-only from the app's point of view; encode exists so the
// simulator and tests can produce firmware-shaped buffers.
type Diagnostics struct {
	UptimeMin     uint32
	ErrorCount    uint16
	LastError     uint8
	ValveBitmask  uint8
	BatteryPct    uint8 // 0-100, or BatteryExternalPower
	RadioRSSI     int8  // dBm
	WaterLevelPct uint8
}

func (Diagnostics) Characteristic() CharacteristicID { return CharDiagnostics }

func (r Diagnostics) encodeTo(buf []byte) error {
	if r.BatteryPct > 100 && r.BatteryPct != BatteryExternalPower {
		return &OutOfRangeError{Characteristic: CharDiagnostics, Field: "battery_pct", Value: r.BatteryPct}
	}
	putU32(buf, 0, r.UptimeMin)
	putU16(buf, 4, r.ErrorCount)
	buf[6] = r.LastError
	buf[7] = r.ValveBitmask
	buf[8] = r.BatteryPct
	buf[9] = byte(r.RadioRSSI)
	if err := putPercent(buf, 10, r.WaterLevelPct, CharDiagnostics, "water_level_pct"); err != nil {
		return err
	}
	buf[11] = 0
	return nil
}

func decodeDiagnostics(buf []byte) (Record, error) {
	return Diagnostics{
		UptimeMin:     u32(buf, 0),
		ErrorCount:    u16(buf, 4),
		LastError:     buf[6],
		ValveBitmask:  buf[7],
		BatteryPct:    buf[8],
		RadioRSSI:     int8(buf[9]),
		WaterLevelPct: buf[10],
	}, nil
}

// SystemStatus is the live device state record (characteristic 0x01,
// 16 bytes). Temperature is stored as hundredths of a degree.
type SystemStatus struct {
	UnixTime        uint32
	BatteryMV       uint16
	TemperatureC    float64 // x100 on the wire
	ActiveChannel   uint8   // NoActiveChannel when idle
	State           uint8
	TotalRuntimeMin uint32
	FirmwareMajor   uint8
	FirmwareMinor   uint8
}

func (SystemStatus) Characteristic() CharacteristicID { return CharSystemStatus }

func (r SystemStatus) encodeTo(buf []byte) error {
	putU32(buf, 0, r.UnixTime)
	putU16(buf, 4, r.BatteryMV)
	if err := putScaledI16(buf, 6, r.TemperatureC, 100, CharSystemStatus, "temperature_c"); err != nil {
		return err
	}
	buf[8] = r.ActiveChannel
	buf[9] = r.State
	putU32(buf, 10, r.TotalRuntimeMin)
	buf[14] = r.FirmwareMajor
	buf[15] = r.FirmwareMinor
	return nil
}

func decodeSystemStatus(buf []byte) (Record, error) {
	return SystemStatus{
		UnixTime:        u32(buf, 0),
		BatteryMV:       u16(buf, 4),
		TemperatureC:    scaledI16(buf, 6, 100),
		ActiveChannel:   buf[8],
		State:           buf[9],
		TotalRuntimeMin: u32(buf, 10),
		FirmwareMajor:   buf[14],
		FirmwareMinor:   buf[15],
	}, nil
}

// TimeSource discriminates who last set the controller's clock.
const (
	TimeSourceUnset uint8 = 0
	TimeSourceApp   uint8 = 1
	TimeSourceNTP   uint8 = 2
)

// TimeConfig is the RTC record (characteristic 0x03, 8 bytes).
type TimeConfig struct {
	UnixTime    uint32
	TZOffsetMin int16
	DSTEnabled  bool
	TimeSource  uint8
}

func (TimeConfig) Characteristic() CharacteristicID { return CharTimeConfig }

func (r TimeConfig) encodeTo(buf []byte) error {
	// UTC offsets span -12h to +14h.
	if r.TZOffsetMin < -12*60 || r.TZOffsetMin > 14*60 {
		return &OutOfRangeError{Characteristic: CharTimeConfig, Field: "tz_offset_min", Value: r.TZOffsetMin}
	}
	if r.TimeSource > TimeSourceNTP {
		return &OutOfRangeError{Characteristic: CharTimeConfig, Field: "time_source", Value: r.TimeSource}
	}
	putU32(buf, 0, r.UnixTime)
	putU16(buf, 4, uint16(r.TZOffsetMin))
	putBool(buf, 6, r.DSTEnabled)
	buf[7] = r.TimeSource
	return nil
}

func decodeTimeConfig(buf []byte) (Record, error) {
	return TimeConfig{
		UnixTime:    u32(buf, 0),
		TZOffsetMin: int16(u16(buf, 4)),
		DSTEnabled:  buf[6] != 0,
		TimeSource:  buf[7],
	}, nil
}
