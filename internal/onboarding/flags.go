//
// Copyright (C) 2023 Alex Mihai
//
// SPDX-License-Identifier: Apache-2.0

// Package onboarding interprets the controller's three packed flag scalars
// as named setup-completeness predicates. Everything here is a pure
// function of the values passed in: no caching and no hidden state, so the
// answers can never drift from the latest OnboardingStatus read.
package onboarding

// SystemFlag is a bit position in the 32-bit global flag word.
type SystemFlag uint8

const (
	RTCSet SystemFlag = iota
	TimezoneSet
	LocationSet
	WeatherConfigured
	TankConfigured
	FlowSensorCalibrated
	PowerProfileSet
	DeviceNameSet
	ScheduleCreated
	NotificationsConfigured
	InitialSyncDone

	numSystemFlags
)

// ChannelFlag is a channel-relative bit position (0-7) in the 64-bit
// per-channel flag word. Channel c's flag f lives at absolute bit c*8+f.
type ChannelFlag uint8

const (
	PlantSet ChannelFlag = iota
	SoilSet
	IrrigationMethodSet
	CoverageSet
	SunExposureSet
	ChannelNameSet
	ScheduleSet
	ChannelEnabled
)

// ChannelExtendedFlag is the second, independent per-channel vocabulary
// with the same bit packing.
type ChannelExtendedFlag uint8

const (
	// ReadyForAutoMode is computed by the firmware, which may apply rules
	// this client does not know. It is reported, never re-derived here.
	ReadyForAutoMode ChannelExtendedFlag = iota
	MoistureCalibrated
	FlowCalibrated
	SensorPaired
	FirstWateringDone
	HistoryAvailable
	LowMoistureAlert
	SensorFault
)

// NumChannels is the number of independently configured irrigation zones.
const NumChannels = 8

// Single tables of (bit, name) pairs keep the names and the accessors in
// one place instead of scattering magic bit numbers across call sites.

var systemFlagNames = map[SystemFlag]string{
	RTCSet:                  "rtc_set",
	TimezoneSet:             "timezone_set",
	LocationSet:             "location_set",
	WeatherConfigured:       "weather_configured",
	TankConfigured:          "tank_configured",
	FlowSensorCalibrated:    "flow_sensor_calibrated",
	PowerProfileSet:         "power_profile_set",
	DeviceNameSet:           "device_name_set",
	ScheduleCreated:         "schedule_created",
	NotificationsConfigured: "notifications_configured",
	InitialSyncDone:         "initial_sync_done",
}

var channelFlagNames = map[ChannelFlag]string{
	PlantSet:            "plant_set",
	SoilSet:             "soil_set",
	IrrigationMethodSet: "irrigation_method_set",
	CoverageSet:         "coverage_set",
	SunExposureSet:      "sun_exposure_set",
	ChannelNameSet:      "name_set",
	ScheduleSet:         "schedule_set",
	ChannelEnabled:      "enabled",
}

var channelExtendedFlagNames = map[ChannelExtendedFlag]string{
	ReadyForAutoMode:   "ready_for_auto_mode",
	MoistureCalibrated: "moisture_calibrated",
	FlowCalibrated:     "flow_calibrated",
	SensorPaired:       "sensor_paired",
	FirstWateringDone:  "first_watering_done",
	HistoryAvailable:   "history_available",
	LowMoistureAlert:   "low_moisture_alert",
	SensorFault:        "sensor_fault",
}

func (f SystemFlag) String() string          { return systemFlagNames[f] }
func (f ChannelFlag) String() string         { return channelFlagNames[f] }
func (f ChannelExtendedFlag) String() string { return channelExtendedFlagNames[f] }

// HasSystemFlag reports whether the named global bit is set.
func HasSystemFlag(systemFlags uint32, flag SystemFlag) bool {
	return systemFlags&(1<<uint32(flag)) != 0
}

// HasChannelFlag reports whether channel's flag is set in the packed
// per-channel word. Channels outside 0-7 report false.
func HasChannelFlag(channelFlags uint64, channel uint8, flag ChannelFlag) bool {
	if channel >= NumChannels {
		return false
	}
	return channelFlags&(1<<(uint64(channel)*8+uint64(flag))) != 0
}

// HasChannelExtendedFlag is HasChannelFlag over the extended vocabulary.
func HasChannelExtendedFlag(extFlags uint64, channel uint8, flag ChannelExtendedFlag) bool {
	if channel >= NumChannels {
		return false
	}
	return extFlags&(1<<(uint64(channel)*8+uint64(flag))) != 0
}

// IsChannelBaseComplete reports whether the channel's five base
// configuration steps are all done.
func IsChannelBaseComplete(channelFlags uint64, channel uint8) bool {
	return HasChannelFlag(channelFlags, channel, PlantSet) &&
		HasChannelFlag(channelFlags, channel, SoilSet) &&
		HasChannelFlag(channelFlags, channel, IrrigationMethodSet) &&
		HasChannelFlag(channelFlags, channel, CoverageSet) &&
		HasChannelFlag(channelFlags, channel, SunExposureSet)
}

// IsChannelReadyForAutoMode reports the firmware's own completeness
// judgment for automatic watering. It is deliberately a single bit read:
// the device decides, not this model.
func IsChannelReadyForAutoMode(extFlags uint64, channel uint8) bool {
	return HasChannelExtendedFlag(extFlags, channel, ReadyForAutoMode)
}

// HasAnyConfiguredChannel reports whether at least one channel has its
// first four base bits (plant, soil, method, coverage) all set.
func HasAnyConfiguredChannel(channelFlags uint64) bool {
	for c := uint8(0); c < NumChannels; c++ {
		if HasChannelFlag(channelFlags, c, PlantSet) &&
			HasChannelFlag(channelFlags, c, SoilSet) &&
			HasChannelFlag(channelFlags, c, IrrigationMethodSet) &&
			HasChannelFlag(channelFlags, c, CoverageSet) {
			return true
		}
	}
	return false
}

// IsInitialSetupComplete is the gate for leaving the first-run wizard:
// clock and timezone are set and at least one channel is configured.
func IsInitialSetupComplete(systemFlags uint32, channelFlags uint64) bool {
	return HasSystemFlag(systemFlags, RTCSet) &&
		HasSystemFlag(systemFlags, TimezoneSet) &&
		HasAnyConfiguredChannel(channelFlags)
}
