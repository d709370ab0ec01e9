//
// Copyright (C) 2023 Alex Mihai
//
// SPDX-License-Identifier: Apache-2.0

package onboarding

import (
	"testing"

	"github.com/AlexMihai1804/autowatering-smart-dashboard-sub003/internal/gatt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func channelBits(channel uint8, flags ...ChannelFlag) uint64 {
	var v uint64
	for _, f := range flags {
		v |= 1 << (uint64(channel)*8 + uint64(f))
	}
	return v
}

func TestChannelFlagIndependence(t *testing.T) {
	// setting one (channel, flag) bit must never flip any other pair
	for c := uint8(0); c < NumChannels; c++ {
		for f := ChannelFlag(0); f <= ChannelEnabled; f++ {
			v := channelBits(c, f)
			for oc := uint8(0); oc < NumChannels; oc++ {
				for of := ChannelFlag(0); of <= ChannelEnabled; of++ {
					want := oc == c && of == f
					assert.Equal(t, want, HasChannelFlag(v, oc, of),
						"bit (%d,%d) observed via (%d,%d)", c, f, oc, of)
				}
			}
		}
	}
}

func TestHasChannelFlagOutOfRangeChannel(t *testing.T) {
	assert.False(t, HasChannelFlag(^uint64(0), 8, PlantSet))
	assert.False(t, HasChannelExtendedFlag(^uint64(0), 200, ReadyForAutoMode))
}

func TestIsChannelBaseComplete(t *testing.T) {
	tests := []struct {
		name    string
		flags   uint64
		channel uint8
		want    bool
	}{
		{
			name:    "all five base bits",
			flags:   channelBits(3, PlantSet, SoilSet, IrrigationMethodSet, CoverageSet, SunExposureSet),
			channel: 3,
			want:    true,
		},
		{
			name:    "missing sun exposure",
			flags:   channelBits(3, PlantSet, SoilSet, IrrigationMethodSet, CoverageSet),
			channel: 3,
			want:    false,
		},
		{
			name:    "bits on the wrong channel",
			flags:   channelBits(2, PlantSet, SoilSet, IrrigationMethodSet, CoverageSet, SunExposureSet),
			channel: 3,
			want:    false,
		},
		{
			name: "extra bits do not hurt",
			flags: channelBits(0, PlantSet, SoilSet, IrrigationMethodSet, CoverageSet,
				SunExposureSet, ChannelNameSet, ScheduleSet, ChannelEnabled),
			channel: 0,
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsChannelBaseComplete(tt.flags, tt.channel))
		})
	}
}

func TestHasAnyConfiguredChannel(t *testing.T) {
	// channel 3 with bits 0-3 set is enough, and no other channel reports
	flags := channelBits(3, PlantSet, SoilSet, IrrigationMethodSet, CoverageSet)
	require.True(t, HasAnyConfiguredChannel(flags))
	assert.True(t, firstFourBaseBitsSet(flags, 3))
	for c := uint8(0); c < NumChannels; c++ {
		if c == 3 {
			continue
		}
		assert.False(t, firstFourBaseBitsSet(flags, c), "channel %d", c)
	}

	assert.False(t, HasAnyConfiguredChannel(channelBits(3, PlantSet, SoilSet, IrrigationMethodSet)))
	assert.False(t, HasAnyConfiguredChannel(0))
}

// firstFourBaseBitsSet mirrors the any-configured criterion for a
// single channel so the test can assert per-channel independence.
func firstFourBaseBitsSet(flags uint64, channel uint8) bool {
	return HasChannelFlag(flags, channel, PlantSet) &&
		HasChannelFlag(flags, channel, SoilSet) &&
		HasChannelFlag(flags, channel, IrrigationMethodSet) &&
		HasChannelFlag(flags, channel, CoverageSet)
}

func TestIsInitialSetupComplete(t *testing.T) {
	configured := channelBits(0, PlantSet, SoilSet, IrrigationMethodSet, CoverageSet)
	rtcAndTZ := uint32(1<<RTCSet | 1<<TimezoneSet)

	tests := []struct {
		name         string
		systemFlags  uint32
		channelFlags uint64
		want         bool
	}{
		{"complete", rtcAndTZ, configured, true},
		{"missing rtc", uint32(1 << TimezoneSet), configured, false},
		{"missing timezone", uint32(1 << RTCSet), configured, false},
		{"no configured channel", rtcAndTZ, 0, false},
		{"legacy extra system bits tolerated", ^uint32(0), configured, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsInitialSetupComplete(tt.systemFlags, tt.channelFlags))
		})
	}
}

func TestReadyForAutoModeIsNotRecomputed(t *testing.T) {
	// the bit is trusted as-is even when the base config is incomplete
	ext := uint64(1) << (5 * 8) // channel 5, bit 0
	assert.True(t, IsChannelReadyForAutoMode(ext, 5))
	assert.False(t, IsChannelReadyForAutoMode(ext, 4))

	// and conversely, a fully configured channel is not ready until the
	// firmware says so
	assert.False(t, IsChannelReadyForAutoMode(0, 5))
}

func TestSummarize(t *testing.T) {
	st := gatt.OnboardingStatus{
		OverallPct:   60,
		SystemFlags:  uint32(1<<RTCSet | 1<<TimezoneSet | 1<<DeviceNameSet),
		ChannelFlags: channelBits(1, PlantSet, SoilSet, IrrigationMethodSet, CoverageSet, SunExposureSet),
		ChannelExtendedFlags: uint64(1) << (1*8 + uint64(MoistureCalibrated)),
		LastConfigUnix:       1690000000,
	}

	snap := Summarize(st)
	assert.EqualValues(t, 60, snap.OverallPct)
	assert.True(t, snap.InitialSetupComplete)
	assert.True(t, snap.AnyConfiguredChannel)
	assert.ElementsMatch(t, []string{"rtc_set", "timezone_set", "device_name_set"}, snap.SystemFlags)

	require.Len(t, snap.Channels, NumChannels)
	ch1 := snap.Channels[1]
	assert.True(t, ch1.BaseComplete)
	assert.False(t, ch1.ReadyForAutoMode)
	assert.Contains(t, ch1.ExtendedFlags, "moisture_calibrated")
	assert.False(t, snap.Channels[0].BaseComplete)
}
