//
// Copyright (C) 2023 Alex Mihai
//
// SPDX-License-Identifier: Apache-2.0

package onboarding

import "github.com/AlexMihai1804/autowatering-smart-dashboard-sub003/internal/gatt"

// ChannelSummary is one channel's derived setup view.
type ChannelSummary struct {
	Channel          uint8    `json:"channel"`
	BaseComplete     bool     `json:"baseComplete"`
	ReadyForAutoMode bool     `json:"readyForAutoMode"`
	Flags            []string `json:"flags"`
	ExtendedFlags    []string `json:"extendedFlags"`
}

// Snapshot is the full derived setup view served over the REST surface.
// It is recomputed from an OnboardingStatus record on every request;
// recomputing is cheap and can never disagree with the last read.
type Snapshot struct {
	OverallPct           uint8            `json:"overallPct"`
	InitialSetupComplete bool             `json:"initialSetupComplete"`
	AnyConfiguredChannel bool             `json:"anyConfiguredChannel"`
	SystemFlags          []string         `json:"systemFlags"`
	Channels             []ChannelSummary `json:"channels"`
	LastConfigUnix       uint32           `json:"lastConfigUnix"`
}

// Summarize derives the full setup view from one OnboardingStatus record.
func Summarize(st gatt.OnboardingStatus) Snapshot {
	snap := Snapshot{
		OverallPct:           st.OverallPct,
		InitialSetupComplete: IsInitialSetupComplete(st.SystemFlags, st.ChannelFlags),
		AnyConfiguredChannel: HasAnyConfiguredChannel(st.ChannelFlags),
		SystemFlags:          setSystemFlagNames(st.SystemFlags),
		LastConfigUnix:       st.LastConfigUnix,
	}

	for c := uint8(0); c < NumChannels; c++ {
		snap.Channels = append(snap.Channels, ChannelSummary{
			Channel:          c,
			BaseComplete:     IsChannelBaseComplete(st.ChannelFlags, c),
			ReadyForAutoMode: IsChannelReadyForAutoMode(st.ChannelExtendedFlags, c),
			Flags:            setChannelFlagNames(st.ChannelFlags, c),
			ExtendedFlags:    setExtendedFlagNames(st.ChannelExtendedFlags, c),
		})
	}
	return snap
}

func setSystemFlagNames(systemFlags uint32) []string {
	var names []string
	for f := SystemFlag(0); f < numSystemFlags; f++ {
		if HasSystemFlag(systemFlags, f) {
			names = append(names, f.String())
		}
	}
	return names
}

func setChannelFlagNames(channelFlags uint64, channel uint8) []string {
	var names []string
	for f := PlantSet; f <= ChannelEnabled; f++ {
		if HasChannelFlag(channelFlags, channel, f) {
			names = append(names, f.String())
		}
	}
	return names
}

func setExtendedFlagNames(extFlags uint64, channel uint8) []string {
	var names []string
	for f := ReadyForAutoMode; f <= SensorFault; f++ {
		if HasChannelExtendedFlag(extFlags, channel, f) {
			names = append(names, f.String())
		}
	}
	return names
}
