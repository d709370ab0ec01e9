//
// Copyright (C) 2023 Alex Mihai
//
// SPDX-License-Identifier: Apache-2.0

package gatt

// OnboardingStatus is the controller's configuration-completeness report
// (characteristic 0x08, 33 bytes). The three packed flag scalars are
// interpreted by the onboarding package; this record only moves them across
// the wire. The controller owns every bit: the app never clears one locally,
// it re-reads this record instead.
type OnboardingStatus struct {
	OverallPct  uint8
	ChannelsPct uint8
	SchedulePct uint8
	SensorsPct  uint8

	ChannelFlags         uint64
	SystemFlags          uint32
	ScheduleFlags        uint8
	ChannelExtendedFlags uint64

	FirstConfigUnix uint32
	LastConfigUnix  uint32
}

func (OnboardingStatus) Characteristic() CharacteristicID { return CharOnboardingStatus }

func (r OnboardingStatus) encodeTo(buf []byte) error {
	pcts := []struct {
		name string
		off  int
		v    uint8
	}{
		{"overall_pct", 0, r.OverallPct},
		{"channels_pct", 1, r.ChannelsPct},
		{"schedule_pct", 2, r.SchedulePct},
		{"sensors_pct", 3, r.SensorsPct},
	}
	for _, p := range pcts {
		if err := putPercent(buf, p.off, p.v, CharOnboardingStatus, p.name); err != nil {
			return err
		}
	}

	putU64(buf, 4, r.ChannelFlags)
	putU32(buf, 12, r.SystemFlags)
	buf[16] = r.ScheduleFlags
	putU32(buf, 17, r.FirstConfigUnix)
	putU32(buf, 21, r.LastConfigUnix)
	putU64(buf, 25, r.ChannelExtendedFlags)
	return nil
}

func decodeOnboardingStatus(buf []byte) (Record, error) {
	return OnboardingStatus{
		OverallPct:           buf[0],
		ChannelsPct:          buf[1],
		SchedulePct:          buf[2],
		SensorsPct:           buf[3],
		ChannelFlags:         u64(buf, 4),
		SystemFlags:          u32(buf, 12),
		ScheduleFlags:        buf[16],
		FirstConfigUnix:      u32(buf, 17),
		LastConfigUnix:       u32(buf, 21),
		ChannelExtendedFlags: u64(buf, 25),
	}, nil
}
