//
// Copyright (C) 2023 Alex Mihai
//
// SPDX-License-Identifier: Apache-2.0

package gatt

// ScheduleMode discriminates the three schedule shapes the firmware runs.
type ScheduleMode uint8

const (
	ScheduleDaily    ScheduleMode = 0
	ScheduleInterval ScheduleMode = 1
	ScheduleWeekly   ScheduleMode = 2
)

// SchedulePlan is a tagged variant over the schedule mode: a weekly plan
// carries a day bitmask (Monday = bit 0), an interval plan carries an
// every-N-days count, and a daily plan carries nothing. Construct values
// with the DailyPlan/IntervalPlan/WeeklyPlan helpers.
type SchedulePlan struct {
	Mode         ScheduleMode
	DaysBitmask  uint8 // weekly only
	IntervalDays uint8 // interval only, 1-30
}

func DailyPlan() SchedulePlan                { return SchedulePlan{Mode: ScheduleDaily} }
func IntervalPlan(days uint8) SchedulePlan   { return SchedulePlan{Mode: ScheduleInterval, IntervalDays: days} }
func WeeklyPlan(daysBitmask uint8) SchedulePlan {
	return SchedulePlan{Mode: ScheduleWeekly, DaysBitmask: daysBitmask}
}

// ScheduleConfig is the per-channel watering schedule (characteristic 0x05,
// 16 bytes).
type ScheduleConfig struct {
	ChannelID      uint8
	Plan           SchedulePlan
	StartMinute    uint16 // minutes after local midnight, 0-1439
	DurationSec    uint16
	Enabled        bool
	VolumeLimitML  uint16
	MoistureMinPct uint8
	MoistureMaxPct uint8
	NextRunUnix    uint32
}

func (ScheduleConfig) Characteristic() CharacteristicID { return CharScheduleConfig }

func (r ScheduleConfig) encodeTo(buf []byte) error {
	if r.ChannelID > 7 {
		return &OutOfRangeError{Characteristic: CharScheduleConfig, Field: "channel_id", Value: r.ChannelID}
	}
	if r.StartMinute > 1439 {
		return &OutOfRangeError{Characteristic: CharScheduleConfig, Field: "start_minute", Value: r.StartMinute}
	}
	buf[0] = r.ChannelID
	buf[1] = uint8(r.Plan.Mode)
	putU16(buf, 2, r.StartMinute)
	putU16(buf, 4, r.DurationSec)

	switch r.Plan.Mode {
	case ScheduleDaily:
		buf[6] = 0
	case ScheduleInterval:
		if r.Plan.IntervalDays < 1 || r.Plan.IntervalDays > 30 {
			return &OutOfRangeError{Characteristic: CharScheduleConfig, Field: "interval_days", Value: r.Plan.IntervalDays}
		}
		buf[6] = r.Plan.IntervalDays
	case ScheduleWeekly:
		if r.Plan.DaysBitmask > 0x7F {
			return &OutOfRangeError{Characteristic: CharScheduleConfig, Field: "days_bitmask", Value: r.Plan.DaysBitmask}
		}
		buf[6] = r.Plan.DaysBitmask
	default:
		return &UnknownDiscriminatorError{Characteristic: CharScheduleConfig, Field: "mode", Value: uint8(r.Plan.Mode)}
	}

	putBool(buf, 7, r.Enabled)
	putU16(buf, 8, r.VolumeLimitML)
	if err := putPercent(buf, 10, r.MoistureMinPct, CharScheduleConfig, "moisture_min_pct"); err != nil {
		return err
	}
	if err := putPercent(buf, 11, r.MoistureMaxPct, CharScheduleConfig, "moisture_max_pct"); err != nil {
		return err
	}
	putU32(buf, 12, r.NextRunUnix)
	return nil
}

func decodeScheduleConfig(buf []byte) (Record, error) {
	var plan SchedulePlan
	switch ScheduleMode(buf[1]) {
	case ScheduleDaily:
		plan = DailyPlan()
	case ScheduleInterval:
		plan = IntervalPlan(buf[6])
	case ScheduleWeekly:
		plan = WeeklyPlan(buf[6])
	default:
		return nil, &UnknownDiscriminatorError{Characteristic: CharScheduleConfig, Field: "mode", Value: buf[1]}
	}

	return ScheduleConfig{
		ChannelID:      buf[0],
		Plan:           plan,
		StartMinute:    u16(buf, 2),
		DurationSec:    u16(buf, 4),
		Enabled:        buf[7] != 0,
		VolumeLimitML:  u16(buf, 8),
		MoistureMinPct: buf[10],
		MoistureMaxPct: buf[11],
		NextRunUnix:    u32(buf, 12),
	}, nil
}
