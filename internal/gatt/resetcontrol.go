//
// Copyright (C) 2023 Alex Mihai
//
// SPDX-License-Identifier: Apache-2.0

package gatt

// Reset targets (characteristic 0x0C, byte 0).
const (
	ResetChannel   uint8 = 1
	ResetSchedules uint8 = 2
	ResetHistory   uint8 = 3
	ResetFactory   uint8 = 4
)

// Reset status values (characteristic 0x0C, byte 6).
const (
	ResetIdle       uint8 = 0
	ResetInProgress uint8 = 1
	ResetDone       uint8 = 2
	ResetFailed     uint8 = 3
)

// AllChannels selects every channel in a channel-scoped reset.
const AllChannels = 0xFF

// ResetProgress is only present while the firmware reports an in-progress
// reset; its bytes are zero in every other status.
type ResetProgress struct {
	Pct   uint8
	Step  uint8
	Retry uint8
	Error uint8
}

// ResetControl drives and reports destructive resets (characteristic 0x0C,
// 16 bytes). Writes carry the type, channel, and confirmation code; reads
// report status and, while in progress, the optional progress block.
type ResetControl struct {
	ResetType        uint8
	ChannelID        uint8 // AllChannels for device-wide resets
	ConfirmationCode uint32
	Status           uint8
	Timestamp        uint32
	Progress         *ResetProgress // non-nil iff Status == ResetInProgress
}

func (ResetControl) Characteristic() CharacteristicID { return CharResetControl }

func (r ResetControl) encodeTo(buf []byte) error {
	if r.ResetType < ResetChannel || r.ResetType > ResetFactory {
		return &OutOfRangeError{Characteristic: CharResetControl, Field: "reset_type", Value: r.ResetType}
	}
	if r.ChannelID > 7 && r.ChannelID != AllChannels {
		return &OutOfRangeError{Characteristic: CharResetControl, Field: "channel_id", Value: r.ChannelID}
	}
	if r.Status > ResetFailed {
		return &OutOfRangeError{Characteristic: CharResetControl, Field: "status", Value: r.Status}
	}
	if (r.Progress != nil) != (r.Status == ResetInProgress) {
		return &UnknownDiscriminatorError{Characteristic: CharResetControl, Field: "status", Value: r.Status}
	}

	buf[0] = r.ResetType
	buf[1] = r.ChannelID
	putU32(buf, 2, r.ConfirmationCode)
	buf[6] = r.Status
	putU32(buf, 7, r.Timestamp)
	if r.Progress != nil {
		buf[11] = r.Progress.Pct
		buf[12] = r.Progress.Step
		buf[13] = r.Progress.Retry
		buf[14] = r.Progress.Error
	} else {
		buf[11], buf[12], buf[13], buf[14] = 0, 0, 0, 0
	}
	buf[15] = 0
	return nil
}

func decodeResetControl(buf []byte) (Record, error) {
	r := ResetControl{
		ResetType:        buf[0],
		ChannelID:        buf[1],
		ConfirmationCode: u32(buf, 2),
		Status:           buf[6],
		Timestamp:        u32(buf, 7),
	}
	if r.Status == ResetInProgress {
		r.Progress = &ResetProgress{
			Pct:   buf[11],
			Step:  buf[12],
			Retry: buf[13],
			Error: buf[14],
		}
	}
	return r, nil
}
