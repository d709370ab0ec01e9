//
// Copyright (C) 2023 Alex Mihai
//
// SPDX-License-Identifier: Apache-2.0

package device

import (
	"fmt"

	"github.com/AlexMihai1804/autowatering-smart-dashboard-sub003/internal/gatt"
	"github.com/pkg/errors"
)

// TransportKind distinguishes the two transport failure modes.
type TransportKind uint8

const (
	Disconnected TransportKind = iota
	Timeout
)

func (k TransportKind) String() string {
	if k == Timeout {
		return "timeout"
	}
	return "disconnected"
}

// TransportError reports a failed exchange on the wireless link. It is the
// only error category the retry wrapper retries: transport failures are
// typically transient contention, everything else can never succeed by
// trying again.
type TransportError struct {
	Kind TransportKind
	Err  error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("transport %s", e.Kind)
	}
	return fmt.Sprintf("transport %s: %v", e.Kind, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Firmware status codes reported by the controller. Kept numeric so the UI
// layer can map them to user-facing text.
const (
	DeviceBusy           int8 = -1
	DeviceQueueFull      int8 = -2
	DeviceStorageFailure int8 = -3
	DeviceInvalidParam   int8 = -4
	DeviceLowBattery     int8 = -5
	DeviceValveFault     int8 = -6
)

// DeviceError preserves a firmware-reported negative status code. It is
// surfaced as-is, never swallowed into a generic failure, and never
// retried by this layer.
type DeviceError struct {
	Code int8
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("device reported status %d", e.Code)
}

// IsRetryable reports whether err is a transport-level failure. Codec
// validation errors and firmware status codes are structural: retrying
// them cannot succeed.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if gatt.IsCodecError(err) {
		return false
	}
	var devErr *DeviceError
	if errors.As(err, &devErr) {
		return false
	}
	var trErr *TransportError
	return errors.As(err, &trErr)
}
