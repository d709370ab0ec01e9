//
// Copyright (C) 2023 Alex Mihai
//
// SPDX-License-Identifier: Apache-2.0

// Package device sits between the typed codec and the raw wireless link.
// It owns the single-in-flight-exchange discipline, the bounded write
// retry, and the polling loop that feeds the history reassembler.
package device

import (
	"context"

	"github.com/AlexMihai1804/autowatering-smart-dashboard-sub003/internal/gatt"
)

// Exchanger is the opaque exchange primitive the transport layer provides:
// one read or write of one characteristic's raw bytes. Connection
// management, pairing, and encryption live behind it.
//
// Implementations report failures as *TransportError (retryable) or
// *DeviceError (not); anything else is treated as structural and returned
// unretried.
type Exchanger interface {
	ReadCharacteristic(ctx context.Context, id gatt.CharacteristicID) ([]byte, error)
	WriteCharacteristic(ctx context.Context, id gatt.CharacteristicID, value []byte) error
}
