//
// Copyright (C) 2023 Alex Mihai
//
// SPDX-License-Identifier: Apache-2.0

package gatt

import "fmt"

// Codec errors always indicate a programming or firmware-version mismatch.
// They are never retried and never downgraded to a partial result.

// SizeMismatchError reports a buffer whose length does not equal the
// characteristic's declared fixed size.
type SizeMismatchError struct {
	Characteristic CharacteristicID
	Want, Got      int
}

func (e *SizeMismatchError) Error() string {
	return fmt.Sprintf("%s: size mismatch: want %d bytes, got %d",
		e.Characteristic, e.Want, e.Got)
}

// OutOfRangeError reports a field value that does not fit its declared
// width or domain after applying the inverse scale.
type OutOfRangeError struct {
	Characteristic CharacteristicID
	Field          string
	Value          interface{}
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("%s: field %s value %v out of range",
		e.Characteristic, e.Field, e.Value)
}

// UnknownDiscriminatorError reports a union discriminator byte outside the
// set of defined variants.
type UnknownDiscriminatorError struct {
	Characteristic CharacteristicID
	Field          string
	Value          uint8
}

func (e *UnknownDiscriminatorError) Error() string {
	return fmt.Sprintf("%s: unknown %s discriminator 0x%02x",
		e.Characteristic, e.Field, e.Value)
}

// UnknownCharacteristicError reports an id with no registered layout.
type UnknownCharacteristicError struct {
	ID CharacteristicID
}

func (e *UnknownCharacteristicError) Error() string {
	return fmt.Sprintf("unknown characteristic 0x%02x", uint8(e.ID))
}

// IsCodecError returns true for the error types produced by this package.
// The retry layer uses this to refuse to retry structurally invalid writes.
func IsCodecError(err error) bool {
	switch err.(type) {
	case *SizeMismatchError, *OutOfRangeError, *UnknownDiscriminatorError, *UnknownCharacteristicError:
		return true
	}
	return false
}
