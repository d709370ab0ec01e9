//
// Copyright (C) 2023 Alex Mihai
//
// SPDX-License-Identifier: Apache-2.0

package history

import (
	"fmt"

	"github.com/pkg/errors"
)

// Protocol errors are recoverable by re-issuing the originating query.
// The caller owns that retry policy, not this package.

// ErrStreamRestarted reports that a fragment with a different stream
// identity arrived mid-collection. The previous partial payload has been
// discarded and collection of the new stream has already begun.
var ErrStreamRestarted = errors.New("history: stream restarted by device")

// ErrReassemblyTimeout is returned by callers that give up on a stuck
// Collecting state. The Reassembler itself keeps no timers.
var ErrReassemblyTimeout = errors.New("history: reassembly timed out")

// ErrAborted reports that the stream was explicitly aborted, e.g. because
// the connection dropped mid-reassembly.
var ErrAborted = errors.New("history: reassembly aborted")

// CorruptStreamError reports an internally consistent fragment set whose
// assembled payload cannot be split into EntryCount records of the
// stream's entry width. It is reported, never silently truncated.
type CorruptStreamError struct {
	DataType   DataType
	EntryCount uint16
	Assembled  int
	EntrySize  int
}

func (e *CorruptStreamError) Error() string {
	return fmt.Sprintf("history: corrupt %s stream: %d bytes cannot hold %d entries of %d bytes",
		e.DataType, e.Assembled, e.EntryCount, e.EntrySize)
}

// DeviceStatusError preserves a non-zero firmware status byte from a
// fragment header. The numeric code is kept as-is (as a signed value) so
// upper layers can map it to user-facing text.
type DeviceStatusError struct {
	DataType DataType
	Code     int8
}

func (e *DeviceStatusError) Error() string {
	return fmt.Sprintf("history: device reported status %d on %s stream", e.Code, e.DataType)
}
