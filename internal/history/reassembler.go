//
// Copyright (C) 2023 Alex Mihai
//
// SPDX-License-Identifier: Apache-2.0

package history

import (
	"sort"

	"github.com/AlexMihai1804/autowatering-smart-dashboard-sub003/internal/gatt"
	"github.com/pkg/errors"
)

// State is the reassembler's lifecycle position.
type State uint8

const (
	Idle State = iota
	Collecting
	Complete
	Aborted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Collecting:
		return "collecting"
	case Complete:
		return "complete"
	case Aborted:
		return "aborted"
	}
	return "invalid"
}

// StreamID is the identity a fragment stream is reconstructed under. A
// header carrying a different identity than the in-progress stream means
// the device started a new query, and the new query always wins.
type StreamID struct {
	DataType       DataType
	TotalFragments uint8
}

// Reassembler rebuilds one logical history query from its fragments.
// It is scoped to a single query: concurrent queries need independent
// instances, or fragments from unrelated streams could interleave.
// It keeps no timers; a caller that stops seeing fragments decides when
// to give up and reports ErrReassemblyTimeout itself.
type Reassembler struct {
	state      State
	id         StreamID
	entryCount uint16
	fragments  map[uint8][]byte
}

func NewReassembler() *Reassembler {
	return &Reassembler{fragments: map[uint8][]byte{}}
}

func (r *Reassembler) State() State { return r.state }

// ID returns the identity of the stream being collected. Only meaningful
// outside Idle.
func (r *Reassembler) ID() StreamID { return r.id }

// ReceivedFragments returns how many distinct fragment indexes have been
// stored for the current stream.
func (r *Reassembler) ReceivedFragments() int { return len(r.fragments) }

// Offer feeds one HistoryData delivery (header plus payload) into the
// state machine. It returns true once the stream is complete.
//
// A delivery whose identity differs from the in-progress stream discards
// everything collected so far, starts collecting the new stream, stores
// the offered fragment, and returns ErrStreamRestarted so the caller can
// observe the restart; the error is recoverable and collection has
// already moved on to the new identity.
func (r *Reassembler) Offer(delivery []byte) (bool, error) {
	switch r.state {
	case Complete:
		return true, errors.New("history: offer on completed stream")
	case Aborted:
		return false, ErrAborted
	}

	h, payload, err := ParseDelivery(delivery)
	if err != nil {
		return false, err
	}

	if h.Status != 0 {
		// Firmware flagged the stream. Fail immediately instead of
		// attempting partial reassembly; the caller re-queries.
		r.abort()
		return false, &DeviceStatusError{DataType: h.DataType, Code: int8(h.Status)}
	}

	if h.DataType.EntrySize() < 0 {
		r.abort()
		return false, &gatt.UnknownDiscriminatorError{
			Characteristic: gatt.CharHistoryData, Field: "data_type", Value: byte(h.DataType)}
	}

	id := StreamID{DataType: h.DataType, TotalFragments: h.TotalFragments}
	restarted := false
	if r.state == Idle {
		r.begin(id, h.EntryCount)
	} else if id != r.id {
		r.begin(id, h.EntryCount)
		restarted = true
	}

	if h.TotalFragments == 0 {
		// An empty stream completes without payload.
		return r.finish(restarted)
	}

	if h.FragmentIndex >= h.TotalFragments {
		r.abort()
		return false, errors.Errorf("history: fragment index %d outside %s stream of %d fragments",
			h.FragmentIndex, h.DataType, h.TotalFragments)
	}

	// Duplicate deliveries overwrite; the payload is the same bytes.
	r.fragments[h.FragmentIndex] = append([]byte(nil), payload...)

	if len(r.fragments) == int(r.id.TotalFragments) {
		return r.finish(restarted)
	}

	if restarted {
		return false, ErrStreamRestarted
	}
	return false, nil
}

func (r *Reassembler) begin(id StreamID, entryCount uint16) {
	r.state = Collecting
	r.id = id
	r.entryCount = entryCount
	r.fragments = map[uint8][]byte{}
}

func (r *Reassembler) finish(restarted bool) (bool, error) {
	assembled := r.assemble()
	want := int(r.entryCount) * r.id.DataType.EntrySize()
	if len(assembled) != want {
		r.abort()
		return false, &CorruptStreamError{
			DataType:   r.id.DataType,
			EntryCount: r.entryCount,
			Assembled:  len(assembled),
			EntrySize:  r.id.DataType.EntrySize(),
		}
	}

	r.state = Complete
	if restarted {
		// Completion in the same delivery that restarted the stream can
		// only happen for single-fragment streams; the restart still has
		// to be observable.
		return true, ErrStreamRestarted
	}
	return true, nil
}

// Abort moves the reassembler to its terminal failure state and discards
// all partial payload, so a later unrelated stream can never merge into
// it. Use it when the connection drops mid-reassembly.
func (r *Reassembler) Abort() {
	r.abort()
}

func (r *Reassembler) abort() {
	r.state = Aborted
	r.fragments = map[uint8][]byte{}
	r.entryCount = 0
}

func (r *Reassembler) assemble() []byte {
	idxs := make([]int, 0, len(r.fragments))
	for i := range r.fragments {
		idxs = append(idxs, int(i))
	}
	sort.Ints(idxs)

	var out []byte
	for _, i := range idxs {
		out = append(out, r.fragments[uint8(i)]...)
	}
	return out
}

// Assembled returns the complete byte stream. It is only valid in the
// Complete state.
func (r *Reassembler) Assembled() ([]byte, error) {
	if r.state != Complete {
		return nil, errors.Errorf("history: assembled bytes requested in %s state", r.state)
	}
	return r.assemble(), nil
}

// WateringEntries decodes a completed watering stream.
func (r *Reassembler) WateringEntries() ([]gatt.WateringHistoryEntry, error) {
	raw, err := r.entryBytes(WateringHistory)
	if err != nil {
		return nil, err
	}
	entries := make([]gatt.WateringHistoryEntry, 0, len(raw))
	for _, b := range raw {
		e, err := gatt.DecodeWateringEntry(b)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// MoistureEntries decodes a completed moisture stream.
func (r *Reassembler) MoistureEntries() ([]gatt.MoistureHistoryEntry, error) {
	raw, err := r.entryBytes(MoistureHistory)
	if err != nil {
		return nil, err
	}
	entries := make([]gatt.MoistureHistoryEntry, 0, len(raw))
	for _, b := range raw {
		e, err := gatt.DecodeMoistureEntry(b)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// ErrorEntries decodes a completed error-log stream.
func (r *Reassembler) ErrorEntries() ([]gatt.ErrorLogEntry, error) {
	raw, err := r.entryBytes(ErrorHistory)
	if err != nil {
		return nil, err
	}
	entries := make([]gatt.ErrorLogEntry, 0, len(raw))
	for _, b := range raw {
		e, err := gatt.DecodeErrorLogEntry(b)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (r *Reassembler) entryBytes(want DataType) ([][]byte, error) {
	if r.state != Complete {
		return nil, errors.Errorf("history: entries requested in %s state", r.state)
	}
	if r.id.DataType != want {
		return nil, errors.Errorf("history: stream holds %s entries, not %s", r.id.DataType, want)
	}

	assembled := r.assemble()
	size := want.EntrySize()
	out := make([][]byte, 0, r.entryCount)
	for off := 0; off < len(assembled); off += size {
		out = append(out, assembled[off:off+size])
	}
	return out, nil
}
