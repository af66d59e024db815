// Copyright (C) 2019 Atrium Foundation.
// See LICENSE for copying information.

// Package journal implements the append-only, hash-identified event log of
// the storage engine and its deterministic replay.
package journal

import (
	"bufio"
	"context"
	"io"

	"github.com/zeebo/errs"
	monkit "gopkg.in/spacemonkeygo/monkit.v2"
)

var (
	mon = monkit.Package()

	// Error is the default journal error class.
	Error = errs.Class("journal")
	// ErrTampered is returned when an event id does not match its body.
	ErrTampered = errs.Class("journal tampered")
)

// Log is the in-memory append-only event sequence of one engine instance.
// Events are never edited or removed; retention is an external concern.
type Log struct {
	events []Event
}

// NewLog creates an empty journal.
func NewLog() *Log {
	return &Log{}
}

// Append assigns the event id and adds the event to the journal. The id is
// always recomputed from the canonical body, whatever the caller set.
func (log *Log) Append(ctx context.Context, event Event) (_ Event, err error) {
	defer mon.Task()(&ctx)(&err)

	if !event.Type.Valid() {
		return Event{}, Error.New("invalid event type %q", event.Type)
	}

	event.EventID = event.ComputeID()
	log.events = append(log.events, event)
	mon.Meter("journal_append").Mark(1)
	return event, nil
}

// Len returns the number of events.
func (log *Log) Len() int { return len(log.events) }

// Events returns a copy of the ordered event sequence.
func (log *Log) Events() []Event {
	events := make([]Event, len(log.events))
	copy(events, log.events)
	return events
}

// WriteTo streams the journal as newline-delimited canonical JSON.
func (log *Log) WriteTo(w io.Writer) (n int64, err error) {
	for _, event := range log.events {
		line := append(event.Encode(), '\n')
		written, err := w.Write(line)
		n += int64(written)
		if err != nil {
			return n, Error.Wrap(err)
		}
	}
	return n, nil
}

// Decode parses a newline-delimited canonical JSON stream back into an
// ordered event sequence. Blank lines are ignored.
func Decode(r io.Reader) ([]Event, error) {
	var events []Event

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		event, err := DecodeEvent(line)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, Error.Wrap(err)
	}
	return events, nil
}

// Verify recomputes every event id and reports the first mismatch. A
// mismatch means the event was altered after it was appended.
func Verify(events []Event) error {
	for i, event := range events {
		if computed := event.ComputeID(); computed != event.EventID {
			return ErrTampered.New("event %d: id %s does not match body digest %s",
				i, event.EventID, computed)
		}
	}
	return nil
}
