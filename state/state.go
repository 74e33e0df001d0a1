// Package state decodes hand-posture states from a merged note stream.
//
// The decoder keeps the set of currently held notes. Whenever exactly six
// notes are held and they equal a reference state, that state is detected.
// When more than six notes are held, the reference states are tried in
// ascending id order and the first one contained in the held set wins; the
// surplus notes are reported as extra keys. A detection only produces an
// event when it differs from the previous event, so a sustained posture
// yields a single event.
package state

import (
	"github.com/jsphweid/midistates/midi"
	"github.com/jsphweid/midistates/model"
	"github.com/jsphweid/midistates/reference"
	"github.com/jsphweid/midistates/util"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

type OnNotes = map[uint8]bool

type Decoder struct {
	ref    *reference.Reference
	states []reference.State
}

func NewDecoder(ref *reference.Reference) *Decoder {
	return &Decoder{ref: ref, states: ref.States()}
}

func heldNotes(held OnNotes) model.Notes {
	notes := make(model.Notes, 0, len(held))
	for note := range held {
		notes = append(notes, note)
	}
	return notes
}

func containsAll(held OnNotes, notes model.Notes) bool {
	for _, note := range notes {
		if !held[note] {
			return false
		}
	}
	return true
}

// Match classifies a held-note set. extra is nil for exact matches.
func (d *Decoder) Match(held OnNotes) (id model.StateID, extra model.Notes, ok bool) {
	switch {
	case len(held) < reference.NotesPerState:
		return 0, nil, false
	case len(held) == reference.NotesPerState:
		id, ok = d.ref.Lookup(heldNotes(held))
		return id, nil, ok
	}

	for _, s := range d.states {
		if containsAll(held, s.Notes) {
			return s.ID, util.Difference(held, s.Notes), true
		}
	}
	return 0, nil, false
}

// Decode walks the stream once. Nothing carries over between calls.
func (d *Decoder) Decode(track smf.Track, secondsPerTick float64) []model.StateEvent {
	var events []model.StateEvent
	held := make(OnNotes)
	var ticks uint64

	for _, ev := range track {
		ticks += uint64(ev.Delta)

		msg := gomidi.Message(ev.Message)
		var channel, key, velocity uint8
		switch {
		case msg.GetNoteStart(&channel, &key, &velocity):
			held[key] = true
		case msg.GetNoteEnd(&channel, &key):
			delete(held, key)
		}

		id, extra, ok := d.Match(held)
		if !ok {
			continue
		}
		if len(events) > 0 && events[len(events)-1].State == id {
			continue
		}
		events = append(events, model.StateEvent{
			TimeS:            float64(ticks) * secondsPerTick,
			State:            id,
			ExtraKeys:        extra,
			TotalKeysPressed: len(held),
		})
	}
	return events
}

func (d *Decoder) DecodeRecording(rec *midi.Recording) []model.StateEvent {
	return d.Decode(rec.Track, rec.SecondsPerTick)
}
