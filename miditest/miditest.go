// Package miditest builds small standard MIDI files for tests.
package miditest

import (
	"bytes"
	"os"
	"sort"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const velocity = 100

type event struct {
	ticks   uint32
	message smf.Message
}

type Builder struct {
	resolution  uint16
	tempo       int
	singleTrack bool
	events      []event
}

func New(resolution uint16) *Builder {
	return &Builder{resolution: resolution}
}

// Tempo adds a tempo event, in microseconds per quarter note, to the first track.
func (b *Builder) Tempo(micros int) *Builder {
	b.tempo = micros
	return b
}

// SingleTrack writes tempo and notes on one track instead of a metadata
// track followed by a note track.
func (b *Builder) SingleTrack() *Builder {
	b.singleTrack = true
	return b
}

func (b *Builder) On(ticks uint32, keys ...uint8) *Builder {
	for _, key := range keys {
		b.events = append(b.events, event{ticks, smf.Message(midi.NoteOn(0, key, velocity))})
	}
	return b
}

func (b *Builder) Off(ticks uint32, keys ...uint8) *Builder {
	for _, key := range keys {
		b.events = append(b.events, event{ticks, smf.Message(midi.NoteOff(0, key))})
	}
	return b
}

// Release ends notes with zero velocity note-ons.
func (b *Builder) Release(ticks uint32, keys ...uint8) *Builder {
	for _, key := range keys {
		b.events = append(b.events, event{ticks, smf.Message(midi.NoteOn(0, key, 0))})
	}
	return b
}

func (b *Builder) Hold(from, to uint32, keys ...uint8) *Builder {
	return b.On(from, keys...).Off(to, keys...)
}

// Track returns the notes as one closed track. Events at the same tick keep
// the order they were added in.
func (b *Builder) Track() smf.Track {
	sorted := append([]event(nil), b.events...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ticks < sorted[j].ticks
	})

	var track smf.Track
	var last uint32
	for _, ev := range sorted {
		track = append(track, smf.Event{Delta: ev.ticks - last, Message: ev.message})
		last = ev.ticks
	}
	track.Close(0)
	return track
}

func (b *Builder) SMF() *smf.SMF {
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(b.resolution)

	var meta smf.Track
	if b.tempo > 0 {
		meta = append(meta, smf.Event{Delta: 0, Message: smf.MetaTempo(60000000 / float64(b.tempo))})
	}

	if b.singleTrack {
		track := append(meta, b.Track()...)
		mustAdd(s, track)
		return s
	}

	meta.Close(0)
	mustAdd(s, meta)
	mustAdd(s, b.Track())
	return s
}

func (b *Builder) Bytes() []byte {
	var buf bytes.Buffer
	if _, err := b.SMF().WriteTo(&buf); err != nil {
		panic("Could not write test midi: " + err.Error())
	}
	return buf.Bytes()
}

func (b *Builder) WriteFile(path string) error {
	return os.WriteFile(path, b.Bytes(), 0644)
}

func mustAdd(s *smf.SMF, track smf.Track) {
	if err := s.Add(track); err != nil {
		panic("Could not add test track: " + err.Error())
	}
}
