// Package midi reads standard MIDI files and turns them into the single,
// time-ordered note stream the state decoder works on.
package midi

import (
	"bytes"
	"io"
	"math"
	"os"
	"sort"

	"github.com/jsphweid/midistates/constants"
	"github.com/jsphweid/midistates/util"
	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2/smf"
)

var (
	ErrNoTracks   = errors.New("recording has no tracks")
	ErrTimeFormat = errors.New("recording does not use metric ticks")
)

// Recording is a parsed file reduced to what the decoder needs.
type Recording struct {
	Track          smf.Track
	Resolution     uint16
	TempoMicros    int
	SecondsPerTick float64
}

func ReadMidiFile(path string) (*smf.SMF, error) {
	dat, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "Error reading midi file")
	}
	return Read(bytes.NewReader(dat))
}

func Read(rd io.Reader) (s *smf.SMF, e error) {
	// handle panics
	// https://github.com/gomidi/midi/issues/20
	defer func() {
		if r := recover(); r != nil {
			s = nil
			e = errors.Errorf("Error parsing midi file... %v", r)
		}
	}()

	res, err := smf.ReadFrom(rd)
	if err != nil {
		return nil, errors.Wrap(err, "Error parsing midi file")
	}
	if len(res.Tracks) == 0 {
		return nil, ErrNoTracks
	}
	return res, nil
}

// Prepare merges the note tracks of s and derives its tick scale.
func Prepare(s *smf.SMF) (*Recording, error) {
	if len(s.Tracks) == 0 {
		return nil, ErrNoTracks
	}
	ppq, err := Resolution(s)
	if err != nil {
		return nil, err
	}
	return &Recording{
		Track:          MergeTracks(s.Tracks),
		Resolution:     ppq,
		TempoMicros:    TempoMicros(s.Tracks),
		SecondsPerTick: SecondsPerTick(s.Tracks, ppq),
	}, nil
}

func Load(path string) (*Recording, error) {
	s, err := ReadMidiFile(path)
	if err != nil {
		return nil, err
	}
	return Prepare(s)
}

// Resolution returns the pulses per quarter note of s.
func Resolution(s *smf.SMF) (uint16, error) {
	tf, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok || tf == 0 {
		return 0, errors.Wrapf(ErrTimeFormat, "%v", s.TimeFormat)
	}
	return uint16(tf), nil
}

// TempoMicros returns microseconds per quarter note from the first tempo
// event of the first track, or the 120 BPM default.
func TempoMicros(tracks []smf.Track) int {
	if len(tracks) == 0 {
		return constants.DefaultTempoMicros
	}
	for _, ev := range tracks[0] {
		var bpm float64
		if ev.Message.GetMetaTempo(&bpm) && bpm > 0 {
			return int(math.Round(60000000 / bpm))
		}
	}
	return constants.DefaultTempoMicros
}

func SecondsPerTick(tracks []smf.Track, ppq uint16) float64 {
	return float64(TempoMicros(tracks)) / 1000000 / float64(ppq)
}

type absEvent struct {
	ticks   uint64
	message smf.Message
}

// MergeTracks combines every track after the first into one stream ordered by
// absolute tick. Events at the same tick keep their track order. The first
// track only carries metadata and is dropped, unless it is the only track.
func MergeTracks(tracks []smf.Track) smf.Track {
	if len(tracks) == 0 {
		return nil
	}
	if len(tracks) == 1 {
		return tracks[0]
	}

	var events []absEvent
	var end uint64
	for _, track := range tracks[1:] {
		var absTicks uint64
		for _, ev := range track {
			absTicks += uint64(ev.Delta)
			if isEndOfTrack(ev.Message) {
				end = util.Max(end, absTicks)
				continue
			}
			events = append(events, absEvent{ticks: absTicks, message: ev.Message})
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].ticks < events[j].ticks
	})

	merged := make(smf.Track, 0, len(events)+1)
	var last uint64
	for _, ev := range events {
		merged = append(merged, smf.Event{Delta: uint32(ev.ticks - last), Message: ev.message})
		last = ev.ticks
	}
	merged.Close(uint32(util.Max(end, last) - last))
	return merged
}

func isEndOfTrack(msg smf.Message) bool {
	return len(msg) >= 2 && msg[0] == 0xFF && msg[1] == 0x2F
}
