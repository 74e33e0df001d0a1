package midi

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/jsphweid/midistates/miditest"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

func noteOn(delta uint32, key uint8) smf.Event {
	return smf.Event{Delta: delta, Message: smf.Message(gomidi.NoteOn(0, key, 90))}
}

func keysOf(track smf.Track) []uint8 {
	var res []uint8
	for _, ev := range track {
		var ch, key, vel uint8
		if gomidi.Message(ev.Message).GetNoteStart(&ch, &key, &vel) {
			res = append(res, key)
		}
	}
	return res
}

func absTicksOf(track smf.Track) []uint64 {
	var res []uint64
	var abs uint64
	for _, ev := range track {
		abs += uint64(ev.Delta)
		if !isEndOfTrack(ev.Message) {
			res = append(res, abs)
		}
	}
	return res
}

func TestSecondsPerTickDefaultsTo120BPM(t *testing.T) {
	s := miditest.New(480).On(0, 60).SMF()

	assert := assert.New(t)
	assert.Equal(500000, TempoMicros(s.Tracks))
	assert.InDelta(0.5/480, SecondsPerTick(s.Tracks, 480), 1e-15)
}

func TestSecondsPerTickUsesFirstTempoEvent(t *testing.T) {
	s := miditest.New(96).Tempo(600000).On(0, 60).SMF()

	assert := assert.New(t)
	assert.Equal(600000, TempoMicros(s.Tracks))
	assert.InDelta(0.6/96, SecondsPerTick(s.Tracks, 96), 1e-15)
}

func TestTempoOutsideFirstTrackIsIgnored(t *testing.T) {
	var meta, notes smf.Track
	meta.Close(0)
	notes = append(notes, smf.Event{Delta: 0, Message: smf.MetaTempo(100)})
	notes.Close(0)

	assert.Equal(t, 500000, TempoMicros([]smf.Track{meta, notes}))
}

func TestMergeSingleTrackIsUnchanged(t *testing.T) {
	track := miditest.New(480).Hold(0, 10, 60, 62).Track()

	merged := MergeTracks([]smf.Track{track})
	assert.Equal(t, track, merged)
}

func TestMergeDropsFirstTrackAndOrdersByTick(t *testing.T) {
	meta := smf.Track{noteOn(0, 1)}
	meta.Close(0)
	a := smf.Track{noteOn(0, 60), noteOn(20, 64)}
	a.Close(5)
	b := smf.Track{noteOn(10, 62), noteOn(10, 65)}
	b.Close(0)

	merged := MergeTracks([]smf.Track{meta, a, b})

	assert := assert.New(t)
	assert.Equal([]uint8{60, 62, 64, 65}, keysOf(merged))
	assert.Equal([]uint64{0, 10, 20, 20}, absTicksOf(merged))
	assert.True(isEndOfTrack(merged[len(merged)-1].Message))
	assert.Equal(uint32(5), merged[len(merged)-1].Delta)
}

func TestMergeKeepsTrackOrderForSimultaneousEvents(t *testing.T) {
	meta := smf.Track{}
	meta.Close(0)
	a := smf.Track{noteOn(30, 70)}
	a.Close(0)
	b := smf.Track{noteOn(30, 50)}
	b.Close(0)

	merged := MergeTracks([]smf.Track{meta, a, b})
	assert.Equal(t, []uint8{70, 50}, keysOf(merged))
}

func TestReadRoundTripsBuilderOutput(t *testing.T) {
	data := miditest.New(480).Tempo(500000).Hold(0, 960, 65, 67).Bytes()

	s, err := Read(bytes.NewReader(data))
	require.NoError(t, err)

	rec, err := Prepare(s)
	require.NoError(t, err)

	assert := assert.New(t)
	assert.Equal(uint16(480), rec.Resolution)
	assert.Equal(500000, rec.TempoMicros)
	assert.Equal([]uint8{65, 67}, keysOf(rec.Track))
}

func TestReadMidiFileRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.mid")
	require.NoError(t, os.WriteFile(path, []byte("definitely not a midi file"), 0644))

	_, err := ReadMidiFile(path)
	assert.Error(t, err)
}

func TestReadMidiFileMissing(t *testing.T) {
	_, err := ReadMidiFile(filepath.Join(t.TempDir(), "missing.mid"))
	assert.Error(t, err)
}

func TestResolutionRejectsTimeCode(t *testing.T) {
	s := smf.New()
	s.TimeFormat = smf.TimeCode{FramesPerSecond: 25, SubFrames: 40}

	_, err := Resolution(s)
	assert.True(t, errors.Is(err, ErrTimeFormat))
}
