package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/jsphweid/midistates/constants"
	"github.com/jsphweid/midistates/miditest"
	"github.com/jsphweid/midistates/model"
	"github.com/jsphweid/midistates/reference"
	"github.com/jsphweid/midistates/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferenceTraining(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, ExecuteArgs([]string{"reference", "training"}, &out))

	assert := assert.New(t)
	assert.Contains(out.String(), "Training sequence, 73 transitions")
	assert.Contains(out.String(), "│ 65 67 72 74 77 79 │")
	assert.Contains(out.String(), "│ state │")
	assert.NotContains(out.String(), "…")
}

func TestReferenceUnknownBlockType(t *testing.T) {
	var out bytes.Buffer
	err := ExecuteArgs([]string{"reference", "warmup"}, &out)
	assert.ErrorContains(t, err, "unknown block type")
}

func TestInspect(t *testing.T) {
	path := filepath.Join(t.TempDir(), "MIDI_P04_B2.mid")
	s1, _ := reference.Default().State(1)
	s2, _ := reference.Default().State(2)
	b := miditest.New(480).Tempo(500000).
		Hold(0, 480, s1.Notes...).
		Hold(480, 960, append([]uint8{50}, s2.Notes...)...)
	require.NoError(t, b.WriteFile(path))

	var out bytes.Buffer
	require.NoError(t, ExecuteArgs([]string{"inspect", path}, &out))

	assert := assert.New(t)
	assert.Contains(out.String(), "subject: P04  block: B2  block type: Training")
	assert.Contains(out.String(), "2 state events, 1 transitions, 1 kept")
	assert.Contains(out.String(), "│ extra_keys │")
	assert.NotContains(out.String(), "…")
}

func TestSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.csv")
	rows := []model.Row{
		{Transition: model.Transition{TransitionID: 12, TransitionTimeS: 0.4}, Subject: "P01", Block: "B1", StateFromFreq: "h"},
		{Transition: model.Transition{TransitionID: 12, TransitionTimeS: 0.6}, Subject: "P02", Block: "B1", StateFromFreq: "h"},
	}
	require.NoError(t, table.WriteFile(path, rows))

	var out bytes.Buffer
	require.NoError(t, ExecuteArgs([]string{"summary", path}, &out))

	assert := assert.New(t)
	assert.Contains(out.String(), "loaded 2 transitions")
	assert.Contains(out.String(), "0.500")
	assert.Contains(out.String(), "Training")
}

func TestAnalyzeFlagsDoNotLeakBetweenRuns(t *testing.T) {
	study := t.TempDir()
	data := filepath.Join(study, constants.DataFolderName)
	require.NoError(t, os.MkdirAll(data, 0755))
	b := miditest.New(480).Tempo(500000)
	for i, id := range []model.StateID{9, 1, 3} {
		s, _ := reference.Default().State(id)
		b.Hold(uint32(i*480), uint32((i+1)*480), s.Notes...)
	}
	require.NoError(t, b.WriteFile(filepath.Join(data, "MIDI_P01_Pretest.mid")))

	custom := filepath.Join(t.TempDir(), "custom.csv")
	var out bytes.Buffer
	require.NoError(t, ExecuteArgs([]string{"analyze", study, "-o", custom, "-w", "3"}, &out))
	require.FileExists(t, custom)

	require.NoError(t, ExecuteArgs([]string{"analyze", study}, &out))

	assert := assert.New(t)
	assert.FileExists(filepath.Join(study, constants.OutputName))
	assert.False(analyzeCmd.Flags().Lookup("output").Changed)
	assert.Equal("", outputPath)
	assert.Equal(0, workers)
}
