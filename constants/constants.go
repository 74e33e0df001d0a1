package constants

// Name of the folder holding the study's recordings.
const DataFolderName = "Daten (MIDI)"

const OutputName = "MIDI_ANALYSIS_STATES.csv"

// 120 BPM, used when the first track has no tempo event.
const DefaultTempoMicros = 500000

const MidiPrefix = "MIDI_"

var MidiExtensions = []string{".mid", ".midi"}

// Recordings with at most this many state events count as test blocks when
// the block label itself is inconclusive.
const TestEventThreshold = 55

const DefaultServeAddr = ":8080"

const DefaultMaxUploadBytes = 8 * 1024 * 1024
