package model

type BlockType string

const (
	BlockTest     BlockType = "Test"
	BlockTraining BlockType = "Training"
	BlockUnknown  BlockType = "Unknown"
)

type Row struct {
	Transition
	Subject       string `json:"subject"`
	Block         string `json:"block"`
	StateFromFreq string `json:"state_from_freq"`
}

// Columns is the output table header. Every row is written in this order.
var Columns = []string{
	"idx_from",
	"state_from",
	"onset_from_s",
	"idx_to",
	"state_to",
	"onset_to_s",
	"transition_time_s",
	"transition_id",
	"subject",
	"block",
	"state_from_freq",
}
