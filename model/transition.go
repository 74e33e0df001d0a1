package model

type TransitionID = int

type Transition struct {
	IdxFrom         int          `json:"idx_from"`
	StateFrom       StateID      `json:"state_from"`
	OnsetFromS      float64      `json:"onset_from_s"`
	IdxTo           int          `json:"idx_to"`
	StateTo         StateID      `json:"state_to"`
	OnsetToS        float64      `json:"onset_to_s"`
	TransitionTimeS float64      `json:"transition_time_s"`
	TransitionID    TransitionID `json:"transition_id"`
}

// LabeledTransition is a transition that survived sequence filtering, tagged
// with the frequency label of its code ("h", "s" or "UNKNOWN").
type LabeledTransition struct {
	Transition
	StateFromFreq string `json:"state_from_freq"`
}
