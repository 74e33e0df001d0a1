package model

type Notes = []uint8

type StateID = int

type StateEvent struct {
	TimeS float64
	State StateID

	// nil unless the state was found inside a larger held-note set
	ExtraKeys        Notes
	TotalKeysPressed int
}
