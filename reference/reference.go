// Package reference holds the fixed study design: the hand-posture states, the
// canonical transition sequences for test and training blocks, and the
// frequency label of every transition code. The data is embedded, validated
// once and never mutated afterwards.
package reference

import (
	_ "embed"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/jsphweid/midistates/model"
	"github.com/jsphweid/midistates/util"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed reference.yaml
var defaultData []byte

const (
	NotesPerState    = 6
	UnknownFrequency = "UNKNOWN"
)

var (
	ErrInvalid       = errors.New("invalid reference data")
	ErrInvalidCode   = errors.New("invalid transition code")
	ErrSequenceIndex = errors.New("index outside canonical sequence")
)

type State struct {
	ID    model.StateID `json:"id"`
	Notes model.Notes   `json:"notes"`
}

type Expected struct {
	Code      model.TransitionID `json:"code"`
	Frequency string             `json:"frequency"`
}

type Reference struct {
	states      []State
	byKey       map[string]model.StateID
	sequences   map[model.BlockType][]model.TransitionID
	codeSets    map[model.BlockType]map[model.TransitionID]bool
	frequencies map[model.TransitionID]string
}

type document struct {
	States    map[int][]int `yaml:"states"`
	Sequences struct {
		Test     []int `yaml:"test"`
		Training []int `yaml:"training"`
	} `yaml:"sequences"`
	Frequencies map[int]string `yaml:"frequencies"`
}

var (
	defaultOnce sync.Once
	defaultRef  *Reference
)

// Default returns the embedded study design. Invalid embedded data is a
// programming error and panics.
func Default() *Reference {
	defaultOnce.Do(func() {
		r, err := Load(defaultData)
		if err != nil {
			panic("Could not load embedded reference data: " + err.Error())
		}
		defaultRef = r
	})
	return defaultRef
}

// Key builds the lookup key of a note set: ascending pitches joined by "-".
func Key(notes model.Notes) string {
	sorted := append(model.Notes(nil), notes...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})
	parts := make([]string, len(sorted))
	for i, note := range sorted {
		parts[i] = strconv.Itoa(int(note))
	}
	return strings.Join(parts, "-")
}

// DecodeTransitionID splits a transition code into its states. Two digit codes
// are digit/digit, three digit codes are the first digit and the remaining two.
func DecodeTransitionID(code model.TransitionID) (from, to model.StateID, err error) {
	if code <= 0 {
		return 0, 0, errors.Wrapf(ErrInvalidCode, "%d", code)
	}
	s := strconv.Itoa(code)
	switch len(s) {
	case 2:
		return int(s[0] - '0'), int(s[1] - '0'), nil
	case 3:
		to, _ := strconv.Atoi(s[1:])
		return int(s[0] - '0'), to, nil
	}
	return 0, 0, errors.Wrapf(ErrInvalidCode, "%d", code)
}

func Load(data []byte) (*Reference, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "parsing reference data")
	}

	r := &Reference{
		byKey:       make(map[string]model.StateID),
		sequences:   make(map[model.BlockType][]model.TransitionID),
		codeSets:    make(map[model.BlockType]map[model.TransitionID]bool),
		frequencies: make(map[model.TransitionID]string),
	}

	if len(doc.States) == 0 {
		return nil, errors.Wrap(ErrInvalid, "no states")
	}
	for _, id := range util.SortedKeys(doc.States) {
		notes, err := stateNotes(id, doc.States[id])
		if err != nil {
			return nil, err
		}
		key := Key(notes)
		if other, ok := r.byKey[key]; ok {
			return nil, errors.Wrapf(ErrInvalid, "states %d and %d share notes %s", other, id, key)
		}
		r.byKey[key] = id
		r.states = append(r.states, State{ID: id, Notes: notes})
	}

	for _, code := range util.SortedKeys(doc.Frequencies) {
		label := doc.Frequencies[code]
		if label != "h" && label != "s" {
			return nil, errors.Wrapf(ErrInvalid, "frequency of %d is %q, want h or s", code, label)
		}
		if _, _, err := DecodeTransitionID(code); err != nil {
			return nil, errors.Wrap(ErrInvalid, err.Error())
		}
		r.frequencies[code] = label
	}

	if err := r.addSequence(model.BlockTest, doc.Sequences.Test); err != nil {
		return nil, err
	}
	if err := r.addSequence(model.BlockTraining, doc.Sequences.Training); err != nil {
		return nil, err
	}
	return r, nil
}

func stateNotes(id int, raw []int) (model.Notes, error) {
	if id < 1 {
		return nil, errors.Wrapf(ErrInvalid, "state id %d must be positive", id)
	}
	if len(raw) != NotesPerState {
		return nil, errors.Wrapf(ErrInvalid, "state %d has %d notes, want %d", id, len(raw), NotesPerState)
	}
	seen := make(map[int]bool)
	notes := make(model.Notes, 0, len(raw))
	for _, n := range raw {
		if n < 0 || n > 127 {
			return nil, errors.Wrapf(ErrInvalid, "state %d: note %d out of range", id, n)
		}
		if seen[n] {
			return nil, errors.Wrapf(ErrInvalid, "state %d: note %d repeated", id, n)
		}
		seen[n] = true
		notes = append(notes, uint8(n))
	}
	sort.Slice(notes, func(i, j int) bool {
		return notes[i] < notes[j]
	})
	return notes, nil
}

func (r *Reference) addSequence(bt model.BlockType, codes []int) error {
	if len(codes) == 0 {
		return errors.Wrapf(ErrInvalid, "%s sequence is empty", bt)
	}
	set := make(map[model.TransitionID]bool)
	for i, code := range codes {
		from, to, err := DecodeTransitionID(code)
		if err != nil {
			return errors.Wrapf(ErrInvalid, "%s sequence position %d: %v", bt, i, err)
		}
		if _, ok := r.State(from); !ok {
			return errors.Wrapf(ErrInvalid, "%s sequence position %d: unknown state %d", bt, i, from)
		}
		if _, ok := r.State(to); !ok {
			return errors.Wrapf(ErrInvalid, "%s sequence position %d: unknown state %d", bt, i, to)
		}
		set[code] = true
	}
	r.sequences[bt] = append([]model.TransitionID(nil), codes...)
	r.codeSets[bt] = set
	return nil
}

// States returns the states in ascending id order.
func (r *Reference) States() []State {
	res := make([]State, len(r.states))
	for i, s := range r.states {
		res[i] = State{ID: s.ID, Notes: append(model.Notes(nil), s.Notes...)}
	}
	return res
}

func (r *Reference) State(id model.StateID) (State, bool) {
	for _, s := range r.states {
		if s.ID == id {
			return State{ID: s.ID, Notes: append(model.Notes(nil), s.Notes...)}, true
		}
	}
	return State{}, false
}

// Lookup finds the state whose notes equal the given set exactly.
func (r *Reference) Lookup(notes model.Notes) (model.StateID, bool) {
	id, ok := r.byKey[Key(notes)]
	return id, ok
}

func (r *Reference) Sequence(bt model.BlockType) []model.TransitionID {
	return append([]model.TransitionID(nil), r.sequences[bt]...)
}

// Contains reports whether code appears anywhere in the block type's sequence.
func (r *Reference) Contains(bt model.BlockType, code model.TransitionID) bool {
	return r.codeSets[bt][code]
}

// Frequency returns "h" or "s", or UnknownFrequency for unmapped codes.
func (r *Reference) Frequency(code model.TransitionID) string {
	if label, ok := r.frequencies[code]; ok {
		return label
	}
	return UnknownFrequency
}

// ExpectedAt returns the code expected at position index of the block type's
// sequence. An index past the end is a caller bug and yields ErrSequenceIndex.
func (r *Reference) ExpectedAt(bt model.BlockType, index int) (Expected, error) {
	seq, ok := r.sequences[bt]
	if !ok {
		return Expected{}, errors.Wrapf(ErrSequenceIndex, "no sequence for block type %q", bt)
	}
	if index < 0 || index >= len(seq) {
		return Expected{}, errors.Wrap(ErrSequenceIndex, fmt.Sprintf("index %d, max %d", index, len(seq)-1))
	}
	code := seq[index]
	return Expected{Code: code, Frequency: r.Frequency(code)}, nil
}
