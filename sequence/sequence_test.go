package sequence

import (
	"testing"

	"github.com/jsphweid/midistates/model"
	"github.com/jsphweid/midistates/reference"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func transitions(codes ...model.TransitionID) []model.Transition {
	var res []model.Transition
	for i, code := range codes {
		from, to, err := reference.DecodeTransitionID(code)
		if err != nil {
			panic(err)
		}
		res = append(res, model.Transition{IdxFrom: i, IdxTo: i + 1, StateFrom: from, StateTo: to, TransitionID: code})
	}
	return res
}

func TestClassifyBlock(t *testing.T) {
	cases := []struct {
		block   string
		nEvents int
		want    model.BlockType
	}{
		{"Pretest", 500, model.BlockTest},
		{"Posttest", 500, model.BlockTest},
		{"TEST", 500, model.BlockTest},
		{"pre", 0, model.BlockTest},
		{"B1", 10, model.BlockTraining},
		{"b8", 0, model.BlockTraining},
		{"Block_1", 55, model.BlockTest},
		{"Block_1", 56, model.BlockTraining},
		{"session", 12, model.BlockTest},
		{"session", 80, model.BlockTraining},
	}
	for _, c := range cases {
		t.Run(c.block, func(t *testing.T) {
			assert.Equal(t, c.want, ClassifyBlock(c.block, c.nEvents))
		})
	}
}

func TestClassifyLabel(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(model.BlockTest, ClassifyLabel("Posttest"))
	assert.Equal(model.BlockTraining, ClassifyLabel("Block_3"))
	assert.Equal(model.BlockUnknown, ClassifyLabel("warmup"))
}

func TestLabelFiltersToCanonicalCodes(t *testing.T) {
	ref := reference.Default()
	c := NewClassifier(ref)

	// 21 and 17 never appear in the test sequence
	bt, res := c.Label("Pretest", 10, transitions(91, 21, 13, 17, 32))

	assert := assert.New(t)
	assert.Equal(model.BlockTest, bt)
	require.Len(t, res, 3)
	for _, lt := range res {
		assert.True(ref.Contains(model.BlockTest, lt.TransitionID))
	}
	assert.Equal("h", res[0].StateFromFreq)
	assert.Equal("s", res[1].StateFromFreq)
	assert.Equal("s", res[2].StateFromFreq)
	assert.Equal(2, res[1].IdxFrom)
}

func TestLabelUsesTrainingSequence(t *testing.T) {
	// 99 is not part of the training sequence
	_, res := NewClassifier(reference.Default()).Label("B2", 100, transitions(67, 99, 81))

	require.Len(t, res, 2)
	assert.Equal(t, 67, res[0].TransitionID)
	assert.Equal(t, 81, res[1].TransitionID)
}

func TestLabelFallsBackToUnknownFrequency(t *testing.T) {
	ref, err := reference.Load([]byte(`
states:
  1: [1, 2, 3, 4, 5, 6]
  2: [7, 8, 9, 10, 11, 12]
sequences:
  test: [12, 21]
  training: [12]
frequencies:
  12: h
`))
	require.NoError(t, err)

	_, res := NewClassifier(ref).Label("pretest", 3, transitions(12, 21))

	require.Len(t, res, 2)
	assert.Equal(t, "h", res[0].StateFromFreq)
	assert.Equal(t, reference.UnknownFrequency, res[1].StateFromFreq)
}

func TestLabelEmpty(t *testing.T) {
	bt, res := NewClassifier(reference.Default()).Label("B1", 0, nil)
	assert.Equal(t, model.BlockTraining, bt)
	assert.Empty(t, res)
}
