// Package sequence matches a recording's transitions against the canonical
// sequence of its block type and labels them with their stimulus frequency.
package sequence

import (
	"strings"

	"github.com/jsphweid/midistates/constants"
	"github.com/jsphweid/midistates/model"
	"github.com/jsphweid/midistates/reference"
)

func isTestLabel(b string) bool {
	return strings.Contains(b, "pre") || strings.Contains(b, "post") || strings.Contains(b, "test")
}

// ClassifyBlock decides the block type of a recording. Labels mentioning
// pre, post or test are test blocks, short labels starting with b are
// training blocks. Anything else falls back to the number of state events.
func ClassifyBlock(block string, nEvents int) model.BlockType {
	b := strings.ToLower(block)
	if isTestLabel(b) {
		return model.BlockTest
	}
	if strings.HasPrefix(b, "b") && len(b) <= 3 {
		return model.BlockTraining
	}
	if nEvents <= constants.TestEventThreshold {
		return model.BlockTest
	}
	return model.BlockTraining
}

// ClassifyLabel uses the label alone and reports BlockUnknown instead of
// guessing. Used when summarising an existing table.
func ClassifyLabel(block string) model.BlockType {
	b := strings.ToLower(block)
	if isTestLabel(b) {
		return model.BlockTest
	}
	if strings.HasPrefix(b, "b") {
		return model.BlockTraining
	}
	return model.BlockUnknown
}

type Classifier struct {
	ref *reference.Reference
}

func NewClassifier(ref *reference.Reference) *Classifier {
	return &Classifier{ref: ref}
}

// Label drops transitions whose code is not part of the block type's
// canonical sequence and tags the rest with their frequency label.
func (c *Classifier) Label(block string, nEvents int, transitions []model.Transition) (model.BlockType, []model.LabeledTransition) {
	bt := ClassifyBlock(block, nEvents)

	var res []model.LabeledTransition
	for _, tr := range transitions {
		if !c.ref.Contains(bt, tr.TransitionID) {
			continue
		}
		res = append(res, model.LabeledTransition{
			Transition:    tr,
			StateFromFreq: c.ref.Frequency(tr.TransitionID),
		})
	}
	return bt, res
}
