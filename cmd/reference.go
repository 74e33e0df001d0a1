package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jsphweid/midistates/model"
	"github.com/jsphweid/midistates/reference"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(referenceCmd)
}

var referenceCmd = &cobra.Command{
	Use:       "reference [test|training]",
	Short:     "Prints the reference states and a canonical sequence",
	Long:      `Prints the nine hand-posture states and, for the given block type (default test), every expected transition code with its frequency label.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"test", "training"},
	RunE: func(cmd *cobra.Command, args []string) error {
		bt := model.BlockTest
		if len(args) == 1 {
			switch strings.ToLower(args[0]) {
			case "test":
			case "training":
				bt = model.BlockTraining
			default:
				return errors.Errorf("unknown block type %q", args[0])
			}
		}
		return printReference(cmd, bt)
	},
}

func printReference(cmd *cobra.Command, bt model.BlockType) error {
	ref := reference.Default()
	out := cmd.OutOrStdout()

	states := newTable("state", "notes")
	for _, s := range ref.States() {
		states.Row(strconv.Itoa(s.ID), formatNotes(s.Notes))
	}
	fmt.Fprintln(out, states.String())

	expected := newTable("index", "code", "from", "to", "freq")
	n := len(ref.Sequence(bt))
	for i := 0; i < n; i++ {
		e, err := ref.ExpectedAt(bt, i)
		if err != nil {
			return err
		}
		from, to, err := reference.DecodeTransitionID(e.Code)
		if err != nil {
			return err
		}
		expected.Row(strconv.Itoa(i), strconv.Itoa(e.Code), strconv.Itoa(from), strconv.Itoa(to), e.Frequency)
	}
	fmt.Fprintf(out, "%s sequence, %d transitions\n", bt, n)
	fmt.Fprintln(out, expected.String())
	return nil
}
