package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/jsphweid/midistates/file"
	"github.com/jsphweid/midistates/midi"
	"github.com/jsphweid/midistates/model"
	"github.com/jsphweid/midistates/reference"
	"github.com/jsphweid/midistates/sequence"
	"github.com/jsphweid/midistates/state"
	"github.com/jsphweid/midistates/transition"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <recording>",
	Short: "Prints the decoded states of one recording",
	Long:  `Prints the state events of one recording, including extra held keys, and which of its transitions survive the sequence filter.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return inspect(cmd, args[0])
	},
}

func formatNotes(notes model.Notes) string {
	parts := make([]string, len(notes))
	for i, n := range notes {
		parts[i] = strconv.Itoa(int(n))
	}
	return strings.Join(parts, " ")
}

// cells without padding lose their last rune when the column is sized
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style { return cellStyle }).
		Headers(headers...)
}

func inspect(cmd *cobra.Command, path string) error {
	if _, _, err := setup(cmd); err != nil {
		return err
	}
	rec, err := midi.Load(path)
	if err != nil {
		return err
	}

	ref := reference.Default()
	subject, block := file.ParseSubjectAndBlock(path)
	block = file.NormalizeBlockName(block)
	events := state.NewDecoder(ref).DecodeRecording(rec)
	transitions := transition.Build(events)
	blockType, labeled := sequence.NewClassifier(ref).Label(block, len(events), transitions)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "subject: %s  block: %s  block type: %s\n", subject, block, blockType)
	fmt.Fprintf(out, "resolution: %d  tempo: %d µs/quarter\n", rec.Resolution, rec.TempoMicros)

	eventTable := newTable("idx", "time_s", "state", "extra_keys", "total_keys")
	for i, ev := range events {
		eventTable.Row(
			strconv.Itoa(i),
			strconv.FormatFloat(ev.TimeS, 'f', 3, 64),
			strconv.Itoa(ev.State),
			formatNotes(ev.ExtraKeys),
			strconv.Itoa(ev.TotalKeysPressed),
		)
	}
	fmt.Fprintln(out, eventTable.String())

	fmt.Fprintf(out, "%d state events, %d transitions, %d kept\n", len(events), len(transitions), len(labeled))
	return nil
}
