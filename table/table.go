// Package table writes and reads the analysis output: a UTF-8 CSV with a
// byte order mark and one row per labelled transition.
package table

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/jsphweid/midistates/model"
	"github.com/pkg/errors"
)

const bom = "\ufeff"

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func record(r model.Row) []string {
	return []string{
		strconv.Itoa(r.IdxFrom),
		strconv.Itoa(r.StateFrom),
		formatFloat(r.OnsetFromS),
		strconv.Itoa(r.IdxTo),
		strconv.Itoa(r.StateTo),
		formatFloat(r.OnsetToS),
		formatFloat(r.TransitionTimeS),
		strconv.Itoa(r.TransitionID),
		r.Subject,
		r.Block,
		r.StateFromFreq,
	}
}

func Write(w io.Writer, rows []model.Row) error {
	if _, err := io.WriteString(w, bom); err != nil {
		return errors.Wrap(err, "writing byte order mark")
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(model.Columns); err != nil {
		return errors.Wrap(err, "writing header")
	}
	for _, r := range rows {
		if err := cw.Write(record(r)); err != nil {
			return errors.Wrap(err, "writing row")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flushing table")
}

func WriteFile(path string, rows []model.Row) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "creating table")
	}
	bw := bufio.NewWriter(f)
	if err := Write(bw, rows); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return errors.Wrap(err, "writing table")
	}
	return errors.Wrap(f.Close(), "closing table")
}

type rowParser struct {
	cols map[string]int
	rec  []string
	err  error
}

func (p *rowParser) str(name string) string {
	return p.rec[p.cols[name]]
}

func (p *rowParser) integer(name string) int {
	if p.err != nil {
		return 0
	}
	v, err := strconv.Atoi(p.str(name))
	if err != nil {
		p.err = errors.Wrapf(err, "column %s", name)
	}
	return v
}

func (p *rowParser) number(name string) float64 {
	if p.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(p.str(name), 64)
	if err != nil {
		p.err = errors.Wrapf(err, "column %s", name)
	}
	return v
}

// Read parses a table written by Write. Columns are matched by name.
func Read(r io.Reader) ([]model.Row, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(bom)); err == nil && bytes.Equal(head, []byte(bom)) {
		br.Discard(len(bom))
	}

	cr := csv.NewReader(br)
	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(err, "reading header")
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}
	for _, name := range model.Columns {
		if _, ok := cols[name]; !ok {
			return nil, errors.Errorf("table has no %s column", name)
		}
	}

	var rows []model.Row
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "reading line %d", line)
		}
		p := rowParser{cols: cols, rec: rec}
		row := model.Row{
			Transition: model.Transition{
				IdxFrom:         p.integer("idx_from"),
				StateFrom:       p.integer("state_from"),
				OnsetFromS:      p.number("onset_from_s"),
				IdxTo:           p.integer("idx_to"),
				StateTo:         p.integer("state_to"),
				OnsetToS:        p.number("onset_to_s"),
				TransitionTimeS: p.number("transition_time_s"),
				TransitionID:    p.integer("transition_id"),
			},
			Subject:       p.str("subject"),
			Block:         p.str("block"),
			StateFromFreq: p.str("state_from_freq"),
		}
		if p.err != nil {
			return nil, errors.Wrapf(p.err, "line %d", line)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func ReadFile(path string) ([]model.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening table")
	}
	defer f.Close()
	return Read(f)
}
