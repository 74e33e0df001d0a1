// Package summary describes transition times of an output table: per group
// count, mean, sample standard deviation, median, range and a t-based 95%
// confidence interval of the mean.
package summary

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/jsphweid/midistates/model"
	"github.com/jsphweid/midistates/sequence"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

const Confidence = 0.95

// cells without padding lose their last rune when the column is sized
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

type Stats struct {
	N       int     `json:"n"`
	Mean    float64 `json:"mean_s"`
	Std     float64 `json:"std_s"`
	Median  float64 `json:"median_s"`
	Min     float64 `json:"min_s"`
	Max     float64 `json:"max_s"`
	CILower float64 `json:"ci_lower_s"`
	CIUpper float64 `json:"ci_upper_s"`
}

type Group struct {
	Key          string             `json:"key,omitempty"`
	TransitionID model.TransitionID `json:"transition_id"`
	Stats
}

type Report struct {
	ByTransition []Group `json:"by_transition"`
	ByBlockType  []Group `json:"by_block_type"`
	ByBlock      []Group `json:"by_block"`
	ByFrequency  []Group `json:"by_frequency"`
}

// Describe ignores NaN values. Std and the interval are NaN below two values.
func Describe(values []float64) Stats {
	xs := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			xs = append(xs, v)
		}
	}
	nan := math.NaN()
	res := Stats{N: len(xs), Mean: nan, Std: nan, Median: nan, Min: nan, Max: nan, CILower: nan, CIUpper: nan}
	if len(xs) == 0 {
		return res
	}
	sort.Float64s(xs)

	res.Mean = stat.Mean(xs, nil)
	res.Median = median(xs)
	res.Min = floats.Min(xs)
	res.Max = floats.Max(xs)
	if len(xs) < 2 {
		return res
	}

	n := float64(len(xs))
	res.Std = stat.StdDev(xs, nil)
	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: n - 1}
	delta := t.Quantile(1-(1-Confidence)/2) * res.Std / math.Sqrt(n)
	res.CILower = res.Mean - delta
	res.CIUpper = res.Mean + delta
	return res
}

// sorted input
func median(xs []float64) float64 {
	mid := len(xs) / 2
	if len(xs)%2 == 1 {
		return xs[mid]
	}
	return (xs[mid-1] + xs[mid]) / 2
}

type groupKey struct {
	key string
	tid model.TransitionID
}

func groupBy(rows []model.Row, key func(model.Row) string) []Group {
	values := make(map[groupKey][]float64)
	for _, r := range rows {
		k := groupKey{tid: r.TransitionID}
		if key != nil {
			k.key = key(r)
		}
		values[k] = append(values[k], r.TransitionTimeS)
	}

	keys := make([]groupKey, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].key != keys[j].key {
			return keys[i].key < keys[j].key
		}
		return keys[i].tid < keys[j].tid
	})

	groups := make([]Group, 0, len(keys))
	for _, k := range keys {
		groups = append(groups, Group{Key: k.key, TransitionID: k.tid, Stats: Describe(values[k])})
	}
	return groups
}

func Summarize(rows []model.Row) *Report {
	return &Report{
		ByTransition: groupBy(rows, nil),
		ByBlockType: groupBy(rows, func(r model.Row) string {
			return string(sequence.ClassifyLabel(r.Block))
		}),
		ByBlock: groupBy(rows, func(r model.Row) string {
			return r.Block
		}),
		ByFrequency: groupBy(rows, func(r model.Row) string {
			return r.StateFromFreq
		}),
	}
}

func formatStat(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func render(keyName string, groups []Group) string {
	headers := []string{"transition_id", "n", "mean_s", "std_s", "median_s", "min_s", "max_s", "ci_lower_s", "ci_upper_s"}
	if keyName != "" {
		headers = append([]string{keyName}, headers...)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style { return cellStyle }).
		Headers(headers...)
	for _, g := range groups {
		row := []string{
			strconv.Itoa(g.TransitionID),
			strconv.Itoa(g.N),
			formatStat(g.Mean),
			formatStat(g.Std),
			formatStat(g.Median),
			formatStat(g.Min),
			formatStat(g.Max),
			formatStat(g.CILower),
			formatStat(g.CIUpper),
		}
		if keyName != "" {
			row = append([]string{g.Key}, row...)
		}
		t.Row(row...)
	}
	return t.String()
}

func Write(w io.Writer, r *Report) error {
	sections := []struct {
		title   string
		keyName string
		groups  []Group
	}{
		{"Per transition code", "", r.ByTransition},
		{"Per block type", "block_type", r.ByBlockType},
		{"Per block", "block", r.ByBlock},
		{"Per frequency label", "state_from_freq", r.ByFrequency},
	}
	for _, s := range sections {
		if _, err := fmt.Fprintf(w, "\n=== %s ===\n", s.title); err != nil {
			return err
		}
		if len(s.groups) == 0 {
			if _, err := fmt.Fprintln(w, "no data"); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintln(w, render(s.keyName, s.groups)); err != nil {
			return err
		}
	}
	return nil
}
