// Package file finds the study's recordings on disk and reads participant
// and block identity out of their names.
package file

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jsphweid/midistates/constants"
	"github.com/pkg/errors"
)

var ErrDataFolderNotFound = errors.New("data folder not found")

var (
	blockPattern    = regexp.MustCompile(`b([1-8])|block[_\s]*([1-8])`)
	pretestPattern  = regexp.MustCompile(`pretest|^pre`)
	posttestPattern = regexp.MustCompile(`posttest|^post`)
	digitPattern    = regexp.MustCompile(`[1-8]`)
)

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// FindDataFolder looks for a directory called name in start and each of its
// parents, then anywhere below start.
func FindDataFolder(start, name string) (string, error) {
	current, err := filepath.Abs(start)
	if err != nil {
		return "", errors.Wrap(err, "resolving start path")
	}
	for {
		candidate := filepath.Join(current, name)
		if isDir(candidate) {
			return candidate, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}

	var found string
	filepath.WalkDir(start, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() && d.Name() == name {
			found = path
			return filepath.SkipAll
		}
		return nil
	})
	if found != "" {
		return filepath.Abs(found)
	}
	return "", errors.Wrapf(ErrDataFolderNotFound, "%q from %s", name, start)
}

func IsMidiPath(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range constants.MidiExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// GatherMidiPaths lists every .mid/.midi file below root in lexical,
// depth-first order.
func GatherMidiPaths(root string) ([]string, error) {
	var res []string
	walk := func(s string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.Wrapf(err, "Error walking %s", s)
		}
		if !d.IsDir() && IsMidiPath(s) {
			res = append(res, s)
		}
		return nil
	}
	if err := filepath.WalkDir(root, walk); err != nil {
		return nil, err
	}
	return res, nil
}

// ParseSubjectAndBlock reads MIDI_<participant>_<block>.mid names. Other
// names use the containing folder as subject and the whole stem as block.
func ParseSubjectAndBlock(path string) (subject, block string) {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	if rest, ok := strings.CutPrefix(stem, constants.MidiPrefix); ok {
		if i := strings.Index(rest, "_"); i > 0 && i < len(rest)-1 {
			return rest[:i], rest[i+1:]
		}
	}
	return filepath.Base(filepath.Dir(path)), stem
}

// NormalizeBlockName maps label variants to B1..B8, Pretest or Posttest.
// Labels that match none of them are returned unchanged.
func NormalizeBlockName(block string) string {
	b := strings.ToLower(strings.TrimSpace(block))

	if m := blockPattern.FindStringSubmatch(b); m != nil {
		num := m[1]
		if num == "" {
			num = m[2]
		}
		return "B" + num
	}
	if pretestPattern.MatchString(b) {
		return "Pretest"
	}
	if posttestPattern.MatchString(b) {
		return "Posttest"
	}
	if d := digitPattern.FindString(b); d != "" {
		return "B" + d
	}
	return block
}
