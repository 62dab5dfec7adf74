// Package diff produces line-level structured diffs between two prompt texts,
// suitable for side-by-side or inline rendering.
package diff

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

const (
	Added     = "added"
	Removed   = "removed"
	Unchanged = "unchanged"
)

// Line is one record of a structured diff. There is no "changed" type: a
// replaced line yields a removed record followed by an added record.
type Line struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Lines diffs old against new line by line. Concatenating the Text fields in
// order reconstructs a merge view of both texts; identical inputs yield only
// unchanged records.
func Lines(old, new string) []Line {
	a := splitLines(old)
	b := splitLines(new)

	m := difflib.NewMatcher(a, b)

	var out []Line
	for _, op := range m.GetOpCodes() {
		switch op.Tag {
		case 'e':
			for _, line := range a[op.I1:op.I2] {
				out = append(out, Line{Type: Unchanged, Text: line})
			}
		case 'd':
			for _, line := range a[op.I1:op.I2] {
				out = append(out, Line{Type: Removed, Text: line})
			}
		case 'i':
			for _, line := range b[op.J1:op.J2] {
				out = append(out, Line{Type: Added, Text: line})
			}
		case 'r':
			for _, line := range a[op.I1:op.I2] {
				out = append(out, Line{Type: Removed, Text: line})
			}
			for _, line := range b[op.J1:op.J2] {
				out = append(out, Line{Type: Added, Text: line})
			}
		}
	}
	return out
}

// splitLines matches Python-style splitlines: the empty string has no lines,
// and a single trailing newline does not produce a trailing empty line.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}
