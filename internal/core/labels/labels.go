// Package labels models candidate label sets for zero-shot classification
//
// A label has two faces: the human description fed to the model inside the
// hypothesis template, and a normalized key used for storage and as a column
// name when results are pivoted wide. Keys are derived deterministically:
// 1 Unicode NFKD normalization (decomposition exposes combining marks)
// 2 Case folding
// 3 Remove combining marks (strips the decomposed diacritics)
// 4 Width fold fullwidth to ASCII
// 5 Collapse non-alphanumeric runs to single underscores and trim
package labels

import (
	"strings"
	"sync"
	"unicode"

	perr "zeroshot/internal/platform/errors"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// Label pairs a normalized storage key with the description sent to the model
type Label struct {
	Key         string `json:"key"`
	Description string `json:"description"`
}

// Set is an ordered collection of labels
// order is preserved because output columns follow declaration order
type Set struct {
	labels []Label
}

// pool of fresh transformer chains
var chainPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFKD,
			cases.Fold(),                       // unicode case folding
			runes.Remove(runes.In(unicode.Mn)), // strip combining marks
			width.Fold,                         // map fullwidth forms to ASCII
		)
	},
}

// NormalizeKey derives the storage/column key for a label description
func NormalizeKey(desc string) string {
	s := strings.ToValidUTF8(desc, "")

	tr := chainPool.Get().(transform.Transformer)
	ns, _, _ := transform.String(tr, s)
	tr.Reset()
	chainPool.Put(tr)

	// collapse anything that is not a letter or digit into single underscores
	var b strings.Builder
	b.Grow(len(ns))
	pendingSep := false
	for _, r := range ns {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}

// ParseSet builds a Set from raw label descriptions
// it rejects empty input, blank entries, and key collisions after normalization
func ParseSet(descs []string) (Set, error) {
	if len(descs) == 0 {
		return Set{}, perr.InvalidArgf("labels must be non-empty")
	}
	out := make([]Label, 0, len(descs))
	byKey := make(map[string]string, len(descs))
	for i, d := range descs {
		if strings.TrimSpace(d) == "" {
			return Set{}, perr.InvalidArgf("label %d is blank", i)
		}
		key := NormalizeKey(d)
		if key == "" {
			return Set{}, perr.InvalidArgf("label %q normalizes to an empty key", d)
		}
		if prev, dup := byKey[key]; dup {
			if prev == d {
				// exact duplicate: first occurrence wins, drop the repeat
				continue
			}
			return Set{}, perr.Schemaf("labels %q and %q collide on key %q", prev, d, key)
		}
		byKey[key] = d
		out = append(out, Label{Key: key, Description: d})
	}
	return Set{labels: out}, nil
}

// Len returns the number of labels
func (s Set) Len() int { return len(s.labels) }

// All returns the labels in declaration order
func (s Set) All() []Label { return append([]Label(nil), s.labels...) }

// Descriptions returns just the model-facing strings in order
func (s Set) Descriptions() []string {
	out := make([]string, len(s.labels))
	for i, l := range s.labels {
		out[i] = l.Description
	}
	return out
}

// Keys returns just the storage keys in order
func (s Set) Keys() []string {
	out := make([]string, len(s.labels))
	for i, l := range s.labels {
		out[i] = l.Key
	}
	return out
}

// KeyFor maps a model-facing description back to its storage key
func (s Set) KeyFor(desc string) (string, bool) {
	for _, l := range s.labels {
		if l.Description == desc {
			return l.Key, true
		}
	}
	return "", false
}

// Template is a hypothesis sentence with a single {} slot for the label
type Template string

// DefaultTemplate mirrors the upstream NLI default
const DefaultTemplate Template = "This example is {}."

// Validate checks the template carries exactly one {} slot
func (t Template) Validate() error {
	if strings.TrimSpace(string(t)) == "" {
		return perr.InvalidArgf("hypothesis template must be non-empty")
	}
	if n := strings.Count(string(t), "{}"); n != 1 {
		return perr.InvalidArgf("hypothesis template must contain exactly one {} placeholder, found %d", n)
	}
	return nil
}

// Render substitutes the label description into the slot
func (t Template) Render(desc string) string {
	return strings.Replace(string(t), "{}", desc, 1)
}
