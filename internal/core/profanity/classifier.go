// Package profanity flags quote text carrying obscene vocabulary so bulk
// loads can divert it away from the public voting feed.
//
// Matching runs over folded text: Unicode compatibility normalization,
// case folding, combining mark and invisible format rune removal, and
// width folding, so homoglyph padding and case games do not hide a term.
// Terms are Russian and English roots matched as token prefixes, plus a
// small exact-token set and a stoplist for known clean words that share
// a root prefix
package profanity

import (
	_ "embed"
	"encoding/json"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"

	perr "quotary/internal/platform/errors"
)

//go:embed terms.json
var rawTerms []byte

type termsFile struct {
	Version  string   `json:"version"`
	Roots    []string `json:"roots"`
	Exact    []string `json:"exact"`
	Stoplist []string `json:"stoplist"`
}

// Classifier answers whether a text carries profanity
type Classifier struct {
	version  string
	roots    []string
	exact    map[string]struct{}
	stoplist []string
}

// New compiles the embedded term table
func New() (*Classifier, error) {
	var f termsFile
	if err := json.Unmarshal(rawTerms, &f); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeJSON, "parse terms.json")
	}
	if len(f.Roots) == 0 {
		return nil, perr.New(perr.ErrorCodeInvalidArgument, "terms.json has no roots")
	}

	c := &Classifier{
		version: f.Version,
		exact:   make(map[string]struct{}, len(f.Exact)),
	}
	for _, r := range f.Roots {
		c.roots = append(c.roots, fold(r))
	}
	for _, e := range f.Exact {
		c.exact[fold(e)] = struct{}{}
	}
	for _, s := range f.Stoplist {
		c.stoplist = append(c.stoplist, fold(s))
	}
	return c, nil
}

// MustNew is New for wiring paths where the embedded table is trusted
func MustNew() *Classifier {
	c, err := New()
	if err != nil {
		panic(err)
	}
	return c
}

// Version reports the term table revision
func (c *Classifier) Version() string { return c.version }

// Detect reports whether text carries at least one flagged term
func (c *Classifier) Detect(text string) bool {
	for _, tok := range tokenize(fold(text)) {
		if c.hit(tok) {
			return true
		}
	}
	return false
}

// Predict returns a verdict per input text, index-aligned with texts
func (c *Classifier) Predict(texts []string) []bool {
	out := make([]bool, len(texts))
	for i, t := range texts {
		out[i] = c.Detect(t)
	}
	return out
}

func (c *Classifier) hit(tok string) bool {
	if _, ok := c.exact[tok]; ok {
		return true
	}
	for _, stop := range c.stoplist {
		if strings.HasPrefix(tok, stop) {
			return false
		}
	}
	for _, root := range c.roots {
		if strings.HasPrefix(tok, root) {
			return true
		}
	}
	return false
}

// foldChain strips the decorations submitters use to sneak terms past a
// naive filter: fullwidth forms, combining marks over latin lookalikes,
// zero width joiners between letters
var foldChain = transform.Chain(
	norm.NFKC,
	cases.Fold(),
	runes.Remove(runes.In(unicode.Mn)),
	runes.Remove(runes.In(unicode.Cf)),
	width.Fold,
	norm.NFC,
)

func fold(s string) string {
	out, _, err := transform.String(foldChain, s)
	if err != nil {
		out = strings.ToLower(s)
	}
	return strings.ReplaceAll(out, "ё", "е")
}

func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
