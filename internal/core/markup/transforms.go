package markup

import (
	"regexp"
	"strings"
	"unicode"

	perr "quotary/internal/platform/errors"
)

// state is the mutable working set a pipeline runs over
type state struct {
	text string
	tags string
	src  *Source
}

type stepFn func(*state) error

// steps maps pipeline names from sources.json to their implementations
var steps = map[string]stepFn{
	"unify_dashes":          unifyDashes,
	"remove_dangling_dash":  removeDanglingDash,
	"separate_tags":         separateTags,
	"reject_links":          rejectLinks,
	"reject_junk_tags":      rejectJunkTags,
	"strip_quotation_marks": stripQuotationMarks,
	"strip_brace_tag":       stripBraceTag,
}

var (
	// Every dash variant seen in the wild at line starts, folded to an
	// em dash with a single trailing space
	dashRunRe     = regexp.MustCompile(`(?m)^ *[-–—−‒⁃]+ *`)
	danglingRe    = regexp.MustCompile(`(?m)^— `)
	doubleQuoteRe = regexp.MustCompile(`^"([^"]+)"$`)
	singleQuoteRe = regexp.MustCompile(`^'([^']+)'$`)
	braceTagRe    = regexp.MustCompile(`\([^)]+\)$`)

	// Hostname shape per RFC 1035 labels plus a permissive gTLD tail
	linkRe = regexp.MustCompile(`(?i)(?:[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z0-9][a-z0-9-_]{0,61}[a-z]`)
)

func unifyDashes(st *state) error {
	st.text = dashRunRe.ReplaceAllString(st.text, "— ")
	return nil
}

// A dialogue needs at least two speakers. A single leading em dash is
// scraping noise, not dialogue markup
func removeDanglingDash(st *state) error {
	if strings.Count(st.text, "—") == 1 {
		st.text = danglingRe.ReplaceAllString(st.text, "")
	}
	return nil
}

// separateTags peels every #tag token out of the text and accumulates it
// onto the tag string. A token runs from the marker to the first space,
// newline, tab or next marker. The surrounding text halves are trimmed
// and joined without a separator, matching how the channels embed tags
// mid-line
func separateTags(st *state) error {
	for {
		i := strings.Index(st.text, "#")
		if i < 0 {
			return nil
		}
		start := i + 1
		end := len(st.text)
		for _, stop := range []string{" ", "\n", "\t", "#"} {
			if j := strings.Index(st.text[start:], stop); j >= 0 && start+j < end {
				end = start + j
			}
		}

		st.tags += "#" + tagToken(st.text[start:end]) + " "
		st.text = strings.TrimSpace(st.text[:i]) + strings.TrimSpace(st.text[end:])
	}
}

// tagToken title-cases the first rune, lowercases the rest, and folds
// the Cyrillic ё variant to е so the same author never yields two tags
func tagToken(raw string) string {
	if raw == "" {
		return ""
	}
	r := []rune(raw)
	out := string(unicode.ToTitle(r[0])) + strings.ToLower(string(r[1:]))
	return strings.ReplaceAll(out, "ё", "е")
}

func rejectLinks(st *state) error {
	if linkRe.MatchString(st.text) {
		return perr.Validationf("text contains a link")
	}
	return nil
}

// rejectJunkTags drops submissions tagged with known service or meta
// tags. Matching is against the raw lowercased text, so it must run
// before separate_tags rewrites anything
func rejectJunkTags(st *state) error {
	lower := strings.ToLower(st.text)
	for _, tag := range st.src.JunkTags {
		if strings.Contains(lower, "#"+tag) {
			return perr.Validationf("text carries junk tag %q", tag)
		}
	}
	return nil
}

func stripQuotationMarks(st *state) error {
	st.text = doubleQuoteRe.ReplaceAllString(st.text, "$1")
	st.text = singleQuoteRe.ReplaceAllString(st.text, "$1")
	return nil
}

// stripBraceTag drops a trailing parenthesized attribution, e.g.
// "... (преп. по матану)"
func stripBraceTag(st *state) error {
	st.text = strings.TrimSpace(braceTagRe.ReplaceAllString(st.text, ""))
	return nil
}
