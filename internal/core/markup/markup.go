// Package markup normalizes raw scraped quote text into storable records.
//
// Each upstream channel is described by a Source entry in the embedded
// sources.json: display metadata plus an ordered pipeline of transform
// steps. Steps either rewrite the working text, peel author tags out of
// it, or reject the quote outright. Rejections are typed validation
// errors so callers can count and skip them during bulk loads
package markup

import (
	_ "embed"
	"encoding/json"
	"sort"
	"strings"

	perr "quotary/internal/platform/errors"
)

//go:embed sources.json
var rawSources []byte

// Quote is the result of a successful normalization pass
type Quote struct {
	// Text is the quote body with tags and markup peeled off
	Text string
	// Tags is the accumulated author tag string, e.g. "#Иванов #Петров ".
	// Tag order follows marker order in the raw text
	Tags string
}

// Source describes one upstream channel and its normalization pipeline
type Source struct {
	Key         string   `json:"-"`
	ChannelName string   `json:"channel_name"`
	ChannelLink string   `json:"channel_link"`
	Pipeline    []string `json:"pipeline"`
	JunkTags    []string `json:"junk_tags,omitempty"`

	steps []stepFn
}

type sourcesFile struct {
	Version string             `json:"version"`
	Sources map[string]*Source `json:"sources"`
}

// Registry holds the compiled source table
type Registry struct {
	version string
	sources map[string]*Source
}

// Load parses and compiles the embedded source table
func Load() (*Registry, error) {
	var f sourcesFile
	if err := json.Unmarshal(rawSources, &f); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeJSON, "parse sources.json")
	}
	if len(f.Sources) == 0 {
		return nil, perr.New(perr.ErrorCodeInvalidArgument, "sources.json has no sources")
	}
	for key, src := range f.Sources {
		src.Key = key
		for _, name := range src.Pipeline {
			fn, ok := steps[name]
			if !ok {
				return nil, perr.InvalidArgf("source %q: unknown pipeline step %q", key, name)
			}
			src.steps = append(src.steps, fn)
		}
	}
	return &Registry{version: f.Version, sources: f.Sources}, nil
}

// MustLoad is Load for wiring paths where the embedded table is trusted
func MustLoad() *Registry {
	r, err := Load()
	if err != nil {
		panic(err)
	}
	return r
}

// Version reports the source table revision
func (r *Registry) Version() string { return r.version }

// Keys returns the known source keys in sorted order
func (r *Registry) Keys() []string {
	out := make([]string, 0, len(r.sources))
	for k := range r.sources {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Source looks up a source by key
func (r *Registry) Source(key string) (*Source, bool) {
	s, ok := r.sources[key]
	return s, ok
}

// Normalize runs the pipeline of the named source over raw text
func (r *Registry) Normalize(key, raw string) (Quote, error) {
	src, ok := r.sources[key]
	if !ok {
		return Quote{}, perr.InvalidArgf("unknown source %q", key)
	}
	return src.Normalize(raw)
}

// Normalize runs the source pipeline over raw text. It rejects empty
// input and input without a single tag marker before any step runs
func (s *Source) Normalize(raw string) (Quote, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Quote{}, perr.Validationf("text is empty")
	}
	if !strings.Contains(text, "#") {
		return Quote{}, perr.Validationf("text has no tag marker, most likely not a quote")
	}

	st := &state{text: text, src: s}
	for _, fn := range s.steps {
		if err := fn(st); err != nil {
			return Quote{}, err
		}
	}
	return Quote{Text: st.text, Tags: st.tags}, nil
}
