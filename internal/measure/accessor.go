// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package measure

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// defaultChannels applies when the document's metadata declares none.
var defaultChannels = []string{"left", "right"}

// NotFoundError reports a channel or measurement name that the document
// does not declare. It is never silently defaulted.
type NotFoundError struct {
	Kind string // "channel" or "measurement"
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

// Accessor is a read-only view over a measurement document. It performs
// lookups only: no judgment and no transformation of values.
type Accessor struct {
	doc      *Document
	source   string
	index    map[string]*Entry
	groups   map[string][]string
	channels []string
	declared map[string]bool
}

// New indexes doc by method name. source is recorded for provenance
// (usually the document path). When a method appears in several groups the
// last occurrence wins, as in the upstream format.
func New(doc *Document, source string) (*Accessor, error) {
	if doc == nil {
		return nil, fmt.Errorf("nil measurement document")
	}

	channels := doc.Metadata.Channels
	if len(channels) == 0 {
		channels = defaultChannels
	}

	a := &Accessor{
		doc:      doc,
		source:   source,
		index:    make(map[string]*Entry),
		groups:   make(map[string][]string),
		channels: append([]string(nil), channels...),
		declared: make(map[string]bool, len(channels)),
	}
	for _, ch := range channels {
		if strings.TrimSpace(ch) == "" {
			return nil, fmt.Errorf("metadata.channels contains an empty channel name")
		}
		a.declared[ch] = true
	}

	groupNames := make([]string, 0, len(doc.Results))
	for g := range doc.Results {
		groupNames = append(groupNames, g)
	}
	sort.Strings(groupNames)

	for _, g := range groupNames {
		entries := doc.Results[g]
		for i := range entries {
			e := &entries[i]
			if e.Method == "" {
				continue
			}
			a.index[e.Method] = e
			a.groups[g] = append(a.groups[g], e.Method)
		}
	}
	return a, nil
}

// Open loads the document at path and returns its Accessor.
func Open(path string) (*Accessor, error) {
	doc, resolved, err := Load(path)
	if err != nil {
		return nil, err
	}
	return New(doc, resolved)
}

// Resolve returns the named measurement's result for channel. ok is false
// when the method was not run or produced nothing for that channel; that is
// data absence, not an error. An empty name, an empty channel, or a channel
// the document does not declare yields a *NotFoundError.
func (a *Accessor) Resolve(name, channel string) (Result, bool, error) {
	if strings.TrimSpace(name) == "" {
		return nil, false, &NotFoundError{Kind: "measurement", Name: name}
	}
	if err := a.checkChannel(channel); err != nil {
		return nil, false, err
	}
	e, ok := a.index[name]
	if !ok {
		return nil, false, nil
	}
	r, ok := e.Measurements[channel]
	if !ok || r == nil {
		return nil, false, nil
	}
	return r, true, nil
}

// Measurements returns every per-key result of the named method, including
// cross-channel pair keys such as "left_vs_right". ok is false when the
// method was not run.
func (a *Accessor) Measurements(name string) (map[string]Result, bool) {
	e, ok := a.index[name]
	if !ok || len(e.Measurements) == 0 {
		return nil, false
	}
	return e.Measurements, true
}

// ParametersOf returns the parameters/metrics declared by the named method.
// The map may be empty. An unknown method yields a *NotFoundError.
func (a *Accessor) ParametersOf(name string) (map[string]any, error) {
	e, ok := a.index[name]
	if !ok {
		return nil, &NotFoundError{Kind: "measurement", Name: name}
	}
	if e.Metrics == nil {
		return map[string]any{}, nil
	}
	return e.Metrics, nil
}

// Measurement returns the full entry for name, or a *NotFoundError.
func (a *Accessor) Measurement(name string) (Entry, error) {
	e, ok := a.index[name]
	if !ok {
		return Entry{}, &NotFoundError{Kind: "measurement", Name: name}
	}
	return *e, nil
}

// Has reports whether the named method was run.
func (a *Accessor) Has(name string) bool {
	_, ok := a.index[name]
	return ok
}

func (a *Accessor) checkChannel(channel string) error {
	if strings.TrimSpace(channel) == "" || !a.declared[channel] {
		return &NotFoundError{Kind: "channel", Name: channel}
	}
	return nil
}

// CheckChannel returns a *NotFoundError when channel is not declared.
func (a *Accessor) CheckChannel(channel string) error {
	return a.checkChannel(channel)
}

// Channels returns the declared channels in document order.
func (a *Accessor) Channels() []string {
	return append([]string(nil), a.channels...)
}

// Source returns the document reference given to New.
func (a *Accessor) Source() string { return a.source }

// SampleRate returns the sample rate in Hz (44100 when undeclared).
func (a *Accessor) SampleRate() int {
	if a.doc.Metadata.SampleRate > 0 {
		return a.doc.Metadata.SampleRate
	}
	if a.doc.Metadata.AudioInfo.SampleRate > 0 {
		return a.doc.Metadata.AudioInfo.SampleRate
	}
	return 44100
}

// Duration returns the signal duration in seconds.
func (a *Accessor) Duration() float64 {
	return a.doc.Metadata.AudioInfo.Duration
}

// Timestamp parses the document timestamp. ok is false when it is absent
// or not ISO 8601.
func (a *Accessor) Timestamp() (time.Time, bool) {
	ts := strings.TrimSpace(a.doc.Timestamp)
	if ts == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, ts); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// Methods returns all method names in sorted order.
func (a *Accessor) Methods() []string {
	names := make([]string, 0, len(a.index))
	for n := range a.index {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// MethodsByGroup returns method names keyed by result group.
func (a *Accessor) MethodsByGroup() map[string][]string {
	out := make(map[string][]string, len(a.groups))
	for g, names := range a.groups {
		out[g] = append([]string(nil), names...)
	}
	return out
}

// Summary describes the document for display.
type Summary struct {
	Source     string   `json:"source" yaml:"source"`
	Timestamp  string   `json:"timestamp" yaml:"timestamp"`
	SampleRate int      `json:"sample_rate" yaml:"sample_rate"`
	Duration   float64  `json:"duration" yaml:"duration"`
	Channels   []string `json:"channels" yaml:"channels"`
	Methods    []string `json:"methods" yaml:"methods"`
}

// Summary returns a display summary of the document.
func (a *Accessor) Summary() Summary {
	return Summary{
		Source:     a.source,
		Timestamp:  a.doc.Timestamp,
		SampleRate: a.SampleRate(),
		Duration:   a.Duration(),
		Channels:   a.Channels(),
		Methods:    a.Methods(),
	}
}
