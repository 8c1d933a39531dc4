// Package sidecar loads, rewrites, and deterministically persists the JSON
// metadata records that accompany acquisition images.
package sidecar

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/carbocation/pfx"
)

// Field names touched by normalization.
const (
	KeyTotalReadoutTime          = "TotalReadoutTime"
	KeyEstimatedTotalReadoutTime = "EstimatedTotalReadoutTime"
	KeyPhaseEncodingDirection    = "PhaseEncodingDirection"
	KeyPhaseEncodingAxis         = "PhaseEncodingAxis"
	KeyIntendedFor               = "IntendedFor"
)

// Record is a loaded sidecar: a schemaless key/value JSON object. Scanner
// vendors disagree wildly on which keys exist, so no struct schema is
// imposed; normalization touches only the fields it knows.
type Record map[string]any

// Load reads and parses a sidecar file.
func Load(path string) (Record, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, pfx.Err(err)
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, pfx.Err(err)
	}
	return rec, nil
}

// Encode renders a record in the canonical byte form: UTF-8, two-space
// indent, keys sorted, no HTML escaping, trailing newline. Repeated encodes
// of equal records are byte-identical, which is what makes whole-run
// idempotence checkable.
func Encode(rec Record) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		return nil, pfx.Err(err)
	}
	return buf.Bytes(), nil
}

// Save writes a record to path in canonical form, creating parent
// directories and going through a temp-file rename so a partial record is
// never visible at the destination.
func Save(path string, rec Record) error {
	out, err := Encode(rec)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return pfx.Err(err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return pfx.Err(err)
	}
	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return pfx.Err(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return pfx.Err(err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return pfx.Err(err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return pfx.Err(err)
	}
	return nil
}

// stringField returns the value under key rendered as a trimmed string, or
// "" when the key is absent or not a string.
func (r Record) stringField(key string) string {
	v, ok := r[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// blank reports whether key is absent, or present as a blank string.
func (r Record) blank(key string) bool {
	v, ok := r[key]
	if !ok {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// empty reports whether key is absent or holds a zero-ish value (null, "",
// 0, false). Used for the readout-time target field, where a zero value is
// as useless as a missing one.
func (r Record) empty(key string) bool {
	v, ok := r[key]
	if !ok {
		return true
	}
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case float64:
		return t == 0
	case bool:
		return !t
	}
	return false
}
