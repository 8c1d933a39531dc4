package sidecar

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/neurostage/bidsify/internal/naming"
)

// --- Normalize tests ---

func TestNormalize_ReadoutMigration(t *testing.T) {
	rec := Record{
		"EstimatedTotalReadoutTime": 0.05,
		"PhaseEncodingDirection":    "j-",
	}
	if err := Normalize(rec, Options{}); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got := rec["TotalReadoutTime"]; got != 0.05 {
		t.Errorf("TotalReadoutTime = %v, want 0.05", got)
	}
	if _, ok := rec["EstimatedTotalReadoutTime"]; ok {
		t.Error("deprecated key should be removed")
	}
}

func TestNormalize_ReadoutKeepsExistingValue(t *testing.T) {
	rec := Record{
		"TotalReadoutTime":          0.03,
		"EstimatedTotalReadoutTime": 0.05,
		"PhaseEncodingDirection":    "j-",
	}
	if err := Normalize(rec, Options{}); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got := rec["TotalReadoutTime"]; got != 0.03 {
		t.Errorf("TotalReadoutTime = %v, want existing 0.03 kept", got)
	}
	if _, ok := rec["EstimatedTotalReadoutTime"]; ok {
		t.Error("deprecated key should be removed even when target kept")
	}
}

func TestNormalize_ReadoutMigratesOverZero(t *testing.T) {
	// A zero target counts as unset and is overwritten.
	rec := Record{
		"TotalReadoutTime":          0.0,
		"EstimatedTotalReadoutTime": 0.05,
		"PhaseEncodingDirection":    "j",
	}
	if err := Normalize(rec, Options{}); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got := rec["TotalReadoutTime"]; got != 0.05 {
		t.Errorf("TotalReadoutTime = %v, want migrated 0.05", got)
	}
}

func TestNormalize_DirectionFromAxis(t *testing.T) {
	cases := []struct {
		axis    string
		reverse bool
		want    string
	}{
		{"j-", false, "j-"},
		{"j-", true, "j"},
		{"j", true, "j-"},
		{"i", false, "i"},
	}
	for _, c := range cases {
		rec := Record{"PhaseEncodingAxis": c.axis}
		if err := Normalize(rec, Options{Reverse: c.reverse}); err != nil {
			t.Fatalf("Normalize(axis=%q reverse=%v): %v", c.axis, c.reverse, err)
		}
		if got := rec["PhaseEncodingDirection"]; got != c.want {
			t.Errorf("axis=%q reverse=%v: direction = %v, want %q", c.axis, c.reverse, got, c.want)
		}
	}
}

func TestNormalize_ExistingDirectionWins(t *testing.T) {
	rec := Record{
		"PhaseEncodingDirection": "j-",
		"PhaseEncodingAxis":      "j",
	}
	if err := Normalize(rec, Options{Reverse: true}); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got := rec["PhaseEncodingDirection"]; got != "j-" {
		t.Errorf("direction = %v, want existing j- untouched", got)
	}
}

func TestNormalize_FallbackDirection(t *testing.T) {
	rec := Record{}
	if err := Normalize(rec, Options{FallbackDirection: "j-"}); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got := rec["PhaseEncodingDirection"]; got != "j-" {
		t.Errorf("direction = %v, want fallback j-", got)
	}
}

func TestNormalize_UnresolvableDirection(t *testing.T) {
	rec := Record{"TotalReadoutTime": 0.03}
	err := Normalize(rec, Options{})
	if !errors.Is(err, naming.ErrUnresolvableDirection) {
		t.Fatalf("got %v, want ErrUnresolvableDirection", err)
	}
	if _, ok := rec["PhaseEncodingDirection"]; ok {
		t.Error("failed derivation must not leave a direction field behind")
	}
}

func TestNormalize_IntendedForReplaced(t *testing.T) {
	rec := Record{
		"PhaseEncodingDirection": "j",
		"IntendedFor":            []any{"stale/path.nii.gz"},
	}
	want := []string{"dwi/a.nii.gz", "dwi/b.nii.gz"}
	if err := Normalize(rec, Options{IntendedFor: want}); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	got, ok := rec["IntendedFor"].([]string)
	if !ok || len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("IntendedFor = %v, want %v", rec["IntendedFor"], want)
	}
}

func TestNormalize_NilIntendedForLeavesExisting(t *testing.T) {
	rec := Record{
		"PhaseEncodingDirection": "j",
		"IntendedFor":            []any{"keep/me.nii.gz"},
	}
	if err := Normalize(rec, Options{}); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got, ok := rec["IntendedFor"].([]any); !ok || len(got) != 1 {
		t.Errorf("IntendedFor = %v, want untouched single entry", rec["IntendedFor"])
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	rec := Record{
		"EstimatedTotalReadoutTime": 0.05,
		"PhaseEncodingAxis":         "j",
	}
	opts := Options{Reverse: true}
	if err := Normalize(rec, opts); err != nil {
		t.Fatalf("first Normalize: %v", err)
	}
	first, err := Encode(rec)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if err := Normalize(rec, opts); err != nil {
		t.Fatalf("second Normalize: %v", err)
	}
	second, err := Encode(rec)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("second Normalize changed the record:\n%s\nvs\n%s", first, second)
	}
}

// --- Encode / Save tests ---

func TestEncode_Canonical(t *testing.T) {
	rec := Record{
		"ZLast":                  1.0,
		"AFirst":                 "x",
		"PhaseEncodingDirection": "j-",
	}
	got, err := Encode(rec)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := "{\n  \"AFirst\": \"x\",\n  \"PhaseEncodingDirection\": \"j-\",\n  \"ZLast\": 1\n}\n"
	if string(got) != want {
		t.Errorf("Encode:\n%q\nwant\n%q", got, want)
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "rec.json")
	rec := Record{"PhaseEncodingDirection": "j-", "TotalReadoutTime": 0.05}

	if err := Save(path, rec); err != nil {
		t.Fatalf("Save: %v", err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if back["PhaseEncodingDirection"] != "j-" || back["TotalReadoutTime"] != 0.05 {
		t.Errorf("round trip lost data: %v", back)
	}

	// No temp files may survive in the destination directory.
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("unexpected leftover files: %v", entries)
	}
}

func TestSave_Deterministic(t *testing.T) {
	dir := t.TempDir()
	rec := Record{"B": 2.0, "A": 1.0, "C": "three"}

	p1 := filepath.Join(dir, "one.json")
	p2 := filepath.Join(dir, "two.json")
	if err := Save(p1, rec); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := Save(p2, rec); err != nil {
		t.Fatalf("Save: %v", err)
	}
	b1, _ := os.ReadFile(p1)
	b2, _ := os.ReadFile(p2)
	if !bytes.Equal(b1, b2) {
		t.Errorf("repeated saves differ:\n%s\nvs\n%s", b1, b2)
	}
	if len(b1) == 0 || b1[len(b1)-1] != '\n' {
		t.Error("canonical form must end with a newline")
	}
}

// --- Dataset description tests ---

func TestWriteDescription_Defaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset_description.json")
	if err := WriteDescription(path, DefaultDescription()); err != nil {
		t.Fatalf("WriteDescription: %v", err)
	}
	rec, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if rec["Name"] != "BIDS dataset" || rec["BIDSVersion"] != "1.9.0" || rec["DatasetType"] != "raw" {
		t.Errorf("unexpected description: %v", rec)
	}
	if _, ok := rec["Authors"]; ok {
		t.Error("Authors should be omitted when empty")
	}
}

func TestWriteDescription_Overrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset_description.json")
	d := DefaultDescription()
	d.Name = "Study X"
	d.Authors = []string{"A. Author"}
	if err := WriteDescription(path, d); err != nil {
		t.Fatalf("WriteDescription: %v", err)
	}
	rec, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if rec["Name"] != "Study X" {
		t.Errorf("Name = %v", rec["Name"])
	}
	authors, ok := rec["Authors"].([]any)
	if !ok || len(authors) != 1 || authors[0] != "A. Author" {
		t.Errorf("Authors = %v", rec["Authors"])
	}
}
