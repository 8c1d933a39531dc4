// Package registry maintains the dataset-level TSV tables: the participant
// list and the external→BIDS subject map. Both are sets under their full row
// key; adding an entry loads the existing snapshot, unions, sorts, and
// atomically rewrites the whole file, so repeated runs for the same subject
// never duplicate rows.
package registry

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/carbocation/pfx"
	"github.com/gocarina/gocsv"
)

// ErrCorrupt reports an existing registry file that cannot be parsed:
// missing or unexpected header, or rows with the wrong column count.
var ErrCorrupt = errors.New("malformed registry")

func init() {
	// Reject snapshots whose header does not match the row schema instead
	// of silently reading empty fields.
	gocsv.FailIfUnmatchedStructTags = true
}

// Participant is one row of participants.tsv.
type Participant struct {
	ID string `csv:"participant_id"`
}

// SubjectMapping is one row of bids_subject_map.tsv, pairing the raw
// external (XNAT) label with the sanitized BIDS subject id.
type SubjectMapping struct {
	External string `csv:"xnat_subject"`
	BIDS     string `csv:"bids_subject"`
}

// AddParticipant merges id into the participant list at path, creating the
// file if absent.
func AddParticipant(path, id string) error {
	var rows []*Participant
	if err := loadSnapshot(path, &rows); err != nil {
		return err
	}
	present := false
	for _, r := range rows {
		if r.ID == id {
			present = true
			break
		}
	}
	if !present {
		rows = append(rows, &Participant{ID: id})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return writeSnapshot(path, rows)
}

// AddSubjectMapping merges an external→BIDS pair into the subject map at
// path, creating the file if absent. Deduplication is by the full pair, so
// two external labels sanitizing to the same BIDS id keep separate rows.
func AddSubjectMapping(path, external, bids string) error {
	var rows []*SubjectMapping
	if err := loadSnapshot(path, &rows); err != nil {
		return err
	}
	present := false
	for _, r := range rows {
		if r.External == external && r.BIDS == bids {
			present = true
			break
		}
	}
	if !present {
		rows = append(rows, &SubjectMapping{External: external, BIDS: bids})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].External != rows[j].External {
			return rows[i].External < rows[j].External
		}
		return rows[i].BIDS < rows[j].BIDS
	})
	return writeSnapshot(path, rows)
}

// loadSnapshot reads an existing registry into out. A missing file is an
// empty snapshot; anything unparsable is [ErrCorrupt].
func loadSnapshot(path string, out any) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return pfx.Err(err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = '\t'
	if err := gocsv.UnmarshalCSV(r, out); err != nil {
		if err == gocsv.ErrEmptyCSVFile {
			return fmt.Errorf("%w: %s: missing header", ErrCorrupt, path)
		}
		return fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}
	return nil
}

// writeSnapshot rewrites the registry with a fixed header via a temp file in
// the same directory followed by rename.
func writeSnapshot(path string, rows any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return pfx.Err(err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return pfx.Err(err)
	}

	w := csv.NewWriter(tmp)
	w.Comma = '\t'
	if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(w)); err != nil {
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
