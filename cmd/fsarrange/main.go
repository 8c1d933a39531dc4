// Command fsarrange copies a precomputed FreeSurfer subject directory into
// a FreeSurfer subjects tree under the canonical sub-X[/ses-Y] name, so
// downstream tools find it by BIDS entity instead of the scanner export name.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/neurostage/bidsify/internal/config"
	"github.com/neurostage/bidsify/internal/display"
	"github.com/neurostage/bidsify/internal/logging"
	"github.com/neurostage/bidsify/internal/naming"
	"github.com/neurostage/bidsify/internal/pipeline"
)

var version = "1.0.0-dev"

func main() {
	os.Exit(run())
}

func run() int {
	var (
		fsDir       string
		subjectsDir string
		subject     string
		session     string
		verbose     bool
	)

	fs := flag.NewFlagSet("fsarrange", flag.ContinueOnError)
	fs.StringVar(&fsDir, "fs-dir", "", "Precomputed FreeSurfer subject directory")
	fs.StringVar(&subjectsDir, "subjects-dir", "", "Destination FreeSurfer subjects root")
	fs.StringVar(&subject, "subject", "", "External subject label (sanitized for BIDS)")
	fs.StringVar(&session, "session", "", "External session label (optional)")
	fs.BoolVar(&verbose, "verbose", false, "Verbose output")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "fsarrange v%s: place a FreeSurfer subject under its BIDS name\n\n", version)
		fs.PrintDefaults()
	}
	if err := fs.Parse(os.Args[1:]); err != nil {
		return 1
	}
	if fsDir == "" || subjectsDir == "" || subject == "" {
		fmt.Fprintln(os.Stderr, "fsarrange: --fs-dir, --subjects-dir, and --subject are required")
		return 1
	}

	cfg := config.DefaultConfig()
	cfg.Verbose = verbose
	log, err := logging.NewLogger(&cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fsarrange: %v\n", err)
		return 1
	}
	defer log.Close()

	rel := "sub-" + naming.SanitizeLabel(subject)
	if session != "" {
		rel = filepath.Join(rel, "ses-"+naming.SanitizeLabel(session))
	}
	dst := filepath.Join(subjectsDir, rel)

	fi, err := os.Stat(fsDir)
	if err != nil || !fi.IsDir() {
		log.Error("Not a directory: %s", fsDir)
		return 1
	}

	files, bytes, err := pipeline.CopyTree(fsDir, dst)
	if err != nil {
		log.Error("%v", err)
		return 1
	}
	log.Success("Copied %s -> %s (%d files, %s)",
		fsDir, dst, files, display.FormatBytes(bytes))
	return 0
}
