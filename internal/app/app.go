// Package app wires discovery, extraction and enforcement into the three
// commands the CLI exposes.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/gobwas/glob"

	"constbox/internal/boxes"
	"constbox/internal/config"
	"constbox/internal/errors"
	"constbox/internal/extract"
	"constbox/internal/observability"
	"constbox/internal/watcher"
)

type App struct {
	cfg       config.Config
	root      string
	pipeline  *extract.Pipeline
	discovery *extract.Discovery
}

func New(cfg config.Config, root string) (*App, error) {
	deny := extract.DefaultDenySet()
	if cfg.BuiltinsFile != "" {
		var err error
		deny, err = extract.LoadDenySet(cfg.BuiltinsFile)
		if err != nil {
			return nil, err
		}
	}

	discovery, err := extract.NewDiscovery(cfg.SourceGlob, cfg.BoxFile, cfg.Exclude.Dirs, cfg.Exclude.Files)
	if err != nil {
		return nil, err
	}

	return &App{
		cfg:       cfg,
		root:      root,
		pipeline:  extract.NewPipeline(deny),
		discovery: discovery,
	}, nil
}

// Scan discovers and extracts every source file under the working tree into
// a fresh corpus. Each call is a complete scan; nothing is cached between
// calls.
func (a *App) Scan() (*extract.Corpus, error) {
	start := time.Now()
	files, err := a.discovery.SourceFiles(a.root)
	if err != nil {
		return nil, err
	}
	corpus, err := a.pipeline.Run(files)
	if err != nil {
		return nil, err
	}
	observability.ScanDuration.Observe(time.Since(start).Seconds())
	slog.Debug("scan complete",
		"files", len(files),
		"definitions", len(corpus.Definitions),
		"references", len(corpus.References))
	return corpus, nil
}

// CompileIgnores compiles user-supplied ignore globs; a pattern that fails
// to compile is fatal before any enforcement runs.
func CompileIgnores(patterns []string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, errors.AddContext(
				errors.Wrap(err, errors.CodeValidation, "invalid ignore pattern"),
				errors.CtxPattern, p)
		}
		out = append(out, g)
	}
	return out, nil
}

// Init derives a minimal box for boxPath from the current corpus and
// overwrites the box document with it.
func (a *App) Init(boxPath string, ignorePatterns []string) error {
	ignores, err := CompileIgnores(ignorePatterns)
	if err != nil {
		return err
	}
	corpus, err := a.Scan()
	if err != nil {
		return err
	}

	docPath := a.normalizeBoxPath(boxPath)
	box, err := boxes.Generate(docPath, corpus, ignores)
	if err != nil {
		return err
	}
	data, err := box.Serialize()
	if err != nil {
		return err
	}

	slog.Info("updating box", "path", docPath)
	if err := os.Remove(docPath); err != nil && !os.IsNotExist(err) {
		return errors.AddContext(
			errors.Wrap(err, errors.CodeIO, "removing existing box document"),
			errors.CtxBox, docPath)
	}
	if err := os.WriteFile(docPath, data, 0o644); err != nil {
		return errors.AddContext(
			errors.Wrap(err, errors.CodeIO, "writing box document"),
			errors.CtxBox, docPath)
	}
	return nil
}

// Inspect prints every violation a zero-allowlist box at boxPath would
// produce, followed by the minimal box derived from them. Read-only.
func (a *App) Inspect(w io.Writer, boxPath string, ignorePatterns []string) error {
	ignores, err := CompileIgnores(ignorePatterns)
	if err != nil {
		return err
	}
	corpus, err := a.Scan()
	if err != nil {
		return err
	}

	docPath := a.normalizeBoxPath(boxPath)
	violations := boxes.Enforce(docPath, boxes.Empty(), corpus, ignores)
	for _, v := range violations {
		fmt.Fprintln(w, v)
	}

	box, err := boxes.Derive(violations)
	if err != nil {
		return err
	}
	data, err := box.Serialize()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s", data)
	return nil
}

// Verify enforces every box document under the working tree against one
// shared corpus. All boxes are evaluated even after the first failure; the
// returned flag reports whether any box had at least one violation.
func (a *App) Verify(w io.Writer, ignorePatterns []string) (bool, error) {
	ignores, err := CompileIgnores(ignorePatterns)
	if err != nil {
		return false, err
	}
	corpus, err := a.Scan()
	if err != nil {
		return false, err
	}
	return a.verifyCorpus(w, corpus, ignores)
}

func (a *App) verifyCorpus(w io.Writer, corpus *extract.Corpus, ignores []glob.Glob) (bool, error) {
	docs, err := a.discovery.BoxDocuments(a.root)
	if err != nil {
		return false, err
	}

	hasViolations := false
	for _, docPath := range docs {
		box, err := boxes.Load(docPath)
		if err != nil {
			return hasViolations, err
		}
		fmt.Fprintf(w, "verifying box %s\n", docPath)
		violations := boxes.Enforce(docPath, box, corpus, ignores)
		for _, v := range violations {
			fmt.Fprintln(w, v)
			observability.ViolationsTotal.WithLabelValues(directionLabel(v.Direction)).Inc()
		}
		if len(violations) > 0 {
			hasViolations = true
		}
	}
	return hasViolations, nil
}

// VerifyWatch runs Verify once, then again after each debounced filesystem
// change, until ctx is cancelled. Violations never terminate the session;
// the point is to keep reporting as the tree changes.
func (a *App) VerifyWatch(ctx context.Context, w io.Writer, ignorePatterns []string, metricsAddr string) error {
	ignores, err := CompileIgnores(ignorePatterns)
	if err != nil {
		return err
	}

	if metricsAddr != "" {
		srv := observability.NewServer(metricsAddr)
		srv.Start()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Stop(stopCtx); err != nil {
				slog.Warn("metrics server shutdown failed", "error", err)
			}
		}()
	}

	pass := func() {
		corpus, err := a.Scan()
		if err != nil {
			slog.Error("scan failed", "error", err)
			return
		}
		if _, err := a.verifyCorpus(w, corpus, ignores); err != nil {
			slog.Error("verification failed", "error", err)
		}
	}
	pass()

	fw, err := watcher.New(a.cfg.Watch.Debounce, a.cfg.Exclude.Dirs, a.cfg.Exclude.Files, pass)
	if err != nil {
		return err
	}
	defer fw.Close()
	if err := fw.Watch(a.root); err != nil {
		return err
	}

	<-ctx.Done()
	return nil
}

// normalizeBoxPath accepts either a box directory or a box document path
// and returns the slash-separated document path.
func (a *App) normalizeBoxPath(p string) string {
	p = filepath.ToSlash(filepath.Clean(p))
	if path.Base(p) == a.cfg.BoxFile {
		return p
	}
	return path.Join(p, a.cfg.BoxFile)
}

func directionLabel(d boxes.Direction) string {
	if d == boxes.NonExportedReference {
		return "non_exported"
	}
	return "non_imported"
}
