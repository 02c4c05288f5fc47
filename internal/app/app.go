package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"goupi/internal/config"
	"goupi/internal/database"
	"goupi/internal/fs"
	"goupi/internal/goupi"
	"goupi/internal/markdown"
	"goupi/internal/publish"
	"goupi/internal/siteconfig"
)

// ErrHistoryDisabled is returned by history queries when no journal is configured.
var ErrHistoryDisabled = errors.New("build history is disabled (history.type = \"none\")")

// GoupiApp is the application layer between the CLI and SiteService.
// It constructs all dependencies from config, exposes high-level operations
// that accept raw string paths, and manages the history lifecycle on Close.
type GoupiApp struct {
	cfg       *config.Config
	fsmgr     *fs.OSFilesystemManager
	parser    *siteconfig.Parser
	converter *markdown.Converter
	history   goupi.History
	logger    *slogAdapter
	clock     goupi.Clock
	ids       goupi.IDGenerator
	logFile   *os.File
}

// NewGoupiApp creates a fully wired GoupiApp from the given config. Log
// lines go to stderr and, when cfg.LogDir is set, to the log file.
// The caller must call Close when done.
func NewGoupiApp(cfg *config.Config, stderr io.Writer) (*GoupiApp, error) {
	history, err := database.NewHistoryFromConfig(cfg.History)
	if err != nil {
		return nil, fmt.Errorf("creating history: %w", err)
	}

	logger, logFile, err := newLogger(cfg.LogDir, cfg.LogLevel, stderr)
	if err != nil {
		if history != nil {
			history.Close()
		}
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	return &GoupiApp{
		cfg:       cfg,
		fsmgr:     fs.NewOSFilesystemManager(cfg.Build.Ignore),
		parser:    siteconfig.NewParser(),
		converter: markdown.NewConverter(),
		history:   history,
		logger:    &slogAdapter{l: logger},
		clock:     goupi.RealClock{},
		ids:       goupi.UUIDGenerator{},
		logFile:   logFile,
	}, nil
}

// newService creates a SiteService whose log lines carry runID.
func (a *GoupiApp) newService(runID string, force bool) *goupi.SiteService {
	opts := goupi.BuildOptions{
		Workers: a.cfg.Build.Workers,
		Force:   force || a.cfg.Build.Force,
	}
	return goupi.NewSiteService(a.fsmgr, a.parser, a.converter, a.logger.forRun(runID), a.clock, opts)
}

// Build resolves the source and output paths and builds the site under a
// fresh run id. The run is recorded in the history journal when one is
// configured; a failure to record it is reported only if the build itself
// succeeded.
func (a *GoupiApp) Build(ctx context.Context, rawSource, rawOutput string, force bool) (*goupi.BuildReport, error) {
	source, err := a.fsmgr.ResolveDir(rawSource)
	if err != nil {
		return nil, fmt.Errorf("resolving source directory: %w", err)
	}
	output, err := filepath.Abs(rawOutput)
	if err != nil {
		return nil, fmt.Errorf("resolving output directory: %w", err)
	}

	runID := a.ids.New()
	op, err := StartBuildOperation(a.history, runID, source, output, a.clock.Now())
	if err != nil {
		return nil, err
	}

	report, buildErr := a.newService(runID, force).Build(ctx, source, output)

	if err := op.Finish(report, buildErr, a.clock.Now()); err != nil {
		if buildErr == nil {
			return report, err
		}
		a.logger.forRun(runID).Error("recording build run failed", "error", err)
	}
	return report, buildErr
}

// Publish uploads a built site to the named publisher, or to the first
// configured one when target is empty. Returns the number of files sent.
func (a *GoupiApp) Publish(ctx context.Context, rawOutput, target string) (int, error) {
	output, err := a.fsmgr.ResolveDir(rawOutput)
	if err != nil {
		return 0, fmt.Errorf("resolving output directory: %w", err)
	}

	pcfg, err := a.cfg.Publisher(target)
	if err != nil {
		return 0, err
	}
	pub, err := publish.NewPublisherFromConfig(ctx, pcfg)
	if err != nil {
		return 0, fmt.Errorf("creating publisher: %w", err)
	}

	return a.newService(a.ids.New(), false).Publish(ctx, output, pub)
}

// GetHistory returns the most recent build runs, newest first.
func (a *GoupiApp) GetHistory(limit int) ([]*goupi.BuildRun, error) {
	if a.history == nil {
		return nil, ErrHistoryDisabled
	}
	return a.history.ListBuildRuns(limit)
}

// GetRun returns one build run with its per-post results. ref is either
// the journal number shown by GetHistory ("12" or "#12") or the run id.
func (a *GoupiApp) GetRun(ref string) (*goupi.BuildRun, []*goupi.PostResult, error) {
	if a.history == nil {
		return nil, nil, ErrHistoryDisabled
	}

	var (
		run *goupi.BuildRun
		err error
	)
	if id, convErr := strconv.ParseInt(strings.TrimPrefix(ref, "#"), 10, 64); convErr == nil {
		run, err = a.history.FindBuildRun(id)
	} else {
		run, err = a.history.FindBuildRunByRunID(ref)
	}
	if err != nil {
		return nil, nil, err
	}
	if run == nil {
		return nil, nil, fmt.Errorf("build run %s not found", ref)
	}

	results, err := a.history.ListPostResults(run.ID)
	if err != nil {
		return nil, nil, err
	}
	return run, results, nil
}

// Close releases the history journal and the log file.
func (a *GoupiApp) Close() error {
	var firstErr error

	if a.history != nil {
		if err := a.history.Close(); err != nil {
			firstErr = fmt.Errorf("closing history: %w", err)
		}
	}

	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}
