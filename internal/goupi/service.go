package goupi

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// BuildOptions tunes a SiteService.
type BuildOptions struct {
	// Workers bounds how many posts are processed at once. Values below 1
	// mean one post at a time.
	Workers int

	// Force rebuilds every post regardless of timestamps.
	Force bool
}

// SiteService is the orchestration layer that turns a source tree into a
// rendered site. Site configuration and prelude are loaded once per build
// and shared read-only by every post.
type SiteService struct {
	fsmgr     FilesystemManager
	parser    ConfigParser
	converter Converter
	resolver  *TemplateResolver
	logger    Logger
	clock     Clock
	opts      BuildOptions
}

// NewSiteService creates a new SiteService with the provided dependencies.
func NewSiteService(fsmgr FilesystemManager, parser ConfigParser, converter Converter, logger Logger, clock Clock, opts BuildOptions) *SiteService {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &SiteService{
		fsmgr:     fsmgr,
		parser:    parser,
		converter: converter,
		resolver:  NewTemplateResolver(clock),
		logger:    logger,
		clock:     clock,
		opts:      opts,
	}
}

// PostOutcome describes what happened to one post directory.
type PostOutcome struct {
	Post   string // source directory
	Name   string
	Status PostStatus
	Record *PostRecord // nil when Status is PostFailed
	Err    error
}

// BuildReport summarises a completed build.
type BuildReport struct {
	SourceDir string
	OutputDir string

	// Outcomes lists every post directory in enumeration order. Directories
	// that are not posts are left out.
	Outcomes []PostOutcome

	// Records holds the index entries in index order.
	Records []PostRecord
}

// Count returns how many outcomes have the given status.
func (r *BuildReport) Count(status PostStatus) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

// Build renders sourceDir into outputDir.
//
// Site-level problems (output root, site.toml, the Site key, site
// resources, prelude, posts directory, index) abort the build with a
// *SiteError. Post-level problems are logged and the post is left out of
// the index; they never stop the remaining posts.
func (s *SiteService) Build(ctx context.Context, sourceDir, outputDir string) (*BuildReport, error) {
	s.logger.Info("build started", "source", sourceDir, "output", outputDir)

	if err := s.fsmgr.MkdirAll(outputDir); err != nil {
		return nil, siteError(ErrOutputRoot, err)
	}

	site, err := s.loadConfig(filepath.Join(sourceDir, SiteConfigFile))
	if err != nil {
		return nil, siteError(ErrSiteConfig, err)
	}
	for _, key := range requiredSiteKeys {
		if !site.Has(key) {
			return nil, siteError(ErrMissingSiteKey, fmt.Errorf("%q not found in %s", key, SiteConfigFile))
		}
	}

	resources := filepath.Join(sourceDir, ResourcesDir)
	if exists(s.fsmgr, resources) {
		if err := s.fsmgr.CopyTree(resources, filepath.Join(outputDir, ResourcesDir)); err != nil {
			return nil, siteError(ErrSiteResources, err)
		}
	}

	prelude, err := s.fsmgr.ReadFile(filepath.Join(sourceDir, PreludeFile))
	if err != nil {
		return nil, siteError(ErrPrelude, err)
	}

	postDirs, err := s.listPostDirs(filepath.Join(sourceDir, PostsDir))
	if err != nil {
		return nil, siteError(ErrPostsDir, err)
	}

	outcomes := s.processPosts(ctx, postDirs, outputDir, site, string(prelude))
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("build interrupted: %w", err)
	}

	report := &BuildReport{SourceDir: sourceDir, OutputDir: outputDir}
	var records []PostRecord
	for _, o := range outcomes {
		if o == nil {
			continue
		}
		report.Outcomes = append(report.Outcomes, *o)
		if o.Record != nil {
			records = append(records, *o.Record)
		}
	}
	report.Records = SortRecords(records)

	index, err := NewSiteAssembler(site.LookupText("Site")).BuildIndex(report.Records)
	if err != nil {
		return nil, siteError(ErrIndexWrite, err)
	}
	if err := s.fsmgr.WriteFile(filepath.Join(outputDir, IndexFile), []byte(index)); err != nil {
		return nil, siteError(ErrIndexWrite, err)
	}

	s.logger.Info("build finished",
		"built", report.Count(PostBuilt),
		"up_to_date", report.Count(PostUpToDate),
		"failed", report.Count(PostFailed),
	)
	return report, nil
}

// listPostDirs returns the immediate subdirectories of postsDir.
func (s *SiteService) listPostDirs(postsDir string) ([]string, error) {
	entries, err := s.fsmgr.ReadDir(postsDir)
	if err != nil {
		return nil, err
	}

	var dirs []string
	for _, entry := range entries {
		p := filepath.Join(postsDir, entry.Name())
		info, err := s.fsmgr.Stat(p)
		if err != nil || !info.IsDir() {
			continue
		}
		dirs = append(dirs, p)
	}
	return dirs, nil
}

// processPosts runs ProcessPost over postDirs with at most opts.Workers in
// flight. The result slice is indexed like postDirs; entries stay nil for
// directories that are not posts or were never started.
func (s *SiteService) processPosts(ctx context.Context, postDirs []string, outputDir string, site Configuration, prelude string) []*PostOutcome {
	outcomes := make([]*PostOutcome, len(postDirs))

	var g errgroup.Group
	g.SetLimit(s.opts.Workers)
	for i, dir := range postDirs {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			outcomes[i] = s.runPost(dir, outputDir, site, prelude)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

// runPost processes one directory and logs its outcome. It returns nil for
// a directory that is not a post.
func (s *SiteService) runPost(postDir, outputDir string, site Configuration, prelude string) *PostOutcome {
	record, status, err := s.ProcessPost(postDir, outputDir, site, prelude)
	outcome := &PostOutcome{Post: postDir, Name: filepath.Base(postDir), Status: status, Err: err}

	switch {
	case errors.Is(err, ErrPostFilesMissing):
		s.logger.Debug("not a post", "dir", postDir)
		return nil
	case err != nil:
		outcome.Status = PostFailed
		s.logger.Error("post build failed", "post", postDir, "error", err)
	case status == PostUpToDate:
		outcome.Record = &record
		s.logger.Info("post up to date", "post", record.Name)
	default:
		outcome.Record = &record
		s.logger.Info("post built", "post", record.Name)
	}
	return outcome
}
