package goupi

import (
	"fmt"
	"path/filepath"
	"time"
)

// Source and output layout.
const (
	SiteConfigFile = "site.toml"
	PreludeFile    = "prelude.html"
	PostsDir       = "posts"
	ResourcesDir   = "res"
	PostConfigFile = "post.toml"
	ContentFile    = "content.md"
	IndexFile      = "index.html"
)

var (
	requiredSiteKeys = []string{"Site"}
	requiredPostKeys = []string{"Title", "Description"}
)

// PostRecord is the index entry of one successfully processed post.
type PostRecord struct {
	Name             string // post directory basename
	Title            string
	Description      string
	Timestamp        int64 // seconds since the Unix epoch
	TimestampDisplay string
}

func newPostRecord(name string, post Configuration, stamp time.Time) PostRecord {
	return PostRecord{
		Name:             name,
		Title:            post.LookupText("Title"),
		Description:      post.LookupText("Description"),
		Timestamp:        stamp.Unix(),
		TimestampDisplay: formatDisplay(stamp),
	}
}

// PostStatus is the result of processing one post directory.
type PostStatus string

const (
	PostBuilt    PostStatus = "built"
	PostUpToDate PostStatus = "up-to-date"
	PostFailed   PostStatus = "failed"
)

// ProcessPost builds the post found in postDir into outputDir/<name>.
//
// The post is skipped, and reported as PostUpToDate, when its output tree
// is strictly newer than its source tree; the record then carries the
// output tree's newest time. Otherwise the prelude is resolved against the
// post and site configurations, written to index.html, and the post's res/
// tree is mirrored next to it; the record carries the current time.
//
// Every failure is a *PostError. ErrPostFilesMissing means postDir is not a
// post at all.
func (s *SiteService) ProcessPost(postDir, outputDir string, site Configuration, prelude string) (PostRecord, PostStatus, error) {
	configPath := filepath.Join(postDir, PostConfigFile)
	contentPath := filepath.Join(postDir, ContentFile)

	if !exists(s.fsmgr, configPath) || !exists(s.fsmgr, contentPath) {
		return PostRecord{}, "", postError(postDir, ErrPostFilesMissing, nil)
	}

	s.logger.Info("processing post", "post", postDir)

	post, err := s.loadConfig(configPath)
	if err != nil {
		return PostRecord{}, PostFailed, postError(postDir, ErrConfigLoad, err)
	}

	for _, key := range requiredPostKeys {
		if !post.Has(key) {
			return PostRecord{}, PostFailed, &PostError{Post: postDir, Kind: ErrMissingRequiredKey, Key: key}
		}
	}

	markdown, err := s.fsmgr.ReadFile(contentPath)
	if err != nil {
		return PostRecord{}, PostFailed, postError(postDir, ErrContentRead, err)
	}

	html, err := s.converter.ToHTML(markdown)
	if err != nil {
		return PostRecord{}, PostFailed, postError(postDir, ErrContentRender, err)
	}

	name := filepath.Base(postDir)
	postOutputDir := filepath.Join(outputDir, name)

	if !s.opts.Force {
		if newest, ok := IsUpToDate(s.fsmgr, postDir, postOutputDir); ok {
			s.logger.Debug("output newer than source", "post", name, "output_mtime", newest)
			return newPostRecord(name, post, newest), PostUpToDate, nil
		}
	}

	if err := s.fsmgr.MkdirAll(postOutputDir); err != nil {
		return PostRecord{}, PostFailed, postError(postDir, ErrOutputWrite, err)
	}

	page, err := s.resolver.Resolve(prelude, post, site, html)
	if err != nil {
		return PostRecord{}, PostFailed, postError(postDir, ErrTemplateBuild, err)
	}

	if err := s.fsmgr.WriteFile(filepath.Join(postOutputDir, IndexFile), []byte(page)); err != nil {
		return PostRecord{}, PostFailed, postError(postDir, ErrOutputWrite, err)
	}

	resources := filepath.Join(postDir, ResourcesDir)
	if exists(s.fsmgr, resources) {
		if err := s.fsmgr.CopyTree(resources, filepath.Join(postOutputDir, ResourcesDir)); err != nil {
			return PostRecord{}, PostFailed, postError(postDir, ErrOutputWrite, fmt.Errorf("mirroring resources: %w", err))
		}
	}

	return newPostRecord(name, post, s.clock.Now()), PostBuilt, nil
}

// loadConfig reads and parses a TOML configuration file.
func (s *SiteService) loadConfig(path string) (Configuration, error) {
	text, err := s.fsmgr.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	cfg, err := s.parser.ParseConfig(text)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}
