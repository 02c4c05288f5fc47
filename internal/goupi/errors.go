package goupi

import (
	"errors"
	"fmt"
)

// Post-level error kinds. A *PostError matches its kind with errors.Is.
var (
	ErrPostFilesMissing   = errors.New("post files missing")
	ErrConfigLoad         = errors.New("cannot load post configuration")
	ErrMissingRequiredKey = errors.New("missing required key")
	ErrContentRead        = errors.New("cannot read post content")
	ErrContentRender      = errors.New("cannot render post content")
	ErrTemplateBuild      = errors.New("cannot build template")
	ErrOutputWrite        = errors.New("cannot write post output")
)

// Site-level error kinds. Any of them aborts the whole build.
var (
	ErrOutputRoot     = errors.New("cannot create output directory")
	ErrSiteConfig     = errors.New("cannot load site configuration")
	ErrMissingSiteKey = errors.New("missing required key in site configuration")
	ErrPrelude        = errors.New("cannot load prelude")
	ErrPostsDir       = errors.New("cannot load posts")
	ErrSiteResources  = errors.New("cannot mirror site resources")
	ErrIndexWrite     = errors.New("cannot write post index")
)

// ErrUnresolvedTag is matched by *UnresolvedTagError.
var ErrUnresolvedTag = errors.New("unresolved tag")

// PostError is returned when a single post cannot be built.
type PostError struct {
	Post string // post source directory
	Kind error  // one of the post-level kinds above
	Key  string // set for ErrMissingRequiredKey
	Err  error  // underlying cause, may be nil
}

func (e *PostError) Error() string {
	msg := fmt.Sprintf("post %s: %v", e.Post, e.Kind)
	if e.Key != "" {
		msg += fmt.Sprintf(" %q", e.Key)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PostError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// SiteError is returned when the build as a whole cannot proceed.
type SiteError struct {
	Kind error
	Err  error
}

func (e *SiteError) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%v: %v", e.Kind, e.Err)
}

func (e *SiteError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// UnresolvedTagError names a placeholder found in neither configuration.
type UnresolvedTagError struct {
	Tag string
}

func (e *UnresolvedTagError) Error() string {
	return fmt.Sprintf("tag %q not found in post.toml or site.toml", e.Tag)
}

func (e *UnresolvedTagError) Is(target error) bool {
	return target == ErrUnresolvedTag
}

func postError(post string, kind error, err error) *PostError {
	return &PostError{Post: post, Kind: kind, Err: err}
}

func siteError(kind error, err error) *SiteError {
	return &SiteError{Kind: kind, Err: err}
}
