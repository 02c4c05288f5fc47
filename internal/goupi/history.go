package goupi

import (
	"time"
)

// Build run statuses stored in the history journal.
const (
	RunRunning   = "running"
	RunSucceeded = "success"
	RunFailed    = "error"
)

// BuildRun is one invocation of the build recorded in the history journal.
type BuildRun struct {
	ID         int64  // assigned by History.CreateBuildRun
	RunID      string // unique id, also used to tag log lines
	SourceDir  string
	OutputDir  string
	Status     string
	Error      string
	StartedAt  time.Time
	FinishedAt *time.Time
	Built      int
	UpToDate   int
	Failed     int
}

// PostResult is the journal entry for one post of a build run.
type PostResult struct {
	BuildRunID int64
	Post       string
	Status     PostStatus
	Error      string
	Timestamp  int64 // PostRecord.Timestamp, 0 for failed posts
}

// History stores build runs and their per-post results. It is a journal
// only: nothing in it feeds back into a build.
type History interface {
	// CreateBuildRun persists run and sets its ID.
	CreateBuildRun(run *BuildRun) error

	// FinishBuildRun stores the final status, counts and finish time of run.
	FinishBuildRun(run *BuildRun) error

	RecordPostResults(buildRunID int64, results []PostResult) error

	// ListBuildRuns returns at most limit runs, newest first.
	ListBuildRuns(limit int) ([]*BuildRun, error)

	// FindBuildRun returns nil and no error when id is unknown.
	FindBuildRun(id int64) (*BuildRun, error)

	// FindBuildRunByRunID looks a run up by its RunID. Returns nil and no
	// error when runID is unknown.
	FindBuildRunByRunID(runID string) (*BuildRun, error)

	// ListPostResults returns the results of a run in recording order.
	ListPostResults(buildRunID int64) ([]*PostResult, error)

	Close() error
}

// NewBuildRun starts an in-memory run record.
func NewBuildRun(runID, sourceDir, outputDir string, startedAt time.Time) *BuildRun {
	return &BuildRun{
		RunID:     runID,
		SourceDir: sourceDir,
		OutputDir: outputDir,
		Status:    RunRunning,
		StartedAt: startedAt,
	}
}

// Finish copies the outcome of a build into the run. report is nil when
// buildErr is a site-level failure.
func (r *BuildRun) Finish(report *BuildReport, buildErr error, finishedAt time.Time) {
	r.FinishedAt = &finishedAt
	r.Status = RunSucceeded
	if buildErr != nil {
		r.Status = RunFailed
		r.Error = buildErr.Error()
	}
	if report != nil {
		r.Built = report.Count(PostBuilt)
		r.UpToDate = report.Count(PostUpToDate)
		r.Failed = report.Count(PostFailed)
	}
}

// PostResults converts the report's outcomes into journal entries.
func (r *BuildReport) PostResults(buildRunID int64) []PostResult {
	results := make([]PostResult, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		res := PostResult{BuildRunID: buildRunID, Post: o.Name, Status: o.Status}
		if o.Err != nil {
			res.Error = o.Err.Error()
		}
		if o.Record != nil {
			res.Timestamp = o.Record.Timestamp
		}
		results = append(results, res)
	}
	return results
}
