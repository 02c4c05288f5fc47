package app

import (
	"fmt"
	"time"

	"goupi/internal/goupi"
)

// BuildOperation tracks one build invocation in the history journal.
// Without a journal the run stays in memory with ID=0 and is never
// persisted.
type BuildOperation struct {
	Run     *goupi.BuildRun
	history goupi.History
}

// StartBuildOperation records the start of a build run. history may be nil.
func StartBuildOperation(history goupi.History, runID, sourceDir, outputDir string, startedAt time.Time) (*BuildOperation, error) {
	op := &BuildOperation{
		Run:     goupi.NewBuildRun(runID, sourceDir, outputDir, startedAt),
		history: history,
	}
	if history == nil {
		return op, nil
	}
	if err := history.CreateBuildRun(op.Run); err != nil {
		return nil, fmt.Errorf("persisting build run: %w", err)
	}
	return op, nil
}

// Persisted returns true if the run has been saved to the journal.
func (op *BuildOperation) Persisted() bool {
	return op.Run.ID != 0
}

// Finish stores the outcome of the build. report is nil when the build
// failed at site level.
func (op *BuildOperation) Finish(report *goupi.BuildReport, buildErr error, finishedAt time.Time) error {
	op.Run.Finish(report, buildErr, finishedAt)
	if !op.Persisted() {
		return nil
	}

	if err := op.history.FinishBuildRun(op.Run); err != nil {
		return fmt.Errorf("finishing build run: %w", err)
	}
	if report != nil {
		if err := op.history.RecordPostResults(op.Run.ID, report.PostResults(op.Run.ID)); err != nil {
			return fmt.Errorf("recording post results: %w", err)
		}
	}
	return nil
}
