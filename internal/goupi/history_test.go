package goupi_test

import (
	"errors"
	"testing"
	"time"

	"goupi/internal/goupi"
	"goupi/internal/testutil"
)

func TestBuildRun_Finish(t *testing.T) {
	started := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	finished := started.Add(time.Minute)

	t.Run("successful build", func(t *testing.T) {
		run := goupi.NewBuildRun("run-1", "/src", "/out", started)
		if run.Status != goupi.RunRunning {
			t.Errorf("initial Status = %q, want %q", run.Status, goupi.RunRunning)
		}

		report := &goupi.BuildReport{Outcomes: []goupi.PostOutcome{
			{Name: "a", Status: goupi.PostBuilt},
			{Name: "b", Status: goupi.PostUpToDate},
			{Name: "c", Status: goupi.PostUpToDate},
			{Name: "d", Status: goupi.PostFailed},
		}}
		run.Finish(report, nil, finished)

		if run.Status != goupi.RunSucceeded {
			t.Errorf("Status = %q, want %q", run.Status, goupi.RunSucceeded)
		}
		if run.FinishedAt == nil || !run.FinishedAt.Equal(finished) {
			t.Errorf("FinishedAt = %v, want %v", run.FinishedAt, finished)
		}
		if run.Built != 1 || run.UpToDate != 2 || run.Failed != 1 {
			t.Errorf("counts = %d/%d/%d, want 1/2/1", run.Built, run.UpToDate, run.Failed)
		}
	})

	t.Run("site-level failure", func(t *testing.T) {
		run := goupi.NewBuildRun("run-2", "/src", "/out", started)
		run.Finish(nil, errors.New("cannot load prelude"), finished)

		if run.Status != goupi.RunFailed {
			t.Errorf("Status = %q, want %q", run.Status, goupi.RunFailed)
		}
		if run.Error != "cannot load prelude" {
			t.Errorf("Error = %q", run.Error)
		}
	})
}

func TestBuildReport_PostResults(t *testing.T) {
	record := &goupi.PostRecord{Name: "a", Timestamp: 300}
	report := &goupi.BuildReport{Outcomes: []goupi.PostOutcome{
		{Name: "a", Status: goupi.PostBuilt, Record: record},
		{Name: "b", Status: goupi.PostFailed, Err: errors.New("boom")},
	}}

	results := report.PostResults(7)
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	if results[0].BuildRunID != 7 || results[0].Timestamp != 300 || results[0].Error != "" {
		t.Errorf("results[0] = %+v", results[0])
	}
	if results[1].Status != goupi.PostFailed || results[1].Error != "boom" || results[1].Timestamp != 0 {
		t.Errorf("results[1] = %+v", results[1])
	}
}

func TestHistory_RecordsBuild(t *testing.T) {
	s := newTestSite(t)
	s.addPost("hello", "Hello", "Hi")
	s.addRawPost("broken", `Title = "x"`, "x")
	history := testutil.NewTestHistory(t)

	run := goupi.NewBuildRun("run-1", testSource, testOutput, s.clock.Now())
	if err := history.CreateBuildRun(run); err != nil {
		t.Fatalf("CreateBuildRun() error = %v", err)
	}

	report, err := s.service(goupi.BuildOptions{}).Build(t.Context(), testSource, testOutput)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	run.Finish(report, nil, s.clock.Now())
	if err := history.FinishBuildRun(run); err != nil {
		t.Fatalf("FinishBuildRun() error = %v", err)
	}
	if err := history.RecordPostResults(run.ID, report.PostResults(run.ID)); err != nil {
		t.Fatalf("RecordPostResults() error = %v", err)
	}

	results, err := history.ListPostResults(run.ID)
	if err != nil {
		t.Fatalf("ListPostResults() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	if results[0].Post != "broken" || results[0].Status != goupi.PostFailed {
		t.Errorf("results[0] = %+v, want failed broken post", results[0])
	}
	if results[1].Post != "hello" || results[1].Status != goupi.PostBuilt {
		t.Errorf("results[1] = %+v, want built hello post", results[1])
	}

	stored, err := history.FindBuildRun(run.ID)
	if err != nil {
		t.Fatalf("FindBuildRun() error = %v", err)
	}
	if stored.Built != 1 || stored.Failed != 1 {
		t.Errorf("stored counts = %d built, %d failed; want 1, 1", stored.Built, stored.Failed)
	}
}
