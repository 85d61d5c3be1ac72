package server

import (
	"testing"

	"github.com/aronrissato/CarboPratos/internal/models"
)

func drainEvents(events chan jobEvent) []jobEvent {
	var got []jobEvent
	for len(events) > 0 {
		got = append(got, <-events)
	}
	return got
}

func TestJobTracker_TerminalEventSurvivesFullBuffer(t *testing.T) {
	tracker := newJobTracker()
	job := tracker.create("/plates")
	events := tracker.subscribe(job.ID)

	// Overflow the subscriber buffer with per-image results before the
	// consumer drains anything, then finish the job.
	for i := 0; i < cap(events)+8; i++ {
		tracker.publish(job.ID, jobEvent{Type: "result", Done: i + 1})
	}
	tracker.publish(job.ID, jobEvent{Type: "summary", Summary: &models.BatchSummary{Processed: 72}})

	var sawSummary bool
	for _, event := range drainEvents(events) {
		if event.Type == "summary" {
			sawSummary = true
		}
	}
	if !sawSummary {
		t.Fatal("summary event lost when the subscriber buffer was full")
	}
}

func TestJobTracker_TerminalErrorSurvivesFullBuffer(t *testing.T) {
	tracker := newJobTracker()
	job := tracker.create("/plates")
	events := tracker.subscribe(job.ID)

	for i := 0; i < cap(events); i++ {
		tracker.publish(job.ID, jobEvent{Type: "result", Done: i + 1})
	}
	tracker.publish(job.ID, jobEvent{Type: "error", Error: "directory vanished"})

	var sawError bool
	for _, event := range drainEvents(events) {
		if event.Type == "error" {
			sawError = true
		}
	}
	if !sawError {
		t.Fatal("error event lost when the subscriber buffer was full")
	}
}

func TestJobTracker_IntermediateResultsMayDrop(t *testing.T) {
	tracker := newJobTracker()
	job := tracker.create("/plates")
	events := tracker.subscribe(job.ID)

	for i := 0; i < cap(events)+16; i++ {
		tracker.publish(job.ID, jobEvent{Type: "result", Done: i + 1})
	}

	if got := len(drainEvents(events)); got != cap(events) {
		t.Errorf("buffered %d result events, expected at most %d", got, cap(events))
	}
}

func TestJobTracker_SnapshotAfterComplete(t *testing.T) {
	tracker := newJobTracker()
	job := tracker.create("/plates")

	results := []models.PlateResult{{ImagePath: "/plates/arroz.png", TotalCalories: 520}}
	summary := &models.BatchSummary{Processed: 1, Succeeded: 1, TotalCalories: 520}
	tracker.complete(job.ID, results, summary)

	snap, ok := tracker.snapshot(job.ID)
	if !ok {
		t.Fatal("completed job missing from tracker")
	}
	if snap.Status != jobStatusCompleted || snap.Progress != 100 {
		t.Errorf("snapshot = %s/%v, expected completed/100", snap.Status, snap.Progress)
	}
	if len(snap.Results) != 1 || snap.Summary == nil {
		t.Errorf("snapshot missing results or summary: %+v", snap)
	}
}

func TestJobTracker_SnapshotUnknownJob(t *testing.T) {
	tracker := newJobTracker()
	if _, ok := tracker.snapshot("does-not-exist"); ok {
		t.Fatal("snapshot of unknown job reported ok")
	}
}
