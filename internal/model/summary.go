package model

import (
	"time"
)

// RunState is the lifecycle state of one crawl run.
type RunState string

const (
	// RunStateIdle means no run is in progress.
	RunStateIdle RunState = "idle"
	// RunStateSeeding means seeds are being loaded into the frontier.
	RunStateSeeding RunState = "seeding"
	// RunStateRunning means workers are dequeuing and processing URLs.
	RunStateRunning RunState = "running"
	// RunStateDraining means no new URLs are handed out and in-flight
	// work is finishing.
	RunStateDraining RunState = "draining"
	// RunStateDone means the run finished and its Summary is final.
	RunStateDone RunState = "done"
)

// Stage names the pipeline step at which a URL failed.
type Stage string

const (
	// StageSeed is a seed that failed validation.
	StageSeed Stage = "seed"
	// StageFetch is a transport-level fetch failure.
	StageFetch Stage = "fetch"
	// StageStatus is a response with a non-2xx status code.
	StageStatus Stage = "status"
	// StageExtract is a body that could not be parsed as HTML.
	StageExtract Stage = "extract"
	// StageStore is a failed write to the page store.
	StageStore Stage = "store"
)

// Failure records why one URL did not make it into the store.
type Failure struct {
	URL     string `json:"url"`
	Stage   Stage  `json:"stage"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Summary is the result record of a crawl run.
// It is always produced, including for cancelled runs, in which case the
// counts are partial.
type Summary struct {
	// RunID uniquely identifies the run.
	RunID string `json:"run_id"`

	// Seeds are the seed URLs as given by the caller.
	Seeds []string `json:"seeds"`

	// State is the final state, RunStateDone once Wait returns.
	State RunState `json:"state"`

	// Concurrency is the number of workers used.
	Concurrency int `json:"concurrency"`

	// PagesFetched counts URLs for which an HTTP response was received.
	// Each of them is also counted in PagesStored or PagesFailed, except
	// a URL that redirected to a page another worker had already crawled.
	// Once MaxPages is reached nothing more is fetched.
	PagesFetched int `json:"pages_fetched"`

	// PagesFailed counts URLs that failed at any stage.
	PagesFailed int `json:"pages_failed"`

	// PagesStored counts URLs whose text was saved.
	PagesStored int `json:"pages_stored"`

	// URLsDiscovered counts distinct URLs the frontier accepted.
	URLsDiscovered int `json:"urls_discovered"`

	// Cancelled is true when the run stopped because its context ended.
	Cancelled bool `json:"cancelled"`

	// Failures lists every failed URL with its stage and kind.
	Failures []Failure `json:"failures,omitempty"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Duration returns how long the run took.
func (s *Summary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// FailuresByStage counts failures per stage.
func (s *Summary) FailuresByStage() map[Stage]int {
	counts := make(map[Stage]int)
	for _, f := range s.Failures {
		counts[f.Stage]++
	}
	return counts
}
