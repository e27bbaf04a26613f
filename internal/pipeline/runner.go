package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"studypile/internal/models"
)

// DefaultTimeout bounds one submission's task end to end. A hung extraction
// or summarization call times out and lands in a terminal error status
// instead of leaving the submission stuck in a non-terminal stage.
const DefaultTimeout = 10 * time.Minute

// statusWriteTimeout covers the terminal error write, which runs on its own
// context because the task's context may already be dead.
const statusWriteTimeout = 10 * time.Second

// StatusWriter records per-submission progress. Writes are best effort for
// the intermediate stages; the terminal write is the only signal a caller
// ever gets about the task's outcome.
type StatusWriter interface {
	Set(ctx context.Context, ownerUID, fileID string, step models.StageStep, message string) error
	SetError(ctx context.Context, ownerUID, fileID, message string) error
}

// ContentFetcher loads the stored bytes of a binary submission.
type ContentFetcher interface {
	Download(ctx context.Context, objectPath string) ([]byte, error)
}

// Extractor turns stored bytes into plain text for one submission kind.
type Extractor interface {
	Extract(ctx context.Context, kind models.FileKind, data []byte) (string, error)
}

// URLReader fetches readable text for a URL submission.
type URLReader interface {
	Read(ctx context.Context, url string) (string, error)
}

// Summarizer produces the summary for extracted text.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// SummaryAppender persists one summary as the next version for the
// submission.
type SummaryAppender interface {
	AppendSummary(ctx context.Context, fileID, text string) (*models.Summary, error)
}

// FileJob processes an uploaded binary file: download, extract, summarize.
type FileJob struct {
	OwnerUID    string
	FileID      string
	StoragePath string
	Kind        models.FileKind
}

// URLJob processes a URL submission: fetch readable text, summarize.
type URLJob struct {
	OwnerUID string
	FileID   string
	URL      string
}

// TextJob processes a raw text submission: summarize directly.
type TextJob struct {
	OwnerUID string
	FileID   string
	Text     string
}

// Deps are the collaborators one Runner shares across all its tasks. Each is
// safe for concurrent use; tasks never coordinate with each other.
type Deps struct {
	Status     StatusWriter
	Content    ContentFetcher
	Extractors Extractor
	Reader     URLReader
	Summarizer Summarizer
	Summaries  SummaryAppender
}

// Config tunes the Runner.
type Config struct {
	// Timeout bounds one task. Zero means DefaultTimeout.
	Timeout time.Duration
	// MaxWorkers caps concurrently running tasks. Zero means no cap.
	// Scheduling never blocks the caller either way; when capped, excess
	// tasks wait inside their own goroutines.
	MaxWorkers int
}

// Runner executes one background task per accepted submission. Schedule
// calls return immediately; the task's outcome is observable only through
// the status tracker and summary store side effects. Failures never
// propagate to the request that scheduled the task.
type Runner struct {
	status     StatusWriter
	content    ContentFetcher
	extractors Extractor
	reader     URLReader
	summarizer Summarizer
	summaries  SummaryAppender

	timeout time.Duration
	sem     chan struct{}
}

func NewRunner(deps Deps, cfg Config) *Runner {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	var sem chan struct{}
	if cfg.MaxWorkers > 0 {
		sem = make(chan struct{}, cfg.MaxWorkers)
	}
	return &Runner{
		status:     deps.Status,
		content:    deps.Content,
		extractors: deps.Extractors,
		reader:     deps.Reader,
		summarizer: deps.Summarizer,
		summaries:  deps.Summaries,
		timeout:    timeout,
		sem:        sem,
	}
}

// ScheduleFile starts the task for an uploaded binary file. Intake has
// already reported uploading(10) and uploaded(25).
func (r *Runner) ScheduleFile(job FileJob) {
	r.spawn(job.OwnerUID, job.FileID, func(ctx context.Context) error {
		return r.processFile(ctx, job)
	})
}

// ScheduleURL starts the task for a URL submission. Intake has already
// reported extracting(30).
func (r *Runner) ScheduleURL(job URLJob) {
	r.spawn(job.OwnerUID, job.FileID, func(ctx context.Context) error {
		return r.processURL(ctx, job)
	})
}

// ScheduleText starts the task for a raw text submission. Intake has
// already reported summarizing(50); the input needs no extraction.
func (r *Runner) ScheduleText(job TextJob) {
	r.spawn(job.OwnerUID, job.FileID, func(ctx context.Context) error {
		return r.finish(ctx, job.OwnerUID, job.FileID, job.Text)
	})
}

// spawn runs one task in its own goroutine. The timeout clock starts once a
// capped runner admits the task, not at schedule time. Any error or panic
// becomes the terminal error status; nothing is ever returned to the caller.
func (r *Runner) spawn(ownerUID, fileID string, fn func(context.Context) error) {
	go func() {
		if r.sem != nil {
			r.sem <- struct{}{}
			defer func() { <-r.sem }()
		}
		defer func() {
			if rec := recover(); rec != nil {
				r.fail(ownerUID, fileID, fmt.Sprintf("panic: %v", rec))
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		debugLog("[pipeline] start %s", fileID)
		if err := fn(ctx); err != nil {
			r.fail(ownerUID, fileID, err.Error())
			return
		}
		debugLog("[pipeline] done %s", fileID)
	}()
}

func (r *Runner) processFile(ctx context.Context, job FileJob) error {
	r.advance(ctx, job.OwnerUID, job.FileID, models.StepExtractingFile, "Extracting text...")
	data, err := r.content.Download(ctx, job.StoragePath)
	if err != nil {
		return fmt.Errorf("download content: %w", err)
	}
	text, err := r.extractors.Extract(ctx, job.Kind, data)
	if err != nil {
		return fmt.Errorf("extract %s: %w", job.Kind, err)
	}
	r.advance(ctx, job.OwnerUID, job.FileID, models.StepSummarizing, "Generating summary...")
	return r.finish(ctx, job.OwnerUID, job.FileID, text)
}

func (r *Runner) processURL(ctx context.Context, job URLJob) error {
	text, err := r.reader.Read(ctx, job.URL)
	if err != nil {
		return fmt.Errorf("read url: %w", err)
	}
	r.advance(ctx, job.OwnerUID, job.FileID, models.StepSummarizing, "Generating summary...")
	return r.finish(ctx, job.OwnerUID, job.FileID, text)
}

// finish is the shared tail of every kind: summarize, persist the next
// summary version, report completion. Extracted text only ever lives in
// this task's memory; the summary row is the sole durable product.
func (r *Runner) finish(ctx context.Context, ownerUID, fileID, text string) error {
	if strings.TrimSpace(text) == "" {
		return errors.New("no text extracted")
	}
	summaryText, err := r.summarizer.Summarize(ctx, text)
	if err != nil {
		return fmt.Errorf("summarize: %w", err)
	}
	summary, err := r.summaries.AppendSummary(ctx, fileID, summaryText)
	if err != nil {
		return fmt.Errorf("store summary: %w", err)
	}
	debugLog("[pipeline] %s stored summary version %d", fileID, summary.Version)
	r.advance(ctx, ownerUID, fileID, models.StepComplete, "Summary ready")
	return nil
}

// advance reports an intermediate stage. Status is progress feedback, not
// the source of truth, so a failed write is logged and the task keeps going.
func (r *Runner) advance(ctx context.Context, ownerUID, fileID string, step models.StageStep, message string) {
	if err := r.status.Set(ctx, ownerUID, fileID, step, message); err != nil {
		log.Printf("pipeline %s: write %s status: %v", fileID, step.Stage, err)
	}
}

// fail records the terminal error status on a fresh context: the task's own
// context may be past its deadline, and the failure must still be observable.
func (r *Runner) fail(ownerUID, fileID, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), statusWriteTimeout)
	defer cancel()
	if err := r.status.SetError(ctx, ownerUID, fileID, message); err != nil {
		log.Printf("pipeline %s: record failure: %v", fileID, err)
	}
	log.Printf("pipeline %s failed: %s", fileID, message)
}
