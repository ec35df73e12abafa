package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"trainingload/internal/activity"
	"trainingload/internal/analysis"
	"trainingload/internal/export"
	"trainingload/internal/files"
	"trainingload/internal/queue"
	"trainingload/internal/store"
)

// WorkoutStore is the persistence the processor needs
type WorkoutStore interface {
	ZoneRepository
	WorkoutByJobID(ctx context.Context, jobID string) (*store.Workout, error)
	SaveResult(ctx context.Context, jobID string, result analysis.Result) error
	MarkFailed(ctx context.Context, jobID string, cause error) error
}

// JobQueue is the queue the worker pulls from and reports to
type JobQueue interface {
	Dequeue(ctx context.Context, timeout time.Duration) (queue.Job, error)
	SetState(ctx context.Context, id string, state queue.State, result string) error
	Requeue(ctx context.Context, id string) error
}

// Processor analyzes one queued workout end to end
type Processor struct {
	Store       WorkoutStore
	Files       files.Source
	Queue       JobQueue
	Window      time.Duration // rolling window, DefaultWindow when zero
	MaxFileSize int64         // files.DefaultMaxSize when zero
	ExportDir   string        // when set, samples are written as <job id>.parquet
}

// Process loads the job's workout and file, analyzes it in the job's mode and
// stores the result. On failure the workout and the job are marked failed and
// the error is returned. A job interrupted by ctx being cancelled is put back
// on the queue instead, with its workout left pending.
func (p *Processor) Process(ctx context.Context, job queue.Job) (analysis.Result, error) {
	result, err := p.process(ctx, job)

	// Bookkeeping has to land even when ctx is already cancelled.
	bg := context.WithoutCancel(ctx)
	if err != nil {
		if ctx.Err() != nil {
			p.requeue(bg, job, err)
		} else {
			p.fail(bg, job, err)
		}
		return nil, err
	}

	payload, err := json.Marshal(result)
	if err != nil {
		payload = []byte(`{}`)
	}
	if err := p.Queue.SetState(bg, job.ID, queue.StateCompleted, string(payload)); err != nil {
		log.Printf("job %s: updating queue state: %v", job.ID, err)
	}
	return result, nil
}

func (p *Processor) process(ctx context.Context, job queue.Job) (analysis.Result, error) {
	workout, err := p.Store.WorkoutByJobID(ctx, job.ID)
	if err != nil {
		return nil, fmt.Errorf("loading workout: %w", err)
	}

	mode := job.Mode
	if mode == "" {
		mode = analysis.Mode(workout.Mode)
	}
	fileName := job.FileName
	if fileName == "" {
		fileName = workout.FileName
	}

	data, err := files.ReadAll(ctx, p.Files, fileName, p.MaxFileSize)
	if err != nil {
		return nil, fmt.Errorf("reading activity file: %w", err)
	}

	doc, err := activity.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", fileName, err)
	}

	n := analysis.Normalize(doc)
	log.Printf("job %s: %s activity, %d samples, mode %s", job.ID, n.RawSport, len(n.Samples), mode)

	result, err := Analyze(ctx, p.Store, workout.UserID, mode, n, p.Window)
	if err != nil {
		return nil, err
	}

	if err := p.Store.SaveResult(ctx, job.ID, result); err != nil {
		return nil, fmt.Errorf("saving result: %w", err)
	}

	if p.ExportDir != "" {
		path := filepath.Join(p.ExportDir, job.ID+".parquet")
		if err := export.WriteSamplesParquet(path, n.Samples, analysis.Boundaries(result)); err != nil {
			log.Printf("job %s: exporting samples: %v", job.ID, err)
		}
	}

	switch r := result.(type) {
	case *analysis.ZoneScoringResult:
		log.Printf("job %s: TSS %d from %s", job.ID, r.TSS, r.MetricUsed)
	case *analysis.RollingResult:
		log.Printf("job %s: thresholds derived for %d metrics", job.ID, len(r.Thresholds))
	}
	return result, nil
}

func (p *Processor) fail(ctx context.Context, job queue.Job, cause error) {
	log.Printf("job %s: failed: %v", job.ID, cause)

	if err := p.Store.MarkFailed(ctx, job.ID, cause); err != nil && !errors.Is(err, store.ErrWorkoutNotFound) {
		log.Printf("job %s: marking workout failed: %v", job.ID, err)
	}
	if err := p.Queue.SetState(ctx, job.ID, queue.StateFailed, cause.Error()); err != nil {
		log.Printf("job %s: updating queue state: %v", job.ID, err)
	}
}

func (p *Processor) requeue(ctx context.Context, job queue.Job, cause error) {
	log.Printf("job %s: interrupted, requeueing: %v", job.ID, cause)

	if err := p.Queue.Requeue(ctx, job.ID); err != nil {
		log.Printf("job %s: requeueing: %v", job.ID, err)
	}
}
