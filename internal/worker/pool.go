// Package worker runs grid tile exports in parallel.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/MeKo-Tech/mapgrid/internal/tile"
)

// Exporter writes the grid of one tile. export.TileExporter implements it.
type Exporter interface {
	Export(ctx context.Context, coords tile.Coords, force bool) (Output, error)
}

// Output describes one exported tile.
type Output struct {
	Path     string
	Features int
	// Skipped is set when the file existed and force was not requested.
	Skipped bool
}

// Task represents a single tile export.
type Task struct {
	Coords tile.Coords
	Force  bool
}

// Result represents the outcome of a task.
type Result struct {
	Task    Task
	Output  Output
	Err     error
	Elapsed time.Duration
}

// ProgressFunc is called after each task completes.
type ProgressFunc func(completed, total, failed int)

// Config configures the worker pool.
type Config struct {
	Workers    int
	Exporter   Exporter
	OnProgress ProgressFunc
}

// Pool runs export tasks on a fixed number of goroutines.
type Pool struct {
	workers    int
	exporter   Exporter
	onProgress ProgressFunc
}

// New creates a new worker pool.
func New(cfg Config) *Pool {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	return &Pool{
		workers:    workers,
		exporter:   cfg.Exporter,
		onProgress: cfg.OnProgress,
	}
}

// Tasks builds one task per tile.
func Tasks(tiles []tile.Coords, force bool) []Task {
	tasks := make([]Task, len(tiles))
	for i, c := range tiles {
		tasks[i] = Task{Coords: c, Force: force}
	}
	return tasks
}

// Run executes all tasks and returns one result per task, in completion order.
// It blocks until every task finished. Tasks not yet started when ctx is
// cancelled report ctx.Err().
func (p *Pool) Run(ctx context.Context, tasks []Task) []Result {
	if len(tasks) == 0 {
		return nil
	}

	taskCh := make(chan Task)
	resultCh := make(chan Result, len(tasks))

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.worker(ctx, taskCh, resultCh)
		}()
	}

	go func() {
		defer close(taskCh)
		for _, task := range tasks {
			taskCh <- task
		}
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	results := make([]Result, 0, len(tasks))
	failed := 0
	for result := range resultCh {
		results = append(results, result)
		if result.Err != nil {
			failed++
		}
		if p.onProgress != nil {
			p.onProgress(len(results), len(tasks), failed)
		}
	}

	return results
}

// worker exports tiles until the task channel closes.
func (p *Pool) worker(ctx context.Context, tasks <-chan Task, results chan<- Result) {
	for task := range tasks {
		if err := ctx.Err(); err != nil {
			results <- Result{Task: task, Err: err}
			continue
		}

		start := time.Now()
		out, err := p.exporter.Export(ctx, task.Coords, task.Force)
		results <- Result{
			Task:    task,
			Output:  out,
			Err:     err,
			Elapsed: time.Since(start),
		}
	}
}
