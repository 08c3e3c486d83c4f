// Package runner answers many queries with bounded concurrency.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/sweetpotato0/nyaya/pkg/logging"
	"github.com/sweetpotato0/nyaya/rag/legal"
)

const defaultConcurrency = 4

// Answerer answers one query. *legal.Engine satisfies it.
type Answerer interface {
	Ask(ctx context.Context, req legal.Request) *legal.Response
}

// Task is one query in a batch.
type Task struct {
	ID      string
	Request legal.Request
}

// Result pairs a task with its response. Err is set only when the task never
// produced a response: cancelled before it started, or a panic in the answerer.
type Result struct {
	TaskID   string
	Response *legal.Response
	Err      error
	Elapsed  time.Duration
}

// Batch bounds how many queries are answered at once. The bound is shared by
// every call on the same Batch.
type Batch struct {
	answerer Answerer
	sem      *semaphore.Weighted
	limit    int
	logger   *slog.Logger
}

// New creates a batch runner. maxConcurrency <= 0 selects the default.
func New(a Answerer, maxConcurrency int) *Batch {
	if maxConcurrency <= 0 {
		maxConcurrency = defaultConcurrency
	}
	return &Batch{
		answerer: a,
		sem:      semaphore.NewWeighted(int64(maxConcurrency)),
		limit:    maxConcurrency,
		logger:   logging.WithComponent("runner"),
	}
}

// Concurrency reports the configured bound.
func (b *Batch) Concurrency() int { return b.limit }

// Ask answers a single request under the shared bound.
func (b *Batch) Ask(ctx context.Context, req legal.Request) (*legal.Response, error) {
	if err := b.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer b.sem.Release(1)
	return b.answer(ctx, req)
}

// Run answers queries for one user. Results keep the input order.
func (b *Batch) Run(ctx context.Context, userID string, queries []string) []Result {
	tasks := make([]Task, len(queries))
	for i, q := range queries {
		tasks[i] = Task{ID: strconv.Itoa(i + 1), Request: legal.Request{Query: q, UserID: userID}}
	}
	return b.RunTasks(ctx, tasks)
}

// RunTasks answers every task. A failing or panicking task never affects the others.
func (b *Batch) RunTasks(ctx context.Context, tasks []Task) []Result {
	results := make([]Result, len(tasks))
	var wg sync.WaitGroup
	for i, task := range tasks {
		results[i].TaskID = task.ID
		if err := ctx.Err(); err != nil {
			results[i].Err = err
			continue
		}
		if err := b.sem.Acquire(ctx, 1); err != nil {
			results[i].Err = err
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer b.sem.Release(1)
			start := time.Now()
			resp, err := b.answer(ctx, task.Request)
			results[i] = Result{TaskID: task.ID, Response: resp, Err: err, Elapsed: time.Since(start)}
		}()
	}
	wg.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	b.logger.Info("batch finished", "tasks", len(tasks), "failed", failed, "concurrency", b.limit)
	return results
}

func (b *Batch) answer(ctx context.Context, req legal.Request) (resp *legal.Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("answerer panic", "panic", r)
			resp, err = nil, fmt.Errorf("panic while answering: %v", r)
		}
	}()
	return b.answerer.Ask(ctx, req), nil
}
