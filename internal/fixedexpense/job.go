package fixedexpense

import (
	"context"
	"time"
)

// Job runs GenerateAll on a schedule.
type Job struct {
	generator *Generator
	loc       *time.Location
	now       func() time.Time
}

// NewJob creates a scheduled generation job evaluating "today" in loc.
func NewJob(g *Generator, loc *time.Location) *Job {
	if loc == nil {
		loc = time.UTC
	}
	return &Job{generator: g, loc: loc, now: time.Now}
}

// Name implements scheduler.Job.
func (j *Job) Name() string {
	return "fixed_expense_generation"
}

// Run implements scheduler.Job.
func (j *Job) Run(ctx context.Context) error {
	_, err := j.generator.GenerateAll(ctx, j.now().In(j.loc))
	return err
}
