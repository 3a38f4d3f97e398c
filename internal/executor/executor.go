// Package executor runs job commands and measures their results.
package executor

import (
	"context"

	"github.com/me/jobrun/pkg/model"
)

// Executor runs a resolved job to completion.
type Executor interface {
	// Run executes the job command and returns its execution stats.
	// A non-zero exit status is reported in Stat.ReturnCode, not as an error.
	Run(ctx context.Context, job model.Job) (model.Stat, error)
}
