package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/me/jobrun/pkg/model"
)

// Clean removes every existing output file whose directory is writable and
// reports each removal once it succeeded. In dry-run mode nothing is removed
// and each candidate is reported as "Would remove". It returns the
// paths removed (or that would be removed).
func (r *Runner) Clean(ctx context.Context, jobs []model.Job) ([]string, error) {
	var removed []string
	var freed int64
	for _, job := range jobs {
		for _, out := range job.Outputs {
			if err := ctx.Err(); err != nil {
				return removed, err
			}
			info, err := os.Stat(out)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
			if !dirWritable(filepath.Dir(out)) {
				r.logger.Debug("output directory not writable, keeping file", "job", job.Name, "path", out)
				continue
			}

			if r.dryRun {
				fmt.Fprintf(r.out, "Would remove file from job %s: %s\n", job.Name, out)
			} else {
				if err := r.remove(out); err != nil {
					r.logger.Warn("remove output", "job", job.Name, "path", out, "error", err)
					continue
				}
				fmt.Fprintf(r.out, "Remove file from job %s: %s\n", job.Name, out)
			}
			removed = append(removed, out)
			freed += info.Size()
		}
	}

	r.logger.Info("clean complete",
		"files", len(removed),
		"freed", humanize.IBytes(uint64(freed)),
		"dry_run", r.dryRun,
	)
	return removed, nil
}
