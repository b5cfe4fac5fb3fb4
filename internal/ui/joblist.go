// Package ui renders the server's HTML pages as templ components.
package ui

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/a-h/templ"
)

// JobListItem is one row of the job overview.
type JobListItem struct {
	ID          string
	State       string
	Problem     string
	Target      string
	Best        string
	Fitness     float64
	MeanFitness float64
	Generation  int
	Solved      bool
	StartTime   time.Time
	EndTime     *time.Time
	Error       string
}

// Duration returns how long the job ran, or has been running.
func (j JobListItem) Duration() time.Duration {
	if j.EndTime != nil {
		return j.EndTime.Sub(j.StartTime).Round(time.Millisecond)
	}
	return time.Since(j.StartTime).Round(time.Second)
}

const pageHead = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta http-equiv="refresh" content="5">
<title>genyal jobs</title>
<style>
body { font-family: sans-serif; margin: 2rem; }
table { border-collapse: collapse; width: 100%; }
th, td { border-bottom: 1px solid #ddd; padding: .4rem .6rem; text-align: left; }
td.num { text-align: right; font-variant-numeric: tabular-nums; }
.state-running { color: #1565c0; }
.state-completed { color: #2e7d32; }
.state-failed { color: #c62828; }
.state-cancelled { color: #757575; }
</style>
</head>
<body>
<h1>Jobs</h1>
`

const pageFoot = `<p><a href="/api/v1/problems">problems</a> · <a href="/metrics">metrics</a></p>
</body>
</html>
`

// JobList renders the job overview page.
func JobList(jobs []JobListItem) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, pageHead); err != nil {
			return err
		}

		if len(jobs) == 0 {
			if _, err := io.WriteString(w, "<p>No jobs yet. POST a job to <code>/api/v1/jobs</code>.</p>\n"); err != nil {
				return err
			}
		} else {
			if _, err := io.WriteString(w, "<table>\n<tr><th>ID</th><th>Problem</th><th>State</th><th>Generation</th><th>Best</th><th>Fitness</th><th>Mean</th><th>Duration</th></tr>\n"); err != nil {
				return err
			}
			for _, job := range jobs {
				if err := jobRow(job).Render(ctx, w); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(w, "</table>\n"); err != nil {
				return err
			}
		}

		_, err := io.WriteString(w, pageFoot)
		return err
	})
}

func jobRow(job JobListItem) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		state := job.State
		if job.Solved {
			state += " (solved)"
		}
		problem := job.Problem
		if job.Target != "" {
			problem += " (" + job.Target + ")"
		}
		best := job.Best
		if job.Error != "" {
			best = job.Error
		}
		_, err := fmt.Fprintf(w,
			"<tr><td><a href=\"/api/v1/jobs/%s/status\">%s</a></td><td>%s</td><td class=\"state-%s\">%s</td><td class=\"num\">%d</td><td><code>%s</code></td><td class=\"num\">%s</td><td class=\"num\">%s</td><td class=\"num\">%s</td></tr>\n",
			templ.EscapeString(job.ID),
			templ.EscapeString(shortID(job.ID)),
			templ.EscapeString(problem),
			templ.EscapeString(job.State),
			templ.EscapeString(state),
			job.Generation,
			templ.EscapeString(best),
			formatFloat(job.Fitness),
			formatFloat(job.MeanFitness),
			job.Duration(),
		)
		return err
	})
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}
