// package tasks implements library maintenance operations.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/desertthunder/auraspace/internal/media"
	"github.com/desertthunder/auraspace/internal/models"
	"github.com/desertthunder/auraspace/internal/services"
	"golang.org/x/time/rate"
)

// TrackLister lists non-deleted tracks.
type TrackLister interface {
	List(criteria map[string]any) ([]*models.Track, error)
}

// LocationResolver classifies a track's stored location. [media.Resolver] implements it.
type LocationResolver interface {
	Resolve(track *models.Track) (media.Location, error)
}

// Status is the outcome of checking one track.
type Status int

const (
	StatusOK Status = iota
	StatusMissing
	StatusUnreachable
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusMissing:
		return "missing"
	case StatusUnreachable:
		return "unreachable"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText renders the status by name in JSON output.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// TrackCheck is the result for one track.
type TrackCheck struct {
	TrackID  string `json:"track_id"`
	Title    string `json:"title"`
	Location string `json:"track_url"`
	Kind     string `json:"kind"`
	Status   Status `json:"status"`
	Detail   string `json:"detail,omitempty"`
}

// AuditOpts contains configuration for [Auditor.Run].
type AuditOpts struct {
	NumWorkers int     // Concurrent workers (default: 4, max: 16)
	RateLimit  float64 // External probes per second (default: 5)
}

// AuditResult summarises an audit. Checks keep the order of the track listing.
type AuditResult struct {
	Total       int          `json:"total"`
	Healthy     int          `json:"healthy"`
	Missing     int          `json:"missing"`
	Unreachable int          `json:"unreachable"`
	Failed      int          `json:"failed"`
	Checks      []TrackCheck `json:"checks"`
}

// Problems returns the checks that did not pass.
func (r *AuditResult) Problems() []TrackCheck {
	var out []TrackCheck
	for _, c := range r.Checks {
		if c.Status != StatusOK {
			out = append(out, c)
		}
	}
	return out
}

type auditJob struct {
	index int
	track *models.Track
}

type auditOutcome struct {
	index int
	check TrackCheck
}

// Auditor verifies that registered tracks are still servable.
type Auditor struct {
	tracks   TrackLister
	resolver LocationResolver
	prober   services.Prober
}

// NewAuditor creates an Auditor. A nil prober skips external tracks, reporting them healthy.
func NewAuditor(tracks TrackLister, resolver LocationResolver, prober services.Prober) *Auditor {
	return &Auditor{tracks: tracks, resolver: resolver, prober: prober}
}

// Run checks every non-deleted track using a worker pool.
//
// Cancelling ctx stops outstanding checks; the partial result is returned with ctx's error.
func (a *Auditor) Run(ctx context.Context, prog chan<- ProgressUpdate, opts AuditOpts) (*AuditResult, error) {
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 16 {
		opts.NumWorkers = 16
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	tracks, err := a.tracks.List(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracks: %w", err)
	}
	sendProgress(prog, listTracksUpdate(len(tracks)))

	result := &AuditResult{Total: len(tracks), Checks: make([]TrackCheck, len(tracks))}
	if len(tracks) == 0 {
		return result, nil
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan auditJob, len(tracks))
	outcomes := make(chan auditOutcome, len(tracks))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go a.worker(ctx, &wg, limiter, jobs, outcomes)
	}

	for i, track := range tracks {
		jobs <- auditJob{index: i, track: track}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	completed := 0
	for out := range outcomes {
		completed++
		result.Checks[out.index] = out.check

		switch out.check.Status {
		case StatusOK:
			result.Healthy++
		case StatusMissing:
			result.Missing++
		case StatusUnreachable:
			result.Unreachable++
		default:
			result.Failed++
		}
		sendProgress(prog, trackCheckedUpdate(completed, len(tracks), out.check))
	}

	if err := ctx.Err(); err != nil {
		result.Checks = completedChecks(result.Checks)
		return result, err
	}
	return result, nil
}

// worker checks tracks from jobs until the channel closes or ctx is done.
func (a *Auditor) worker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	jobs <-chan auditJob,
	outcomes chan<- auditOutcome,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		outcomes <- auditOutcome{index: job.index, check: a.check(ctx, limiter, job.track)}
	}
}

func (a *Auditor) check(ctx context.Context, limiter *rate.Limiter, track *models.Track) TrackCheck {
	check := TrackCheck{
		TrackID:  track.ID(),
		Title:    track.Title(),
		Location: track.TrackURL(),
	}

	loc, err := a.resolver.Resolve(track)
	if err != nil {
		check.Status = StatusError
		check.Detail = err.Error()
		return check
	}
	check.Kind = loc.Kind.String()

	switch loc.Kind {
	case media.Local:
		check.Status = StatusOK
	case media.Missing:
		check.Status = StatusMissing
		check.Detail = "no file under media root"
	case media.External:
		if a.prober == nil {
			check.Status = StatusOK
			check.Detail = "not probed"
			return check
		}
		if err := limiter.Wait(ctx); err != nil {
			check.Status = StatusError
			check.Detail = err.Error()
			return check
		}
		res, err := a.prober.Probe(ctx, loc.URL)
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			check.Status = StatusError
			check.Detail = err.Error()
		case err != nil:
			check.Status = StatusUnreachable
			check.Detail = err.Error()
		default:
			check.Status = StatusOK
			check.Detail = fmt.Sprintf("HTTP %d", res.StatusCode)
		}
	}

	return check
}

// completedChecks drops the zero-valued slots left by checks that never ran.
func completedChecks(checks []TrackCheck) []TrackCheck {
	out := checks[:0]
	for _, c := range checks {
		if c.TrackID != "" {
			out = append(out, c)
		}
	}
	return out
}
