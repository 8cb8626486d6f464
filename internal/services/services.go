// package services defines interface Prober for checking external track hosts
package services

import (
	"context"
	"time"
)

// Prober checks whether an external track URL currently answers.
type Prober interface {
	Probe(ctx context.Context, url string) (*ProbeResult, error)
}

// ProbeResult describes the answer of a reachable URL.
type ProbeResult struct {
	URL           string
	StatusCode    int
	ContentType   string
	ContentLength int64
	AcceptRanges  bool
	Elapsed       time.Duration
}
