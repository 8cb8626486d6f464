package media

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/desertthunder/auraspace/internal/shared"
)

// ByteRange is an inclusive window [Start, End] into a resource of Total bytes.
//
// 0 <= Start <= End <= Total-1 holds for every value returned by [ParseRange].
type ByteRange struct {
	Start int64
	End   int64
	Total int64
}

// Length returns the number of bytes in the window.
func (r ByteRange) Length() int64 {
	return r.End - r.Start + 1
}

// ContentRange formats the Content-Range header value for a 206 response.
func (r ByteRange) ContentRange() string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, r.Total)
}

// RangeError reports a syntactically valid range that lies outside a resource of Total bytes.
type RangeError struct {
	Header string
	Total  int64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("range %q not satisfiable for %d bytes", e.Header, e.Total)
}

// Unwrap makes a RangeError match [shared.ErrRangeNotSatisfiable].
func (e *RangeError) Unwrap() error {
	return shared.ErrRangeNotSatisfiable
}

// ContentRange formats the Content-Range header value for a 416 response.
func (e *RangeError) ContentRange() string {
	return fmt.Sprintf("bytes */%d", e.Total)
}

// ParseRange interprets a Range header against a resource of total bytes.
//
// It returns (nil, nil) when the whole resource should be served: the header is empty, does not have
// the form "bytes=<start>-[<end>]" or "bytes=-<suffix>", or names more than one range.
func ParseRange(header string, total int64) (*ByteRange, error) {
	spec, ok := strings.CutPrefix(strings.TrimSpace(header), "bytes=")
	if !ok || strings.Contains(spec, ",") {
		return nil, nil
	}

	first, last, ok := strings.Cut(strings.TrimSpace(spec), "-")
	if !ok {
		return nil, nil
	}

	unsatisfiable := &RangeError{Header: header, Total: total}

	if first == "" {
		n, ok := parseOffset(last)
		if !ok {
			return nil, nil
		}
		if n == 0 || total == 0 {
			return nil, unsatisfiable
		}
		return &ByteRange{Start: max(total-n, 0), End: total - 1, Total: total}, nil
	}

	start, ok := parseOffset(first)
	if !ok {
		return nil, nil
	}

	end := total - 1
	if last != "" {
		n, ok := parseOffset(last)
		if !ok {
			return nil, nil
		}
		end = min(n, total-1)
	}

	if start >= total || end < start {
		return nil, unsatisfiable
	}

	return &ByteRange{Start: start, End: end, Total: total}, nil
}

// parseOffset accepts a non-empty run of ASCII digits. Values past int64 saturate to [math.MaxInt64].
func parseOffset(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if errors.Is(err, strconv.ErrRange) {
		return math.MaxInt64, true
	}
	if err != nil {
		return 0, false
	}
	return n, true
}
