// Package scan turns barcode decode events into single asset lookups.
package scan

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"github.com/topsell/tams/core/asset"
	"github.com/topsell/tams/core/verification"
)

const msgLookupFailed = "Error searching for asset."

type Status string

const (
	StatusFound    Status = "found"
	StatusNotFound Status = "not_found"
	StatusFailed   Status = "failed"
)

// Outcome is the single result of a handled decode event.
type Outcome struct {
	Status       Status
	Code         string
	Asset        asset.Asset
	Verification verification.Result
	Message      string
	Err          error
}

// Found reports whether the caller should navigate to the asset detail.
func (o Outcome) Found() bool { return o.Status == StatusFound }

// AssetFinder performs the point lookup by exact code. A missing asset is reported as asset.ErrNotFound.
type AssetFinder interface {
	GetByCode(ctx context.Context, code string) (asset.Asset, error)
}

// Scanner drops decode events while a lookup is in flight and after a failed lookup until Retry.
// After a successful lookup it stays stopped; Retry re-arms it.
type Scanner struct {
	finder       AssetFinder
	verification func() verification.Result

	mu         sync.Mutex
	processing bool
	lastError  string
}

// New returns an armed Scanner. current provides the verification result attached to found assets.
func New(finder AssetFinder, current func() verification.Result) *Scanner {
	if current == nil {
		current = func() verification.Result { return verification.Result{} }
	}
	return &Scanner{finder: finder, verification: current}
}

// HandleDecode looks up code unless the scanner is busy or stopped, in which case the event
// is ignored and handled is false.
func (s *Scanner) HandleDecode(ctx context.Context, code string) (out Outcome, handled bool) {
	s.mu.Lock()
	if s.processing {
		s.mu.Unlock()
		return Outcome{}, false
	}
	s.processing = true
	s.lastError = ""
	s.mu.Unlock()

	out = Outcome{Code: code}
	a, err := s.finder.GetByCode(ctx, code)
	switch {
	case err == nil:
		out.Status = StatusFound
		out.Asset = a
		out.Verification = s.verification()
		return out, true
	case errors.Cause(err) == asset.ErrNotFound:
		out.Status = StatusNotFound
		out.Message = fmt.Sprintf("Asset with code %q not found.", code)
	default:
		out.Status = StatusFailed
		out.Message = msgLookupFailed
		out.Err = err
	}

	s.mu.Lock()
	s.lastError = out.Message
	s.mu.Unlock()
	return out, true
}

// Retry clears the last error and accepts decode events again.
func (s *Scanner) Retry() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processing = false
	s.lastError = ""
}

// Processing reports whether decode events are currently ignored.
func (s *Scanner) Processing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processing
}

// LastError is the message of the last failed lookup, empty when none.
func (s *Scanner) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}
