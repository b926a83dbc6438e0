package search

import (
	"context"
	"net/url"
	"time"

	cerrors "github.com/Aman-CERP/corpusexplorer/internal/errors"
)

// Outcome labels.
const (
	OutcomeOK        = "ok"
	OutcomeUserError = "user_error"
	OutcomeError     = "error"
)

// Observer records one finished search.
type Observer interface {
	ObserveSearch(mode, outcome string, elapsed time.Duration)
}

// Outcome classifies a response error.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case cerrors.IsUserError(err):
		return OutcomeUserError
	default:
		return OutcomeError
	}
}

type instrumented struct {
	mode     string
	next     Searcher
	observer Observer
}

// Instrument reports every search served by s to observer.
func Instrument(mode string, s Searcher, observer Observer) Searcher {
	if observer == nil {
		return s
	}
	return &instrumented{mode: mode, next: s, observer: observer}
}

func (i *instrumented) Search(ctx context.Context, params url.Values) Response {
	started := time.Now()
	resp := i.next.Search(ctx, params)
	i.observer.ObserveSearch(i.mode, Outcome(resp.Err), time.Since(started))
	return resp
}
