package router

import (
	"io"
	"time"

	"github.com/briandowns/spinner"
)

// Indicator is shown while the guard waits for the session to resolve.
type Indicator interface {
	Start(message string)
	Stop()
}

type nopIndicator struct{}

func (nopIndicator) Start(string) {}
func (nopIndicator) Stop()        {}

// SpinnerIndicator draws a terminal spinner.
type SpinnerIndicator struct {
	s *spinner.Spinner
}

// NewSpinnerIndicator creates a spinner that writes to w.
func NewSpinnerIndicator(w io.Writer) *SpinnerIndicator {
	return &SpinnerIndicator{s: spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))}
}

// Start implements Indicator.
func (i *SpinnerIndicator) Start(message string) {
	i.s.Suffix = " " + message
	i.s.Start()
}

// Stop implements Indicator.
func (i *SpinnerIndicator) Stop() {
	i.s.Stop()
}
