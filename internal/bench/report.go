package bench

import (
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Verdict lines of the validation report.
const (
	VerdictEqual    = "The vectors are equal"
	VerdictNotEqual = "The vectors are not equal"
)

// Verdict returns the human-readable validation line for r.
func (r *Result) Verdict() string {
	if r.Equal() {
		return VerdictEqual
	}
	return VerdictNotEqual
}

// WriteReport prints both timings in whole milliseconds (truncated) and the
// validation verdict.
func WriteReport(w io.Writer, r *Result) error {
	p := message.NewPrinter(language.English)
	_, err := p.Fprintf(w, "\nThe computational time for a %d element long vector on the CPU: %d ms\n"+
		"The computational time for a %d element long vector on the GPU: %d ms\n"+
		"\nValidation: %s\n",
		r.Length, r.HostElapsed.Milliseconds(),
		r.Length, r.DeviceElapsed.Milliseconds(),
		r.Verdict())
	return err
}
