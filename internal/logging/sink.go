package logging

import "io"

// FanoutWriter delivers each record to every destination. A destination's
// write error is swallowed individually so one failing destination never
// blocks delivery to the others, and never propagates to the caller:
// logging is best-effort.
type FanoutWriter struct {
	writers []io.Writer
}

// NewFanoutWriter returns a FanoutWriter over the given destinations.
// The destination list is fixed for the life of the writer.
func NewFanoutWriter(writers ...io.Writer) *FanoutWriter {
	return &FanoutWriter{writers: writers}
}

func (f *FanoutWriter) Write(p []byte) (int, error) {
	for _, w := range f.writers {
		_, _ = w.Write(p)
	}
	return len(p), nil
}
