package logger

// MultiLogger fans every message out to several backends, in order. The
// CLI uses it to tee the console log into the --log-file.
type MultiLogger struct {
	backends []Logger
}

// NewMultiLogger returns a logger writing to each of backends.
func NewMultiLogger(backends ...Logger) *MultiLogger {
	return &MultiLogger{backends: backends}
}

func (m *MultiLogger) each(fn func(Logger)) {
	for _, b := range m.backends {
		fn(b)
	}
}

// Info logs an informational message on every backend.
func (m *MultiLogger) Info(format string, args ...interface{}) {
	m.each(func(l Logger) { l.Info(format, args...) })
}

// Warning logs a warning message on every backend.
func (m *MultiLogger) Warning(format string, args ...interface{}) {
	m.each(func(l Logger) { l.Warning(format, args...) })
}

// Error logs an error message on every backend.
func (m *MultiLogger) Error(format string, args ...interface{}) {
	m.each(func(l Logger) { l.Error(format, args...) })
}

// Close closes every backend, even after a failure, and returns the
// first error.
func (m *MultiLogger) Close() error {
	var first error
	m.each(func(l Logger) {
		if err := l.Close(); err != nil && first == nil {
			first = err
		}
	})
	return first
}

var _ Logger = (*MultiLogger)(nil)
