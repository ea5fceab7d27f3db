package interfaces

// Logger defines a generic key/value logging interface.
// keyvals alternate between string keys and arbitrary values.
type Logger interface {
	Info(msg string, keyvals ...any)
	Warn(msg string, keyvals ...any)
	Error(msg string, keyvals ...any)
	Debug(msg string, keyvals ...any)
	SetLevel(level string)
	// WithContext returns a child logger that adds ctx to every entry.
	WithContext(ctx map[string]any) Logger
}
