package pool

// Logger is the instrumentation sink the pool reports dispatch, settlement and drain events to
// id is the pool name, tags classify the event and details carries structured fields
type Logger interface {
	Info(msg, id string, tags []string, details any)
	Warn(msg, id string, tags []string, details any)
	Error(msg, id string, tags []string, details any)
}

type nopLogger struct{}

func (nopLogger) Info(string, string, []string, any)  {}
func (nopLogger) Warn(string, string, []string, any)  {}
func (nopLogger) Error(string, string, []string, any) {}

// SettleFunc is called after every task settles with its index, its error and a stats snapshot
// It runs on the task's goroutine and must be safe for concurrent use
type SettleFunc func(index int, err error, stats Stats)

// Option is a functional option for configuring a Pool
type Option func(*options)

type options struct {
	stopOnError bool
	logger      Logger
	name        string
	onSettle    SettleFunc
}

// WithStopOnError makes the first task failure stop dispatching and fail the run
func WithStopOnError(stop bool) Option {
	return func(o *options) {
		o.stopOnError = stop
	}
}

// WithLogger sets the instrumentation sink; nil keeps the discarding default
func WithLogger(logger Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithName sets the id reported with every log event
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithOnSettle registers a progress callback
func WithOnSettle(fn SettleFunc) Option {
	return func(o *options) {
		o.onSettle = fn
	}
}
