package parser //nolint:revive // it's okay for an internal package to use this name

// Option configures a [Parser].
type Option func(*options)

type options struct {
	isNDJSON bool
	fields   []string
}

// WithNDJSON enables newline-delimited JSON data input (one row per line) instead of a single JSON document.
func WithNDJSON(enabled bool) Option {
	return func(o *options) {
		o.isNDJSON = enabled
	}
}

// WithFields sets the field names of rows given as arrays of values.
//
// By default, the fields requested by the configuration are used.
func WithFields(fields []string) Option {
	return func(o *options) {
		o.fields = fields
	}
}

func optionsWithDefaults(opts []Option) options {
	var o options
	for _, apply := range opts {
		apply(&o)
	}

	return o
}
