package explorer

// Option configures an [Explorer].
type Option func(*options)

type options struct {
	isStrict bool
}

// WithStrict makes the [Explorer] fail on irregularities that are otherwise only logged:
// requested fields absent from the catalog, plots that cannot be computed.
func WithStrict(enabled bool) Option {
	return func(o *options) {
		o.isStrict = enabled
	}
}

func optionsWithDefaults(opts []Option) options {
	var o options
	for _, apply := range opts {
		apply(&o)
	}

	return o
}
