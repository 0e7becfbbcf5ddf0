package flathub

import (
	"net/http"
	"time"
)

// Option configures a [Client].
type Option func(*options)

type options struct {
	Timeout    time.Duration
	HTTPClient *http.Client
}

const defaultTimeout = 30 * time.Second

// WithTimeout sets the timeout of every API call.
//
// Defaults to 30s.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		if timeout <= 0 {
			return
		}

		o.Timeout = timeout
	}
}

// WithHTTPClient injects the [http.Client] used to issue requests.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.HTTPClient = client
	}
}

func optionsWithDefaults(opts []Option) options {
	o := options{
		Timeout: defaultTimeout,
	}

	for _, apply := range opts {
		apply(&o)
	}

	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{
			Timeout: o.Timeout,
		}
	}

	return o
}
