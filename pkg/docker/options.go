package docker

type clientOptions struct {
	host string
	ping bool
}

type Option func(*clientOptions)

// WithHost connects to host instead of the one the environment points at.
func WithHost(host string) Option {
	return func(o *clientOptions) {
		o.host = host
	}
}

// WithPing checks that the engine answers before the client is returned.
func WithPing() Option {
	return func(o *clientOptions) {
		o.ping = true
	}
}
