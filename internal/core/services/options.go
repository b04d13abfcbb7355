package services

import "time"

// Clock fournit l'instant courant. Injecté pour les tests.
type Clock func() time.Time

type options struct {
	clock Clock
}

type Option func(*options)

// WithClock remplace l'horloge système.
func WithClock(c Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
