package app

import "github.com/rs/zerolog"

// Option configures a Service.
type Option func(*Service)

// WithLogger replaces the global zerolog logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithMaxGames caps how many games are held at once. Zero means no limit.
func WithMaxGames(n int) Option {
	return func(s *Service) { s.maxGames = n }
}

// WithSubscriberBuffer sets the channel buffer of each subscriber.
func WithSubscriberBuffer(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.subBuffer = n
		}
	}
}

// WithRenderer sets the function producing broadcast payloads.
func WithRenderer(renderer func(GameState) []byte) Option {
	return func(s *Service) { s.SetRenderer(renderer) }
}
