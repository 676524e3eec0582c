package timeparse

import (
	"time"

	"github.com/jonboulle/clockwork"
)

var _ TimeService = (*Service)(nil)

// Service binds a Parser to a clock so callers get "now" in the fixed
// zone at call time.
type Service struct {
	parser *Parser
	clock  clockwork.Clock
}

// NewService creates a time service for the given location. A nil clock
// uses the real clock.
func NewService(timezone *time.Location, clock clockwork.Clock) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{
		parser: NewParser(timezone),
		clock:  clock,
	}
}

// Now returns the current instant in the parser's location.
func (s *Service) Now() time.Time {
	return s.clock.Now().In(s.parser.Location())
}

// ParseWithPayload parses reminder-creation text against the current instant.
func (s *Service) ParseWithPayload(text string) (time.Time, string, bool) {
	return s.parser.ParseWithPayload(text, s.Now())
}

// ParseInstantOnly parses reschedule text against the current instant.
func (s *Service) ParseInstantOnly(text string) (time.Time, bool) {
	return s.parser.ParseInstantOnly(text, s.Now())
}

// Format renders t in a shape ParseInstantOnly accepts.
func (s *Service) Format(t time.Time) string {
	return s.parser.Format(t)
}

// Parser returns the underlying parser.
func (s *Service) Parser() *Parser {
	return s.parser
}
