package family

import (
	"io"
	"time"
)

// SetRand overrides the entropy source used for invite code generation.
func (s *Service) SetRand(r io.Reader) { s.rand = r }

// SetClock overrides the service clock.
func (s *Service) SetClock(now func() time.Time) { s.now = now }
