package lens

import (
	"net/http"
	"strings"
)

// Session holds the rotating identifiers the service uses to correlate a
// sequence of requests from one logical client: an opaque cookie and a
// monotonically increasing sequence counter.
//
// A Session is owned by exactly one Client and is mutated only at defined
// points in the round trip: the encoder reads the current sequence, and the
// client advances the counter and refreshes the cookie strictly after the
// transport call returns. A call cancelled mid-transport therefore leaves
// the session exactly as it was before the call.
type Session struct {
	cookie   string
	sequence uint64
}

// NewSession returns a fresh session with no cookie and sequence 0. The
// first request encoded from it establishes a new server-side session.
func NewSession() *Session {
	return &Session{}
}

// Cookie returns the current session cookie, if the service has issued one.
func (s *Session) Cookie() (string, bool) {
	return s.cookie, s.cookie != ""
}

// Sequence returns the sequence id the next request should carry, without
// consuming it.
func (s *Session) Sequence() uint64 {
	return s.sequence
}

// NextSequence returns the current sequence id and increments the counter.
// Called once per completed round trip, in strict request/response order.
func (s *Session) NextSequence() uint64 {
	n := s.sequence
	s.sequence++
	return n
}

// Refresh inspects response headers and adopts a newly issued session
// cookie. The cookie is left unchanged when the response carried none.
func (s *Session) Refresh(header http.Header) {
	if header == nil {
		return
	}
	for _, sc := range header.Values("Set-Cookie") {
		// Keep only the name=value pair; attributes like Path and Expires
		// are not replayed.
		if i := strings.IndexByte(sc, ';'); i >= 0 {
			sc = sc[:i]
		}
		sc = strings.TrimSpace(sc)
		if sc == "" || !strings.Contains(sc, "=") {
			continue
		}
		s.cookie = sc
		return
	}
}

// Reset discards the cookie so the next request establishes a fresh
// server-side session. Used when a failure suggests the session expired or
// was flagged. The sequence counter keeps increasing; the service tolerates
// gaps but not repeats.
func (s *Session) Reset() {
	s.cookie = ""
}
