// Package session threads the reservation backend's session cookies across the
// otherwise stateless calls of one booking workflow.
package session

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// CookieJar is the set of cookies the reservation backend returned on its most
// recent response for a correlation id. It is forwarded whole; individual
// cookies are never inspected or rewritten.
type CookieJar []*http.Cookie

// NewID generates a correlation id for the first call of a workflow.
func NewID() string {
	return uuid.NewString()
}

// Empty reports whether the jar holds no cookies.
func (j CookieJar) Empty() bool {
	return len(j) == 0
}

// Clone returns a deep copy so stored jars cannot be mutated through callers.
func (j CookieJar) Clone() CookieJar {
	if j == nil {
		return nil
	}
	out := make(CookieJar, 0, len(j))
	for _, c := range j {
		if c == nil {
			continue
		}
		cp := *c
		if c.Unparsed != nil {
			cp.Unparsed = append([]string(nil), c.Unparsed...)
		}
		out = append(out, &cp)
	}
	return out
}

// String renders the jar the way it is sent in a Cookie header.
func (j CookieJar) String() string {
	parts := make([]string, 0, len(j))
	for _, c := range j {
		if c == nil {
			continue
		}
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; ")
}

// Equal reports whether both jars carry the same name/value pairs in the same order.
func (j CookieJar) Equal(other CookieJar) bool {
	return j.String() == other.String()
}
