package layout

import (
	"crypto/rand"
	"fmt"

	"github.com/google/uuid"
)

// NewPageID generates a collision-free page identifier of the form
// "tpl_<uuid>". It uses a cryptographically secure random source; if the
// UUID library fails (exhausted entropy pool), it falls back to assembling
// a random identifier by hand from crypto/rand. It never falls back to a
// predictable counter.
func NewPageID() string {
	return newPageID("tpl")
}

func newPageID(prefix string) string {
	if id, err := uuid.NewRandom(); err == nil {
		return prefix + "_" + id.String()
	}
	return prefix + "_" + randomID()
}

// randomID builds a UUIDv4-shaped identifier directly from crypto/rand.
func randomID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		// Identifiers must come from a secure random source, never a
		// counter or timestamp.
		panic(fmt.Sprintf("layout: secure random source unavailable: %v", err))
	}
	b[6] = (b[6] & 0x0f) | 0x40 // version 4
	b[8] = (b[8] & 0x3f) | 0x80 // variant 10
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:16])
}
