// Package ids issues request-correlation identifiers.
package ids

import (
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// generator hands out monotonic ULIDs. The mutex serialises access to the
// entropy source, which is not safe for concurrent use.
type generator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

var global = &generator{
	entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
}

// New returns a lexicographically sortable identifier, used to correlate
// a request across access logs and audit entries.
func New() string {
	global.mu.Lock()
	defer global.mu.Unlock()
	return ulid.MustNew(ulid.Now(), global.entropy).String()
}
