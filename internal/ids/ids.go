// Package ids generates the prefixed identifiers used for tests, error
// records and sessions.
package ids

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const (
	PrefixTest    = "TEST"
	PrefixError   = "ERRO"
	PrefixSession = "SESSION"
)

// Generator produces identifiers of the form PREFIX_XXXXXXXX.
type Generator interface {
	New(prefix string) string
}

// UUIDGenerator takes the first 8 hex digits of a random UUID.
type UUIDGenerator struct{}

func (UUIDGenerator) New(prefix string) string {
	return New(prefix)
}

// New returns prefix + "_" + 8 upper-case hex digits.
func New(prefix string) string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + "_" + strings.ToUpper(hex[:8])
}

// Sequence is a deterministic Generator for tests: TEST_00000001, TEST_00000002, ...
type Sequence struct {
	mu sync.Mutex
	n  int
}

func (s *Sequence) New(prefix string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("%s_%08d", prefix, s.n)
}
