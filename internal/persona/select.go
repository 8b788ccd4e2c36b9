package persona

import (
	"fmt"
	"math/rand"
	"strings"

	qaerrors "github.com/qamaster/personaqa/internal/errors"
)

// Mode is a persona selection strategy.
type Mode string

const (
	ModeRandom      Mode = "random"
	ModeSequential  Mode = "sequential"
	ModeDiversified Mode = "diversified"
)

// DefaultCount is the number of personas used when none is specified.
const DefaultCount = 5

// ParseMode accepts English and Portuguese mode names. An empty string means
// random.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "random", "aleatorio", "aleatório":
		return ModeRandom, nil
	case "sequential", "sequencial":
		return ModeSequential, nil
	case "diversified", "diversificado":
		return ModeDiversified, nil
	default:
		return "", &qaerrors.ValidationError{
			Field:      "mode",
			Message:    fmt.Sprintf("unknown selection mode %q", s),
			Suggestion: "use random, sequential or diversified",
		}
	}
}

// Select chooses count persona ids from the catalog. count must be in
// [1, MaxPersonas]. Random mode draws from rng only, without replacement.
func Select(c *Catalog, count int, mode Mode, rng *rand.Rand) ([]string, error) {
	if count < 1 || count > MaxPersonas {
		return nil, &qaerrors.RangeError{Field: "num_personas", Value: count, Min: 1, Max: MaxPersonas}
	}

	all := c.IDs()

	switch mode {
	case ModeSequential:
		if count > len(all) {
			count = len(all)
		}
		return all[:count], nil

	case ModeDiversified:
		return strideSample(all, count), nil

	case ModeRandom, "":
		if count > len(all) {
			return nil, &qaerrors.RangeError{Field: "num_personas", Value: count, Min: 1, Max: len(all)}
		}
		if rng == nil {
			return nil, &qaerrors.ValidationError{Field: "rng", Message: "random selection requires a randomness source"}
		}
		perm := rng.Perm(len(all))
		selected := make([]string, count)
		for i := range count {
			selected[i] = all[perm[i]]
		}
		return selected, nil

	default:
		return nil, &qaerrors.ValidationError{Field: "mode", Message: fmt.Sprintf("unknown selection mode %q", mode)}
	}
}

// strideSample takes ids at 0, stride, 2*stride, ... with stride =
// len(ids)/count. When the catalog is smaller than count the stride is 0 and
// the repeated picks collapse to distinct ids.
func strideSample(ids []string, count int) []string {
	if len(ids) == 0 {
		return nil
	}

	stride := len(ids) / count

	seen := make(map[string]bool, count)
	selected := make([]string, 0, count)
	for i := range count {
		id := ids[i*stride]
		if seen[id] {
			continue
		}
		seen[id] = true
		selected = append(selected, id)
	}
	return selected
}

// LimitIDs truncates an explicit persona list to MaxPersonas entries.
func LimitIDs(ids []string) []string {
	if len(ids) > MaxPersonas {
		return ids[:MaxPersonas]
	}
	return ids
}
