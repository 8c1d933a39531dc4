package naming

import (
	"errors"
	"fmt"
	"sync"
)

// ErrNamingCollision reports that two distinct input file sets resolved to
// the same canonical output path.
var ErrNamingCollision = errors.New("canonical name collision")

// ClaimSet tracks canonical output paths claimed by input files during a
// single run. Unlike a resolver that invents suffixes, a claim for a path
// already owned by a different input is rejected: identical canonical names
// mean the naming inputs themselves are ambiguous, and silently overwriting
// (or renaming) would hide a data-preparation error. All methods are
// goroutine-safe.
type ClaimSet struct {
	mu     sync.Mutex
	owners map[string]string // output path → input path that owns it
}

// NewClaimSet creates a ready-to-use claim set.
func NewClaimSet() *ClaimSet {
	return &ClaimSet{owners: make(map[string]string)}
}

// Claim registers output as owned by input. Re-claiming a path for the same
// input is a no-op; claiming a path owned by another input returns
// [ErrNamingCollision] naming both inputs.
func (cs *ClaimSet) Claim(input, output string) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	owner, exists := cs.owners[output]
	if exists && owner != input {
		return fmt.Errorf("%w: %q claimed by both %q and %q", ErrNamingCollision, output, owner, input)
	}
	cs.owners[output] = input
	return nil
}
