// Package credentials turns raw passwords into storage-safe bcrypt hashes
// and checks raw passwords against them.
package credentials

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Manager hashes and verifies passwords with a fixed bcrypt cost.
// It holds no mutable state and is safe for concurrent use.
type Manager struct {
	cost int
}

// NewManager returns a Manager using cost as the bcrypt work factor.
// A cost outside [bcrypt.MinCost, bcrypt.MaxCost] is a configuration error.
func NewManager(cost int) (*Manager, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &Manager{cost: cost}, nil
}

// Cost reports the configured work factor.
func (m *Manager) Cost() int { return m.cost }

// Hash returns a bcrypt hash of raw. The salt and cost are embedded in the
// result, and every call draws a fresh salt. Input validation is the caller's
// job; an error here means the hashing backend itself failed.
func (m *Manager) Hash(raw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(raw), m.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// Verify reports whether raw matches stored. A malformed or empty stored
// hash never matches.
func (m *Manager) Verify(raw, stored string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(raw)) == nil
}
