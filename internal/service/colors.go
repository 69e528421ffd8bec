package service

import (
	"fmt"
	"math/rand"
	"sync"
)

// ColorAssigner picks a display color for a new schedule slot. Colors
// are presentation only; they never influence admission decisions.
type ColorAssigner interface {
	Assign(courseCode string) string
}

// HSLColorAssigner produces a random saturated hue per slot, matching
// the dashboard's card styling.
type HSLColorAssigner struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewHSLColorAssigner seeds the assigner.
func NewHSLColorAssigner(seed int64) *HSLColorAssigner {
	return &HSLColorAssigner{rng: rand.New(rand.NewSource(seed))}
}

// Assign returns an hsl() color string with a random hue.
func (a *HSLColorAssigner) Assign(string) string {
	a.mu.Lock()
	hue := a.rng.Intn(360)
	a.mu.Unlock()
	return fmt.Sprintf("hsl(%d, 70%%, 45%%)", hue)
}

// StaticColorAssigner always returns the same color. Used in tests so
// slot fixtures are deterministic.
type StaticColorAssigner struct {
	Color string
}

// Assign returns the fixed color.
func (a StaticColorAssigner) Assign(string) string {
	return a.Color
}
