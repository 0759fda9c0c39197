package mocks

import (
	"sync"

	"github.com/mcoot/plakoto/internal/dependencies/dice"
)

// MockDice is a mock implementation of Dice for testing
type MockDice struct {
	mu sync.Mutex

	// Rolls is a queue of values to return from Roll
	Rolls     []int
	rollIndex int

	// fallback cycles 1..6 once the queue is exhausted so that
	// reroll-until-different loops always terminate
	fallback int
}

// Ensure MockDice implements Dice
var _ dice.Dice = (*MockDice)(nil)

// NewMockDice creates a new MockDice
func NewMockDice() *MockDice {
	return &MockDice{}
}

// Roll returns the next queued value
func (d *MockDice) Roll() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.rollIndex >= len(d.Rolls) {
		d.fallback = d.fallback%dice.Faces + 1
		return d.fallback
	}
	result := d.Rolls[d.rollIndex]
	d.rollIndex++
	return result
}

// QueueRolls adds values to the roll queue
func (d *MockDice) QueueRolls(values ...int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Rolls = append(d.Rolls, values...)
}

// Remaining returns how many queued rolls have not been used
func (d *MockDice) Remaining() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.Rolls) - d.rollIndex
}

// Reset clears all queued rolls
func (d *MockDice) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Rolls = nil
	d.rollIndex = 0
	d.fallback = 0
}
