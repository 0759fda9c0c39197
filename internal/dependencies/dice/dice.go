package dice

import "github.com/mcoot/plakoto/internal/dependencies/random"

// Faces is the number of sides on a die
const Faces = 6

// Dice draws independent uniform die values in [1, Faces]
type Dice interface {
	Roll() int
}

// RandomDice implements Dice on top of a Random source
type RandomDice struct {
	random random.Random
}

// New creates dice backed by the given random source
func New(rnd random.Random) *RandomDice {
	return &RandomDice{random: rnd}
}

// Roll returns a value in [1, Faces]
func (d *RandomDice) Roll() int {
	return d.random.Intn(Faces) + 1
}
