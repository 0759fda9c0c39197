package rules

import "github.com/mcoot/plakoto/internal/model"

// Outcome reports how a move affected the turn
type Outcome struct {
	GameOver  bool
	TurnEnded bool
}

// Resolve decides whether the mover has won or their turn is over, and
// updates the match accordingly.
func Resolve(m *model.Match, mover model.Side) Outcome {
	if m.Board.BorneOffCount(mover) >= model.CheckersPerSide {
		m.Status = model.MatchStatusFinished
		m.Winner = m.PlayerFor(mover)
		m.ClearDice()
		return Outcome{GameOver: true}
	}

	if len(m.MovesRemaining) == 0 || !HasLegalMoves(&m.Board, mover, m.MovesRemaining) {
		EndTurn(m)
		return Outcome{TurnEnded: true}
	}

	return Outcome{}
}

// EndTurn hands the turn to the other player and clears the dice
func EndTurn(m *model.Match) {
	m.CurrentTurn = m.Opponent(m.CurrentTurn)
	m.ClearDice()
}

// CheckRoll verifies the player may roll now
func CheckRoll(m *model.Match, player model.PlayerID) error {
	if err := checkPlaying(m); err != nil {
		return err
	}
	if m.CurrentTurn != player {
		return model.ErrNotYourTurn
	}
	if m.DiceRolled {
		return model.ErrAlreadyRolled
	}
	return nil
}

// ApplyRoll records a dice roll. Doubles grant four moves of that value.
func ApplyRoll(m *model.Match, die1, die2 int) {
	m.Dice1 = die1
	m.Dice2 = die2
	m.DiceRolled = true
	if die1 == die2 {
		m.MovesRemaining = []int{die1, die1, die1, die1}
	} else {
		m.MovesRemaining = []int{die1, die2}
	}
}

// CheckPass verifies the player has rolled and has no legal move
func CheckPass(m *model.Match, player model.PlayerID) error {
	if err := CheckTurn(m, player); err != nil {
		return err
	}
	if HasLegalMoves(&m.Board, m.SideOf(player), m.MovesRemaining) {
		return model.ErrValidMovesAvailable
	}
	return nil
}

// SetUp places a side's full set of checkers on its entry point
func SetUp(b *model.Board, side model.Side) {
	b.Place(side, model.DirectionFor(side).Entry, model.CheckersPerSide)
}
