package model

import (
	"slices"
	"time"
)

// MatchID uniquely identifies a match
type MatchID string

// MatchStatus represents the lifecycle phase of a match
type MatchStatus string

const (
	MatchStatusWaiting  MatchStatus = "waiting"  // Created, waiting for an opponent
	MatchStatusPlaying  MatchStatus = "playing"  // Both seats filled
	MatchStatusFinished MatchStatus = "finished" // A side has borne off all checkers
)

// Move is a single checker movement. To is BorneOff for a bear-off.
type Move struct {
	From int
	To   int
	Die  int
}

// MoveRecord is an append-only audit entry for an applied move
type MoveRecord struct {
	MatchID  MatchID
	PlayerID PlayerID
	Number   int
	From     int
	To       int
	Die      int
	PlayedAt time.Time
}

// LogKind classifies match log entries
type LogKind string

const (
	LogKindCreated   LogKind = "created"
	LogKindJoined    LogKind = "joined"
	LogKindFirstTurn LogKind = "first_turn"
	LogKindRoll      LogKind = "roll"
	LogKindMove      LogKind = "move"
	LogKindPin       LogKind = "pin"
	LogKindUnpin     LogKind = "unpin"
	LogKindPass      LogKind = "pass"
	LogKindTurnEnd   LogKind = "turn_end"
	LogKindWin       LogKind = "win"
)

// LogEntry is a human-readable event in a match
type LogEntry struct {
	Seq      int
	Kind     LogKind
	PlayerID PlayerID // empty for system events
	Message  string
	At       time.Time
}

// Match is a single Plakoto game between two players
type Match struct {
	ID      MatchID
	Player1 PlayerID
	Player2 PlayerID // empty until joined
	Status  MatchStatus

	// Turn and dice state
	CurrentTurn    PlayerID
	Dice1          int
	Dice2          int
	DiceRolled     bool
	MovesRemaining []int

	Winner PlayerID
	Board  Board

	Moves []MoveRecord
	Log   []LogEntry

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SideOf returns the seat a player occupies, or SideNone
func (m *Match) SideOf(id PlayerID) Side {
	switch {
	case id == "":
		return SideNone
	case id == m.Player1:
		return SidePlayer1
	case id == m.Player2:
		return SidePlayer2
	default:
		return SideNone
	}
}

// PlayerFor returns the player seated on a side
func (m *Match) PlayerFor(side Side) PlayerID {
	switch side {
	case SidePlayer1:
		return m.Player1
	case SidePlayer2:
		return m.Player2
	default:
		return ""
	}
}

// IsParticipant reports whether a player holds a seat
func (m *Match) IsParticipant(id PlayerID) bool {
	return m.SideOf(id) != SideNone
}

// Opponent returns the other player in the match
func (m *Match) Opponent(id PlayerID) PlayerID {
	return m.PlayerFor(m.SideOf(id).Opponent())
}

// CurrentSide returns the side whose turn it is
func (m *Match) CurrentSide() Side {
	return m.SideOf(m.CurrentTurn)
}

// ClearDice resets all per-turn dice state
func (m *Match) ClearDice() {
	m.Dice1 = 0
	m.Dice2 = 0
	m.DiceRolled = false
	m.MovesRemaining = nil
}

// ConsumeDie removes one instance of a die value from the remaining moves
func (m *Match) ConsumeDie(die int) bool {
	idx := slices.Index(m.MovesRemaining, die)
	if idx < 0 {
		return false
	}
	m.MovesRemaining = slices.Delete(m.MovesRemaining, idx, idx+1)
	return true
}

// NextMoveNumber returns the sequence number for the next move record
func (m *Match) NextMoveNumber() int {
	if len(m.Moves) == 0 {
		return 1
	}
	return m.Moves[len(m.Moves)-1].Number + 1
}

// RecordMove appends a move to the audit trail
func (m *Match) RecordMove(player PlayerID, mv Move, at time.Time) MoveRecord {
	rec := MoveRecord{
		MatchID:  m.ID,
		PlayerID: player,
		Number:   m.NextMoveNumber(),
		From:     mv.From,
		To:       mv.To,
		Die:      mv.Die,
		PlayedAt: at,
	}
	m.Moves = append(m.Moves, rec)
	return rec
}

// AppendLog adds an entry to the match log
func (m *Match) AppendLog(kind LogKind, player PlayerID, message string, at time.Time) {
	seq := 1
	if n := len(m.Log); n > 0 {
		seq = m.Log[n-1].Seq + 1
	}
	m.Log = append(m.Log, LogEntry{
		Seq:      seq,
		Kind:     kind,
		PlayerID: player,
		Message:  message,
		At:       at,
	})
}

// LogTail returns up to n of the most recent log entries, oldest first
func (m *Match) LogTail(n int) []LogEntry {
	start := max(len(m.Log)-n, 0)
	return slices.Clone(m.Log[start:])
}

// Clone returns a deep copy of the match
func (m *Match) Clone() *Match {
	c := *m
	c.MovesRemaining = slices.Clone(m.MovesRemaining)
	c.Moves = slices.Clone(m.Moves)
	c.Log = slices.Clone(m.Log)
	return &c
}
