package response

import (
	"time"

	"github.com/mcoot/plakoto/internal/model"
	"github.com/mcoot/plakoto/internal/services/auth"
	"github.com/mcoot/plakoto/internal/services/bot"
	"github.com/mcoot/plakoto/internal/services/match"
)

// Player represents a player in API responses
type Player struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	IsGuest     bool   `json:"is_guest"`
	IsBot       bool   `json:"is_bot,omitempty"`
	BotStrategy string `json:"bot_strategy,omitempty"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p *model.Player) Player {
	return Player{
		ID:          string(p.ID),
		DisplayName: p.DisplayName,
		IsGuest:     p.IsGuest,
		IsBot:       p.IsBot,
		BotStrategy: p.BotStrategy,
	}
}

// AuthResponse is the response for authentication endpoints
type AuthResponse struct {
	Player       Player `json:"player"`
	SessionToken string `json:"session_token"`
}

// AuthResponseFromSession creates an AuthResponse from a session
func AuthResponseFromSession(s *auth.Session) AuthResponse {
	return AuthResponse{
		Player:       PlayerFromModel(&s.Player),
		SessionToken: s.Token,
	}
}

// Point is both sides' checkers on one board point. Pinned names the side
// whose checker is trapped there, if any.
type Point struct {
	Point   int    `json:"point"`
	Player1 int    `json:"player1"`
	Player2 int    `json:"player2"`
	Pinned  string `json:"pinned,omitempty"`
}

// Board is the full 24-point board plus borne-off counts
type Board struct {
	Points          []Point `json:"points"`
	BorneOffPlayer1 int     `json:"borne_off_player1"`
	BorneOffPlayer2 int     `json:"borne_off_player2"`
}

// BoardFromModel converts model.Board, listing every point in order
func BoardFromModel(b *model.Board) Board {
	points := make([]Point, 0, model.NumPoints)
	for p := 1; p <= model.NumPoints; p++ {
		pt := Point{
			Point:   p,
			Player1: b.Count(model.SidePlayer1, p),
			Player2: b.Count(model.SidePlayer2, p),
		}
		switch {
		case b.IsPinned(model.SidePlayer1, p):
			pt.Pinned = model.SidePlayer1.String()
		case b.IsPinned(model.SidePlayer2, p):
			pt.Pinned = model.SidePlayer2.String()
		}
		points = append(points, pt)
	}
	return Board{
		Points:          points,
		BorneOffPlayer1: b.BorneOffCount(model.SidePlayer1),
		BorneOffPlayer2: b.BorneOffCount(model.SidePlayer2),
	}
}

// Move is a checker move; To is 0 for a bear-off
type Move struct {
	From int `json:"from"`
	To   int `json:"to"`
	Die  int `json:"die"`
}

// MoveFromModel converts model.Move
func MoveFromModel(m model.Move) Move {
	return Move{From: m.From, To: m.To, Die: m.Die}
}

// MovesFromModel converts a slice of moves, never returning nil
func MovesFromModel(moves []model.Move) []Move {
	out := make([]Move, len(moves))
	for i, m := range moves {
		out[i] = MoveFromModel(m)
	}
	return out
}

// Dice is the current roll
type Dice struct {
	Rolled         bool  `json:"rolled"`
	Die1           int   `json:"die1,omitempty"`
	Die2           int   `json:"die2,omitempty"`
	MovesRemaining []int `json:"moves_remaining"`
}

// LogEntry is one line of the match log
type LogEntry struct {
	Seq      int       `json:"seq"`
	Kind     string    `json:"kind"`
	PlayerID string    `json:"player_id,omitempty"`
	Message  string    `json:"message"`
	At       time.Time `json:"at"`
}

// LogFromModel converts log entries
func LogFromModel(entries []model.LogEntry) []LogEntry {
	out := make([]LogEntry, len(entries))
	for i, e := range entries {
		out[i] = LogEntry{
			Seq:      e.Seq,
			Kind:     string(e.Kind),
			PlayerID: string(e.PlayerID),
			Message:  e.Message,
			At:       e.At,
		}
	}
	return out
}

// MatchSummary is a match as shown in listings
type MatchSummary struct {
	ID          string    `json:"id"`
	Status      string    `json:"status"`
	Player1     string    `json:"player1"`
	Player1Name string    `json:"player1_name"`
	Player2     string    `json:"player2,omitempty"`
	Player2Name string    `json:"player2_name,omitempty"`
	CurrentTurn string    `json:"current_turn,omitempty"`
	Winner      string    `json:"winner,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MatchSummaryFromModel converts model.Match with resolved display names
func MatchSummaryFromModel(m *model.Match, player1Name, player2Name string) MatchSummary {
	return MatchSummary{
		ID:          string(m.ID),
		Status:      string(m.Status),
		Player1:     string(m.Player1),
		Player1Name: player1Name,
		Player2:     string(m.Player2),
		Player2Name: player2Name,
		CurrentTurn: string(m.CurrentTurn),
		Winner:      string(m.Winner),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// MatchList wraps a listing
type MatchList struct {
	Matches []MatchSummary `json:"matches"`
}

// MatchListFromSummaries converts a controller listing
func MatchListFromSummaries(matches []*match.Summary) MatchList {
	out := make([]MatchSummary, len(matches))
	for i, m := range matches {
		out[i] = MatchSummaryFromModel(m.Match, m.Player1Name, m.Player2Name)
	}
	return MatchList{Matches: out}
}

// MatchState is a match as seen by the requesting player
type MatchState struct {
	MatchSummary
	Board      Board      `json:"board"`
	Dice       Dice       `json:"dice"`
	ViewerSide string     `json:"viewer_side,omitempty"`
	IsMyTurn   bool       `json:"is_my_turn"`
	LegalMoves []Move     `json:"legal_moves"`
	Log        []LogEntry `json:"log"`
}

// MatchStateFromState converts a controller state view
func MatchStateFromState(s *match.State) MatchState {
	m := s.Match
	var viewer string
	if s.ViewerSide != model.SideNone {
		viewer = s.ViewerSide.String()
	}
	remaining := m.MovesRemaining
	if remaining == nil {
		remaining = []int{}
	}
	return MatchState{
		MatchSummary: MatchSummaryFromModel(m, s.Player1Name, s.Player2Name),
		Board:        BoardFromModel(&m.Board),
		Dice: Dice{
			Rolled:         m.DiceRolled,
			Die1:           m.Dice1,
			Die2:           m.Dice2,
			MovesRemaining: remaining,
		},
		ViewerSide: viewer,
		IsMyTurn:   s.IsMyTurn,
		LegalMoves: MovesFromModel(s.LegalMoves),
		Log:        LogFromModel(s.Log),
	}
}

// BotAction is one step a bot took after the request's own action
type BotAction struct {
	Type     string `json:"type"`
	PlayerID string `json:"player_id"`
	Die1     int    `json:"die1,omitempty"`
	Die2     int    `json:"die2,omitempty"`
	Move     *Move  `json:"move,omitempty"`
}

// BotActionsFromModel converts bot actions, never returning nil
func BotActionsFromModel(actions []bot.BotAction) []BotAction {
	out := make([]BotAction, len(actions))
	for i, a := range actions {
		out[i] = BotAction{
			Type:     string(a.Type),
			PlayerID: string(a.PlayerID),
			Die1:     a.Die1,
			Die2:     a.Die2,
		}
		if a.Type == bot.ActionMove {
			mv := MoveFromModel(a.Move)
			out[i].Move = &mv
		}
	}
	return out
}

// RollResponse is the response after rolling the dice
type RollResponse struct {
	Die1           int        `json:"die1"`
	Die2           int        `json:"die2"`
	Doubles        bool       `json:"doubles"`
	MovesRemaining []int      `json:"moves_remaining"`
	LegalMoves     []Move     `json:"legal_moves"`
	State          MatchState `json:"state"`
}

// MoveResponse is the response after moving a checker
type MoveResponse struct {
	Move       Move        `json:"move"`
	Pinned     bool        `json:"pinned"`
	Unpinned   bool        `json:"unpinned"`
	BoreOff    bool        `json:"bore_off"`
	TurnEnded  bool        `json:"turn_ended"`
	GameOver   bool        `json:"game_over"`
	Winner     string      `json:"winner,omitempty"`
	BotActions []BotAction `json:"bot_actions"`
	State      MatchState  `json:"state"`
}

// ActionResponse is the response for join, bot and pass: the resulting
// state plus whatever bots played in reply
type ActionResponse struct {
	BotActions []BotAction `json:"bot_actions"`
	State      MatchState  `json:"state"`
}

// AddBotResponse is the response after seating a bot
type AddBotResponse struct {
	Bot Player `json:"bot"`
	ActionResponse
}

// LegalMovesResponse lists the caller's legal moves
type LegalMovesResponse struct {
	Moves []Move `json:"moves"`
}
