package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to stdout
func NewOutput(format string) *Output {
	return &Output{format: format, w: os.Stdout}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Player:
		o.printPlayer(v)
	case AuthResult:
		o.printAuthResult(v)
	case MatchState:
		o.printMatchState(v)
	case MatchList:
		o.printMatchList(v)
	case RollResult:
		o.printRollResult(v)
	case MoveResult:
		o.printMoveResult(v)
	case ActionResult:
		o.printActionResult(v)
	case AddBotResult:
		fmt.Fprintf(o.w, "Bot: %s (%s)\n", v.Bot.DisplayName, v.Bot.ID)
		o.printActionResult(v.ActionResult)
	case LegalMoves:
		o.printLegalMoves(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Player response type (matches API)
type Player struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	IsGuest     bool   `json:"is_guest"`
	IsBot       bool   `json:"is_bot,omitempty"`
	BotStrategy string `json:"bot_strategy,omitempty"`
}

// AuthResult combines player and token
type AuthResult struct {
	Player       Player `json:"player"`
	SessionToken string `json:"session_token"`
}

// Point response type
type Point struct {
	Point   int    `json:"point"`
	Player1 int    `json:"player1"`
	Player2 int    `json:"player2"`
	Pinned  string `json:"pinned,omitempty"`
}

// Board response type
type Board struct {
	Points          []Point `json:"points"`
	BorneOffPlayer1 int     `json:"borne_off_player1"`
	BorneOffPlayer2 int     `json:"borne_off_player2"`
}

// Move response type
type Move struct {
	From int `json:"from"`
	To   int `json:"to"`
	Die  int `json:"die"`
}

func (m Move) String() string {
	if m.To == 0 {
		return fmt.Sprintf("%d -> off (die %d)", m.From, m.Die)
	}
	return fmt.Sprintf("%d -> %d (die %d)", m.From, m.To, m.Die)
}

// Dice response type
type Dice struct {
	Rolled         bool  `json:"rolled"`
	Die1           int   `json:"die1,omitempty"`
	Die2           int   `json:"die2,omitempty"`
	MovesRemaining []int `json:"moves_remaining"`
}

// LogEntry response type
type LogEntry struct {
	Seq     int    `json:"seq"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// MatchSummary response type
type MatchSummary struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Player1     string `json:"player1"`
	Player1Name string `json:"player1_name"`
	Player2     string `json:"player2,omitempty"`
	Player2Name string `json:"player2_name,omitempty"`
	CurrentTurn string `json:"current_turn,omitempty"`
	Winner      string `json:"winner,omitempty"`
}

// label shows a participant by display name, or by ID when the name is unknown
func (m MatchSummary) label(id string) string {
	switch {
	case id == "":
		return ""
	case id == m.Player1 && m.Player1Name != "":
		return m.Player1Name
	case id == m.Player2 && m.Player2Name != "":
		return m.Player2Name
	}
	return id
}

// MatchState response type
type MatchState struct {
	MatchSummary
	Board      Board      `json:"board"`
	Dice       Dice       `json:"dice"`
	ViewerSide string     `json:"viewer_side,omitempty"`
	IsMyTurn   bool       `json:"is_my_turn"`
	LegalMoves []Move     `json:"legal_moves"`
	Log        []LogEntry `json:"log"`
}

// MatchList response type
type MatchList struct {
	Matches []MatchSummary `json:"matches"`
}

// BotAction response type
type BotAction struct {
	Type     string `json:"type"`
	PlayerID string `json:"player_id"`
	Die1     int    `json:"die1,omitempty"`
	Die2     int    `json:"die2,omitempty"`
	Move     *Move  `json:"move,omitempty"`
}

// RollResult response type
type RollResult struct {
	Die1           int        `json:"die1"`
	Die2           int        `json:"die2"`
	Doubles        bool       `json:"doubles"`
	MovesRemaining []int      `json:"moves_remaining"`
	LegalMoves     []Move     `json:"legal_moves"`
	State          MatchState `json:"state"`
}

// MoveResult response type
type MoveResult struct {
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

// ActionResult response type for join and pass
type ActionResult struct {
	BotActions []BotAction `json:"bot_actions"`
	State      MatchState  `json:"state"`
}

// AddBotResult response type
type AddBotResult struct {
	Bot Player `json:"bot"`
	ActionResult
}

// LegalMoves response type
type LegalMoves struct {
	Moves []Move `json:"moves"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printPlayer(p Player) {
	guestStr := "no"
	if p.IsGuest {
		guestStr = "yes"
	}
	fmt.Fprintf(o.w, "Player: %s (%s)\n", p.DisplayName, p.ID)
	fmt.Fprintf(o.w, "Guest: %s\n", guestStr)
	if p.IsBot {
		fmt.Fprintf(o.w, "Bot: %s\n", p.BotStrategy)
	}
}

func (o *Output) printAuthResult(a AuthResult) {
	o.printPlayer(a.Player)
	fmt.Fprintf(o.w, "Token: %s\n", a.SessionToken)
}

func (o *Output) printMatchSummary(m MatchSummary) {
	opponent := m.label(m.Player2)
	if opponent == "" {
		opponent = "(waiting)"
	}
	fmt.Fprintf(o.w, "Match: %s [%s]\n", m.ID, m.Status)
	fmt.Fprintf(o.w, "Players: %s vs %s\n", m.label(m.Player1), opponent)
	if m.CurrentTurn != "" && m.Status == "playing" {
		fmt.Fprintf(o.w, "Turn: %s\n", m.label(m.CurrentTurn))
	}
	if m.Winner != "" {
		fmt.Fprintf(o.w, "Winner: %s\n", m.label(m.Winner))
	}
}

func (o *Output) printMatchState(s MatchState) {
	o.printMatchSummary(s.MatchSummary)
	if s.ViewerSide != "" {
		fmt.Fprintf(o.w, "You are: %s\n", s.ViewerSide)
	}
	o.printBoard(s.Board)

	if s.Dice.Rolled {
		fmt.Fprintf(o.w, "Dice: %d %d, remaining %v\n", s.Dice.Die1, s.Dice.Die2, s.Dice.MovesRemaining)
	}
	if s.IsMyTurn {
		if s.Dice.Rolled {
			o.printLegalMoves(LegalMoves{Moves: s.LegalMoves})
		} else {
			fmt.Fprintln(o.w, "Your turn: roll the dice")
		}
	}

	if len(s.Log) > 0 {
		fmt.Fprintln(o.w, "Log:")
		for _, e := range s.Log {
			fmt.Fprintf(o.w, "  %3d %s\n", e.Seq, e.Message)
		}
	}
}

// printBoard lists occupied points only; a trailing * marks a pinned checker
func (o *Output) printBoard(b Board) {
	fmt.Fprintln(o.w, "Point  P1   P2")
	for _, p := range b.Points {
		if p.Player1 == 0 && p.Player2 == 0 {
			continue
		}
		fmt.Fprintf(o.w, "%5d  %-4s %-4s\n", p.Point,
			stackLabel(p.Player1, p.Pinned == "player1"),
			stackLabel(p.Player2, p.Pinned == "player2"))
	}
	fmt.Fprintf(o.w, "Borne off: P1 %d, P2 %d\n", b.BorneOffPlayer1, b.BorneOffPlayer2)
}

func stackLabel(count int, pinned bool) string {
	if count == 0 {
		return "."
	}
	label := fmt.Sprintf("%d", count)
	if pinned {
		label += "*"
	}
	return label
}

func (o *Output) printMatchList(l MatchList) {
	if len(l.Matches) == 0 {
		fmt.Fprintln(o.w, "No matches")
		return
	}
	for _, m := range l.Matches {
		opponent := m.label(m.Player2)
		if opponent == "" {
			opponent = "-"
		}
		fmt.Fprintf(o.w, "%s  %-8s  %s vs %s\n", m.ID, m.Status, m.label(m.Player1), opponent)
	}
}

func (o *Output) printRollResult(r RollResult) {
	doubles := ""
	if r.Doubles {
		doubles = " (doubles)"
	}
	fmt.Fprintf(o.w, "Rolled %d and %d%s\n", r.Die1, r.Die2, doubles)
	o.printLegalMoves(LegalMoves{Moves: r.LegalMoves})
}

func (o *Output) printMoveResult(r MoveResult) {
	var notes []string
	if r.Pinned {
		notes = append(notes, "pinned")
	}
	if r.Unpinned {
		notes = append(notes, "released pin")
	}
	if r.BoreOff {
		notes = append(notes, "bore off")
	}
	line := "Moved " + r.Move.String()
	if len(notes) > 0 {
		line += " [" + strings.Join(notes, ", ") + "]"
	}
	fmt.Fprintln(o.w, line)

	switch {
	case r.GameOver:
		fmt.Fprintf(o.w, "Game over: %s wins\n", r.Winner)
	case r.TurnEnded:
		fmt.Fprintln(o.w, "Turn ended")
	}
	o.printActionResult(ActionResult{BotActions: r.BotActions, State: r.State})
}

func (o *Output) printActionResult(r ActionResult) {
	for _, a := range r.BotActions {
		switch {
		case a.Type == "roll":
			fmt.Fprintf(o.w, "Bot rolled %d and %d\n", a.Die1, a.Die2)
		case a.Move != nil:
			fmt.Fprintf(o.w, "Bot moved %s\n", a.Move.String())
		default:
			fmt.Fprintf(o.w, "Bot: %s\n", strings.ReplaceAll(a.Type, "_", " "))
		}
	}
	o.printMatchState(r.State)
}

func (o *Output) printLegalMoves(l LegalMoves) {
	if len(l.Moves) == 0 {
		fmt.Fprintln(o.w, "No legal moves: pass")
		return
	}
	fmt.Fprintln(o.w, "Legal moves:")
	for _, m := range l.Moves {
		fmt.Fprintf(o.w, "  %s\n", m.String())
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Fprintf(o.w, "Status: %s\n", h.Status)
}
