package model

// Side identifies which seat a player occupies in a match
type Side int

const (
	SideNone Side = iota
	SidePlayer1
	SidePlayer2
)

// Opponent returns the other seat
func (s Side) Opponent() Side {
	switch s {
	case SidePlayer1:
		return SidePlayer2
	case SidePlayer2:
		return SidePlayer1
	default:
		return SideNone
	}
}

func (s Side) String() string {
	switch s {
	case SidePlayer1:
		return "player1"
	case SidePlayer2:
		return "player2"
	default:
		return "none"
	}
}

// Direction describes how one side travels around the board.
// Player 1 ascends from point 1 and bears off past 24, player 2 descends
// from point 24 and bears off past 1. Every distance, overshoot and
// furthest-checker computation goes through this type.
type Direction struct {
	Step  int // +1 or -1
	Entry int // starting point for all 15 checkers
	// Edge is the virtual point one step past the last board point.
	// Landing exactly on it is an exact bear-off.
	Edge int
}

var (
	player1Direction = Direction{Step: 1, Entry: 1, Edge: NumPoints + 1}
	player2Direction = Direction{Step: -1, Entry: NumPoints, Edge: 0}
)

// DirectionFor returns the direction of travel for a side
func DirectionFor(side Side) Direction {
	if side == SidePlayer2 {
		return player2Direction
	}
	return player1Direction
}

// Target returns the point reached by moving die pips from a point.
// The result may lie past the edge of the board.
func (d Direction) Target(from, die int) int {
	return from + d.Step*die
}

// Distance returns the signed number of pips travelled from one point to
// another. A destination of BorneOff is measured to the edge.
func (d Direction) Distance(from, to int) int {
	if to == BorneOff {
		return d.Step * (d.Edge - from)
	}
	return d.Step * (to - from)
}

// PastEdge reports whether a target point lies off the board
func (d Direction) PastEdge(point int) bool {
	if d.Step > 0 {
		return point > NumPoints
	}
	return point < 1
}

// HomeStart returns the home point furthest from the edge
func (d Direction) HomeStart() int {
	return d.Edge - d.Step*HomeSize
}

// HomePoints returns the home points ordered from furthest to nearest the edge
func (d Direction) HomePoints() []int {
	points := make([]int, HomeSize)
	start := d.HomeStart()
	for i := 0; i < HomeSize; i++ {
		points[i] = start + d.Step*i
	}
	return points
}

// InHome reports whether a board point is in this side's home region
func (d Direction) InHome(point int) bool {
	if point < 1 || point > NumPoints {
		return false
	}
	dist := d.Step * (d.Edge - point)
	return dist >= 1 && dist <= HomeSize
}
