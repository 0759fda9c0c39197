package model

const (
	// NumPoints is the number of playable points on the board
	NumPoints = 24
	// BorneOff is the synthetic point holding checkers that have left the board
	BorneOff = 0
	// CheckersPerSide is the number of checkers each side starts with
	CheckersPerSide = 15
	// HomeSize is the number of points in a home region
	HomeSize = 6
)

// Stack is one side's checkers on a single point
type Stack struct {
	Count  int
	Pinned bool
}

// Slot holds both sides' stacks on a point, indexed by Side-1
type Slot [2]Stack

// Board is a fixed arena of 25 slots. Index 0 holds borne-off counts and
// indices 1..24 are the board points.
type Board struct {
	Slots [NumPoints + 1]Slot
}

// BoardEntry is the sparse form of one occupied stack
type BoardEntry struct {
	Side   Side
	Point  int
	Count  int
	Pinned bool
}

// NewBoard returns an empty board
func NewBoard() Board {
	return Board{}
}

// ValidPoint reports whether point indexes a slot in the arena
func ValidPoint(point int) bool {
	return point >= BorneOff && point <= NumPoints
}

// Stack returns a pointer to a side's stack on a point
func (b *Board) Stack(side Side, point int) *Stack {
	return &b.Slots[point][side-1]
}

// Count returns how many checkers a side has on a point
func (b *Board) Count(side Side, point int) int {
	if !ValidPoint(point) || side == SideNone {
		return 0
	}
	return b.Slots[point][side-1].Count
}

// IsPinned reports whether a side's stack on a point is pinned
func (b *Board) IsPinned(side Side, point int) bool {
	if !ValidPoint(point) || side == SideNone {
		return false
	}
	return b.Slots[point][side-1].Pinned
}

// BorneOffCount returns how many checkers a side has borne off
func (b *Board) BorneOffCount(side Side) int {
	return b.Count(side, BorneOff)
}

// Total returns a side's checkers across the board and borne off
func (b *Board) Total(side Side) int {
	total := 0
	for point := range b.Slots {
		total += b.Count(side, point)
	}
	return total
}

// Place puts count checkers for a side on a point
func (b *Board) Place(side Side, point, count int) {
	b.Stack(side, point).Count += count
}

// AllHome reports whether every on-board checker of a side is in its home
// region. Borne-off checkers are ignored.
func (b *Board) AllHome(side Side) bool {
	dir := DirectionFor(side)
	for point := 1; point <= NumPoints; point++ {
		if b.Count(side, point) > 0 && !dir.InHome(point) {
			return false
		}
	}
	return true
}

// FurthestHomePoint returns the occupied home point furthest from the edge,
// or 0 if the side has no checkers at home.
func (b *Board) FurthestHomePoint(side Side) int {
	for _, point := range DirectionFor(side).HomePoints() {
		if b.Count(side, point) > 0 {
			return point
		}
	}
	return 0
}

// Entries returns the occupied stacks in point order, borne off first
func (b *Board) Entries() []BoardEntry {
	var entries []BoardEntry
	for point := range b.Slots {
		for _, side := range []Side{SidePlayer1, SidePlayer2} {
			st := b.Slots[point][side-1]
			if st.Count == 0 {
				continue
			}
			entries = append(entries, BoardEntry{Side: side, Point: point, Count: st.Count, Pinned: st.Pinned})
		}
	}
	return entries
}

// BoardFromEntries rebuilds a board from its sparse form
func BoardFromEntries(entries []BoardEntry) Board {
	b := NewBoard()
	for _, e := range entries {
		if !ValidPoint(e.Point) || e.Side == SideNone {
			continue
		}
		st := b.Stack(e.Side, e.Point)
		st.Count = e.Count
		st.Pinned = e.Pinned
	}
	return b
}
