package engine

import (
	"github.com/hailam/chesster/internal/board"
)

// Move ordering score bands, highest searched first.
const (
	ttMoveScore     = 10000000 // TT move
	captureBase     = 1000000  // MVV/LVA captures
	promotionBase   = 900000   // non-capture promotions
	killerScore1    = 800000   // first killer at this ply
	killerScore2    = 700000   // second killer
	historyMaxScore = 600000   // saturation bound for quiet history
)

// MoveOrderer holds the killer slots and history table that rank quiet
// moves. Both are reset at the start of every search.
type MoveOrderer struct {
	killers [MaxPly][2]board.Move
	history [2][64][64]int // [side][from][to]
}

// NewMoveOrderer creates a new move orderer.
func NewMoveOrderer() *MoveOrderer {
	return &MoveOrderer{}
}

// Clear resets killers and history for a new search.
func (mo *MoveOrderer) Clear() {
	*mo = MoveOrderer{}
}

// ScoreMoves assigns ordering scores to every move in the list.
func (mo *MoveOrderer) ScoreMoves(pos *board.Position, moves *board.MoveList, ply int, ttMove board.Move) []int {
	scores := make([]int, moves.Len())
	for i := 0; i < moves.Len(); i++ {
		scores[i] = mo.scoreMove(pos, moves.Get(i), ply, ttMove)
	}
	return scores
}

// scoreMove returns the ordering score for a single move.
func (mo *MoveOrderer) scoreMove(pos *board.Position, m board.Move, ply int, ttMove board.Move) int {
	if m == ttMove {
		return ttMoveScore
	}

	from := m.From()
	to := m.To()
	us := pos.SideToMove

	// Captures: MVV/LVA, 16*victim - attacker
	if m.IsCapture() {
		attacker := pos.PieceTypeAt(us, from)

		victim := board.Pawn
		if !m.IsEnPassant() {
			victim = pos.PieceTypeAt(us.Other(), to)
		}

		return captureBase + 16*board.PieceValue[victim] - board.PieceValue[attacker]
	}

	// Non-capture promotions, queen first
	if m.IsPromotion() {
		return promotionBase + board.PieceValue[m.Promotion()]
	}

	// Killer moves
	if ply < MaxPly {
		if m == mo.killers[ply][0] {
			return killerScore1
		}
		if m == mo.killers[ply][1] {
			return killerScore2
		}
	}

	// Quiet moves by history
	return mo.history[us][from][to]
}

// PickMove selects the best remaining move and swaps it to index.
// Sorting lazily keeps the common early-cutoff case cheap.
func PickMove(moves *board.MoveList, scores []int, index int) {
	best := index
	for j := index + 1; j < moves.Len(); j++ {
		if scores[j] > scores[best] {
			best = j
		}
	}
	if best != index {
		moves.Swap(index, best)
		scores[index], scores[best] = scores[best], scores[index]
	}
}

// UpdateKillers records a quiet beta-cutter at the given ply, demoting
// the previous first killer.
func (mo *MoveOrderer) UpdateKillers(m board.Move, ply int) {
	if ply >= MaxPly {
		return
	}
	if mo.killers[ply][0] == m {
		return
	}
	mo.killers[ply][1] = mo.killers[ply][0]
	mo.killers[ply][0] = m
}

// UpdateHistory bumps a quiet beta-cutter's history by depth^2, with
// saturation so the table never outranks the killer band.
func (mo *MoveOrderer) UpdateHistory(us board.Color, m board.Move, depth int) {
	h := &mo.history[us][m.From()][m.To()]
	*h += depth * depth
	if *h > historyMaxScore {
		*h = historyMaxScore
	}
}

// HistoryScore returns the quiet-history score for a move.
func (mo *MoveOrderer) HistoryScore(us board.Color, m board.Move) int {
	return mo.history[us][m.From()][m.To()]
}
