package engine

import (
	"testing"

	"github.com/hailam/chesster/internal/board"
)

// TestCaptureOrdering: PxQ must rank above QxP, and the TT move above both.
func TestCaptureOrdering(t *testing.T) {
	// White pawn b4 can take the c5 queen; white queen h5 can take the h7 pawn.
	pos, err := board.ParseFEN("k7/7p/8/2q4Q/1P6/8/8/K7 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}

	pawnTakesQueen := board.NewMove(board.B4, board.C5, board.Capture)
	queenTakesPawn := board.NewMove(board.H5, board.H7, board.Capture)

	mo := NewMoveOrderer()
	moves := pos.GenerateLegalMoves()
	if !moves.Contains(pawnTakesQueen) || !moves.Contains(queenTakesPawn) {
		t.Fatal("expected both captures to be legal")
	}

	scores := mo.ScoreMoves(pos, moves, 0, board.NoMove)
	var sPxQ, sQxP int
	for i := 0; i < moves.Len(); i++ {
		switch moves.Get(i) {
		case pawnTakesQueen:
			sPxQ = scores[i]
		case queenTakesPawn:
			sQxP = scores[i]
		}
	}

	if sPxQ <= sQxP {
		t.Errorf("PxQ (%d) must outrank QxP (%d)", sPxQ, sQxP)
	}

	// Designating QxP as TT move flips the order.
	scores = mo.ScoreMoves(pos, moves, 0, queenTakesPawn)
	for i := 0; i < moves.Len(); i++ {
		if moves.Get(i) == queenTakesPawn && scores[i] != ttMoveScore {
			t.Error("TT move not scored to the top band")
		}
	}
}

// TestKillerAndHistoryBands: killers outrank plain quiets, history
// separates quiets, and a search reset clears both.
func TestKillerAndHistoryBands(t *testing.T) {
	pos := board.NewPosition()
	mo := NewMoveOrderer()

	killer := board.NewMove(board.G1, board.F3, board.Quiet)
	other := board.NewMove(board.B1, board.C3, board.Quiet)

	mo.UpdateKillers(killer, 2)
	if got := mo.scoreMove(pos, killer, 2, board.NoMove); got != killerScore1 {
		t.Errorf("killer score = %d, want %d", got, killerScore1)
	}

	// Second killer demotes the first.
	mo.UpdateKillers(other, 2)
	if got := mo.scoreMove(pos, killer, 2, board.NoMove); got != killerScore2 {
		t.Errorf("demoted killer score = %d, want %d", got, killerScore2)
	}

	// Re-pushing the same killer must not duplicate it.
	mo.UpdateKillers(other, 2)
	if mo.killers[2][0] != other || mo.killers[2][1] != killer {
		t.Error("killer slots corrupted by duplicate push")
	}

	// History bumps by depth^2 and saturates.
	mo.UpdateHistory(board.White, other, 4)
	if got := mo.HistoryScore(board.White, other); got != 16 {
		t.Errorf("history after depth-4 cutoff = %d, want 16", got)
	}
	for i := 0; i < 10000; i++ {
		mo.UpdateHistory(board.White, other, 10)
	}
	if got := mo.HistoryScore(board.White, other); got > historyMaxScore {
		t.Errorf("history %d exceeds saturation bound", got)
	}

	mo.Clear()
	if mo.HistoryScore(board.White, other) != 0 || mo.killers[2][0] != board.NoMove {
		t.Error("Clear did not reset ordering state")
	}
}

// TestPromotionOrdering: queen promotions rank above the other pieces.
func TestPromotionOrdering(t *testing.T) {
	pos, err := board.ParseFEN("k7/6P1/8/8/8/8/8/K7 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}

	mo := NewMoveOrderer()
	moves := pos.GenerateLegalMoves()
	scores := mo.ScoreMoves(pos, moves, 0, board.NoMove)

	best := -1
	for i := 0; i < moves.Len(); i++ {
		if best < 0 || scores[i] > scores[best] {
			best = i
		}
	}
	m := moves.Get(best)
	if !m.IsPromotion() || m.Promotion() != board.Queen {
		t.Errorf("top move is %s, want the queen promotion", m)
	}
}
