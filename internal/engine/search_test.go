package engine

import (
	"testing"

	"github.com/hailam/chesster/internal/board"
	"github.com/hailam/chesster/internal/nnue"
)

func newTestSearcher() *Searcher {
	net := nnue.NewRandomNetwork(16, 0xFEED)
	return NewSearcher(NewTranspositionTable(8), net)
}

// TestMateInOne: the rook mates on a8 regardless of evaluation weights.
func TestMateInOne(t *testing.T) {
	pos, err := board.ParseFEN("6k1/5ppp/8/8/8/8/8/R3K3 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}

	s := newTestSearcher()
	move, score := s.SearchBestMove(pos, 2)

	if move == board.NoMove {
		t.Fatal("no move returned")
	}
	if score < MateScore-MaxPly {
		t.Fatalf("expected a mate score, got %d (move %s)", score, move)
	}

	// The move must actually deliver checkmate.
	pos.MakeMove(move)
	if !pos.IsCheckmate() {
		t.Errorf("move %s does not deliver mate", move)
	}
}

// TestFiftyMoveDraw: a position with the clock at 100 scores 0 but
// still yields a legal move.
func TestFiftyMoveDraw(t *testing.T) {
	pos, err := board.ParseFEN("4k3/8/8/8/8/8/4P3/4K3 w - - 100 80")
	if err != nil {
		t.Fatal(err)
	}

	s := newTestSearcher()
	move, score := s.SearchBestMove(pos, 4)

	if move == board.NoMove {
		t.Error("a legal move must still be produced at the draw boundary")
	}
	if score != 0 {
		t.Errorf("score = %d, want 0 at halfmove clock 100", score)
	}
}

// TestCheckmateRoot: a mated root returns no move and the mated score.
func TestCheckmateRoot(t *testing.T) {
	pos, err := board.ParseFEN("R6k/6pp/8/8/8/8/8/K7 b - - 0 1")
	if err != nil {
		t.Fatal(err)
	}

	s := newTestSearcher()
	move, score := s.SearchBestMove(pos, 3)

	if move != board.NoMove {
		t.Errorf("expected no move from a checkmated root, got %s", move)
	}
	if score != -MateScore {
		t.Errorf("score = %d, want %d (mated now)", score, -MateScore)
	}
}

// TestStalemateRoot: a stalemated root returns no move and score 0.
func TestStalemateRoot(t *testing.T) {
	pos, err := board.ParseFEN("7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")
	if err != nil {
		t.Fatal(err)
	}

	s := newTestSearcher()
	move, score := s.SearchBestMove(pos, 3)

	if move != board.NoMove {
		t.Errorf("expected no move from a stalemated root, got %s", move)
	}
	if score != 0 {
		t.Errorf("score = %d, want 0", score)
	}
}

// TestSearchRestoresPosition: the search mutates the position in place
// and must hand it back untouched.
func TestSearchRestoresPosition(t *testing.T) {
	pos := board.NewPosition()
	before := *pos

	s := newTestSearcher()
	move, _ := s.SearchBestMove(pos, 4)

	if move == board.NoMove {
		t.Error("expected a move from the start position")
	}
	if *pos != before {
		t.Error("search did not restore the position")
	}
}

// TestSearchFindsLegalMove: every searched position yields a move from
// its own legal move list.
func TestSearchFindsLegalMove(t *testing.T) {
	fens := []string{
		board.StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/2PpP3/1p2P3/2N2N2/PPQ1BPPP/R3K2R w KQkq - 0 1",
		"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
		"K1k5/8/P7/8/8/8/8/8 w - - 0 1",
	}

	s := newTestSearcher()
	for _, fen := range fens {
		pos, err := board.ParseFEN(fen)
		if err != nil {
			t.Fatal(err)
		}
		s.ClearTT()
		move, _ := s.SearchBestMove(pos, 3)
		if !pos.GenerateLegalMoves().Contains(move) {
			t.Errorf("move %s is not legal in %q", move, fen)
		}
	}
}

// TestStopSignal: a pre-set stop flag aborts before depth 2 completes
// and the engine still falls back to a legal move.
func TestStopSignal(t *testing.T) {
	pos := board.NewPosition()
	s := newTestSearcher()

	s.Stop()
	move, _ := s.SearchBestMoveTimed(pos, 6, 0, 1)
	if move != board.NoMove && !pos.GenerateLegalMoves().Contains(move) {
		t.Errorf("fallback move %s is not legal", move)
	}

	s.ResetStop()
	move, _ = s.SearchBestMove(pos, 2)
	if move == board.NoMove {
		t.Error("search did not recover after ResetStop")
	}
}

// TestInfoEmitted: one info callback per completed depth, depths ascending.
func TestInfoEmitted(t *testing.T) {
	pos := board.NewPosition()
	s := newTestSearcher()

	var depths []int
	s.OnInfo = func(info SearchInfo) {
		depths = append(depths, info.Depth)
		if info.Move == board.NoMove {
			t.Errorf("info at depth %d carries no move", info.Depth)
		}
		if info.Nodes == 0 {
			t.Errorf("info at depth %d carries no node count", info.Depth)
		}
	}

	s.SearchBestMove(pos, 3)

	if len(depths) != 3 {
		t.Fatalf("expected 3 info lines, got %d", len(depths))
	}
	for i, d := range depths {
		if d != i+1 {
			t.Errorf("info depth %d at position %d", d, i)
		}
	}
}

// TestMateIn score conversion.
func TestMateIn(t *testing.T) {
	tests := []struct {
		score int
		want  int
	}{
		{MateScore - 1, 1},  // mate at ply 1
		{MateScore - 3, 2},  // mate at ply 3
		{-MateScore, 0},     // mated now: "mate 0"
		{-MateScore + 2, -1},
		{150, 0},
		{-900, 0},
	}
	for _, tc := range tests {
		if got := MateIn(tc.score); got != tc.want {
			t.Errorf("MateIn(%d) = %d, want %d", tc.score, got, tc.want)
		}
	}
}
