package board

import "testing"

// TestFENRoundTrip verifies parse/emit round trips for a spread of positions.
func TestFENRoundTrip(t *testing.T) {
	fens := []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/2PpP3/1p2P3/2N2N2/PPQ1BPPP/R3K2R w KQkq - 0 1",
		"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
		"8/5bk1/8/2Pp4/8/1K6/8/8 w - d6 0 1",
		"3k4/8/8/8/8/8/8/R3K3 w Q - 0 1",
		"K1k5/8/P7/8/8/8/8/8 w - - 0 1",
		"4k3/8/8/8/8/8/4Q3/4K3 w - - 0 1",
	}

	for _, fen := range fens {
		pos, err := ParseFEN(fen)
		if err != nil {
			t.Errorf("ParseFEN(%q): %v", fen, err)
			continue
		}
		if got := pos.ToFEN(); got != fen {
			t.Errorf("round trip: %q -> %q", fen, got)
		}
		if pos.Hash != pos.ComputeHash() {
			t.Errorf("hash not initialized for %q", fen)
		}
	}
}

// TestFENErrors verifies malformed inputs are rejected.
func TestFENErrors(t *testing.T) {
	bad := []string{
		"",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR",           // missing fields
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP w KQkq - 0 1",       // seven ranks
		"rnbqkbnr/ppppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w - - 0 1", // nine squares
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR x KQkq - 0 1", // bad side
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w XQkq - 0 1", // bad castle
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq e9 0 1", // bad EP
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - x 1",  // bad clock
		"rnbzkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",  // bad piece
	}

	for _, fen := range bad {
		if _, err := ParseFEN(fen); err == nil {
			t.Errorf("ParseFEN(%q): expected error", fen)
		}
	}
}

// TestStartPosition sanity-checks the derived state of the start position.
func TestStartPosition(t *testing.T) {
	pos := NewPosition()

	if pos.SideToMove != White {
		t.Error("white to move at start")
	}
	if pos.CastlingRights != AllCastling {
		t.Error("all castling rights at start")
	}
	if pos.EnPassant != NoSquare {
		t.Error("no en passant at start")
	}
	if pos.KingSquare(White) != E1 || pos.KingSquare(Black) != E8 {
		t.Error("kings on e1/e8 at start")
	}
	if pos.AllOccupied.PopCount() != 32 {
		t.Errorf("expected 32 pieces, got %d", pos.AllOccupied.PopCount())
	}
	if err := pos.Validate(); err != nil {
		t.Errorf("start position invalid: %v", err)
	}
}
