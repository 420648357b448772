package uci

import (
	"strings"
	"testing"
	"time"

	"github.com/hailam/chesster/internal/board"
	"github.com/hailam/chesster/internal/engine"
	"github.com/hailam/chesster/internal/nnue"
)

func newTestUCI() *UCI {
	net := nnue.NewRandomNetwork(8, 0xACE)
	return New(engine.NewSearcher(engine.NewTranspositionTable(1), net))
}

func TestHandlePositionStartposMoves(t *testing.T) {
	u := newTestUCI()

	u.handlePosition([]string{"startpos", "moves", "e2e4", "e7e5", "g1f3"})

	want := "rnbqkbnr/pppp1ppp/8/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R b KQkq - 1 2"
	if got := u.position.ToFEN(); got != want {
		t.Errorf("position after moves:\n got %q\nwant %q", got, want)
	}
}

func TestHandlePositionFEN(t *testing.T) {
	u := newTestUCI()

	fen := "r3k2r/p1ppqpb1/bn2pnp1/2PpP3/1p2P3/2N2N2/PPQ1BPPP/R3K2R w KQkq - 0 1"
	args := append([]string{"fen"}, splitFields(fen)...)
	u.handlePosition(args)

	if got := u.position.ToFEN(); got != fen {
		t.Errorf("fen position:\n got %q\nwant %q", got, fen)
	}

	// FEN plus moves
	args = append(args, "moves", "e1g1")
	u.handlePosition(args)
	if u.position.CastlingRights&(board.WhiteKingSideCastle|board.WhiteQueenSideCastle) != 0 {
		t.Error("castling rights survived e1g1")
	}
}

func TestHandlePositionRejectsIllegalMove(t *testing.T) {
	u := newTestUCI()

	u.handlePosition([]string{"startpos", "moves", "e2e5"})

	// The illegal move aborts application; the start position stands.
	if got := u.position.ToFEN(); got != board.StartFEN {
		t.Errorf("position after illegal move: %q", got)
	}
}

func TestParseGoArgs(t *testing.T) {
	clock, depth := parseGoArgs(splitFields("wtime 60000 btime 30000 winc 1000 binc 500 movestogo 20 depth 12"))

	if clock.Time[board.White] != 60*time.Second || clock.Time[board.Black] != 30*time.Second {
		t.Errorf("clock times wrong: %+v", clock)
	}
	if clock.Inc[board.White] != time.Second || clock.Inc[board.Black] != 500*time.Millisecond {
		t.Errorf("increments wrong: %+v", clock)
	}
	if clock.MovesToGo != 20 || depth != 12 {
		t.Errorf("movestogo=%d depth=%d", clock.MovesToGo, depth)
	}

	clock, _ = parseGoArgs(splitFields("infinite"))
	if !clock.Infinite {
		t.Error("infinite flag not parsed")
	}

	clock, _ = parseGoArgs(splitFields("movetime 2500"))
	if clock.MoveTime != 2500*time.Millisecond {
		t.Errorf("movetime = %v", clock.MoveTime)
	}
}

func splitFields(s string) []string {
	return strings.Fields(s)
}
