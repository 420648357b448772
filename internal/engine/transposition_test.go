package engine

import (
	"testing"

	"github.com/hailam/chesster/internal/board"
)

func TestTTStoreProbe(t *testing.T) {
	tt := NewTranspositionTable(1)

	key := uint64(0x1234567890ABCDEF)
	move := board.NewMove(board.E2, board.E4, board.DoublePush)

	if _, ok := tt.Probe(key); ok {
		t.Fatal("probe of a fresh table must miss")
	}

	tt.Store(key, 6, 42, BoundExact, move)

	entry, ok := tt.Probe(key)
	if !ok {
		t.Fatal("probe after store must hit")
	}
	if entry.BestMove != move || entry.Score != 42 || entry.Depth != 6 || entry.Bound != BoundExact {
		t.Errorf("entry mismatch: %+v", entry)
	}

	// A different key mapping anywhere must miss on verification.
	if _, ok := tt.Probe(key ^ 0xFF); ok {
		t.Error("probe with a different key must miss")
	}
}

func TestTTDepthPreferredReplacement(t *testing.T) {
	tt := NewTranspositionTable(1)
	key := uint64(42)

	deep := board.NewMove(board.G1, board.F3, board.Quiet)
	shallow := board.NewMove(board.B1, board.C3, board.Quiet)

	tt.Store(key, 8, 100, BoundExact, deep)
	tt.Store(key, 3, -50, BoundLower, shallow) // shallower: ignored

	entry, ok := tt.Probe(key)
	if !ok {
		t.Fatal("expected hit")
	}
	if entry.BestMove != deep || entry.Depth != 8 {
		t.Error("shallower search replaced a deeper entry")
	}

	tt.Store(key, 8, 7, BoundUpper, shallow) // same depth: replaces
	entry, _ = tt.Probe(key)
	if entry.BestMove != shallow || entry.Bound != BoundUpper {
		t.Error("equal-depth store must replace")
	}

	// A colliding key always evicts, whatever the depths.
	other := key + tt.Size()
	tt.Store(other, 1, 1, BoundExact, deep)
	if _, ok := tt.Probe(key); ok {
		t.Error("old key should have been evicted by the collision")
	}
	if _, ok := tt.Probe(other); !ok {
		t.Error("colliding store should be present")
	}
}

func TestTTClear(t *testing.T) {
	tt := NewTranspositionTable(1)
	tt.Store(7, 5, 1, BoundExact, board.NewMove(board.A2, board.A4, board.DoublePush))
	tt.Clear()
	if _, ok := tt.Probe(7); ok {
		t.Error("probe after clear must miss")
	}
}

func TestTTSizePowerOfTwo(t *testing.T) {
	for _, mb := range []int{1, 2, 16, 64} {
		tt := NewTranspositionTable(mb)
		n := tt.Size()
		if n == 0 || n&(n-1) != 0 {
			t.Errorf("size %d MB: %d entries is not a power of two", mb, n)
		}
	}
}

func TestMateScoreAdjustment(t *testing.T) {
	// A mate found 5 plies from this node, stored at ply 3 and probed
	// at ply 7, must keep its distance-to-mate from each probing node.
	score := MateScore - 5

	stored := AdjustScoreToTT(score, 3)
	if back := AdjustScoreFromTT(stored, 3); back != score {
		t.Errorf("round trip at same ply: %d -> %d", score, back)
	}

	probed := AdjustScoreFromTT(stored, 7)
	if probed != score-4 {
		t.Errorf("probe at deeper ply: got %d, want %d", probed, score-4)
	}

	// Non-mate scores pass through untouched.
	if AdjustScoreToTT(123, 9) != 123 || AdjustScoreFromTT(-321, 9) != -321 {
		t.Error("ordinary scores must not be adjusted")
	}
}
