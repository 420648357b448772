package engine

import (
	"math/bits"

	"github.com/hailam/chesster/internal/board"
)

// Bound indicates the kind of score stored in a transposition entry.
type Bound uint8

const (
	BoundEmpty Bound = iota // unused slot
	BoundExact              // score inside the search window
	BoundLower              // failed high (score >= beta)
	BoundUpper              // failed low (score <= alpha)
)

// TTEntry is one transposition table slot.
type TTEntry struct {
	Key      uint64     // Full Zobrist key for verification
	BestMove board.Move // Best move found at this node
	Score    int32      // Stored score (mate scores are ply-relative)
	Depth    int16      // Remaining depth at store time
	Bound    Bound
}

// TranspositionTable is a fixed-size, key-indexed cache of search
// results with depth-preferred replacement. The search is
// single-threaded, so slots are plain values with no locking.
type TranspositionTable struct {
	entries []TTEntry
	mask    uint64
}

// NewTranspositionTable creates a table with the given size in MB,
// rounded down to a power-of-two entry count.
func NewTranspositionTable(sizeMB int) *TranspositionTable {
	entrySize := uint64(24)
	numEntries := (uint64(sizeMB) * 1024 * 1024) / entrySize
	if numEntries < 1 {
		numEntries = 1
	}
	numEntries = uint64(1) << (63 - bits.LeadingZeros64(numEntries))

	return &TranspositionTable{
		entries: make([]TTEntry, numEntries),
		mask:    numEntries - 1,
	}
}

// Probe looks up a position. It misses when the slot is empty or holds
// a different key.
func (tt *TranspositionTable) Probe(hash uint64) (TTEntry, bool) {
	entry := tt.entries[hash&tt.mask]
	if entry.Bound == BoundEmpty || entry.Key != hash {
		return TTEntry{}, false
	}
	return entry, true
}

// Store saves a search result. The slot is replaced when it is empty,
// holds a different position, or the new search is at least as deep.
func (tt *TranspositionTable) Store(hash uint64, depth, score int, bound Bound, bestMove board.Move) {
	entry := &tt.entries[hash&tt.mask]

	if entry.Bound != BoundEmpty && entry.Key == hash && int(entry.Depth) > depth {
		return
	}

	entry.Key = hash
	entry.BestMove = bestMove
	entry.Score = int32(score)
	entry.Depth = int16(depth)
	entry.Bound = bound
}

// Clear wipes the table (between games and adversarial test runs).
func (tt *TranspositionTable) Clear() {
	for i := range tt.entries {
		tt.entries[i] = TTEntry{}
	}
}

// Size returns the number of entries in the table.
func (tt *TranspositionTable) Size() uint64 {
	return uint64(len(tt.entries))
}

// Mate scores are stored relative to the node's ply so they stay
// comparable across depths; search-facing values are root-relative.

// AdjustScoreToTT converts a search score for storage.
func AdjustScoreToTT(score, ply int) int {
	if score > MateScore-MaxPly {
		return score + ply
	}
	if score < -MateScore+MaxPly {
		return score - ply
	}
	return score
}

// AdjustScoreFromTT converts a stored score back for the probing node.
func AdjustScoreFromTT(score, ply int) int {
	if score > MateScore-MaxPly {
		return score - ply
	}
	if score < -MateScore+MaxPly {
		return score + ply
	}
	return score
}
