package engine

import (
	"sync/atomic"
	"time"

	"github.com/hailam/chesster/internal/board"
	"github.com/hailam/chesster/internal/nnue"
)

// Search constants.
const (
	Infinity  = 30000
	MateScore = 29000
	MaxPly    = 128
)

// Aspiration window parameters: seed width in centipawns, doubling on
// every fail until the full window takes over.
const (
	aspirationDelta = 250
	aspirationMax   = 2000
)

// timeCheckMask throttles the wall-clock poll to roughly every 32 nodes.
const timeCheckMask = 31

// SearchInfo reports one completed iteration.
type SearchInfo struct {
	Depth int
	Score int
	Nodes uint64
	Time  time.Duration
	Move  board.Move
}

// PVTable stores the principal variation, triangular by ply.
type PVTable struct {
	length [MaxPly]int
	moves  [MaxPly][MaxPly]board.Move
}

// Searcher owns the process-scoped search state: transposition table,
// move ordering, NNUE network and the stop flag. One Searcher drives
// one search at a time; the Position it is handed is mutated in place
// and fully restored before returning.
type Searcher struct {
	tt      *TranspositionTable
	orderer *MoveOrderer
	net     *nnue.Network

	pos  *board.Position
	eval *nnue.State

	nodes    uint64
	pv       PVTable
	rootBest board.Move // best root move of the in-flight iteration
	aborted  bool

	startTime    time.Time
	softDeadline time.Time
	hardDeadline time.Time

	stopFlag atomic.Bool

	// OnInfo, when set, is called after every completed depth.
	OnInfo func(SearchInfo)
}

// NewSearcher creates a searcher around a transposition table and a
// loaded network.
func NewSearcher(tt *TranspositionTable, net *nnue.Network) *Searcher {
	return &Searcher{
		tt:      tt,
		orderer: NewMoveOrderer(),
		net:     net,
	}
}

// Stop signals the search to abort at the next time poll.
func (s *Searcher) Stop() {
	s.stopFlag.Store(true)
}

// ResetStop clears a pending stop signal.
func (s *Searcher) ResetStop() {
	s.stopFlag.Store(false)
}

// ClearTT resets the transposition table (new game).
func (s *Searcher) ClearTT() {
	s.tt.Clear()
}

// Nodes returns the node count of the last search.
func (s *Searcher) Nodes() uint64 {
	return s.nodes
}

// SearchBestMove runs a fixed-depth search with no time limit.
func (s *Searcher) SearchBestMove(pos *board.Position, depth int) (board.Move, int) {
	return s.SearchBestMoveTimed(pos, depth, 0, 0)
}

// SearchBestMoveTimed runs iterative deepening up to maxDepth under
// two millisecond budgets: soft (no new iteration after it) and hard
// (abort as soon as detected). Zero budgets disable time control.
func (s *Searcher) SearchBestMoveTimed(pos *board.Position, maxDepth int, softMs, hardMs int64) (board.Move, int) {
	s.begin(pos, softMs, hardMs)

	if maxDepth < 1 || maxDepth > MaxPly-1 {
		maxDepth = MaxPly - 1
	}

	// The fifty-move draw is already claimable: score it as such, but
	// still hand back a legal move.
	if pos.HalfMoveClock >= 100 {
		moves := pos.GenerateLegalMoves()
		if moves.Len() > 0 {
			return moves.Get(0), 0
		}
	}

	bestMove := board.NoMove
	bestScore := -Infinity
	lastScore := 0

	for depth := 1; depth <= maxDepth; depth++ {
		if depth > 1 && s.pastSoft() {
			break
		}

		score, ok := s.searchRoot(depth, lastScore, depth > 1)
		if !ok {
			break
		}
		lastScore = score

		if s.pv.length[0] > 0 {
			bestMove = s.pv.moves[0][0]
		}
		bestScore = score

		if s.OnInfo != nil {
			s.OnInfo(SearchInfo{
				Depth: depth,
				Score: score,
				Nodes: s.nodes,
				Time:  time.Since(s.startTime),
				Move:  bestMove,
			})
		}

		// A forced mate found at this depth cannot improve.
		if score > MateScore-MaxPly || score < -MateScore+MaxPly {
			break
		}
	}

	if bestMove == board.NoMove {
		// No completed iteration: prefer the best move the aborted
		// iteration saw, else any legal move.
		bestMove = s.rootBest
	}
	if bestMove == board.NoMove {
		moves := pos.GenerateLegalMoves()
		if moves.Len() > 0 {
			bestMove = moves.Get(0)
		}
	}

	return bestMove, bestScore
}

// begin resets per-search state and installs the time budgets.
func (s *Searcher) begin(pos *board.Position, softMs, hardMs int64) {
	s.pos = pos
	s.eval = nnue.NewState(s.net, pos)
	s.nodes = 0
	s.aborted = false
	s.rootBest = board.NoMove
	s.pv = PVTable{}
	s.orderer.Clear()

	s.startTime = time.Now()
	s.softDeadline = time.Time{}
	s.hardDeadline = time.Time{}
	if softMs > 0 {
		s.softDeadline = s.startTime.Add(time.Duration(softMs) * time.Millisecond)
	}
	if hardMs > 0 {
		s.hardDeadline = s.startTime.Add(time.Duration(hardMs) * time.Millisecond)
	}
}

func (s *Searcher) pastSoft() bool {
	return !s.softDeadline.IsZero() && !time.Now().Before(s.softDeadline)
}

// checkTime is polled about every 32 nodes; it latches the abort flag
// on a stop signal or the hard deadline.
func (s *Searcher) checkTime() {
	if s.stopFlag.Load() {
		s.aborted = true
		return
	}
	if !s.hardDeadline.IsZero() && !time.Now().Before(s.hardDeadline) {
		s.aborted = true
	}
}

// searchRoot runs one iteration, wrapped in an aspiration window
// seeded from the previous score. Fail-low and fail-high widen the
// window; past aspirationMax the full window is used.
func (s *Searcher) searchRoot(depth, prevScore int, aspire bool) (int, bool) {
	alpha, beta := -Infinity, Infinity
	delta := aspirationDelta
	if aspire {
		alpha = prevScore - delta
		beta = prevScore + delta
	}

	for {
		score := s.negamax(depth, 0, alpha, beta)
		if s.aborted {
			return 0, false
		}

		if score <= alpha {
			delta *= 2
			alpha = score - delta
		} else if score >= beta {
			delta *= 2
			beta = score + delta
		} else {
			return score, true
		}

		if delta > aspirationMax {
			alpha, beta = -Infinity, Infinity
		}
		if alpha < -Infinity {
			alpha = -Infinity
		}
		if beta > Infinity {
			beta = Infinity
		}
	}
}

// negamax is the interior alpha-beta search with principal variation
// search and transposition cuts.
func (s *Searcher) negamax(depth, ply, alpha, beta int) int {
	s.nodes++
	if s.nodes&timeCheckMask == 0 {
		s.checkTime()
	}
	if s.aborted {
		// Bounded fallback once the hard budget is gone.
		return s.eval.Evaluate()
	}

	if ply > 0 {
		s.pv.length[ply] = ply
	} else {
		s.pv.length[0] = 0
	}

	// Transposition probe. At the root the entry only seeds ordering.
	ttMove := board.NoMove
	if entry, ok := s.tt.Probe(s.pos.Hash); ok {
		ttMove = entry.BestMove
		if ply > 0 && int(entry.Depth) >= depth {
			score := AdjustScoreFromTT(int(entry.Score), ply)
			switch entry.Bound {
			case BoundExact:
				return score
			case BoundLower:
				if score >= beta {
					return score
				}
			case BoundUpper:
				if score <= alpha {
					return score
				}
			}
		}
	}

	// Fifty-move draw
	if ply > 0 && s.pos.HalfMoveClock >= 100 {
		return 0
	}

	if depth <= 0 {
		return s.quiescence(ply, alpha, beta)
	}
	if ply >= MaxPly-1 {
		return s.eval.Evaluate()
	}

	moves := s.pos.GenerateLegalMoves()
	if moves.Len() == 0 {
		score := 0
		if s.pos.InCheck() {
			score = -MateScore + ply
		}
		s.tt.Store(s.pos.Hash, depth, AdjustScoreToTT(score, ply), BoundExact, board.NoMove)
		return score
	}

	scores := s.orderer.ScoreMoves(s.pos, moves, ply, ttMove)

	origAlpha := alpha
	bestScore := -Infinity
	bestMove := board.NoMove

	for i := 0; i < moves.Len(); i++ {
		PickMove(moves, scores, i)
		m := moves.Get(i)

		delta := s.eval.Update(s.pos, m)
		undo := s.pos.MakeMove(m)

		var score int
		if i == 0 {
			score = -s.negamax(depth-1, ply+1, -beta, -alpha)
		} else {
			// Null-window scout, full research on a raise.
			score = -s.negamax(depth-1, ply+1, -alpha-1, -alpha)
			if score > alpha && score < beta {
				score = -s.negamax(depth-1, ply+1, -beta, -alpha)
			}
		}

		s.pos.UnmakeMove(m, undo)
		s.eval.Revert(&delta)

		if s.aborted {
			break
		}

		if score > bestScore {
			bestScore = score
			bestMove = m

			if score > alpha {
				alpha = score
				s.updatePV(ply, m)
				if ply == 0 {
					s.rootBest = m
				}
			}
		}

		if alpha >= beta {
			if m.IsQuiet() {
				s.orderer.UpdateKillers(m, ply)
				s.orderer.UpdateHistory(s.pos.SideToMove, m, depth)
			}
			break
		}
	}

	if s.aborted {
		return bestScore
	}

	bound := BoundExact
	if bestScore <= origAlpha {
		bound = BoundUpper
	} else if bestScore >= beta {
		bound = BoundLower
	}
	s.tt.Store(s.pos.Hash, depth, AdjustScoreToTT(bestScore, ply), bound, bestMove)

	return bestScore
}

// quiescence resolves captures (and promotions) so the static
// evaluation is only taken in quiet positions. In check every evasion
// is searched with no stand-pat.
func (s *Searcher) quiescence(ply, alpha, beta int) int {
	s.nodes++
	if s.nodes&timeCheckMask == 0 {
		s.checkTime()
	}
	if s.aborted {
		return s.eval.Evaluate()
	}
	if ply >= MaxPly-1 {
		return s.eval.Evaluate()
	}

	inCheck := s.pos.InCheck()

	var moves *board.MoveList
	if inCheck {
		moves = s.pos.GenerateLegalMoves()
		if moves.Len() == 0 {
			return -MateScore + ply
		}
	} else {
		standPat := s.eval.Evaluate()
		if standPat >= beta {
			return beta
		}
		if standPat > alpha {
			alpha = standPat
		}
		moves = s.pos.GenerateCaptures()
	}

	scores := s.orderer.ScoreMoves(s.pos, moves, ply, board.NoMove)

	for i := 0; i < moves.Len(); i++ {
		PickMove(moves, scores, i)
		m := moves.Get(i)

		delta := s.eval.Update(s.pos, m)
		undo := s.pos.MakeMove(m)
		score := -s.quiescence(ply+1, -beta, -alpha)
		s.pos.UnmakeMove(m, undo)
		s.eval.Revert(&delta)

		if s.aborted {
			break
		}

		if score >= beta {
			return beta
		}
		if score > alpha {
			alpha = score
		}
	}

	return alpha
}

// updatePV writes the move into the triangular PV table.
func (s *Searcher) updatePV(ply int, m board.Move) {
	s.pv.moves[ply][ply] = m
	for j := ply + 1; j < s.pv.length[ply+1]; j++ {
		s.pv.moves[ply][j] = s.pv.moves[ply+1][j]
	}
	s.pv.length[ply] = s.pv.length[ply+1]
	if s.pv.length[ply] <= ply {
		s.pv.length[ply] = ply + 1
	}
}

// PV returns the principal variation held in the PV table: that of the
// last completed iteration, or the partial one of an aborted iteration.
func (s *Searcher) PV() []board.Move {
	pv := make([]board.Move, s.pv.length[0])
	for i := range pv {
		pv[i] = s.pv.moves[0][i]
	}
	return pv
}

// MateIn converts a mate score into full moves until mate, or 0 if the
// score is not a mate score. Negative means the side to move is mated.
func MateIn(score int) int {
	if score > MateScore-MaxPly {
		return (MateScore - score + 1) / 2
	}
	if score < -MateScore+MaxPly {
		return -(MateScore + score + 1) / 2
	}
	return 0
}
