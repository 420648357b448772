package nnue

import (
	"github.com/hailam/chesster/internal/board"
)

// FeatureIndex computes the input feature for a piece as seen from the
// given reference color. Planes 0-5 hold the reference side's pieces,
// 6-11 the opponent's; squares are rank-flipped for the black
// perspective.
func FeatureIndex(ref, side board.Color, pt board.PieceType, sq board.Square) int {
	base := int(pt)
	if side != ref {
		base += 6
	}
	s := int(sq)
	if ref == board.Black {
		s = int(sq.Mirror())
	}
	return base*64 + s
}

// State carries the two perspective accumulators plus the side to
// move. It is mutated in lockstep with make/unmake via Update/Revert.
type State struct {
	net *Network

	// Quantised accumulators
	accW []int32
	accB []int32

	// Float accumulators
	accWf []float32
	accBf []float32

	stm board.Color
}

// Delta records one Update so it can be reverted: up to 4 added and 4
// removed feature columns per perspective, plus the prior side to move.
type Delta struct {
	addW, addB   [4]int32
	remW, remB   [4]int32
	nAddW, nAddB uint8
	nRemW, nRemB uint8
	stmBefore    board.Color
}

// NewState builds the accumulators for a position from scratch: bias
// plus the feature column of every piece on the board.
func NewState(net *Network, pos *board.Position) *State {
	s := &State{net: net, stm: pos.SideToMove}

	h := net.H
	if net.Quantised {
		s.accW = make([]int32, h)
		s.accB = make([]int32, h)
		for i := 0; i < h; i++ {
			s.accW[i] = int32(net.b0q[i])
			s.accB[i] = int32(net.b0q[i])
		}
	} else {
		s.accWf = make([]float32, h)
		s.accBf = make([]float32, h)
		copy(s.accWf, net.b0f)
		copy(s.accBf, net.b0f)
	}

	for c := board.White; c <= board.Black; c++ {
		for pt := board.Pawn; pt <= board.King; pt++ {
			bb := pos.Pieces[c][pt]
			for bb != 0 {
				sq := bb.PopLSB()
				s.addColumn(FeatureIndex(board.White, c, pt, sq), FeatureIndex(board.Black, c, pt, sq), +1)
			}
		}
	}

	return s
}

// addColumn applies one feature column to both accumulators with the
// given sign.
func (s *State) addColumn(featW, featB, sign int) {
	h := s.net.H
	if s.net.Quantised {
		colW := s.net.w0q[featW*h : (featW+1)*h]
		colB := s.net.w0q[featB*h : (featB+1)*h]
		if sign > 0 {
			for i := 0; i < h; i++ {
				s.accW[i] += int32(colW[i])
				s.accB[i] += int32(colB[i])
			}
		} else {
			for i := 0; i < h; i++ {
				s.accW[i] -= int32(colW[i])
				s.accB[i] -= int32(colB[i])
			}
		}
		return
	}

	colW := s.net.w0f[featW*h : (featW+1)*h]
	colB := s.net.w0f[featB*h : (featB+1)*h]
	if sign > 0 {
		for i := 0; i < h; i++ {
			s.accWf[i] += colW[i]
			s.accBf[i] += colB[i]
		}
	} else {
		for i := 0; i < h; i++ {
			s.accWf[i] -= colW[i]
			s.accBf[i] -= colB[i]
		}
	}
}

// applyOne applies a single perspective column by feature index.
func (s *State) applyOne(ref board.Color, feat int32, sign int) {
	h := s.net.H
	if s.net.Quantised {
		col := s.net.w0q[int(feat)*h : (int(feat)+1)*h]
		acc := s.accW
		if ref == board.Black {
			acc = s.accB
		}
		if sign > 0 {
			for i := 0; i < h; i++ {
				acc[i] += int32(col[i])
			}
		} else {
			for i := 0; i < h; i++ {
				acc[i] -= int32(col[i])
			}
		}
		return
	}

	col := s.net.w0f[int(feat)*h : (int(feat)+1)*h]
	acc := s.accWf
	if ref == board.Black {
		acc = s.accBf
	}
	if sign > 0 {
		for i := 0; i < h; i++ {
			acc[i] += col[i]
		}
	} else {
		for i := 0; i < h; i++ {
			acc[i] -= col[i]
		}
	}
}

// screluQ is the quantised Square-Clipped-ReLU: clamp(x, 0, QA)^2.
func screluQ(x int32) int64 {
	if x < 0 {
		x = 0
	}
	if x > QA {
		x = QA
	}
	return int64(x) * int64(x)
}

// screluF clamps to [0,1] and squares.
func screluF(x float32) float32 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}
	return x * x
}

// Evaluate combines both accumulators (side to move first) through the
// output layer and scales to centipawns, clamped to +/-EvalClamp.
func (s *State) Evaluate() int {
	h := s.net.H

	if s.net.Quantised {
		stmAcc, ntmAcc := s.accW, s.accB
		if s.stm == board.Black {
			stmAcc, ntmAcc = s.accB, s.accW
		}

		var out int64
		for i := 0; i < h; i++ {
			out += screluQ(stmAcc[i]) * int64(s.net.w1q[i])
		}
		for i := 0; i < h; i++ {
			out += screluQ(ntmAcc[i]) * int64(s.net.w1q[h+i])
		}

		out /= QA
		out += int64(s.net.b1q)
		out *= Scale
		out /= QA * QB

		if out > EvalClamp {
			out = EvalClamp
		}
		if out < -EvalClamp {
			out = -EvalClamp
		}
		return int(out)
	}

	stmAcc, ntmAcc := s.accWf, s.accBf
	if s.stm == board.Black {
		stmAcc, ntmAcc = s.accBf, s.accWf
	}

	y := s.net.b1f
	for i := 0; i < h; i++ {
		y += s.net.w1f[i] * screluF(stmAcc[i])
	}
	for i := 0; i < h; i++ {
		y += s.net.w1f[h+i] * screluF(ntmAcc[i])
	}

	cp := y * Scale
	if cp > EvalClamp {
		cp = EvalClamp
	}
	if cp < -EvalClamp {
		cp = -EvalClamp
	}
	return int(cp)
}

// Update applies the accumulator changes for a move about to be made
// on pos (pos is the position BEFORE the move) and toggles the side to
// move. The returned delta reverts the update exactly.
func (s *State) Update(pos *board.Position, m board.Move) Delta {
	var d Delta
	d.stmBefore = s.stm

	us := pos.SideToMove
	them := us.Other()
	from := m.From()
	to := m.To()
	flag := m.Flag()

	moved := pos.PieceTypeAt(us, from)

	captured := board.NoPieceType
	capSq := to
	switch {
	case flag == board.EnPassant:
		captured = board.Pawn
		if us == board.White {
			capSq = to - 8
		} else {
			capSq = to + 8
		}
	case m.IsCapture():
		captured = pos.PieceTypeAt(them, to)
	}

	d.rem(board.White, FeatureIndex(board.White, us, moved, from))
	d.rem(board.Black, FeatureIndex(board.Black, us, moved, from))

	if captured != board.NoPieceType {
		d.rem(board.White, FeatureIndex(board.White, them, captured, capSq))
		d.rem(board.Black, FeatureIndex(board.Black, them, captured, capSq))
	}

	placed := moved
	if m.IsPromotion() {
		placed = m.Promotion()
	}
	d.add(board.White, FeatureIndex(board.White, us, placed, to))
	d.add(board.Black, FeatureIndex(board.Black, us, placed, to))

	if flag == board.KingCastle || flag == board.QueenCastle {
		rookFrom, rookTo := castleRookSquares(us, flag)
		d.rem(board.White, FeatureIndex(board.White, us, board.Rook, rookFrom))
		d.rem(board.Black, FeatureIndex(board.Black, us, board.Rook, rookFrom))
		d.add(board.White, FeatureIndex(board.White, us, board.Rook, rookTo))
		d.add(board.Black, FeatureIndex(board.Black, us, board.Rook, rookTo))
	}

	// Apply: removals first, then additions
	for i := 0; i < int(d.nRemW); i++ {
		s.applyOne(board.White, d.remW[i], -1)
	}
	for i := 0; i < int(d.nRemB); i++ {
		s.applyOne(board.Black, d.remB[i], -1)
	}
	for i := 0; i < int(d.nAddW); i++ {
		s.applyOne(board.White, d.addW[i], +1)
	}
	for i := 0; i < int(d.nAddB); i++ {
		s.applyOne(board.Black, d.addB[i], +1)
	}

	s.stm = them
	return d
}

// Revert undoes an Update using its delta.
func (s *State) Revert(d *Delta) {
	for i := 0; i < int(d.nAddW); i++ {
		s.applyOne(board.White, d.addW[i], -1)
	}
	for i := 0; i < int(d.nAddB); i++ {
		s.applyOne(board.Black, d.addB[i], -1)
	}
	for i := 0; i < int(d.nRemW); i++ {
		s.applyOne(board.White, d.remW[i], +1)
	}
	for i := 0; i < int(d.nRemB); i++ {
		s.applyOne(board.Black, d.remB[i], +1)
	}

	s.stm = d.stmBefore
}

// SideToMove reports the side the state currently evaluates for.
func (s *State) SideToMove() board.Color {
	return s.stm
}

func (d *Delta) add(ref board.Color, feat int) {
	if ref == board.White {
		d.addW[d.nAddW] = int32(feat)
		d.nAddW++
	} else {
		d.addB[d.nAddB] = int32(feat)
		d.nAddB++
	}
}

func (d *Delta) rem(ref board.Color, feat int) {
	if ref == board.White {
		d.remW[d.nRemW] = int32(feat)
		d.nRemW++
	} else {
		d.remB[d.nRemB] = int32(feat)
		d.nRemB++
	}
}

// castleRookSquares mirrors the board package's rook relocation:
// H1<->F1, A1<->D1, H8<->F8, A8<->D8.
func castleRookSquares(us board.Color, flag board.MoveFlag) (from, to board.Square) {
	if us == board.White {
		if flag == board.KingCastle {
			return board.H1, board.F1
		}
		return board.A1, board.D1
	}
	if flag == board.KingCastle {
		return board.H8, board.F8
	}
	return board.A8, board.D8
}
