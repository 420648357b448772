package board

// MakeMove applies a move to the position and returns the undo record.
// The move must come from this position's move generator; legality is
// not re-checked here.
func (p *Position) MakeMove(m Move) UndoInfo {
	us := p.SideToMove
	them := us.Other()
	from := m.From()
	to := m.To()
	flag := m.Flag()
	moved := p.PieceTypeAt(us, from)

	undo := UndoInfo{
		MovedPiece:     moved,
		CapturedPiece:  NoPieceType,
		CastlingRights: p.CastlingRights,
		EnPassant:      p.EnPassant,
		HalfMoveClock:  p.HalfMoveClock,
		FullMoveNumber: p.FullMoveNumber,
		Hash:           p.Hash,
	}

	// The en passant and castling hash components are re-added after
	// the move settles; XOR them out against the pre-move state.
	p.Hash ^= p.epZobrist()
	p.Hash ^= zobristCastleMask(p.CastlingRights)
	p.EnPassant = NoSquare

	// Captures, including the displaced en passant pawn
	switch {
	case flag == EnPassant:
		capSq := to - 8
		if us == Black {
			capSq = to + 8
		}
		undo.CapturedPiece = Pawn
		p.clearPiece(them, Pawn, capSq)
		p.Hash ^= zobristPiece[them][Pawn][capSq]
	case flag == Capture || flag >= PromoKnightCapture:
		captured := p.PieceTypeAt(them, to)
		undo.CapturedPiece = captured
		p.clearPiece(them, captured, to)
		p.Hash ^= zobristPiece[them][captured][to]
	}

	// Lift the moved piece off its origin
	p.clearPiece(us, moved, from)
	p.Hash ^= zobristPiece[us][moved][from]

	switch {
	case flag == KingCastle || flag == QueenCastle:
		p.setPiece(us, King, to)
		p.Hash ^= zobristPiece[us][King][to]

		rookFrom, rookTo := castleRookSquares(us, flag)
		p.clearPiece(us, Rook, rookFrom)
		p.setPiece(us, Rook, rookTo)
		p.Hash ^= zobristPiece[us][Rook][rookFrom]
		p.Hash ^= zobristPiece[us][Rook][rookTo]
	case m.IsPromotion():
		promo := m.Promotion()
		p.setPiece(us, promo, to)
		p.Hash ^= zobristPiece[us][promo][to]
	default:
		p.setPiece(us, moved, to)
		p.Hash ^= zobristPiece[us][moved][to]

		if flag == DoublePush {
			p.EnPassant = Square((int(from) + int(to)) / 2)
		}
	}

	// Castling rights: king moves clear both; rook moves and rook
	// captures clear the right of the affected corner.
	if moved == King {
		if us == White {
			p.CastlingRights &^= WhiteKingSideCastle | WhiteQueenSideCastle
		} else {
			p.CastlingRights &^= BlackKingSideCastle | BlackQueenSideCastle
		}
	}
	if from == A1 || to == A1 {
		p.CastlingRights &^= WhiteQueenSideCastle
	}
	if from == H1 || to == H1 {
		p.CastlingRights &^= WhiteKingSideCastle
	}
	if from == A8 || to == A8 {
		p.CastlingRights &^= BlackQueenSideCastle
	}
	if from == H8 || to == H8 {
		p.CastlingRights &^= BlackKingSideCastle
	}
	p.Hash ^= zobristCastleMask(p.CastlingRights)

	// Clocks
	if moved == Pawn || undo.CapturedPiece != NoPieceType {
		p.HalfMoveClock = 0
	} else {
		p.HalfMoveClock++
	}
	if us == Black {
		p.FullMoveNumber++
	}

	p.SideToMove = them
	p.Hash ^= zobristSideToMove

	// EP file key is included only when the new side to move can
	// actually capture onto the target.
	p.Hash ^= p.epZobrist()

	return undo
}

// UnmakeMove reverses a move using the stored undo record.
func (p *Position) UnmakeMove(m Move, undo UndoInfo) {
	them := p.SideToMove
	us := them.Other() // side that made the move
	from := m.From()
	to := m.To()
	flag := m.Flag()

	p.SideToMove = us
	p.CastlingRights = undo.CastlingRights
	p.EnPassant = undo.EnPassant
	p.HalfMoveClock = undo.HalfMoveClock
	p.FullMoveNumber = undo.FullMoveNumber
	p.Hash = undo.Hash

	switch {
	case flag == KingCastle || flag == QueenCastle:
		p.clearPiece(us, King, to)
		p.setPiece(us, King, from)

		rookFrom, rookTo := castleRookSquares(us, flag)
		p.clearPiece(us, Rook, rookTo)
		p.setPiece(us, Rook, rookFrom)
	case m.IsPromotion():
		p.clearPiece(us, m.Promotion(), to)
		p.setPiece(us, Pawn, from)
	default:
		p.clearPiece(us, undo.MovedPiece, to)
		p.setPiece(us, undo.MovedPiece, from)
	}

	if undo.CapturedPiece != NoPieceType {
		if flag == EnPassant {
			capSq := to - 8
			if us == Black {
				capSq = to + 8
			}
			p.setPiece(them, Pawn, capSq)
		} else {
			p.setPiece(them, undo.CapturedPiece, to)
		}
	}
}

// castleRookSquares returns the rook origin and destination for a
// castling move: H1<->F1, A1<->D1, H8<->F8, A8<->D8.
func castleRookSquares(us Color, flag MoveFlag) (from, to Square) {
	if us == White {
		if flag == KingCastle {
			return H1, F1
		}
		return A1, D1
	}
	if flag == KingCastle {
		return H8, F8
	}
	return A8, D8
}
