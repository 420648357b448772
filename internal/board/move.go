package board

import "fmt"

// Move encodes a chess move in 16 bits:
// bits 0-5:   from square (0-63)
// bits 6-11:  to square (0-63)
// bits 12-15: move flag (MoveFlag)
type Move uint16

// MoveFlag classifies a move. The set is closed: exactly the fourteen
// constants below are valid, values 6 and 7 are unused.
type MoveFlag uint8

const (
	Quiet              MoveFlag = 0
	DoublePush         MoveFlag = 1
	KingCastle         MoveFlag = 2
	QueenCastle        MoveFlag = 3
	Capture            MoveFlag = 4
	EnPassant          MoveFlag = 5
	PromoKnight        MoveFlag = 8
	PromoBishop        MoveFlag = 9
	PromoRook          MoveFlag = 10
	PromoQueen         MoveFlag = 11
	PromoKnightCapture MoveFlag = 12
	PromoBishopCapture MoveFlag = 13
	PromoRookCapture   MoveFlag = 14
	PromoQueenCapture  MoveFlag = 15
)

// IsValid returns true if the flag is one of the fourteen enumerated cases.
func (f MoveFlag) IsValid() bool {
	return f <= EnPassant || (f >= PromoKnight && f <= PromoQueenCapture)
}

// NoMove represents an invalid or null move.
const NoMove Move = 0

// NewMove creates a move with the given flag.
func NewMove(from, to Square, flag MoveFlag) Move {
	return Move(from) | Move(to)<<6 | Move(flag)<<12
}

// NewPromotion creates a promotion move (capture variant when capture is true).
func NewPromotion(from, to Square, promo PieceType, capture bool) Move {
	flag := PromoKnight + MoveFlag(promo-Knight)
	if capture {
		flag += PromoKnightCapture - PromoKnight
	}
	return NewMove(from, to, flag)
}

// From returns the origin square.
func (m Move) From() Square {
	return Square(m & 0x3F)
}

// To returns the destination square.
func (m Move) To() Square {
	return Square((m >> 6) & 0x3F)
}

// Flag returns the move flag.
func (m Move) Flag() MoveFlag {
	return MoveFlag(m >> 12)
}

// IsPromotion returns true if this is a promotion move.
func (m Move) IsPromotion() bool {
	return m.Flag() >= PromoKnight
}

// IsCapture returns true if this move captures a piece (including en passant).
func (m Move) IsCapture() bool {
	f := m.Flag()
	return f == Capture || f == EnPassant || f >= PromoKnightCapture
}

// IsCastling returns true if this is a castling move.
func (m Move) IsCastling() bool {
	f := m.Flag()
	return f == KingCastle || f == QueenCastle
}

// IsEnPassant returns true if this is an en passant capture.
func (m Move) IsEnPassant() bool {
	return m.Flag() == EnPassant
}

// IsQuiet returns true if this is not a capture or promotion.
func (m Move) IsQuiet() bool {
	return !m.IsCapture() && !m.IsPromotion()
}

// Promotion returns the promoted piece type (only valid for promotion flags).
func (m Move) Promotion() PieceType {
	return Knight + PieceType((m.Flag()-PromoKnight)&3)
}

// String returns the UCI format of the move (e.g., "e2e4", "e7e8q").
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}

	s := m.From().String() + m.To().String()

	if m.IsPromotion() {
		promoChars := []byte{'n', 'b', 'r', 'q'}
		s += string(promoChars[m.Promotion()-Knight])
	}

	return s
}

// ParseMove parses a UCI format move string by matching it against the
// legal moves of the position. This keeps the boundary encoding (from,
// to, optional promotion letter) decoupled from the internal flags.
func ParseMove(s string, pos *Position) (Move, error) {
	if len(s) < 4 || len(s) > 5 {
		return NoMove, fmt.Errorf("invalid move string: %s", s)
	}

	from, err := ParseSquare(s[0:2])
	if err != nil {
		return NoMove, err
	}

	to, err := ParseSquare(s[2:4])
	if err != nil {
		return NoMove, err
	}

	promo := NoPieceType
	if len(s) == 5 {
		switch s[4] {
		case 'n':
			promo = Knight
		case 'b':
			promo = Bishop
		case 'r':
			promo = Rook
		case 'q':
			promo = Queen
		default:
			return NoMove, fmt.Errorf("invalid promotion piece: %c", s[4])
		}
	}

	legal := pos.GenerateLegalMoves()
	for i := 0; i < legal.Len(); i++ {
		m := legal.Get(i)
		if m.From() != from || m.To() != to {
			continue
		}
		if m.IsPromotion() {
			if m.Promotion() == promo {
				return m, nil
			}
			continue
		}
		if promo == NoPieceType {
			return m, nil
		}
	}

	return NoMove, fmt.Errorf("illegal move: %s", s)
}

// MoveList is a fixed-size list of moves to avoid allocations.
type MoveList struct {
	moves [256]Move
	count int
}

// NewMoveList creates an empty move list.
func NewMoveList() *MoveList {
	return &MoveList{}
}

// Add adds a move to the list.
func (ml *MoveList) Add(m Move) {
	ml.moves[ml.count] = m
	ml.count++
}

// Len returns the number of moves in the list.
func (ml *MoveList) Len() int {
	return ml.count
}

// Get returns the move at index i.
func (ml *MoveList) Get(i int) Move {
	return ml.moves[i]
}

// Swap swaps two moves in the list.
func (ml *MoveList) Swap(i, j int) {
	ml.moves[i], ml.moves[j] = ml.moves[j], ml.moves[i]
}

// Clear clears the list.
func (ml *MoveList) Clear() {
	ml.count = 0
}

// Contains returns true if the list contains the move.
func (ml *MoveList) Contains(m Move) bool {
	for i := 0; i < ml.count; i++ {
		if ml.moves[i] == m {
			return true
		}
	}
	return false
}

// Slice returns the moves as a slice.
func (ml *MoveList) Slice() []Move {
	return ml.moves[:ml.count]
}

// UndoInfo stores the state needed to reverse a move.
type UndoInfo struct {
	MovedPiece     PieceType
	CapturedPiece  PieceType // NoPieceType when nothing was captured
	CastlingRights CastlingRights
	EnPassant      Square
	HalfMoveClock  int
	FullMoveNumber int
	Hash           uint64
}
