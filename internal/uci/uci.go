// Package uci implements the Universal Chess Interface protocol shell
// around the search core.
package uci

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hailam/chesster/internal/board"
	"github.com/hailam/chesster/internal/engine"
	"github.com/hailam/chesster/internal/storage"
)

// UCI drives the protocol loop: one engine, one current position.
type UCI struct {
	searcher *engine.Searcher
	position *board.Position

	evalFile string
	hashMB   int

	// Optional persistent analysis store
	store *storage.Storage

	searchDone chan struct{}
}

// New creates a UCI handler around a searcher.
func New(searcher *engine.Searcher) *UCI {
	return &UCI{
		searcher: searcher,
		position: board.NewPosition(),
		hashMB:   64,
	}
}

// SetStore attaches a persistent analysis store.
func (u *UCI) SetStore(store *storage.Storage) {
	u.store = store
}

// Run reads commands from stdin until quit or EOF.
func (u *UCI) Run() {
	scanner := bufio.NewScanner(os.Stdin)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "uci":
			u.handleUCI()
		case "isready":
			fmt.Println("readyok")
		case "ucinewgame":
			u.handleNewGame()
		case "position":
			u.handlePosition(args)
		case "go":
			u.handleGo(args)
		case "stop":
			u.handleStop()
		case "quit":
			u.handleStop()
			return
		case "setoption":
			u.handleSetOption(args)
		// Debug commands
		case "d":
			fmt.Println(u.position.String())
		case "perft":
			u.handlePerft(args)
		}
	}
}

// handleUCI responds to the "uci" command.
func (u *UCI) handleUCI() {
	fmt.Println("id name Chesster")
	fmt.Println("id author Chesster Team")
	fmt.Println()
	fmt.Println("option name Hash type spin default 64 min 1 max 4096")
	fmt.Println("option name EvalFile type string default <empty>")
	fmt.Println("uciok")
}

// handleNewGame resets the engine for a new game.
func (u *UCI) handleNewGame() {
	u.searcher.ClearTT()
	u.position = board.NewPosition()
}

// handlePosition parses and sets up a position.
// Formats:
//   - position startpos [moves e2e4 ...]
//   - position fen <fen> [moves e2e4 ...]
func (u *UCI) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}

	moveStart := len(args)
	for i, arg := range args {
		if arg == "moves" {
			moveStart = i + 1
			break
		}
	}

	switch args[0] {
	case "startpos":
		u.position = board.NewPosition()
	case "fen":
		fenEnd := moveStart
		if moveStart < len(args) {
			fenEnd = moveStart - 1
		}
		pos, err := board.ParseFEN(strings.Join(args[1:fenEnd], " "))
		if err != nil {
			fmt.Fprintf(os.Stderr, "info string Invalid FEN: %v\n", err)
			return
		}
		u.position = pos
	default:
		return
	}

	for _, moveStr := range args[moveStart:] {
		move, err := board.ParseMove(moveStr, u.position)
		if err != nil {
			fmt.Fprintf(os.Stderr, "info string Invalid move: %s\n", moveStr)
			return
		}
		u.position.MakeMove(move)
	}
}

// handleGo parses the time controls and runs the search.
func (u *UCI) handleGo(args []string) {
	clock, depth := parseGoArgs(args)
	budget := engine.AllocateTime(clock, int(u.position.SideToMove), 2*u.position.FullMoveNumber)

	if depth <= 0 {
		depth = engine.MaxPly - 1
	}

	u.searcher.ResetStop()
	u.searcher.OnInfo = func(info engine.SearchInfo) {
		sendInfo(info)
	}

	u.searchDone = make(chan struct{})
	pos := u.position.Copy()

	go func() {
		defer close(u.searchDone)

		bestMove, _, cached := u.cachedAnalysis(pos, depth)
		if !cached {
			var score int
			bestMove, score = u.searcher.SearchBestMoveTimed(pos, depth, budget.SoftMs, budget.HardMs)
			u.recordAnalysis(pos, bestMove, score, depth, u.searcher.Nodes())
		}

		fmt.Printf("bestmove %s\n", bestMove.String())
	}()
}

// cachedAnalysis serves a stored result when it is at least as deep as
// the request and still legal in the position.
func (u *UCI) cachedAnalysis(pos *board.Position, depth int) (board.Move, int, bool) {
	if u.store == nil || depth >= engine.MaxPly-1 {
		return board.NoMove, 0, false
	}

	a, found, err := u.store.LoadAnalysis(pos.Hash)
	if err != nil || !found || a.Depth < depth {
		return board.NoMove, 0, false
	}

	move, err := board.ParseMove(a.BestMove, pos)
	if err != nil {
		return board.NoMove, 0, false
	}

	fmt.Printf("info depth %d score cp %d nodes %d string cached\n", a.Depth, a.Score, a.Nodes)
	return move, a.Score, true
}

// recordAnalysis stores a finished search in the analysis store.
func (u *UCI) recordAnalysis(pos *board.Position, move board.Move, score, depth int, nodes uint64) {
	if u.store == nil || move == board.NoMove {
		return
	}
	err := u.store.SaveAnalysis(pos.Hash, &storage.Analysis{
		BestMove: move.String(),
		Score:    score,
		Depth:    depth,
		Nodes:    nodes,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "info string analysis store: %v\n", err)
	}
}

// parseGoArgs extracts the clock and depth limits from a "go" command.
func parseGoArgs(args []string) (engine.Clock, int) {
	var clock engine.Clock
	depth := 0

	intArg := func(i int) int {
		if i+1 < len(args) {
			if v, err := strconv.Atoi(args[i+1]); err == nil {
				return v
			}
		}
		return 0
	}

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "wtime":
			clock.Time[board.White] = time.Duration(intArg(i)) * time.Millisecond
		case "btime":
			clock.Time[board.Black] = time.Duration(intArg(i)) * time.Millisecond
		case "winc":
			clock.Inc[board.White] = time.Duration(intArg(i)) * time.Millisecond
		case "binc":
			clock.Inc[board.Black] = time.Duration(intArg(i)) * time.Millisecond
		case "movestogo":
			clock.MovesToGo = intArg(i)
		case "movetime":
			clock.MoveTime = time.Duration(intArg(i)) * time.Millisecond
		case "depth":
			depth = intArg(i)
		case "infinite":
			clock.Infinite = true
		}
	}

	return clock, depth
}

// handleStop aborts a running search and waits for its bestmove.
func (u *UCI) handleStop() {
	u.searcher.Stop()
	if u.searchDone != nil {
		<-u.searchDone
		u.searchDone = nil
	}
}

// handleSetOption applies "setoption name <id> [value <x>]".
func (u *UCI) handleSetOption(args []string) {
	var name, value string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "name":
			if i+1 < len(args) {
				name = args[i+1]
			}
		case "value":
			if i+1 < len(args) {
				value = strings.Join(args[i+1:], " ")
			}
		}
	}

	switch strings.ToLower(name) {
	case "hash":
		if mb, err := strconv.Atoi(value); err == nil && mb > 0 {
			u.hashMB = mb
		}
	case "evalfile":
		u.evalFile = value
	}

	if u.store != nil {
		err := u.store.SaveOptions(&storage.Options{HashMB: u.hashMB, EvalFile: u.evalFile})
		if err != nil {
			fmt.Fprintf(os.Stderr, "info string options store: %v\n", err)
		}
	}
}

// handlePerft runs a perft count on the current position.
func (u *UCI) handlePerft(args []string) {
	depth := 5
	if len(args) > 0 {
		if d, err := strconv.Atoi(args[0]); err == nil && d > 0 {
			depth = d
		}
	}

	start := time.Now()
	var total uint64
	for _, r := range board.PerftDivide(u.position, depth) {
		fmt.Printf("%s: %d\n", r.Move, r.Nodes)
		total += r.Nodes
	}
	elapsed := time.Since(start)

	fmt.Printf("\nNodes searched: %d (%.0f nps)\n", total, float64(total)/elapsed.Seconds())
}

// sendInfo emits one UCI info line for a completed depth.
func sendInfo(info engine.SearchInfo) {
	ms := info.Time.Milliseconds()
	nps := int64(0)
	if ms > 0 {
		nps = int64(info.Nodes) * 1000 / ms
	}

	score := fmt.Sprintf("cp %d", info.Score)
	if mate := engine.MateIn(info.Score); mate != 0 {
		score = fmt.Sprintf("mate %d", mate)
	}

	fmt.Printf("info depth %d score %s time %d nodes %d nps %d pv %s\n",
		info.Depth, score, ms, info.Nodes, nps, info.Move)
}
