// chesster-bench runs the perft oracle suite and a fixed-depth search
// benchmark, fanning positions out over a worker pool.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hailam/chesster/internal/board"
	"github.com/hailam/chesster/internal/engine"
	"github.com/hailam/chesster/internal/nnue"
)

type perftCase struct {
	fen   string
	depth int
	nodes uint64
}

// The standard oracle positions: start position, Kiwipete, a promotion
// tangle, an illegal-EP trap, castling-with-check and a stalemate net.
var perftSuite = []perftCase{
	{board.StartFEN, 5, 4865609},
	{"r3k2r/p1ppqpb1/bn2pnp1/2PpP3/1p2P3/2N2N2/PPQ1BPPP/R3K2R w KQkq - 0 1", 4, 4085603},
	{"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8", 3, 62379},
	{"8/5bk1/8/2Pp4/8/1K6/8/8 w - d6 0 1", 6, 824064},
	{"3k4/8/8/8/8/8/8/R3K3 w Q - 0 1", 6, 803711},
	{"K1k5/8/P7/8/8/8/8/8 w - - 0 1", 6, 2217},
}

var searchFENs = []string{
	board.StartFEN,
	"r3k2r/p1ppqpb1/bn2pnp1/2PpP3/1p2P3/2N2N2/PPQ1BPPP/R3K2R w KQkq - 0 1",
	"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
	"4k3/8/8/8/8/8/4Q3/4K3 w - - 0 1",
}

var (
	workers     = flag.Int("workers", runtime.NumCPU(), "concurrent workers")
	searchDepth = flag.Int("depth", 7, "search benchmark depth")
	evalFile    = flag.String("eval", "", "NNUE weight file (random test net when empty)")
)

func main() {
	flag.Parse()

	if err := runPerft(context.Background()); err != nil {
		log.Fatal(err)
	}
	if err := runSearchBench(context.Background()); err != nil {
		log.Fatal(err)
	}
}

// runPerft validates every suite position concurrently. Each worker
// owns its Position; nothing is shared.
func runPerft(ctx context.Context) error {
	log.Println("perft suite started")
	start := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	cases := make(chan perftCase)

	g.Go(func() error {
		defer close(cases)
		for _, c := range perftSuite {
			select {
			case cases <- c:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	for i := 0; i < *workers; i++ {
		g.Go(func() error {
			for c := range cases {
				pos, err := board.ParseFEN(c.fen)
				if err != nil {
					return fmt.Errorf("parse %q: %w", c.fen, err)
				}
				got := board.Perft(pos, c.depth)
				if got != c.nodes {
					return fmt.Errorf("perft(%d) of %q = %d, want %d", c.depth, c.fen, got, c.nodes)
				}
				log.Printf("perft ok: %-70s depth %d nodes %d", c.fen, c.depth, got)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	log.Println("perft suite finished in", time.Since(start))
	return nil
}

// runSearchBench searches every position to a fixed depth and reports
// aggregate nodes per second. One engine per worker; the shared NNUE
// weights are read-only.
func runSearchBench(ctx context.Context) error {
	log.Println("search benchmark started")

	var net *nnue.Network
	if *evalFile != "" {
		loaded, err := nnue.Load(*evalFile)
		if err != nil {
			return err
		}
		net = loaded
		log.Printf("NNUE loaded: H=%d quantised=%v", net.H, net.Quantised)
	} else {
		net = nnue.NewRandomNetwork(64, 0x5EED)
		log.Println("no weight file given, using the random test net")
	}

	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	fens := make(chan string)
	nodeCounts := make(chan uint64, len(searchFENs))

	g.Go(func() error {
		defer close(fens)
		for _, fen := range searchFENs {
			select {
			case fens <- fen:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	for i := 0; i < *workers; i++ {
		g.Go(func() error {
			searcher := engine.NewSearcher(engine.NewTranspositionTable(64), net)
			for fen := range fens {
				pos, err := board.ParseFEN(fen)
				if err != nil {
					return fmt.Errorf("parse %q: %w", fen, err)
				}
				move, score := searcher.SearchBestMove(pos, *searchDepth)
				log.Printf("search: %-70s best %-6s score %d", fen, move, score)
				nodeCounts <- searcher.Nodes()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	close(nodeCounts)

	var nodes uint64
	for n := range nodeCounts {
		nodes += n
	}
	elapsed := time.Since(start)

	fmt.Println("Time ", elapsed)
	fmt.Println("Nodes", nodes)
	if ms := elapsed.Milliseconds(); ms > 0 {
		fmt.Println("kNPS ", int64(nodes)/ms)
	}
	return nil
}
