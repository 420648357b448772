package main

import (
	"flag"
	"log"

	"github.com/hailam/chesster/internal/engine"
	"github.com/hailam/chesster/internal/nnue"
	"github.com/hailam/chesster/internal/storage"
	"github.com/hailam/chesster/internal/uci"
)

var (
	hashMB   = flag.Int("hash", 64, "transposition table size in MB")
	evalFile = flag.String("eval", "", "NNUE weight file (defaults to $"+nnue.EnvWeights+")")
	storeDir = flag.String("store", "", "analysis store directory (empty disables persistence)")
)

func main() {
	flag.Parse()

	// The search core refuses to evaluate without weights; fail here,
	// at the boundary.
	net, err := nnue.Load(*evalFile)
	if err != nil {
		log.Fatalf("load NNUE weights: %v", err)
	}
	log.Printf("NNUE loaded: H=%d quantised=%v", net.H, net.Quantised)

	searcher := engine.NewSearcher(engine.NewTranspositionTable(*hashMB), net)
	protocol := uci.New(searcher)

	if *storeDir != "" {
		store, err := storage.Open(*storeDir)
		if err != nil {
			log.Printf("Warning: analysis store disabled: %v", err)
		} else {
			defer store.Close()
			protocol.SetStore(store)

			if opts, err := store.LoadOptions(); err == nil && opts.EvalFile != "" && *evalFile == "" {
				log.Printf("stored options: hash=%dMB eval=%s", opts.HashMB, opts.EvalFile)
			}
		}
	}

	protocol.Run()
}
