package storage

import "testing"

func openTestStore(t *testing.T) *Storage {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOptionsRoundTrip(t *testing.T) {
	s := openTestStore(t)

	// Fresh store serves defaults.
	opts, err := s.LoadOptions()
	if err != nil {
		t.Fatal(err)
	}
	if opts.HashMB != 64 || opts.EvalFile != "" {
		t.Errorf("unexpected defaults: %+v", opts)
	}

	opts.HashMB = 256
	opts.EvalFile = "/nets/raw.bin"
	if err := s.SaveOptions(opts); err != nil {
		t.Fatal(err)
	}

	loaded, err := s.LoadOptions()
	if err != nil {
		t.Fatal(err)
	}
	if loaded.HashMB != 256 || loaded.EvalFile != "/nets/raw.bin" {
		t.Errorf("options not persisted: %+v", loaded)
	}
}

func TestAnalysisRoundTrip(t *testing.T) {
	s := openTestStore(t)

	hash := uint64(0xABCDEF0123456789)

	if _, found, err := s.LoadAnalysis(hash); err != nil || found {
		t.Fatalf("fresh store: found=%v err=%v", found, err)
	}

	a := &Analysis{BestMove: "e2e4", Score: 31, Depth: 9, Nodes: 123456}
	if err := s.SaveAnalysis(hash, a); err != nil {
		t.Fatal(err)
	}

	loaded, found, err := s.LoadAnalysis(hash)
	if err != nil || !found {
		t.Fatalf("found=%v err=%v", found, err)
	}
	if *loaded != *a {
		t.Errorf("round trip mismatch: %+v vs %+v", loaded, a)
	}
}

func TestAnalysisDepthPreferred(t *testing.T) {
	s := openTestStore(t)

	hash := uint64(7)
	deep := &Analysis{BestMove: "g1f3", Score: 12, Depth: 12}
	shallow := &Analysis{BestMove: "b1c3", Score: -5, Depth: 4}

	if err := s.SaveAnalysis(hash, deep); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveAnalysis(hash, shallow); err != nil {
		t.Fatal(err)
	}

	loaded, found, err := s.LoadAnalysis(hash)
	if err != nil || !found {
		t.Fatal(err)
	}
	if loaded.BestMove != "g1f3" || loaded.Depth != 12 {
		t.Errorf("shallow analysis overwrote deeper one: %+v", loaded)
	}
}
