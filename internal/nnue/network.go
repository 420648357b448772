// Package nnue implements an efficiently updatable neural network
// evaluator: a 768-feature perspective input, one hidden layer of size
// H, and a single scalar output scaled to centipawns.
package nnue

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// Network architecture constants.
const (
	// Input features per perspective: 2 sides x 6 piece types x 64 squares.
	InputSize = 768

	// Quantization constants (Bullet trainer defaults).
	QA = 255 // hidden layer quant
	QB = 64  // output layer quant

	// Scale from network output to centipawns.
	Scale = 400

	// Evaluation clamp in centipawns.
	EvalClamp = 20000
)

// Network holds the loaded weights. Exactly one of the quantised and
// float buffer sets is populated, selected by the file format. Hidden
// columns are stored contiguously and addressed by feature*H.
type Network struct {
	H         int
	Quantised bool

	// Quantised path (raw int16 from the Bullet trainer)
	w0q []int16 // [768*H], column per feature
	b0q []int16 // [H]
	w1q []int16 // [2H], STM half first
	b1q int16

	// Float path
	w0f []float32 // [768*H], column per feature
	b0f []float32 // [H]
	w1f []float32 // [2H]
	b1f float32
}

// EnvWeights is the environment variable consulted when no explicit
// weight path is given.
const EnvWeights = "CHESSTER_NET"

// Load reads a weight file and detects its format. Quantised int16
// nets are probed first, then raw float32. The element count fixes the
// hidden size: H = (count-1)/771.
func Load(path string) (*Network, error) {
	var lastErr error
	for _, cand := range candidatePaths(path) {
		blob, err := os.ReadFile(cand)
		if err != nil {
			lastErr = err
			continue
		}
		net, err := LoadBytes(blob)
		if err != nil {
			lastErr = fmt.Errorf("%s: %w", cand, err)
			continue
		}
		return net, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no weight file candidates for %q", path)
	}
	return nil, fmt.Errorf("load network: %w", lastErr)
}

// candidatePaths expands a weight path the way the engine has always
// resolved it: the exact path, path+".bin", path/raw.bin and
// path/<leaf>.bin, falling back to $CHESSTER_NET.
func candidatePaths(path string) []string {
	if path == "" {
		path = os.Getenv(EnvWeights)
	}
	if path == "" {
		path = "CHESSTER_NET"
	}

	leaf := filepath.Base(path)
	return []string{
		path,
		path + ".bin",
		filepath.Join(path, "raw.bin"),
		filepath.Join(path, leaf+".bin"),
	}
}

// LoadBytes parses a weight blob. Layout in element order: L0 weights,
// L0 bias (H), L1 weights (2H), L1 bias (1).
func LoadBytes(blob []byte) (*Network, error) {
	if net, ok := loadQuantised(blob); ok {
		return net, nil
	}
	if net, ok := loadFloat(blob); ok {
		return net, nil
	}
	return nil, fmt.Errorf("unrecognized weight format (%d bytes)", len(blob))
}

// loadQuantised parses a Bullet quantised net: int16 little-endian,
// L0 weights already column-major by feature.
func loadQuantised(blob []byte) (*Network, bool) {
	if len(blob) == 0 || len(blob)%2 != 0 {
		return nil, false
	}
	n := len(blob) / 2
	if n < 1 || (n-1)%771 != 0 {
		return nil, false
	}
	h := (n - 1) / 771
	if h == 0 {
		return nil, false
	}

	vals := make([]int16, n)
	for i := range vals {
		vals[i] = int16(binary.LittleEndian.Uint16(blob[2*i:]))
	}

	net := &Network{H: h, Quantised: true}
	off := 0
	net.w0q = vals[off : off+InputSize*h]
	off += InputSize * h
	net.b0q = vals[off : off+h]
	off += h
	net.w1q = vals[off : off+2*h]
	off += 2 * h
	net.b1q = vals[off]

	return net, true
}

// loadFloat parses a raw float32 net. L0 weights arrive row-major
// [H][768] and are transposed into per-feature columns.
func loadFloat(blob []byte) (*Network, bool) {
	if len(blob) == 0 || len(blob)%4 != 0 {
		return nil, false
	}
	n := len(blob) / 4
	if n < 1 || (n-1)%771 != 0 {
		return nil, false
	}
	h := (n - 1) / 771
	if h == 0 {
		return nil, false
	}

	vals := make([]float32, n)
	for i := range vals {
		vals[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[4*i:]))
	}

	net := &Network{H: h, Quantised: false}
	net.w0f = make([]float32, InputSize*h)
	rows := vals[:h*InputSize]
	for feat := 0; feat < InputSize; feat++ {
		for i := 0; i < h; i++ {
			net.w0f[feat*h+i] = rows[i*InputSize+feat]
		}
	}

	off := h * InputSize
	net.b0f = vals[off : off+h]
	off += h
	net.w1f = vals[off : off+2*h]
	off += 2 * h
	net.b1f = vals[off]

	return net, true
}

// NewRandomNetwork builds a small deterministic quantised net for
// tests; real play always loads trained weights.
func NewRandomNetwork(h int, seed uint64) *Network {
	state := seed
	next := func() int16 {
		state = state*6364136223846793005 + 1442695040888963407
		return int16(int8(state >> 56)) // small values -128..127
	}

	net := &Network{H: h, Quantised: true}
	net.w0q = make([]int16, InputSize*h)
	for i := range net.w0q {
		net.w0q[i] = next() >> 4
	}
	net.b0q = make([]int16, h)
	for i := range net.b0q {
		net.b0q[i] = next() >> 2
	}
	net.w1q = make([]int16, 2*h)
	for i := range net.w1q {
		net.w1q[i] = next() >> 3
	}
	net.b1q = next()

	return net
}
