package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
)

// GoldenData represents a single test case in the golden file.
type GoldenData struct {
	Sequence string `json:"sequence"`
	N        uint64 `json:"n"`
	Result   string `json:"result"`
}

// oracles maps each sequence to its seeds; the order of the recurrence is
// the number of seeds.
var oracles = []struct {
	name  string
	seeds []int64
}{
	{"fibonacci", []int64{0, 1}},
	{"lucas", []int64{2, 1}},
	{"tribonacci", []int64{0, 0, 1}},
}

func main() {
	outputDir := flag.String("out", "internal/sequence/testdata", "Output directory for the golden file")
	flag.Parse()

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	filename := filepath.Join(*outputDir, "sequence_golden.json")
	file, err := os.Create(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output file: %v\n", err)
		os.Exit(1)
	}
	defer file.Close()

	// Small indices, the closed-form boundary (70/71), the uint64 boundary
	// (92-94), powers of 2 and a few large values.
	targets := []uint64{
		0, 1, 2, 3, 4, 5, 10, 20, 50, 70, 71, 92, 93, 94, 100,
		128, 256, 500, 512, 1000, 1024,
		2000, 2048, 5000, 8192, 10000,
	}

	var data []GoldenData

	fmt.Println("Generating golden data...")

	for _, oracle := range oracles {
		for _, n := range targets {
			data = append(data, GoldenData{
				Sequence: oracle.name,
				N:        n,
				Result:   linearRecurrence(oracle.seeds, n).String(),
			})
		}
		fmt.Printf("Generated %d %s terms\n", len(targets), oracle.name)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Successfully generated golden file at %s\n", filename)
}

// linearRecurrence computes term n of the sequence whose next term is the sum
// of the previous len(seeds) terms. It keeps the whole history and serves as
// an oracle independent of the engine.
func linearRecurrence(seeds []int64, n uint64) *big.Int {
	terms := make([]*big.Int, 0, n+1)
	for _, s := range seeds {
		terms = append(terms, big.NewInt(s))
	}
	k := len(seeds)
	for uint64(len(terms)) <= n {
		next := new(big.Int)
		for _, t := range terms[len(terms)-k:] {
			next.Add(next, t)
		}
		terms = append(terms, next)
	}
	return terms[n]
}
