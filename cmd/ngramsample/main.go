// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Command ngramsample draws random keys from a packed n-gram trie
// database, weighted by frequency, for spot-checking a trained model.
package main

import (
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/urfave/cli/v2"

	ngram "github.com/textcat/ngramtrie"
)

func main() {
	app := &cli.App{
		Name:      "ngramsample",
		Usage:     "print a random sample of n-grams from a trained database",
		ArgsUsage: "<db-file>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "n", Value: 20, Usage: "number of n-grams to sample"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "ngramsample:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("expected exactly one database file argument", 1)
	}

	pt, err := ngram.ReadPT(c.Args().Get(0))
	if err != nil {
		return cli.Exit(fmt.Sprintf("reading database: %v", err), 1)
	}

	var keys [][]byte
	var freqs []uint32
	pt.Enumerate(int(pt.LongestKey()), func(pt *ngram.PT, key []byte, keyLen int, records []ngram.PTFreqRecord) bool {
		for _, r := range records {
			cp := make([]byte, keyLen)
			copy(cp, key[:keyLen])
			keys = append(keys, cp)
			freqs = append(freqs, r.Frequency())
		}
		return true
	})
	if len(keys) == 0 {
		fmt.Println("database is empty")
		return nil
	}

	var total uint64
	for _, f := range freqs {
		total += uint64(f)
	}

	n := c.Int("n")
	for i := 0; i < n; i++ {
		target := rand.Uint64N(total + 1)
		var acc uint64
		for j, f := range freqs {
			acc += uint64(f)
			if acc >= target {
				fmt.Printf("%q\tfreq=%d\n", keys[j], f)
				break
			}
		}
	}
	return nil
}
