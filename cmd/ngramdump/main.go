// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Command ngramdump inspects a packed n-gram trie file, printing its
// header fields and (optionally) every n-gram it holds.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	ngram "github.com/textcat/ngramtrie"
)

func main() {
	app := &cli.App{
		Name:      "ngramdump",
		Usage:     "inspect a packed n-gram trie database file",
		ArgsUsage: "<db-file>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "keys", Usage: "print every stored n-gram, one per line"},
			&cli.BoolFlag{Name: "stopgrams", Usage: "restrict -keys output to stop-grams only"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "ngramdump:", err)
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

	fmt.Printf("bitsPerLevel=%d longestKey=%d fullNodes=%d terminalNodes=%d freqRecords=%d ignoreWhitespace=%v caseSensitivity=%d\n",
		pt.BitsPerLevel(), pt.LongestKey(), pt.NumFullNodes(), pt.NumTerminalNodes(),
		pt.NumFrequencyRecords(), pt.IgnoreWhitespace(), pt.CaseSensitivity())

	if !c.Bool("keys") {
		return nil
	}
	onlyStop := c.Bool("stopgrams")

	pt.Enumerate(int(pt.LongestKey()), func(pt *ngram.PT, key []byte, keyLen int, records []ngram.PTFreqRecord) bool {
		for _, r := range records {
			if onlyStop && !r.StopGram() {
				continue
			}
			fmt.Printf("%q\tlang=%d\tfreq=%d\tstopgram=%v\n", key[:keyLen], r.LangID(), r.Frequency(), r.StopGram())
		}
		return true
	})
	return nil
}
