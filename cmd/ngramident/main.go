// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Command ngramident loads a packed n-gram trie database and scores an
// input against it. The scoring loop itself is an external collaborator:
// this front-end only wires the database load and exposes the collaborator
// interface it would call into.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	ngram "github.com/textcat/ngramtrie"
)

// Scorer is the interface the identification scoring loop would
// implement; its algorithm (candidate scanning, confidence margins) is
// out of scope here.
type Scorer interface {
	Score(pt *ngram.PT, input []byte) (langID uint32, confidence float64)
}

func main() {
	app := &cli.App{
		Name:      "ngramident",
		Usage:     "identify the language of a text file against a trained database",
		ArgsUsage: "<db-file> <text-file>",
		Action:    run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "ngramident:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.Exit("expected a database file and a text file", 1)
	}

	pt, err := ngram.ReadPT(c.Args().Get(0))
	if err != nil {
		return cli.Exit(fmt.Sprintf("reading database: %v", err), 1)
	}

	if _, err := os.ReadFile(c.Args().Get(1)); err != nil {
		return cli.Exit(fmt.Sprintf("reading input: %v", err), 1)
	}

	fmt.Printf("loaded database: %d full nodes, %d terminal nodes\n",
		pt.NumFullNodes(), pt.NumTerminalNodes())
	fmt.Println("scoring is not implemented: wire a Scorer to identify a language")
	return nil
}
