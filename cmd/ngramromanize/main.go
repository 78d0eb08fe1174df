// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Command ngramromanize loads a packed n-gram trie database and would
// transliterate non-Latin input into a Latin approximation. The
// transliteration tables and script heuristics are an external
// collaborator; this front-end only wires the database load and exposes
// the collaborator interface it would call into.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	ngram "github.com/textcat/ngramtrie"
)

// Romanizer is the interface the script-to-Latin transliteration layer
// would implement; its tables and heuristics are out of scope here.
type Romanizer interface {
	Romanize(pt *ngram.PT, input []byte) (latin string, err error)
}

func main() {
	app := &cli.App{
		Name:      "ngramromanize",
		Usage:     "romanize a text file using a language's trained database",
		ArgsUsage: "<db-file> <text-file>",
		Action:    run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "ngramromanize:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.Exit("expected a database file and a text file", 1)
	}

	if _, err := ngram.ReadPT(c.Args().Get(0)); err != nil {
		return cli.Exit(fmt.Sprintf("reading database: %v", err), 1)
	}
	if _, err := os.ReadFile(c.Args().Get(1)); err != nil {
		return cli.Exit(fmt.Sprintf("reading input: %v", err), 1)
	}

	fmt.Println("romanization is not implemented: wire a Romanizer to transliterate")
	return nil
}
