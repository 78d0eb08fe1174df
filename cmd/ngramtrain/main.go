// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Command ngramtrain trains a packed n-gram trie for one language from a
// corpus file and writes it to a database file.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	ngram "github.com/textcat/ngramtrie"
	"github.com/textcat/ngramtrie/internal/logging"
)

var (
	dbFlag = &cli.StringFlag{
		Name:    "db",
		Aliases: []string{"o"},
		Usage:   "output database file (the path is used as given; = and == prefixes are not interpreted)",
	}
	langFlag = &cli.StringFlag{Name: "lang", Usage: "language code metadata"}
	topKFlag = &cli.IntFlag{Name: "k", Value: 1000, Usage: "top-K n-gram budget per length"}
	minLenFlag = &cli.IntFlag{Name: "m", Value: 3, Usage: "minimum n-gram length"}
	maxLenFlag = &cli.IntFlag{Name: "M", Value: 4, Usage: "maximum n-gram length"}
	affixFlag = &cli.Float64Flag{Name: "a", Value: 0.95, Usage: "affix suppression ratio"}
	alignFlag = &cli.IntFlag{Name: "A", Value: 1, Usage: "affix suppression alignment"}
	powerFlag = &cli.Float64Flag{Name: "S", Value: 0, Usage: "frequency smoothing power"}
	byteLimitFlag = &cli.Int64Flag{Name: "L", Usage: "byte limit on training input (0 = unlimited)"}
	ignoreSpaceFlag = &cli.BoolFlag{Name: "i", Usage: "ignore whitespace bytes"}
	bitsFlag = &cli.IntFlag{Name: "bits", Value: 2, Usage: "trie fan-out exponent (2, 3, 4 or 8)"}
	boostFlag = &cli.Float64Flag{Name: "B", Value: 1, Usage: "unique n-gram frequency boost"}
	verboseFlag = &cli.BoolFlag{Name: "v", Usage: "verbose phase logging"}
	dumpFlag = &cli.BoolFlag{Name: "D", Usage: "dump the trained trie to stdout instead of writing it"}
)

func main() {
	app := &cli.App{
		Name:      "ngramtrain",
		Usage:     "train a packed n-gram trie from a text corpus",
		ArgsUsage: "<corpus-file>",
		Flags: []cli.Flag{
			dbFlag, langFlag, topKFlag, minLenFlag, maxLenFlag, affixFlag,
			alignFlag, powerFlag, byteLimitFlag, ignoreSpaceFlag, bitsFlag,
			boostFlag, verboseFlag, dumpFlag,
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "ngramtrain:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.Bool(verboseFlag.Name) {
		logging.SetDebug()
	}

	if c.NArg() != 1 {
		return cli.Exit("expected exactly one corpus file argument", 1)
	}
	corpusPath := c.Args().Get(0)

	data, err := os.ReadFile(corpusPath)
	if err != nil {
		return cli.Exit(fmt.Sprintf("reading corpus: %v", err), 1)
	}

	opts := ngram.DefaultBuildOptions()
	opts.BitsPerLevel = c.Int(bitsFlag.Name)
	opts.TopK = c.Int(topKFlag.Name)
	opts.MinLen = c.Int(minLenFlag.Name)
	opts.MaxLen = c.Int(maxLenFlag.Name)
	opts.AffixRatio = c.Float64(affixFlag.Name)
	opts.Alignment = c.Int(alignFlag.Name)
	opts.Power = c.Float64(powerFlag.Name)
	opts.IgnoreSpace = c.Bool(ignoreSpaceFlag.Name)

	if limit := c.Int64(byteLimitFlag.Name); limit > 0 && int64(len(data)) > limit {
		data = data[:limit]
	}

	logging.Phase("train").Str("corpus", corpusPath).Str("lang", c.String(langFlag.Name)).Send()

	b := ngram.NewBuilder(opts)
	b.Run(data, 0)

	if boost := c.Float64(boostFlag.Name); boost != 1 {
		ngram.ApplyUniqueBoost(b.WT(), opts.MaxLen, boost, nil)
	}

	cov := b.MeasureCoverage(data)
	logging.Infof("coverage: raw=%d weighted=%.1f freqWeighted=%.1f matches=%d",
		cov.RawBytes, cov.WeightedBytes, cov.FreqWeighted, cov.MatchCount)

	mwt := ngram.NewMWT(opts.BitsPerLevel, b.WT().NumNodes(), 1024, opts.IgnoreSpace)
	ngram.MergeWT(mwt, b.WT(), 0, opts.MaxLen)

	pt := ngram.BuildPT(mwt, uint32(opts.MaxLen), opts.IgnoreSpace, 0, nil)

	if c.Bool(dumpFlag.Name) {
		pt.Enumerate(int(pt.LongestKey()), func(pt *ngram.PT, key []byte, keyLen int, _ []ngram.PTFreqRecord) bool {
			fmt.Printf("%s\n", key[:keyLen])
			return true
		})
		return nil
	}

	dbPath := c.String(dbFlag.Name)
	if dbPath == "" {
		return cli.Exit("missing -db output path", 1)
	}
	if err := ngram.WritePTFile(dbPath, pt); err != nil {
		return cli.Exit(fmt.Sprintf("writing database: %v", err), 1)
	}

	logging.Infof("wrote %s: %d full nodes, %d terminal nodes, %d frequency records",
		dbPath, pt.NumFullNodes(), pt.NumTerminalNodes(), pt.NumFrequencyRecords())
	return nil
}
