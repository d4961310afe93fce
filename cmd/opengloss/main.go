// Command opengloss is a thin demonstration client over internal/query: it
// loads a sealed archive and FST pair and dispatches one lookup per
// invocation to stdout. It deliberately does not reimplement any engine
// logic (spec.md §6.3) — every subcommand is a direct call into the façade.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/opengloss/internal/query"
	"github.com/standardbeagle/opengloss/internal/version"
)

func main() {
	app := &cli.App{
		Name:    "opengloss",
		Usage:   "query a sealed OpenGloss archive",
		Version: version.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "fst",
				Usage: "path to lexemes.fst",
				Value: "lexemes.fst",
			},
			&cli.StringFlag{
				Name:  "archive",
				Usage: "path to opengloss_data.rkyv",
				Value: "opengloss_data.rkyv",
			},
		},
		Before: loadEngine,
		Commands: []*cli.Command{
			lookupCommand,
			prefixCommand,
			containsCommand,
			fuzzyCommand,
			traverseCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "opengloss: %v\n", err)
		os.Exit(1)
	}
}

func loadEngine(c *cli.Context) error {
	archiveFile, err := os.Open(c.String("archive"))
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer archiveFile.Close()

	fstBytes, err := os.ReadFile(c.String("fst"))
	if err != nil {
		return fmt.Errorf("read fst: %w", err)
	}

	if err := query.Init(archiveFile, fstBytes, nil); err != nil {
		return fmt.Errorf("load engine: %w", err)
	}
	return nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var lookupCommand = &cli.Command{
	Name:      "lookup",
	Usage:     "exact word lookup, printing the resolved entry",
	ArgsUsage: "<word>",
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return cli.Exit("lookup requires exactly one word argument", 1)
		}
		e := query.Instance()
		entry, ok := e.EntryByWord(c.Args().First())
		if !ok {
			return cli.Exit("not found", 1)
		}
		return printJSON(entry)
	},
}

var prefixCommand = &cli.Command{
	Name:      "prefix",
	Usage:     "list words starting with a prefix",
	ArgsUsage: "<prefix>",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "limit", Value: 20},
	},
	Action: func(c *cli.Context) error {
		e := query.Instance()
		hits := e.Prefix(c.Args().First(), c.Int("limit"))
		return printJSON(hits)
	},
}

var containsCommand = &cli.Command{
	Name:      "contains",
	Usage:     "list words containing a substring",
	ArgsUsage: "<substring>",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "limit", Value: 20},
	},
	Action: func(c *cli.Context) error {
		e := query.Instance()
		hits, _ := e.SearchContains(c.Args().First(), c.Int("limit"))
		return printJSON(hits)
	},
}

var fuzzyCommand = &cli.Command{
	Name:      "fuzzy",
	Usage:     "fuzzy search across word, definitions, synonyms, text, and encyclopedia",
	ArgsUsage: "<query>",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "limit", Value: 10},
		&cli.Float64Flag{Name: "min-score", Usage: "override the default minimum score"},
	},
	Action: func(c *cli.Context) error {
		e := query.Instance()
		cfg := query.DefaultFuzzyConfig()
		if c.IsSet("min-score") {
			cfg.MinScore = c.Float64("min-score")
		}
		results := e.SearchFuzzy(c.Args().First(), cfg, c.Int("limit"))
		return printJSON(results)
	},
}

var traverseCommand = &cli.Command{
	Name:      "traverse",
	Usage:     "bounded BFS over synonym/antonym/hypernym/hyponym relations from a word",
	ArgsUsage: "<word>",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "max-depth"},
		&cli.IntFlag{Name: "max-nodes"},
		&cli.IntFlag{Name: "max-edges"},
	},
	Action: func(c *cli.Context) error {
		e := query.Instance()
		id, ok := e.Lookup(c.Args().First())
		if !ok {
			return cli.Exit("not found", 1)
		}
		opts := query.DefaultGraphOptions()
		if c.IsSet("max-depth") {
			opts.MaxDepth = c.Int("max-depth")
		}
		if c.IsSet("max-nodes") {
			opts.MaxNodes = c.Int("max-nodes")
		}
		if c.IsSet("max-edges") {
			opts.MaxEdges = c.Int("max-edges")
		}
		tr, ok := e.TraverseGraph(id, opts)
		if !ok {
			return cli.Exit("root not found", 1)
		}
		return printJSON(tr)
	},
}
