// Command opengloss-build runs the offline ingestion pipeline: parse a
// lexeme table and entry shards, intern strings and texts, resolve
// neighbors, and seal the result into the two build-time artifacts
// described in spec.md §6 — lexemes.fst and opengloss_data.rkyv.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/opengloss/internal/archivefmt"
	"github.com/standardbeagle/opengloss/internal/builder"
	"github.com/standardbeagle/opengloss/internal/logging"
	"github.com/standardbeagle/opengloss/internal/version"
)

func main() {
	app := &cli.App{
		Name:    "opengloss-build",
		Usage:   "build an OpenGloss archive from a lexeme table and entry shards",
		Version: version.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "lexemes",
				Usage:    "path to the tab-delimited lexeme table",
				Value:    "data/lexemes.tsv",
				Required: false,
			},
			&cli.StringFlag{
				Name:     "entries",
				Usage:    "glob pattern for JSON-lines entry shards (e.g. data/entries-*.jsonl)",
				Value:    "data/entries.jsonl",
				Required: false,
			},
			&cli.StringFlag{
				Name:  "out-dir",
				Usage: "directory to write lexemes.fst and opengloss_data.rkyv into",
				Value: ".",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "log each build stage",
			},
		},
		Action: runBuild,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "opengloss-build: %v\n", err)
		os.Exit(1)
	}
}

func runBuild(c *cli.Context) error {
	outDir := c.String("out-dir")
	if c.Bool("verbose") {
		os.Setenv("OPENGLOSS_DEBUG", "1")
		logging.SetOutput(os.Stderr)
	}

	logging.Component("build", "parsing lexemes from %s", c.String("lexemes"))
	result, err := builder.Build(builder.Sources{
		LexemeTSVPath: c.String("lexemes"),
		EntryGlobs:    c.String("entries"),
	})
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}
	logging.Component("build", "sealed %d entries, %d senses", len(result.Store.Entries), len(result.Store.Senses))

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create out-dir: %w", err)
	}

	fstPath := outDir + "/lexemes.fst"
	if err := os.WriteFile(fstPath, result.FSTBytes, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", fstPath, err)
	}

	dataPath := outDir + "/opengloss_data.rkyv"
	dataFile, err := os.Create(dataPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", dataPath, err)
	}
	defer dataFile.Close()

	if err := archivefmt.SaveCompressed(result.Store, dataFile); err != nil {
		return fmt.Errorf("seal archive: %w", err)
	}

	fmt.Printf("wrote %s and %s\n", fstPath, dataPath)
	return nil
}
