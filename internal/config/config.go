// Package config is the runtime configuration surface: cache sizes, fuzzy
// field weights, and graph traversal defaults. Grounded directly on the
// teacher's internal/config/config.go + kdl_config.go: a typed Config struct
// with nested sections, loaded from an optional KDL file, falling back to
// documented defaults when absent.
package config

// Size limits named in spec.md §6.
const (
	DefaultSubstringCacheSize = 64
	DefaultFuzzyCacheSize     = 32
	DefaultExplainTruncation  = 96
	DefaultGraphMaxNodes      = 128
	DefaultGraphMaxEdges      = 256
	DefaultGraphMaxDepth      = 2
	DefaultMinScore           = 0.15
)

// Default per-field fuzzy weights, per spec.md §4.6.
const (
	DefaultWeightWord         = 3.0
	DefaultWeightDefinitions  = 2.0
	DefaultWeightSynonyms     = 1.0
	DefaultWeightText         = 1.5
	DefaultWeightEncyclopedia = 1.5
)

// Cache holds the two LRU capacities the façade owns.
type Cache struct {
	SubstringSize int
	FuzzySize     int
}

// FuzzyWeights holds the per-field weights and score floor for fuzzy search.
// Matches the shape of original_source/src/web.rs's SearchConfig.
type FuzzyWeights struct {
	Word         float64
	Definitions  float64
	Synonyms     float64
	Text         float64
	Encyclopedia float64
	MinScore     float64
}

// Graph holds the bounds returned by query.DefaultGraphOptions. A caller's
// graph.Options zero value is never coerced into these; they are only used
// when a caller explicitly asks for the defaults.
type Graph struct {
	MaxNodes int
	MaxEdges int
	MaxDepth int
}

// Config is the top-level runtime configuration.
type Config struct {
	Cache Cache
	Fuzzy FuzzyWeights
	Graph Graph
}

// Default returns the documented defaults from spec.md §6.
func Default() *Config {
	return &Config{
		Cache: Cache{
			SubstringSize: DefaultSubstringCacheSize,
			FuzzySize:     DefaultFuzzyCacheSize,
		},
		Fuzzy: FuzzyWeights{
			Word:         DefaultWeightWord,
			Definitions:  DefaultWeightDefinitions,
			Synonyms:     DefaultWeightSynonyms,
			Text:         DefaultWeightText,
			Encyclopedia: DefaultWeightEncyclopedia,
			MinScore:     DefaultMinScore,
		},
		Graph: Graph{
			MaxNodes: DefaultGraphMaxNodes,
			MaxEdges: DefaultGraphMaxEdges,
			MaxDepth: DefaultGraphMaxDepth,
		},
	}
}

// Merge overlays non-zero fields of override onto base, returning a new
// Config. Mirrors the teacher's config_merge_test.go semantics: an absent
// KDL file (override == nil) is a no-op, and a present file only replaces
// the fields it explicitly set.
func Merge(base *Config, override *Config) *Config {
	if override == nil {
		return base
	}
	out := *base
	if override.Cache.SubstringSize != 0 {
		out.Cache.SubstringSize = override.Cache.SubstringSize
	}
	if override.Cache.FuzzySize != 0 {
		out.Cache.FuzzySize = override.Cache.FuzzySize
	}
	if override.Fuzzy.Word != 0 {
		out.Fuzzy.Word = override.Fuzzy.Word
	}
	if override.Fuzzy.Definitions != 0 {
		out.Fuzzy.Definitions = override.Fuzzy.Definitions
	}
	if override.Fuzzy.Synonyms != 0 {
		out.Fuzzy.Synonyms = override.Fuzzy.Synonyms
	}
	if override.Fuzzy.Text != 0 {
		out.Fuzzy.Text = override.Fuzzy.Text
	}
	if override.Fuzzy.Encyclopedia != 0 {
		out.Fuzzy.Encyclopedia = override.Fuzzy.Encyclopedia
	}
	if override.Fuzzy.MinScore != 0 {
		out.Fuzzy.MinScore = override.Fuzzy.MinScore
	}
	if override.Graph.MaxNodes != 0 {
		out.Graph.MaxNodes = override.Graph.MaxNodes
	}
	if override.Graph.MaxEdges != 0 {
		out.Graph.MaxEdges = override.Graph.MaxEdges
	}
	if override.Graph.MaxDepth != 0 {
		out.Graph.MaxDepth = override.Graph.MaxDepth
	}
	return &out
}
