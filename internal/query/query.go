// Package query is the only public surface of the engine: a façade wiring
// together the archive, resolver, FST, scanner, fuzzy ranker, and graph
// traversal behind the operations in spec.md §4.8/§6. It owns both LRU
// caches and the resolver's memoization slots; instances are meant to be
// process-global singletons, exposed through Init/Instance below.
package query

import (
	"fmt"
	"io"
	"sync"

	"github.com/standardbeagle/opengloss/internal/archivefmt"
	"github.com/standardbeagle/opengloss/internal/config"
	"github.com/standardbeagle/opengloss/internal/fstindex"
	"github.com/standardbeagle/opengloss/internal/fuzzy"
	"github.com/standardbeagle/opengloss/internal/graph"
	"github.com/standardbeagle/opengloss/internal/model"
	"github.com/standardbeagle/opengloss/internal/resolver"
	"github.com/standardbeagle/opengloss/internal/scanner"
)

// Sense is a fully resolved model.SenseRecord.
type Sense struct {
	LexemeID        uint32
	PartOfSpeech    string
	HasPartOfSpeech bool
	SenseIndex      int32
	Definition      string
	HasDefinition   bool
	Synonyms        []string
	Antonyms        []string
	Hypernyms       []string
	Hyponyms        []string
	Examples        []string
}

// Entry is a fully resolved model.EntryRecord, everything field accessors
// in spec.md §3 expose.
type Entry struct {
	LexemeID uint32
	Word     string
	EntryID  string

	Text    string
	HasText bool

	IsStopword        bool
	StopwordReason    string
	HasStopwordReason bool

	PartsOfSpeech []string
	Senses        []Sense

	HasEtymology      bool
	EtymologySummary  string
	EtymologyCognates []string

	HasEncyclopedia   bool
	EncyclopediaEntry string

	AllDefinitions  []string
	AllSynonyms     []string
	AllAntonyms     []string
	AllHypernyms    []string
	AllHyponyms     []string
	AllCollocations []string
	AllInflections  []string
	AllDerivations  []string
	AllExamples     []string

	SynonymNeighbors  []uint32
	AntonymNeighbors  []uint32
	HypernymNeighbors []uint32
	HyponymNeighbors  []uint32
}

// Engine is the wired-together façade. Build one with New, or use the
// package-level singleton via Init/Instance.
type Engine struct {
	store    *model.DataStore
	cfg      *config.Config
	resolver *resolver.Resolver
	fst      *fstindex.Index
	scanner  *scanner.Scanner
	ranker   *fuzzy.Ranker
}

// New loads an archive from r and an FST from fstBytes, then wires every
// downstream component. A nil cfg uses config.Default().
func New(r io.Reader, fstBytes []byte, cfg *config.Config) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	store, _, err := archivefmt.Load(r)
	if err != nil {
		return nil, fmt.Errorf("query: load archive: %w", err)
	}
	fst, err := fstindex.Load(fstBytes)
	if err != nil {
		return nil, fmt.Errorf("query: load fst: %w", err)
	}

	e := &Engine{
		store:    store,
		cfg:      cfg,
		resolver: resolver.New(store),
		fst:      fst,
	}
	e.scanner = scanner.New(fst.AllWords(), cfg.Cache.SubstringSize)
	e.ranker = fuzzy.New(e, cfg.Cache.FuzzySize)
	return e, nil
}

// Lookup performs an exact word lookup.
func (e *Engine) Lookup(word string) (uint32, bool) {
	return e.fst.Get(word)
}

// Prefix streams up to limit words starting with prefix, lexicographically.
func (e *Engine) Prefix(prefix string, limit int) []fstindex.WordID {
	return e.fst.Prefix(prefix, limit)
}

// SearchContains returns up to limit words containing pattern, in stream
// order, plus whether the call hit the substring cache.
func (e *Engine) SearchContains(pattern string, limit int) ([]scanner.Hit, bool) {
	return e.scanner.SearchContains(pattern, limit)
}

// SearchFuzzy returns up to limit fuzzy matches for query, descending score.
func (e *Engine) SearchFuzzy(query string, cfg config.FuzzyWeights, limit int) []fuzzy.SearchResult {
	results, _ := e.ranker.SearchFuzzy(query, cfg, limit)
	return results
}

// SearchFuzzyWithStats is SearchFuzzy plus the result cache's hit status.
func (e *Engine) SearchFuzzyWithStats(query string, cfg config.FuzzyWeights, limit int) ([]fuzzy.SearchResult, bool) {
	return e.ranker.SearchFuzzy(query, cfg, limit)
}

// ExplainSearch recomputes scores for lexemeIDs with a per-field breakdown.
func (e *Engine) ExplainSearch(query string, cfg config.FuzzyWeights, lexemeIDs []uint32) []fuzzy.ExplainResult {
	return e.ranker.ExplainSearch(query, cfg, lexemeIDs)
}

// DefaultFuzzyConfig returns the default fuzzy weighting, matching
// original_source/web.rs's SearchConfig::default() call sites: callers
// must ask for it explicitly, the zero value of config.FuzzyWeights is not
// the default.
func DefaultFuzzyConfig() config.FuzzyWeights {
	return config.Default().Fuzzy
}

// DefaultGraphOptions returns the default graph traversal bounds. Callers
// must ask for it explicitly, mirroring DefaultFuzzyConfig: the zero value
// of graph.Options is not the default, it is its own well-formed request
// (root only, unlimited, all four relations) per spec.md §4.7.
func DefaultGraphOptions() graph.Options {
	g := config.Default().Graph
	return graph.Options{
		MaxDepth: g.MaxDepth,
		MaxNodes: g.MaxNodes,
		MaxEdges: g.MaxEdges,
	}
}

// EntryByID resolves the full entry for a lexeme id.
func (e *Engine) EntryByID(id uint32) (Entry, bool) {
	if int(id) >= len(e.store.Entries) {
		return Entry{}, false
	}
	return e.resolveEntry(&e.store.Entries[id]), true
}

// EntryByWord resolves the full entry for an exact surface form.
func (e *Engine) EntryByWord(word string) (Entry, bool) {
	id, ok := e.fst.Get(word)
	if !ok {
		return Entry{}, false
	}
	return e.EntryByID(id)
}

// AllWords streams the entire lexicon in lexicographic order. Supplemented
// per SPEC_FULL.md §6 (original_source/src/telemetry.rs's random-lexeme
// selection).
func (e *Engine) AllWords() []fstindex.WordID {
	return e.fst.AllWords()
}

// TraverseGraph runs a bounded BFS from root over opts verbatim. Per
// spec.md §4.7, opts's zero value is itself a well-formed, meaningful
// request (max_depth 0 = root only, max_nodes/max_edges 0 = unlimited,
// empty relations = all four) — it is never rewritten into cfg.Graph's
// defaults. Callers who want those defaults ask for them explicitly via
// DefaultGraphOptions, mirroring DefaultFuzzyConfig's contract.
func (e *Engine) TraverseGraph(root uint32, opts graph.Options) (*graph.Traversal, bool) {
	return graph.Traverse(root, graph.StoreSource{Store: e.store}, opts)
}

// Count implements fuzzy.FieldProvider.
func (e *Engine) Count() int { return len(e.store.Entries) }

// Fields implements fuzzy.FieldProvider, pulling the five scoreable fields
// for a lexeme id out of the resolved archive.
func (e *Engine) Fields(lexemeID uint32) fuzzy.EntryFields {
	entry := &e.store.Entries[lexemeID]
	text, hasText := e.resolver.OptLongText(entry.Text, entry.HasText)
	encyclopedia, hasEncyclopedia := e.resolver.OptLongText(entry.EncyclopediaEntry, entry.HasEncyclopediaEntry)
	return fuzzy.EntryFields{
		LexemeID:        lexemeID,
		Word:            e.resolver.String(entry.Word),
		Definitions:     e.resolver.StringList(e.store.EntryAllDefinitions, entry.AllDefinitions),
		Synonyms:        e.resolver.StringList(e.store.EntryAllSynonyms, entry.AllSynonyms),
		Text:            text,
		HasText:         hasText,
		Encyclopedia:    encyclopedia,
		HasEncyclopedia: hasEncyclopedia,
	}
}

func (e *Engine) resolveEntry(rec *model.EntryRecord) Entry {
	stopwordReason, hasStopwordReason := e.resolver.OptString(rec.StopwordReason, rec.HasStopwordReason)
	etymologySummary, _ := e.resolver.OptString(rec.EtymologySummary, rec.HasEtymologySummary)
	text, hasText := e.resolver.OptLongText(rec.Text, rec.HasText)
	encyclopedia, hasEncyclopedia := e.resolver.OptLongText(rec.EncyclopediaEntry, rec.HasEncyclopediaEntry)

	senseRecs := model.Slice(e.store.Senses, rec.Senses)
	senses := make([]Sense, len(senseRecs))
	for i := range senseRecs {
		senses[i] = e.resolveSense(&senseRecs[i])
	}

	return Entry{
		LexemeID:           rec.LexemeID,
		Word:               e.resolver.String(rec.Word),
		EntryID:            e.resolver.String(rec.EntryID),
		Text:               text,
		HasText:            hasText,
		IsStopword:         rec.IsStopword,
		StopwordReason:     stopwordReason,
		HasStopwordReason:  hasStopwordReason,
		PartsOfSpeech:      e.resolver.StringList(e.store.EntryPartsOfSpeech, rec.PartsOfSpeech),
		Senses:             senses,
		HasEtymology:       rec.HasEtymology,
		EtymologySummary:   etymologySummary,
		EtymologyCognates:  e.resolver.StringList(e.store.EntryEtymologyCognates, rec.EtymologyCognates),
		HasEncyclopedia:    rec.HasEncyclopedia && hasEncyclopedia,
		EncyclopediaEntry:  encyclopedia,
		AllDefinitions:     e.resolver.StringList(e.store.EntryAllDefinitions, rec.AllDefinitions),
		AllSynonyms:        e.resolver.StringList(e.store.EntryAllSynonyms, rec.AllSynonyms),
		AllAntonyms:        e.resolver.StringList(e.store.EntryAllAntonyms, rec.AllAntonyms),
		AllHypernyms:       e.resolver.StringList(e.store.EntryAllHypernyms, rec.AllHypernyms),
		AllHyponyms:        e.resolver.StringList(e.store.EntryAllHyponyms, rec.AllHyponyms),
		AllCollocations:    e.resolver.StringList(e.store.EntryAllCollocations, rec.AllCollocations),
		AllInflections:     e.resolver.StringList(e.store.EntryAllInflections, rec.AllInflections),
		AllDerivations:     e.resolver.StringList(e.store.EntryAllDerivations, rec.AllDerivations),
		AllExamples:        e.resolver.StringList(e.store.EntryAllExamples, rec.AllExamples),
		SynonymNeighbors:   model.Slice(e.store.SynonymNeighbors, rec.SynonymNeighbors),
		AntonymNeighbors:   model.Slice(e.store.AntonymNeighbors, rec.AntonymNeighbors),
		HypernymNeighbors:  model.Slice(e.store.HypernymNeighbors, rec.HypernymNeighbors),
		HyponymNeighbors:   model.Slice(e.store.HyponymNeighbors, rec.HyponymNeighbors),
	}
}

func (e *Engine) resolveSense(rec *model.SenseRecord) Sense {
	pos, hasPOS := e.resolver.OptString(rec.PartOfSpeech, rec.HasPartOfSpeech)
	def, hasDef := e.resolver.OptString(rec.Definition, rec.HasDefinition)
	return Sense{
		LexemeID:        rec.LexemeID,
		PartOfSpeech:    pos,
		HasPartOfSpeech: hasPOS,
		SenseIndex:      rec.SenseIndex,
		Definition:      def,
		HasDefinition:   hasDef,
		Synonyms:        e.resolver.StringList(e.store.SenseSynonyms, rec.Synonyms),
		Antonyms:        e.resolver.StringList(e.store.SenseAntonyms, rec.Antonyms),
		Hypernyms:       e.resolver.StringList(e.store.SenseHypernyms, rec.Hypernyms),
		Hyponyms:        e.resolver.StringList(e.store.SenseHyponyms, rec.Hyponyms),
		Examples:        e.resolver.StringList(e.store.SenseExamples, rec.Examples),
	}
}

var (
	once     sync.Once
	instance *Engine
	initErr  error
)

// Init builds the process-global Engine exactly once; subsequent calls are
// no-ops that return the first call's error, matching spec.md §4.8's
// "process-global singleton" contract.
func Init(r io.Reader, fstBytes []byte, cfg *config.Config) error {
	once.Do(func() {
		instance, initErr = New(r, fstBytes, cfg)
	})
	return initErr
}

// Instance returns the process-global Engine, or nil if Init has not
// succeeded yet.
func Instance() *Engine {
	return instance
}
