package builder

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/opengloss/internal/fstindex"
)

func TestParseLexemeTSVSkipsHeaderAndEmptyWords(t *testing.T) {
	in := strings.NewReader("lexeme_id\tword\n0\tdog\n1\t\n2\tcat\n")
	rows, err := ParseLexemeTSV(in)
	require.NoError(t, err)
	require.Equal(t, []LexemeRow{{Word: "dog", ID: 0}, {Word: "cat", ID: 2}}, rows)
}

func TestSortAndValidateRejectsDuplicates(t *testing.T) {
	rows := []LexemeRow{{Word: "dog", ID: 1}, {Word: "dog", ID: 0}}
	_, err := SortAndValidate(rows)
	require.Error(t, err)
}

func TestSortAndValidateOrdersByWordThenID(t *testing.T) {
	rows := []LexemeRow{{Word: "dog", ID: 2}, {Word: "cat", ID: 0}, {Word: "bird", ID: 1}}
	sorted, err := SortAndValidate(rows)
	require.NoError(t, err)
	require.Equal(t, []string{"bird", "cat", "dog"}, []string{sorted[0].Word, sorted[1].Word, sorted[2].Word})
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestBuildEndToEnd(t *testing.T) {
	dir := t.TempDir()
	lexemePath := writeFile(t, dir, "lexemes.tsv", "lexeme_id\tword\n0\tdog\n1\thound\n")
	writeFile(t, dir, "entries-0.jsonl", strings.Join([]string{
		`{"lexeme_id":0,"entry_id":"e0","word":"dog","all_synonyms":["hound","ghost"],"all_definitions":["a domesticated canine"],"senses":[{"definition":"a domesticated canine","sense_index":0}]}`,
		`{"lexeme_id":1,"entry_id":"e1","word":"hound","all_synonyms":["dog"]}`,
	}, "\n")+"\n")

	result, err := Build(Sources{
		LexemeTSVPath: lexemePath,
		EntryGlobs:    filepath.Join(dir, "entries-*.jsonl"),
	})
	require.NoError(t, err)
	require.Len(t, result.Store.Entries, 2)
	require.Len(t, result.Store.Senses, 1)

	// "ghost" never appears as a lexeme, so it must have been dropped from
	// the resolved neighbor side array.
	dogEntry := result.Store.Entries[0]
	require.Equal(t, uint32(1), dogEntry.SynonymNeighbors.Len)

	idx, err := fstindex.Load(result.FSTBytes)
	require.NoError(t, err)
	id, ok := idx.Get("hound")
	require.True(t, ok)
	require.Equal(t, uint32(1), id)
}

func TestBuildRejectsOutOfOrderEntries(t *testing.T) {
	dir := t.TempDir()
	lexemePath := writeFile(t, dir, "lexemes.tsv", "0\tdog\n1\thound\n")
	writeFile(t, dir, "entries.jsonl", `{"lexeme_id":1,"entry_id":"e1","word":"hound"}`+"\n"+`{"lexeme_id":0,"entry_id":"e0","word":"dog"}`+"\n")

	_, err := Build(Sources{
		LexemeTSVPath: lexemePath,
		EntryGlobs:    filepath.Join(dir, "entries.jsonl"),
	})
	require.Error(t, err)
}

func TestBuildRejectsDuplicateWords(t *testing.T) {
	dir := t.TempDir()
	lexemePath := writeFile(t, dir, "lexemes.tsv", "0\tdog\n1\tdog\n")
	writeFile(t, dir, "entries.jsonl", `{"lexeme_id":0,"entry_id":"e0","word":"dog"}`+"\n")

	_, err := Build(Sources{
		LexemeTSVPath: lexemePath,
		EntryGlobs:    filepath.Join(dir, "entries.jsonl"),
	})
	require.Error(t, err)
}
