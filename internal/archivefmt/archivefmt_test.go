package archivefmt

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/opengloss/internal/model"
)

func sampleStore() *model.DataStore {
	word := model.StringId(0)
	entryID := model.StringId(1)
	def := model.StringId(2)

	return &model.DataStore{
		Strings: model.PackedStrings{
			Offsets: []uint32{0, 3, 4},
			Lengths: []uint32{3, 1, 4},
			Data:    []byte("dogxnoun"),
		},
		LongTexts: model.CompressedTextStore{},
		Entries: []model.EntryRecord{
			{
				LexemeID:       0,
				Word:           word,
				EntryID:        entryID,
				IsStopword:     false,
				Senses:         model.Range{Start: 0, Len: 1},
				AllDefinitions: model.Range{Start: 0, Len: 1},
			},
		},
		Senses: []model.SenseRecord{
			{LexemeID: 0, SenseIndex: -1, HasDefinition: true, Definition: def},
		},
		EntryAllDefinitions: []model.StringId{2},
	}
}

func TestBuildLoadRoundTrip(t *testing.T) {
	ds := sampleStore()

	var buf bytes.Buffer
	require.NoError(t, SaveCompressed(ds, &buf))

	loaded, backing, err := Load(&buf)
	require.NoError(t, err)
	require.NotEmpty(t, backing)

	require.Len(t, loaded.Entries, 1)
	require.Equal(t, uint32(0), loaded.Entries[0].LexemeID)
	require.Equal(t, model.StringId(0), loaded.Entries[0].Word)
	require.Equal(t, model.Range{Start: 0, Len: 1}, loaded.Entries[0].Senses)

	require.Len(t, loaded.Senses, 1)
	require.Equal(t, int32(-1), loaded.Senses[0].SenseIndex)
	require.True(t, loaded.Senses[0].HasDefinition)
	require.Equal(t, model.StringId(2), loaded.Senses[0].Definition)

	require.Equal(t, []model.StringId{2}, loaded.EntryAllDefinitions)
	require.Equal(t, ds.Strings.Data, loaded.Strings.Data)
}

func TestLoadRejectsBadMagic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic on corrupt archive")
		}
	}()
	var buf bytes.Buffer
	require.NoError(t, SaveCompressed(sampleStore(), &buf))
	raw := buf.Bytes()
	// Corrupting the compressed stream itself is enough to trip the zstd
	// decoder or the magic check once decompressed.
	corrupt := append([]byte{}, raw...)
	corrupt[0] ^= 0xff
	Load(bytes.NewReader(corrupt))
}
