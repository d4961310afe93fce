package resolver

import (
	"sync"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/opengloss/internal/model"
)

func compressFrame(t *testing.T, level zstd.EncoderLevel, s string) []byte {
	t.Helper()
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(level))
	require.NoError(t, err)
	return enc.EncodeAll([]byte(s), nil)
}

func buildStore(t *testing.T, words []string, texts []string) *model.DataStore {
	t.Helper()
	var offsets, lengths []uint32
	var data []byte
	for _, w := range words {
		frame := compressFrame(t, zstd.SpeedDefault, w)
		offsets = append(offsets, uint32(len(data)))
		lengths = append(lengths, uint32(len(frame)))
		data = append(data, frame...)
	}

	var tOffsets, tLengths []uint32
	var tData []byte
	for _, doc := range texts {
		frame := compressFrame(t, zstd.SpeedBetterCompression, doc)
		tOffsets = append(tOffsets, uint32(len(tData)))
		tLengths = append(tLengths, uint32(len(frame)))
		tData = append(tData, frame...)
	}

	return &model.DataStore{
		Strings: model.PackedStrings{Offsets: offsets, Lengths: lengths, Data: data},
		LongTexts: model.CompressedTextStore{
			Offsets: tOffsets, Lengths: tLengths, Data: tData,
		},
	}
}

func TestStringResolvesAndMemoizes(t *testing.T) {
	ds := buildStore(t, []string{"dog", "cat", "bird"}, nil)
	r := New(ds)

	require.Equal(t, "dog", r.String(0))
	require.Equal(t, "cat", r.String(1))
	require.Equal(t, "bird", r.String(2))
	// second read still correct, now via the memoized slot
	require.Equal(t, "dog", r.String(0))
}

func TestStringConcurrentFirstWriterWins(t *testing.T) {
	ds := buildStore(t, []string{"concurrent"}, nil)
	r := New(ds)

	var wg sync.WaitGroup
	results := make([]string, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = r.String(0)
		}(i)
	}
	wg.Wait()
	for _, res := range results {
		require.Equal(t, "concurrent", res)
	}
}

func TestLongTextNotMemoized(t *testing.T) {
	ds := buildStore(t, nil, []string{"a long encyclopedia article body"})
	r := New(ds)

	require.Equal(t, "a long encyclopedia article body", r.LongText(0))
	require.Equal(t, "a long encyclopedia article body", r.LongText(0))
}

func TestOptAccessorsHandleNil(t *testing.T) {
	ds := buildStore(t, []string{"x"}, []string{"y"})
	r := New(ds)

	s, ok := r.OptString(0, false)
	require.False(t, ok)
	require.Empty(t, s)

	s, ok = r.OptString(model.StringId(0), true)
	require.True(t, ok)
	require.Equal(t, "x", s)

	txt, ok := r.OptLongText(0, false)
	require.False(t, ok)
	require.Empty(t, txt)
}
