package jsonfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"joconde_watcher/internal/domain"
)

func TestDecode(t *testing.T) {
	t.Run("maps fields and preserves order", func(t *testing.T) {
		data := []byte(`[
			{"reference": "000PE000001", "appellation": "La Joconde", "ville": "Paris", "extra": "dropped"},
			{"reference": "000PE000002", "auteur": null},
			{"reference": "000PE000003", "date_creation": 1503}
		]`)

		batch, err := Decode("batch.json", data)
		require.NoError(t, err)
		require.Len(t, batch.Entries, 3)
		assert.Equal(t, "batch.json", batch.Path)

		first := batch.Entries[0]
		require.NoError(t, first.Err)
		assert.Equal(t, "000PE000001", *first.Notice.Reference)
		assert.Equal(t, "La Joconde", *first.Notice.Appellation)
		assert.Equal(t, "Paris", *first.Notice.Ville)
		assert.Nil(t, first.Notice.Auteur)
		assert.Nil(t, first.Notice.Description)

		assert.Equal(t, "000PE000002", *batch.Entries[1].Notice.Reference)
		assert.Nil(t, batch.Entries[1].Notice.Auteur)

		assert.Equal(t, "1503", *batch.Entries[2].Notice.DateCreation)
	})

	t.Run("empty array is a valid empty batch", func(t *testing.T) {
		batch, err := Decode("empty.json", []byte(" [] "))
		require.NoError(t, err)
		assert.Empty(t, batch.Entries)
	})

	t.Run("bad elements become entry errors", func(t *testing.T) {
		data := []byte(`[{"reference": "A"}, 42, {"region": {"code": 11}}, {"reference": "B"}]`)

		batch, err := Decode("mixed.json", data)
		require.NoError(t, err)
		require.Len(t, batch.Entries, 4)

		assert.NoError(t, batch.Entries[0].Err)
		assert.ErrorIs(t, batch.Entries[1].Err, domain.ErrRecord)
		assert.ErrorIs(t, batch.Entries[2].Err, domain.ErrRecord)
		assert.Contains(t, batch.Entries[2].Err.Error(), `"region"`)
		assert.NoError(t, batch.Entries[3].Err)
	})

	parseFailures := []struct {
		name string
		data string
	}{
		{name: "empty file", data: ""},
		{name: "object instead of array", data: `{"reference": "A"}`},
		{name: "null document", data: "null"},
		{name: "truncated array", data: `[{"reference": "A"},`},
		{name: "not json", data: "reference;appellation\nA;B\n"},
	}
	for _, tc := range parseFailures {
		t.Run("parse failure: "+tc.name, func(t *testing.T) {
			_, err := Decode("bad.json", []byte(tc.data))
			assert.ErrorIs(t, err, domain.ErrParse)
		})
	}
}

func TestMapRecord_UnicodeAndBooleans(t *testing.T) {
	notice, err := MapRecord([]byte(`{"description": "Huile sur bois de peuplier, été", "denomination": true}`))
	require.NoError(t, err)
	assert.Equal(t, "Huile sur bois de peuplier, été", *notice.Description)
	assert.Equal(t, "true", *notice.Denomination)
}

func TestReader_ReadBatch(t *testing.T) {
	dir := t.TempDir()

	t.Run("reads file from disk", func(t *testing.T) {
		path := filepath.Join(dir, "batch_00001.json")
		require.NoError(t, os.WriteFile(path, []byte(`[{"reference": "A"}]`), 0o644))

		batch, err := NewReader().ReadBatch(path)
		require.NoError(t, err)
		assert.Len(t, batch.Entries, 1)
	})

	t.Run("missing file is a parse error", func(t *testing.T) {
		_, err := NewReader().ReadBatch(filepath.Join(dir, "gone.json"))
		assert.ErrorIs(t, err, domain.ErrParse)
	})
}
