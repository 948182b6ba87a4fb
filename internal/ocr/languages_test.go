package ocr

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvailableLanguageNames(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"eng.traineddata", "deu.traineddata", "chi_sim.traineddata", "mine.traineddata", "osd.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "fra.traineddata"), 0o755))

	names := AvailableLanguageNames(dir)
	assert.Equal(t, []string{"Chinese (Simplified)", "German", "English", "mine"}, names)

	langs := AvailableLanguages(dir)
	require.Len(t, langs, 4)
	assert.Equal(t, "deu", langs[1].ID)
}

func TestAvailableLanguageNames_Empty(t *testing.T) {
	assert.Nil(t, AvailableLanguageNames(""))
	assert.Nil(t, AvailableLanguageNames(filepath.Join(t.TempDir(), "missing")))
	assert.Nil(t, AvailableLanguageNames(t.TempDir()))
}
