package ocr

import (
	"os"
	"strings"

	"github.com/ironsheep/screen-ocr-mcp/internal/langcodes"
)

// AvailableLanguages lists the language models installed in tessdataPath.
// Models missing from the language table are reported under their file
// stem. An empty or missing directory yields nil.
func AvailableLanguages(tessdataPath string) []langcodes.Language {
	if tessdataPath == "" {
		return nil
	}
	entries, err := os.ReadDir(tessdataPath)
	if err != nil {
		return nil
	}

	var out []langcodes.Language
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ModelExtension) {
			continue
		}
		stem, _, _ := strings.Cut(name, ".")
		if l, ok := langcodes.ByID(langcodes.IDForTesseract(stem)); ok {
			out = append(out, l)
			continue
		}
		out = append(out, langcodes.Language{ID: stem, Tesseract: stem, Name: stem})
	}
	return out
}

// AvailableLanguageNames returns the display names of AvailableLanguages.
func AvailableLanguageNames(tessdataPath string) []string {
	langs := AvailableLanguages(tessdataPath)
	if len(langs) == 0 {
		return nil
	}
	names := make([]string, len(langs))
	for i, l := range langs {
		names[i] = l.Name
	}
	return names
}
