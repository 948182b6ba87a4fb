// Package langcodes maps between language identifiers, Tesseract model
// names and display names.
package langcodes

// Language describes one recognizable language.
type Language struct {
	// ID is the ISO 639-2 code used throughout the application.
	ID string `json:"id"`
	// ISO6391 is the two-letter code, empty when none exists.
	ISO6391 string `json:"iso639_1,omitempty"`
	// Tesseract is the traineddata file stem.
	Tesseract string `json:"tesseract"`
	// Name is the English display name.
	Name string `json:"name"`
}

var languages = []Language{
	{"afr", "af", "afr", "Afrikaans"},
	{"ara", "ar", "ara", "Arabic"},
	{"aze", "az", "aze", "Azerbaijani"},
	{"bel", "be", "bel", "Belarusian"},
	{"ben", "bn", "ben", "Bengali"},
	{"bul", "bg", "bul", "Bulgarian"},
	{"cat", "ca", "cat", "Catalan"},
	{"ces", "cs", "ces", "Czech"},
	{"chi_sim", "zh", "chi_sim", "Chinese (Simplified)"},
	{"chi_tra", "", "chi_tra", "Chinese (Traditional)"},
	{"dan", "da", "dan", "Danish"},
	{"deu", "de", "deu", "German"},
	{"ell", "el", "ell", "Greek"},
	{"eng", "en", "eng", "English"},
	{"epo", "eo", "epo", "Esperanto"},
	{"est", "et", "est", "Estonian"},
	{"eus", "eu", "eus", "Basque"},
	{"fas", "fa", "fas", "Persian"},
	{"fin", "fi", "fin", "Finnish"},
	{"fra", "fr", "fra", "French"},
	{"glg", "gl", "glg", "Galician"},
	{"heb", "he", "heb", "Hebrew"},
	{"hin", "hi", "hin", "Hindi"},
	{"hrv", "hr", "hrv", "Croatian"},
	{"hun", "hu", "hun", "Hungarian"},
	{"ind", "id", "ind", "Indonesian"},
	{"isl", "is", "isl", "Icelandic"},
	{"ita", "it", "ita", "Italian"},
	{"jpn", "ja", "jpn", "Japanese"},
	{"kat", "ka", "kat", "Georgian"},
	{"kaz", "kk", "kaz", "Kazakh"},
	{"kor", "ko", "kor", "Korean"},
	{"lat", "la", "lat", "Latin"},
	{"lav", "lv", "lav", "Latvian"},
	{"lit", "lt", "lit", "Lithuanian"},
	{"mkd", "mk", "mkd", "Macedonian"},
	{"msa", "ms", "msa", "Malay"},
	{"nld", "nl", "nld", "Dutch"},
	{"nor", "no", "nor", "Norwegian"},
	{"pol", "pl", "pol", "Polish"},
	{"por", "pt", "por", "Portuguese"},
	{"ron", "ro", "ron", "Romanian"},
	{"rus", "ru", "rus", "Russian"},
	{"slk", "sk", "slk", "Slovak"},
	{"slv", "sl", "slv", "Slovenian"},
	{"spa", "es", "spa", "Spanish"},
	{"sqi", "sq", "sqi", "Albanian"},
	{"srp", "sr", "srp", "Serbian"},
	{"swe", "sv", "swe", "Swedish"},
	{"tha", "th", "tha", "Thai"},
	{"tur", "tr", "tur", "Turkish"},
	{"ukr", "uk", "ukr", "Ukrainian"},
	{"vie", "vi", "vie", "Vietnamese"},
}

var (
	byID        = make(map[string]Language, len(languages))
	byTesseract = make(map[string]Language, len(languages))
	byName      = make(map[string]Language, len(languages))
)

func init() {
	for _, l := range languages {
		byID[l.ID] = l
		byTesseract[l.Tesseract] = l
		byName[l.Name] = l
	}
}

// All returns every known language.
func All() []Language {
	out := make([]Language, len(languages))
	copy(out, languages)
	return out
}

// ByID looks up a language by its ISO 639-2 id.
func ByID(id string) (Language, bool) {
	l, ok := byID[id]
	return l, ok
}

// ByName looks up a language by display name.
func ByName(name string) (Language, bool) {
	l, ok := byName[name]
	return l, ok
}

// IDForTesseract returns the id for a traineddata stem, or "" if unknown.
func IDForTesseract(code string) string {
	return byTesseract[code].ID
}

// Tesseract returns the traineddata stem for id. Unknown ids are returned
// unchanged so custom models keep working.
func Tesseract(id string) string {
	if l, ok := byID[id]; ok {
		return l.Tesseract
	}
	return id
}

// Name returns the display name for id, or id itself if unknown.
func Name(id string) string {
	if l, ok := byID[id]; ok {
		return l.Name
	}
	return id
}
