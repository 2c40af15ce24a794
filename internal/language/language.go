package language

import "strings"

type entry struct {
	code2   string // ISO 639-1 (2-letter)
	api     string // Storefront API language value (full English word)
	display string // Human-readable name
	native  string // Storefront "webapi" alias when it differs (e.g. "schinese")
}

// The storefront API takes full language words ("english", "koreana"), not
// ISO codes. This table covers the languages the reviews endpoint documents.
var languages = []entry{
	{"en", "english", "English", ""},
	{"es", "spanish", "Spanish", ""},
	{"fr", "french", "French", ""},
	{"de", "german", "German", ""},
	{"it", "italian", "Italian", ""},
	{"pt", "portuguese", "Portuguese", ""},
	{"ja", "japanese", "Japanese", ""},
	{"ko", "koreana", "Korean", "korean"},
	{"zh", "schinese", "Chinese (Simplified)", "chinese"},
	{"ru", "russian", "Russian", ""},
	{"pl", "polish", "Polish", ""},
	{"nl", "dutch", "Dutch", ""},
	{"sv", "swedish", "Swedish", ""},
	{"da", "danish", "Danish", ""},
	{"no", "norwegian", "Norwegian", ""},
	{"fi", "finnish", "Finnish", ""},
	{"tr", "turkish", "Turkish", ""},
	{"th", "thai", "Thai", ""},
	{"uk", "ukrainian", "Ukrainian", ""},
}

var (
	byCode2 map[string]*entry
	byWord  map[string]*entry
)

func init() {
	byCode2 = make(map[string]*entry, len(languages))
	byWord = make(map[string]*entry, len(languages)*2)
	for i := range languages {
		e := &languages[i]
		byCode2[e.code2] = e
		byWord[e.api] = e
		if e.native != "" {
			byWord[e.native] = e
		}
	}
}

func lookup(value string) *entry {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return nil
	}
	if e, ok := byCode2[value]; ok {
		return e
	}
	if e, ok := byWord[value]; ok {
		return e
	}
	return nil
}

// ToAPI converts a language code or word to the storefront API value.
// "all" passes through (the endpoint accepts it to disable filtering).
// Returns empty string for unrecognized input.
func ToAPI(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "all" {
		return "all"
	}
	if e := lookup(value); e != nil {
		return e.api
	}
	return ""
}

// Display returns the human-readable name for a language code or word.
// Unrecognized input is returned trimmed as-is.
func Display(value string) string {
	if e := lookup(value); e != nil {
		return e.display
	}
	return strings.TrimSpace(value)
}

// IsKnown reports whether value maps to a storefront language or "all".
func IsKnown(value string) bool {
	return ToAPI(value) != ""
}
