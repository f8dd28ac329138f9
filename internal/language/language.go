package language

// DefaultCode is used for users who never picked a language.
const DefaultCode = "en"

// supported maps a language code to its display name. Adding an entry here is
// all that is needed to support a new target language.
var supported = map[string]string{
	"en": "English",
	"es": "Spanish",
	"fr": "French",
	"de": "German",
	"it": "Italian",
	"pt": "Portuguese",
	"ru": "Russian",
	"ja": "Japanese",
	"ko": "Korean",
	"zh": "Chinese",
	"ar": "Arabic",
	"hi": "Hindi",
	"tr": "Turkish",
	"pl": "Polish",
	"nl": "Dutch",
	"sv": "Swedish",
	"da": "Danish",
	"no": "Norwegian",
	"fi": "Finnish",
}

// codeOrder keeps listings stable.
var codeOrder = []string{
	"en", "es", "fr", "de", "it", "pt", "ru", "ja", "ko", "zh",
	"ar", "hi", "tr", "pl", "nl", "sv", "da", "no", "fi",
}

// IsSupported reports whether code is a member of the supported enumeration.
func IsSupported(code string) bool {
	_, ok := supported[code]
	return ok
}

// Name returns the display name for a language code, falling back to English
// for unknown codes.
func Name(code string) string {
	if name, ok := supported[code]; ok {
		return name
	}
	return supported[DefaultCode]
}

// Codes returns all supported language codes in a stable order.
func Codes() []string {
	codes := make([]string, len(codeOrder))
	copy(codes, codeOrder)
	return codes
}
