package runtime

import (
	"path/filepath"
	"strings"

	"github.com/src-d/enry/v2"
)

// extToLanguage maps Python file extensions to the canonical language name.
// Other files are classified by enry.
var extToLanguage = map[string]string{
	".py":  "python",
	".pyw": "python",
	".pyi": "python",
}

// LanguageForFile returns the canonical lower-case language name for a
// path. Returns ("", false) when the language cannot be determined.
func LanguageForFile(path string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if lang, ok := extToLanguage[ext]; ok {
		return lang, true
	}
	lang := enry.GetLanguage(filepath.Base(path), nil)
	if lang == "" {
		return "", false
	}
	return strings.ToLower(lang), true
}

// IsPython reports whether path holds Python source.
func IsPython(path string) bool {
	lang, ok := LanguageForFile(path)
	return ok && lang == "python"
}

// IsVendored reports whether path lies in a vendored or third-party
// directory that batch runs skip.
func IsVendored(path string) bool {
	return enry.IsVendor(filepath.ToSlash(path))
}
