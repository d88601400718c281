package storage

import (
	"regexp"
	"strings"
)

const maxNameRunes = 180

var (
	unsafeChars = regexp.MustCompile(`[\\/:*?"<>|]`)
	multiSpace  = regexp.MustCompile(`\s+`)
)

// SanitizeFilename turns an arbitrary source or draft title into a safe
// file name: path-hostile characters become '-', whitespace runs collapse
// to a single space, and the result is capped at 180 runes.
func SanitizeFilename(name string) string {
	name = unsafeChars.ReplaceAllString(name, "-")
	name = strings.TrimSpace(multiSpace.ReplaceAllString(name, " "))
	runes := []rune(name)
	if len(runes) > maxNameRunes {
		return string(runes[:maxNameRunes])
	}
	return name
}
