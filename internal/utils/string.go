package utils

import (
	"fmt"
	"strings"
	"unicode"
)

// Slugify converts a title into a folder-safe name: lowercase ASCII letters and
// digits, every other run of characters collapsed into a single '-'
func Slugify(title string) string {
	normalized := strings.ToLower(title)

	var result strings.Builder
	lastDash := false
	for _, r := range normalized {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			result.WriteRune(r)
			lastDash = false
		} else if !lastDash {
			result.WriteRune('-')
			lastDash = true
		}
	}

	// Remove leading/trailing separators
	resultStr := strings.Trim(result.String(), "-")

	if resultStr == "" {
		resultStr = "tutorial"
	}
	return resultStr
}

// UniqueSlugs slugifies every title, suffixing -2, -3, ... on collisions
func UniqueSlugs(titles []string) []string {
	used := make(map[string]bool, len(titles))
	out := make([]string, len(titles))
	for i, title := range titles {
		base := Slugify(title)
		slug := base
		for n := 2; used[slug]; n++ {
			slug = fmt.Sprintf("%s-%d", base, n)
		}
		used[slug] = true
		out[i] = slug
	}
	return out
}
