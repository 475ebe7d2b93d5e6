package utils

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	maxSlugLength = 80
	fallbackSlug  = "forecast"
)

// Slugify turns free text into a lowercase, hyphen separated, URL-safe slug.
// Accents are folded; characters outside [a-z0-9] become separators.
func Slugify(text string) string {
	folder := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(folder, text)
	if err != nil {
		folded = text
	}

	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastDash = false
			continue
		}
		if !lastDash {
			b.WriteByte('-')
			lastDash = true
		}
	}

	slug := strings.Trim(b.String(), "-")
	if len(slug) > maxSlugLength {
		slug = slug[:maxSlugLength]
		if idx := strings.LastIndexByte(slug, '-'); idx > maxSlugLength/2 {
			slug = slug[:idx]
		}
		slug = strings.Trim(slug, "-")
	}
	if slug == "" {
		return fallbackSlug
	}
	return slug
}

// UniqueSlug returns base, or base-N with the smallest N >= 2 not in taken.
func UniqueSlug(base string, taken []string) string {
	used := make(map[string]struct{}, len(taken))
	for _, s := range taken {
		used[s] = struct{}{}
	}
	if _, ok := used[base]; !ok {
		return base
	}
	for n := 2; ; n++ {
		candidate := base + "-" + strconv.Itoa(n)
		if _, ok := used[candidate]; !ok {
			return candidate
		}
	}
}
