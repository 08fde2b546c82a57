// Package slugify derives stable, filesystem and URL safe identifiers
// from camera brand and model names.
package slugify

import (
	"regexp"
	"strconv"
	"strings"
)

// MaxSlugLength bounds generated slugs so they remain usable as filenames.
const MaxSlugLength = 100

var (
	// unsafeRuns matches any run of whitespace or characters that are
	// invalid in filenames on common filesystems.
	unsafeRuns = regexp.MustCompile(`[\s/\\:*?"<>|]+`)
	// nonAlnum strips everything that is not a lowercase letter, digit
	// or hyphen after the initial replacement pass.
	nonAlnum    = regexp.MustCompile(`[^a-z0-9-]+`)
	hyphenRuns  = regexp.MustCompile(`-{2,}`)
	edgeHyphens = regexp.MustCompile(`^-+|-+$`)
)

// Slugify returns the canonical slug for a brand and model pair. It is pure
// and total: no input panics, empty components are substituted with literal
// placeholders so the result is never empty.
func Slugify(brand, model string) string {
	if strings.TrimSpace(brand) == "" {
		brand = "unknown"
	}
	if strings.TrimSpace(model) == "" {
		model = "model"
	}
	slug := strings.ToLower(brand + " " + model)
	slug = unsafeRuns.ReplaceAllString(slug, "-")
	slug = nonAlnum.ReplaceAllString(slug, "")
	slug = hyphenRuns.ReplaceAllString(slug, "-")
	slug = edgeHyphens.ReplaceAllString(slug, "")
	if slug == "" {
		slug = "unknown-model"
	}
	if len(slug) > MaxSlugLength {
		slug = strings.Trim(slug[:MaxSlugLength], "-")
	}
	return slug
}

// ResolveUnique appends a numeric suffix (-2, -3, ...) to candidate until
// exists reports the slug as free. Used only at insert time; assigned slugs
// are immutable afterwards.
func ResolveUnique(candidate string, exists func(string) bool) string {
	if !exists(candidate) {
		return candidate
	}
	for i := 2; ; i++ {
		next := candidate + "-" + strconv.Itoa(i)
		if !exists(next) {
			return next
		}
	}
}

// ImageFilename returns the filename for the full-size image of a slug.
func ImageFilename(slug string) string {
	return slug + ".jpg"
}

// ThumbFilename returns the filename for the thumbnail of a slug.
func ThumbFilename(slug string) string {
	return slug + "-thumb.jpg"
}

// AttributionFilename returns the filename for the attribution sidecar.
func AttributionFilename(slug string) string {
	return slug + ".json"
}
