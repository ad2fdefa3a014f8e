package utils

import (
	"strings"

	"github.com/gosimple/slug"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var regionTitle = cases.Title(language.Und)

// NormalizeRegion canonicalizes a region name for storage and filtering
// ("Seoul Gangnam" and "seoul-gangnam" match the same rows).
func NormalizeRegion(s string) string {
	return slug.Make(s)
}

// DisplayRegion rebuilds a human-readable label from the slug form.
func DisplayRegion(s string) string {
	return regionTitle.String(strings.ReplaceAll(s, "-", " "))
}
