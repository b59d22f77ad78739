package services

import (
	"sort"
	"strings"

	"postlint/pkg/models"
)

// FixPost rewrites a post's front matter into canonical form: collection
// defaults applied, a slug filled in when the collection declares one, and
// tags lowercased, de-duplicated and sorted. Content without front matter is
// returned unchanged with changed=false.
func FixPost(settings *models.CMSConfig, relPath string, content []byte) ([]byte, bool, error) {
	fm, body, format, err := ParseFrontMatter(content)
	if err != nil {
		return content, false, err
	}

	collection, _ := CollectionFor(settings, relPath)
	applyCollectionDefaultsInPlace(fm, collection)

	if collection != nil {
		if _, declared := collection.Field("slug"); declared {
			_, hasSlug := fm["slug"]
			_, hasPostSlug := fm["postSlug"]
			if !hasSlug && !hasPostSlug {
				fm["slug"] = SlugFromPath(relPath)
			}
		}
	}

	if tags, ok := fm["tags"].([]interface{}); ok {
		fm["tags"] = normalizeTags(tags)
	}

	fixed, err := ConstructFileContent(fm, body, format)
	if err != nil {
		return content, false, err
	}
	return fixed, string(fixed) != string(content), nil
}

// normalizeTags keeps non-string entries untouched so field-type findings
// still surface them.
func normalizeTags(tags []interface{}) []interface{} {
	seen := map[string]bool{}
	var names []string
	var other []interface{}
	for _, t := range tags {
		s, ok := t.(string)
		if !ok {
			other = append(other, t)
			continue
		}
		key := strings.ToLower(strings.TrimSpace(s))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		names = append(names, key)
	}
	sort.Strings(names)

	out := make([]interface{}, 0, len(names)+len(other))
	for _, n := range names {
		out = append(out, n)
	}
	return append(out, other...)
}
