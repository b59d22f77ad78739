package services

import (
	"path"
	"strconv"
	"strings"
	"unicode"

	"github.com/goliatone/go-slug"

	"postlint/pkg/models"
)

// EffectiveSlug is the declared slug, or one derived from the file name.
func EffectiveSlug(meta models.FrontMatter, relPath string) string {
	if s := strings.TrimSpace(meta.Slug); s != "" {
		return s
	}
	return SlugFromPath(relPath)
}

// SlugFromPath derives a slug from a post path. Bundles named index.md take
// their directory name.
func SlugFromPath(relPath string) string {
	relPath = strings.ReplaceAll(relPath, "\\", "/")
	base := path.Base(relPath)
	name := strings.TrimSuffix(base, path.Ext(base))
	if name == "index" || name == "_index" {
		if dir := path.Base(path.Dir(relPath)); dir != "." && dir != "/" {
			name = dir
		}
	}
	return NormalizeSlug(name)
}

// NormalizeSlug canonicalises a slug for comparison.
func NormalizeSlug(value string) string {
	normalized, err := slug.Normalize(value)
	if err != nil || normalized == "" {
		return strings.ToLower(strings.TrimSpace(value))
	}
	return normalized
}

func IsValidSlug(value string) bool {
	return slug.IsValid(value)
}

// headingSlugger assigns GitHub-style anchor IDs, suffixing repeats.
type headingSlugger struct {
	seen map[string]int
}

func newHeadingSlugger() *headingSlugger {
	return &headingSlugger{seen: map[string]int{}}
}

func (s *headingSlugger) Slug(text string) string {
	base := githubSlug(text)
	id := base
	for {
		if _, taken := s.seen[id]; !taken {
			break
		}
		s.seen[base]++
		id = base + "-" + strconv.Itoa(s.seen[base])
	}
	s.seen[id] = 0
	return id
}

// Reserve marks an explicit ID as used so generated IDs avoid it.
func (s *headingSlugger) Reserve(id string) {
	if _, ok := s.seen[id]; !ok {
		s.seen[id] = 0
	}
}

func githubSlug(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(text)) {
		switch {
		case r == ' ':
			b.WriteRune('-')
		case r == '-' || r == '_':
			b.WriteRune(r)
		case unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsMark(r):
			b.WriteRune(r)
		}
	}
	return b.String()
}
