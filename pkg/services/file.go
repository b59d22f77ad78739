package services

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"postlint/pkg/config"
	"postlint/pkg/models"
)

var postExtensions = map[string]bool{".md": true, ".mdx": true, ".markdown": true}

// SafeJoin joins target under root/sub, returning "" when target would escape.
func SafeJoin(root, sub, target string) string {
	if target == "" || filepath.IsAbs(target) || strings.HasPrefix(target, "/") {
		return ""
	}
	cleanTarget := filepath.Clean(filepath.FromSlash(target))
	if cleanTarget == ".." || strings.HasPrefix(cleanTarget, ".."+string(filepath.Separator)) {
		return ""
	}
	return filepath.Join(root, sub, cleanTarget)
}

// ContentFile resolves a post path relative to the content directory.
func ContentFile(relPath string) (string, error) {
	full := SafeJoin(config.ContentPath(), "", relPath)
	if full == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, relPath)
	}
	return full, nil
}

// GetConfig loads the lint settings from the configured location.
func GetConfig() (*models.CMSConfig, error) {
	return config.LoadSettings(config.SettingsPath())
}

// CollectionFor picks the collection whose folder holds relPath. The most
// specific folder wins.
func CollectionFor(settings *models.CMSConfig, relPath string) (*models.Collection, bool) {
	relPath = filepath.ToSlash(relPath)
	var best *models.Collection
	bestLen := -1
	for i := range settings.Collections {
		col := &settings.Collections[i]
		if !matchesExtension(col, relPath) {
			continue
		}
		folder := cleanFolder(col.Folder)
		if folder != "" && relPath != folder && !strings.HasPrefix(relPath, folder+"/") {
			continue
		}
		if len(folder) > bestLen {
			best, bestLen = col, len(folder)
		}
	}
	return best, best != nil
}

// FindCollection returns the named collection.
func FindCollection(settings *models.CMSConfig, name string) (*models.Collection, error) {
	for i := range settings.Collections {
		if settings.Collections[i].Name == name {
			return &settings.Collections[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCollection, name)
}

func cleanFolder(folder string) string {
	folder = path.Clean(filepath.ToSlash(folder))
	if folder == "." || folder == "/" {
		return ""
	}
	return strings.TrimPrefix(folder, "/")
}

func matchesExtension(col *models.Collection, relPath string) bool {
	ext := strings.ToLower(path.Ext(relPath))
	if col.Extension != "" && col.Extension != "md" {
		return ext == "."+strings.ToLower(col.Extension)
	}
	return postExtensions[ext]
}

// BuildPost parses raw file content into a Post. Parse problems are recorded on
// the post instead of being returned, so a broken file still shows up in the
// index and in lint reports.
func BuildPost(relPath string, collection *models.Collection, content []byte) models.Post {
	relPath = filepath.ToSlash(relPath)
	post := models.Post{
		Path:  relPath,
		Title: relPath,
	}
	if collection != nil {
		post.Collection = collection.Name
	}

	fm, block, err := parseFrontMatterBlock(content)
	post.Body = block.Body
	post.BodyLine = block.BodyLine
	post.Format = block.Format
	post.KeyLines = frontMatterKeyLines(block)
	if err != nil {
		post.ParseErr = err
		post.Slug = SlugFromPath(relPath)
		return post
	}

	meta, fieldErrs := DecodeFrontMatter(fm)
	post.FrontMatter = fm
	post.Meta = meta
	post.FieldErrors = fieldErrs
	post.Draft = meta.Draft
	if meta.Title != "" {
		post.Title = meta.Title
	}
	post.Slug = EffectiveSlug(meta, relPath)
	return post
}

var frontMatterKey = regexp.MustCompile(`^\s*"?([A-Za-z0-9_-]+)"?\s*[:=]`)

// frontMatterKeyLines locates top-level keys in the raw block so findings can
// point at the offending line.
func frontMatterKeyLines(block frontMatterBlock) map[string]int {
	if block.Block == "" {
		return nil
	}
	first := block.BlockLine
	if first < 1 {
		first = 1
	}
	lines := map[string]int{}
	for i, line := range strings.Split(block.Block, "\n") {
		if block.Format != FormatJSON && strings.HasPrefix(line, " ") {
			continue
		}
		if m := frontMatterKey.FindStringSubmatch(line); m != nil {
			if _, seen := lines[m[1]]; !seen {
				lines[m[1]] = first + i
			}
		}
	}
	return lines
}

// ReadPost loads a single post from the content directory.
func ReadPost(settings *models.CMSConfig, relPath string) (models.Post, error) {
	full, err := ContentFile(relPath)
	if err != nil {
		return models.Post{}, err
	}
	content, err := os.ReadFile(full)
	if err != nil {
		return models.Post{}, err
	}
	collection, _ := CollectionFor(settings, relPath)
	return BuildPost(relPath, collection, content), nil
}

// WritePost saves content under the content directory, creating parent
// directories as needed.
func WritePost(relPath string, content []byte) error {
	full, err := ContentFile(relPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(full, content, 0o644); err != nil {
		return err
	}
	InvalidateCache()
	return nil
}
