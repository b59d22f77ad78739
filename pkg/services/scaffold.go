package services

import (
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"postlint/pkg/models"
)

// GenerateContentFromCollection builds a new post from the collection's field
// defaults. New posts start as drafts dated now.
func GenerateContentFromCollection(collection models.Collection, overrides map[string]interface{}, now time.Time) ([]byte, error) {
	fm := make(map[string]interface{})
	var bodyContent string

	for _, field := range collection.Fields {
		// Check override first
		if val, ok := overrides[field.Name]; ok {
			if field.Name == "body" {
				if strVal, ok := val.(string); ok {
					bodyContent = strVal
				}
				continue
			}
			fm[field.Name] = val
			continue
		}

		if field.Name == "body" {
			if val, ok := field.Default.(string); ok {
				bodyContent = val
			}
			continue
		}

		if field.Default != nil {
			fm[field.Name] = field.Default
			continue
		}
		switch field.Widget {
		case models.WidgetDatetime:
			if field.Required || field.Name == "pubDatetime" {
				fm[field.Name] = now.UTC().Truncate(time.Second)
			}
		case models.WidgetBoolean:
			fm[field.Name] = false
		case models.WidgetList:
			fm[field.Name] = []string{}
		default:
			if field.Required {
				fm[field.Name] = ""
			}
		}
	}

	if _, ok := overrides["draft"]; !ok {
		fm["draft"] = true
	}

	return ConstructFileContent(fm, bodyContent, FormatYAML)
}

// CreatePost writes a new post named name into the collection folder. It
// refuses to overwrite an existing file.
func CreatePost(settings *models.CMSConfig, collectionName, name string, overrides map[string]interface{}) (string, error) {
	collection, err := FindCollection(settings, collectionName)
	if err != nil {
		return "", err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: empty name", ErrInvalidPath)
	}
	if path.Ext(name) == "" {
		ext := collection.Extension
		if ext == "" {
			ext = "md"
		}
		name += "." + ext
	}

	relPath := path.Join(cleanFolder(collection.Folder), name)
	full, err := ContentFile(relPath)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(full); err == nil {
		return "", fmt.Errorf("%w: %s", ErrPostExists, relPath)
	}

	if overrides == nil {
		overrides = map[string]interface{}{}
	}
	if _, ok := collection.Field("slug"); ok {
		if _, set := overrides["slug"]; !set {
			overrides["slug"] = SlugFromPath(relPath)
		}
	}

	content, err := GenerateContentFromCollection(*collection, overrides, time.Now())
	if err != nil {
		return "", err
	}
	if err := WritePost(relPath, content); err != nil {
		return "", err
	}
	return relPath, nil
}
