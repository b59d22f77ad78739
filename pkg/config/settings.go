package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
	"gopkg.in/yaml.v3"

	"postlint/pkg/models"
)

const (
	DefaultDescriptionMax      = 160
	DefaultSimilarityThreshold = 0.9

	configInvalidCode = "CONFIG_INVALID"
)

var knownWidgets = map[string]bool{
	models.WidgetString:   true,
	models.WidgetText:     true,
	models.WidgetDatetime: true,
	models.WidgetBoolean:  true,
	models.WidgetList:     true,
	models.WidgetImage:    true,
}

// DefaultSettings describes a single blog collection with the usual post keys.
func DefaultSettings() *models.CMSConfig {
	return &models.CMSConfig{
		Collections: []models.Collection{
			{
				Name:      "posts",
				Label:     "Posts",
				Folder:    ".",
				Extension: "md",
				Fields: []models.Field{
					{Name: "author", Widget: models.WidgetString, Required: true},
					{Name: "pubDatetime", Widget: models.WidgetDatetime, Required: true},
					{Name: "modDatetime", Widget: models.WidgetDatetime},
					{Name: "title", Widget: models.WidgetString, Required: true},
					{Name: "slug", Widget: models.WidgetString},
					{Name: "featured", Widget: models.WidgetBoolean, Default: false},
					{Name: "draft", Widget: models.WidgetBoolean, Default: false},
					{Name: "tags", Widget: models.WidgetList},
					{Name: "description", Widget: models.WidgetText, Required: true},
					{Name: "ogImage", Widget: models.WidgetImage},
				},
			},
		},
		Rules:               map[string]string{},
		PostURL:             "/posts/{slug}",
		DescriptionMax:      DefaultDescriptionMax,
		SimilarityThreshold: DefaultSimilarityThreshold,
	}
}

// LoadSettings reads the lint settings file. A missing file yields the
// defaults; a malformed one is a validation error.
func LoadSettings(path string) (*models.CMSConfig, error) {
	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg := DefaultSettings()
		applyConcurrency(cfg)
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings %s: %w", path, err)
	}
	return ParseSettings(content)
}

// ParseSettings decodes and validates a YAML settings document.
func ParseSettings(content []byte) (*models.CMSConfig, error) {
	var cfg models.CMSConfig
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "settings are not valid YAML").
			WithTextCode(configInvalidCode)
	}

	defaults := DefaultSettings()
	if len(cfg.Collections) == 0 {
		cfg.Collections = defaults.Collections
	}
	for i := range cfg.Collections {
		if cfg.Collections[i].Folder == "" {
			cfg.Collections[i].Folder = "."
		}
		if cfg.Collections[i].Extension == "" {
			cfg.Collections[i].Extension = "md"
		}
		cfg.Collections[i].Extension = strings.TrimPrefix(cfg.Collections[i].Extension, ".")
	}
	if cfg.Rules == nil {
		cfg.Rules = map[string]string{}
	}
	if cfg.PostURL == "" {
		cfg.PostURL = defaults.PostURL
	}
	if cfg.DescriptionMax == 0 {
		cfg.DescriptionMax = defaults.DescriptionMax
	}
	if cfg.SimilarityThreshold == 0 {
		cfg.SimilarityThreshold = defaults.SimilarityThreshold
	}
	applyConcurrency(&cfg)

	if err := ValidateSettings(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyConcurrency(cfg *models.CMSConfig) {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = CacheConcurrency
	}
}

// ValidateSettings checks collection and rule declarations.
func ValidateSettings(cfg *models.CMSConfig) error {
	err := validation.ValidateStruct(cfg,
		validation.Field(&cfg.Collections, validation.Required, validation.By(validateCollections)),
		validation.Field(&cfg.Rules, validation.By(validateRules)),
		validation.Field(&cfg.DescriptionMax, validation.Min(1)),
		validation.Field(&cfg.SimilarityThreshold, validation.Min(0.0).Exclusive(), validation.Max(1.0)),
		validation.Field(&cfg.PostURL, validation.By(func(value any) error {
			if !strings.Contains(value.(string), "{slug}") {
				return validation.NewError("postlint.config.post_url", "post_url must contain {slug}")
			}
			return nil
		})),
	)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid postlint settings").
			WithTextCode(configInvalidCode)
	}
	return nil
}

func validateCollections(value any) error {
	collections, _ := value.([]models.Collection)
	seen := make(map[string]bool, len(collections))
	for _, col := range collections {
		name := strings.TrimSpace(col.Name)
		if name == "" {
			return validation.NewError("postlint.config.collection_name", "collection name is required")
		}
		if seen[name] {
			return validation.NewError("postlint.config.collection_duplicate", fmt.Sprintf("collection %q declared twice", name))
		}
		seen[name] = true
		if strings.Contains(col.Folder, "..") {
			return validation.NewError("postlint.config.collection_folder", fmt.Sprintf("collection %q folder escapes the content dir", name))
		}
		for _, field := range col.Fields {
			if field.Name == "" {
				return validation.NewError("postlint.config.field_name", fmt.Sprintf("collection %q has a field without a name", name))
			}
			if field.Widget != "" && !knownWidgets[field.Widget] {
				return validation.NewError("postlint.config.field_widget", fmt.Sprintf("field %s.%s uses unknown widget %q", name, field.Name, field.Widget))
			}
		}
	}
	return nil
}

func validateRules(value any) error {
	rules, _ := value.(map[string]string)
	for rule, severity := range rules {
		if !models.IsKnownRule(rule) {
			return validation.NewError("postlint.config.rule_unknown", fmt.Sprintf("unknown rule %q (known: %s)", rule, strings.Join(models.RuleIDs, ", ")))
		}
		switch models.Severity(severity) {
		case models.SeverityError, models.SeverityWarning, models.SeverityOff:
		default:
			return validation.NewError("postlint.config.rule_severity", fmt.Sprintf("rule %s has unknown severity %q", rule, severity))
		}
	}
	return nil
}
