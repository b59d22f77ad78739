package lint

import "postlint/pkg/models"

// Rule identifiers, as used in settings and reports.
const (
	RuleFrontMatter   = models.RuleFrontMatter
	RuleRequiredField = models.RuleRequiredField
	RuleFieldType     = models.RuleFieldType
	RuleDraftState    = models.RuleDraftState
	RuleAnchorLink    = models.RuleAnchorLink
	RuleDuplicateSlug = models.RuleDuplicateSlug
	RuleSlugFormat    = models.RuleSlugFormat
	RuleTags          = models.RuleTags
	RuleDescription   = models.RuleDescription
	RuleCoverImage    = models.RuleCoverImage
	RuleNearDuplicate = models.RuleNearDuplicate
)

var defaultSeverity = map[string]models.Severity{
	RuleFrontMatter:   models.SeverityError,
	RuleRequiredField: models.SeverityError,
	RuleFieldType:     models.SeverityError,
	RuleDraftState:    models.SeverityError,
	RuleAnchorLink:    models.SeverityError,
	RuleDuplicateSlug: models.SeverityError,
	RuleSlugFormat:    models.SeverityWarning,
	RuleTags:          models.SeverityWarning,
	RuleDescription:   models.SeverityWarning,
	RuleCoverImage:    models.SeverityWarning,
	RuleNearDuplicate: models.SeverityWarning,
}

// Rules lists every rule with its default severity.
func Rules() map[string]models.Severity {
	out := make(map[string]models.Severity, len(defaultSeverity))
	for k, v := range defaultSeverity {
		out[k] = v
	}
	return out
}

// keyAliases are alternative spellings accepted for a collection field.
var keyAliases = map[string][]string{
	"pubDatetime": {"pubDatetime", "date"},
	"slug":        {"slug", "postSlug"},
	"postSlug":    {"postSlug", "slug"},
}

func aliasesOf(key string) []string {
	if a, ok := keyAliases[key]; ok {
		return a
	}
	return []string{key}
}
