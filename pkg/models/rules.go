package models

// Rule identifiers, as used in settings and reports.
const (
	RuleFrontMatter   = "frontmatter"
	RuleRequiredField = "required-field"
	RuleFieldType     = "field-type"
	RuleDraftState    = "draft-state"
	RuleAnchorLink    = "anchor-link"
	RuleDuplicateSlug = "duplicate-slug"
	RuleSlugFormat    = "slug-format"
	RuleTags          = "tags"
	RuleDescription   = "description"
	RuleCoverImage    = "cover-image"
	RuleNearDuplicate = "near-duplicate"
)

// RuleIDs lists every rule the linter knows.
var RuleIDs = []string{
	RuleFrontMatter,
	RuleRequiredField,
	RuleFieldType,
	RuleDraftState,
	RuleAnchorLink,
	RuleDuplicateSlug,
	RuleSlugFormat,
	RuleTags,
	RuleDescription,
	RuleCoverImage,
	RuleNearDuplicate,
}

func IsKnownRule(id string) bool {
	for _, r := range RuleIDs {
		if r == id {
			return true
		}
	}
	return false
}
