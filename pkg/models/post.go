package models

import "time"

// Post represents a content file in a collection.
type Post struct {
	Path        string                 `json:"path"`
	Collection  string                 `json:"collection"`
	Title       string                 `json:"title"`
	Slug        string                 `json:"slug"`
	Draft       bool                   `json:"draft"`
	Content     string                 `json:"content,omitempty"` // Raw content, used when no front matter is sent
	FrontMatter map[string]interface{} `json:"frontmatter,omitempty"`
	Meta        FrontMatter            `json:"-"`
	FieldErrors []FieldError           `json:"-"`
	ParseErr    error                  `json:"-"`
	Body        string                 `json:"body,omitempty"`
	BodyLine    int                    `json:"-"`                // 1-based file line where the body starts
	KeyLines    map[string]int         `json:"-"`                // front matter key -> file line
	Format      string                 `json:"format,omitempty"` // yaml, toml, json
	IsDirty     bool                   `json:"is_dirty"`
}

// FrontMatter is the typed view of the keys a blog post is expected to carry.
type FrontMatter struct {
	Author      string     `json:"author,omitempty"`
	PubDatetime *time.Time `json:"pubDatetime,omitempty"`
	ModDatetime *time.Time `json:"modDatetime,omitempty"`
	Title       string     `json:"title,omitempty"`
	Slug        string     `json:"slug,omitempty"`
	Featured    bool       `json:"featured"`
	Draft       bool       `json:"draft"`
	Tags        []string   `json:"tags,omitempty"`
	Description string     `json:"description,omitempty"`
	OGImage     string     `json:"ogImage,omitempty"`
}

// FieldError records a front matter key whose value has the wrong shape.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}
