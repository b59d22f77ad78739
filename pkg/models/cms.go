package models

type CMSConfig struct {
	Collections         []Collection      `yaml:"collections" json:"collections"`
	Rules               map[string]string `yaml:"rules" json:"rules"`
	PostURL             string            `yaml:"post_url" json:"post_url"`
	Release             bool              `yaml:"release" json:"release"`
	DescriptionMax      int               `yaml:"description_max" json:"description_max"`
	SimilarityThreshold float64           `yaml:"similarity_threshold" json:"similarity_threshold"`
	Concurrency         int               `yaml:"concurrency" json:"concurrency"`
}

type Collection struct {
	Name      string  `yaml:"name" json:"name"`
	Label     string  `yaml:"label" json:"label"`
	Folder    string  `yaml:"folder" json:"folder"`
	Extension string  `yaml:"extension" json:"extension"`
	Fields    []Field `yaml:"fields" json:"fields"`
}

type Field struct {
	Name     string      `yaml:"name" json:"name"`
	Widget   string      `yaml:"widget" json:"widget"`
	Required bool        `yaml:"required" json:"required"`
	Default  interface{} `yaml:"default,omitempty" json:"default,omitempty"`
}

// Widget names understood by the linter.
const (
	WidgetString   = "string"
	WidgetText     = "text"
	WidgetDatetime = "datetime"
	WidgetBoolean  = "boolean"
	WidgetList     = "list"
	WidgetImage    = "image"
)

// Field returns the named field of the collection, if declared.
func (c Collection) Field(name string) (Field, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}
