package services

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"postlint/pkg/models"
)

const (
	FormatYAML = "yaml"
	FormatTOML = "toml"
	FormatJSON = "json"
)

// frontMatterBlock is the raw split of a post file.
type frontMatterBlock struct {
	Format    string
	Block     string
	BlockLine int // file line of the block's first line
	Body      string
	BodyLine  int
}

// ParseFrontMatter detects the front matter format and decodes it. The body is
// returned without surrounding blank lines.
func ParseFrontMatter(content []byte) (map[string]interface{}, string, string, error) {
	fm, block, err := parseFrontMatterBlock(content)
	if err != nil {
		return nil, "", "", err
	}
	return fm, strings.TrimSpace(block.Body), block.Format, nil
}

func parseFrontMatterBlock(content []byte) (map[string]interface{}, frontMatterBlock, error) {
	block, err := splitFrontMatter(string(content))
	if err != nil {
		return nil, block, validationError(err, "front matter not found", CodeFrontMatterInvalid)
	}

	var fm map[string]interface{}
	switch block.Format {
	case FormatYAML:
		err = yaml.Unmarshal([]byte(block.Block), &fm)
	case FormatTOML:
		err = toml.Unmarshal([]byte(block.Block), &fm)
	case FormatJSON:
		err = json.Unmarshal([]byte(block.Block), &fm)
	}
	if err != nil {
		return nil, block, validationError(fmt.Errorf("%s front matter: %w", block.Format, err), "front matter does not decode", CodeFrontMatterInvalid)
	}
	if fm == nil {
		fm = map[string]interface{}{}
	}
	return sanitizeFrontMatter(fm), block, nil
}

func splitFrontMatter(str string) (frontMatterBlock, error) {
	str = strings.TrimPrefix(str, "\ufeff")
	str = normalizeLineEndings(str)

	if strings.HasPrefix(strings.TrimLeft(str, " \t\n"), "{") {
		return splitJSONFrontMatter(str)
	}

	lines := strings.Split(str, "\n")
	var delim, format string
	switch strings.TrimRight(lines[0], " \t") {
	case "---":
		delim, format = "---", FormatYAML
	case "+++":
		delim, format = "+++", FormatTOML
	default:
		return frontMatterBlock{Body: str, BodyLine: 1}, ErrNoFrontMatter
	}

	for i := 1; i < len(lines); i++ {
		if strings.TrimRight(lines[i], " \t") != delim {
			continue
		}
		return frontMatterBlock{
			Format:    format,
			Block:     strings.Join(lines[1:i], "\n"),
			BlockLine: 2,
			Body:      strings.Join(lines[i+1:], "\n"),
			BodyLine:  i + 2,
		}, nil
	}
	return frontMatterBlock{Format: format, Body: str, BodyLine: 1}, ErrUnclosedBlock
}

// splitJSONFrontMatter takes the leading JSON object as front matter.
func splitJSONFrontMatter(str string) (frontMatterBlock, error) {
	start := strings.Index(str, "{")
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(str); i++ {
		c := str[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				block := str[start : i+1]
				return frontMatterBlock{
					Format:    FormatJSON,
					Block:     block,
					BlockLine: strings.Count(str[:start], "\n") + 1,
					Body:      str[i+1:],
					BodyLine:  strings.Count(str[:i+1], "\n") + 1,
				}, nil
			}
		}
	}
	return frontMatterBlock{Format: FormatJSON, Body: str, BodyLine: 1}, ErrUnclosedBlock
}

func ConstructFileContent(fm map[string]interface{}, body string, format string) ([]byte, error) {
	normalizedFM := sanitizeFrontMatter(fm)
	if normalizedFM == nil {
		normalizedFM = map[string]interface{}{}
	}

	var buf bytes.Buffer
	switch format {
	case FormatYAML:
		buf.WriteString("---\n")
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(normalizedFM); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		buf.WriteString("---\n")
	case FormatTOML:
		buf.WriteString("+++\n")
		enc := toml.NewEncoder(&buf)
		if err := enc.Encode(normalizedFM); err != nil {
			return nil, err
		}
		buf.WriteString("+++\n")
	case FormatJSON:
		out, err := json.MarshalIndent(normalizedFM, "", "  ")
		if err != nil {
			return nil, err
		}
		buf.Write(out)
		buf.WriteString("\n")
	default:
		return nil, validationError(fmt.Errorf("%w: %q", ErrUnknownFormat, format), "cannot write front matter", CodeFormatUnsupported)
	}

	if body != "" {
		buf.WriteString("\n")
		buf.WriteString(body)
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// DecodeFrontMatter builds the typed view of a post's metadata. Keys with the
// wrong type are reported and left at their zero value.
func DecodeFrontMatter(fm map[string]interface{}) (models.FrontMatter, []models.FieldError) {
	d := decoder{fm: fm}
	meta := models.FrontMatter{
		Author:      d.str("author"),
		PubDatetime: d.datetime("pubDatetime", "date"),
		ModDatetime: d.datetime("modDatetime"),
		Title:       d.str("title"),
		Slug:        d.str("slug", "postSlug"),
		Featured:    d.boolean("featured"),
		Draft:       d.boolean("draft"),
		Tags:        d.list("tags"),
		Description: d.str("description"),
		OGImage:     d.str("ogImage"),
	}
	return meta, d.errs
}

type decoder struct {
	fm   map[string]interface{}
	errs []models.FieldError
}

// lookup returns the first present key among the aliases.
func (d *decoder) lookup(keys ...string) (string, interface{}, bool) {
	for _, k := range keys {
		if v, ok := d.fm[k]; ok && v != nil {
			return k, v, true
		}
	}
	return "", nil, false
}

func (d *decoder) fail(key, msg string) {
	d.errs = append(d.errs, models.FieldError{Field: key, Message: msg})
}

func (d *decoder) str(keys ...string) string {
	key, v, ok := d.lookup(keys...)
	if !ok {
		return ""
	}
	s, isStr := v.(string)
	if !isStr {
		d.fail(key, fmt.Sprintf("must be a string, got %T", v))
		return ""
	}
	return s
}

func (d *decoder) boolean(key string) bool {
	_, v, ok := d.lookup(key)
	if !ok {
		return false
	}
	b, isBool := v.(bool)
	if !isBool {
		d.fail(key, fmt.Sprintf("must be true or false, got %v", v))
		return false
	}
	return b
}

func (d *decoder) datetime(keys ...string) *time.Time {
	key, v, ok := d.lookup(keys...)
	if !ok {
		return nil
	}
	t, err := ParseDatetime(v)
	if err != nil {
		d.fail(key, err.Error())
		return nil
	}
	return &t
}

func (d *decoder) list(key string) []string {
	_, v, ok := d.lookup(key)
	if !ok {
		return nil
	}
	switch list := v.(type) {
	case []string:
		return append([]string(nil), list...)
	case []interface{}:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, isStr := item.(string)
			if !isStr {
				d.fail(key, fmt.Sprintf("entries must be strings, got %T", item))
				continue
			}
			out = append(out, s)
		}
		return out
	default:
		d.fail(key, fmt.Sprintf("must be a list, got %T", v))
		return nil
	}
}

var datetimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDatetime accepts the datetime shapes YAML, TOML and JSON front matter
// produce.
func ParseDatetime(value interface{}) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case toml.LocalDateTime:
		return v.AsTime(time.UTC), nil
	case toml.LocalDate:
		return v.AsTime(time.UTC), nil
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range datetimeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("%q is not a datetime", v)
	default:
		return time.Time{}, fmt.Errorf("must be a datetime, got %T", value)
	}
}

// NormalizeContent re-encodes a post with collection defaults applied. Content
// without front matter is only trimmed.
func NormalizeContent(content []byte, collection *models.Collection) []byte {
	if len(content) == 0 {
		return content
	}
	fm, body, format, err := ParseFrontMatter(content)
	if err != nil {
		return append(bytes.TrimSpace(content), '\n')
	}

	applyCollectionDefaultsInPlace(fm, collection)

	normalized, err := ConstructFileContent(fm, body, format)
	if err != nil {
		return append(bytes.TrimSpace(content), '\n')
	}
	return append(bytes.TrimSpace(normalized), '\n')
}

func sanitizeFrontMatter(fm map[string]interface{}) map[string]interface{} {
	if fm == nil {
		return nil
	}
	sanitized := make(map[string]interface{}, len(fm))
	for k, v := range fm {
		sanitized[k] = sanitizeFrontMatterValue(v)
	}
	return sanitized
}

func sanitizeFrontMatterValue(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		return sanitizeFrontMatter(v)
	case map[interface{}]interface{}:
		normalized := make(map[string]interface{}, len(v))
		for key, inner := range v {
			normalized[fmt.Sprint(key)] = sanitizeFrontMatterValue(inner)
		}
		return normalized
	case []interface{}:
		slice := make([]interface{}, len(v))
		for i := range v {
			slice[i] = sanitizeFrontMatterValue(v[i])
		}
		return slice
	default:
		return v
	}
}

func applyCollectionDefaultsInPlace(fm map[string]interface{}, collection *models.Collection) {
	if fm == nil || collection == nil {
		return
	}
	for _, field := range collection.Fields {
		if field.Name == "body" {
			continue
		}
		if _, exists := fm[field.Name]; !exists && field.Default != nil {
			fm[field.Name] = field.Default
		}
	}
}

func normalizeLineEndings(input string) string {
	return strings.ReplaceAll(input, "\r\n", "\n")
}
