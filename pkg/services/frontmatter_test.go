package services

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postlint/pkg/config"
)

const yamlPost = `---
title: Hello
draft: false
tags:
  - go
pubDatetime: 2024-01-02T10:00:00Z
---

# Body
`

func TestParseFrontMatterYAML(t *testing.T) {
	fm, body, format, err := ParseFrontMatter([]byte(yamlPost))
	require.NoError(t, err)

	assert.Equal(t, FormatYAML, format)
	assert.Equal(t, "Hello", fm["title"])
	assert.Equal(t, false, fm["draft"])
	assert.Equal(t, "# Body", body)

	meta, errs := DecodeFrontMatter(fm)
	assert.Empty(t, errs)
	require.NotNil(t, meta.PubDatetime)
	assert.True(t, meta.PubDatetime.Equal(time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, []string{"go"}, meta.Tags)
}

func TestParseFrontMatterTOML(t *testing.T) {
	content := "+++\ntitle = \"Hi\"\ndraft = true\ndate = 2024-01-02\npostSlug = \"hi-there\"\n+++\nSome text\n"

	fm, body, format, err := ParseFrontMatter([]byte(content))
	require.NoError(t, err)
	assert.Equal(t, FormatTOML, format)
	assert.Equal(t, "Some text", body)

	meta, errs := DecodeFrontMatter(fm)
	assert.Empty(t, errs)
	assert.True(t, meta.Draft)
	assert.Equal(t, "hi-there", meta.Slug)
	require.NotNil(t, meta.PubDatetime)
	assert.Equal(t, 2024, meta.PubDatetime.Year())
	assert.Equal(t, time.January, meta.PubDatetime.Month())
}

func TestParseFrontMatterJSON(t *testing.T) {
	content := "{\n  \"title\": \"J {braces}\",\n  \"tags\": [\"a\"]\n}\n\nBody text\n"

	fm, body, format, err := ParseFrontMatter([]byte(content))
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, format)
	assert.Equal(t, "J {braces}", fm["title"])
	assert.Equal(t, "Body text", body)
}

func TestParseFrontMatterCRLF(t *testing.T) {
	content := strings.ReplaceAll(yamlPost, "\n", "\r\n")

	fm, body, _, err := ParseFrontMatter([]byte(content))
	require.NoError(t, err)
	assert.Equal(t, "Hello", fm["title"])
	assert.Equal(t, "# Body", body)
}

func TestParseFrontMatterErrors(t *testing.T) {
	cases := map[string]string{
		"missing":  "# Just a heading\n",
		"unclosed": "---\ntitle: x\n\nbody\n",
		"invalid":  "---\ntitle: [unterminated\n---\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, _, err := ParseFrontMatter([]byte(content))
			require.Error(t, err)
			assert.True(t, IsValidationError(err))
		})
	}
}

func TestParseFrontMatterEmptyBlock(t *testing.T) {
	fm, body, _, err := ParseFrontMatter([]byte("---\n---\nText\n"))
	require.NoError(t, err)
	assert.Empty(t, fm)
	assert.Equal(t, "Text", body)
}

func TestDecodeFrontMatterReportsWrongTypes(t *testing.T) {
	content := "---\ntitle: 42\ndraft: \"true\"\ntags: go\npubDatetime: next tuesday\n---\n"
	fm, _, _, err := ParseFrontMatter([]byte(content))
	require.NoError(t, err)

	_, errs := DecodeFrontMatter(fm)
	fields := map[string]bool{}
	for _, e := range errs {
		fields[e.Field] = true
	}
	assert.Equal(t, map[string]bool{"title": true, "draft": true, "tags": true, "pubDatetime": true}, fields)
}

func TestBuildPostLines(t *testing.T) {
	post := BuildPost("posts/hello.md", nil, []byte(yamlPost))

	require.NoError(t, post.ParseErr)
	assert.Equal(t, 8, post.BodyLine)
	assert.Equal(t, 2, post.KeyLines["title"])
	assert.Equal(t, 4, post.KeyLines["tags"])
	assert.Equal(t, 6, post.KeyLines["pubDatetime"])
	assert.Equal(t, "Hello", post.Title)
	assert.Equal(t, "hello", post.Slug)
}

func TestBuildPostKeepsBrokenFiles(t *testing.T) {
	post := BuildPost("posts/broken.md", nil, []byte("no front matter here"))

	assert.Error(t, post.ParseErr)
	assert.Equal(t, "posts/broken.md", post.Title)
	assert.Equal(t, "broken", post.Slug)
}

func TestConstructFileContentRoundTrip(t *testing.T) {
	for _, format := range []string{FormatYAML, FormatTOML, FormatJSON} {
		t.Run(format, func(t *testing.T) {
			out, err := ConstructFileContent(map[string]interface{}{"title": "T", "draft": true}, "Body", format)
			require.NoError(t, err)

			fm, body, gotFormat, err := ParseFrontMatter(out)
			require.NoError(t, err)
			assert.Equal(t, format, gotFormat)
			assert.Equal(t, "T", fm["title"])
			assert.Equal(t, true, fm["draft"])
			assert.Equal(t, "Body", body)
		})
	}

	_, err := ConstructFileContent(nil, "", "xml")
	assert.Error(t, err)
}

func TestNormalizeContentAppliesDefaults(t *testing.T) {
	collection := config.DefaultSettings().Collections[0]
	out := NormalizeContent([]byte("---\ntitle: A\n---\nBody\n"), &collection)

	fm, _, _, err := ParseFrontMatter(out)
	require.NoError(t, err)
	assert.Equal(t, false, fm["draft"])
	assert.Equal(t, false, fm["featured"])
	assert.Equal(t, "A", fm["title"])
}

func TestParseDatetime(t *testing.T) {
	for _, input := range []string{"2024-05-06", "2024-05-06T07:08:09", "2024-05-06 07:08:09", "2024-05-06T07:08:09+02:00"} {
		got, err := ParseDatetime(input)
		require.NoError(t, err, input)
		assert.Equal(t, 2024, got.Year())
		assert.Equal(t, 6, got.Day())
	}
	_, err := ParseDatetime(12)
	assert.Error(t, err)
}

func TestBuildPostJSONKeyLinesAfterBlankLines(t *testing.T) {
	post := BuildPost("a.md", nil, []byte("\n\n{\n  \"title\": 42,\n  \"draft\": true\n}\n\nBody\n"))

	require.NoError(t, post.ParseErr)
	assert.Equal(t, 4, post.KeyLines["title"])
	assert.Equal(t, 5, post.KeyLines["draft"])
	assert.Equal(t, 6, post.BodyLine)
}
