package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const analyzedBody = `# Intro

See [setup](#setup) and [missing](#nope).

## Setup

## Setup

### Custom {#my-id}

<a id="raw"></a>

[ext](https://example.com)
`

func TestAnalyzeBodyHeadings(t *testing.T) {
	a := AnalyzeBody(analyzedBody, 10)

	require.Len(t, a.Headings, 4)
	ids := []string{}
	for _, h := range a.Headings {
		ids = append(ids, h.ID)
	}
	assert.Equal(t, []string{"intro", "setup", "setup-1", "my-id"}, ids)

	assert.Equal(t, 10, a.Headings[0].Line)
	assert.Equal(t, 14, a.Headings[1].Line)
	assert.Equal(t, 16, a.Headings[2].Line)
	assert.Equal(t, 18, a.Headings[3].Line)
}

func TestAnalyzeBodyAnchors(t *testing.T) {
	a := AnalyzeBody(analyzedBody, 1)

	for _, id := range []string{"intro", "setup", "setup-1", "my-id", "raw"} {
		assert.True(t, a.HasAnchor(id), id)
	}
	assert.False(t, a.HasAnchor("custom"))
	assert.False(t, a.HasAnchor("nope"))
}

func TestAnalyzeBodyLinks(t *testing.T) {
	a := AnalyzeBody(analyzedBody, 10)

	got := map[string]int{}
	for _, l := range a.Links {
		got[l.Destination] = l.Line
	}
	assert.Equal(t, map[string]int{
		"#setup":              12,
		"#nope":               12,
		"https://example.com": 22,
	}, got)
}

func TestAnalyzeBodyImages(t *testing.T) {
	a := AnalyzeBody("![cover](/assets/cover.png)\n", 1)

	require.Len(t, a.Links, 1)
	assert.True(t, a.Links[0].Image)
	assert.Equal(t, "/assets/cover.png", a.Links[0].Destination)
}

func TestAnalyzeBodyExplicitIDWins(t *testing.T) {
	a := AnalyzeBody("## First {#intro}\n\n## Intro\n", 1)

	require.Len(t, a.Headings, 2)
	assert.Equal(t, "intro", a.Headings[0].ID)
	assert.Equal(t, "intro-1", a.Headings[1].ID)
}

func TestAnalyzeBodyHTMLAnchors(t *testing.T) {
	body := "<h2 id=intro>Intro</h2>\n\n<input name=\"setup\">\n\n<a name=\"top\"></a>\n\n<div\n  id=\"deep\">\ntext\n</div>\n\nSee [intro](#intro).\n"
	a := AnalyzeBody(body, 5)

	assert.True(t, a.HasAnchor("intro"))
	assert.Equal(t, 5, a.Anchors["intro"])
	assert.False(t, a.HasAnchor("setup"), "name on a non-link element is not an anchor")
	assert.True(t, a.HasAnchor("top"))
	assert.Equal(t, 11, a.Anchors["deep"])
}

func TestAnalyzeBodyInlineHTMLAnchor(t *testing.T) {
	a := AnalyzeBody("Jump <span id='here'>here</span> or <meta name=\"nope\">.\n", 1)

	assert.True(t, a.HasAnchor("here"))
	assert.False(t, a.HasAnchor("nope"))
}
