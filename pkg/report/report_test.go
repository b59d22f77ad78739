package report

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postlint/pkg/models"
)

var sample = models.Report{
	Posts:    2,
	Errors:   1,
	Warnings: 1,
	Findings: []models.Finding{
		{Rule: "anchor-link", Severity: models.SeverityError, Path: "a.md", Line: 12, Message: "anchor #x does not exist in this post"},
		{Rule: "tags", Severity: models.SeverityWarning, Path: "b.md", Line: 6, Message: "100% sure\nsecond line"},
	},
}

func TestRenderTable(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sample, FormatTable, "content"))

	out := buf.String()
	assert.Contains(t, out, "content/a.md:12")
	assert.Contains(t, out, "anchor-link")
	assert.Contains(t, out, "warning")
	assert.Contains(t, out, "2 posts checked, 1 errors, 1 warnings")
}

func TestRenderTableEmpty(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, models.Report{Posts: 3}, "", ""))
	assert.Equal(t, "3 posts checked, 0 errors, 0 warnings\n", buf.String())
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sample, FormatJSON, "content"))

	var got models.Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, sample, got)
}

func TestRenderGitHub(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sample, FormatGitHub, "content"))

	assert.Equal(t,
		"::error file=content/a.md,line=12,title=anchor-link::anchor #x does not exist in this post\n"+
			"::warning file=content/b.md,line=6,title=tags::100%25 sure%0Asecond line\n",
		buf.String())
}

func TestRenderUnknownFormat(t *testing.T) {
	err := Render(&bytes.Buffer{}, sample, "xml", "")
	assert.ErrorContains(t, err, "unknown report format")
}

func TestRenderGitHubEscapesProperties(t *testing.T) {
	r := models.Report{Findings: []models.Finding{
		{Rule: "tags", Severity: models.SeverityWarning, Path: "notes, part 1:2.md", Line: 3, Message: "a, b: c"},
	}}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, r, FormatGitHub, ""))
	assert.Equal(t, "::warning file=notes%2C part 1%3A2.md,line=3,title=tags::a, b: c\n", buf.String())
}
