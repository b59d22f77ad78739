package report

import (
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/goccy/go-json"
	"github.com/olekukonko/tablewriter"

	"postlint/pkg/models"
)

const (
	FormatTable  = "table"
	FormatJSON   = "json"
	FormatGitHub = "github"
)

// Formats lists the supported output formats.
var Formats = []string{FormatTable, FormatJSON, FormatGitHub}

// Render writes the report in the requested format. pathPrefix is prepended
// to finding paths so they are relative to the repository root.
func Render(w io.Writer, r models.Report, format, pathPrefix string) error {
	switch format {
	case "", FormatTable:
		return renderTable(w, r, pathPrefix)
	case FormatJSON:
		return renderJSON(w, r)
	case FormatGitHub:
		return renderGitHub(w, r, pathPrefix)
	default:
		return fmt.Errorf("unknown report format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}
}

func displayPath(prefix, p string) string {
	if prefix == "" || prefix == "." {
		return p
	}
	return path.Join(prefix, p)
}

func renderTable(w io.Writer, r models.Report, prefix string) error {
	if len(r.Findings) > 0 {
		table := tablewriter.NewWriter(w)
		table.SetAutoWrapText(false)
		table.SetHeader([]string{"Location", "Severity", "Rule", "Message"})

		for _, f := range r.Findings {
			sev := string(f.Severity)
			switch f.Severity {
			case models.SeverityError:
				sev = color.New(color.Bold, color.FgRed).Sprint(sev)
			case models.SeverityWarning:
				sev = color.New(color.FgYellow).Sprint(sev)
			}
			table.Append([]string{
				displayPath(prefix, f.Path) + ":" + strconv.Itoa(f.Line),
				sev,
				f.Rule,
				f.Message,
			})
		}
		table.Render()
	}

	summary := fmt.Sprintf("%d posts checked, %d errors, %d warnings", r.Posts, r.Errors, r.Warnings)
	if r.Errors == 0 && r.Warnings == 0 {
		summary = color.New(color.FgGreen).Sprint(summary)
	}
	_, err := fmt.Fprintln(w, summary)
	return err
}

func renderJSON(w io.Writer, r models.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// renderGitHub emits workflow command annotations.
func renderGitHub(w io.Writer, r models.Report, prefix string) error {
	for _, f := range r.Findings {
		level := "error"
		if f.Severity == models.SeverityWarning {
			level = "warning"
		}
		if _, err := fmt.Fprintf(w, "::%s file=%s,line=%d,title=%s::%s\n",
			level, escapeProperty(displayPath(prefix, f.Path)), f.Line, escapeProperty(f.Rule), escapeAnnotation(f.Message)); err != nil {
			return err
		}
	}
	return nil
}

var (
	messageEscaper  = strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A")
	propertyEscaper = strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A", ":", "%3A", ",", "%2C")
)

func escapeAnnotation(msg string) string {
	return messageEscaper.Replace(msg)
}

// escapeProperty encodes a workflow command property value such as file=.
func escapeProperty(v string) string {
	return propertyEscaper.Replace(v)
}
