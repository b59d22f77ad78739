package cmd

import (
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"postlint/pkg/services"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List posts with their slug, draft and git state",
	RunE:    runList,
}

func init() {
	RootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	settings, err := services.GetConfig()
	if err != nil {
		return err
	}
	posts, err := services.LoadCorpus(cmd.Context(), settings)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"#", "Path", "Slug", "Title", "Draft", "Dirty"})

	for i, p := range posts {
		draft := ""
		if p.Draft {
			draft = color.New(color.FgYellow).Sprint("draft")
		}
		dirty := ""
		if p.IsDirty {
			dirty = "*"
		}
		title := p.Title
		if p.ParseErr != nil {
			title = color.New(color.FgRed).Sprint("invalid front matter")
		}
		table.Append([]string{strconv.Itoa(i + 1), p.Path, p.Slug, title, draft, dirty})
	}
	table.Render()
	return nil
}
