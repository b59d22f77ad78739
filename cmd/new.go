package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"postlint/pkg/services"
)

var newTitle string

var newCmd = &cobra.Command{
	Use:   "new <collection> <name>",
	Short: "Create a draft post with front matter from the collection",
	Args:  cobra.ExactArgs(2),
	RunE:  runNew,
}

func init() {
	newCmd.Flags().StringVarP(&newTitle, "title", "t", "", "post title")
	RootCmd.AddCommand(newCmd)
}

func runNew(cmd *cobra.Command, args []string) error {
	settings, err := services.GetConfig()
	if err != nil {
		return err
	}
	overrides := map[string]interface{}{}
	if newTitle != "" {
		overrides["title"] = newTitle
	}
	relPath, err := services.CreatePost(settings, args[0], args[1], overrides)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created %s/%s\n", contentPrefix(), relPath)
	return nil
}
