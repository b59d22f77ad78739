package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"postlint/pkg/logging"
	"postlint/pkg/services"
)

var fixWrite bool

var fixCmd = &cobra.Command{
	Use:   "fix [paths...]",
	Short: "Normalize front matter (defaults, slugs, tags)",
	RunE:  runFix,
}

func init() {
	fixCmd.Flags().BoolVarP(&fixWrite, "write", "w", false, "write changes instead of printing a diff")
	RootCmd.AddCommand(fixCmd)
}

func runFix(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	log := logging.For("fix")
	settings, err := services.GetConfig()
	if err != nil {
		return err
	}
	posts, err := services.LoadCorpus(ctx, settings)
	if err != nil {
		return err
	}

	only := pathMatcher(args)
	changedCount := 0
	for _, post := range posts {
		if only != nil && !only(post.Path) {
			continue
		}
		if post.ParseErr != nil {
			log.WithField("path", post.Path).Warn("skipping post with invalid front matter")
			continue
		}
		full, err := services.ContentFile(post.Path)
		if err != nil {
			return err
		}
		content, err := os.ReadFile(full)
		if err != nil {
			return err
		}
		fixed, changed, err := services.FixPost(settings, post.Path, content)
		if err != nil {
			return err
		}
		if !changed {
			continue
		}
		changedCount++

		if fixWrite {
			if err := services.WritePost(post.Path, fixed); err != nil {
				return err
			}
			log.WithField("path", post.Path).Info("fixed")
			continue
		}
		diff, _, err := services.Diff(ctx, content, fixed, post.Path, post.Path)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), diff)
	}

	verb := "would change"
	if fixWrite {
		verb = "changed"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d posts %s\n", changedCount, verb)
	return nil
}
