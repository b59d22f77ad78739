package cmd

import (
	"github.com/spf13/cobra"

	"postlint/pkg/config"
	"postlint/pkg/lint"
	"postlint/pkg/logging"
	"postlint/pkg/report"
	"postlint/pkg/services"
)

var (
	checkFormat  string
	checkStrict  bool
	checkRelease bool
	checkChanged bool
)

var checkCmd = &cobra.Command{
	Use:   "check [paths...]",
	Short: "Lint posts for front matter, draft state, links and slugs",
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().StringVarP(&checkFormat, "format", "f", report.FormatTable, "output format: table, json or github")
	checkCmd.Flags().BoolVar(&checkStrict, "strict", false, "fail on warnings too")
	checkCmd.Flags().BoolVar(&checkRelease, "release", false, "treat drafts as errors")
	checkCmd.Flags().BoolVar(&checkChanged, "changed", false, "only report posts changed in git (see GIT_BASE_REF)")
	RootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	settings, err := services.GetConfig()
	if err != nil {
		return err
	}
	if checkRelease {
		settings.Release = true
	}

	posts, err := services.LoadCorpus(ctx, settings)
	if err != nil {
		return err
	}

	only := pathMatcher(args)
	if checkChanged {
		changed, err := services.ChangedPosts(ctx, config.GitBaseRef)
		if err != nil {
			return err
		}
		byArgs := only
		only = func(p string) bool {
			return changed[p] && (byArgs == nil || byArgs(p))
		}
	}

	result, err := lint.New(settings).Lint(ctx, posts, only)
	if err != nil {
		return err
	}
	logging.For("check").WithField("posts", result.Posts).Debug("check complete")

	if err := report.Render(cmd.OutOrStdout(), result, checkFormat, contentPrefix()); err != nil {
		return err
	}
	if result.Failed(checkStrict) {
		return errFindings
	}
	return nil
}
