package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"postlint/pkg/config"
	"postlint/pkg/logging"
)

// errFindings signals a failed lint run; the report has already been printed.
var errFindings = errors.New("lint findings")

var (
	repoFlag     string
	configFlag   string
	logLevelFlag string
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:           "postlint [command] [flags]",
	Short:         "postlint: content hygiene for Markdown blog posts",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envLoaded := config.Init()
		if repoFlag != "" {
			config.RepoPath = repoFlag
		}
		if configFlag != "" {
			config.ConfigFile = configFlag
		}
		if logLevelFlag != "" {
			config.LogLevel = logLevelFlag
		}
		if err := logging.Setup(config.LogLevel, config.LogFormat, cmd.ErrOrStderr()); err != nil {
			return fmt.Errorf("log level: %w", err)
		}
		if !envLoaded {
			logging.For("config").Debug("no .env file found")
		}
		return nil
	},
}

func init() {
	RootCmd.PersistentFlags().StringVar(&repoFlag, "repo", "", "repository root (defaults to REPO_PATH or .)")
	RootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "settings file, relative to the repo root")
	RootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "log level (trace, debug, info, warn, error)")
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		if !errors.Is(err, errFindings) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

// contentPrefix is the content dir relative to the repo root, slash separated.
func contentPrefix() string {
	rel, err := filepath.Rel(config.RepoPath, config.ContentPath())
	if err != nil {
		return config.ContentDir
	}
	return filepath.ToSlash(rel)
}

// pathMatcher accepts post paths under any of args. Arguments may be given
// relative to the content dir or to the repo root.
func pathMatcher(args []string) func(string) bool {
	if len(args) == 0 {
		return nil
	}
	prefix := contentPrefix() + "/"
	targets := make([]string, 0, len(args))
	for _, arg := range args {
		arg = filepath.ToSlash(filepath.Clean(arg))
		arg = strings.TrimPrefix(arg, "./")
		if prefix != "./" {
			arg = strings.TrimPrefix(arg, prefix)
		}
		targets = append(targets, strings.TrimSuffix(arg, "/"))
	}
	return func(p string) bool {
		for _, t := range targets {
			if t == "." || p == t || strings.HasPrefix(p, t+"/") {
				return true
			}
		}
		return false
	}
}
