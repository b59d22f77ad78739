package services

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"postlint/pkg/config"
)

// gitPrefix returns dir's path below the repository top level, such as
// "site/", or "" when dir is the top level.
func gitPrefix(ctx context.Context, dir string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--show-prefix")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// getGitDirtyFiles lists modified and untracked files under dir, relative to
// dir. Porcelain output is relative to the top level, so the prefix of dir is
// stripped.
func getGitDirtyFiles(ctx context.Context, dir string) (map[string]bool, error) {
	prefix, err := gitPrefix(ctx, dir)
	if err != nil {
		return map[string]bool{}, err
	}
	cmd := exec.CommandContext(ctx, "git", "status", "--porcelain", "--untracked-files=all", "--", ".")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return map[string]bool{}, err
	}
	dirty := make(map[string]bool)
	for path := range parsePorcelain(string(out)) {
		if rel, ok := strings.CutPrefix(path, prefix); ok {
			dirty[rel] = true
		}
	}
	return dirty, nil
}

func parsePorcelain(out string) map[string]bool {
	dirty := make(map[string]bool)
	for _, line := range strings.Split(out, "\n") {
		if len(line) < 4 {
			continue
		}
		path := strings.TrimSpace(line[3:])
		// Renames are reported as "old -> new".
		if idx := strings.Index(path, " -> "); idx >= 0 {
			path = path[idx+4:]
		}
		path = strings.Trim(path, "\"")
		dirty[path] = true
	}
	return dirty
}

// ChangedPosts returns content-relative paths of posts that differ from
// baseRef or are dirty in the working tree. An empty baseRef only considers
// the working tree. The repo path may sit below the git top level.
func ChangedPosts(ctx context.Context, baseRef string) (map[string]bool, error) {
	changed, err := getGitDirtyFiles(ctx, config.RepoPath)
	if err != nil {
		return nil, err
	}
	if baseRef != "" {
		cmd := exec.CommandContext(ctx, "git", "diff", "--name-only", "--relative", baseRef+"...HEAD")
		cmd.Dir = config.RepoPath
		out, err := cmd.Output()
		if err != nil {
			return nil, err
		}
		for _, line := range strings.Split(string(out), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				changed[line] = true
			}
		}
	}

	contentRel, err := filepath.Rel(config.RepoPath, config.ContentPath())
	if err != nil {
		return nil, err
	}
	prefix := filepath.ToSlash(contentRel) + "/"
	if prefix == "./" {
		prefix = ""
	}

	posts := make(map[string]bool, len(changed))
	for path := range changed {
		if rel, ok := strings.CutPrefix(path, prefix); ok {
			posts[rel] = true
		}
	}
	return posts, nil
}

// Diff returns a unified diff between two byte slices, labelled with the given
// names. The second value is "changed" or "none".
func Diff(ctx context.Context, before, after []byte, beforeLabel, afterLabel string) (string, string, error) {
	f1, err := os.CreateTemp("", "postlint_old_*")
	if err != nil {
		return "", "", err
	}
	defer os.Remove(f1.Name())
	f2, err := os.CreateTemp("", "postlint_new_*")
	if err != nil {
		f1.Close()
		return "", "", err
	}
	defer os.Remove(f2.Name())

	_, err1 := f1.Write(before)
	_, err2 := f2.Write(after)
	f1.Close()
	f2.Close()
	if err1 != nil {
		return "", "", err1
	}
	if err2 != nil {
		return "", "", err2
	}

	cmd := exec.CommandContext(ctx, "git", "diff", "--no-index", "--no-color", f1.Name(), f2.Name())
	output, err := cmd.CombinedOutput()
	if err == nil {
		return "", "none", nil
	}
	if cmd.ProcessState != nil && cmd.ProcessState.ExitCode() == 1 {
		diffStr := string(output)
		diffStr = strings.ReplaceAll(diffStr, "a"+f1.Name(), "a/"+beforeLabel)
		diffStr = strings.ReplaceAll(diffStr, "b"+f2.Name(), "b/"+afterLabel)
		diffStr = strings.ReplaceAll(diffStr, f1.Name(), beforeLabel)
		diffStr = strings.ReplaceAll(diffStr, f2.Name(), afterLabel)
		return diffStr, "changed", nil
	}
	return "", "", err
}
