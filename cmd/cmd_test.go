package cmd

import (
	"bytes"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postlint/pkg/config"
	"postlint/pkg/models"
	"postlint/pkg/services"
)

const cleanPost = `---
author: Jane
pubDatetime: 2024-03-01T09:00:00Z
title: Clean
description: Nothing to see.
---

Body
`

func newRepo(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	prevRepo, prevContent, prevCfg, prevLevel := config.RepoPath, config.ContentDir, config.ConfigFile, config.LogLevel
	prevColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() {
		config.RepoPath, config.ContentDir, config.ConfigFile, config.LogLevel = prevRepo, prevContent, prevCfg, prevLevel
		color.NoColor = prevColor
		repoFlag, configFlag, logLevelFlag = "", "", ""
		services.InvalidateCache()
	})

	var out bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetErr(io.Discard)
	RootCmd.SetArgs(args)
	err := RootCmd.Execute()
	return out.String(), err
}

func TestCheckJSON(t *testing.T) {
	dir := newRepo(t, map[string]string{
		"content/clean.md":  cleanPost,
		"content/broken.md": "no front matter",
	})

	out, err := execute(t, "check", "--repo", dir, "--format", "json", "--strict=false", "--release=false", "--changed=false")
	assert.ErrorIs(t, err, errFindings)

	var r models.Report
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, 2, r.Posts)
	assert.Equal(t, 1, r.Errors)
	require.Len(t, r.Findings, 1)
	assert.Equal(t, "broken.md", r.Findings[0].Path)
}

func TestCheckPathArguments(t *testing.T) {
	dir := newRepo(t, map[string]string{
		"content/clean.md":  cleanPost,
		"content/broken.md": "no front matter",
	})

	out, err := execute(t, "check", "--repo", dir, "--format", "table", "--strict=false", "--release=false", "--changed=false", "content/clean.md")
	require.NoError(t, err)
	assert.Contains(t, out, "1 posts checked, 0 errors, 0 warnings")
}

func TestCheckStrictFailsOnWarnings(t *testing.T) {
	post := "---\nauthor: Jane\npubDatetime: 2024-03-01T09:00:00Z\ntitle: T\ndescription: d\ntags:\n  - Go\n---\n\nBody\n"
	dir := newRepo(t, map[string]string{"content/tagged.md": post})

	_, err := execute(t, "check", "--repo", dir, "--format", "github", "--strict=false", "--release=false", "--changed=false")
	require.NoError(t, err)

	out, err := execute(t, "check", "--repo", dir, "--format", "github", "--strict", "--release=false", "--changed=false")
	assert.ErrorIs(t, err, errFindings)
	assert.Equal(t, "::warning file=content/tagged.md,line=6,title=tags::tag \"Go\" should be lowercase \"go\"\n", out)
}

func TestCheckReleaseFlag(t *testing.T) {
	draft := "---\nauthor: Jane\npubDatetime: 2024-03-01T09:00:00Z\ntitle: T\ndescription: d\ndraft: true\n---\n"
	dir := newRepo(t, map[string]string{"content/wip.md": draft})

	_, err := execute(t, "check", "--repo", dir, "--format", "json", "--strict=false", "--release=false", "--changed=false")
	require.NoError(t, err)

	_, err = execute(t, "check", "--repo", dir, "--format", "json", "--strict=false", "--release", "--changed=false")
	assert.ErrorIs(t, err, errFindings)
}

func TestCheckInvalidSettings(t *testing.T) {
	dir := newRepo(t, map[string]string{
		"postlint.yml":     "rules:\n  tags: loud\n",
		"content/clean.md": cleanPost,
	})

	_, err := execute(t, "check", "--repo", dir, "--format", "json", "--strict=false", "--release=false", "--changed=false")
	require.Error(t, err)
	assert.NotErrorIs(t, err, errFindings)
}

func TestFixWrite(t *testing.T) {
	dir := newRepo(t, map[string]string{
		"content/clean.md": "---\ntitle: Clean\ntags:\n  - Web\n---\n\nBody\n",
	})

	out, err := execute(t, "fix", "--repo", dir, "--write")
	require.NoError(t, err)
	assert.Contains(t, out, "1 posts changed")

	content, err := os.ReadFile(filepath.Join(dir, "content", "clean.md"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "- web")
	assert.Contains(t, string(content), "slug: clean")

	out, err = execute(t, "fix", "--repo", dir, "--write")
	require.NoError(t, err)
	assert.Contains(t, out, "0 posts changed")
}

func TestFixPrintsDiffWithoutWrite(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	original := "---\ntitle: Clean\ntags:\n  - Web\n---\n\nBody\n"
	dir := newRepo(t, map[string]string{"content/clean.md": original})

	out, err := execute(t, "fix", "--repo", dir, "--write=false")
	require.NoError(t, err)
	assert.Contains(t, out, "--- a/clean.md")
	assert.Contains(t, out, "-  - Web")
	assert.Contains(t, out, "1 posts would change")

	content, err := os.ReadFile(filepath.Join(dir, "content", "clean.md"))
	require.NoError(t, err)
	assert.Equal(t, original, string(content))
}

func TestCheckChangedBelowGitTopLevel(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	top := newRepo(t, map[string]string{
		"site/content/clean.md":      cleanPost,
		"site/content/old-broken.md": "no front matter",
	})
	git := func(args ...string) {
		base := []string{"-c", "user.email=dev@example.com", "-c", "user.name=Dev", "-c", "commit.gpgsign=false"}
		c := exec.Command("git", append(base, args...)...)
		c.Dir = top
		out, err := c.CombinedOutput()
		require.NoError(t, err, string(out))
	}
	git("init", "-q")
	git("add", ".")
	git("commit", "-q", "-m", "init")
	require.NoError(t, os.WriteFile(filepath.Join(top, "site", "content", "new-broken.md"), []byte("no front matter"), 0o644))

	out, err := execute(t, "check", "--repo", filepath.Join(top, "site"), "--format", "json", "--strict=false", "--release=false", "--changed")
	assert.ErrorIs(t, err, errFindings)

	var r models.Report
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	require.Len(t, r.Findings, 1)
	assert.Equal(t, "new-broken.md", r.Findings[0].Path)
}

func TestNewAndList(t *testing.T) {
	dir := newRepo(t, map[string]string{"content/.keep": ""})

	out, err := execute(t, "new", "--repo", dir, "--title", "Hello", "posts", "hello")
	require.NoError(t, err)
	assert.Equal(t, "created content/hello.md\n", out)

	_, err = execute(t, "new", "--repo", dir, "--title", "Hello", "posts", "hello")
	assert.ErrorIs(t, err, services.ErrPostExists)

	out, err = execute(t, "list", "--repo", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "hello.md")
	assert.Contains(t, out, "Hello")
	assert.Contains(t, out, "draft")
}

func TestPathMatcher(t *testing.T) {
	prevRepo, prevContent := config.RepoPath, config.ContentDir
	t.Cleanup(func() { config.RepoPath, config.ContentDir = prevRepo, prevContent })
	config.RepoPath, config.ContentDir = "/srv/blog", "content"

	assert.Nil(t, pathMatcher(nil))

	match := pathMatcher([]string{"content/guides/", "./notes.md"})
	assert.True(t, match("guides/a.md"))
	assert.True(t, match("notes.md"))
	assert.False(t, match("guidesx/a.md"))
	assert.False(t, match("other.md"))
}
