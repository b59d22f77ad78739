package services

import (
	"context"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postlint/pkg/config"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
}

func gitRun(t *testing.T, dir string, args ...string) {
	t.Helper()
	base := []string{"-c", "user.email=dev@example.com", "-c", "user.name=Dev", "-c", "commit.gpgsign=false"}
	cmd := exec.Command("git", append(base, args...)...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, string(out))
}

func TestParsePorcelain(t *testing.T) {
	out := " M content/a.md\n?? content/new post.md\nR  content/old.md -> content/renamed.md\nA  \"content/quoted.md\"\n\n"

	assert.Equal(t, map[string]bool{
		"content/a.md":        true,
		"content/new post.md": true,
		"content/renamed.md":  true,
		"content/quoted.md":   true,
	}, parsePorcelain(out))
}

const gitPost = "---\ntitle: T\n---\nBody\n"

func TestChangedPosts(t *testing.T) {
	requireGit(t)
	dir := useTempRepo(t)
	gitRun(t, dir, "init", "-q")
	writeFile(t, dir, "content/a.md", gitPost)
	writeFile(t, dir, "content/b.md", gitPost)
	writeFile(t, dir, "README.md", "readme\n")
	gitRun(t, dir, "add", ".")
	gitRun(t, dir, "commit", "-q", "-m", "init")

	writeFile(t, dir, "content/b.md", gitPost+"more\n")
	writeFile(t, dir, "README.md", "changed\n")

	changed, err := ChangedPosts(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"b.md": true}, changed)
}

func TestChangedPostsBelowGitTopLevel(t *testing.T) {
	requireGit(t)
	top := useTempRepo(t)
	config.RepoPath = filepath.Join(top, "site")
	InvalidateCache()

	gitRun(t, top, "init", "-q")
	writeFile(t, top, "site/content/a.md", gitPost)
	writeFile(t, top, "site/content/b.md", gitPost)
	writeFile(t, top, "README.md", "readme\n")
	gitRun(t, top, "add", ".")
	gitRun(t, top, "commit", "-q", "-m", "init")

	writeFile(t, top, "site/content/b.md", gitPost+"second\n")
	gitRun(t, top, "commit", "-q", "-am", "edit b")

	writeFile(t, top, "site/content/a.md", gitPost+"dirty\n")
	writeFile(t, top, "site/content/c.md", gitPost)
	writeFile(t, top, "README.md", "changed\n")

	ctx := context.Background()
	changed, err := ChangedPosts(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"a.md": true, "c.md": true}, changed)

	changed, err = ChangedPosts(ctx, "HEAD~1")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"a.md": true, "b.md": true, "c.md": true}, changed)

	posts, err := LoadCorpus(ctx, config.DefaultSettings())
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.True(t, posts[0].IsDirty, posts[0].Path)
	assert.False(t, posts[1].IsDirty, posts[1].Path)
	assert.True(t, posts[2].IsDirty, posts[2].Path)
}

func TestChangedPostsUnknownBaseRef(t *testing.T) {
	requireGit(t)
	dir := useTempRepo(t)
	gitRun(t, dir, "init", "-q")
	writeFile(t, dir, "content/a.md", gitPost)
	gitRun(t, dir, "add", ".")
	gitRun(t, dir, "commit", "-q", "-m", "init")

	_, err := ChangedPosts(context.Background(), "no-such-branch")
	assert.Error(t, err)
}

func TestDiff(t *testing.T) {
	requireGit(t)
	ctx := context.Background()

	diff, status, err := Diff(ctx, []byte("a\nb\n"), []byte("a\nc\n"), "saved/x.md", "editor/x.md")
	require.NoError(t, err)
	assert.Equal(t, "changed", status)
	assert.Contains(t, diff, "--- a/saved/x.md")
	assert.Contains(t, diff, "+++ b/editor/x.md")
	assert.Contains(t, diff, "-b\n")
	assert.Contains(t, diff, "+c\n")
	assert.NotContains(t, diff, "postlint_old_")

	diff, status, err = Diff(ctx, []byte("same\n"), []byte("same\n"), "saved/x.md", "editor/x.md")
	require.NoError(t, err)
	assert.Equal(t, "none", status)
	assert.Empty(t, diff)
}
