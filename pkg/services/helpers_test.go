package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"postlint/pkg/config"
)

// useTempRepo points the config at a fresh repository directory and restores
// the previous values when the test ends.
func useTempRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	prevRepo, prevContent, prevMedia, prevPublic, prevCfg := config.RepoPath, config.ContentDir, config.MediaDir, config.PublicMediaPath, config.ConfigFile
	config.RepoPath = dir
	config.ContentDir = "content"
	config.MediaDir = "public/assets"
	config.PublicMediaPath = "/assets"
	config.ConfigFile = "postlint.yml"
	InvalidateCache()

	t.Cleanup(func() {
		config.RepoPath, config.ContentDir, config.MediaDir, config.PublicMediaPath, config.ConfigFile = prevRepo, prevContent, prevMedia, prevPublic, prevCfg
		InvalidateCache()
	})
	return dir
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}
