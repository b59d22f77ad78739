package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListMediaFilesMissingDir(t *testing.T) {
	useTempRepo(t)

	files, err := ListMediaFiles()
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestListMediaFiles(t *testing.T) {
	dir := useTempRepo(t)
	writeFile(t, dir, "public/assets/img/cover.png", "png")

	files, err := ListMediaFiles()
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "cover.png", files[0].Name)
	assert.Equal(t, "img/cover.png", files[0].Path)
	assert.Equal(t, "/assets/img/cover.png", files[0].URL)
	assert.EqualValues(t, 3, files[0].Size)
}

func TestResolveMedia(t *testing.T) {
	dir := useTempRepo(t)
	writeFile(t, dir, "public/assets/img/cover.png", "png")

	_, ok := ResolveMedia("/assets/img/cover.png")
	assert.True(t, ok)
	_, ok = ResolveMedia("img/cover.png")
	assert.True(t, ok)
	_, ok = ResolveMedia("/assets/img/missing.png")
	assert.False(t, ok)
	_, ok = ResolveMedia("/assets/img")
	assert.False(t, ok)
	_, ok = ResolveMedia("https://cdn.example.com/cover.png")
	assert.False(t, ok)
	_, ok = ResolveMedia("../../secret.png")
	assert.False(t, ok)
}

func TestIsRemoteImage(t *testing.T) {
	assert.True(t, IsRemoteImage("https://example.com/a.png"))
	assert.False(t, IsRemoteImage("/assets/a.png"))
	assert.False(t, IsRemoteImage("http:///a.png"))
}
