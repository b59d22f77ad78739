package services

import (
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"postlint/pkg/config"
)

type MediaFile struct {
	Name string `json:"name"`
	Path string `json:"path"` // Path relative to the media dir
	Size int64  `json:"size"`
	URL  string `json:"url"` // Public URL used in front matter and markdown
}

// ListMediaFiles walks the media directory. A missing directory yields an
// empty list.
func ListMediaFiles() ([]MediaFile, error) {
	root := config.MediaPath()
	files := []MediaFile{}

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && p == root {
				return fs.SkipDir
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		files = append(files, MediaFile{
			Name: d.Name(),
			Path: rel,
			Size: info.Size(),
			URL:  mediaURL(rel),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func mediaURL(rel string) string {
	usagePath := path.Join("/", config.PublicMediaPath, rel)
	return strings.ReplaceAll(usagePath, "//", "/")
}

// IsRemoteImage reports whether ref is an absolute http(s) URL.
func IsRemoteImage(ref string) bool {
	u, err := url.Parse(ref)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// ResolveMedia maps a cover-image reference to a file in the media dir. Both
// public URLs ("/assets/cover.png") and media-relative paths are accepted.
func ResolveMedia(ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" || IsRemoteImage(ref) {
		return "", false
	}
	if u, err := url.Parse(ref); err == nil {
		ref = u.Path
	}

	public := strings.TrimSuffix(path.Join("/", config.PublicMediaPath), "/") + "/"
	rel := strings.TrimPrefix(ref, "./")
	if strings.HasPrefix(rel, public) {
		rel = strings.TrimPrefix(rel, public)
	} else {
		rel = strings.TrimPrefix(rel, "/")
	}

	full := SafeJoin(config.MediaPath(), "", rel)
	if full == "" {
		return "", false
	}
	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		return "", false
	}
	return full, true
}
