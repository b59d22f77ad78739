package services

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"postlint/pkg/config"
	"postlint/pkg/logging"
	"postlint/pkg/models"
)

var (
	postCache   []models.Post
	cacheMutex  sync.Mutex
	cacheLoaded bool
)

type postSource struct {
	relPath    string
	collection *models.Collection
}

// LoadCorpus reads and parses every post of every collection under the
// content directory. Files are parsed concurrently, bounded by the settings'
// concurrency. A post that fails to parse is kept with ParseErr set.
func LoadCorpus(ctx context.Context, settings *models.CMSConfig) ([]models.Post, error) {
	log := logging.For("cache")
	contentDir := config.ContentPath()

	sources, err := discoverPosts(ctx, contentDir, settings)
	if err != nil {
		return nil, commandError(err, "discover posts", CodeLoadFailed)
	}

	dirtyFiles, err := getGitDirtyFiles(ctx, config.RepoPath)
	if err != nil {
		log.WithError(err).Debug("git status unavailable, dirty flags disabled")
	}

	posts := make([]models.Post, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	limit := settings.Concurrency
	if limit <= 0 {
		limit = config.CacheConcurrency
	}
	g.SetLimit(limit)

	for i, src := range sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			content, err := os.ReadFile(filepath.Join(contentDir, filepath.FromSlash(src.relPath)))
			if err != nil {
				return err
			}
			post := BuildPost(src.relPath, src.collection, content)
			post.IsDirty = dirtyFiles[repoRelative(contentDir, src.relPath)]
			posts[i] = post
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, commandError(err, "load posts", CodeLoadFailed)
	}

	log.WithField("posts", len(posts)).Debug("corpus loaded")
	return posts, nil
}

func discoverPosts(ctx context.Context, contentDir string, settings *models.CMSConfig) ([]postSource, error) {
	seen := map[string]bool{}
	var sources []postSource

	for i := range settings.Collections {
		col := &settings.Collections[i]
		root := filepath.Join(contentDir, filepath.FromSlash(cleanFolder(col.Folder)))
		if _, err := os.Stat(root); os.IsNotExist(err) {
			logging.For("cache").WithField("collection", col.Name).Warn("collection folder does not exist")
			continue
		}

		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			relPath, err := filepath.Rel(contentDir, path)
			if err != nil {
				return err
			}
			relPath = filepath.ToSlash(relPath)
			if seen[relPath] || !matchesExtension(col, relPath) {
				return nil
			}
			// A path claimed by a more specific collection belongs there.
			if owner, ok := CollectionFor(settings, relPath); ok && owner.Name != col.Name {
				return nil
			}
			seen[relPath] = true
			sources = append(sources, postSource{relPath: relPath, collection: col})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Slice(sources, func(i, j int) bool { return sources[i].relPath < sources[j].relPath })
	return sources, nil
}

func repoRelative(contentDir, relPath string) string {
	full := filepath.Join(contentDir, filepath.FromSlash(relPath))
	rel, err := filepath.Rel(config.RepoPath, full)
	if err != nil {
		return relPath
	}
	return filepath.ToSlash(rel)
}

// GetPostsCache returns the memoised post index used by the HTTP API.
func GetPostsCache(ctx context.Context) ([]models.Post, error) {
	cacheMutex.Lock()
	defer cacheMutex.Unlock()

	if cacheLoaded {
		return postCache, nil
	}

	settings, err := GetConfig()
	if err != nil {
		return nil, err
	}
	posts, err := LoadCorpus(ctx, settings)
	if err != nil {
		return nil, err
	}

	postCache = posts
	cacheLoaded = true
	return postCache, nil
}

func InvalidateCache() {
	cacheMutex.Lock()
	defer cacheMutex.Unlock()
	cacheLoaded = false
	postCache = nil
}
