package handlers

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"postlint/pkg/lint"
	"postlint/pkg/logging"
	"postlint/pkg/models"
	"postlint/pkg/services"
)

// postRequest carries a post either as structured front matter plus body or
// as raw file content.
type postRequest struct {
	Path        string                 `json:"path" binding:"required"`
	Content     string                 `json:"content"`
	FrontMatter map[string]interface{} `json:"frontmatter"`
	Body        string                 `json:"body"`
	Format      string                 `json:"format"`
}

func (r postRequest) fileContent() ([]byte, error) {
	if r.FrontMatter == nil {
		return []byte(r.Content), nil
	}
	format := r.Format
	if format == "" {
		format = services.FormatYAML
	}
	return services.ConstructFileContent(r.FrontMatter, r.Body, format)
}

func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrInvalidPath), errors.Is(err, services.ErrUnknownCollection), services.IsValidationError(err):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrPostExists):
		status = http.StatusConflict
	case errors.Is(err, fs.ErrNotExist):
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		logging.For("api").WithError(err).WithField("path", c.FullPath()).Error("request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// collectionPath rejects paths that escape the content dir or that no
// collection owns, such as stray .yml or .txt files.
func collectionPath(settings *models.CMSConfig, relPath string) error {
	if _, err := services.ContentFile(relPath); err != nil {
		return err
	}
	if _, ok := services.CollectionFor(settings, relPath); !ok {
		return fmt.Errorf("%w: no collection holds %s", services.ErrUnknownCollection, relPath)
	}
	return nil
}

func lintContent(ctx context.Context, settings *models.CMSConfig, relPath string, content []byte) (models.Report, error) {
	posts, err := services.GetPostsCache(ctx)
	if err != nil {
		return models.Report{}, err
	}
	return lint.New(settings).LintContent(ctx, posts, relPath, content)
}

func ListPosts(c *gin.Context) {
	posts, err := services.GetPostsCache(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	index := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		index = append(index, models.Post{
			Path:       p.Path,
			Collection: p.Collection,
			Title:      p.Title,
			Slug:       p.Slug,
			Draft:      p.Draft,
			IsDirty:    p.IsDirty,
		})
	}
	c.JSON(http.StatusOK, index)
}

func GetPost(c *gin.Context) {
	targetPath := c.Query("path")
	fullPath, err := services.ContentFile(targetPath)
	if err != nil {
		respondError(c, err)
		return
	}
	content, err := os.ReadFile(fullPath)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
		return
	}

	fm, body, format, err := services.ParseFrontMatter(content)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"path": targetPath, "content": string(content), "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, models.Post{
		Path:        targetPath,
		Title:       targetPath,
		FrontMatter: fm,
		Body:        body,
		Format:      format,
	})
}

func SavePost(c *gin.Context) {
	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	settings, err := services.GetConfig()
	if err != nil {
		respondError(c, err)
		return
	}
	if err := collectionPath(settings, req.Path); err != nil {
		respondError(c, err)
		return
	}

	content, err := req.fileContent()
	if err != nil {
		respondError(c, err)
		return
	}
	if err := services.WritePost(req.Path, content); err != nil {
		respondError(c, err)
		return
	}

	report, err := lintContent(c.Request.Context(), settings, req.Path, content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "saved", "report": report})
}

func CreatePost(c *gin.Context) {
	var req struct {
		Collection string `json:"collection" binding:"required"`
		Name       string `json:"name" binding:"required"`
		Title      string `json:"title"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	settings, err := services.GetConfig()
	if err != nil {
		respondError(c, err)
		return
	}

	overrides := map[string]interface{}{}
	if req.Title != "" {
		overrides["title"] = req.Title
	}
	relPath, err := services.CreatePost(settings, req.Collection, req.Name, overrides)
	if err != nil {
		respondError(c, err)
		return
	}
	logging.For("api").WithField("path", relPath).Info("post created")
	c.JSON(http.StatusOK, gin.H{"status": "created", "path": relPath})
}

func LintPost(c *gin.Context) {
	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	settings, err := services.GetConfig()
	if err != nil {
		respondError(c, err)
		return
	}
	if err := collectionPath(settings, req.Path); err != nil {
		respondError(c, err)
		return
	}
	content, err := req.fileContent()
	if err != nil {
		respondError(c, err)
		return
	}
	report, err := lintContent(c.Request.Context(), settings, req.Path, content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func GetReport(c *gin.Context) {
	settings, err := services.GetConfig()
	if err != nil {
		respondError(c, err)
		return
	}
	posts, err := services.GetPostsCache(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	report, err := lint.New(settings).Lint(c.Request.Context(), posts, nil)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func GetDiff(c *gin.Context) {
	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	settings, err := services.GetConfig()
	if err != nil {
		respondError(c, err)
		return
	}
	fullPath, err := services.ContentFile(req.Path)
	if err != nil {
		respondError(c, err)
		return
	}

	currentContent, err := os.ReadFile(fullPath)
	if err != nil {
		currentContent = []byte("")
	}
	collection, _ := services.CollectionFor(settings, req.Path)
	currentContent = services.NormalizeContent(currentContent, collection)

	newContent, err := req.fileContent()
	if err != nil {
		respondError(c, err)
		return
	}
	newContent = services.NormalizeContent(newContent, collection)

	diffStr, diffType, err := services.Diff(c.Request.Context(), currentContent, newContent, "saved/"+req.Path, "editor/"+req.Path)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"diff": diffStr, "type": diffType})
}

func GetConfig(c *gin.Context) {
	cfg, err := services.GetConfig()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to parse config: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": cfg, "rules": lint.Rules()})
}
