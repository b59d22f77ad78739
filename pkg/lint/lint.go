package lint

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"postlint/pkg/logging"
	"postlint/pkg/models"
	"postlint/pkg/services"
)

// Linter checks a corpus of posts against the configured rules.
type Linter struct {
	settings *models.CMSConfig
	now      func() time.Time
	log      *logrus.Entry
}

type Option func(*Linter)

// WithClock fixes the time used for publication-date checks.
func WithClock(now func() time.Time) Option {
	return func(l *Linter) { l.now = now }
}

func New(settings *models.CMSConfig, opts ...Option) *Linter {
	l := &Linter{
		settings: settings,
		now:      time.Now,
		log:      logging.For("lint"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// corpus indexes posts for cross-post rules.
type corpus struct {
	posts    []models.Post
	byPath   map[string]*models.Post
	bySlug   map[string][]*models.Post
	analyses map[string]services.BodyAnalysis
}

// Lint runs every enabled rule. When only is non-nil, findings are limited to
// posts it accepts; cross-post rules still see the whole corpus.
func (l *Linter) Lint(ctx context.Context, posts []models.Post, only func(path string) bool) (models.Report, error) {
	c, err := l.index(ctx, posts)
	if err != nil {
		return models.Report{}, err
	}

	var findings []models.Finding
	emit := func(f models.Finding) {
		if f.Severity == models.SeverityOff {
			return
		}
		if only != nil && !only(f.Path) {
			return
		}
		findings = append(findings, f)
	}

	checked := 0
	for i := range c.posts {
		post := &c.posts[i]
		if only != nil && !only(post.Path) {
			continue
		}
		checked++
		l.checkPost(c, post, emit)
	}
	l.checkDuplicateSlugs(c, emit)
	if err := l.checkNearDuplicates(ctx, c, emit); err != nil {
		return models.Report{}, err
	}

	report := buildReport(checked, findings)
	l.log.WithFields(logrus.Fields{
		"posts":    report.Posts,
		"errors":   report.Errors,
		"warnings": report.Warnings,
	}).Debug("lint finished")
	return report, nil
}

// LintContent lints unsaved content for relPath in the context of the rest of
// the corpus. Only findings for relPath are returned.
func (l *Linter) LintContent(ctx context.Context, posts []models.Post, relPath string, content []byte) (models.Report, error) {
	relPath = strings.TrimPrefix(path.Clean("/"+relPath), "/")
	collection, _ := services.CollectionFor(l.settings, relPath)
	candidate := services.BuildPost(relPath, collection, content)

	merged := make([]models.Post, 0, len(posts)+1)
	replaced := false
	for _, p := range posts {
		if p.Path == relPath {
			merged = append(merged, candidate)
			replaced = true
			continue
		}
		merged = append(merged, p)
	}
	if !replaced {
		merged = append(merged, candidate)
	}
	return l.Lint(ctx, merged, func(p string) bool { return p == relPath })
}

func (l *Linter) index(ctx context.Context, posts []models.Post) (*corpus, error) {
	c := &corpus{
		posts:    posts,
		byPath:   make(map[string]*models.Post, len(posts)),
		bySlug:   make(map[string][]*models.Post, len(posts)),
		analyses: make(map[string]services.BodyAnalysis, len(posts)),
	}
	for i := range c.posts {
		p := &c.posts[i]
		c.byPath[p.Path] = p
		key := services.NormalizeSlug(p.Slug)
		c.bySlug[key] = append(c.bySlug[key], p)
	}

	analyses := make([]services.BodyAnalysis, len(posts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency())
	for i := range c.posts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			analyses[i] = services.AnalyzeBody(c.posts[i].Body, c.posts[i].BodyLine)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i := range c.posts {
		c.analyses[c.posts[i].Path] = analyses[i]
	}
	return c, nil
}

func (l *Linter) concurrency() int {
	if l.settings.Concurrency > 0 {
		return l.settings.Concurrency
	}
	return 4
}

// severity resolves the configured severity of a rule.
func (l *Linter) severity(rule string) models.Severity {
	if s, ok := l.settings.Rules[rule]; ok && s != "" {
		return models.Severity(s)
	}
	return defaultSeverity[rule]
}

func (l *Linter) finding(rule string, post *models.Post, line int, format string, args ...any) models.Finding {
	if line < 1 {
		line = 1
	}
	return models.Finding{
		Rule:     rule,
		Severity: l.severity(rule),
		Path:     post.Path,
		Line:     line,
		Message:  fmt.Sprintf(format, args...),
	}
}

func keyLine(post *models.Post, keys ...string) int {
	for _, k := range keys {
		if line, ok := post.KeyLines[k]; ok {
			return line
		}
	}
	return 1
}

func (l *Linter) checkPost(c *corpus, post *models.Post, emit func(models.Finding)) {
	if post.ParseErr != nil {
		emit(l.finding(RuleFrontMatter, post, 1, "front matter is invalid: %v", post.ParseErr))
		return
	}

	collection, _ := services.CollectionFor(l.settings, post.Path)
	l.checkRequired(post, collection, emit)
	l.checkFieldTypes(post, collection, emit)
	l.checkDraftState(post, emit)
	l.checkLinks(c, post, emit)
	l.checkSlugFormat(post, emit)
	l.checkTags(post, emit)
	l.checkDescription(post, emit)
	l.checkCoverImage(post, emit)
}

func isEmptyValue(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case []interface{}:
		return len(val) == 0
	case []string:
		return len(val) == 0
	}
	return false
}

func (l *Linter) checkRequired(post *models.Post, collection *models.Collection, emit func(models.Finding)) {
	if collection == nil {
		return
	}
	for _, field := range collection.Fields {
		if !field.Required {
			continue
		}
		present := false
		for _, key := range aliasesOf(field.Name) {
			if v, ok := post.FrontMatter[key]; ok && !isEmptyValue(v) {
				present = true
				break
			}
		}
		if !present {
			emit(l.finding(RuleRequiredField, post, keyLine(post, field.Name), "required field %q is missing or empty", field.Name))
		}
	}
}

func (l *Linter) checkFieldTypes(post *models.Post, collection *models.Collection, emit func(models.Finding)) {
	reported := map[string]bool{}
	for _, fe := range post.FieldErrors {
		if fe.Field == "draft" {
			continue // reported by draft-state
		}
		reported[fe.Field] = true
		emit(l.finding(RuleFieldType, post, keyLine(post, fe.Field), "%s %s", fe.Field, fe.Message))
	}
	if collection == nil {
		return
	}
	for _, field := range collection.Fields {
		if reported[field.Name] || field.Name == "draft" {
			continue
		}
		v, ok := post.FrontMatter[field.Name]
		if !ok || v == nil {
			continue
		}
		if msg := widgetMismatch(field.Widget, v); msg != "" {
			emit(l.finding(RuleFieldType, post, keyLine(post, field.Name), "%s %s", field.Name, msg))
		}
	}
}

func widgetMismatch(widget string, v interface{}) string {
	switch widget {
	case models.WidgetString, models.WidgetText, models.WidgetImage:
		if _, ok := v.(string); !ok {
			return fmt.Sprintf("must be a string, got %T", v)
		}
	case models.WidgetBoolean:
		if _, ok := v.(bool); !ok {
			return fmt.Sprintf("must be true or false, got %v", v)
		}
	case models.WidgetDatetime:
		if _, err := services.ParseDatetime(v); err != nil {
			return err.Error()
		}
	case models.WidgetList:
		switch list := v.(type) {
		case []string:
		case []interface{}:
			for _, item := range list {
				if _, ok := item.(string); !ok {
					return fmt.Sprintf("entries must be strings, got %T", item)
				}
			}
		default:
			return fmt.Sprintf("must be a list, got %T", v)
		}
	}
	return ""
}

func (l *Linter) checkDraftState(post *models.Post, emit func(models.Finding)) {
	for _, fe := range post.FieldErrors {
		if fe.Field == "draft" {
			emit(l.finding(RuleDraftState, post, keyLine(post, "draft"), "draft %s", fe.Message))
			return
		}
	}

	meta := post.Meta
	if meta.Draft && l.settings.Release {
		emit(l.finding(RuleDraftState, post, keyLine(post, "draft"), "post is still a draft in a release build"))
	}
	if !meta.Draft && meta.PubDatetime != nil && meta.PubDatetime.After(l.now()) {
		emit(l.finding(RuleDraftState, post, keyLine(post, "pubDatetime", "date"),
			"post is published but pubDatetime %s is in the future", meta.PubDatetime.Format(time.RFC3339)))
	}
	if meta.Draft && meta.Featured {
		f := l.finding(RuleDraftState, post, keyLine(post, "featured"), "draft post is marked featured")
		if f.Severity == models.SeverityError {
			f.Severity = models.SeverityWarning
		}
		emit(f)
	}
	if meta.PubDatetime != nil && meta.ModDatetime != nil && meta.ModDatetime.Before(*meta.PubDatetime) {
		f := l.finding(RuleDraftState, post, keyLine(post, "modDatetime"), "modDatetime is earlier than pubDatetime")
		if f.Severity == models.SeverityError {
			f.Severity = models.SeverityWarning
		}
		emit(f)
	}
}

func (l *Linter) checkLinks(c *corpus, post *models.Post, emit func(models.Finding)) {
	analysis := c.analyses[post.Path]
	for _, link := range analysis.Links {
		if link.Image || link.Destination == "" {
			continue
		}
		u, err := url.Parse(link.Destination)
		if err != nil || u.Scheme != "" || u.Host != "" {
			continue
		}

		if u.Path == "" {
			if u.Fragment != "" && !analysis.HasAnchor(u.Fragment) {
				emit(l.finding(RuleAnchorLink, post, link.Line, "anchor #%s does not exist in this post", u.Fragment))
			}
			continue
		}

		target, label, ok := l.resolveTarget(c, post, u.Path)
		if !ok {
			continue
		}
		if target == nil {
			emit(l.finding(RuleAnchorLink, post, link.Line, "link %q points to missing post %s", link.Destination, label))
			continue
		}
		if u.Fragment != "" && !c.analyses[target.Path].HasAnchor(u.Fragment) {
			emit(l.finding(RuleAnchorLink, post, link.Line, "anchor #%s does not exist in %s", u.Fragment, target.Path))
		}
	}
}

// resolveTarget maps a link path to a post. ok is false when the link is not
// one the linter can resolve (assets, other site pages).
func (l *Linter) resolveTarget(c *corpus, post *models.Post, linkPath string) (*models.Post, string, bool) {
	ext := strings.ToLower(path.Ext(linkPath))
	if ext == ".md" || ext == ".mdx" || ext == ".markdown" {
		var rel string
		if strings.HasPrefix(linkPath, "/") {
			rel = path.Clean(strings.TrimPrefix(linkPath, "/"))
		} else {
			rel = path.Clean(path.Join(path.Dir(post.Path), linkPath))
		}
		return c.byPath[rel], rel, true
	}

	slugValue, ok := matchPostURL(l.settings.PostURL, linkPath)
	if !ok {
		return nil, "", false
	}
	matches := c.bySlug[services.NormalizeSlug(slugValue)]
	if len(matches) == 0 {
		return nil, fmt.Sprintf("with slug %q", slugValue), true
	}
	return matches[0], slugValue, true
}

// matchPostURL extracts the slug from linkPath when it fits pattern, such as
// "/posts/{slug}". Trailing slashes are ignored.
func matchPostURL(pattern, linkPath string) (string, bool) {
	idx := strings.Index(pattern, "{slug}")
	if idx < 0 {
		return "", false
	}
	prefix := pattern[:idx]
	suffix := strings.TrimSuffix(pattern[idx+len("{slug}"):], "/")
	linkPath = strings.TrimSuffix(linkPath, "/")
	if !strings.HasPrefix(linkPath, prefix) || !strings.HasSuffix(linkPath, suffix) {
		return "", false
	}
	if len(linkPath) < len(prefix)+len(suffix) {
		return "", false
	}
	value := linkPath[len(prefix) : len(linkPath)-len(suffix)]
	if value == "" || strings.Contains(value, "/") {
		return "", false
	}
	return value, true
}

func (l *Linter) checkSlugFormat(post *models.Post, emit func(models.Finding)) {
	declared := strings.TrimSpace(post.Meta.Slug)
	if declared == "" {
		return
	}
	if !services.IsValidSlug(declared) {
		emit(l.finding(RuleSlugFormat, post, keyLine(post, "slug", "postSlug"),
			"slug %q is not a valid slug (try %q)", declared, services.NormalizeSlug(declared)))
	}
}

func (l *Linter) checkTags(post *models.Post, emit func(models.Finding)) {
	line := keyLine(post, "tags")
	seen := map[string]bool{}
	for _, tag := range post.Meta.Tags {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" {
			emit(l.finding(RuleTags, post, line, "empty tag"))
			continue
		}
		key := strings.ToLower(trimmed)
		if seen[key] {
			emit(l.finding(RuleTags, post, line, "duplicate tag %q", tag))
			continue
		}
		seen[key] = true
		if tag != key {
			emit(l.finding(RuleTags, post, line, "tag %q should be lowercase %q", tag, key))
		}
	}
}

func (l *Linter) checkDescription(post *models.Post, emit func(models.Finding)) {
	limit := l.settings.DescriptionMax
	if limit <= 0 {
		return
	}
	if n := utf8.RuneCountInString(post.Meta.Description); n > limit {
		emit(l.finding(RuleDescription, post, keyLine(post, "description"), "description is %d characters, limit is %d", n, limit))
	}
}

func (l *Linter) checkCoverImage(post *models.Post, emit func(models.Finding)) {
	ref := strings.TrimSpace(post.Meta.OGImage)
	if ref == "" || services.IsRemoteImage(ref) {
		return
	}
	if _, ok := services.ResolveMedia(ref); !ok {
		emit(l.finding(RuleCoverImage, post, keyLine(post, "ogImage"), "ogImage %q is neither an absolute URL nor a file in the media directory", ref))
	}
}

func (l *Linter) checkDuplicateSlugs(c *corpus, emit func(models.Finding)) {
	for slugValue, posts := range c.bySlug {
		if len(posts) < 2 {
			continue
		}
		for _, p := range posts {
			others := make([]string, 0, len(posts)-1)
			for _, o := range posts {
				if o != p {
					others = append(others, o.Path)
				}
			}
			sort.Strings(others)
			emit(l.finding(RuleDuplicateSlug, p, keyLine(p, "slug", "postSlug"),
				"slug %q is also used by %s", slugValue, strings.Join(others, ", ")))
		}
	}
}

func (l *Linter) checkNearDuplicates(ctx context.Context, c *corpus, emit func(models.Finding)) error {
	if l.severity(RuleNearDuplicate) == models.SeverityOff || l.settings.SimilarityThreshold <= 0 {
		return nil
	}
	profiles := make([]bigramProfile, len(c.posts))
	for i := range c.posts {
		profiles[i] = newBigramProfile(c.posts[i].Body)
	}
	for i := range c.posts {
		if err := ctx.Err(); err != nil {
			return err
		}
		if profiles[i].total < minBigrams {
			continue
		}
		for j := i + 1; j < len(c.posts); j++ {
			if profiles[j].total < minBigrams {
				continue
			}
			score := dice(profiles[i], profiles[j])
			if score < l.settings.SimilarityThreshold {
				continue
			}
			a, b := &c.posts[i], &c.posts[j]
			emit(l.finding(RuleNearDuplicate, a, a.BodyLine, "body is %.0f%% similar to %s", score*100, b.Path))
			emit(l.finding(RuleNearDuplicate, b, b.BodyLine, "body is %.0f%% similar to %s", score*100, a.Path))
		}
	}
	return nil
}

func buildReport(posts int, findings []models.Finding) models.Report {
	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Rule != b.Rule {
			return a.Rule < b.Rule
		}
		return a.Message < b.Message
	})

	report := models.Report{Posts: posts, Findings: findings}
	if report.Findings == nil {
		report.Findings = []models.Finding{}
	}
	for _, f := range findings {
		switch f.Severity {
		case models.SeverityError:
			report.Errors++
		case models.SeverityWarning:
			report.Warnings++
		}
	}
	return report
}
