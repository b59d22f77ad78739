package services

import (
	"bytes"
	"sort"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"golang.org/x/net/html"
)

// Heading is a section heading and the anchor it produces.
type Heading struct {
	Level int
	Text  string
	ID    string
	Line  int
}

// LinkRef is a link or image destination found in a body.
type LinkRef struct {
	Destination string
	Line        int
	Image       bool
}

// BodyAnalysis holds what the linter needs from a Markdown body.
type BodyAnalysis struct {
	Headings []Heading
	Anchors  map[string]int // anchor ID -> line
	Links    []LinkRef
}

// HasAnchor reports whether id is a target in the body.
func (a BodyAnalysis) HasAnchor(id string) bool {
	_, ok := a.Anchors[id]
	return ok
}

// newGoldmarkEngine builds the parser used for analysis. Attribute syntax is
// enabled so explicit {#id} heading anchors are honored.
func newGoldmarkEngine() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Footnote),
		goldmark.WithParserOptions(parser.WithAttribute()),
	)
}

// AnalyzeBody parses body and collects headings, anchors and links. firstLine
// is the file line the body starts on, so reported lines point into the file.
func AnalyzeBody(body string, firstLine int) BodyAnalysis {
	if firstLine < 1 {
		firstLine = 1
	}
	source := []byte(body)
	doc := newGoldmarkEngine().Parser().Parse(text.NewReader(source))
	lines := newLineIndex(source, firstLine)

	result := BodyAnalysis{Anchors: map[string]int{}}
	slugger := newHeadingSlugger()

	// Explicit IDs are reserved first so generated ones never collide with them.
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if h, ok := n.(*ast.Heading); ok && entering {
			if id, ok := explicitID(h); ok {
				slugger.Reserve(id)
			}
		}
		return ast.WalkContinue, nil
	})

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			label := string(node.Text(source))
			id, explicit := explicitID(node)
			if !explicit {
				id = slugger.Slug(label)
			}
			line := lines.of(blockOffset(node))
			result.Headings = append(result.Headings, Heading{Level: node.Level, Text: label, ID: id, Line: line})
			addAnchor(result.Anchors, id, line)
		case *ast.Link:
			result.Links = append(result.Links, LinkRef{
				Destination: string(node.Destination),
				Line:        lines.of(inlineOffset(node)),
			})
		case *ast.Image:
			result.Links = append(result.Links, LinkRef{
				Destination: string(node.Destination),
				Line:        lines.of(inlineOffset(node)),
				Image:       true,
			})
		case *ast.AutoLink:
			result.Links = append(result.Links, LinkRef{
				Destination: string(node.URL(source)),
				Line:        lines.of(inlineOffset(node)),
			})
		case *ast.HTMLBlock:
			segs := node.Lines()
			if segs.Len() > 0 {
				start, stop := segs.At(0).Start, segs.At(segs.Len()-1).Stop
				if node.HasClosure() {
					stop = node.ClosureLine.Stop
				}
				collectHTMLAnchors(result.Anchors, source, start, stop, lines)
			}
		case *ast.RawHTML:
			if node.Segments.Len() > 0 {
				start, stop := node.Segments.At(0).Start, node.Segments.At(node.Segments.Len()-1).Stop
				collectHTMLAnchors(result.Anchors, source, start, stop, lines)
			}
		}
		return ast.WalkContinue, nil
	})

	return result
}

func explicitID(h *ast.Heading) (string, bool) {
	raw, ok := h.AttributeString("id")
	if !ok {
		return "", false
	}
	switch v := raw.(type) {
	case []byte:
		return string(v), len(v) > 0
	case string:
		return v, v != ""
	}
	return "", false
}

func addAnchor(anchors map[string]int, id string, line int) {
	if _, exists := anchors[id]; !exists {
		anchors[id] = line
	}
}

// collectHTMLAnchors tokenizes source[start:stop] and records every id
// attribute, plus name attributes on <a> elements.
func collectHTMLAnchors(anchors map[string]int, source []byte, start, stop int, lines lineIndex) {
	if start < 0 || stop > len(source) || start >= stop {
		return
	}
	z := html.NewTokenizer(bytes.NewReader(source[start:stop]))
	offset := start
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return
		}
		tokenStart := offset
		offset += len(z.Raw())
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		name, hasAttr := z.TagName()
		isLink := string(name) == "a"
		for hasAttr {
			var key, val []byte
			key, val, hasAttr = z.TagAttr()
			switch string(key) {
			case "id":
			case "name":
				if !isLink {
					continue
				}
			default:
				continue
			}
			if id := string(bytes.TrimSpace(val)); id != "" {
				addAnchor(anchors, id, lines.of(tokenStart))
			}
		}
	}
}

// blockOffset is the byte offset of a block's first line, or -1.
func blockOffset(n ast.Node) int {
	for cur := n; cur != nil; cur = cur.Parent() {
		if cur.Type() != ast.TypeBlock {
			continue
		}
		if segs := cur.Lines(); segs != nil && segs.Len() > 0 {
			return segs.At(0).Start
		}
	}
	return -1
}

// inlineOffset finds the first text segment under an inline node, falling
// back to its enclosing block.
func inlineOffset(n ast.Node) int {
	var offset = -1
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if t, ok := c.(*ast.Text); ok {
			offset = t.Segment.Start
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	if offset >= 0 {
		return offset
	}
	return blockOffset(n.Parent())
}

type lineIndex struct {
	starts    []int
	firstLine int
}

func newLineIndex(source []byte, firstLine int) lineIndex {
	starts := []int{0}
	for i, b := range source {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return lineIndex{starts: starts, firstLine: firstLine}
}

// of maps a byte offset to a 1-based file line. Unknown offsets map to the
// first body line.
func (l lineIndex) of(offset int) int {
	if offset < 0 {
		return l.firstLine
	}
	idx := sort.Search(len(l.starts), func(i int) bool { return l.starts[i] > offset }) - 1
	if idx < 0 {
		idx = 0
	}
	return l.firstLine + idx
}
