// Package testscript loads the markdown scripts that tell the tester persona
// what to do during a conversation.
package testscript

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	qaerrors "github.com/qamaster/personaqa/internal/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Script is a loaded test script.
type Script struct {
	Path string
	// Name is the file's base name, used to label results.
	Name string
	// Title is the first markdown heading, or Name when there is none.
	Title string
	Body  string
}

var markdown = goldmark.New()

// Load reads the script at path.
func Load(path string) (*Script, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &qaerrors.NotFoundError{Resource: "test script", ID: path}
		}
		return nil, fmt.Errorf("failed to stat test script %s: %w", path, err)
	}

	if info.IsDir() {
		return nil, &qaerrors.ValidationError{
			Field:      "script",
			Message:    fmt.Sprintf("%s is a directory", path),
			Suggestion: "pass a markdown file or a glob such as scripts/*.md",
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read test script %s: %w", path, err)
	}

	name := filepath.Base(path)
	title := firstHeading(data)
	if title == "" {
		title = name
	}

	return &Script{
		Path:  path,
		Name:  name,
		Title: title,
		Body:  string(data),
	}, nil
}

func firstHeading(source []byte) string {
	doc := markdown.Parser().Parse(text.NewReader(source))

	var title string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		heading, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}

		title = strings.TrimSpace(inlineText(heading, source))
		if title == "" {
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkStop, nil
	})

	return title
}

func inlineText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Segment.Value(source))
			if t.SoftLineBreak() {
				buf.WriteByte(' ')
			}
			continue
		}
		buf.WriteString(inlineText(c, source))
	}
	return buf.String()
}

// Expand resolves every pattern to script paths, in pattern order and without
// duplicates. Patterns without glob meta characters are passed through as is,
// even when the file doesn't exist, so the caller can report it.
func Expand(patterns ...string) ([]string, error) {
	var paths []string
	seen := map[string]bool{}

	add := func(p string) {
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}

	for _, pattern := range patterns {
		if strings.TrimSpace(pattern) == "" {
			continue
		}

		if !hasMeta(pattern) {
			add(pattern)
			continue
		}

		if !doublestar.ValidatePattern(filepath.ToSlash(pattern)) {
			return nil, &qaerrors.ValidationError{
				Field:   "script",
				Message: fmt.Sprintf("invalid glob pattern %q", pattern),
			}
		}

		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("failed to expand %q: %w", pattern, err)
		}

		sort.Strings(matches)
		for _, m := range matches {
			add(m)
		}
	}

	return paths, nil
}

func hasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}
