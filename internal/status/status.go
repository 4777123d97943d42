// Package status reads the admin's priorities out of a markdown status
// file.
package status

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// SectionTitle is the bold lead-in that opens the priorities list.
const SectionTitle = "Today's Actions"

// markerPattern matches a one-character box such as [-] or [~] that GFM
// does not turn into a task checkbox.
var markerPattern = regexp.MustCompile(`^\[.\]`)

var (
	markdownOnce sync.Once
	markdown     goldmark.Markdown
)

func parser() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))
	})
	return markdown
}

// Source loads priorities from the first file that exists among Paths.
type Source struct {
	Paths []string
}

// Priorities returns the checklist items of the file, or an empty list when
// no file exists or it cannot be read.
func (s Source) Priorities() []string {
	for _, p := range s.Paths {
		if p == "" {
			continue
		}
		data, err := os.ReadFile(p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			log.Error().Err(err).Str("module", "status").Str("path", p).Msg("could not read status file")
			return []string{}
		}
		return Parse(data)
	}
	return []string{}
}

// Parse finds the paragraph whose bold text starts with SectionTitle and
// returns the trimmed text of every checkbox item in the ordered lists
// that follow it, up to the next heading or thematic break.
func Parse(src []byte) []string {
	out := []string{}
	doc := parser().Parser().Parse(text.NewReader(src))

	var section ast.Node
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if isSectionLead(n, src) {
			section = n
			break
		}
	}
	if section == nil {
		return out
	}

	for n := section.NextSibling(); n != nil; n = n.NextSibling() {
		switch n.Kind() {
		case ast.KindHeading, ast.KindThematicBreak:
			return out
		case ast.KindList:
			if !n.(*ast.List).IsOrdered() {
				continue
			}
			for item := n.FirstChild(); item != nil; item = item.NextSibling() {
				if label, ok := checkboxItem(item, src); ok {
					out = append(out, label)
				}
			}
		}
	}
	return out
}

func isSectionLead(n ast.Node, src []byte) bool {
	if n.Kind() != ast.KindParagraph {
		return false
	}
	strong, ok := n.FirstChild().(*ast.Emphasis)
	if !ok || strong.Level != 2 {
		return false
	}
	return strings.HasPrefix(inlineText(strong, src), SectionTitle)
}

// checkboxItem reports the label of a list item that starts with a task
// checkbox or any other single-character box marker.
func checkboxItem(item ast.Node, src []byte) (string, bool) {
	block := item.FirstChild()
	if block == nil {
		return "", false
	}
	raw := inlineText(block, src)
	if _, ok := block.FirstChild().(*extast.TaskCheckBox); !ok {
		loc := markerPattern.FindStringIndex(raw)
		if loc == nil {
			return "", false
		}
		raw = raw[loc[1]:]
	}
	label := strings.TrimSpace(raw)
	return label, label != ""
}

func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := node.(type) {
		case *ast.Text:
			buf.Write(v.Segment.Value(src))
			if v.SoftLineBreak() || v.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(v.Value)
		case *ast.CodeSpan:
			for c := v.FirstChild(); c != nil; c = c.NextSibling() {
				if t, ok := c.(*ast.Text); ok {
					buf.Write(t.Segment.Value(src))
				}
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}
