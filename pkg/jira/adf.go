package jira

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// ADFNode is a node in an Atlassian Document Format tree.
type ADFNode struct {
	Type    string         `json:"type"`
	Version int            `json:"version,omitempty"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Text    string         `json:"text,omitempty"`
	Marks   []ADFMark      `json:"marks,omitempty"`
	Content []ADFNode      `json:"content,omitempty"`
}

// ADFMark is a formatting mark on an ADF text node.
type ADFMark struct {
	Type string `json:"type"`
}

var markdownParser = goldmark.New(goldmark.WithExtensions(extension.Table))

// MarkdownToADF converts a Markdown document to ADF. Paragraphs, headings
// and tables are converted; other block types are dropped. Table header
// cells get bold text.
func MarkdownToADF(markdown string) ADFNode {
	source := []byte(markdown)
	root := markdownParser.Parser().Parse(text.NewReader(source))

	var content []ADFNode
	for node := root.FirstChild(); node != nil; node = node.NextSibling() {
		switch node.Kind() {
		case ast.KindParagraph:
			content = append(content, ADFNode{
				Type:    "paragraph",
				Content: []ADFNode{{Type: "text", Text: textContent(node, source)}},
			})
		case ast.KindHeading:
			heading := node.(*ast.Heading)
			content = append(content, ADFNode{
				Type:    "heading",
				Attrs:   map[string]any{"level": heading.Level},
				Content: []ADFNode{{Type: "text", Text: textContent(node, source)}},
			})
		case east.KindTable:
			content = append(content, convertTable(node, source))
		}
	}

	return ADFNode{Type: "doc", Version: 1, Content: content}
}

func convertTable(table ast.Node, source []byte) ADFNode {
	var rows []ADFNode
	for row := table.FirstChild(); row != nil; row = row.NextSibling() {
		isHeader := row.Kind() == east.KindTableHeader

		var cells []ADFNode
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			textNode := ADFNode{Type: "text", Text: textContent(cell, source)}
			cellType := "tableCell"
			if isHeader {
				cellType = "tableHeader"
				textNode.Marks = []ADFMark{{Type: "strong"}}
			}
			cells = append(cells, ADFNode{
				Type:    cellType,
				Content: []ADFNode{{Type: "paragraph", Content: []ADFNode{textNode}}},
			})
		}

		rows = append(rows, ADFNode{Type: "tableRow", Content: cells})
	}

	return ADFNode{Type: "table", Content: rows}
}

// textContent collects the plain text of all inline text nodes under n.
func textContent(n ast.Node, source []byte) string {
	var out []byte
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if t, ok := node.(*ast.Text); ok {
			out = append(out, t.Segment.Value(source)...)
			if t.SoftLineBreak() || t.HardLineBreak() {
				out = append(out, ' ')
			}
		}
		return ast.WalkContinue, nil
	})
	return string(out)
}
