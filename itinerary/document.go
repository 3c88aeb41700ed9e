// Package itinerary turns itinerary markdown into downloadable documents.
package itinerary

import "strings"

const DocumentTitle = "Travel Itinerary (AI Generated)"

type NodeKind string

const (
	NodeHeading   NodeKind = "heading"
	NodeParagraph NodeKind = "paragraph"
	NodeBullet    NodeKind = "bullet"
)

// Node is one block of the exported document. Level is set for headings
// (0 for the document title); Bold marks a fully bold paragraph.
type Node struct {
	Kind  NodeKind
	Level int
	Text  string
	Bold  bool
}

type Document struct {
	Title string
	Nodes []Node
}

// Parse applies the line rules: "### " is a level-2 heading, "## " a level-1
// heading, a line wrapped in ** a bold paragraph, "- " a bullet item, and
// anything else a plain paragraph. Blank lines are dropped.
func Parse(content string) Document {
	doc := Document{Title: DocumentTitle}
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "### "):
			doc.Nodes = append(doc.Nodes, Node{Kind: NodeHeading, Level: 2, Text: strings.TrimPrefix(line, "### ")})
		case strings.HasPrefix(line, "## "):
			doc.Nodes = append(doc.Nodes, Node{Kind: NodeHeading, Level: 1, Text: strings.TrimPrefix(line, "## ")})
		case len(line) > 4 && strings.HasPrefix(line, "**") && strings.HasSuffix(line, "**"):
			doc.Nodes = append(doc.Nodes, Node{Kind: NodeParagraph, Text: strings.ReplaceAll(line, "**", ""), Bold: true})
		case strings.HasPrefix(line, "- "):
			doc.Nodes = append(doc.Nodes, Node{Kind: NodeBullet, Text: strings.TrimPrefix(line, "- ")})
		default:
			doc.Nodes = append(doc.Nodes, Node{Kind: NodeParagraph, Text: line})
		}
	}
	return doc
}
