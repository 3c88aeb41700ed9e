package itinerary

import (
	"bytes"
	"fmt"
	"io"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"
)

const DocxMIME = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// Paragraph style ids of the godocx default template. ListBullet carries a
// numbering definition, so bullets are real list items.
const styleListBullet = "ListBullet"

// Build lays the document out on a fresh godocx package, title first.
func Build(doc Document) (*docx.RootDoc, error) {
	rd, err := godocx.NewDocument()
	if err != nil {
		return nil, fmt.Errorf("failed to create docx: %w", err)
	}
	if _, err := rd.AddHeading(doc.Title, 0); err != nil {
		return nil, fmt.Errorf("failed to add title: %w", err)
	}
	for _, n := range doc.Nodes {
		switch n.Kind {
		case NodeHeading:
			if _, err := rd.AddHeading(n.Text, uint(n.Level)); err != nil {
				return nil, fmt.Errorf("failed to add heading %q: %w", n.Text, err)
			}
		case NodeBullet:
			rd.AddParagraph(n.Text).Style(styleListBullet)
		default:
			run := rd.AddEmptyParagraph().AddText(n.Text)
			if n.Bold {
				run.Bold(true)
			}
		}
	}
	return rd, nil
}

// WriteDocx writes the Word package for the document.
func WriteDocx(w io.Writer, doc Document) error {
	rd, err := Build(doc)
	if err != nil {
		return err
	}
	if err := rd.Write(w); err != nil {
		return fmt.Errorf("failed to write docx: %w", err)
	}
	return nil
}

// Docx is WriteDocx into memory for a raw itinerary.
func Docx(content string) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteDocx(&buf, Parse(content)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
