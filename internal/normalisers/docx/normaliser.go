// Package docx loads Word .docx files.
package docx

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/athena/internal/core/domain"
	"github.com/custodia-labs/athena/internal/core/ports/driven"
)

// Ensure Loader implements the interface.
var _ driven.Loader = (*Loader)(nil)

// ErrNoDocumentPart indicates the archive has no word/document.xml.
var ErrNoDocumentPart = errors.New("docx: missing word/document.xml")

// Loader extracts raw text from DOCX documents.
type Loader struct{}

// New creates a new DOCX loader.
func New() *Loader {
	return &Loader{}
}

// Type returns the source type this loader handles.
func (l *Loader) Type() domain.SourceType {
	return domain.SourceTypeDOCX
}

// Load returns the document body as one unit: paragraphs separated by
// newlines, table cells by tabs. The core title, when present, is kept in
// the unit metadata.
func (l *Loader) Load(ctx context.Context, path string) ([]domain.TextUnit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening docx archive: %w", err)
	}
	defer reader.Close()

	body, err := readPart(&reader.Reader, "word/document.xml")
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, ErrNoDocumentPart
	}

	text, err := extractText(body)
	if err != nil {
		return nil, fmt.Errorf("parsing word/document.xml: %w", err)
	}

	meta := map[string]string{
		"source": path,
		"format": string(domain.SourceTypeDOCX),
	}
	if title := extractTitle(&reader.Reader); title != "" {
		meta["title"] = title
	}

	return []domain.TextUnit{{Text: text, Metadata: meta}}, nil
}

// readPart returns the named archive member, or nil if it is absent.
func readPart(reader *zip.Reader, name string) ([]byte, error) {
	for _, file := range reader.File {
		if file.Name != name {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", name, err)
		}
		defer rc.Close()

		content, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		return content, nil
	}
	return nil, nil
}

// extractText walks WordprocessingML tokens. Text lives in w:t elements;
// w:tab and w:br map to whitespace, w:p and w:tr end a line, w:tc ends a cell.
func extractText(content []byte) (string, error) {
	decoder := xml.NewDecoder(strings.NewReader(string(content)))

	var b strings.Builder
	inText := false
	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteString("\t")
			case "br", "cr":
				b.WriteString("\n")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p", "tr":
				b.WriteString("\n")
			case "tc":
				b.WriteString("\t")
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}

	return normaliseLines(b.String()), nil
}

// normaliseLines trims trailing whitespace per line and collapses runs of
// more than one blank line.
func normaliseLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := 0
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			blank++
			if blank > 1 {
				continue
			}
		} else {
			blank = 0
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// coreXML represents the structure of docProps/core.xml.
type coreXML struct {
	Title string `xml:"title"`
}

// extractTitle returns the title from docProps/core.xml, or "".
func extractTitle(reader *zip.Reader) string {
	content, err := readPart(reader, "docProps/core.xml")
	if err != nil || content == nil {
		return ""
	}

	var core coreXML
	if err := xml.Unmarshal(content, &core); err != nil {
		return ""
	}
	return strings.TrimSpace(core.Title)
}
