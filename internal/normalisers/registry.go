package normalisers

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/athena/internal/core/domain"
	"github.com/custodia-labs/athena/internal/core/ports/driven"
	"github.com/custodia-labs/athena/internal/normalisers/docx"
	"github.com/custodia-labs/athena/internal/normalisers/pdf"
	"github.com/custodia-labs/athena/internal/normalisers/plaintext"
)

// Ensure Registry implements the interface.
var _ driven.LoaderRegistry = (*Registry)(nil)

// Registry holds one loader per source type.
type Registry struct {
	pdf       driven.Loader
	docx      driven.Loader
	plaintext driven.Loader
}

// NewRegistry creates a registry with the default loaders.
// pdfLicenseKey is passed to the PDF loader and may be empty.
func NewRegistry(pdfLicenseKey string) *Registry {
	return &Registry{
		pdf:       pdf.New(pdfLicenseKey),
		docx:      docx.New(),
		plaintext: plaintext.New(),
	}
}

// Get returns the loader for t.
func (r *Registry) Get(t domain.SourceType) (driven.Loader, error) {
	switch t {
	case domain.SourceTypePDF:
		return r.pdf, nil
	case domain.SourceTypeDOCX:
		return r.docx, nil
	case domain.SourceTypeTXT:
		return r.plaintext, nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedType, t)
	}
}

// TitleFromPath derives a human-readable title from a file name:
// "q3_sales-report.pdf" becomes "q3 sales report".
func TitleFromPath(path string) string {
	filename := filepath.Base(path)

	ext := filepath.Ext(filename)
	if ext != "" {
		filename = strings.TrimSuffix(filename, ext)
	}

	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")

	return strings.TrimSpace(filename)
}
