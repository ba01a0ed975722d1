// Package pdf loads PDF files with unipdf.
package pdf

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"

	"github.com/custodia-labs/athena/internal/core/domain"
	"github.com/custodia-labs/athena/internal/core/ports/driven"
	"github.com/custodia-labs/athena/internal/logger"
)

// Ensure Loader implements the interface.
var _ driven.Loader = (*Loader)(nil)

// unipdf keeps its license in process state; it can be set once.
var licenseOnce sync.Once

// Loader extracts text from PDF documents page by page.
type Loader struct {
	licenseKey string
}

// New creates a new PDF loader. licenseKey is a UniDoc metered key; it is
// registered on first use.
func New(licenseKey string) *Loader {
	return &Loader{licenseKey: licenseKey}
}

// Type returns the source type this loader handles.
func (l *Loader) Type() domain.SourceType {
	return domain.SourceTypePDF
}

// Load returns one unit per page, with the 1-based page number in the
// unit metadata. Pages without text produce empty units.
func (l *Loader) Load(ctx context.Context, path string) ([]domain.TextUnit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.registerLicense()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()

	reader, err := model.NewPdfReader(f)
	if err != nil {
		return nil, fmt.Errorf("reading pdf: %w", err)
	}

	numPages, err := reader.GetNumPages()
	if err != nil {
		return nil, fmt.Errorf("counting pages: %w", err)
	}

	units := make([]domain.TextUnit, 0, numPages)
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := reader.GetPage(i)
		if err != nil {
			return nil, fmt.Errorf("reading page %d: %w", i, err)
		}

		ex, err := extractor.New(page)
		if err != nil {
			return nil, fmt.Errorf("preparing page %d: %w", i, err)
		}

		text, err := ex.ExtractText()
		if err != nil {
			return nil, fmt.Errorf("extracting page %d: %w", i, err)
		}

		units = append(units, domain.TextUnit{
			Text: text,
			Metadata: map[string]string{
				"source": path,
				"format": string(domain.SourceTypePDF),
				"page":   strconv.Itoa(i),
			},
		})
	}
	logger.Debug("PDF %s: %d pages", path, numPages)

	return units, nil
}

func (l *Loader) registerLicense() {
	if l.licenseKey == "" {
		return
	}
	licenseOnce.Do(func() {
		if err := license.SetMeteredKey(l.licenseKey); err != nil {
			logger.Warn("unipdf license not accepted: %v", err)
		}
	})
}
