package normalisers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/athena/internal/core/domain"
)

func TestRegistry_Get(t *testing.T) {
	r := NewRegistry("")

	for _, st := range domain.AllSourceTypes() {
		t.Run(string(st), func(t *testing.T) {
			loader, err := r.Get(st)
			require.NoError(t, err)
			assert.Equal(t, st, loader.Type())
		})
	}
}

func TestRegistry_GetUnsupported(t *testing.T) {
	r := NewRegistry("")

	_, err := r.Get("xlsx")
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestTitleFromPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/docs/q3_sales-report.pdf", "q3 sales report"},
		{"notes.txt", "notes"},
		{"README", "README"},
		{"/a/b/my-file.name.docx", "my file.name"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TitleFromPath(tt.path), tt.path)
	}
}
