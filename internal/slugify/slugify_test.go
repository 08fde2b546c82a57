package slugify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		brand string
		model string
		want  string
	}{
		{"basic", "Canon", "EOS R5", "canon-eos-r5"},
		{"unsafe characters", "Sony", "A7 III / ILCE-7M3", "sony-a7-iii-ilce-7m3"},
		{"windows reserved characters", "Nikon", `Z8 <"pro"> edition?`, "nikon-z8-pro-edition"},
		{"whitespace runs", "Fujifilm", "  X-T5   body  ", "fujifilm-x-t5-body"},
		{"empty brand", "", "EOS R5", "unknown-eos-r5"},
		{"empty model", "Canon", "", "canon-model"},
		{"both empty", "", "", "unknown-model"},
		{"unicode stripped", "Leica", "M11 Monochrom™", "leica-m11-monochrom"},
		{"only symbols", "***", "///", "unknown-model"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Slugify(tt.brand, tt.model))
		})
	}
}

func TestSlugifyDeterministic(t *testing.T) {
	t.Parallel()

	first := Slugify("Canon", "EOS R5")
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, Slugify("Canon", "EOS R5"))
	}
}

func TestSlugifyTruncation(t *testing.T) {
	t.Parallel()

	slug := Slugify("Hasselblad", strings.Repeat("X2D 100C ", 30))
	require.LessOrEqual(t, len(slug), MaxSlugLength)
	assert.False(t, strings.HasSuffix(slug, "-"), "truncated slug must not end in a hyphen")
}

func TestResolveUnique(t *testing.T) {
	t.Parallel()

	taken := map[string]bool{
		"acme-cam-1":   true,
		"acme-cam-1-2": true,
	}
	exists := func(s string) bool { return taken[s] }

	assert.Equal(t, "acme-cam-2", ResolveUnique("acme-cam-2", exists))
	assert.Equal(t, "acme-cam-1-3", ResolveUnique("acme-cam-1", exists))
}

func TestFilenames(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "canon-eos-r5.jpg", ImageFilename("canon-eos-r5"))
	assert.Equal(t, "canon-eos-r5-thumb.jpg", ThumbFilename("canon-eos-r5"))
	assert.Equal(t, "canon-eos-r5.json", AttributionFilename("canon-eos-r5"))
}
