package category

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func interactiveSet(t *testing.T) *Set {
	t.Helper()
	p := DefaultProfile(ProfileInteractive)
	s, err := NewSet(p.Labels, p.Fallback)
	require.NoError(t, err)
	return s
}

func TestStrip(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Alimentação.", "Alimentação"},
		{"['Alimentação']", "Alimentação"},
		{`"Saúde"`, "Saúde"},
		{"  Telefone / Internet, ", "Telefone / Internet"},
		{"**Lazer**", "Lazer"},
		{"Compras   pessoais", "Compras pessoais"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Strip(tt.raw), "Strip(%q)", tt.raw)
	}
}

func TestSanitize(t *testing.T) {
	s := interactiveSet(t)

	tests := []struct {
		raw     string
		want    string
		outcome Outcome
	}{
		{"Alimentação", "Alimentação", OutcomeExact},
		{"Alimentação.", "Alimentação", OutcomeExact},
		{"[\"Transporte\"]", "Transporte", OutcomeExact},
		{"SAUDE", "Saúde", OutcomeNormalized},
		{"Categoria: Moradia", "Moradia", OutcomeNormalized},
		{"Resposta: lazer", "Lazer", OutcomeNormalized},
		{"Não é Alimentação, é Lazer", "Outros", OutcomeFallback},
		{"Talvez Transporte", "Outros", OutcomeFallback},
		{"Alimentacao", "Alimentação", OutcomeNormalized},
		{"Educacão", "Educação", OutcomeNormalized},
		{"Lazer\nPorque é um cinema.", "Lazer", OutcomeExact},
		{"Investimentos", "Outros", OutcomeFallback},
		{"", "Outros", OutcomeFallback},
		{"...", "Outros", OutcomeFallback},
	}
	for _, tt := range tests {
		got, outcome := s.Sanitize(tt.raw)
		assert.Equal(t, tt.want, got, "Sanitize(%q)", tt.raw)
		assert.Equal(t, tt.outcome, outcome, "Sanitize(%q) outcome", tt.raw)
	}
}

func TestSanitize_AlwaysInSet(t *testing.T) {
	s := interactiveSet(t)
	for _, raw := range []string{"x", "Pix para Maria", "???", "Mercado livre", "Outros."} {
		got, _ := s.Sanitize(raw)
		assert.True(t, s.Contains(got), "Sanitize(%q) = %q not in set", raw, got)
	}
}

func TestNewSet_AddsFallback(t *testing.T) {
	p := DefaultProfile(ProfileBatch)
	s, err := NewSet(p.Labels, p.Fallback)
	require.NoError(t, err)

	labels := s.Labels()
	assert.Len(t, labels, len(p.Labels)+1)
	assert.Equal(t, "Outros", labels[len(labels)-1])
	assert.True(t, s.Contains("Outros"))
	assert.Equal(t, "Outros", s.Fallback())
}

func TestNewSet_Errors(t *testing.T) {
	_, err := NewSet([]string{"A"}, "")
	assert.Error(t, err)

	_, err = NewSet(nil, "Outros")
	assert.Error(t, err)

	_, err = NewSet([]string{"Saúde", "saude"}, "Outros")
	assert.Error(t, err)
}

func TestContains_ExactOnly(t *testing.T) {
	s := interactiveSet(t)
	assert.True(t, s.Contains("Saúde"))
	assert.False(t, s.Contains("saude"))
	assert.False(t, s.Contains("Mercado"))
}

func TestLabels_ReturnsCopy(t *testing.T) {
	s := interactiveSet(t)
	labels := s.Labels()
	labels[0] = "changed"
	assert.Equal(t, "Alimentação", s.Labels()[0])
}

func TestPalette(t *testing.T) {
	p := NewPalette(DefaultColors(), "")
	assert.Equal(t, "#008000", p.Color("Alimentação"))
	assert.Equal(t, DefaultFallbackColor, p.Color("Lazer"))

	custom := NewPalette(map[string]string{"A": ""}, "#000000")
	assert.Equal(t, "#000000", custom.Color("A"))

	var zero Palette
	assert.Equal(t, DefaultFallbackColor, zero.Color("A"))
}

func TestDefaultProfile(t *testing.T) {
	batch := DefaultProfile(ProfileBatch)
	assert.Equal(t, "batch", batch.Name)
	assert.NotContains(t, batch.Labels, "Outros")
	assert.Contains(t, batch.Prompt, "{text}")
	assert.Contains(t, batch.Prompt, "{categories}")

	inter := DefaultProfile("unknown")
	assert.Equal(t, ProfileInteractive, inter.Name)
	assert.Contains(t, inter.Labels, "Outros")
}
