package palette

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/superviolin/pkg/errors"
)

func TestResolveQualitative(t *testing.T) {
	cs, err := Resolve("Set2", 3, DefaultSeed)
	require.NoError(t, err)
	assert.Equal(t, []string{"#66c2a5", "#fc8d62", "#8da0cb"}, Hex(cs))

	def, err := Resolve("", 2, DefaultSeed)
	require.NoError(t, err)
	assert.Equal(t, Hex(cs[:2]), Hex(def))
}

func TestResolveExplicitList(t *testing.T) {
	cs, err := Resolve("red, #00ff00, #00f", 3, DefaultSeed)
	require.NoError(t, err)
	assert.Equal(t, []string{"#ff0000", "#00ff00", "#0000ff"}, Hex(cs))
}

func TestResolveSequentialDeterministic(t *testing.T) {
	a, err := Resolve("viridis", 5, DefaultSeed)
	require.NoError(t, err)
	b, err := Resolve("viridis", 5, DefaultSeed)
	require.NoError(t, err)
	assert.Equal(t, Hex(a), Hex(b))
	assert.Len(t, a, 5)

	// Shuffling permutes but never changes the sampled set.
	unshuffled := make(map[string]bool)
	anchors, _ := Parse(sequential["viridis"])
	for i := 0; i < 5; i++ {
		unshuffled[At(anchors, float64(i+2)/7).Hex()] = true
	}
	for _, h := range Hex(a) {
		assert.True(t, unshuffled[h], "unexpected colour %s", h)
	}
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name string
		spec string
		n    int
		code errors.Code
	}{
		{"too few in list", "red, blue", 3, errors.ErrCodeNotEnoughColor},
		{"too few in map", "Set2", 9, errors.ErrCodeNotEnoughColor},
		{"unknown map", "Rainbow", 2, errors.ErrCodeInvalidConfig},
		{"bad colour", "red, nope", 2, errors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.spec, tt.n, DefaultSeed)
			assert.True(t, errors.Is(err, tt.code), "got %v", err)
		})
	}
}

func TestAt(t *testing.T) {
	anchors, err := Parse([]string{"#000000", "#ffffff"})
	require.NoError(t, err)
	assert.Equal(t, "#000000", At(anchors, 0).Hex())
	assert.Equal(t, "#ffffff", At(anchors, 1).Hex())
	assert.Equal(t, "#808080", At(anchors, 0.5).Hex())
}

func TestNames(t *testing.T) {
	names := Names()
	assert.Contains(t, names, "Set2")
	assert.Contains(t, names, "viridis")
	assert.IsIncreasing(t, names)
}
