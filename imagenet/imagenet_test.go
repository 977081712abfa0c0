package imagenet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCategoriesCount validates the label table holds exactly one entry per
// ImageNet-1K class. Weight metadata and classifier head sizing both key off
// this count, so a drifting table would corrupt every prediction mapping.
func TestCategoriesCount(t *testing.T) {
	require.Len(t, Categories, NumCategories, "label table must cover all ImageNet-1K classes")
}

// TestCategoriesWellKnownIndices spot-checks canonical index assignments at
// the boundaries and in the middle of the table.
func TestCategoriesWellKnownIndices(t *testing.T) {
	cases := []struct {
		idx  int
		name string
	}{
		{0, "tench"},
		{1, "goldfish"},
		{151, "Chihuahua"},
		{285, "Egyptian cat"},
		{398, "abacus"},
		{563, "fountain pen"},
		{999, "toilet tissue"},
	}

	for _, tc := range cases {
		name, err := Label(tc.idx)
		require.NoError(t, err, "lookup of valid index %d should succeed", tc.idx)
		assert.Equal(t, tc.name, name, "index %d should map to %q", tc.idx, tc.name)
	}
}

// TestLabelOutOfRange validates that invalid class indices are rejected
// instead of panicking.
func TestLabelOutOfRange(t *testing.T) {
	_, err := Label(-1)
	assert.Error(t, err, "negative index should be rejected")

	_, err = Label(NumCategories)
	assert.Error(t, err, "index past the end of the table should be rejected")
}

// TestIndexRoundTrip validates name lookup is the inverse of label lookup for
// unique names, and resolves duplicated names to their lowest index.
func TestIndexRoundTrip(t *testing.T) {
	idx, err := Index("goldfish")
	require.NoError(t, err)
	assert.Equal(t, 1, idx, "goldfish is class 1")

	// "crane" labels both a bird (134) and a machine (517).
	idx, err = Index("crane")
	require.NoError(t, err)
	assert.Equal(t, 134, idx, "duplicate names resolve to the lowest index")

	_, err = Index("not a real category")
	assert.Error(t, err, "unknown names should be rejected")
}

// TestNormalizationStats validates the published ImageNet channel statistics
// stay in RGB order with the expected values.
func TestNormalizationStats(t *testing.T) {
	assert.Equal(t, [3]float32{0.485, 0.456, 0.406}, Mean, "mean must stay in RGB order")
	assert.Equal(t, [3]float32{0.229, 0.224, 0.225}, Std, "std must stay in RGB order")
}
