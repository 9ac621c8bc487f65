package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr(v int64) *int64 { return &v }

func TestLineMatches(t *testing.T) {
	t.Run("Same id weight and variant", func(t *testing.T) {
		l := Line{ID: 7, Weight: "1KG", VariantID: ptr(3)}
		assert.True(t, l.matches(7, "1KG", ptr(3)))
	})

	t.Run("Different weight is a different line", func(t *testing.T) {
		l := Line{ID: 7, Weight: "1KG"}
		assert.False(t, l.matches(7, "5KG", nil))
	})

	t.Run("Different variant is a different line", func(t *testing.T) {
		l := Line{ID: 7, Weight: "", VariantID: ptr(3)}
		assert.False(t, l.matches(7, "", ptr(4)))
	})

	t.Run("Absent variant only matches absent", func(t *testing.T) {
		withVariant := Line{ID: 7, Weight: "", VariantID: ptr(0)}
		withoutVariant := Line{ID: 7, Weight: ""}

		// variantId 0 and "no variant" must stay distinct lines
		assert.False(t, withVariant.matches(7, "", nil))
		assert.False(t, withoutVariant.matches(7, "", ptr(0)))
		assert.True(t, withoutVariant.matches(7, "", nil))
	})
}
