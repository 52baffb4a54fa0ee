package outlook

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategoryFilter(t *testing.T) {
	assert.Equal(t,
		"categories/any(c:c eq 'JH25 - Applied')",
		categoryFilter([]string{"JH25 - Applied"}))

	assert.Equal(t,
		"categories/any(c:c eq 'JH25 - Applied') or categories/any(c:c eq 'JH25-Rejected')",
		categoryFilter([]string{"JH25 - Applied", "JH25-Rejected"}))

	// Single quotes in names are doubled for OData.
	assert.Equal(t,
		"categories/any(c:c eq 'O''Brien')",
		categoryFilter([]string{"O'Brien"}))
}
