package mailsync

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveLabelsExactAndSuffix(t *testing.T) {
	labels := []Label{
		{ID: "L1", Name: "JH25 - Offer"},
		{ID: "L2", Name: "Inbox/JH25 - Applied"},
		{ID: "L3", Name: "Job Hunt/2025/JH25 - Networking"},
		{ID: "L4", Name: "Unrelated"},
	}

	cat := ResolveLabels(labels)
	require.False(t, cat.Empty())

	name, ok := cat.LogicalName("L1")
	require.True(t, ok)
	assert.Equal(t, "JH25 - Offer", name)

	// Nested labels resolve by suffix to the same logical name.
	name, ok = cat.LogicalName("L2")
	require.True(t, ok)
	assert.Equal(t, "JH25 - Applied", name)

	name, ok = cat.LogicalName("L3")
	require.True(t, ok)
	assert.Equal(t, NetworkingLabel, name)

	_, ok = cat.LogicalName("L4")
	assert.False(t, ok)
}

func TestResolveLabelsFirstMatchWins(t *testing.T) {
	// Two provider labels satisfy the suffix rule for the same logical name;
	// the first in the listing wins.
	labels := []Label{
		{ID: "A", Name: "Old/JH25 - Offer"},
		{ID: "B", Name: "New/JH25 - Offer"},
	}
	cat := ResolveLabels(labels)
	assert.Equal(t, []string{"A"}, cat.IDs())
}

func TestResolveLabelsEmpty(t *testing.T) {
	cat := ResolveLabels([]Label{{ID: "X", Name: "Receipts"}})
	assert.True(t, cat.Empty())
	assert.Empty(t, cat.IDs())
}

func TestDiagnosticsBounded(t *testing.T) {
	var labels []Label
	for i := 0; i < 80; i++ {
		labels = append(labels, Label{ID: fmt.Sprintf("L%d", i), Name: fmt.Sprintf("Label %d", i)})
	}
	d := Diagnostics(labels)
	assert.Len(t, d.AvailableLabels, maxLabelDiagnostics)
	assert.Len(t, d.ExpectedLabels, len(StatusLabelMap)+1)
	assert.Equal(t, NetworkingLabel, d.ExpectedLabels[len(d.ExpectedLabels)-1])
}

func TestStatusLabelMapCoversEveryStatus(t *testing.T) {
	seen := make(map[Status]bool)
	for _, st := range StatusLabelMap {
		seen[st] = true
	}
	for _, st := range Statuses {
		assert.True(t, seen[st], "no label mapped to status %s", st)
	}
}
