package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ka7788158-png/IIT-MADRAS/estimate"
)

func TestList(t *testing.T) {
	list := NewList()
	assert.Equal(t, 0, list.Len())

	require.NoError(t, list.Add(estimate.ManualEntry{Key: "Pothole", Quantity: 2.5, Unit: "m^3"}))
	require.NoError(t, list.Add(estimate.ManualEntry{Key: "Road Studs", Quantity: 24, Unit: "item"}))
	assert.Equal(t, 2, list.Len())

	entries := list.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "Pothole", entries[0].Key)
	assert.Equal(t, "Road Studs", entries[1].Key)

	// Entries returns a copy; mutating it does not touch the list.
	entries[0].Key = "changed"
	assert.Equal(t, "Pothole", list.Entries()[0].Key)

	list.Clear()
	assert.Equal(t, 0, list.Len())
	assert.Empty(t, list.Entries())
}

func TestAddRejectsInvalid(t *testing.T) {
	list := NewList()

	require.Error(t, list.Add(estimate.ManualEntry{Key: "", Quantity: 1}))
	require.Error(t, list.Add(estimate.ManualEntry{Key: "Pothole", Quantity: 0}))
	require.Error(t, list.Add(estimate.ManualEntry{Key: "Pothole", Quantity: -1}))
	assert.Equal(t, 0, list.Len())
}
