package grouping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type drug struct {
	name   string
	dosage string
	order  int
}

func byName(d drug) string { return d.name }
func byOrder(d drug) int   { return d.order }

func TestByKeyGroupsAndPreservesChildOrder(t *testing.T) {
	drugs := []drug{
		{"Amlodipine", "5mg", 0},
		{"Amlodipine", "10mg", 1},
		{"Telmisartan", "40mg", 2},
	}

	groups := ByKey(drugs, byName, byOrder)

	require.Len(t, groups, 2)
	assert.Equal(t, "Amlodipine", groups[0].Key)
	assert.Equal(t, []drug{drugs[0], drugs[1]}, groups[0].Items)
	assert.Equal(t, "Telmisartan", groups[1].Key)
	assert.Equal(t, []drug{drugs[2]}, groups[1].Items)
}

func TestByKeySortsChildrenByOrderNotArrival(t *testing.T) {
	drugs := []drug{
		{"Telmisartan", "80mg", 3},
		{"Amlodipine", "10mg", 1},
		{"Telmisartan", "40mg", 2},
		{"Amlodipine", "5mg", 0},
	}

	groups := ByKey(drugs, byName, byOrder)

	require.Len(t, groups, 2)
	assert.Equal(t, "Telmisartan", groups[0].Key)
	assert.Equal(t, "40mg", groups[0].Items[0].dosage)
	assert.Equal(t, "80mg", groups[0].Items[1].dosage)
	assert.Equal(t, "5mg", groups[1].Items[0].dosage)
	assert.Equal(t, "10mg", groups[1].Items[1].dosage)
}

func TestByKeyIsCaseSensitive(t *testing.T) {
	groups := ByKey([]drug{{"amlodipine", "5mg", 0}, {"Amlodipine", "5mg", 1}}, byName, byOrder)
	assert.Len(t, groups, 2)
}

func TestByKeyKeepsArrivalForEqualOrders(t *testing.T) {
	groups := ByKey([]drug{{"A", "first", 0}, {"A", "second", 0}}, byName, byOrder)
	require.Len(t, groups, 1)
	assert.Equal(t, "first", groups[0].Items[0].dosage)
}

func TestByKeyEmpty(t *testing.T) {
	assert.Empty(t, ByKey(nil, byName, byOrder))
}
