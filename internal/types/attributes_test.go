package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAttributes_PreservesInsertionOrder(t *testing.T) {
	var a Attributes
	a.Set("Size", "51 to 200 Employees")
	a.Set("Founded", "2004")
	a.Set("Revenue", "Unknown / Non-Applicable")

	assert.Equal(t, []string{"Size", "Founded", "Revenue"}, a.Keys())
	assert.Equal(t, 3, a.Len())
}

func TestAttributes_ResetKeepsPosition(t *testing.T) {
	var a Attributes
	a.Set("Size", "small")
	a.Set("Type", "Private")
	a.Set("Size", "large")

	assert.Equal(t, []string{"Size", "Type"}, a.Keys())
	v, ok := a.Get("Size")
	assert.True(t, ok)
	assert.Equal(t, "large", v)
}

func TestAttributes_ZeroValue(t *testing.T) {
	var a Attributes
	_, ok := a.Get("missing")
	assert.False(t, ok)
	assert.Empty(t, a.Keys())
	assert.Empty(t, a.Map())
}

func TestAttributes_KeysIsACopy(t *testing.T) {
	var a Attributes
	a.Set("Sector", "Information Technology")
	keys := a.Keys()
	keys[0] = "mutated"

	assert.Equal(t, []string{"Sector"}, a.Keys())
}
