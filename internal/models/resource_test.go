package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourceTypeValid(t *testing.T) {
	for _, rt := range ResourceTypes {
		assert.True(t, rt.Valid(), string(rt))
	}
	assert.False(t, ResourceType("").Valid())
	assert.False(t, ResourceType("videos").Valid())
}

func TestResourceTypeNames(t *testing.T) {
	require.Equal(t, "pyqs, notes, assignments, solutions", ResourceTypeNames())
}

func TestFilterSetMatches(t *testing.T) {
	res := Resource{Degree: "B.Tech", Branch: "CSE", Semester: 4, Subject: "Operating Systems"}

	assert.True(t, FilterSet{}.Empty())
	assert.True(t, FilterSet{}.Matches(res))
	assert.True(t, FilterSet{Degree: "B.Tech", Semester: "4"}.Matches(res))
	assert.False(t, FilterSet{Semester: "5"}.Matches(res))
	assert.False(t, FilterSet{Subject: "Algorithms"}.Matches(res))
}
