package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/studystack/studystack-api/internal/models"
)

func sampleRows() []models.Resource {
	return []models.Resource{
		{ID: "a", Degree: "B.Tech", Branch: "CSE", Semester: 4, Subject: "Operating Systems", ResourceType: models.ResourceTypeNotes, Approved: true},
		{ID: "b", Degree: "B.Tech", Branch: "CSE", Semester: 3, Subject: "Algorithms", ResourceType: models.ResourceTypeNotes, Approved: true},
		{ID: "c", Degree: "B.Tech", Branch: "ECE", Semester: 4, Subject: "Signals", ResourceType: models.ResourceTypeNotes, Approved: true},
		{ID: "d", Degree: "MBA", Branch: "Finance", Semester: 1, Subject: "Accounting", ResourceType: models.ResourceTypeNotes, Approved: true},
	}
}

func TestApplyFiltersEmptyIsIdentity(t *testing.T) {
	rows := sampleRows()
	got := ApplyFilters(rows, models.FilterSet{})
	assert.Equal(t, rows, got)
}

func TestApplyFiltersConjunction(t *testing.T) {
	rows := sampleRows()

	got := ApplyFilters(rows, models.FilterSet{Degree: "B.Tech", Branch: "CSE"})
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[1].ID)

	got = ApplyFilters(rows, models.FilterSet{Semester: "4"})
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "c", got[1].ID)

	got = ApplyFilters(rows, models.FilterSet{Degree: "MBA", Subject: "Signals"})
	assert.Empty(t, got)
}

func TestDistinctSubjectsSortedUnique(t *testing.T) {
	rows := append(sampleRows(), models.Resource{ID: "e", Subject: "Algorithms"})
	got := DistinctSubjects(rows)
	assert.Equal(t, []string{"Accounting", "Algorithms", "Operating Systems", "Signals"}, got)
}

func TestBrowseViewCascadingReset(t *testing.T) {
	v := &BrowseView{}
	v.replace(sampleRows())

	v.SetDegree("B.Tech")
	v.SetBranch("CSE")
	v.SetSemester("4")
	v.SetSubject("Operating Systems")
	require.Len(t, v.Resources(), 1)

	v.SetBranch("ECE")
	f := v.Filters()
	assert.Equal(t, "B.Tech", f.Degree)
	assert.Equal(t, "ECE", f.Branch)
	assert.Equal(t, "4", f.Semester)
	assert.Empty(t, f.Subject)

	v.SetDegree("MBA")
	f = v.Filters()
	assert.Equal(t, "MBA", f.Degree)
	assert.Empty(t, f.Branch)
	assert.Equal(t, "4", f.Semester)
	assert.Empty(t, f.Subject)

	v.ClearFilters()
	assert.Len(t, v.Resources(), 4)
}

func TestBrowseViewFollowsLiveSnapshot(t *testing.T) {
	store := newStubStore()
	store.setApproved(models.ResourceTypeNotes, sampleRows())
	svc := NewCatalogService(store, newStubBlob(), nil, nil, nil, nil, zap.NewNop(), CatalogServiceConfig{
		PollInterval:    time.Hour,
		FallbackEnabled: false,
	})

	v := NewBrowseView(svc, models.ResourceTypeNotes)
	defer v.Close()

	assert.Eventually(t, func() bool {
		return len(v.Resources()) == 4
	}, 2*time.Second, 10*time.Millisecond)

	store.setApproved(models.ResourceTypeNotes, sampleRows()[:2])
	svc.ResourceChanged(models.ResourceTypeNotes)

	assert.Eventually(t, func() bool {
		return len(v.Resources()) == 2
	}, 2*time.Second, 10*time.Millisecond)
}
