package service

import (
	"sort"
	"sync"

	"github.com/studystack/studystack-api/internal/models"
)

// ApplyFilters narrows rows to those matching every set field of the filter,
// preserving the incoming order. An empty filter returns the rows unchanged.
func ApplyFilters(rows []models.Resource, filters models.FilterSet) []models.Resource {
	if filters.Empty() {
		return rows
	}
	out := make([]models.Resource, 0, len(rows))
	for _, r := range rows {
		if filters.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// DistinctSubjects returns the unique subject values of rows, sorted
// ascending, for populating the subject filter dropdown.
func DistinctSubjects(rows []models.Resource) []string {
	seen := make(map[string]struct{}, len(rows))
	subjects := make([]string, 0, len(rows))
	for _, r := range rows {
		if r.Subject == "" {
			continue
		}
		if _, ok := seen[r.Subject]; ok {
			continue
		}
		seen[r.Subject] = struct{}{}
		subjects = append(subjects, r.Subject)
	}
	sort.Strings(subjects)
	return subjects
}

// BrowseView is the stateful browsing session for one category: a live
// snapshot fed by a catalog subscription plus the user's current filter
// selection. Filter changes cascade downstream so the selection can never
// contradict itself: picking a degree invalidates branch and subject, picking
// a branch invalidates subject.
type BrowseView struct {
	mu          sync.Mutex
	snapshot    []models.Resource
	filters     models.FilterSet
	unsubscribe func()
}

// NewBrowseView opens a live view over one category. Close releases the
// subscription.
func NewBrowseView(catalog *CatalogService, resourceType models.ResourceType) *BrowseView {
	v := &BrowseView{}
	v.unsubscribe = catalog.SubscribeApproved(resourceType, v.replace)
	return v
}

func (v *BrowseView) replace(snapshot []models.Resource) {
	v.mu.Lock()
	v.snapshot = snapshot
	v.mu.Unlock()
}

// Resources returns the visible rows: the current snapshot narrowed by the
// active filters, newest first as delivered.
func (v *BrowseView) Resources() []models.Resource {
	v.mu.Lock()
	defer v.mu.Unlock()
	return ApplyFilters(v.snapshot, v.filters)
}

// Subjects returns the filter vocabulary derived from the full snapshot.
func (v *BrowseView) Subjects() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return DistinctSubjects(v.snapshot)
}

// Filters returns a copy of the active selection.
func (v *BrowseView) Filters() models.FilterSet {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.filters
}

// SetDegree selects a degree and resets the dependent branch and subject
// choices.
func (v *BrowseView) SetDegree(degree string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.filters.Degree = degree
	v.filters.Branch = ""
	v.filters.Subject = ""
}

// SetBranch selects a branch and resets the dependent subject choice.
func (v *BrowseView) SetBranch(branch string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.filters.Branch = branch
	v.filters.Subject = ""
}

// SetSemester selects a semester. The value is kept as entered; matching is
// textual against the stored semester number.
func (v *BrowseView) SetSemester(semester string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.filters.Semester = semester
}

// SetSubject selects a subject.
func (v *BrowseView) SetSubject(subject string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.filters.Subject = subject
}

// ClearFilters resets the selection to show the full snapshot.
func (v *BrowseView) ClearFilters() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.filters = models.FilterSet{}
}

// Close releases the underlying subscription. Safe to call more than once.
func (v *BrowseView) Close() {
	if v.unsubscribe != nil {
		v.unsubscribe()
	}
}
