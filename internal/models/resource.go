package models

import (
	"strconv"
	"strings"
	"time"
)

// ResourceType partitions the catalog for browsing.
type ResourceType string

const (
	ResourceTypePYQs        ResourceType = "pyqs"
	ResourceTypeNotes       ResourceType = "notes"
	ResourceTypeAssignments ResourceType = "assignments"
	ResourceTypeSolutions   ResourceType = "solutions"
)

// ResourceTypes lists the closed set of valid categories.
var ResourceTypes = []ResourceType{
	ResourceTypePYQs,
	ResourceTypeNotes,
	ResourceTypeAssignments,
	ResourceTypeSolutions,
}

// Valid reports whether the value belongs to the closed category set.
func (t ResourceType) Valid() bool {
	for _, known := range ResourceTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ResourceTypeNames renders the category set for validation messages.
func ResourceTypeNames() string {
	names := make([]string, len(ResourceTypes))
	for i, t := range ResourceTypes {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

// Resource represents a classified, moderatable record pointing at an
// uploaded PDF. Records are created pending (approved=false) and flipped by
// a moderator; they are never physically deleted here.
type Resource struct {
	ID              string       `db:"id" json:"id"`
	Title           string       `db:"title" json:"title"`
	Degree          string       `db:"degree" json:"degree"`
	Branch          string       `db:"branch" json:"branch"`
	Semester        int          `db:"semester" json:"semester"`
	Subject         string       `db:"subject" json:"subject"`
	ResourceType    ResourceType `db:"resource_type" json:"resourceType"`
	PDFURL          string       `db:"pdf_url" json:"pdfUrl"`
	FileName        string       `db:"file_name" json:"fileName"`
	FileKey         string       `db:"file_key" json:"-"`
	SubmittedBy     *string      `db:"submitted_by" json:"submittedBy,omitempty"`
	Approved        bool         `db:"approved" json:"approved"`
	CreatedAt       time.Time    `db:"created_at" json:"createdAt"`
	AdminApprovedAt *time.Time   `db:"admin_approved_at" json:"adminApprovedAt,omitempty"`
}

// DisplayTitle falls back to the file name when no title was derived.
func (r Resource) DisplayTitle() string {
	if r.Title != "" {
		return r.Title
	}
	return r.FileName
}

// FilterSet holds the client-side filter predicates. Empty fields impose no
// constraint; semester is held in its canonical string form.
type FilterSet struct {
	Degree   string `json:"degree"`
	Branch   string `json:"branch"`
	Semester string `json:"semester"`
	Subject  string `json:"subject"`
}

// Empty reports whether no predicate is set.
func (f FilterSet) Empty() bool {
	return f.Degree == "" && f.Branch == "" && f.Semester == "" && f.Subject == ""
}

// Matches reports whether the resource satisfies every non-empty predicate.
func (f FilterSet) Matches(r Resource) bool {
	if f.Degree != "" && r.Degree != f.Degree {
		return false
	}
	if f.Branch != "" && r.Branch != f.Branch {
		return false
	}
	if f.Semester != "" && strconv.Itoa(r.Semester) != f.Semester {
		return false
	}
	if f.Subject != "" && r.Subject != f.Subject {
		return false
	}
	return true
}

// FallbackResources returns the static sample set served when the backing
// store is unreachable. Public browsing must always render something, so the
// set is non-empty and tagged with the requested category.
func FallbackResources(resourceType ResourceType) []Resource {
	now := time.Now().UTC()
	return []Resource{
		{
			ID:           "fallback-1",
			Title:        "Sample PYQ 2023",
			Degree:       "B.Tech",
			Branch:       "CSE",
			Semester:     3,
			Subject:      "Data Structures",
			ResourceType: resourceType,
			PDFURL:       "https://www.w3.org/WAI/ER/tests/xhtml/testfiles/resources/pdf/dummy.pdf",
			FileName:     "sample.pdf",
			Approved:     true,
			CreatedAt:    now,
		},
		{
			ID:           "fallback-2",
			Title:        "Introduction to Algorithms Notes",
			Degree:       "B.Tech",
			Branch:       "CSE",
			Semester:     4,
			Subject:      "Algorithms",
			ResourceType: resourceType,
			PDFURL:       "https://www.w3.org/WAI/ER/tests/xhtml/testfiles/resources/pdf/dummy.pdf",
			FileName:     "algorithms-notes.pdf",
			Approved:     true,
			CreatedAt:    now,
		},
	}
}
