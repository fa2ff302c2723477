package dto

import "github.com/studystack/studystack-api/internal/models"

// SubmitResourceRequest carries the classification metadata submitted
// alongside a PDF upload.
type SubmitResourceRequest struct {
	Degree          string              `form:"degree" json:"degree" validate:"required"`
	Branch          string              `form:"branch" json:"branch" validate:"required"`
	Semester        int                 `form:"semester" json:"semester" validate:"required,min=1"`
	Subject         string              `form:"subject" json:"subject" validate:"required"`
	ResourceType    models.ResourceType `form:"resourceType" json:"resourceType" validate:"required"`
	SubmittedByName string              `form:"submittedByName" json:"submittedByName"`
}

// BrowseQuery captures the equality filter parameters of a listing request.
type BrowseQuery struct {
	Degree   string `form:"degree"`
	Branch   string `form:"branch"`
	Semester string `form:"semester"`
	Subject  string `form:"subject"`
}

// FilterSet converts the query into the view-model filter form.
func (q BrowseQuery) FilterSet() models.FilterSet {
	return models.FilterSet{
		Degree:   q.Degree,
		Branch:   q.Branch,
		Semester: q.Semester,
		Subject:  q.Subject,
	}
}
