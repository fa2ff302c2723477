package models

// Degrees lists the degree programmes accepted at submission time.
var Degrees = []string{
	"B.Tech",
	"BBA",
	"BBA LLB",
	"MBA",
	"BCA",
	"MCA",
	"B.Sc",
	"M.Sc",
}

// Branches maps a degree to its branch vocabulary. The branch choices shown
// to a contributor depend on the selected degree, which is also why changing
// the degree filter resets branch and subject downstream.
var Branches = map[string][]string{
	"B.Tech":  {"CSE", "Petroleum", "Mechanical", "Civil", "ECE", "EEE", "Chemical", "IT"},
	"BBA":     {"General"},
	"BBA LLB": {"General"},
	"MBA":     {"General", "Finance", "Marketing", "HR"},
	"BCA":     {"General"},
	"MCA":     {"General"},
	"B.Sc":    {"Maths", "Physics", "Chemistry", "Computer Science"},
	"M.Sc":    {"Maths", "Physics", "Chemistry", "Computer Science"},
}

// MinSemester is the lower bound of the semester range; the upper bound is
// configured per deployment.
const MinSemester = 1

// ValidDegree reports whether the degree is part of the known programmes.
func ValidDegree(degree string) bool {
	for _, d := range Degrees {
		if d == degree {
			return true
		}
	}
	return false
}

// BranchesFor returns the branch vocabulary of a degree.
func BranchesFor(degree string) []string {
	return Branches[degree]
}

// ValidSemester checks the configured positive range.
func ValidSemester(semester, maxSemester int) bool {
	return semester >= MinSemester && semester <= maxSemester
}
