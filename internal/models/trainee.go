package models

import "time"

// Trainee is an employee eligible for enrollment.
type Trainee struct {
	ID         string    `db:"id" json:"id"`
	EmployeeNo string    `db:"employee_no" json:"employee_no"`
	FullName   string    `db:"full_name" json:"full_name"`
	Department string    `db:"department" json:"department"`
	CompanyID  string    `db:"company_id" json:"company_id"`
	Email      string    `db:"email" json:"email"`
	Active     bool      `db:"active" json:"active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// TraineeFilter encapsulates allowed search parameters for the available
// trainee search.
type TraineeFilter struct {
	Search                  string
	Department              string
	ExcludeEnrolledInCourse string
	Page                    int
	PageSize                int
	SortBy                  string
	SortOrder               string
}

// TraineeSearchResult is the paged search response contract.
type TraineeSearchResult struct {
	Trainees    []Trainee `json:"trainees"`
	TotalCount  int       `json:"total_count"`
	HasNext     bool      `json:"has_next"`
	HasPrevious bool      `json:"has_previous"`
}
