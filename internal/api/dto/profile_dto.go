package dto

import "github.com/campusdesk/student-portal/internal/domain"

// FieldChangeRequest sets one field of the edit buffer.
type FieldChangeRequest struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// FormResponse echoes the edit buffer after a change.
type FormResponse struct {
	Form    domain.Profile `json:"form"`
	Editing bool           `json:"editing"`
}
