package domain

// FormField describes one input of the profile edit form.
type FormField struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Type     string `json:"type"`
	Step     string `json:"step,omitempty"`
	Min      string `json:"min,omitempty"`
	Max      string `json:"max,omitempty"`
	Required bool   `json:"required"`
}

// FormFields lists the edit form inputs in display order. Only the image
// and resume URLs are optional.
var FormFields = []FormField{
	{Name: FieldName, Label: "Full Name", Type: "text", Required: true},
	{Name: FieldEmail, Label: "Email", Type: "email", Required: true},
	{Name: FieldStudentID, Label: "Student ID", Type: "text", Required: true},
	{Name: FieldDiscipline, Label: "Discipline", Type: "text", Required: true},
	{Name: FieldProgram, Label: "Program", Type: "text", Required: true},
	{Name: FieldCGPA, Label: "CGPA", Type: "number", Step: "0.01", Min: "0", Max: "10", Required: true},
	{Name: FieldImageURL, Label: "Profile Image URL", Type: "url"},
	{Name: FieldResumeURL, Label: "Resume URL", Type: "url"},
}
