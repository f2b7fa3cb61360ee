package domain

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrUnknownField is returned when a field name is not part of the profile.
var ErrUnknownField = errors.New("unknown profile field")

// Profile field names as exchanged with the profile API and the page form.
const (
	FieldName       = "name"
	FieldEmail      = "email"
	FieldStudentID  = "studentID"
	FieldDiscipline = "discipline"
	FieldProgram    = "program"
	FieldCGPA       = "cgpa"
	FieldImageURL   = "imageUrl"
	FieldResumeURL  = "resumeUrl"
)

// Profile is the student profile record. Every attribute is carried as text.
type Profile struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	StudentID  string `json:"studentID"`
	Discipline string `json:"discipline"`
	Program    string `json:"program"`
	CGPA       string `json:"cgpa"`
	ImageURL   string `json:"imageUrl"`
	ResumeURL  string `json:"resumeUrl"`
}

// EmptyProfile returns the field-complete default template.
func EmptyProfile() Profile {
	return Profile{}
}

// IsComplete reports whether the four academic fields are all filled in.
func (p Profile) IsComplete() bool {
	return p.StudentID != "" && p.Discipline != "" && p.Program != "" && p.CGPA != ""
}

// Field returns the value of the named field, or an empty string for unknown names.
func (p Profile) Field(name string) string {
	if ptr := p.fieldPtr(name); ptr != nil {
		return *ptr
	}
	return ""
}

// WithField returns a copy of p with exactly one field replaced.
func (p Profile) WithField(name, value string) (Profile, error) {
	ptr := p.fieldPtr(name)
	if ptr == nil {
		return p, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	*ptr = value
	return p, nil
}

func (p *Profile) fieldPtr(name string) *string {
	switch name {
	case FieldName:
		return &p.Name
	case FieldEmail:
		return &p.Email
	case FieldStudentID:
		return &p.StudentID
	case FieldDiscipline:
		return &p.Discipline
	case FieldProgram:
		return &p.Program
	case FieldCGPA:
		return &p.CGPA
	case FieldImageURL:
		return &p.ImageURL
	case FieldResumeURL:
		return &p.ResumeURL
	default:
		return nil
	}
}

// MergeProfile overlays a raw server record on top of base. Fields the server
// omits keep the base value, null fields become empty and keys that are not
// profile fields are ignored.
func MergeProfile(base Profile, record map[string]any) Profile {
	merged := base
	for key, raw := range record {
		ptr := merged.fieldPtr(key)
		if ptr == nil {
			continue
		}
		if raw == nil {
			*ptr = ""
			continue
		}
		*ptr = stringify(raw)
	}
	return merged
}

func stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}
