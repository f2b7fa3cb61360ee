package domain

import (
	"errors"
	"testing"
)

func TestProfileIsComplete(t *testing.T) {
	full := Profile{StudentID: "S1", Discipline: "CS", Program: "BSc", CGPA: "8.5"}

	tests := []struct {
		name    string
		profile Profile
		want    bool
	}{
		{name: "all filled", profile: full, want: true},
		{name: "empty", profile: EmptyProfile(), want: false},
		{name: "missing student id", profile: func() Profile { p := full; p.StudentID = ""; return p }(), want: false},
		{name: "missing discipline", profile: func() Profile { p := full; p.Discipline = ""; return p }(), want: false},
		{name: "missing program", profile: func() Profile { p := full; p.Program = ""; return p }(), want: false},
		{name: "missing cgpa", profile: func() Profile { p := full; p.CGPA = ""; return p }(), want: false},
		{name: "urls do not matter", profile: func() Profile { p := full; p.ImageURL = ""; p.ResumeURL = ""; return p }(), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.profile.IsComplete(); got != tt.want {
				t.Fatalf("IsComplete() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMergeProfile(t *testing.T) {
	record := map[string]any{
		"_id":       "abc",
		"name":      "Ann",
		"studentID": "S1",
		"cgpa":      8.5,
		"resumeUrl": nil,
		"batch":     2025.0,
	}

	got := MergeProfile(EmptyProfile(), record)
	want := Profile{Name: "Ann", StudentID: "S1", CGPA: "8.5"}
	if got != want {
		t.Fatalf("MergeProfile() = %+v, want %+v", got, want)
	}
}

func TestMergeProfileKeepsBaseForAbsentFields(t *testing.T) {
	base := Profile{Name: "Ann", Email: "a@x.com"}
	got := MergeProfile(base, map[string]any{"program": "BSc"})
	if got.Name != "Ann" || got.Email != "a@x.com" || got.Program != "BSc" {
		t.Fatalf("unexpected merge result: %+v", got)
	}
}

func TestWithField(t *testing.T) {
	p := Profile{Name: "Ann"}

	updated, err := p.WithField(FieldDiscipline, "CS")
	if err != nil {
		t.Fatalf("WithField() error = %v", err)
	}
	if updated.Discipline != "CS" || updated.Name != "Ann" {
		t.Fatalf("unexpected profile: %+v", updated)
	}
	if p.Discipline != "" {
		t.Fatalf("original profile mutated: %+v", p)
	}

	if _, err := p.WithField("batch", "2024"); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestFormFieldsRequired(t *testing.T) {
	for _, f := range FormFields {
		optional := f.Name == FieldImageURL || f.Name == FieldResumeURL
		if f.Required == optional {
			t.Errorf("field %s: required = %v", f.Name, f.Required)
		}
		if _, err := EmptyProfile().WithField(f.Name, "x"); err != nil {
			t.Errorf("field %s is not a profile field: %v", f.Name, err)
		}
	}
}
