package dto

import (
	"strings"

	"notemate/model"
	"notemate/utils"
)

type CreateSubjectRequest struct {
	Name          string           `json:"name" binding:"required,min=2,max=100"`
	Code          string           `json:"code" binding:"required,min=2,max=20"`
	Description   string           `json:"description" binding:"omitempty,max=500"`
	Department    string           `json:"department" binding:"required,min=2,max=100"`
	Faculty       string           `json:"faculty" binding:"omitempty,max=100"`
	Credits       int              `json:"credits" binding:"omitempty,min=1,max=10"`
	Semester      int              `json:"semester" binding:"omitempty,min=1,max=12"`
	Year          int              `json:"year" binding:"omitempty,min=1,max=6"`
	Difficulty    model.Difficulty `json:"difficulty" binding:"omitempty,oneof=beginner intermediate advanced"`
	Tags          []string         `json:"tags" binding:"omitempty,dive,max=30"`
	Prerequisites []string         `json:"prerequisites" binding:"omitempty,dive,objectid"`
	Icon          string           `json:"icon" binding:"omitempty,max=10"`
	Color         string           `json:"color" binding:"omitempty,hexcolor"`
}

func (r *CreateSubjectRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Code = strings.ToUpper(strings.TrimSpace(r.Code))
	r.Description = strings.TrimSpace(r.Description)
	r.Department = strings.TrimSpace(r.Department)
	r.Faculty = strings.TrimSpace(r.Faculty)
	r.Tags = NormalizeTags(r.Tags)
}

type UpdateSubjectRequest struct {
	Name          *string           `json:"name" binding:"omitempty,min=2,max=100"`
	Code          *string           `json:"code" binding:"omitempty,min=2,max=20"`
	Description   *string           `json:"description" binding:"omitempty,max=500"`
	Department    *string           `json:"department" binding:"omitempty,min=2,max=100"`
	Faculty       *string           `json:"faculty" binding:"omitempty,max=100"`
	Credits       *int              `json:"credits" binding:"omitempty,min=1,max=10"`
	Semester      *int              `json:"semester" binding:"omitempty,min=1,max=12"`
	Year          *int              `json:"year" binding:"omitempty,min=1,max=6"`
	Difficulty    *model.Difficulty `json:"difficulty" binding:"omitempty,oneof=beginner intermediate advanced"`
	Tags          []string          `json:"tags" binding:"omitempty,dive,max=30"`
	Prerequisites []string          `json:"prerequisites" binding:"omitempty,dive,objectid"`
	Icon          *string           `json:"icon" binding:"omitempty,max=10"`
	Color         *string           `json:"color" binding:"omitempty,hexcolor"`
}

func (r *UpdateSubjectRequest) Normalize() {
	trim(r.Name)
	if r.Code != nil {
		*r.Code = strings.ToUpper(strings.TrimSpace(*r.Code))
	}
	trim(r.Description)
	trim(r.Department)
	trim(r.Faculty)
	if r.Tags != nil {
		r.Tags = NormalizeTags(r.Tags)
	}
}

// SubjectDetail is a subject with its prerequisites populated.
type SubjectDetail struct {
	model.Subject
	Prerequisites []model.SubjectRef `json:"prerequisites"`
}

type SubjectsPage struct {
	Subjects   []model.Subject  `json:"subjects"`
	Pagination utils.Pagination `json:"pagination"`
}
