package model

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

const (
	DefaultSubjectIcon  = "📚"
	DefaultSubjectColor = "#3B82F6"
)

type Subject struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Name          string               `bson:"name" json:"name"`
	Code          string               `bson:"code" json:"code"` // stored uppercase, unique
	Description   string               `bson:"description,omitempty" json:"description,omitempty"`
	Department    string               `bson:"department" json:"department"`
	Faculty       string               `bson:"faculty,omitempty" json:"faculty,omitempty"`
	Credits       int                  `bson:"credits,omitempty" json:"credits,omitempty"`
	Semester      int                  `bson:"semester,omitempty" json:"semester,omitempty"`
	Year          int                  `bson:"year,omitempty" json:"year,omitempty"`
	Difficulty    Difficulty           `bson:"difficulty" json:"difficulty"`
	Tags          []string             `bson:"tags" json:"tags"`
	Prerequisites []primitive.ObjectID `bson:"prerequisites" json:"-"`
	Icon          string               `bson:"icon" json:"icon"`
	Color         string               `bson:"color" json:"color"`
	NotesCount    int64                `bson:"notesCount" json:"notesCount"`
	AverageRating float64              `bson:"averageRating" json:"averageRating"`
	TotalViews    int64                `bson:"totalViews" json:"totalViews"`
	IsActive      bool                 `bson:"isActive" json:"isActive"`
	CreatedBy     primitive.ObjectID   `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	CreatedAt     time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// NewSubject returns a subject with the schema defaults applied. The code is
// normalised to upper case.
func NewSubject(name, code, department string, createdBy primitive.ObjectID) *Subject {
	now := time.Now().UTC()
	return &Subject{
		Name:          name,
		Code:          strings.ToUpper(strings.TrimSpace(code)),
		Department:    department,
		Difficulty:    DifficultyIntermediate,
		Tags:          []string{},
		Prerequisites: []primitive.ObjectID{},
		Icon:          DefaultSubjectIcon,
		Color:         DefaultSubjectColor,
		IsActive:      true,
		CreatedBy:     createdBy,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// SubjectRef is the populated form of a subject reference.
type SubjectRef struct {
	ID         primitive.ObjectID `bson:"_id" json:"_id"`
	Name       string             `bson:"name" json:"name"`
	Code       string             `bson:"code" json:"code"`
	Department string             `bson:"department,omitempty" json:"department,omitempty"`
}

func (s *Subject) Ref() SubjectRef {
	return SubjectRef{ID: s.ID, Name: s.Name, Code: s.Code, Department: s.Department}
}

// SubjectCounters holds the denormalized aggregates recomputed from notes.
type SubjectCounters struct {
	NotesCount    int64   `bson:"notesCount"`
	AverageRating float64 `bson:"averageRating"`
	TotalViews    int64   `bson:"totalViews"`
}
