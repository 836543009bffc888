package dto

import (
	"strings"
	"time"

	"notemate/model"
	"notemate/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UpdateUserRequest is used by PUT /users/:id. Role and IsActive are only
// honoured for admins.
type UpdateUserRequest struct {
	Name       *string     `json:"name" binding:"omitempty,min=2,max=50"`
	Email      *string     `json:"email" binding:"omitempty,email"`
	University *string     `json:"university" binding:"omitempty,max=100"`
	Course     *string     `json:"course" binding:"omitempty,max=100"`
	Year       *int        `json:"year" binding:"omitempty,min=1,max=10"`
	Bio        *string     `json:"bio" binding:"omitempty,max=500"`
	Avatar     *string     `json:"avatar" binding:"omitempty,max=500"`
	Role       *model.Role `json:"role" binding:"omitempty,oneof=student teacher admin"`
	IsActive   *bool       `json:"isActive"`
}

func (r *UpdateUserRequest) Normalize() {
	trim(r.Name)
	if r.Email != nil {
		*r.Email = NormalizeEmail(*r.Email)
	}
	trim(r.University)
	trim(r.Course)
	trim(r.Bio)
	trim(r.Avatar)
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type NoteSummary struct {
	ID        primitive.ObjectID `json:"_id"`
	Title     string             `json:"title"`
	Rating    float64            `json:"rating"`
	Downloads int64              `json:"downloads"`
	CreatedAt time.Time          `json:"createdAt"`
}

// UserProfile is the public profile: the user document with uploadedNotes
// replaced by summaries of the active ones.
type UserProfile struct {
	*model.User
	UploadedNotes []NoteSummary `json:"uploadedNotes"`
}

func ToUserProfile(u *model.User, notes []model.Note) *UserProfile {
	p := &UserProfile{User: u, UploadedNotes: make([]NoteSummary, len(notes))}
	for i, n := range notes {
		p.UploadedNotes[i] = NoteSummary{
			ID: n.ID, Title: n.Title, Rating: n.Rating, Downloads: n.Downloads, CreatedAt: n.CreatedAt,
		}
	}
	return p
}

type UsersPage struct {
	Users      []model.User     `json:"users"`
	Pagination utils.Pagination `json:"pagination"`
}

type UserSummariesPage struct {
	Users      []model.UserSummary `json:"users"`
	Pagination utils.Pagination    `json:"pagination"`
}

type FollowResult struct {
	Following      bool `json:"following"`
	FollowersCount int  `json:"followersCount"`
}
