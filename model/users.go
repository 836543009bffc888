package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	}
	return false
}

const DefaultAvatar = "default-avatar.png"

type User struct {
	ID                   primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Name                 string               `bson:"name" json:"name"`
	Email                string               `bson:"email" json:"email"`
	Password             string               `bson:"password" json:"-"` // bcrypt hash
	Role                 Role                 `bson:"role" json:"role"`
	Avatar               string               `bson:"avatar" json:"avatar"`
	University           string               `bson:"university,omitempty" json:"university,omitempty"`
	Course               string               `bson:"course,omitempty" json:"course,omitempty"`
	Year                 int                  `bson:"year,omitempty" json:"year,omitempty"`
	Bio                  string               `bson:"bio,omitempty" json:"bio,omitempty"`
	Reputation           int                  `bson:"reputation" json:"reputation"`
	UploadedNotes        []primitive.ObjectID `bson:"uploadedNotes" json:"uploadedNotes"`
	SavedNotes           []primitive.ObjectID `bson:"savedNotes" json:"savedNotes"`
	Followers            []primitive.ObjectID `bson:"followers" json:"-"`
	Following            []primitive.ObjectID `bson:"following" json:"-"`
	IsEmailVerified      bool                 `bson:"isEmailVerified" json:"isEmailVerified"`
	PasswordResetToken   string               `bson:"passwordResetToken,omitempty" json:"-"` // sha256 of the mailed token
	PasswordResetExpires *time.Time           `bson:"passwordResetExpires,omitempty" json:"-"`
	TwoFactorEnabled     bool                 `bson:"twoFactorEnabled" json:"twoFactorEnabled"`
	TwoFactorSecret      string               `bson:"twoFactorSecret,omitempty" json:"-"`
	TwoFactorRecovery    []string             `bson:"twoFactorRecoveryCodes,omitempty" json:"-"` // sha256 hashes
	LastLogin            *time.Time           `bson:"lastLogin,omitempty" json:"lastLogin,omitempty"`
	LastLoginClient      string               `bson:"lastLoginClient,omitempty" json:"-"`
	IsActive             bool                 `bson:"isActive" json:"isActive"`
	CreatedAt            time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt            time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// NewUser returns a user with the schema defaults applied.
func NewUser(name, email string, role Role) *User {
	if !role.Valid() {
		role = RoleStudent
	}
	now := time.Now().UTC()
	return &User{
		Name:          name,
		Email:         email,
		Role:          role,
		Avatar:        DefaultAvatar,
		UploadedNotes: []primitive.ObjectID{},
		SavedNotes:    []primitive.ObjectID{},
		Followers:     []primitive.ObjectID{},
		Following:     []primitive.ObjectID{},
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// UserSummary is the populated form of a user reference.
type UserSummary struct {
	ID         primitive.ObjectID `bson:"_id" json:"_id"`
	Name       string             `bson:"name" json:"name"`
	Avatar     string             `bson:"avatar" json:"avatar"`
	Reputation int                `bson:"reputation" json:"reputation"`
	University string             `bson:"university,omitempty" json:"university,omitempty"`
	Course     string             `bson:"course,omitempty" json:"course,omitempty"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:         u.ID,
		Name:       u.Name,
		Avatar:     u.Avatar,
		Reputation: u.Reputation,
		University: u.University,
		Course:     u.Course,
	}
}

type UserStats struct {
	NotesCount     int64   `bson:"notesCount" json:"notesCount"`
	TotalViews     int64   `bson:"totalViews" json:"totalViews"`
	TotalDownloads int64   `bson:"totalDownloads" json:"totalDownloads"`
	TotalLikes     int64   `bson:"totalLikes" json:"totalLikes"`
	AverageRating  float64 `bson:"averageRating" json:"averageRating"`
	Reputation     int     `bson:"-" json:"reputation"`
	FollowersCount int     `bson:"-" json:"followersCount"`
	FollowingCount int     `bson:"-" json:"followingCount"`
}
