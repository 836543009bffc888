package model

import "go.mongodb.org/mongo-driver/bson/primitive"

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   primitive.ObjectID
	Role Role
}

func (a *Actor) IsAdmin() bool {
	return a != nil && a.Role == RoleAdmin
}

func CanModifyNote(a *Actor, n *Note) bool {
	if a == nil || n == nil {
		return false
	}
	return a.ID == n.Author || a.IsAdmin()
}

// CanEditComment allows only the comment's author.
func CanEditComment(a *Actor, c *Comment) bool {
	return a != nil && c != nil && a.ID == c.User
}

// CanDeleteComment also lets the note's author and admins moderate.
func CanDeleteComment(a *Actor, n *Note, c *Comment) bool {
	if a == nil || c == nil {
		return false
	}
	return a.ID == c.User || CanModifyNote(a, n)
}

func CanAuthorSubjects(a *Actor) bool {
	return a != nil && (a.Role == RoleTeacher || a.Role == RoleAdmin)
}

func CanModifyUser(a *Actor, target primitive.ObjectID) bool {
	return a != nil && (a.ID == target || a.IsAdmin())
}
