package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCanModifyNote(t *testing.T) {
	author := &Actor{ID: primitive.NewObjectID(), Role: RoleStudent}
	other := &Actor{ID: primitive.NewObjectID(), Role: RoleTeacher}
	admin := &Actor{ID: primitive.NewObjectID(), Role: RoleAdmin}
	note := &Note{Author: author.ID}

	assert.True(t, CanModifyNote(author, note))
	assert.False(t, CanModifyNote(other, note))
	assert.True(t, CanModifyNote(admin, note))
	assert.False(t, CanModifyNote(nil, note))
}

func TestCommentPermissions(t *testing.T) {
	noteAuthor := &Actor{ID: primitive.NewObjectID(), Role: RoleStudent}
	commenter := &Actor{ID: primitive.NewObjectID(), Role: RoleStudent}
	stranger := &Actor{ID: primitive.NewObjectID(), Role: RoleTeacher}
	admin := &Actor{ID: primitive.NewObjectID(), Role: RoleAdmin}

	note := &Note{Author: noteAuthor.ID}
	comment := &Comment{ID: primitive.NewObjectID(), User: commenter.ID}

	assert.True(t, CanEditComment(commenter, comment))
	assert.False(t, CanEditComment(noteAuthor, comment))
	assert.False(t, CanEditComment(admin, comment))

	assert.True(t, CanDeleteComment(commenter, note, comment))
	assert.True(t, CanDeleteComment(noteAuthor, note, comment))
	assert.True(t, CanDeleteComment(admin, note, comment))
	assert.False(t, CanDeleteComment(stranger, note, comment))
}

func TestRoleCapabilities(t *testing.T) {
	tests := []struct {
		role          Role
		authorSubject bool
		admin         bool
	}{
		{RoleStudent, false, false},
		{RoleTeacher, true, false},
		{RoleAdmin, true, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			a := &Actor{ID: primitive.NewObjectID(), Role: tt.role}
			assert.Equal(t, tt.authorSubject, CanAuthorSubjects(a))
			assert.Equal(t, tt.admin, a.IsAdmin())
		})
	}

	assert.False(t, Role("superuser").Valid())
	assert.True(t, RoleTeacher.Valid())
}

func TestCanModifyUser(t *testing.T) {
	self := &Actor{ID: primitive.NewObjectID(), Role: RoleStudent}
	admin := &Actor{ID: primitive.NewObjectID(), Role: RoleAdmin}
	target := primitive.NewObjectID()

	assert.True(t, CanModifyUser(self, self.ID))
	assert.False(t, CanModifyUser(self, target))
	assert.True(t, CanModifyUser(admin, target))
}
