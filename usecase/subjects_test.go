package usecase_test

import (
	"context"
	"testing"

	"notemate/dto"
	"notemate/model"
	"notemate/repository"
	"notemate/test/testutils"
	"notemate/usecase"
	"notemate/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCreateSubject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	teacher := f.user(t, "Dr. John Smith", model.RoleTeacher)
	student := f.user(t, "Jane Doe", model.RoleStudent)
	base := f.subject(t, "CS101")

	req := dto.CreateSubjectRequest{
		Name:          "Data Structures and Algorithms",
		Code:          "cs201",
		Department:    "Computer Science",
		Prerequisites: []string{base.ID.Hex()},
	}
	req.Normalize()

	_, err := f.subjects.Create(ctx, testutils.Actor(student), req)
	assertKind(t, err, usecase.KindForbidden)

	created, err := f.subjects.Create(ctx, testutils.Actor(teacher), req)
	require.NoError(t, err)
	assert.Equal(t, "CS201", created.Code)
	assert.Equal(t, model.DefaultSubjectColor, created.Color)
	require.Len(t, created.Prerequisites, 1)
	assert.Equal(t, "CS101", created.Prerequisites[0].Code)

	_, err = f.subjects.Create(ctx, testutils.Actor(teacher), req)
	assertKind(t, err, usecase.KindConflict)

	req.Code = "CS999"
	req.Prerequisites = []string{primitive.NewObjectID().Hex()}
	_, err = f.subjects.Create(ctx, testutils.Actor(teacher), req)
	assertKind(t, err, usecase.KindValidation)
}

func TestUpdateSubject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	teacher := testutils.Actor(f.user(t, "Dr. John Smith", model.RoleTeacher))
	a := f.subject(t, "CS101")
	b := f.subject(t, "CS201")

	code := "CS101"
	_, err := f.subjects.Update(ctx, teacher, b.ID, dto.UpdateSubjectRequest{Code: &code})
	assertKind(t, err, usecase.KindConflict)

	_, err = f.subjects.Update(ctx, teacher, b.ID, dto.UpdateSubjectRequest{Prerequisites: []string{b.ID.Hex()}})
	assertKind(t, err, usecase.KindValidation)

	credits := 4
	updated, err := f.subjects.Update(ctx, teacher, b.ID, dto.UpdateSubjectRequest{
		Credits:       &credits,
		Prerequisites: []string{a.ID.Hex()},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Credits)
	assert.Equal(t, "CS201", updated.Code)
	require.Len(t, updated.Prerequisites, 1)

	_, err = f.subjects.Update(ctx, teacher, primitive.NewObjectID(), dto.UpdateSubjectRequest{Credits: &credits})
	assertKind(t, err, usecase.KindNotFound)
}

func TestDeleteSubject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	teacher := testutils.Actor(f.user(t, "Dr. John Smith", model.RoleTeacher))
	admin := testutils.Actor(f.user(t, "Admin", model.RoleAdmin))
	s := f.subject(t, "CS101")

	assertKind(t, f.subjects.Delete(ctx, teacher, s.ID), usecase.KindForbidden)
	require.NoError(t, f.subjects.Delete(ctx, admin, s.ID))

	_, err := f.subjects.Get(ctx, s.ID)
	assertKind(t, err, usecase.KindNotFound)

	page, err := f.subjects.List(ctx, utils.NewPage(1, 10))
	require.NoError(t, err)
	assert.Empty(t, page.Subjects)
	assert.Zero(t, page.Pagination.Total)
}

func TestSearchSubjects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.subject(t, "CS101")
	math := model.NewSubject("Calculus I", "MATH101", "Mathematics", primitive.NewObjectID())
	math.Difficulty = model.DifficultyBeginner
	require.NoError(t, f.db.Subjects().Create(ctx, math))

	got, err := f.subjects.Search(ctx, repository.SubjectSearch{Department: "math"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "MATH101", got[0].Code)

	got, err = f.subjects.Search(ctx, repository.SubjectSearch{Difficulty: model.DifficultyAdvanced})
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = f.subjects.Search(ctx, repository.SubjectSearch{Difficulty: "expert"})
	assertKind(t, err, usecase.KindValidation)
}
