package handler_test

import (
	"net/http"
	"testing"

	"notemate/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type subjectData struct {
	ID            string `json:"_id"`
	Name          string `json:"name"`
	Code          string `json:"code"`
	Prerequisites []struct {
		Code string `json:"code"`
	} `json:"prerequisites"`
}

func TestCreateSubjectEndpoint(t *testing.T) {
	f := newFixture(t)
	_, student := f.user(t, "Jane Doe", model.RoleStudent)
	_, teacher := f.user(t, "Prof Smith", model.RoleTeacher)
	basics := f.subject(t, "CS101")

	body := map[string]interface{}{
		"name":          "Data Structures",
		"code":          " cs201 ",
		"department":    "Computer Science",
		"prerequisites": []string{basics.ID.Hex()},
		"color":         "#3366ff",
	}
	decode(t, f.do(t, http.MethodPost, "/api/subjects", body, ""), http.StatusUnauthorized, nil)
	env := decode(t, f.do(t, http.MethodPost, "/api/subjects", body, student), http.StatusForbidden, nil)
	assert.Equal(t, "User role student is not authorized to access this route", env.Message)

	var created subjectData
	decode(t, f.do(t, http.MethodPost, "/api/subjects", body, teacher), http.StatusCreated, &created)
	assert.Equal(t, "CS201", created.Code)

	env = decode(t, f.do(t, http.MethodPost, "/api/subjects", body, teacher), http.StatusConflict, nil)
	assert.Equal(t, "Subject code already exists", env.Message)

	body["code"] = "CS301"
	body["prerequisites"] = []string{"64b7f0c2a1b2c3d4e5f60718"}
	decode(t, f.do(t, http.MethodPost, "/api/subjects", body, teacher), http.StatusBadRequest, nil)

	body["color"] = "blue"
	decode(t, f.do(t, http.MethodPost, "/api/subjects", body, teacher), http.StatusBadRequest, nil)

	var got subjectData
	decode(t, f.do(t, http.MethodGet, "/api/subjects/"+created.ID, nil, ""), http.StatusOK, &got)
	assert.Equal(t, "Data Structures", got.Name)
	require.Len(t, got.Prerequisites, 1)
	assert.Equal(t, "CS101", got.Prerequisites[0].Code)
}

func TestListAndSearchSubjectsEndpoints(t *testing.T) {
	f := newFixture(t)
	f.subject(t, "CS101")
	f.subject(t, "CS201")
	f.subject(t, "MATH101")

	var page struct {
		Subjects   []subjectData `json:"subjects"`
		Pagination struct {
			Total int64 `json:"total"`
		} `json:"pagination"`
	}
	decode(t, f.do(t, http.MethodGet, "/api/subjects?limit=2", nil, ""), http.StatusOK, &page)
	assert.Len(t, page.Subjects, 2)
	assert.Equal(t, int64(3), page.Pagination.Total)

	var found []subjectData
	decode(t, f.do(t, http.MethodGet, "/api/subjects/search?q=cs", nil, ""), http.StatusOK, &found)
	assert.Len(t, found, 2)

	decode(t, f.do(t, http.MethodGet, "/api/subjects/search?q=physics", nil, ""), http.StatusOK, &found)
	assert.Empty(t, found)
}

func TestUpdateAndDeleteSubjectEndpoints(t *testing.T) {
	f := newFixture(t)
	_, teacher := f.user(t, "Prof Smith", model.RoleTeacher)
	_, admin := f.user(t, "Admin", model.RoleAdmin)
	subject := f.subject(t, "CS201")
	f.subject(t, "CS301")
	path := "/api/subjects/" + subject.ID.Hex()

	var updated subjectData
	decode(t, f.do(t, http.MethodPut, path, map[string]string{"name": "Algorithms"}, teacher), http.StatusOK, &updated)
	assert.Equal(t, "Algorithms", updated.Name)

	decode(t, f.do(t, http.MethodPut, path, map[string]string{"code": "cs301"}, teacher), http.StatusConflict, nil)
	decode(t, f.do(t, http.MethodPut, path, map[string][]string{"prerequisites": {subject.ID.Hex()}}, teacher), http.StatusBadRequest, nil)

	decode(t, f.do(t, http.MethodDelete, path, nil, teacher), http.StatusForbidden, nil)
	decode(t, f.do(t, http.MethodDelete, path, nil, admin), http.StatusOK, nil)
	env := decode(t, f.do(t, http.MethodGet, path, nil, ""), http.StatusNotFound, nil)
	assert.Equal(t, "Subject not found", env.Message)
	decode(t, f.do(t, http.MethodGet, path+"/notes", nil, ""), http.StatusNotFound, nil)
}
