package handler_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"notemate/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type noteData struct {
	ID       string           `json:"_id"`
	Title    string           `json:"title"`
	Views    int64            `json:"views"`
	Files    []model.FileMeta `json:"files"`
	Likes    []string         `json:"likes"`
	Featured bool             `json:"isFeatured"`
	Verified bool             `json:"isVerified"`
}

type notesPage struct {
	Notes []struct {
		ID     string `json:"_id"`
		Title  string `json:"title"`
		Author struct {
			Name string `json:"name"`
		} `json:"author"`
		Subject struct {
			Code string `json:"code"`
		} `json:"subject"`
	} `json:"notes"`
	Pagination struct {
		Current int   `json:"current"`
		Pages   int64 `json:"pages"`
		Total   int64 `json:"total"`
		Limit   int   `json:"limit"`
	} `json:"pagination"`
}

func createNote(t *testing.T, f *fixture, token string, subject *model.Subject, title string) noteData {
	t.Helper()
	var note noteData
	decode(t, f.do(t, http.MethodPost, "/api/notes", map[string]interface{}{
		"title":       title,
		"description": "Lecture notes about " + title,
		"subject":     subject.ID.Hex(),
		"tags":        []string{" algorithms", "algorithms"},
		"type":        "lecture",
	}, token), http.StatusCreated, &note)
	return note
}

func TestCreateNoteEndpoint(t *testing.T) {
	f := newFixture(t)
	_, token := f.user(t, "Jane Doe", model.RoleStudent)
	subject := f.subject(t, "CS201")

	decode(t, f.do(t, http.MethodPost, "/api/notes", map[string]string{"title": "AVL Trees"}, ""), http.StatusUnauthorized, nil)

	env := decode(t, f.do(t, http.MethodPost, "/api/notes", map[string]string{
		"title": "AVL", "description": "short", "subject": "nope",
	}, token), http.StatusBadRequest, nil)
	assert.Equal(t, "Validation failed", env.Message)
	assert.Len(t, env.Errors, 3)

	note := createNote(t, f, token, subject, "  AVL Trees  ")
	assert.Equal(t, "AVL Trees", note.Title)
	assert.Equal(t, int64(1), f.db.RawSubject(subject.ID).NotesCount)
}

func TestGetNoteEndpoint(t *testing.T) {
	f := newFixture(t)
	_, author := f.user(t, "Jane Doe", model.RoleStudent)
	_, reader := f.user(t, "Sam", model.RoleStudent)
	note := createNote(t, f, author, f.subject(t, "CS201"), "AVL Trees")

	var got noteData
	decode(t, f.do(t, http.MethodGet, "/api/notes/"+note.ID, nil, author), http.StatusOK, &got)
	assert.Zero(t, got.Views, "the author's own views are not counted")

	decode(t, f.do(t, http.MethodGet, "/api/notes/"+note.ID, nil, reader), http.StatusOK, &got)
	decode(t, f.do(t, http.MethodGet, "/api/notes/"+note.ID, nil, ""), http.StatusOK, &got)
	assert.Equal(t, int64(2), got.Views)

	env := decode(t, f.do(t, http.MethodGet, "/api/notes/64b7f0c2a1b2c3d4e5f60718", nil, ""), http.StatusNotFound, nil)
	assert.Equal(t, "Note not found", env.Message)
}

func TestListAndSearchEndpoints(t *testing.T) {
	f := newFixture(t)
	_, token := f.user(t, "Jane Doe", model.RoleStudent)
	cs := f.subject(t, "CS201")
	math := f.subject(t, "MATH101")
	createNote(t, f, token, cs, "AVL Trees")
	createNote(t, f, token, cs, "Red-Black Trees")
	createNote(t, f, token, math, "Limits and Continuity")

	var page notesPage
	decode(t, f.do(t, http.MethodGet, "/api/notes?page=1&limit=2", nil, ""), http.StatusOK, &page)
	assert.Len(t, page.Notes, 2)
	assert.Equal(t, int64(3), page.Pagination.Total)
	assert.Equal(t, int64(2), page.Pagination.Pages)
	assert.Equal(t, "Jane Doe", page.Notes[0].Author.Name)

	decode(t, f.do(t, http.MethodGet, "/api/notes?subject="+math.ID.Hex(), nil, ""), http.StatusOK, &page)
	require.Len(t, page.Notes, 1)
	assert.Equal(t, "MATH101", page.Notes[0].Subject.Code)

	decode(t, f.do(t, http.MethodGet, "/api/notes?difficulty=expert", nil, ""), http.StatusBadRequest, nil)
	decode(t, f.do(t, http.MethodGet, "/api/notes?subject=zzz", nil, ""), http.StatusBadRequest, nil)

	decode(t, f.do(t, http.MethodGet, "/api/notes/search?q=trees", nil, ""), http.StatusOK, &page)
	assert.Len(t, page.Notes, 2)
	decode(t, f.do(t, http.MethodGet, "/api/notes/search?q=", nil, ""), http.StatusBadRequest, nil)

	decode(t, f.do(t, http.MethodGet, "/api/subjects/"+cs.ID.Hex()+"/notes", nil, ""), http.StatusOK, &page)
	assert.Len(t, page.Notes, 2)

	decode(t, f.do(t, http.MethodGet, "/api/notes/user/my-notes", nil, ""), http.StatusUnauthorized, nil)
	decode(t, f.do(t, http.MethodGet, "/api/notes/user/my-notes", nil, token), http.StatusOK, &page)
	assert.Equal(t, int64(3), page.Pagination.Total)
}

func TestListPastLastPage(t *testing.T) {
	f := newFixture(t)
	_, token := f.user(t, "Jane Doe", model.RoleStudent)
	cs := f.subject(t, "CS201")
	createNote(t, f, token, cs, "AVL Trees")
	createNote(t, f, token, cs, "Red-Black Trees")

	var page notesPage
	decode(t, f.do(t, http.MethodGet, "/api/notes?page=5&limit=2", nil, ""), http.StatusOK, &page)
	assert.Empty(t, page.Notes)
	assert.Equal(t, int64(2), page.Pagination.Total)
	assert.Equal(t, int64(1), page.Pagination.Pages)

	for _, query := range []string{"page=92233720368547760&limit=100", "page=99999999999999999999"} {
		page = notesPage{}
		decode(t, f.do(t, http.MethodGet, "/api/notes?"+query, nil, ""), http.StatusOK, &page)
		assert.Empty(t, page.Notes, query)
		assert.Equal(t, int64(2), page.Pagination.Total, query)
	}
	decode(t, f.do(t, http.MethodGet, "/api/subjects?page=92233720368547760&limit=100", nil, ""), http.StatusOK, nil)
}

func TestUpdateAndDeleteNoteEndpoints(t *testing.T) {
	f := newFixture(t)
	_, author := f.user(t, "Jane Doe", model.RoleStudent)
	_, other := f.user(t, "Sam", model.RoleStudent)
	subject := f.subject(t, "CS201")
	note := createNote(t, f, author, subject, "AVL Trees")

	decode(t, f.do(t, http.MethodPut, "/api/notes/"+note.ID, map[string]string{"title": "AVL Trees, revised"}, other), http.StatusForbidden, nil)

	var updated noteData
	decode(t, f.do(t, http.MethodPut, "/api/notes/"+note.ID, map[string]string{"title": "AVL Trees, revised"}, author), http.StatusOK, &updated)
	assert.Equal(t, "AVL Trees, revised", updated.Title)

	decode(t, f.do(t, http.MethodDelete, "/api/notes/"+note.ID, nil, author), http.StatusOK, nil)
	decode(t, f.do(t, http.MethodGet, "/api/notes/"+note.ID, nil, ""), http.StatusNotFound, nil)
	assert.Zero(t, f.db.RawSubject(subject.ID).NotesCount)
}

func TestInteractionEndpoints(t *testing.T) {
	f := newFixture(t)
	_, author := f.user(t, "Jane Doe", model.RoleStudent)
	_, reader := f.user(t, "Sam", model.RoleStudent)
	note := createNote(t, f, author, f.subject(t, "CS201"), "AVL Trees")
	base := "/api/notes/" + note.ID

	var rating struct {
		Rating       float64 `json:"rating"`
		RatingsCount int     `json:"ratingsCount"`
	}
	decode(t, f.do(t, http.MethodPost, base+"/rate", map[string]int{"rating": 6}, reader), http.StatusBadRequest, nil)
	decode(t, f.do(t, http.MethodPost, base+"/rate", map[string]int{"rating": 4}, reader), http.StatusOK, &rating)
	assert.Equal(t, 4.0, rating.Rating)
	assert.Equal(t, 1, rating.RatingsCount)

	var reactions struct {
		LikesCount    int  `json:"likesCount"`
		DislikesCount int  `json:"dislikesCount"`
		Liked         bool `json:"liked"`
	}
	decode(t, f.do(t, http.MethodPost, base+"/like", nil, reader), http.StatusOK, &reactions)
	assert.True(t, reactions.Liked)
	decode(t, f.do(t, http.MethodPost, base+"/dislike", nil, reader), http.StatusOK, &reactions)
	assert.Zero(t, reactions.LikesCount)
	assert.Equal(t, 1, reactions.DislikesCount)
	decode(t, f.do(t, http.MethodDelete, base+"/dislike", nil, reader), http.StatusOK, &reactions)
	assert.Zero(t, reactions.DislikesCount)

	var comment struct {
		ID      string `json:"_id"`
		Text    string `json:"text"`
		Replies []struct {
			Text string `json:"text"`
		} `json:"replies"`
	}
	decode(t, f.do(t, http.MethodPost, base+"/comments", map[string]string{"text": "   "}, reader), http.StatusBadRequest, nil)
	decode(t, f.do(t, http.MethodPost, base+"/comments", map[string]string{"text": "Very clear, thanks"}, reader), http.StatusCreated, &comment)
	assert.Equal(t, "Very clear, thanks", comment.Text)

	decode(t, f.do(t, http.MethodPut, base+"/comments/"+comment.ID, map[string]string{"text": "Edited"}, author), http.StatusForbidden, nil)
	decode(t, f.do(t, http.MethodPost, base+"/comments/"+comment.ID+"/replies", map[string]string{"text": "Glad it helped"}, author), http.StatusCreated, &comment)
	require.Len(t, comment.Replies, 1)
	decode(t, f.do(t, http.MethodDelete, base+"/comments/"+comment.ID, nil, author), http.StatusOK, nil)

	decode(t, f.do(t, http.MethodPost, base+"/report", map[string]string{"reason": "spam"}, reader), http.StatusOK, nil)
	env := decode(t, f.do(t, http.MethodPost, base+"/report", map[string]string{"reason": "spam"}, reader), http.StatusConflict, nil)
	assert.Equal(t, "You have already reported this note", env.Message)
	decode(t, f.do(t, http.MethodPost, base+"/report", map[string]string{"reason": "boring"}, author), http.StatusBadRequest, nil)
}

func TestModerationEndpoints(t *testing.T) {
	f := newFixture(t)
	_, author := f.user(t, "Jane Doe", model.RoleStudent)
	_, admin := f.user(t, "Admin", model.RoleAdmin)
	note := createNote(t, f, author, f.subject(t, "CS201"), "AVL Trees")
	base := "/api/notes/" + note.ID

	decode(t, f.do(t, http.MethodPut, base+"/feature", map[string]bool{"isFeatured": true}, author), http.StatusForbidden, nil)
	decode(t, f.do(t, http.MethodPut, base+"/feature", map[string]bool{}, admin), http.StatusBadRequest, nil)

	var updated noteData
	decode(t, f.do(t, http.MethodPut, base+"/feature", map[string]bool{"isFeatured": true}, admin), http.StatusOK, &updated)
	assert.True(t, updated.Featured)
	decode(t, f.do(t, http.MethodPut, base+"/verify", map[string]bool{"isVerified": true}, admin), http.StatusOK, &updated)
	assert.True(t, updated.Verified)

	var featured []struct {
		ID string `json:"_id"`
	}
	w := f.do(t, http.MethodGet, "/api/notes/featured", nil, "")
	decode(t, w, http.StatusOK, &featured)
	require.Len(t, featured, 1)
	assert.Equal(t, note.ID, featured[0].ID)
	assert.Equal(t, "public, max-age=60", w.Header().Get("Cache-Control"))
}

type part struct {
	name    string
	content string
}

func multipartBody(t *testing.T, parts ...part) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for _, p := range parts {
		fw, err := mw.CreateFormFile("files", p.name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(p.content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func upload(t *testing.T, f *fixture, noteID, token string, parts ...part) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, parts...)
	req := httptest.NewRequest(http.MethodPost, "/api/notes/"+noteID+"/upload", body)
	req.Header.Set("Content-Type", contentType)
	return f.send(t, req, token)
}

func TestUploadAndDownloadEndpoints(t *testing.T) {
	f := newFixture(t)
	_, author := f.user(t, "Jane Doe", model.RoleStudent)
	_, other := f.user(t, "Sam", model.RoleStudent)
	note := createNote(t, f, author, f.subject(t, "CS201"), "AVL Trees")

	decode(t, upload(t, f, note.ID, other, part{"avl.txt", "rotations"}), http.StatusForbidden, nil)
	decode(t, upload(t, f, note.ID, author, part{"big.txt", strings.Repeat("x", testMaxFileSize+1)}), http.StatusRequestEntityTooLarge, nil)
	decode(t, upload(t, f, note.ID, author,
		part{"a.txt", "a"}, part{"b.txt", "b"}, part{"c.txt", "c"}, part{"d.txt", "d"},
	), http.StatusRequestEntityTooLarge, nil)
	decode(t, upload(t, f, note.ID, author), http.StatusBadRequest, nil)

	var updated noteData
	decode(t, upload(t, f, note.ID, author, part{"avl notes.txt", "left and right rotations"}), http.StatusOK, &updated)
	require.Len(t, updated.Files, 1)
	file := updated.Files[0]
	assert.Equal(t, "avl notes.txt", file.OriginalName)
	assert.Empty(t, file.Path, "storage paths stay server side")

	w := f.do(t, http.MethodGet, "/api/notes/"+note.ID+"/download/"+file.ID.Hex(), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "left and right rotations", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), `attachment; filename="avl notes.txt"`)
	noteID, err := primitive.ObjectIDFromHex(note.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), f.db.RawNote(noteID).Downloads)

	decode(t, f.do(t, http.MethodGet, "/api/notes/"+note.ID+"/download/64b7f0c2a1b2c3d4e5f60718", nil, ""), http.StatusNotFound, nil)
}
