package handler

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"notemate/dto"
	"notemate/model"
	"notemate/usecase"
	"notemate/utils"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const uploadField = "files"

// noteFilter reads ?subject=&difficulty=&type=&tag=&q= from the query string.
func noteFilter(c *gin.Context) (model.NoteFilter, bool) {
	f := model.NoteFilter{
		Difficulty: model.Difficulty(c.Query("difficulty")),
		Type:       model.NoteType(c.Query("type")),
		Tag:        c.Query("tag"),
		Query:      c.Query("q"),
	}
	if raw := c.Query("subject"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			utils.BadRequest(c, "Invalid subject ID")
			return f, false
		}
		f.Subject = id
	}
	if f.Difficulty != "" && !f.Difficulty.Valid() {
		utils.BadRequest(c, "Invalid difficulty level")
		return f, false
	}
	if f.Type != "" && !f.Type.Valid() {
		utils.BadRequest(c, "Invalid note type")
		return f, false
	}
	return f, true
}

func (h *Handler) ListNotes(c *gin.Context) {
	f, ok := noteFilter(c)
	if !ok {
		return
	}
	page, err := h.Notes.List(c.Request.Context(), f, utils.PageFromQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, page)
}

func (h *Handler) SearchNotes(c *gin.Context) {
	f, ok := noteFilter(c)
	if !ok {
		return
	}
	page, err := h.Notes.Search(c.Request.Context(), f, utils.PageFromQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, page)
}

func (h *Handler) FeaturedNotes(c *gin.Context) {
	notes, err := h.Notes.Featured(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, notes)
}

func (h *Handler) MyNotes(c *gin.Context) {
	page, err := h.Notes.MyNotes(c.Request.Context(), actor(c), utils.PageFromQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, page)
}

func (h *Handler) GetNote(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	note, err := h.Notes.Get(c.Request.Context(), id, actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, note)
}

func (h *Handler) CreateNote(c *gin.Context) {
	var req dto.CreateNoteRequest
	if !bind(c, &req) {
		return
	}
	note, err := h.Notes.Create(c.Request.Context(), actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Created(c, "Note created successfully", note)
}

func (h *Handler) UpdateNote(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateNoteRequest
	if !bind(c, &req) {
		return
	}
	note, err := h.Notes.Update(c.Request.Context(), actor(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessMessage(c, "Note updated successfully", note)
}

func (h *Handler) DeleteNote(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.Notes.Delete(c.Request.Context(), actor(c), id); err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessMessage(c, "Note deleted successfully", nil)
}

func uploadsFrom(files []*multipart.FileHeader) []usecase.Upload {
	uploads := make([]usecase.Upload, len(files))
	for i, fh := range files {
		fh := fh
		uploads[i] = usecase.Upload{
			Name:     fh.Filename,
			MimeType: fh.Header.Get("Content-Type"),
			Size:     fh.Size,
			Open:     func() (io.ReadCloser, error) { return fh.Open() },
		}
	}
	return uploads
}

func (h *Handler) UploadFiles(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			utils.PayloadTooLarge(c, "File size limit exceeded")
			return
		}
		utils.BadRequest(c, "No files uploaded")
		return
	}
	defer func() { _ = form.RemoveAll() }()

	note, err := h.Notes.Upload(c.Request.Context(), actor(c), id, uploadsFrom(form.File[uploadField]))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessMessage(c, "Files uploaded successfully", note)
}

func (h *Handler) DownloadFile(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	fileID, ok := pathID(c, "fileId")
	if !ok {
		return
	}
	file, err := h.Notes.Download(c.Request.Context(), id, fileID)
	if err != nil {
		respondError(c, err)
		return
	}
	defer file.Content.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q; filename*=UTF-8''%s", file.Name, url.PathEscape(file.Name)))
	c.DataFromReader(http.StatusOK, file.Size, file.MimeType, file.Content, nil)
}

func (h *Handler) RateNote(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.RateNoteRequest
	if !bind(c, &req) {
		return
	}
	res, err := h.Notes.Rate(c.Request.Context(), actor(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessMessage(c, "Rating saved", res)
}

type reactFunc func(ctx context.Context, actor *model.Actor, id primitive.ObjectID) (*dto.Reactions, error)

// react adapts one of the like/dislike operations to a route.
func react(fn reactFunc, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		res, err := fn(c.Request.Context(), actor(c), id)
		if err != nil {
			respondError(c, err)
			return
		}
		utils.SuccessMessage(c, message, res)
	}
}

func (h *Handler) AddComment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.CommentRequest
	if !bind(c, &req) {
		return
	}
	comment, err := h.Notes.AddComment(c.Request.Context(), actor(c), id, req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Created(c, "Comment added", comment)
}

func (h *Handler) UpdateComment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	commentID, ok := pathID(c, "commentId")
	if !ok {
		return
	}
	var req dto.CommentRequest
	if !bind(c, &req) {
		return
	}
	comment, err := h.Notes.UpdateComment(c.Request.Context(), actor(c), id, commentID, req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessMessage(c, "Comment updated", comment)
}

func (h *Handler) DeleteComment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	commentID, ok := pathID(c, "commentId")
	if !ok {
		return
	}
	if err := h.Notes.DeleteComment(c.Request.Context(), actor(c), id, commentID); err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessMessage(c, "Comment deleted", nil)
}

func (h *Handler) AddReply(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	commentID, ok := pathID(c, "commentId")
	if !ok {
		return
	}
	var req dto.ReplyRequest
	if !bind(c, &req) {
		return
	}
	comment, err := h.Notes.AddReply(c.Request.Context(), actor(c), id, commentID, req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Created(c, "Reply added", comment)
}

func (h *Handler) ReportNote(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.ReportRequest
	if !bind(c, &req) {
		return
	}
	if err := h.Notes.Report(c.Request.Context(), actor(c), id, req); err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessMessage(c, "Note reported", nil)
}

func (h *Handler) VerifyNote(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.VerifyRequest
	if !bind(c, &req) {
		return
	}
	note, err := h.Notes.Verify(c.Request.Context(), actor(c), id, *req.IsVerified)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessMessage(c, "Note verification updated", note)
}

func (h *Handler) FeatureNote(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.FeatureRequest
	if !bind(c, &req) {
		return
	}
	note, err := h.Notes.Feature(c.Request.Context(), actor(c), id, *req.IsFeatured)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessMessage(c, "Note featured status updated", note)
}
