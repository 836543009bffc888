package handler

import (
	"notemate/dto"
	"notemate/model"
	"notemate/repository"
	"notemate/utils"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListSubjects(c *gin.Context) {
	page, err := h.Subjects.List(c.Request.Context(), utils.PageFromQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, page)
}

func (h *Handler) SearchSubjects(c *gin.Context) {
	subjects, err := h.Subjects.Search(c.Request.Context(), repository.SubjectSearch{
		Query:      c.Query("q"),
		Department: c.Query("department"),
		Difficulty: model.Difficulty(c.Query("difficulty")),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, subjects)
}

func (h *Handler) GetSubject(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	subject, err := h.Subjects.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, subject)
}

func (h *Handler) SubjectNotes(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	page, err := h.Notes.BySubject(c.Request.Context(), id, utils.PageFromQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, page)
}

func (h *Handler) CreateSubject(c *gin.Context) {
	var req dto.CreateSubjectRequest
	if !bind(c, &req) {
		return
	}
	subject, err := h.Subjects.Create(c.Request.Context(), actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Created(c, "Subject created successfully", subject)
}

func (h *Handler) UpdateSubject(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateSubjectRequest
	if !bind(c, &req) {
		return
	}
	subject, err := h.Subjects.Update(c.Request.Context(), actor(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessMessage(c, "Subject updated successfully", subject)
}

func (h *Handler) DeleteSubject(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.Subjects.Delete(c.Request.Context(), actor(c), id); err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessMessage(c, "Subject deleted successfully", nil)
}
