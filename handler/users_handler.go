package handler

import (
	"notemate/dto"
	"notemate/model"
	"notemate/repository"
	"notemate/utils"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListUsers(c *gin.Context) {
	role := model.Role(c.Query("role"))
	if role != "" && !role.Valid() {
		utils.BadRequest(c, "Invalid role")
		return
	}
	page, err := h.Users.List(c.Request.Context(), actor(c), repository.UserFilter{
		Role:   role,
		Search: c.Query("search"),
	}, utils.PageFromQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, page)
}

func (h *Handler) GetUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	profile, err := h.Users.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, profile)
}

func (h *Handler) UserNotes(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	page, err := h.Notes.ByAuthor(c.Request.Context(), id, utils.PageFromQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, page)
}

func (h *Handler) UserStats(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	stats, err := h.Users.Stats(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, stats)
}

func (h *Handler) UpdateUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateUserRequest
	if !bind(c, &req) {
		return
	}
	user, err := h.Users.Update(c.Request.Context(), actor(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessMessage(c, "User updated successfully", user)
}

func (h *Handler) DeleteUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.Users.Delete(c.Request.Context(), actor(c), id); err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessMessage(c, "User deleted successfully", nil)
}

func (h *Handler) FollowUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	res, err := h.Users.Follow(c.Request.Context(), actor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessMessage(c, "User followed", res)
}

func (h *Handler) UnfollowUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	res, err := h.Users.Unfollow(c.Request.Context(), actor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessMessage(c, "User unfollowed", res)
}

func (h *Handler) Followers(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	page, err := h.Users.Followers(c.Request.Context(), id, utils.PageFromQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, page)
}

func (h *Handler) Following(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	page, err := h.Users.Following(c.Request.Context(), id, utils.PageFromQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, page)
}
