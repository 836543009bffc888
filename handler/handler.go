package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"notemate/middleware"
	"notemate/model"
	"notemate/usecase"
	"notemate/utils"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Handler struct {
	Notes    *usecase.NotesService
	Subjects *usecase.SubjectsService
	Users    *usecase.UsersService
	Auth     *usecase.AuthService
}

func New(notes *usecase.NotesService, subjects *usecase.SubjectsService, users *usecase.UsersService, auth *usecase.AuthService) *Handler {
	return &Handler{Notes: notes, Subjects: subjects, Users: users, Auth: auth}
}

type normalizer interface {
	Normalize()
}

// bind decodes the JSON body into req, normalizes it and then validates it,
// so length rules apply to trimmed values. On failure the response is
// already written.
func bind(c *gin.Context, req interface{}) bool {
	if err := json.NewDecoder(c.Request.Body).Decode(req); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			utils.PayloadTooLarge(c, "Request body too large")
		case errors.Is(err, io.EOF):
			utils.BadRequest(c, "Request body is required")
		default:
			utils.BadRequest(c, "Invalid request body")
		}
		return false
	}
	if n, ok := req.(normalizer); ok {
		n.Normalize()
	}
	if err := utils.Validate.Struct(req); err != nil {
		if fields, ok := utils.ValidationErrors(err); ok {
			utils.ValidationFailed(c, fields)
			return false
		}
		utils.BadRequest(c, err.Error())
		return false
	}
	return true
}

func statusFor(kind usecase.Kind) int {
	switch kind {
	case usecase.KindValidation:
		return http.StatusBadRequest
	case usecase.KindUnauthorized:
		return http.StatusUnauthorized
	case usecase.KindForbidden:
		return http.StatusForbidden
	case usecase.KindNotFound:
		return http.StatusNotFound
	case usecase.KindConflict:
		return http.StatusConflict
	case usecase.KindTooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the envelope for err. Unclassified errors are logged
// and hidden behind a generic 500.
func respondError(c *gin.Context, err error) {
	if ue, ok := usecase.AsError(err); ok {
		utils.Error(c, statusFor(ue.Kind), ue.Message)
		return
	}
	_ = c.Error(err)
	zerolog.Ctx(c.Request.Context()).Error().Err(err).Str("route", c.FullPath()).Msg("request failed")
	utils.TrackError("server", c.FullPath())
	utils.InternalError(c, "Server error")
}

// pathID parses an ObjectID route parameter, answering 400 when malformed.
func pathID(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		utils.BadRequest(c, "Invalid ID")
		return primitive.NilObjectID, false
	}
	return id, true
}

func actor(c *gin.Context) *model.Actor {
	return middleware.ActorFrom(c)
}
