package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/cleaning-api/internal/model"
	apperrors "github.com/jwalitptl/cleaning-api/pkg/errors"
	"github.com/jwalitptl/cleaning-api/pkg/httputil"
	"github.com/jwalitptl/cleaning-api/pkg/validator"
)

// BindJSON decodes the body into req and validates it. On failure it has
// already written a 400 and returns false.
func BindJSON(c *gin.Context, v validator.Validator, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request body", err))
		return false
	}
	if err := v.Validate(req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("validation failed", err))
		return false
	}
	return true
}

func UUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid "+name, err))
		return uuid.Nil, false
	}
	return id, true
}

func IDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid "+name, err))
		return 0, false
	}
	return id, true
}

// Page reads page and page_size query parameters.
func Page(c *gin.Context) (model.Pagination, bool) {
	var p model.Pagination
	if err := c.ShouldBindQuery(&p); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid pagination", err))
		return p, false
	}
	return p.Normalize(), true
}

// OptionalUUIDQuery parses an optional uuid query parameter.
func OptionalUUIDQuery(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid "+name, err))
		return nil, false
	}
	return &id, true
}
