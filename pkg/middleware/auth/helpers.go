package middleware

import (
	"errors"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

var ErrNoUser = errors.New("unauthorized")

// UserID reads the subject stored by RequireAuth.
func UserID(c echo.Context) (uuid.UUID, error) {
	s, ok := c.Get(CtxUserID).(string)
	if !ok || s == "" {
		return uuid.Nil, ErrNoUser
	}

	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, ErrNoUser
	}
	return id, nil
}
