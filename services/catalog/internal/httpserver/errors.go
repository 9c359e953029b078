package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/Skotchmaster/storefront/pkg/errs"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func httpError(l *slog.Logger, event string, err error) error {
	status := errs.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		l.Error(event, "status", status, "error", err)
	} else {
		l.Warn(event, "status", status, "error", err)
	}
	return echo.NewHTTPError(status, errs.Reason(err))
}

func parseID(c echo.Context, l *slog.Logger, event string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn(event, "status", http.StatusBadRequest, "reason", "id is not a uuid", "error", err)
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "id is not a uuid")
	}
	return id, nil
}
