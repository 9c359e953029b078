package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Skotchmaster/storefront/pkg/errs"
	"github.com/Skotchmaster/storefront/services/storefront/internal/service"
	"github.com/Skotchmaster/storefront/services/storefront/internal/transport"
	"github.com/labstack/echo/v4"
)

func shortfallDTOs(in []service.Shortfall) []transport.ShortfallDTO {
	out := make([]transport.ShortfallDTO, 0, len(in))
	for _, s := range in {
		out = append(out, transport.ShortfallDTO{
			ProductID: s.ProductID,
			Name:      s.Name,
			Requested: s.Requested,
			Available: s.Available,
			Message:   s.Message,
		})
	}
	return out
}

// fail logs err under event and writes the mapped status with an {"error": ...} body.
func fail(c echo.Context, l *slog.Logger, event string, err error) error {
	status := errs.HTTPStatus(err)

	var se *service.StockError
	if errors.As(err, &se) {
		l.Warn(event, "status", status, "reason", "stock exceeded", "error", err)
		return c.JSON(status, transport.StockErrorResponse{
			Error:            se.Error(),
			AdjustedQuantity: se.AdjustedQuantity,
			AvailableStock:   se.Available,
			CurrentQuantity:  se.InCart,
			StockErrors:      shortfallDTOs(se.Shortfalls),
		})
	}

	if status >= http.StatusInternalServerError {
		l.Error(event, "status", status, "error", err)
	} else {
		l.Warn(event, "status", status, "error", err)
	}
	return c.JSON(status, transport.ErrorResponse{Error: errs.Reason(err)})
}

func badRequest(c echo.Context, l *slog.Logger, event, msg string, err error) error {
	l.Warn(event, "status", http.StatusBadRequest, "reason", msg, "error", err)
	return c.JSON(http.StatusBadRequest, transport.ErrorResponse{Error: msg})
}
