package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/campo-social/notification/internal/application"
	"github.com/campo-social/notification/internal/domain"
)

// Handler holds all HTTP handler methods.
type Handler struct {
	svc *application.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *application.Service) *Handler {
	return &Handler{svc: svc}
}

// CreateNotification POST /notifications
func (h *Handler) CreateNotification(c echo.Context) error {
	var req application.CreateRequest
	if err := c.Bind(&req); err != nil {
		return httpError(c, domain.E(domain.CodeInvalidArgument, "malformed request body"))
	}
	req.FromUserID, req.FromUserName = claimsFrom(c)

	res, err := h.svc.Create(c.Request().Context(), req)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// CreateBulk POST /notifications/bulk
func (h *Handler) CreateBulk(c echo.Context) error {
	var req application.BulkRequest
	if err := c.Bind(&req); err != nil {
		return httpError(c, domain.E(domain.CodeInvalidArgument, "malformed request body"))
	}
	req.FromUserID, req.FromUserName = claimsFrom(c)

	res, err := h.svc.CreateBulk(c.Request().Context(), req)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Stats GET /notifications/stats
func (h *Handler) Stats(c echo.Context) error {
	userID, _ := claimsFrom(c)

	res, err := h.svc.Stats(c.Request().Context(), userID)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// ListNotifications GET /notifications
func (h *Handler) ListNotifications(c echo.Context) error {
	userID, _ := claimsFrom(c)

	filter := domain.NotificationFilter{
		ToUserID: userID,
		Limit:    parseIntQuery(c, "limit", 20),
		Offset:   parseIntQuery(c, "offset", 0),
	}
	if t := c.QueryParam("type"); t != "" {
		filter.Type = domain.NotificationType(t)
	}
	if r := c.QueryParam("read"); r != "" {
		read := r == "true"
		filter.Read = &read
	}

	notifications, err := h.svc.List(c.Request().Context(), filter)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"data":   notifications,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

// GetNotification GET /notifications/:id
func (h *Handler) GetNotification(c echo.Context) error {
	userID, _ := claimsFrom(c)

	n, err := h.svc.Get(c.Request().Context(), c.Param("id"), userID)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, n)
}

// GetUnreadCount GET /notifications/unread-count
func (h *Handler) GetUnreadCount(c echo.Context) error {
	userID, _ := claimsFrom(c)

	count, err := h.svc.CountUnread(c.Request().Context(), userID)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]int64{"count": count})
}

// MarkRead PATCH /notifications/:id/read
func (h *Handler) MarkRead(c echo.Context) error {
	userID, _ := claimsFrom(c)

	if err := h.svc.MarkRead(c.Request().Context(), c.Param("id"), userID); err != nil {
		return httpError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// MarkAllRead POST /notifications/read-all
func (h *Handler) MarkAllRead(c echo.Context) error {
	userID, _ := claimsFrom(c)

	count, err := h.svc.MarkAllRead(c.Request().Context(), userID)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]int64{"marked": count})
}

// MarkClicked PATCH /notifications/:id/clicked
func (h *Handler) MarkClicked(c echo.Context) error {
	userID, _ := claimsFrom(c)

	if err := h.svc.MarkClicked(c.Request().Context(), c.Param("id"), userID); err != nil {
		return httpError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Health GET /health
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// --- Helpers ---

// httpError maps a domain error code onto an HTTP response. Internal
// details never reach the client: they are logged with the request id,
// which the client receives as a correlation reference.
func httpError(c echo.Context, err error) error {
	code := domain.CodeOf(err)
	status, ok := statusByCode[code]
	if !ok || code == domain.CodeInternal {
		requestID := c.Response().Header().Get(echo.HeaderXRequestID)
		log.Error().Err(err).Str("request_id", requestID).Msg("internal error")
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error":     "internal error",
			"reference": requestID,
		})
	}
	return c.JSON(status, map[string]string{
		"code":  string(code),
		"error": err.Error(),
	})
}

var statusByCode = map[domain.Code]int{
	domain.CodeInvalidArgument:    http.StatusBadRequest,
	domain.CodeUnauthenticated:    http.StatusUnauthorized,
	domain.CodeNotFound:           http.StatusNotFound,
	domain.CodeFailedPrecondition: http.StatusPreconditionFailed,
	domain.CodeResourceExhausted:  http.StatusTooManyRequests,
	domain.CodeInternal:           http.StatusInternalServerError,
}

func claimsFrom(c echo.Context) (userID, userName string) {
	userID, _ = c.Get("userID").(string)
	userName, _ = c.Get("userName").(string)
	return
}

func parseIntQuery(c echo.Context, key string, def int) int {
	v, err := strconv.Atoi(c.QueryParam(key))
	if err != nil || v < 0 {
		return def
	}
	return v
}
