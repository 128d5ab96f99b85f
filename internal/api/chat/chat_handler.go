package chat

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	appMiddleware "github.com/FACorreiaa/go-vietspot-suggestions/app/middleware"
	"github.com/FACorreiaa/go-vietspot-suggestions/internal/api"
	"github.com/FACorreiaa/go-vietspot-suggestions/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	Chat(w http.ResponseWriter, r *http.Request)
	GetConfig(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	logger  *slog.Logger
	service Service
}

func NewHandler(service Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		logger:  logger,
		service: service,
	}
}

// Chat godoc
// @Summary      Ask the travel assistant
// @Description  Classifies the message, finds matching places and writes a natural-language answer
// @Tags         Chat
// @Accept       json
// @Produce      json
// @Param        request body types.ChatRequest true "Chat message"
// @Success      200 {object} types.ChatResponse
// @Failure      400 {object} types.Response "Bad Request"
// @Router       /chat [post]
func (h *HandlerImpl) Chat(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ChatHandler").Start(r.Context(), "Chat", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/chat"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "Chat"))

	var req types.ChatRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Invalid chat request", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Bad request")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	span.SetAttributes(attribute.Int("message.length", len(req.Message)))
	if userID, ok := appMiddleware.GetUserIDFromContext(ctx); ok {
		span.SetAttributes(attribute.String("user.id", userID))
		if req.SessionID == "" {
			req.SessionID = userID
		}
	}

	resp := h.service.Chat(ctx, req)
	span.SetAttributes(attribute.String("query_type", resp.QueryType), attribute.Int("places", resp.TotalPlaces))
	span.SetStatus(codes.Ok, "Chat answered")
	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}

// GetConfig godoc
// @Summary      Ranking configuration
// @Description  Exposes the radius defaults, result counts and score weights used by chat
// @Tags         Chat
// @Produce      json
// @Success      200 {object} types.ChatConfigResponse
// @Router       /chat/config [get]
func (h *HandlerImpl) GetConfig(w http.ResponseWriter, r *http.Request) {
	api.WriteJSONResponse(w, r, http.StatusOK, h.service.Config())
}
