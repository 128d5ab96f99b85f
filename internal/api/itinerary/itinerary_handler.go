package itinerary

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
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
	GenerateItinerary(w http.ResponseWriter, r *http.Request)
	SaveItinerary(w http.ResponseWriter, r *http.Request)
	ListItineraries(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	logger  *slog.Logger
	service Service
	store   Store
}

func NewHandler(service Service, store Store, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		logger:  logger,
		service: service,
		store:   store,
	}
}

// GenerateItinerary godoc
// @Summary      Generate a travel itinerary
// @Description  Builds a day-by-day plan from the places stored for a destination
// @Tags         Itinerary
// @Accept       json
// @Produce      json
// @Param        request body types.ItineraryRequest true "Itinerary request"
// @Success      200 {object} types.ItineraryResponse
// @Failure      400 {object} types.Response "Bad Request"
// @Router       /itinerary/generate [post]
func (h *HandlerImpl) GenerateItinerary(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "GenerateItinerary", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/itinerary/generate"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "GenerateItinerary"))

	var req types.ItineraryRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Invalid itinerary request", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Bad request")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateRequest(req); err != nil {
		span.SetStatus(codes.Error, "Validation failed")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	span.SetAttributes(
		attribute.String("destination", req.Destination),
		attribute.Int("num_days", req.NumDays),
	)

	resp := h.service.Generate(ctx, req)
	span.SetStatus(codes.Ok, "Itinerary generated")
	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}

func validateRequest(req types.ItineraryRequest) error {
	if strings.TrimSpace(req.Destination) == "" {
		return fmt.Errorf("destination is required")
	}
	if req.NumDays < MinDays || req.NumDays > MaxDays {
		return fmt.Errorf("num_days must be between %d and %d", MinDays, MaxDays)
	}
	if (req.UserLat == nil) != (req.UserLon == nil) {
		return fmt.Errorf("user_lat and user_lon must be provided together")
	}
	return nil
}

// SaveItinerary godoc
// @Summary      Save an itinerary for a chat session
// @Tags         Itinerary
// @Accept       json
// @Produce      json
// @Param        request body types.ItinerarySaveRequest true "Itinerary to save"
// @Success      200 {object} types.ItinerarySaveResponse
// @Failure      400 {object} types.Response "Bad Request"
// @Router       /chat/itinerary/save [post]
func (h *HandlerImpl) SaveItinerary(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "SaveItinerary")
	defer span.End()

	l := h.logger.With(slog.String("handler", "SaveItinerary"))

	var req types.ItinerarySaveRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Invalid save request", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Bad request")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if userID, ok := appMiddleware.GetUserIDFromContext(ctx); ok && strings.TrimSpace(req.SessionID) == "" {
		req.SessionID = userID
	}

	saved, err := h.store.Save(ctx, req.SessionID, req.Title, req.Content, req.Places)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Save failed")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	l.InfoContext(ctx, "Itinerary saved", slog.String("session_id", req.SessionID), slog.String("itinerary_id", saved.ID))
	span.SetStatus(codes.Ok, "Itinerary saved")
	api.WriteJSONResponse(w, r, http.StatusOK, types.ItinerarySaveResponse{
		Success:     true,
		Message:     "Itinerary saved successfully",
		ItineraryID: saved.ID,
	})
}

// ListItineraries godoc
// @Summary      List the itineraries saved for a chat session
// @Tags         Itinerary
// @Produce      json
// @Param        session_id path string true "Chat session id"
// @Success      200 {object} types.ItineraryListResponse
// @Router       /chat/itinerary/list/{session_id} [get]
func (h *HandlerImpl) ListItineraries(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "ListItineraries")
	defer span.End()

	sessionID := chi.URLParam(r, "session_id")
	span.SetAttributes(attribute.String("session_id", sessionID))

	api.WriteJSONResponse(w, r, http.StatusOK, types.ItineraryListResponse{
		Success:     true,
		Itineraries: h.store.List(ctx, sessionID),
	})
}
