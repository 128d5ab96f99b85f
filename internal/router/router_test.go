package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingHandler struct {
	called string
}

func (h *recordingHandler) hit(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.called = name
		w.WriteHeader(http.StatusOK)
	}
}

func (h *recordingHandler) Chat(w http.ResponseWriter, r *http.Request) { h.hit("Chat")(w, r) }
func (h *recordingHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	h.hit("GetConfig")(w, r)
}
func (h *recordingHandler) GenerateItinerary(w http.ResponseWriter, r *http.Request) {
	h.hit("GenerateItinerary")(w, r)
}
func (h *recordingHandler) SaveItinerary(w http.ResponseWriter, r *http.Request) {
	h.hit("SaveItinerary")(w, r)
}
func (h *recordingHandler) ListItineraries(w http.ResponseWriter, r *http.Request) {
	h.hit("ListItineraries")(w, r)
}

func TestSetupRouter(t *testing.T) {
	h := &recordingHandler{}
	var middlewareRuns int
	count := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			middlewareRuns++
			next.ServeHTTP(w, r)
		})
	}
	r := SetupRouter(&Config{
		ChatHandler:         h,
		ItineraryHandler:    h,
		AuthMiddleware:      count,
		RateLimitMiddleware: count,
		CORSOrigins:         []string{"http://localhost:3000"},
	})

	routes := []struct {
		method, path, want string
	}{
		{http.MethodPost, "/api/v1/chat", "Chat"},
		{http.MethodGet, "/api/v1/chat/config", "GetConfig"},
		{http.MethodPost, "/api/v1/chat/itinerary/save", "SaveItinerary"},
		{http.MethodGet, "/api/v1/chat/itinerary/list/abc", "ListItineraries"},
		{http.MethodPost, "/api/v1/itinerary/generate", "GenerateItinerary"},
	}
	for _, tt := range routes {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			h.called = ""
			middlewareRuns = 0
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, h.called)
			assert.Equal(t, 2, middlewareRuns)
		})
	}

	t.Run("ping skips api middleware", func(t *testing.T) {
		middlewareRuns = 0
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
		assert.Equal(t, "pong", rec.Body.String())
		assert.Zero(t, middlewareRuns)
	})

	t.Run("unknown route", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/places", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
