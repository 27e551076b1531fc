package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"

	"github.com/starford/pensieri/internal/editor"
	"github.com/starford/pensieri/internal/prefs"
	"github.com/starford/pensieri/internal/sse"
	"github.com/starford/pensieri/internal/storage"
	"github.com/starford/pensieri/internal/textservice"
	"github.com/starford/pensieri/internal/topics"
)

// Deps are the services behind the API.
type Deps struct {
	Sessions  *editor.Registry
	Text      *textservice.Service
	Assistant *textservice.Assistant
	Topics    *topics.Catalog
	Prefs     *prefs.Store
	Blobs     storage.Provider
	Events    *sse.Broker
	// Limiter throttles calls that reach the text service; nil disables it.
	Limiter *rate.Limiter
}

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
func NewRouter(d Deps, authEnabled bool, token string) chi.Router {
	h := NewHandler(d)
	limit := RateLimit(d.Limiter)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/topics", h.ListTopics)
	r.With(limit).Post("/generate", h.Generate)

	// Cover images.
	r.Get("/assets", h.ListAssets)
	r.Get("/assets/*", h.ServeAsset)
	r.Delete("/assets/*", h.DeleteAsset)

	// Application state.
	r.Get("/preferences", h.GetPreferences)
	r.Patch("/preferences", h.UpdatePreferences)
	r.Get("/profile", h.GetProfile)
	r.Put("/profile", h.UpdateProfile)
	r.Post("/password", h.ChangePassword)

	r.Route("/documents", func(r chi.Router) {
		r.Get("/", h.ListDocuments)
		r.Post("/", h.CreateDocument)
		r.Post("/import", h.ImportDocument)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetDocument)
			r.Delete("/", h.DeleteDocument)
			r.Get("/export", h.ExportDocument)

			// Metadata.
			r.Put("/title", h.SetTitle)
			r.Put("/topic", h.SetTopic)
			r.Post("/tags", h.AddTag)
			r.Post("/tags/key", h.TagKey)
			r.Delete("/tags/{tag}", h.RemoveTag)
			r.Put("/cover", h.UploadCover)
			r.Delete("/cover", h.RemoveCover)

			// Blocks.
			r.Post("/blocks", h.InsertBlock)
			r.Delete("/blocks/{blockID}", h.DeleteBlock)
			r.Put("/blocks/{blockID}/content", h.UpdateContent)
			r.Post("/blocks/{blockID}/keys", h.HandleKey)
			r.Post("/blocks/{blockID}/focus", h.Focus)
			r.Put("/block-type", h.SetBlockType)

			// Toolbars.
			r.Put("/selection", h.SelectionChanged)
			r.Post("/format", h.Format)
			r.Post("/refine-menu", h.OpenRefineMenu)
			r.Delete("/refine-menu", h.CloseRefineMenu)
			r.Delete("/error", h.ClearError)

			// Text service.
			r.With(limit).Post("/refine", h.Refine)
			r.With(limit).Post("/titles", h.SuggestTitles)
			r.Post("/titles/select", h.SelectTitle)
			r.With(limit).Post("/reading/summary", h.ReadingSummary)
			r.With(limit).Post("/reading/ask", h.ReadingAsk)
			r.With(limit).Post("/reading/explain", h.ReadingExplain)

			if d.Events != nil {
				r.Get("/events", h.DocumentEvents)
			}
		})
	})

	if d.Events != nil {
		r.Get("/events", d.Events.ServeHTTP)
	}

	return r
}

// healthHandler answers liveness and readiness probes.
func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// MountHealth registers the unauthenticated health endpoints on r.
func MountHealth(r chi.Router) {
	r.Get("/health/live", healthHandler)
	r.Get("/health/ready", healthHandler)
}
