package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/pensieri/internal/apperr"
	"github.com/starford/pensieri/internal/editor"
	"github.com/starford/pensieri/internal/export"
	"github.com/starford/pensieri/internal/models"
	"github.com/starford/pensieri/internal/prefs"
	"github.com/starford/pensieri/internal/storage"
)

// Handler holds API route handlers.
type Handler struct {
	d Deps
}

// NewHandler creates a new Handler.
func NewHandler(d Deps) *Handler {
	return &Handler{d: d}
}

// session resolves the {id} URL parameter. On failure it writes the error
// response and returns false.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*editor.Session, bool) {
	s, err := h.d.Sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get document", err)
		return nil, false
	}
	return s, true
}

// ListTopics handles GET /api/topics.
//
//	@Summary		List the topic catalog
//	@Tags			topics
//	@Produce		json
//	@Success		200	{array}	models.Topic
//	@Router			/topics [get]
func (h *Handler) ListTopics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"topics": h.d.Topics.List()})
}

// ListDocuments handles GET /api/documents.
func (h *Handler) ListDocuments(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, DocumentListResponse{Documents: h.d.Sessions.List()})
}

// CreateDocument handles POST /api/documents.
//
//	@Summary		Open a new document with one empty paragraph
//	@Tags			documents
//	@Produce		json
//	@Success		201	{object}	DocumentView
//	@Router			/documents [post]
func (h *Handler) CreateDocument(w http.ResponseWriter, _ *http.Request) {
	s := h.d.Sessions.Create()
	writeJSON(w, http.StatusCreated, s.View())
}

// ImportDocument handles POST /api/documents/import with a Markdown body.
//
//	@Summary		Open a document from Markdown with YAML frontmatter
//	@Tags			documents
//	@Accept			text/markdown
//	@Produce		json
//	@Success		201	{object}	DocumentView
//	@Failure		400	{object}	errResponse
//	@Router			/documents/import [post]
func (h *Handler) ImportDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return
	}
	doc, err := export.Parse(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	s := h.d.Sessions.Import(*doc)
	writeJSON(w, http.StatusCreated, s.View())
}

// GetDocument handles GET /api/documents/{id}.
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

// DeleteDocument handles DELETE /api/documents/{id}.
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := h.d.Sessions.Delete(chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete document", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportDocument handles GET /api/documents/{id}/export.
//
//	@Summary		Export a document as Markdown
//	@Tags			documents
//	@Produce		text/markdown
//	@Success		200	{string}	string
//	@Failure		404	{object}	errResponse
//	@Router			/documents/{id}/export [get]
func (h *Handler) ExportDocument(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	out, err := export.Render(s.Export())
	if err != nil {
		writeError(w, "export document", err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.md"`, s.ID()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

// DocumentEvents handles GET /api/documents/{id}/events.
func (h *Handler) DocumentEvents(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.d.Events.Stream(w, r, s.ID())
}

// SetTitle handles PUT /api/documents/{id}/title.
func (h *Handler) SetTitle(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req TitleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s.SetTitle(req.Title)
	writeJSON(w, http.StatusOK, s.View())
}

// SetTopic handles PUT /api/documents/{id}/topic.
func (h *Handler) SetTopic(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req TopicRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.SetTopic(req.Topic); err != nil {
		writeError(w, "set topic", err)
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

// AddTag handles POST /api/documents/{id}/tags.
func (h *Handler) AddTag(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req TagRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Tag) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("tag is required"))
		return
	}
	if !s.AddTag(req.Tag) {
		writeJSON(w, http.StatusConflict, errorBody("tag already present"))
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

// TagKey handles POST /api/documents/{id}/tags/key.
func (h *Handler) TagKey(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req TagKeyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, s.TagKey(req.Key, req.Input))
}

// RemoveTag handles DELETE /api/documents/{id}/tags/{tag}.
func (h *Handler) RemoveTag(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	tag, err := url.PathUnescape(chi.URLParam(r, "tag"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid tag"))
		return
	}
	if !s.RemoveTag(tag) {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

// UploadCover handles PUT /api/documents/{id}/cover. It accepts either a
// multipart form with a "file" field or a JSON body with a data URI.
//
//	@Summary		Set the cover image
//	@Tags			documents
//	@Accept			multipart/form-data,json
//	@Produce		json
//	@Success		200	{object}	CoverResponse
//	@Failure		400	{object}	errResponse
//	@Router			/documents/{id}/cover [put]
func (h *Handler) UploadCover(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	data, ok := readCover(w, r)
	if !ok {
		return
	}
	meta, err := storage.PutImage(h.d.Blobs, data)
	if err != nil {
		writeError(w, "store cover", err)
		return
	}
	s.SetCover(meta.Name)
	writeJSON(w, http.StatusOK, CoverResponse{BlobMeta: meta, URL: "/api/assets/" + meta.Name})
}

func readCover(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	limit := int64(storage.MaxImageSize)*4/3 + 4096
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(limit); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
			return nil, false
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
			return nil, false
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("failed to read file"))
			return nil, false
		}
		return data, true
	}

	var req CoverDataRequest
	if err := decodeLimited(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return nil, false
	}
	data, _, err := storage.DecodeDataURI(req.DataURI)
	if err != nil {
		writeError(w, "decode cover", err)
		return nil, false
	}
	return data, true
}

// RemoveCover handles DELETE /api/documents/{id}/cover. The blob stays in
// storage since other documents may share it.
func (h *Handler) RemoveCover(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.RemoveCover()
	writeJSON(w, http.StatusOK, s.View())
}

// ServeAsset handles GET /api/assets/*.
func (h *Handler) ServeAsset(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if !strings.HasPrefix(name, storage.CoverDir+"/") || strings.Contains(name, "..") {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid asset name"))
		return
	}
	data, err := storage.ReadImage(h.d.Blobs, name)
	if err != nil {
		writeError(w, "read asset", err)
		return
	}
	etag := `"` + strings.TrimSuffix(strings.TrimPrefix(name, storage.CoverDir+"/"), extOf(name)) + `"`
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Header().Set("ETag", etag)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// ListAssets handles GET /api/assets, the stored cover images.
func (h *Handler) ListAssets(w http.ResponseWriter, _ *http.Request) {
	list, err := storage.ListImages(h.d.Blobs)
	if err != nil {
		writeError(w, "list assets", err)
		return
	}
	out := make([]CoverResponse, len(list))
	for i, m := range list {
		out[i] = CoverResponse{BlobMeta: m, URL: "/api/assets/" + m.Name}
	}
	writeJSON(w, http.StatusOK, AssetListResponse{Assets: out})
}

// DeleteAsset handles DELETE /api/assets/*. Covers shown by an open document
// are kept and answer 409.
func (h *Handler) DeleteAsset(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if strings.Contains(name, "..") {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid asset name"))
		return
	}
	if h.d.Sessions.CoverInUse(name) {
		writeJSON(w, http.StatusConflict, errorBody("asset is in use"))
		return
	}
	if err := storage.DeleteImage(h.d.Blobs, name); err != nil {
		writeError(w, "delete asset", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func extOf(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i:]
	}
	return ""
}

// GetPreferences handles GET /api/preferences.
func (h *Handler) GetPreferences(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.d.Prefs.Preferences())
}

// UpdatePreferences handles PATCH /api/preferences.
//
//	@Summary		Change theme, reading intensity or the auth flag
//	@Tags			preferences
//	@Accept			json
//	@Produce		json
//	@Param			body	body		prefs.PreferencesPatch	true	"Fields to change"
//	@Success		200		{object}	models.Preferences
//	@Failure		400		{object}	errResponse
//	@Router			/preferences [patch]
func (h *Handler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var patch prefs.PreferencesPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	p, err := h.d.Prefs.UpdatePreferences(patch)
	if err != nil {
		writeError(w, "update preferences", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// GetProfile handles GET /api/profile.
func (h *Handler) GetProfile(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.d.Prefs.Profile())
}

// UpdateProfile handles PUT /api/profile.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var p models.Profile
	if !decodeJSON(w, r, &p) {
		return
	}
	out, err := h.d.Prefs.SetProfile(p)
	if err != nil {
		writeError(w, "update profile", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// ChangePassword handles POST /api/password. Validation failures come back
// as 400 with the inline form message; nothing is stored.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req prefs.PasswordChange
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		var fe *prefs.FormError
		if errors.As(err, &fe) {
			writeJSON(w, http.StatusBadRequest, errorBody(fe.Message))
			return
		}
		writeError(w, "change password", fmt.Errorf("%w: %w", apperr.ErrInvalidArgument, err))
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: prefs.MsgPasswordUpdated})
}
