package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/pensieri/internal/blockdoc"
	"github.com/starford/pensieri/internal/models"
	"github.com/starford/pensieri/internal/textservice"
	"github.com/starford/pensieri/internal/toolbar"
)

// InsertBlock handles POST /api/documents/{id}/blocks. Unknown anchors are
// ignored by the block model and answered with 404.
func (h *Handler) InsertBlock(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req InsertBlockRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	tag := models.TagParagraph
	if req.Tag != "" {
		if tag, ok = models.ParseTag(req.Tag); !ok {
			writeJSON(w, http.StatusBadRequest, errorBody("unknown block type"))
			return
		}
	}
	id, ok := s.InsertBlock(req.After, tag)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("block not found"))
		return
	}
	writeJSON(w, http.StatusCreated, InsertBlockResponse{ID: id})
}

// DeleteBlock handles DELETE /api/documents/{id}/blocks/{blockID}. The first
// block is never removed; that and unknown ids answer 204 without a change.
func (h *Handler) DeleteBlock(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.DeleteBlock(chi.URLParam(r, "blockID"))
	w.WriteHeader(http.StatusNoContent)
}

// UpdateContent handles PUT /api/documents/{id}/blocks/{blockID}/content.
func (h *Handler) UpdateContent(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req ContentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s.UpdateContent(chi.URLParam(r, "blockID"), req.Content)
	w.WriteHeader(http.StatusNoContent)
}

// HandleKey handles POST /api/documents/{id}/blocks/{blockID}/keys.
//
//	@Summary		Apply Enter/Backspace block policy
//	@Tags			blocks
//	@Accept			json
//	@Produce		json
//	@Param			body	body		KeyRequest	true	"Key press and live content"
//	@Success		200		{object}	KeyResponse
//	@Router			/documents/{id}/blocks/{blockID}/keys [post]
func (h *Handler) HandleKey(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req KeyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, focus := s.HandleKey(chi.URLParam(r, "blockID"),
		blockdoc.KeyEvent{Key: req.Key, Shift: req.Shift}, req.Content)
	if focus == nil {
		focus = []blockdoc.FocusRequest{}
	}
	writeJSON(w, http.StatusOK, KeyResponse{KeyResult: res, Focus: focus})
}

// Focus handles POST /api/documents/{id}/blocks/{blockID}/focus.
func (h *Handler) Focus(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if !s.Focus(chi.URLParam(r, "blockID")) {
		writeJSON(w, http.StatusNotFound, errorBody("block not found"))
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

// SetBlockType handles PUT /api/documents/{id}/block-type. Without an
// active block nothing changes.
func (h *Handler) SetBlockType(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req BlockTypeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	tag, ok := models.ParseTag(string(req.Tag))
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("unknown block type"))
		return
	}
	s.SetBlockType(tag)
	writeJSON(w, http.StatusOK, s.View())
}

// SelectionChanged handles PUT /api/documents/{id}/selection.
func (h *Handler) SelectionChanged(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req SelectionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	st, applied := s.SelectionChanged(req.Selection)
	writeJSON(w, http.StatusOK, SelectionResponse{Bubble: st, Applied: applied})
}

// Format handles POST /api/documents/{id}/format.
func (h *Handler) Format(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req FormatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	var (
		action toolbar.Action
		err    error
	)
	if req.Action == "" && req.Key != "" {
		if action, ok = toolbar.ShortcutAction(req.Key); !ok {
			writeJSON(w, http.StatusBadRequest, errorBody("unknown shortcut"))
			return
		}
	} else if action, err = toolbar.ParseAction(req.Action); err != nil {
		writeError(w, "format", err)
		return
	}
	if _, err := s.Format(action, req.Href); err != nil {
		writeError(w, "format", err)
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

// OpenRefineMenu handles POST /api/documents/{id}/refine-menu.
func (h *Handler) OpenRefineMenu(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if !s.OpenRefineMenu() {
		writeJSON(w, http.StatusConflict, errorBody("no selection"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"options": toolbar.RefineOptions})
}

// CloseRefineMenu handles DELETE /api/documents/{id}/refine-menu.
func (h *Handler) CloseRefineMenu(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.CloseRefineMenu()
	w.WriteHeader(http.StatusNoContent)
}

// ClearError handles DELETE /api/documents/{id}/error.
func (h *Handler) ClearError(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.ClearError()
	w.WriteHeader(http.StatusNoContent)
}

// Refine handles POST /api/documents/{id}/refine. Scope "selection" rewrites
// the bubble's selection; otherwise the last selection or the active block
// is used. A result that lost the race against a newer edit answers 409.
//
//	@Summary		Rewrite text with the text service
//	@Tags			text
//	@Accept			json
//	@Produce		json
//	@Param			body	body		RefineRequest	true	"Mode and scope"
//	@Success		200		{object}	RefineResponse
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Failure		502		{object}	errResponse
//	@Router			/documents/{id}/refine [post]
func (h *Handler) Refine(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req RefineRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	var (
		sel models.Selection
		err error
	)
	if req.Scope == ScopeSelection {
		sel, err = s.RefineSelection(r.Context(), req.Mode)
	} else {
		sel, err = s.Refine(r.Context(), req.Mode)
	}
	if err != nil {
		writeError(w, "refine", err)
		return
	}
	writeJSON(w, http.StatusOK, RefineResponse{Selection: sel, Document: s.View()})
}

// SuggestTitles handles POST /api/documents/{id}/titles.
func (h *Handler) SuggestTitles(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	titles, err := s.SuggestTitles(r.Context())
	if err != nil {
		writeError(w, "suggest titles", err)
		return
	}
	if titles == nil {
		titles = []string{}
	}
	writeJSON(w, http.StatusOK, TitlesResponse{Titles: titles})
}

// SelectTitle handles POST /api/documents/{id}/titles/select.
func (h *Handler) SelectTitle(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req SelectTitleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s.SelectTitle(req.Title)
	writeJSON(w, http.StatusOK, s.View())
}

// ReadingSummary handles POST /api/documents/{id}/reading/summary. The
// assistant never fails; errors come back as the fallback text.
func (h *Handler) ReadingSummary(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, AnswerResponse{Answer: s.Summary(r.Context(), h.d.Assistant)})
}

// ReadingAsk handles POST /api/documents/{id}/reading/ask.
func (h *Handler) ReadingAsk(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req QuestionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, AnswerResponse{Answer: s.Ask(r.Context(), h.d.Assistant, req.Question)})
}

// ReadingExplain handles POST /api/documents/{id}/reading/explain.
func (h *Handler) ReadingExplain(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req PassageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, AnswerResponse{Answer: s.Explain(r.Context(), h.d.Assistant, req.Passage)})
}

// Generate handles POST /api/generate, the text-service contract itself:
// {type, content, context} in, {result} out.
//
//	@Summary		Run one text-service request
//	@Tags			text
//	@Accept			json
//	@Produce		json
//	@Param			body	body		textservice.Request	true	"Request"
//	@Success		200		{object}	textservice.Response
//	@Failure		400		{object}	errResponse
//	@Failure		429		{object}	errResponse
//	@Failure		502		{object}	errResponse
//	@Router			/generate [post]
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var req textservice.Request
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.d.Text.Generate(r.Context(), req)
	if err != nil {
		writeError(w, "generate", err)
		return
	}
	writeJSON(w, http.StatusOK, textservice.Response{Result: result})
}
