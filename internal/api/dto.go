package api

import (
	"github.com/starford/pensieri/internal/blockdoc"
	"github.com/starford/pensieri/internal/editor"
	"github.com/starford/pensieri/internal/models"
	"github.com/starford/pensieri/internal/toolbar"
)

// DocumentView is the full editor state of an open document.
type DocumentView = editor.View

// DocumentListResponse wraps the open documents.
type DocumentListResponse struct {
	Documents []editor.Summary `json:"documents" validate:"required"`
}

// TitleRequest sets the document title.
type TitleRequest struct {
	Title string `json:"title" example:"Slow Mornings"`
}

// TopicRequest selects a topic; an empty value clears it.
type TopicRequest struct {
	Topic string `json:"topic" example:"design"`
}

// TagRequest adds one tag.
type TagRequest struct {
	Tag string `json:"tag" example:"habits" validate:"required"`
}

// TagKeyRequest is a key press in the tag input.
type TagKeyRequest struct {
	Key   string `json:"key" example:"Enter" validate:"required"`
	Input string `json:"input" example:"habits"`
}

// CoverDataRequest carries a cover image as a data URI.
type CoverDataRequest struct {
	DataURI string `json:"data_uri" example:"data:image/png;base64,iVBORw0..." validate:"required"`
}

// CoverResponse is returned after a cover upload.
type CoverResponse struct {
	models.BlobMeta
	URL string `json:"url" example:"/api/assets/covers/ab12.png"`
}

// AssetListResponse is the JSON body for GET /api/assets.
type AssetListResponse struct {
	Assets []CoverResponse `json:"assets"`
}

// InsertBlockRequest inserts a block after an existing one. Tag accepts the
// same names as the block-type bar and defaults to a paragraph.
type InsertBlockRequest struct {
	After string `json:"after" validate:"required"`
	Tag   string `json:"tag,omitempty" example:"heading-1"`
}

// InsertBlockResponse names the created block.
type InsertBlockResponse struct {
	ID string `json:"id" validate:"required"`
}

// ContentRequest replaces a block's markup.
type ContentRequest struct {
	Content string `json:"content" example:"Hello <b>world</b>"`
}

// KeyRequest is a key press inside a block with the block's live content.
type KeyRequest struct {
	Key     blockdoc.Key `json:"key" example:"Enter" validate:"required"`
	Shift   bool         `json:"shift"`
	Content string       `json:"content"`
}

// KeyResponse tells the editing surface what to do after a key press.
type KeyResponse struct {
	blockdoc.KeyResult
	Focus []blockdoc.FocusRequest `json:"focus"`
}

// BlockTypeRequest retags the active block.
type BlockTypeRequest struct {
	Tag models.Tag `json:"tag" example:"h1" validate:"required"`
}

// SelectionRequest is a selection snapshot; a null selection hides the bubble.
type SelectionRequest struct {
	Selection *models.Selection `json:"selection"`
}

// SelectionResponse is the bubble state after a selection change.
type SelectionResponse struct {
	Bubble  toolbar.BubbleState `json:"bubble"`
	Applied bool                `json:"applied"`
}

// FormatRequest applies a toolbar action to the bubble's selection. Key
// names a shortcut (pressed with the primary modifier) instead of Action.
type FormatRequest struct {
	Action string `json:"action,omitempty" example:"bold"`
	Key    string `json:"key,omitempty" example:"b"`
	Href   string `json:"href,omitempty" example:"https://example.com"`
}

// Refine scopes.
const (
	ScopeSelection = "selection"
	ScopeAuto      = "auto"
)

// RefineRequest rewrites text with the text service.
type RefineRequest struct {
	Mode  models.RefineMode `json:"mode" example:"grammar" validate:"required"`
	Scope string            `json:"scope,omitempty" example:"selection"`
}

// RefineResponse reports the range now holding the rewritten text.
type RefineResponse struct {
	Selection models.Selection `json:"selection"`
	Document  DocumentView     `json:"document"`
}

// TitlesResponse lists title candidates.
type TitlesResponse struct {
	Titles []string `json:"titles" validate:"required"`
}

// SelectTitleRequest picks one candidate.
type SelectTitleRequest struct {
	Title string `json:"title" example:"\"Slow Mornings\"" validate:"required"`
}

// QuestionRequest is a reader question about the document.
type QuestionRequest struct {
	Question string `json:"question" example:"What is the main idea?"`
}

// PassageRequest is a passage selected in the reading view.
type PassageRequest struct {
	Passage string `json:"passage" example:"the quiet hour"`
}

// AnswerResponse carries a reading-assistant reply.
type AnswerResponse struct {
	Answer string `json:"answer"`
}

// MessageResponse carries a user-facing confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}
