// Package toolbar holds the two editor toolbars: the bubble that floats
// above the current text selection and the block-type bar that retags the
// active block. Neither talks to the text service or owns document state.
package toolbar

import (
	"fmt"

	"github.com/starford/pensieri/internal/apperr"
	"github.com/starford/pensieri/internal/models"
	"github.com/starford/pensieri/internal/richtext"
)

// anchorLift is how far above the selection the bubble sits, in pixels.
const anchorLift = 50

// Action is an inline formatting action offered by a toolbar.
type Action string

const (
	ActionBold      Action = "bold"
	ActionItalic    Action = "italic"
	ActionUnderline Action = "underline"
	ActionLink      Action = "link"
)

// Anchor is the bubble position in viewport pixels. Left is the horizontal
// centre of the bubble.
type Anchor struct {
	Top  float64 `json:"top"`
	Left float64 `json:"left"`
}

// RefineOption is one entry of the refine sub-menu.
type RefineOption struct {
	Mode  models.RefineMode `json:"mode"`
	Label string            `json:"label"`
}

// RefineOptions lists the refine sub-menu entries in display order.
var RefineOptions = []RefineOption{
	{Mode: models.RefineGrammar, Label: "Fix Grammar"},
	{Mode: models.RefineShorten, Label: "Shorten"},
	{Mode: models.RefineProfessional, Label: "Make Professional"},
}

// BubbleState is a snapshot of the bubble for rendering.
type BubbleState struct {
	Visible   bool              `json:"visible"`
	Anchor    Anchor            `json:"anchor"`
	MenuOpen  bool              `json:"menu_open"`
	Refining  bool              `json:"refining"`
	Selection *models.Selection `json:"selection,omitempty"`
	// Active lists the formats the whole selection already carries.
	Active []Action `json:"active,omitempty"`
}

// Bubble tracks the selection-anchored toolbar. The zero value is hidden.
type Bubble struct {
	visible  bool
	anchor   Anchor
	sel      models.Selection
	menuOpen bool
	refining bool
}

// Frozen reports whether selection changes are currently ignored.
func (b *Bubble) Frozen() bool {
	return b.menuOpen || b.refining
}

// OnSelectionChange updates the bubble from a new selection snapshot. A nil,
// collapsed or zero-width selection hides it. While the refine menu is open
// or a refine is running the call is ignored and false is returned.
func (b *Bubble) OnSelectionChange(sel *models.Selection) bool {
	if b.Frozen() {
		return false
	}
	if sel == nil || sel.Collapsed() || sel.Rect.Width == 0 {
		b.visible = false
		b.sel = models.Selection{}
		return true
	}
	b.sel = sel.Normalized()
	b.anchor = Anchor{
		Top:  sel.Rect.Top - anchorLift,
		Left: sel.Rect.Left + sel.Rect.Width/2,
	}
	b.visible = true
	return true
}

// Selection returns the selection the bubble is anchored to.
func (b *Bubble) Selection() (models.Selection, bool) {
	return b.sel, b.visible
}

// OpenRefineMenu opens the refine sub-menu. It only opens over a visible bubble.
func (b *Bubble) OpenRefineMenu() bool {
	if !b.visible {
		return false
	}
	b.menuOpen = true
	return true
}

// CloseRefineMenu closes the refine sub-menu.
func (b *Bubble) CloseRefineMenu() {
	b.menuOpen = false
}

// BeginRefine marks a refine request as in flight. It fails when one is
// already running or when there is no selection to refine.
func (b *Bubble) BeginRefine() (models.Selection, bool) {
	if b.refining || !b.visible {
		return models.Selection{}, false
	}
	b.refining = true
	return b.sel, true
}

// EndRefine clears the in-flight mark and closes the sub-menu.
func (b *Bubble) EndRefine() {
	b.refining = false
	b.menuOpen = false
}

// Hide drops the bubble regardless of menu state.
func (b *Bubble) Hide() {
	*b = Bubble{}
}

// State returns a snapshot for rendering.
func (b *Bubble) State() BubbleState {
	st := BubbleState{
		Visible:  b.visible,
		Anchor:   b.anchor,
		MenuOpen: b.menuOpen,
		Refining: b.refining,
	}
	if b.visible {
		sel := b.sel
		st.Selection = &sel
	}
	return st
}

// ApplyFormat maps a toolbar action onto the rich text model over the
// selected range. The selection is returned unchanged so the caller can keep
// it active. ActionLink with an empty href removes the link.
func ApplyFormat(t *richtext.Text, sel models.Selection, action Action, href string) (models.Selection, error) {
	sel = sel.Normalized()
	if sel.Collapsed() {
		return sel, nil
	}
	switch action {
	case ActionBold:
		t.Toggle(sel.Start, sel.End, richtext.Bold)
	case ActionItalic:
		t.Toggle(sel.Start, sel.End, richtext.Italic)
	case ActionUnderline:
		t.Toggle(sel.Start, sel.End, richtext.Underline)
	case ActionLink:
		t.SetLink(sel.Start, sel.End, href)
	default:
		return sel, fmt.Errorf("toolbar: unknown action %q: %w", action, apperr.ErrInvalidArgument)
	}
	return sel, nil
}

// ActiveFormats returns the toggle actions that are on for every rune of
// the selection, so the bubble can show them pressed.
func ActiveFormats(t *richtext.Text, sel models.Selection) []Action {
	sel = sel.Normalized()
	var out []Action
	for _, f := range []struct {
		action Action
		style  richtext.Style
	}{
		{ActionBold, richtext.Bold},
		{ActionItalic, richtext.Italic},
		{ActionUnderline, richtext.Underline},
	} {
		if t.HasStyle(sel.Start, sel.End, f.style) {
			out = append(out, f.action)
		}
	}
	return out
}

// ApplyReplacement writes a refine result over the selected range and
// returns the selection now covering the inserted text.
func ApplyReplacement(t *richtext.Text, sel models.Selection, replacement string) models.Selection {
	sel = sel.Normalized()
	sel.Start = min(max(sel.Start, 0), t.Len())
	t.Replace(sel.Start, sel.End, replacement)
	sel.End = sel.Start + len([]rune(replacement))
	sel.Text = replacement
	return sel
}

// ParseAction validates a wire action name.
func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionBold, ActionItalic, ActionUnderline, ActionLink:
		return a, nil
	}
	return "", fmt.Errorf("toolbar: unknown action %q: %w", s, apperr.ErrInvalidArgument)
}
