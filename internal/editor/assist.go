package editor

import (
	"context"
	"fmt"

	"github.com/starford/pensieri/internal/apperr"
	"github.com/starford/pensieri/internal/models"
	"github.com/starford/pensieri/internal/richtext"
	"github.com/starford/pensieri/internal/textservice"
	"github.com/starford/pensieri/internal/toolbar"
)

// FailureMessage is shown when a text-service request fails.
const FailureMessage = "AI Error"

const titleKey = "\x00title"

// SelectionChanged feeds a selection snapshot to the bubble toolbar. The
// selected text is resolved from the block content; selections in unknown
// blocks hide the bubble. It returns the resulting bubble state and whether
// the snapshot was taken into account.
func (s *Session) SelectionChanged(sel *models.Selection) (toolbar.BubbleState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched = s.now()

	if sel != nil {
		resolved, ok := s.resolveLocked(*sel)
		if !ok {
			sel = nil
		} else {
			sel = &resolved
		}
	}
	applied := s.bubble.OnSelectionChange(sel)
	if applied && sel != nil && !sel.Collapsed() {
		cp := *sel
		s.lastSel = &cp
	}
	return s.bubbleLocked(), applied
}

// bubbleLocked snapshots the bubble with the formats active over its
// selection.
func (s *Session) bubbleLocked() toolbar.BubbleState {
	st := s.bubble.State()
	if st.Selection == nil {
		return st
	}
	b, ok := s.doc.Block(st.Selection.BlockID)
	if !ok {
		return st
	}
	if txt, err := richtext.Parse(b.Content); err == nil {
		st.Active = toolbar.ActiveFormats(txt, *st.Selection)
	}
	return st
}

// resolveLocked clamps sel to its block and fills in the selected text.
func (s *Session) resolveLocked(sel models.Selection) (models.Selection, bool) {
	b, ok := s.doc.Block(sel.BlockID)
	if !ok {
		return sel, false
	}
	txt, err := richtext.Parse(b.Content)
	if err != nil {
		return sel, false
	}
	sel = sel.Normalized()
	sel.Start = min(max(sel.Start, 0), txt.Len())
	sel.End = min(max(sel.End, sel.Start), txt.Len())
	sel.Text = txt.Slice(sel.Start, sel.End)
	return sel, true
}

// OpenRefineMenu opens the refine sub-menu over the visible bubble.
func (s *Session) OpenRefineMenu() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bubble.OpenRefineMenu()
}

// CloseRefineMenu closes the refine sub-menu.
func (s *Session) CloseRefineMenu() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bubble.CloseRefineMenu()
}

// Format applies a toolbar action to the bubble's selection and writes the
// result back into the block.
func (s *Session) Format(action toolbar.Action, href string) (models.Selection, error) {
	var out models.Selection
	var err error
	s.track(func() {
		sel, ok := s.bubble.Selection()
		if !ok {
			err = fmt.Errorf("editor: no selection: %w", apperr.ErrConflict)
			return
		}
		b, found := s.doc.Block(sel.BlockID)
		if !found {
			err = fmt.Errorf("editor: block %s: %w", sel.BlockID, apperr.ErrNotFound)
			return
		}
		var txt *richtext.Text
		if txt, err = richtext.Parse(b.Content); err != nil {
			err = fmt.Errorf("editor: block %s: %w", sel.BlockID, apperr.ErrInvalidArgument)
			return
		}
		if out, err = toolbar.ApplyFormat(txt, sel, action, href); err != nil {
			return
		}
		s.setContentLocked(sel.BlockID, txt.Markup())
		blockOps.WithLabelValues("format").Inc()
	})
	return out, err
}

// refineTarget is a range of a block captured before a refine request.
type refineTarget struct {
	sel       models.Selection
	wholeText bool
}

// RefineSelection rewrites the text under the bubble. The bubble ignores
// selection changes until the request settles.
func (s *Session) RefineSelection(ctx context.Context, mode models.RefineMode) (models.Selection, error) {
	s.mu.Lock()
	sel, ok := s.bubble.BeginRefine()
	if !ok {
		s.mu.Unlock()
		return models.Selection{}, fmt.Errorf("editor: nothing to refine: %w", apperr.ErrConflict)
	}
	target, ok := s.targetLocked(&sel)
	if !ok {
		s.bubble.EndRefine()
		s.mu.Unlock()
		return models.Selection{}, fmt.Errorf("editor: block %s: %w", sel.BlockID, apperr.ErrNotFound)
	}
	s.mu.Unlock()

	out, err := s.refine(ctx, target, mode)

	s.mu.Lock()
	s.bubble.EndRefine()
	s.bubble.Hide()
	s.mu.Unlock()
	return out, err
}

// Refine rewrites the last known selection if it still matches its block,
// otherwise the whole active block.
func (s *Session) Refine(ctx context.Context, mode models.RefineMode) (models.Selection, error) {
	s.mu.Lock()
	target, ok := s.targetLocked(s.lastSel)
	s.mu.Unlock()
	if !ok {
		return models.Selection{}, fmt.Errorf("editor: no block to refine: %w", apperr.ErrConflict)
	}
	return s.refine(ctx, target, mode)
}

// RefineBlock rewrites the whole of one block regardless of the current
// selection or focus.
func (s *Session) RefineBlock(ctx context.Context, blockID string, mode models.RefineMode) (models.Selection, error) {
	s.mu.Lock()
	target, ok := s.blockTargetLocked(blockID)
	s.mu.Unlock()
	if !ok {
		return models.Selection{}, fmt.Errorf("editor: block %s: %w", blockID, apperr.ErrNotFound)
	}
	return s.refine(ctx, target, mode)
}

// targetLocked picks what a refine applies to. A selection survives when its
// block still exists and still holds the selected text at the same range.
func (s *Session) targetLocked(sel *models.Selection) (refineTarget, bool) {
	if sel != nil {
		if b, ok := s.doc.Block(sel.BlockID); ok {
			if txt, err := richtext.Parse(b.Content); err == nil {
				n := sel.Normalized()
				if !n.Collapsed() && n.End <= txt.Len() && txt.Slice(n.Start, n.End) == n.Text {
					return refineTarget{sel: n}, true
				}
			}
		}
	}
	return s.blockTargetLocked(s.doc.Active())
}

func (s *Session) blockTargetLocked(id string) (refineTarget, bool) {
	b, ok := s.doc.Block(id)
	if !ok {
		return refineTarget{}, false
	}
	txt, err := richtext.Parse(b.Content)
	if err != nil {
		return refineTarget{}, false
	}
	return refineTarget{
		sel:       models.Selection{BlockID: id, Start: 0, End: txt.Len(), Text: txt.String()},
		wholeText: true,
	}, true
}

// refine runs the request without holding the lock and applies the result
// only if the block was not edited in the meantime.
func (s *Session) refine(ctx context.Context, target refineTarget, mode models.RefineMode) (models.Selection, error) {
	if !mode.Valid() {
		return models.Selection{}, fmt.Errorf("editor: refine mode %q: %w", mode, apperr.ErrInvalidArgument)
	}
	if s.text == nil {
		return models.Selection{}, fmt.Errorf("editor: no text service configured: %w", apperr.ErrTextService)
	}

	s.mu.Lock()
	ticket := s.tracker.Begin(target.sel.BlockID)
	s.beginLoadingLocked()
	s.mu.Unlock()

	result, err := s.text.Refine(ctx, target.sel.Text, mode)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading--
	if err != nil {
		s.lastErr = FailureMessage
		return models.Selection{}, err
	}
	if !s.tracker.Current(ticket) {
		return models.Selection{}, fmt.Errorf("editor: block %s changed during refine: %w", target.sel.BlockID, apperr.ErrStale)
	}
	b, ok := s.doc.Block(target.sel.BlockID)
	if !ok {
		return models.Selection{}, fmt.Errorf("editor: block %s removed during refine: %w", target.sel.BlockID, apperr.ErrStale)
	}

	before := s.version()
	var out models.Selection
	if target.wholeText {
		txt := richtext.New(result)
		s.doc.UpdateContent(b.ID, txt.Markup())
		out = models.Selection{BlockID: b.ID, Start: 0, End: txt.Len(), Text: result}
	} else {
		txt, perr := richtext.Parse(b.Content)
		if perr != nil {
			return models.Selection{}, fmt.Errorf("editor: block %s: %w", b.ID, apperr.ErrInvalidArgument)
		}
		out = toolbar.ApplyReplacement(txt, target.sel, result)
		s.doc.UpdateContent(b.ID, txt.Markup())
	}
	s.tracker.Bump(b.ID)
	s.lastSel = &out
	blockOps.WithLabelValues("refine").Inc()
	if s.version() != before {
		s.changed()
	}
	return out, nil
}

// SuggestTitles asks the text service for title candidates based on the
// title and body. A newer request supersedes an older one.
func (s *Session) SuggestTitles(ctx context.Context) ([]string, error) {
	if s.text == nil {
		return nil, fmt.Errorf("editor: no text service configured: %w", apperr.ErrTextService)
	}
	s.mu.Lock()
	content := s.plainTextLocked()
	if content == "" {
		content = s.title
	}
	ticket := s.tracker.Begin(titleKey)
	s.beginLoadingLocked()
	s.mu.Unlock()

	titles, err := s.text.SuggestTitles(ctx, content)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading--
	if err != nil {
		s.lastErr = FailureMessage
		return nil, err
	}
	if !s.tracker.Current(ticket) {
		return nil, fmt.Errorf("editor: superseded title request: %w", apperr.ErrStale)
	}
	s.titles = titles
	return titles, nil
}

// Summary returns a reading summary of the document, or the fallback text.
func (s *Session) Summary(ctx context.Context, a *textservice.Assistant) string {
	return a.Summary(ctx, s.articleText())
}

// Ask answers a reader question about the document.
func (s *Session) Ask(ctx context.Context, a *textservice.Assistant, question string) string {
	return a.Answer(ctx, s.articleText(), question)
}

// Explain explains a passage of the document.
func (s *Session) Explain(ctx context.Context, a *textservice.Assistant, passage string) string {
	return a.Explain(ctx, s.articleText(), passage)
}

func (s *Session) articleText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.title == "" {
		return s.plainTextLocked()
	}
	return s.title + "\n" + s.plainTextLocked()
}

// ClearError dismisses the last failure message.
func (s *Session) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = ""
}

func (s *Session) beginLoadingLocked() {
	s.loading++
	s.lastErr = ""
}
