package forms

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"log/slog"

	"github.com/m3rciful/ledgerbot/core/logger"
	"github.com/m3rciful/ledgerbot/internal/domain"
	"github.com/m3rciful/ledgerbot/internal/validate"
)

type phase int

const (
	phaseCollecting phase = iota
	phaseConfirm
	phaseEditSelect
	phaseEditing
)

// session is one chat's active form: the phase, the current field index,
// the draft, and the choice snapshots captured at prompt time.
type session struct {
	form      *Form
	phase     phase
	index     int
	draft     *Draft
	snapshots map[string][]string
}

// Engine is the form state machine shared by all form types. Sessions
// are keyed by chat id; each chat processes one message at a time.
type Engine struct {
	mu       sync.RWMutex
	forms    map[string]*Form
	sessions map[int64]*session
}

// NewEngine returns an engine with no registered forms.
func NewEngine() *Engine {
	return &Engine{
		forms:    make(map[string]*Form),
		sessions: make(map[int64]*session),
	}
}

// Register adds a form definition.
func (e *Engine) Register(f *Form) error {
	if f == nil || f.Name == "" || len(f.Fields) == 0 || f.Commit == nil {
		return errors.New("forms: invalid form definition")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.forms[f.Name]; exists {
		return fmt.Errorf("forms: form already registered: %s", f.Name)
	}
	e.forms[f.Name] = f
	return nil
}

// Active reports whether the chat has a form in progress.
func (e *Engine) Active(chatID int64) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.sessions[chatID]
	return ok
}

// State returns the active form name, or empty when idle.
func (e *Engine) State(chatID int64) string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if s, ok := e.sessions[chatID]; ok {
		return s.form.Name
	}
	return ""
}

// Start begins a form for the chat. An in-progress form is implicitly
// cancelled: its draft is dropped before the new form prompts field one.
func (e *Engine) Start(ctx context.Context, chatID int64, name string) (Directive, error) {
	e.mu.Lock()
	f, ok := e.forms[name]
	if !ok {
		e.mu.Unlock()
		return Directive{}, fmt.Errorf("forms: unknown form: %s", name)
	}
	if prev, active := e.sessions[chatID]; active {
		logger.Debug(ctx, "forms", "form.restart",
			slog.Int64("chat_id", chatID),
			slog.String("prev", prev.form.Name),
			slog.String("next", name),
		)
	}
	s := &session{
		form:      f,
		phase:     phaseCollecting,
		draft:     NewDraft(),
		snapshots: make(map[string][]string),
	}
	e.sessions[chatID] = s
	e.mu.Unlock()

	return e.prompt(ctx, chatID, s, 0, "")
}

// Cancel clears the chat's draft from any state and returns to the menu.
func (e *Engine) Cancel(chatID int64) Directive {
	e.mu.Lock()
	_, active := e.sessions[chatID]
	delete(e.sessions, chatID)
	e.mu.Unlock()
	if !active {
		return Directive{Kind: Menu}
	}
	return Directive{Kind: Menu, Text: "Cancelled."}
}

// Handle processes the chat's next text input against its active form.
// With no form in progress it emits no directive.
func (e *Engine) Handle(ctx context.Context, chatID int64, text string) (Directive, error) {
	e.mu.RLock()
	s, ok := e.sessions[chatID]
	e.mu.RUnlock()
	if !ok {
		return Directive{Kind: None}, nil
	}

	switch s.phase {
	case phaseCollecting, phaseEditing:
		return e.handleInput(ctx, chatID, s, text)
	case phaseConfirm:
		return e.handleConfirm(ctx, chatID, s, text)
	case phaseEditSelect:
		return e.handleEditSelect(ctx, chatID, s, text)
	}
	return Directive{Kind: None}, nil
}

// prompt emits the prompt for field i, snapshotting the choice labels
// for constrained-choice fields. hint carries a validation complaint to
// append when re-prompting.
func (e *Engine) prompt(ctx context.Context, chatID int64, s *session, i int, hint string) (Directive, error) {
	s.index = i
	fld := &s.form.Fields[i]

	if fld.Choices != nil {
		labels, err := fld.Choices(ctx, chatID)
		if err != nil {
			if s.phase == phaseEditing {
				// The draft is complete while editing; fall back to the
				// confirmation screen instead of discarding it.
				if !errors.Is(err, ErrNoChoices) {
					logger.Error(ctx, "forms", "form.menu_failed",
						slog.Int64("chat_id", chatID),
						slog.String("form", s.form.Name),
						slog.String("field", fld.Name),
						slog.String("err", err.Error()),
					)
				}
				s.phase = phaseConfirm
				return e.confirmation(s, "⚠️ That field cannot be changed right now; the entered values are kept."), nil
			}
			// Menu could not be built; abort the form rather than leave
			// the user on a prompt with no valid answers.
			e.mu.Lock()
			delete(e.sessions, chatID)
			e.mu.Unlock()
			if errors.Is(err, ErrNoChoices) {
				text := fld.EmptyHint
				if text == "" {
					text = "There is nothing to choose from yet."
				}
				return Directive{Kind: Menu, Text: text}, nil
			}
			logger.Error(ctx, "forms", "form.menu_failed",
				slog.Int64("chat_id", chatID),
				slog.String("form", s.form.Name),
				slog.String("field", fld.Name),
				slog.String("err", err.Error()),
			)
			return Directive{Kind: Menu, Text: "Storage is unavailable right now, please try again later."}, nil
		}
		s.snapshots[fld.Name] = labels
		return Directive{
			Kind:    Prompt,
			Text:    promptText(fld.Prompt, hint),
			Choices: append(append([]string(nil), labels...), BackLabel),
		}, nil
	}

	return Directive{Kind: Prompt, Text: promptText(fld.Prompt, hint)}, nil
}

// repeat re-emits the current prompt unchanged except for the hint; the
// choice snapshot is reused, not regenerated.
func (e *Engine) repeat(s *session, hint string) Directive {
	fld := &s.form.Fields[s.index]
	d := Directive{Kind: Prompt, Text: promptText(fld.Prompt, hint)}
	if fld.Choices != nil {
		labels := s.snapshots[fld.Name]
		d.Choices = append(append([]string(nil), labels...), BackLabel)
	}
	return d
}

func (e *Engine) handleInput(ctx context.Context, chatID int64, s *session, text string) (Directive, error) {
	fld := &s.form.Fields[s.index]

	// Navigation sentinel precedes validation.
	if fld.Choices != nil && text == BackLabel {
		e.mu.Lock()
		delete(e.sessions, chatID)
		e.mu.Unlock()
		return Directive{Kind: Menu}, nil
	}

	var v validate.Value
	var rej *validate.Rejection
	if fld.Choices != nil {
		v, rej = validate.OneOf(s.snapshots[fld.Name])(text)
	} else {
		v, rej = fld.Validate(text)
	}
	if rej != nil {
		logger.Debug(ctx, "forms", "field.rejected",
			slog.Int64("chat_id", chatID),
			slog.String("form", s.form.Name),
			slog.String("field", fld.Name),
		)
		return e.repeat(s, rej.Hint), nil
	}

	s.draft.Set(fld.Name, v)

	if s.phase == phaseEditing {
		// Edited field accepted: straight back to confirmation, all
		// other draft fields untouched.
		s.phase = phaseConfirm
		return e.confirmation(s, ""), nil
	}

	if s.index+1 == len(s.form.Fields) {
		s.phase = phaseConfirm
		return e.confirmation(s, ""), nil
	}
	return e.prompt(ctx, chatID, s, s.index+1, "")
}

func (e *Engine) confirmation(s *session, note string) Directive {
	text := s.form.summary(s.draft)
	if note != "" {
		text = note + "\n\n" + text
	}
	return Directive{
		Kind:    Confirmation,
		Text:    text,
		Choices: []string{ConfirmLabel, EditLabel, CancelLabel},
	}
}

func (e *Engine) handleConfirm(ctx context.Context, chatID int64, s *session, text string) (Directive, error) {
	switch text {
	case ConfirmLabel:
		return e.commit(ctx, chatID, s)
	case EditLabel:
		s.phase = phaseEditSelect
		return Directive{Kind: Prompt, Text: "Which field do you want to change?", Choices: e.editLabels(s)}, nil
	case CancelLabel:
		e.mu.Lock()
		delete(e.sessions, chatID)
		e.mu.Unlock()
		return Directive{Kind: Menu, Text: "Cancelled."}, nil
	default:
		// Anything else re-renders the same screen, no transition.
		return e.confirmation(s, "Please use the buttons below."), nil
	}
}

func (e *Engine) handleEditSelect(ctx context.Context, chatID int64, s *session, text string) (Directive, error) {
	if text == BackLabel {
		s.phase = phaseConfirm
		return e.confirmation(s, ""), nil
	}
	i, fld := s.form.fieldByLabel(text)
	if fld == nil {
		return Directive{Kind: Prompt, Text: "Which field do you want to change?", Choices: e.editLabels(s)}, nil
	}
	s.phase = phaseEditing
	return e.prompt(ctx, chatID, s, i, "")
}

func (e *Engine) editLabels(s *session) []string {
	labels := make([]string, 0, len(s.form.Fields)+1)
	for i := range s.form.Fields {
		labels = append(labels, s.form.Fields[i].Label)
	}
	return append(labels, BackLabel)
}

func (e *Engine) commit(ctx context.Context, chatID int64, s *session) (Directive, error) {
	err := s.form.Commit(ctx, chatID, s.draft)
	switch {
	case err == nil:
		e.mu.Lock()
		delete(e.sessions, chatID)
		e.mu.Unlock()
		logger.Info(ctx, "forms", "form.committed",
			slog.Int64("chat_id", chatID),
			slog.String("form", s.form.Name),
			slog.String("status", "ok"),
		)
		text := s.form.SuccessText
		if text == "" {
			text = "Saved."
		}
		return Directive{Kind: Menu, Text: text}, nil

	case errors.Is(err, domain.ErrDuplicateKey):
		e.mu.Lock()
		delete(e.sessions, chatID)
		e.mu.Unlock()
		logger.Warn(ctx, "forms", "form.commit_rejected",
			slog.Int64("chat_id", chatID),
			slog.String("form", s.form.Name),
			slog.String("reason", "duplicate_key"),
		)
		return Directive{Kind: Menu, Text: "A record with this key already exists; nothing was saved."}, nil

	case errors.Is(err, domain.ErrNotFound):
		e.mu.Lock()
		delete(e.sessions, chatID)
		e.mu.Unlock()
		logger.Warn(ctx, "forms", "form.commit_rejected",
			slog.Int64("chat_id", chatID),
			slog.String("form", s.form.Name),
			slog.String("reason", "not_found"),
		)
		return Directive{Kind: Menu, Text: "The referenced record no longer exists; nothing was saved."}, nil

	default:
		// Storage failure: keep the draft so the user can retry confirm
		// without re-entering anything.
		logger.Error(ctx, "forms", "form.commit_failed",
			slog.Int64("chat_id", chatID),
			slog.String("form", s.form.Name),
			slog.String("err", err.Error()),
		)
		return e.confirmation(s, "⚠️ Saving failed, nothing was written. Press Confirm to retry."), nil
	}
}

func promptText(prompt, hint string) string {
	if hint == "" {
		return prompt
	}
	return "⚠️ " + hint + "\n\n" + prompt
}
