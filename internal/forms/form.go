// Package forms drives linear conversational forms: prompt the fields in
// order, validate each input, show a confirmation screen with field-level
// edit, and commit the draft atomically through the record repository.
// The engine is transport-free; the telegram layer renders the directives
// it emits.
package forms

import (
	"context"
	"errors"
	"strings"

	"github.com/m3rciful/ledgerbot/internal/validate"
)

// Reserved reply labels understood by the engine. Back is a navigation
// sentinel and is checked before any field validation.
const (
	ConfirmLabel = "✅ Confirm"
	EditLabel    = "✏️ Edit"
	CancelLabel  = "❌ Cancel"
	BackLabel    = "⬅️ Back"
)

// ErrNoChoices signals that a choice field has no options to offer, as
// opposed to the option source failing.
var ErrNoChoices = errors.New("forms: no choices available")

// ChoiceFunc generates the label set for a constrained-choice field. It
// is called at prompt time; the returned snapshot stays valid for the
// field until it is answered.
type ChoiceFunc func(ctx context.Context, chatID int64) ([]string, error)

// CommitFunc persists a completed draft. Failures are classified by the
// engine via the domain error taxonomy.
type CommitFunc func(ctx context.Context, chatID int64, d *Draft) error

// Field is one form step.
type Field struct {
	// Name keys the value in the draft.
	Name string
	// Label is shown on summaries and on the edit-select keyboard.
	Label string
	// Prompt asks the user for the value.
	Prompt string
	// Validate checks free-text input. Ignored when Choices is set.
	Validate validate.Func
	// Choices makes this a constrained-choice field.
	Choices ChoiceFunc
	// EmptyHint is shown when Choices reports ErrNoChoices.
	EmptyHint string
}

// Form defines one record-entry conversation.
type Form struct {
	// Name identifies the form; also the state tag of active sessions.
	Name string
	// Title headlines the confirmation screen.
	Title string
	Fields []Field
	// Commit persists the validated draft.
	Commit CommitFunc
	// SuccessText is reported after a successful commit.
	SuccessText string
}

func (f *Form) fieldByLabel(label string) (int, *Field) {
	for i := range f.Fields {
		if f.Fields[i].Label == label {
			return i, &f.Fields[i]
		}
	}
	return -1, nil
}

// summary renders the confirmation body: the title and one line per
// entered field, in form order.
func (f *Form) summary(d *Draft) string {
	var b strings.Builder
	b.WriteString(f.Title)
	for i := range f.Fields {
		fld := &f.Fields[i]
		v, ok := d.Get(fld.Name)
		if !ok {
			continue
		}
		b.WriteString("\n")
		b.WriteString(fld.Label)
		b.WriteString(": ")
		b.WriteString(v.String())
	}
	return b.String()
}
