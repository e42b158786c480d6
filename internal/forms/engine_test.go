package forms

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/ledgerbot/internal/domain"
	"github.com/m3rciful/ledgerbot/internal/validate"
)

type capture struct {
	draft *Draft
	err   error
	calls int
}

func (c *capture) commit(_ context.Context, _ int64, d *Draft) error {
	c.calls++
	if c.err != nil {
		return c.err
	}
	c.draft = d
	return nil
}

func textForm(c *capture) *Form {
	return &Form{
		Name:  "object",
		Title: "New object",
		Fields: []Field{
			{Name: "address", Label: "Address", Prompt: "Enter the address:", Validate: validate.NonEmpty},
			{Name: "name", Label: "Name", Prompt: "Enter the name:", Validate: validate.NonEmpty},
			{Name: "amount", Label: "Amount", Prompt: "Enter the amount:", Validate: validate.PositiveAmount},
		},
		Commit:      c.commit,
		SuccessText: "Object saved.",
	}
}

func startForm(t *testing.T, c *capture) (*Engine, int64) {
	t.Helper()
	e := NewEngine()
	require.NoError(t, e.Register(textForm(c)))
	d, err := e.Start(context.Background(), 10, "object")
	require.NoError(t, err)
	require.Equal(t, Prompt, d.Kind)
	return e, 10
}

func fill(t *testing.T, e *Engine, chatID int64, inputs ...string) Directive {
	t.Helper()
	var d Directive
	var err error
	for _, in := range inputs {
		d, err = e.Handle(context.Background(), chatID, in)
		require.NoError(t, err)
	}
	return d
}

func TestHappyPathCommits(t *testing.T) {
	c := &capture{}
	e, chat := startForm(t, c)

	d := fill(t, e, chat, "Main St 5", "Roof repair", "1234,5")
	require.Equal(t, Confirmation, d.Kind)
	assert.Contains(t, d.Text, "Main St 5")
	assert.Equal(t, []string{ConfirmLabel, EditLabel, CancelLabel}, d.Choices)

	d = fill(t, e, chat, ConfirmLabel)
	assert.Equal(t, Menu, d.Kind)
	assert.Equal(t, "Object saved.", d.Text)
	assert.False(t, e.Active(chat))

	require.NotNil(t, c.draft)
	assert.Equal(t, "Main St 5", c.draft.Value("address").Text)
	assert.Equal(t, "1234.5", c.draft.Value("amount").Amount.String())
}

func TestRejectionRepromptsWithoutAdvancing(t *testing.T) {
	c := &capture{}
	e, chat := startForm(t, c)

	d := fill(t, e, chat, "   ")
	require.Equal(t, Prompt, d.Kind)
	assert.Contains(t, d.Text, "Enter the address:")

	// Next valid input still lands in the first field.
	fill(t, e, chat, "Main St 5", "Roof repair", "100", ConfirmLabel)
	assert.Equal(t, "Main St 5", c.draft.Value("address").Text)
}

func TestEditPreservesOtherFields(t *testing.T) {
	c := &capture{}
	e, chat := startForm(t, c)
	fill(t, e, chat, "Main St 5", "Roof repair", "100")

	d := fill(t, e, chat, EditLabel)
	require.Equal(t, Prompt, d.Kind)
	assert.Contains(t, d.Choices, "Amount")
	assert.Contains(t, d.Choices, BackLabel)

	d = fill(t, e, chat, "Amount")
	require.Equal(t, Prompt, d.Kind)
	assert.Contains(t, d.Text, "Enter the amount:")

	// Edit returns straight to confirmation, not to the next field.
	d = fill(t, e, chat, "250")
	require.Equal(t, Confirmation, d.Kind)

	fill(t, e, chat, ConfirmLabel)
	assert.Equal(t, "Main St 5", c.draft.Value("address").Text)
	assert.Equal(t, "Roof repair", c.draft.Value("name").Text)
	assert.Equal(t, "250", c.draft.Value("amount").Amount.String())
}

func TestLastValueWins(t *testing.T) {
	c := &capture{}
	e, chat := startForm(t, c)
	fill(t, e, chat, "Main St 5", "Roof repair", "100",
		EditLabel, "Name", "Facade",
		EditLabel, "Name", "Facade paint",
		ConfirmLabel)
	assert.Equal(t, "Facade paint", c.draft.Value("name").Text)
}

func TestEditSelectBackReturnsToConfirmation(t *testing.T) {
	c := &capture{}
	e, chat := startForm(t, c)
	fill(t, e, chat, "Main St 5", "Roof repair", "100", EditLabel)

	d := fill(t, e, chat, BackLabel)
	assert.Equal(t, Confirmation, d.Kind)
}

func TestConfirmUnknownInputKeepsScreen(t *testing.T) {
	c := &capture{}
	e, chat := startForm(t, c)
	fill(t, e, chat, "Main St 5", "Roof repair", "100")

	d := fill(t, e, chat, "what?")
	require.Equal(t, Confirmation, d.Kind)
	assert.Contains(t, d.Text, "Main St 5")
	assert.Zero(t, c.calls)
	assert.True(t, e.Active(chat))
}

func TestCancelClearsDraft(t *testing.T) {
	c := &capture{}
	e, chat := startForm(t, c)
	fill(t, e, chat, "Main St 5", "Roof repair", "100")

	d := fill(t, e, chat, CancelLabel)
	assert.Equal(t, Menu, d.Kind)
	assert.False(t, e.Active(chat))
	assert.Zero(t, c.calls)

	// Idle chats produce no directive.
	d = fill(t, e, chat, "anything")
	assert.Equal(t, None, d.Kind)
}

func TestStorageFailureKeepsDraftForRetry(t *testing.T) {
	c := &capture{err: domain.WrapStorage("create object", errors.New("connection reset"))}
	e, chat := startForm(t, c)
	fill(t, e, chat, "Main St 5", "Roof repair", "100")

	d := fill(t, e, chat, ConfirmLabel)
	require.Equal(t, Confirmation, d.Kind)
	assert.Contains(t, d.Text, "Saving failed")
	assert.Contains(t, d.Text, "Main St 5")
	assert.True(t, e.Active(chat))

	c.err = nil
	d = fill(t, e, chat, ConfirmLabel)
	assert.Equal(t, Menu, d.Kind)
	assert.Equal(t, 2, c.calls)
	assert.Equal(t, "Main St 5", c.draft.Value("address").Text)
}

func TestDuplicateKeyClearsDraft(t *testing.T) {
	c := &capture{err: domain.ErrDuplicateKey}
	e, chat := startForm(t, c)
	fill(t, e, chat, "Main St 5", "Roof repair", "100")

	d := fill(t, e, chat, ConfirmLabel)
	assert.Equal(t, Menu, d.Kind)
	assert.Contains(t, d.Text, "already exists")
	assert.False(t, e.Active(chat))
}

func TestStartImplicitlyCancelsPrevious(t *testing.T) {
	c := &capture{}
	e := NewEngine()
	require.NoError(t, e.Register(textForm(c)))
	other := textForm(c)
	other.Name = "salary"
	require.NoError(t, e.Register(other))

	_, err := e.Start(context.Background(), 10, "object")
	require.NoError(t, err)
	fill(t, e, 10, "Main St 5")

	d, err := e.Start(context.Background(), 10, "salary")
	require.NoError(t, err)
	require.Equal(t, Prompt, d.Kind)
	assert.Equal(t, "salary", e.State(10))

	// The restarted form begins with an empty draft.
	fill(t, e, 10, "Other St 1", "Plumbing", "50", ConfirmLabel)
	assert.Equal(t, "Other St 1", c.draft.Value("address").Text)
}

func choiceForm(c *capture, choices ChoiceFunc) *Form {
	return &Form{
		Name:  "salary",
		Title: "Salary entry",
		Fields: []Field{
			{Name: "object", Label: "Object", Prompt: "Pick the object:", Choices: choices},
			{Name: "amount", Label: "Amount", Prompt: "Enter the amount:", Validate: validate.PositiveAmount},
		},
		Commit:      c.commit,
		SuccessText: "Saved.",
	}
}

func TestChoiceFieldValidatesAgainstSnapshot(t *testing.T) {
	c := &capture{}
	calls := 0
	e := NewEngine()
	require.NoError(t, e.Register(choiceForm(c, func(context.Context, int64) ([]string, error) {
		calls++
		if calls == 1 {
			return []string{"Main St 5 - Roof"}, nil
		}
		return []string{"Other St 1 - Paint"}, nil
	})))

	d, err := e.Start(context.Background(), 10, "salary")
	require.NoError(t, err)
	assert.Equal(t, []string{"Main St 5 - Roof", BackLabel}, d.Choices)

	// A rejected input re-presents the original snapshot, not a fresh one.
	d = fill(t, e, 10, "nonsense")
	require.Equal(t, Prompt, d.Kind)
	assert.Equal(t, []string{"Main St 5 - Roof", BackLabel}, d.Choices)

	d = fill(t, e, 10, "Main St 5 - Roof")
	require.Equal(t, Prompt, d.Kind)
	assert.Contains(t, d.Text, "Enter the amount:")
}

func TestChoiceFieldBackCancels(t *testing.T) {
	c := &capture{}
	e := NewEngine()
	require.NoError(t, e.Register(choiceForm(c, func(context.Context, int64) ([]string, error) {
		return []string{"Main St 5 - Roof"}, nil
	})))

	_, err := e.Start(context.Background(), 10, "salary")
	require.NoError(t, err)

	d := fill(t, e, 10, BackLabel)
	assert.Equal(t, Menu, d.Kind)
	assert.False(t, e.Active(10))
}

func TestChoiceSourceFailureWhileEditingKeepsDraft(t *testing.T) {
	c := &capture{}
	calls := 0
	e := NewEngine()
	require.NoError(t, e.Register(choiceForm(c, func(context.Context, int64) ([]string, error) {
		calls++
		if calls == 1 {
			return []string{"Main St 5 - Roof"}, nil
		}
		return nil, errors.New("db down")
	})))

	_, err := e.Start(context.Background(), 10, "salary")
	require.NoError(t, err)
	d := fill(t, e, 10, "Main St 5 - Roof", "200")
	require.Equal(t, Confirmation, d.Kind)

	// Editing the choice field hits the failing source; the session
	// falls back to confirmation with the draft intact.
	d = fill(t, e, 10, EditLabel, "Object")
	require.Equal(t, Confirmation, d.Kind)
	assert.Contains(t, d.Text, "entered values are kept")
	require.True(t, e.Active(10))

	d = fill(t, e, 10, ConfirmLabel)
	assert.Equal(t, Menu, d.Kind)
	require.NotNil(t, c.draft)
	assert.Equal(t, "Main St 5 - Roof", c.draft.Value("object").Text)
	assert.Equal(t, "200", c.draft.Value("amount").Amount.String())
}

func TestChoiceSourceFailureAbortsForm(t *testing.T) {
	c := &capture{}
	e := NewEngine()
	require.NoError(t, e.Register(choiceForm(c, func(context.Context, int64) ([]string, error) {
		return nil, errors.New("db down")
	})))

	d, err := e.Start(context.Background(), 10, "salary")
	require.NoError(t, err)
	assert.Equal(t, Menu, d.Kind)
	assert.Contains(t, d.Text, "unavailable")
	assert.False(t, e.Active(10))
}
