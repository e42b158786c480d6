package app

import (
	tele "gopkg.in/telebot.v4"

	tghelpers "github.com/m3rciful/ledgerbot/core/telegram/helpers"
	"github.com/m3rciful/ledgerbot/core/telegram/keyboard"
	"github.com/m3rciful/ledgerbot/internal/forms"
)

// Main menu labels; they are also registered as command aliases so the
// reply keyboard routes through the same handlers.
const (
	menuNewObject   = "🏗 New object"
	menuAddSalary   = "💰 Add salary"
	menuAddMaterial = "🧱 Add material"
	menuReport      = "📊 Report"
	menuNewFilter   = "💧 New filter"
	menuFilters     = "🗂 My filters"
	menuTransaction = "💸 Transaction"
)

func mainMenu() *tele.ReplyMarkup {
	return keyboard.ReplyButtons(
		[]string{menuNewObject, menuReport},
		[]string{menuAddSalary, menuAddMaterial},
		[]string{menuNewFilter, menuFilters},
		[]string{menuTransaction},
	)
}

// fsmAdapter exposes the form engine through the router's FSM interface.
type fsmAdapter struct {
	app *App
}

func (a *App) fsm() *fsmAdapter {
	return &fsmAdapter{app: a}
}

func (f *fsmAdapter) InProgress(chatID int64) bool {
	return f.app.engine.Active(chatID)
}

func (f *fsmAdapter) ManagerHandler(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	d, err := f.app.engine.Handle(ctx, c.Chat().ID, c.Text())
	if err != nil {
		return err
	}
	return renderDirective(c, d)
}

// renderDirective translates an engine directive into outgoing messages.
func renderDirective(c tele.Context, d forms.Directive) error {
	switch d.Kind {
	case forms.Prompt:
		if len(d.Choices) > 0 {
			return tghelpers.SendText(c, d.Text, &tele.SendOptions{
				ReplyMarkup: choiceKeyboard(d.Choices),
			})
		}
		return tghelpers.SendText(c, d.Text, &tele.SendOptions{
			ReplyMarkup: keyboard.RemoveKeyboard(),
		})

	case forms.Confirmation:
		return tghelpers.SendText(c, d.Text, &tele.SendOptions{
			ReplyMarkup: keyboard.ReplyButtons(
				[]string{forms.ConfirmLabel, forms.EditLabel},
				[]string{forms.CancelLabel},
			),
		})

	case forms.Menu:
		text := d.Text
		if text == "" {
			text = "What's next?"
		}
		return tghelpers.SendText(c, text, &tele.SendOptions{
			ReplyMarkup: mainMenu(),
		})
	}
	return nil
}

// choiceKeyboard lays out one choice per row; labels carry full object
// addresses and do not pack well side by side.
func choiceKeyboard(labels []string) *tele.ReplyMarkup {
	rows := make([][]string, 0, len(labels))
	for _, l := range labels {
		rows = append(rows, []string{l})
	}
	return keyboard.ReplyButtons(rows...)
}

// startForm begins a form and renders its first prompt.
func (a *App) startForm(c tele.Context, name string) error {
	ctx := tghelpers.BuildContext(c)
	d, err := a.engine.Start(ctx, c.Chat().ID, name)
	if err != nil {
		return err
	}
	return renderDirective(c, d)
}
