package app

import (
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/ledgerbot/core/telegram/callbacks"
	"github.com/m3rciful/ledgerbot/core/telegram/commands"
	"github.com/m3rciful/ledgerbot/core/telegram/format"
	tghelpers "github.com/m3rciful/ledgerbot/core/telegram/helpers"
	"github.com/m3rciful/ledgerbot/core/telegram/keyboard"
	"github.com/m3rciful/ledgerbot/internal/domain"
	"github.com/m3rciful/ledgerbot/internal/report"
)

const storageUnavailableText = "Storage is unavailable right now, please try again later."

func (a *App) registerCommands() {
	reg := a.registry

	reg.RegisterCommand("/start", commands.Command{
		Handler:     a.handleStart,
		Description: "Main menu",
	})
	reg.RegisterCommand("/newobject", commands.Command{
		Handler:     a.formStarter(formObject),
		Description: "Create an object",
		Aliases:     []string{menuNewObject},
	})
	reg.RegisterCommand("/addsalary", commands.Command{
		Handler:     a.formStarter(formSalary),
		Description: "Record a salary payment",
		Aliases:     []string{menuAddSalary},
	})
	reg.RegisterCommand("/addmaterial", commands.Command{
		Handler:     a.formStarter(formMaterial),
		Description: "Record a material purchase",
		Aliases:     []string{menuAddMaterial},
	})
	reg.RegisterCommand("/newfilter", commands.Command{
		Handler:     a.handleNewFilter,
		Description: "Register a filter",
		Aliases:     []string{menuNewFilter},
	})
	reg.RegisterCommand("/addtransaction", commands.Command{
		Handler:     a.formStarter(formTransaction),
		Description: "Record an income or expense",
		Aliases:     []string{menuTransaction},
	})
	reg.RegisterCommand("/report", commands.Command{
		Handler:     a.handleReport,
		Description: "Objects report",
		Aliases:     []string{menuReport},
	})
	reg.RegisterCommand("/filters", commands.Command{
		Handler:     a.handleFilters,
		Description: "List registered filters",
		Aliases:     []string{menuFilters},
	})
	reg.RegisterCommand("/deltransaction", commands.Command{
		Handler:     a.handleDelTransaction,
		Description: "Delete a transaction",
	})
	reg.RegisterCommand("/export", commands.Command{
		Handler:     a.handleExport,
		Description: "Export report to spreadsheet",
		AdminOnly:   true,
		Hidden:      true,
	})
	reg.RegisterCommand("/cancel", commands.Command{
		Handler:     a.handleCancel,
		Description: "Cancel the current form",
	})

	_ = reg.RegisterCallback("tx_del", a.callbackDeleteTransaction)
	_ = reg.RegisterCallback("flt_del", a.callbackDeleteFilter)
}

func (a *App) formStarter(name string) tele.HandlerFunc {
	return func(c tele.Context) error {
		return a.startForm(c, name)
	}
}

func (a *App) handleStart(c tele.Context) error {
	a.watchFilters(c.Chat().ID)
	return tghelpers.SendText(c,
		"👋 This bot keeps your object ledger: salaries, materials, filters, and transactions.",
		&tele.SendOptions{ReplyMarkup: mainMenu()})
}

func (a *App) handleNewFilter(c tele.Context) error {
	a.watchFilters(c.Chat().ID)
	return a.startForm(c, formFilter)
}

func (a *App) handleCancel(c tele.Context) error {
	return renderDirective(c, a.engine.Cancel(c.Chat().ID))
}

func (a *App) handleReport(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	objects, err := a.store.ListObjects(ctx)
	if err != nil {
		_ = tghelpers.SendText(c, storageUnavailableText)
		return err
	}
	return tghelpers.SendText(c, report.Render(report.Build(objects)),
		&tele.SendOptions{ReplyMarkup: mainMenu()})
}

func (a *App) handleFilters(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	a.watchFilters(c.Chat().ID)

	filters, err := a.store.ListFilters(ctx, c.Chat().ID)
	if err != nil {
		_ = tghelpers.SendText(c, storageUnavailableText)
		return err
	}
	if len(filters) == 0 {
		return tghelpers.SendText(c, "No filters registered yet. Use /newfilter to add one.")
	}

	var b strings.Builder
	b.WriteString("💧 Your filters:\n")
	btns := make([]keyboard.InlineBtn, 0, len(filters))
	for _, f := range filters {
		fmt.Fprintf(&b, "\n%s — installed %s, expires %s",
			f.Name,
			f.InstallDate.Format(domain.DateLayout),
			f.ExpiryDate().Format(domain.DateLayout),
		)
		btns = append(btns, keyboard.InlineBtn{
			Text:   "🗑 " + f.Name,
			Unique: "flt_del",
			Data:   f.Name,
		})
	}
	// Filter names are short; two delete buttons fit per row.
	return tghelpers.SendText(c, b.String(), &tele.SendOptions{
		ReplyMarkup: keyboard.InlineButtonsNPerRow(btns, 2),
	})
}

func (a *App) handleDelTransaction(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	txs, err := a.store.ListTransactions(ctx, c.Chat().ID)
	if err != nil {
		_ = tghelpers.SendText(c, storageUnavailableText)
		return err
	}
	if len(txs) == 0 {
		return tghelpers.SendText(c, "No transactions recorded yet.")
	}

	btns := make([]keyboard.InlineBtn, 0, len(txs))
	for _, t := range txs {
		sign := "+"
		if t.Type == domain.Expense {
			sign = "-"
		}
		btns = append(btns, keyboard.InlineBtn{
			Text: fmt.Sprintf("🗑 %s %s %s%s",
				t.Date.Format(domain.DateLayout), t.Category, sign, t.Amount.StringFixed(2)),
			Unique: "tx_del",
			Data:   t.ID,
		})
	}
	return tghelpers.SendText(c, "Pick the transaction to delete:", &tele.SendOptions{
		ReplyMarkup: keyboard.InlineButtons(btns),
	})
}

func (a *App) callbackDeleteTransaction(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	id := callbacks.CallbackPayload(c)
	if id == "" {
		return tghelpers.EditOrSendMD(c, "This delete button is no longer valid.")
	}
	if err := a.store.DeleteTransaction(ctx, c.Chat().ID, id); err != nil {
		if domain.IsStorage(err) {
			_ = tghelpers.EditOrSendMD(c, storageUnavailableText)
			return err
		}
		return tghelpers.EditOrSendMD(c, "Transaction not found; it may already be deleted.")
	}
	return tghelpers.EditOrSendMD(c, "Transaction deleted.")
}

func (a *App) callbackDeleteFilter(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	name := callbacks.CallbackPayload(c)
	if name == "" {
		return tghelpers.EditOrSendMD(c, "This delete button is no longer valid.")
	}
	if err := a.store.DeleteFilter(ctx, c.Chat().ID, name); err != nil {
		if domain.IsStorage(err) {
			_ = tghelpers.EditOrSendMD(c, storageUnavailableText)
			return err
		}
		return tghelpers.EditOrSendMD(c, "Filter not found; it may already be deleted.")
	}
	// Filter names are free text and may contain markdown specials.
	escaped, err := format.EscapeMarkdown(name, format.MarkdownV1, "")
	if err != nil {
		escaped = name
	}
	return tghelpers.EditOrSendMD(c, fmt.Sprintf("Filter \"%s\" deleted.", escaped))
}

func (a *App) handleExport(c tele.Context) error {
	if a.exporter == nil {
		return tghelpers.SendText(c, "Spreadsheet export is not configured.")
	}
	ctx := tghelpers.BuildContext(c)
	objects, err := a.store.ListObjects(ctx)
	if err != nil {
		_ = tghelpers.SendText(c, storageUnavailableText)
		return err
	}
	if err := a.exporter.Export(ctx, report.Build(objects)); err != nil {
		_ = tghelpers.SendText(c, "Export failed, see logs.")
		return err
	}
	return tghelpers.SendText(c, "Report exported. ✅")
}
