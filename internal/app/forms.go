package app

import (
	"context"
	"time"

	"github.com/m3rciful/ledgerbot/internal/domain"
	"github.com/m3rciful/ledgerbot/internal/forms"
	"github.com/m3rciful/ledgerbot/internal/storage"
	"github.com/m3rciful/ledgerbot/internal/validate"
)

// Form names double as FSM state tags in handler logs.
const (
	formObject      = "new_object"
	formSalary      = "add_salary"
	formMaterial    = "add_material"
	formFilter      = "new_filter"
	formTransaction = "add_transaction"
)

func registerForms(engine *forms.Engine, store storage.Store) error {
	defs := []*forms.Form{
		newObjectForm(store),
		salaryForm(store),
		materialForm(store),
		filterForm(store),
		transactionForm(store),
	}
	for _, f := range defs {
		if err := engine.Register(f); err != nil {
			return err
		}
	}
	return nil
}

func newObjectForm(store storage.Store) *forms.Form {
	return &forms.Form{
		Name:  formObject,
		Title: "🏗 New object",
		Fields: []forms.Field{
			{Name: "address", Label: "Address", Prompt: "Enter the object address:", Validate: validate.NonEmpty},
			{Name: "name", Label: "Name", Prompt: "Enter the object name:", Validate: validate.NonEmpty},
		},
		Commit: func(ctx context.Context, _ int64, d *forms.Draft) error {
			return store.CreateObject(ctx, domain.Object{
				Address:   d.Value("address").Text,
				Name:      d.Value("name").Text,
				CreatedAt: time.Now(),
			})
		},
		SuccessText: "Object created.",
	}
}

// objectChoices builds the object-selection menu from live storage.
func objectChoices(store storage.Store) forms.ChoiceFunc {
	return func(ctx context.Context, _ int64) ([]string, error) {
		objects, err := store.ListObjects(ctx)
		if err != nil {
			return nil, err
		}
		if len(objects) == 0 {
			return nil, forms.ErrNoChoices
		}
		labels := make([]string, 0, len(objects))
		for _, o := range objects {
			labels = append(labels, o.Label())
		}
		return labels, nil
	}
}

// resolveObject maps a selected menu label back to the object. The
// object may have been deleted between prompt and commit; that surfaces
// as NotFound and the engine reports it.
func resolveObject(ctx context.Context, store storage.Store, label string) (domain.Object, error) {
	objects, err := store.ListObjects(ctx)
	if err != nil {
		return domain.Object{}, err
	}
	for _, o := range objects {
		if o.Label() == label {
			return o, nil
		}
	}
	return domain.Object{}, domain.ErrNotFound
}

func salaryForm(store storage.Store) *forms.Form {
	return &forms.Form{
		Name:  formSalary,
		Title: "💰 Salary entry",
		Fields: []forms.Field{
			{Name: "object", Label: "Object", Prompt: "Select the object:", Choices: objectChoices(store), EmptyHint: "No objects yet. Create one with /newobject first."},
			{Name: "amount", Label: "Amount", Prompt: "Enter the salary amount:", Validate: validate.PositiveAmount},
			{Name: "date", Label: "Date", Prompt: "Enter the date (DD.MM.YYYY):", Validate: validate.Date},
		},
		Commit: func(ctx context.Context, _ int64, d *forms.Draft) error {
			obj, err := resolveObject(ctx, store, d.Value("object").Text)
			if err != nil {
				return err
			}
			return store.AddSalaryEntry(ctx, domain.SalaryEntry{
				ObjectAddress: obj.Address,
				ObjectName:    obj.Name,
				Amount:        d.Value("amount").Amount,
				Date:          d.Value("date").Date,
			})
		},
		SuccessText: "Salary recorded.",
	}
}

func materialForm(store storage.Store) *forms.Form {
	return &forms.Form{
		Name:  formMaterial,
		Title: "🧱 Material entry",
		Fields: []forms.Field{
			{Name: "object", Label: "Object", Prompt: "Select the object:", Choices: objectChoices(store), EmptyHint: "No objects yet. Create one with /newobject first."},
			{Name: "material", Label: "Material", Prompt: "Enter the material name:", Validate: validate.NonEmpty},
			{Name: "cost", Label: "Cost", Prompt: "Enter the cost:", Validate: validate.PositiveAmount},
			{Name: "date", Label: "Date", Prompt: "Enter the date (DD.MM.YYYY):", Validate: validate.Date},
		},
		Commit: func(ctx context.Context, _ int64, d *forms.Draft) error {
			obj, err := resolveObject(ctx, store, d.Value("object").Text)
			if err != nil {
				return err
			}
			return store.AddMaterialEntry(ctx, domain.MaterialEntry{
				ObjectAddress: obj.Address,
				ObjectName:    obj.Name,
				MaterialName:  d.Value("material").Text,
				Cost:          d.Value("cost").Amount,
				Date:          d.Value("date").Date,
			})
		},
		SuccessText: "Material recorded.",
	}
}

func filterForm(store storage.Store) *forms.Form {
	return &forms.Form{
		Name:  formFilter,
		Title: "💧 New filter",
		Fields: []forms.Field{
			{Name: "name", Label: "Name", Prompt: "Enter the filter name:", Validate: validate.NonEmpty},
			{Name: "install_date", Label: "Install date", Prompt: "Enter the install date (DD.MM.YYYY):", Validate: validate.Date},
			{Name: "lifetime", Label: "Lifetime, days", Prompt: "Enter the lifetime in days:", Validate: validate.PositiveInt},
		},
		Commit: func(ctx context.Context, chatID int64, d *forms.Draft) error {
			return store.CreateFilter(ctx, domain.Filter{
				ChatID:       chatID,
				Name:         d.Value("name").Text,
				InstallDate:  d.Value("install_date").Date,
				LifetimeDays: int(d.Value("lifetime").Int),
			})
		},
		SuccessText: "Filter registered.",
	}
}

var transactionTypeLabels = []string{"Income", "Expense"}

func transactionType(label string) domain.TransactionType {
	if label == "Income" {
		return domain.Income
	}
	return domain.Expense
}

func transactionForm(store storage.Store) *forms.Form {
	return &forms.Form{
		Name:  formTransaction,
		Title: "💸 New transaction",
		Fields: []forms.Field{
			{Name: "type", Label: "Type", Prompt: "Income or expense?", Choices: func(context.Context, int64) ([]string, error) {
				return transactionTypeLabels, nil
			}},
			{Name: "category", Label: "Category", Prompt: "Enter the category:", Validate: validate.NonEmpty},
			{Name: "amount", Label: "Amount", Prompt: "Enter the amount:", Validate: validate.PositiveAmount},
			{Name: "date", Label: "Date", Prompt: "Enter the date (DD.MM.YYYY):", Validate: validate.Date},
		},
		Commit: func(ctx context.Context, chatID int64, d *forms.Draft) error {
			return store.AddTransaction(ctx, domain.Transaction{
				ID:       domain.NewTransactionID(),
				ChatID:   chatID,
				Date:     d.Value("date").Date,
				Category: d.Value("category").Text,
				Amount:   d.Value("amount").Amount,
				Type:     transactionType(d.Value("type").Text),
			})
		},
		SuccessText: "Transaction recorded.",
	}
}
