package forms

import "github.com/m3rciful/ledgerbot/internal/validate"

// Draft is the in-progress, uncommitted field values of one form
// instance. It only ever reaches the repository through the confirm
// transition, fully populated and validated.
type Draft struct {
	values map[string]validate.Value
}

// NewDraft returns an empty draft.
func NewDraft() *Draft {
	return &Draft{values: make(map[string]validate.Value)}
}

// Set stores the typed value for a field, replacing any prior value.
func (d *Draft) Set(field string, v validate.Value) {
	d.values[field] = v
}

// Get returns the value entered for a field.
func (d *Draft) Get(field string) (validate.Value, bool) {
	v, ok := d.values[field]
	return v, ok
}

// Value returns the field value or a zero Value when absent.
func (d *Draft) Value(field string) validate.Value {
	return d.values[field]
}

// Len reports how many fields carry a value.
func (d *Draft) Len() int {
	return len(d.values)
}
