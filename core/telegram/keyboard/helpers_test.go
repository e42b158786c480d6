package keyboard

import "testing"

func TestInlineButtonsNPerRow(t *testing.T) {
	btns := []InlineBtn{
		{Text: "a", Unique: "u", Data: "1"},
		{Text: "b", Unique: "u", Data: "2"},
		{Text: "c", Unique: "u", Data: "3"},
	}

	m := InlineButtonsNPerRow(btns, 2)
	if got := len(m.InlineKeyboard); got != 2 {
		t.Fatalf("rows = %d, want 2", got)
	}
	if got := len(m.InlineKeyboard[0]); got != 2 {
		t.Errorf("first row = %d buttons, want 2", got)
	}
	if got := len(m.InlineKeyboard[1]); got != 1 {
		t.Errorf("last row = %d buttons, want 1", got)
	}
	if m.InlineKeyboard[1][0].Text != "c" {
		t.Errorf("last button text = %q, want %q", m.InlineKeyboard[1][0].Text, "c")
	}

	// n <= 1 degrades to one button per row.
	m = InlineButtonsNPerRow(btns, 0)
	if got := len(m.InlineKeyboard); got != 3 {
		t.Errorf("rows = %d, want 3", got)
	}
}
