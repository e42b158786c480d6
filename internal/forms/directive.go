package forms

// DirectiveKind tags what the transport should render next.
type DirectiveKind int

const (
	// None means nothing to send.
	None DirectiveKind = iota
	// Prompt asks for the next field, optionally with a fixed choice set.
	Prompt
	// Confirmation shows the draft summary with confirm/edit/cancel.
	Confirmation
	// Menu returns the user to the main menu with an optional message.
	Menu
)

// Directive is the engine's outgoing instruction to the transport.
type Directive struct {
	Kind DirectiveKind
	Text string
	// Choices is the fixed reply choice set; empty means free text.
	Choices []string
}
