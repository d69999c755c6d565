package components

// View is the template payload for one field. Values are already formatted
// as text so templates only escape and print.
type View struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Type     string       `json:"type"`
	Label    string       `json:"label"`
	Hint     string       `json:"hint"`
	Value    string       `json:"value"`
	Required bool         `json:"required"`
	Checked  bool         `json:"checked"`
	Options  []OptionView `json:"options"`
	Errors   []string     `json:"errors"`
}

// OptionView is one entry of a select or radio group.
type OptionView struct {
	ID       string `json:"id"`
	Value    string `json:"value"`
	Selected bool   `json:"selected"`
}
