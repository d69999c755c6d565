// Package tui drives the list editor from a terminal. A Session loops over a
// menu of editor operations using a PromptDriver, survey-backed by default.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-userfields/pkg/editor"
	"github.com/goliatone/go-userfields/pkg/model"
)

// Theme captures optional prefixes applied to printed messages.
type Theme struct {
	InfoPrefix  string
	ErrorPrefix string
}

// Option configures a Session.
type Option func(*Session)

// WithPromptDriver overrides the prompt driver.
func WithPromptDriver(driver PromptDriver) Option {
	return func(s *Session) {
		if driver != nil {
			s.driver = driver
		}
	}
}

// WithMessages passes editor strings through to the underlying editor.
func WithMessages(m editor.Messages) Option {
	return func(s *Session) {
		s.messages = m
	}
}

// WithTheme applies optional message prefixes.
func WithTheme(theme Theme) Option {
	return func(s *Session) {
		s.theme = theme
	}
}

// Outcome reports how a session ended.
type Outcome int

const (
	OutcomeDiscarded Outcome = iota
	OutcomeSaved
)

const (
	menuList = iota
	menuAdd
	menuEdit
	menuMove
	menuRemove
	menuSave
	menuDiscard
)

var mainMenu = []string{
	"List fields",
	"Add field",
	"Edit field",
	"Move field",
	"Remove field",
	"Save and exit",
	"Discard and exit",
}

// Session edits one field list interactively.
type Session struct {
	driver   PromptDriver
	editor   *editor.Editor
	messages editor.Messages
	theme    Theme

	// ctx of the running loop; the editor's confirmer prompts through it.
	ctx        context.Context
	confirmErr error
}

// New starts a session over initial.
func New(initial model.List, options ...Option) *Session {
	s := &Session{}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	if s.driver == nil {
		s.driver = NewSurveyDriver(nil)
	}
	s.editor = editor.New(initial,
		editor.WithMessages(s.messages),
		editor.WithConfirmer(s.confirmRemove),
	)
	return s
}

// Editor exposes the editing state; its Transport value is what a save
// handler receives.
func (s *Session) Editor() *editor.Editor {
	return s.editor
}

// Run loops until the user saves or discards. ErrAborted propagates when the
// user interrupts a prompt.
func (s *Session) Run(ctx context.Context) (Outcome, error) {
	s.ctx = ctx
	defer func() { s.ctx = nil }()

	for {
		choice, err := s.driver.Select(ctx, SelectConfig{Message: "User fields", Options: mainMenu})
		if err != nil {
			return OutcomeDiscarded, err
		}

		switch choice {
		case menuList:
			err = s.printList(ctx)
		case menuAdd:
			idx := s.editor.Add()
			err = s.editItem(ctx, idx)
		case menuEdit:
			err = s.pickAndEdit(ctx)
		case menuMove:
			err = s.move(ctx)
		case menuRemove:
			err = s.remove(ctx)
		case menuSave:
			return OutcomeSaved, nil
		case menuDiscard:
			return OutcomeDiscarded, nil
		default:
			continue
		}

		if errors.Is(err, ErrEmptyList) {
			if infoErr := s.info(ctx, s.theme.ErrorPrefix+"No fields yet."); infoErr != nil {
				return OutcomeDiscarded, infoErr
			}
			continue
		}
		if err != nil {
			return OutcomeDiscarded, err
		}
	}
}

func (s *Session) printList(ctx context.Context) error {
	if s.editor.Len() == 0 {
		return ErrEmptyList
	}
	var b strings.Builder
	for i, item := range s.editor.Items() {
		required := ""
		if item.Field.Required {
			required = " *"
		}
		fmt.Fprintf(&b, "%d. %s [%s] %s%s", i+1, s.editor.Preview(i), item.Field.Type, item.Field.Name, required)
		if opts := item.Field.OptionValues(); len(opts) > 0 {
			fmt.Fprintf(&b, " (%s)", strings.Join(opts, ", "))
		}
		if i < s.editor.Len()-1 {
			b.WriteByte('\n')
		}
	}
	return s.info(ctx, b.String())
}

func (s *Session) pickItem(ctx context.Context, message string) (int, error) {
	if s.editor.Len() == 0 {
		return -1, ErrEmptyList
	}
	options := make([]string, 0, s.editor.Len())
	for i, item := range s.editor.Items() {
		options = append(options, fmt.Sprintf("%s [%s]", s.editor.Preview(i), item.Field.Type))
	}
	idx, err := s.driver.Select(ctx, SelectConfig{Message: message, Options: options})
	if err != nil {
		return -1, err
	}
	if idx < 0 || idx >= len(options) {
		return -1, fmt.Errorf("tui: %w", editor.ErrOutOfRange)
	}
	return idx, nil
}

func (s *Session) pickAndEdit(ctx context.Context) error {
	idx, err := s.pickItem(ctx, "Edit which field?")
	if err != nil {
		return err
	}
	return s.editItem(ctx, idx)
}

func (s *Session) move(ctx context.Context) error {
	from, err := s.pickItem(ctx, "Move which field?")
	if err != nil {
		return err
	}
	to, err := s.pickItem(ctx, "Move it to the position of")
	if err != nil {
		return err
	}
	return s.editor.Move(from, to)
}

func (s *Session) remove(ctx context.Context) error {
	idx, err := s.pickItem(ctx, "Remove which field?")
	if err != nil {
		return err
	}
	s.confirmErr = nil
	if _, err := s.editor.Remove(idx); err != nil {
		return err
	}
	return s.confirmErr
}

func (s *Session) confirmRemove(message string) bool {
	ctx := s.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	ok, err := s.driver.Confirm(ctx, ConfirmConfig{Message: message})
	if err != nil {
		s.confirmErr = err
		return false
	}
	return ok
}

const (
	attrLabel = iota
	attrName
	attrType
	attrRequired
	attrHint
	attrOptions
	attrDone
)

var attrMenu = []string{"Label", "Name", "Type", "Required", "Hint", "Options", "Done"}

func (s *Session) editItem(ctx context.Context, idx int) error {
	for {
		item, err := s.editor.Item(idx)
		if err != nil {
			return err
		}
		choice, err := s.driver.Select(ctx, SelectConfig{
			Message: fmt.Sprintf("Editing %s (%s)", s.editor.Preview(idx), item.Field.Name),
			Options: attrMenu,
		})
		if err != nil {
			return err
		}

		switch choice {
		case attrLabel:
			label, err := s.driver.Input(ctx, InputConfig{Message: "Label", Default: item.Field.Label})
			if err != nil {
				return err
			}
			err = s.editor.SetLabel(idx, label)
			if err != nil {
				return err
			}
		case attrName:
			name, err := s.driver.Input(ctx, InputConfig{
				Message:   "Name",
				Default:   item.Field.Name,
				Help:      "Only lowercase letters, numbers and underscores.",
				Validator: validateName,
			})
			if err != nil {
				return err
			}
			if err := s.editor.SetName(idx, name); err != nil {
				return err
			}
		case attrType:
			if err := s.pickType(ctx, idx, item.Field.Type); err != nil {
				return err
			}
		case attrRequired:
			required, err := s.driver.Confirm(ctx, ConfirmConfig{Message: "Required?", Default: item.Field.Required})
			if err != nil {
				return err
			}
			if err := s.editor.SetRequired(idx, required); err != nil {
				return err
			}
		case attrHint:
			hint, err := s.driver.Input(ctx, InputConfig{Message: "Hint / placeholder", Default: item.Field.Hint})
			if err != nil {
				return err
			}
			if err := s.editor.SetHint(idx, hint); err != nil {
				return err
			}
		case attrOptions:
			if !s.editor.OptionsVisible(idx) {
				if err := s.info(ctx, s.theme.ErrorPrefix+"Only select and radio fields take options."); err != nil {
					return err
				}
				continue
			}
			options, err := s.driver.TextArea(ctx, TextAreaConfig{
				Message: "Options (comma or newline separated)",
				Default: editor.OptionsText(item.Field.Options),
			})
			if err != nil {
				return err
			}
			if err := s.editor.SetOptions(idx, options); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (s *Session) pickType(ctx context.Context, idx int, current model.FieldType) error {
	types := model.AllowedTypes()
	options := make([]string, 0, len(types))
	defaultIdx := 0
	for i, t := range types {
		options = append(options, string(t))
		if t == current {
			defaultIdx = i
		}
	}
	choice, err := s.driver.Select(ctx, SelectConfig{Message: "Type", Options: options, DefaultIndex: defaultIdx})
	if err != nil {
		return err
	}
	if choice < 0 || choice >= len(types) {
		return nil
	}
	return s.editor.SetType(idx, types[choice])
}

func (s *Session) info(ctx context.Context, msg string) error {
	return s.driver.Info(ctx, s.theme.InfoPrefix+msg)
}

// validateName accepts blank input (the normaliser derives one from the
// label) or a well-formed machine name.
func validateName(name string) error {
	if name == "" || model.ValidName(name) {
		return nil
	}
	return fmt.Errorf("%q must start with a letter and use only a-z, 0-9 and _", name)
}
