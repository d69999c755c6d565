// Package editor models the administrator's list editor: an ordered set of
// items that can be added, removed, reordered and edited, with the JSON
// transport value kept in step after every change.
package editor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-userfields/pkg/model"
)

// ErrOutOfRange is returned when an operation references a missing item.
var ErrOutOfRange = errors.New("editor: item index out of range")

// Confirmer answers a yes/no question, typically "remove this field?".
type Confirmer func(message string) bool

// ChangeHandler receives the transport value after every mutation.
type ChangeHandler func(transport string)

// Messages holds the user-facing strings the editor needs.
type Messages struct {
	Untitled      string
	RemoveConfirm string
}

// DefaultMessages returns the English strings.
func DefaultMessages() Messages {
	return Messages{
		Untitled:      "Untitled",
		RemoveConfirm: "Remove this field?",
	}
}

// Item is one row in the editor. Field.Options holds the raw text the
// administrator typed; Transport normalises it.
type Item struct {
	Field       model.Field
	Open        bool
	NameTouched bool
}

type Option func(*Editor)

// WithConfirmer gates Remove. Without one every removal is confirmed.
func WithConfirmer(fn Confirmer) Option {
	return func(e *Editor) {
		e.confirm = fn
	}
}

// WithMessages replaces the default strings. Blank entries keep the default.
func WithMessages(m Messages) Option {
	return func(e *Editor) {
		if strings.TrimSpace(m.Untitled) != "" {
			e.messages.Untitled = m.Untitled
		}
		if strings.TrimSpace(m.RemoveConfirm) != "" {
			e.messages.RemoveConfirm = m.RemoveConfirm
		}
	}
}

// WithChangeHandler registers a callback fired with the new transport value.
func WithChangeHandler(fn ChangeHandler) Option {
	return func(e *Editor) {
		if fn != nil {
			e.handlers = append(e.handlers, fn)
		}
	}
}

// Editor is not safe for concurrent use; it models a single editing session.
type Editor struct {
	items     []Item
	transport string
	confirm   Confirmer
	messages  Messages
	handlers  []ChangeHandler
}

// New starts a session over initial. Existing items start collapsed.
func New(initial model.List, options ...Option) *Editor {
	e := &Editor{messages: DefaultMessages()}
	for _, opt := range options {
		if opt != nil {
			opt(e)
		}
	}

	e.items = make([]Item, 0, len(initial))
	for _, field := range initial {
		if field.Type == "" {
			field.Type = model.FieldTypeText
		}
		e.items = append(e.items, Item{Field: field})
	}
	e.transport = encodeTransport(e.items)
	return e
}

// Messages returns the strings in use.
func (e *Editor) Messages() Messages {
	return e.messages
}

// Len reports the number of items.
func (e *Editor) Len() int {
	return len(e.items)
}

// Items returns a copy of the current rows.
func (e *Editor) Items() []Item {
	out := make([]Item, len(e.items))
	copy(out, e.items)
	return out
}

// Item returns the row at i.
func (e *Editor) Item(i int) (Item, error) {
	if err := e.check(i); err != nil {
		return Item{}, err
	}
	return e.items[i], nil
}

// Transport returns the JSON array written to the hidden input.
func (e *Editor) Transport() string {
	return e.transport
}

// List returns the fields as the transport encodes them.
func (e *Editor) List() model.List {
	list := make(model.List, 0, len(e.items))
	for _, item := range e.items {
		field := item.Field
		field.Options = normalizeOptions(field.Options)
		list = append(list, field)
	}
	return list
}

// Preview is the summary caption: the label, or the untitled placeholder.
func (e *Editor) Preview(i int) string {
	if i < 0 || i >= len(e.items) {
		return ""
	}
	return e.items[i].Field.DisplayLabel(e.messages.Untitled)
}

// OptionsVisible reports whether the options editor shows for item i.
func (e *Editor) OptionsVisible(i int) bool {
	if i < 0 || i >= len(e.items) {
		return false
	}
	return model.IsOptionBearing(e.items[i].Field.Type)
}

// OptionsText renders stored options one per line for a textarea.
func OptionsText(options string) string {
	return strings.ReplaceAll(options, ",", "\n")
}

// Add appends an untitled text field with its settings open and returns its
// index.
func (e *Editor) Add() int {
	e.items = append(e.items, Item{
		Field: model.Field{
			Label: e.messages.Untitled,
			Type:  model.FieldTypeText,
		},
		Open: true,
	})
	e.changed()
	return len(e.items) - 1
}

// Remove deletes item i once the confirmer agrees. It reports whether the
// item was removed.
func (e *Editor) Remove(i int) (bool, error) {
	if err := e.check(i); err != nil {
		return false, err
	}
	if e.confirm != nil && !e.confirm(e.messages.RemoveConfirm) {
		return false, nil
	}
	e.items = append(e.items[:i], e.items[i+1:]...)
	e.changed()
	return true, nil
}

// Move relocates item from to position to, shifting the items between.
func (e *Editor) Move(from, to int) error {
	if err := e.check(from); err != nil {
		return err
	}
	if err := e.check(to); err != nil {
		return err
	}
	if from == to {
		return nil
	}
	item := e.items[from]
	e.items = append(e.items[:from], e.items[from+1:]...)
	e.items = append(e.items[:to], append([]Item{item}, e.items[to:]...)...)
	e.changed()
	return nil
}

// SetLabel updates the label. Until the name has been edited by hand it is
// re-derived from the label and suffixed to stay unique among siblings.
func (e *Editor) SetLabel(i int, label string) error {
	if err := e.check(i); err != nil {
		return err
	}
	e.items[i].Field.Label = label
	if !e.items[i].NameTouched {
		e.items[i].Field.Name = model.UniqueName(model.DeriveName(label), func(name string) bool {
			return e.nameTaken(name, i)
		})
	}
	e.changed()
	return nil
}

// SetName stores name as typed and stops label-driven derivation for item i.
func (e *Editor) SetName(i int, name string) error {
	if err := e.check(i); err != nil {
		return err
	}
	e.items[i].Field.Name = name
	e.items[i].NameTouched = true
	e.changed()
	return nil
}

// SetType changes the control type. Options typed earlier are kept so
// switching back restores them.
func (e *Editor) SetType(i int, t model.FieldType) error {
	if err := e.check(i); err != nil {
		return err
	}
	e.items[i].Field.Type = model.ParseType(string(t))
	e.changed()
	return nil
}

func (e *Editor) SetRequired(i int, required bool) error {
	if err := e.check(i); err != nil {
		return err
	}
	e.items[i].Field.Required = required
	e.changed()
	return nil
}

func (e *Editor) SetHint(i int, hint string) error {
	if err := e.check(i); err != nil {
		return err
	}
	e.items[i].Field.Hint = hint
	e.changed()
	return nil
}

// SetOptions stores the raw options text (commas or line breaks).
func (e *Editor) SetOptions(i int, options string) error {
	if err := e.check(i); err != nil {
		return err
	}
	e.items[i].Field.Options = options
	e.changed()
	return nil
}

// Toggle opens or collapses the settings panel of item i.
func (e *Editor) Toggle(i int) error {
	if err := e.check(i); err != nil {
		return err
	}
	e.items[i].Open = !e.items[i].Open
	e.changed()
	return nil
}

func (e *Editor) check(i int) error {
	if i < 0 || i >= len(e.items) {
		return fmt.Errorf("%w: %d of %d", ErrOutOfRange, i, len(e.items))
	}
	return nil
}

func (e *Editor) nameTaken(name string, self int) bool {
	for idx, item := range e.items {
		if idx != self && item.Field.Name == name {
			return true
		}
	}
	return false
}

func (e *Editor) changed() {
	e.transport = encodeTransport(e.items)
	for _, fn := range e.handlers {
		fn(e.transport)
	}
}

type transportItem struct {
	Label    string `json:"label"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Required int    `json:"required"`
	Hint     string `json:"hint"`
	Options  string `json:"options"`
}

func encodeTransport(items []Item) string {
	payload := make([]transportItem, 0, len(items))
	for _, item := range items {
		required := 0
		if item.Field.Required {
			required = 1
		}
		typ := string(item.Field.Type)
		if typ == "" {
			typ = string(model.FieldTypeText)
		}
		payload = append(payload, transportItem{
			Label:    item.Field.Label,
			Name:     item.Field.Name,
			Type:     typ,
			Required: required,
			Hint:     item.Field.Hint,
			Options:  normalizeOptions(item.Field.Options),
		})
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return "[]"
	}
	return strings.TrimSpace(buf.String())
}

func normalizeOptions(raw string) string {
	return model.JoinOptions(model.SplitOptions(raw))
}
