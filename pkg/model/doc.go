// Package model defines the field descriptor shared by every part of the
// user fields pipeline: the sanitizer that cleans administrator input, the
// resolution policy that picks a list for a calendar, the HTML renderer, the
// submission parser and the list editor.
//
// A Field is deliberately flat (label, name, type, required, hint, options) so
// it survives a round trip through a JSON text blob. Lists are ordered and
// names are unique within a list; DeriveName, CleanName and UniqueName
// implement the naming rules every writer must follow.
package model
