// Package template defines the template engine seam used by the HTML
// renderer and the admin editor markup.
package template
