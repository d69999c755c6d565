// Package render holds the renderer contracts shared by the HTML and admin
// front-ends together with the inverse direction: turning submitted request
// values back into a typed model.Submission and enforcing required fields.
package render
