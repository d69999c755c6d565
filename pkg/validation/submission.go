// Package validation describes Submission Records as OpenAPI schemas
// (kin-openapi) and validates collected values against them.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-userfields/pkg/model"
)

// SchemaName is the component name used in generated documents.
const SchemaName = "UserFieldsSubmission"

// Issue represents a validation error with optional location metadata.
type Issue struct {
	Path    string `json:"path,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Result captures validation outcomes.
type Result struct {
	Valid  bool    `json:"valid"`
	Issues []Issue `json:"issues,omitempty"`
}

// SubmissionSchema builds the object schema a Submission Record for list must
// satisfy: numbers for number fields, 0/1 for checkboxes, one of the options
// for select and radio, text otherwise. Required text needs at least one
// character and a required checkbox must be 1.
func SubmissionSchema(list model.List) *openapi3.Schema {
	schema := openapi3.NewObjectSchema()
	noExtra := false
	schema.AdditionalProperties = openapi3.AdditionalProperties{Has: &noExtra}

	var required []string
	for _, field := range list {
		prop := fieldSchema(field)
		if field.Label != "" {
			prop.Title = field.Label
		}
		if field.Hint != "" {
			prop.Description = field.Hint
		}
		schema.WithProperty(field.Name, prop)

		// Checkboxes are always recorded, even when left unticked.
		if field.Required || field.Type == model.FieldTypeCheckbox {
			required = append(required, field.Name)
		}
	}
	schema.Required = required
	return schema
}

func fieldSchema(field model.Field) *openapi3.Schema {
	switch field.Type {
	case model.FieldTypeNumber:
		return openapi3.NewFloat64Schema()
	case model.FieldTypeCheckbox:
		s := openapi3.NewIntegerSchema().WithMax(1)
		if field.Required {
			return s.WithMin(1)
		}
		return s.WithMin(0)
	case model.FieldTypeSelect, model.FieldTypeRadio:
		values := field.OptionValues()
		enum := make([]any, 0, len(values)+1)
		for _, v := range values {
			enum = append(enum, v)
		}
		if !field.Required {
			enum = append(enum, "")
		}
		s := openapi3.NewStringSchema()
		if len(enum) > 0 {
			s = s.WithEnum(enum...)
		}
		return s
	default:
		s := openapi3.NewStringSchema()
		if field.Required {
			s = s.WithMinLength(1)
		}
		return s
	}
}

// Document wraps the submission schema in an OpenAPI 3 document describing
// the booking creation endpoint at path.
func Document(title, path string, list model.List) *openapi3.T {
	schema := SubmissionSchema(list)
	ref := &openapi3.SchemaRef{Ref: "#/components/schemas/" + SchemaName, Value: schema}

	op := openapi3.NewOperation()
	op.OperationID = "createBooking"
	op.Summary = "Create a booking with user field values"
	op.RequestBody = &openapi3.RequestBodyRef{
		Value: openapi3.NewRequestBody().WithRequired(true).WithJSONSchemaRef(ref),
	}
	op.Responses = openapi3.NewResponses(
		openapi3.WithStatus(201, &openapi3.ResponseRef{Value: openapi3.NewResponse().WithDescription("Booking created")}),
		openapi3.WithStatus(422, &openapi3.ResponseRef{Value: openapi3.NewResponse().WithDescription("A required field is missing")}),
	)

	return &openapi3.T{
		OpenAPI: "3.0.3",
		Info:    &openapi3.Info{Title: title, Version: "1.0.0"},
		Paths:   openapi3.NewPaths(openapi3.WithPath(path, &openapi3.PathItem{Post: op})),
		Components: &openapi3.Components{
			Schemas: openapi3.Schemas{SchemaName: openapi3.NewSchemaRef("", schema)},
		},
	}
}

// ValidateSubmission checks a parsed Submission Record against list.
func ValidateSubmission(list model.List, submission model.Submission) Result {
	result := Result{Valid: true}

	value, err := generic(submission)
	if err != nil {
		return Result{Valid: false, Issues: []Issue{{Message: err.Error()}}}
	}

	err = SubmissionSchema(list).VisitJSON(value, openapi3.MultiErrors())
	if err == nil {
		return result
	}

	result.Valid = false
	var multi openapi3.MultiError
	if errors.As(err, &multi) {
		for _, item := range multi {
			result.Issues = append(result.Issues, issueFromError(item))
		}
	} else {
		result.Issues = append(result.Issues, issueFromError(err))
	}
	return result
}

// generic round-trips through JSON so values have the shapes VisitJSON
// expects (float64 numbers, map[string]any objects).
func generic(submission model.Submission) (any, error) {
	if submission == nil {
		submission = model.Submission{}
	}
	payload, err := json.Marshal(submission)
	if err != nil {
		return nil, fmt.Errorf("validation: encode submission: %w", err)
	}
	var out any
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("validation: decode submission: %w", err)
	}
	return out, nil
}

var missingPropertyPattern = regexp.MustCompile(`property "([^"]+)" is missing`)

func issueFromError(err error) Issue {
	if err == nil {
		return Issue{Message: "unknown error"}
	}

	var schemaErr *openapi3.SchemaError
	if !errors.As(err, &schemaErr) {
		return Issue{Message: strings.TrimSpace(err.Error())}
	}

	pointer := schemaErr.JSONPointer()
	field := strings.Join(pointer, ".")
	if field == "" {
		if m := missingPropertyPattern.FindStringSubmatch(schemaErr.Reason); m != nil {
			field = m[1]
		}
	}
	path := ""
	if field != "" {
		path = "/" + strings.ReplaceAll(field, ".", "/")
	}
	return Issue{
		Path:    path,
		Field:   field,
		Message: strings.TrimSpace(schemaErr.Reason),
	}
}
