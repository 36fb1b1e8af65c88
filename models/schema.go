package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

var ErrInvalidJSON = errors.New("request body must be a JSON object")

type FieldKind int

const (
	NonEmptyString FieldKind = iota
	String
	Number
	NullableString
)

func (k FieldKind) typeName() string {
	switch k {
	case Number:
		return "number"
	case NullableString:
		return "string or null"
	default:
		return "string"
	}
}

func (k FieldKind) constraint() string {
	switch k {
	case NonEmptyString:
		return "must be a non-empty string"
	case Number:
		return "must be a number"
	case NullableString:
		return "must be a string or null"
	default:
		return "must be a string"
	}
}

func (k FieldKind) accepts(v any) bool {
	switch k {
	case NonEmptyString:
		s, ok := v.(string)
		return ok && s != ""
	case String:
		_, ok := v.(string)
		return ok
	case Number:
		_, ok := v.(float64)
		return ok
	case NullableString:
		if v == nil {
			return true
		}
		_, ok := v.(string)
		return ok
	}
	return false
}

type Field struct {
	Name     string
	Kind     FieldKind
	Required bool
}

// Schema describes the fields a resource accepts, in the order their
// validation messages are reported.
type Schema struct {
	Collection string
	Fields     []Field
}

// Payload is a decoded JSON request body before any field is trusted.
type Payload map[string]any

func DecodePayload(r io.Reader) (Payload, error) {
	var p Payload
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if p == nil {
		p = Payload{}
	}
	return p, nil
}

func (p Payload) Has(field string) bool {
	_, ok := p[field]
	return ok
}

// ValidateCreate checks every required field and any optional field that
// was supplied. A nil result means the payload is acceptable.
func (s Schema) ValidateCreate(p Payload) []string {
	var errs []string
	for _, f := range s.Fields {
		v, present := p[f.Name]
		switch {
		case f.Required && (!present || !f.Kind.accepts(v)):
			errs = append(errs, fmt.Sprintf("%s is required (%s)", f.Name, f.Kind.typeName()))
		case !f.Required && present && !f.Kind.accepts(v):
			errs = append(errs, fmt.Sprintf("%s %s", f.Name, f.Kind.constraint()))
		}
	}
	return errs
}

// ValidateReplace applies the create rule to the required fields only.
func (s Schema) ValidateReplace(p Payload) []string {
	return s.required().ValidateCreate(p)
}

// ValidatePatch checks only the fields present in the payload.
func (s Schema) ValidatePatch(p Payload) []string {
	var errs []string
	for _, f := range s.Fields {
		if v, present := p[f.Name]; present && !f.Kind.accepts(v) {
			errs = append(errs, fmt.Sprintf("%s %s", f.Name, f.Kind.constraint()))
		}
	}
	return errs
}

// Document keeps the schema fields present in the payload and drops the rest.
func (s Schema) Document(p Payload) bson.M {
	doc := bson.M{}
	for _, f := range s.Fields {
		if v, present := p[f.Name]; present {
			doc[f.Name] = v
		}
	}
	return doc
}

// reservedFields are maintained by the server and never taken from a body.
var reservedFields = map[string]bool{
	"_id":       true,
	"createdAt": true,
	"updatedAt": true,
}

// Merge keeps every payload field except the server-maintained ones and
// operator keys, so a partial update can carry fields outside the schema.
func (s Schema) Merge(p Payload) bson.M {
	doc := bson.M{}
	for k, v := range p {
		if k == "" || reservedFields[k] || strings.HasPrefix(k, "$") {
			continue
		}
		doc[k] = v
	}
	return doc
}

// Replacement keeps only the required fields.
func (s Schema) Replacement(p Payload) bson.M {
	return s.required().Document(p)
}

func (s Schema) required() Schema {
	out := Schema{Collection: s.Collection}
	for _, f := range s.Fields {
		if f.Required {
			out.Fields = append(out.Fields, f)
		}
	}
	return out
}
