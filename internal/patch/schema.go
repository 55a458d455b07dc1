// Package patch decodes the JSON wire form of a tree update. Documents are
// validated against a schema first, so the decoder only deals with
// well-shaped input and can reserve its own errors for semantic problems
// like unknown role or attribute names.
package patch

import (
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

func idSchema() *jsonschema.Schema {
	return &jsonschema.Schema{Type: "integer", Minimum: ptr(0.0)}
}

func attrMapSchema(valueType string) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:                 "object",
		AdditionalProperties: &jsonschema.Schema{Type: valueType},
	}
}

func attrListMapSchema(itemType string) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		AdditionalProperties: &jsonschema.Schema{
			Type:  "array",
			Items: &jsonschema.Schema{Type: itemType},
		},
	}
}

var selectionSchema = &jsonschema.Schema{
	Type: "object",
	Properties: map[string]*jsonschema.Schema{
		"isBackward":     {Type: "boolean"},
		"anchorId":       idSchema(),
		"anchorOffset":   {Type: "integer"},
		"anchorAffinity": {Enum: []any{"downstream", "upstream"}},
		"focusId":        idSchema(),
		"focusOffset":    {Type: "integer"},
		"focusAffinity":  {Enum: []any{"downstream", "upstream"}},
	},
}

var treeDataSchema = &jsonschema.Schema{
	Type: "object",
	Properties: map[string]*jsonschema.Schema{
		"treeId":       {Type: "string"},
		"parentTreeId": {Type: "string"},
		"title":        {Type: "string"},
		"focusId":      idSchema(),
		"selection":    selectionSchema,
	},
}

var boundsSchema = &jsonschema.Schema{
	Type: "object",
	Properties: map[string]*jsonschema.Schema{
		"offsetContainerId": idSchema(),
		"x":                 {Type: "number"},
		"y":                 {Type: "number"},
		"width":             {Type: "number"},
		"height":            {Type: "number"},
	},
}

var nodeSchema = &jsonschema.Schema{
	Type:     "object",
	Required: []string{"id", "role"},
	Properties: map[string]*jsonschema.Schema{
		"id":   {Type: "integer", Minimum: ptr(1.0)},
		"role": {Type: "string"},
		"states": {
			Type:  "array",
			Items: &jsonschema.Schema{Type: "string"},
		},
		"childIds": {
			Type:  "array",
			Items: idSchema(),
		},
		"stringAttributes":     attrMapSchema("string"),
		"boolAttributes":       attrMapSchema("boolean"),
		"intAttributes":        attrMapSchema("integer"),
		"floatAttributes":      attrMapSchema("number"),
		"intListAttributes":    attrListMapSchema("integer"),
		"stringListAttributes": attrListMapSchema("string"),
		"bounds":               boundsSchema,
	},
}

var updateSchema = &jsonschema.Schema{
	Type:     "object",
	Required: []string{"rootId", "nodes"},
	Properties: map[string]*jsonschema.Schema{
		"rootId":        idSchema(),
		"nodeIdToClear": idSchema(),
		"treeData":      treeDataSchema,
		"nodes": {
			Type:  "array",
			Items: nodeSchema,
		},
	},
}

var resolvedSchema = sync.OnceValues(func() (*jsonschema.Resolved, error) {
	return updateSchema.Resolve(nil)
})

func ptr[T any](v T) *T { return &v }
