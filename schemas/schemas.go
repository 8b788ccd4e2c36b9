// Package schemas embeds the JSON Schemas used to validate persona catalogs,
// judge evaluations and project configuration.
package schemas

import _ "embed"

//go:embed persona-catalog.schema.json
var PersonaCatalogSchemaJSON string

//go:embed evaluation.schema.json
var EvaluationSchemaJSON string

//go:embed project-config.schema.json
var ProjectConfigSchemaJSON string
