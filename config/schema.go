package config

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
)

// Schema describes the JSON configuration document. Every field is optional; missing fields
// keep their defaults.
func Schema() *jsonschema.Schema {
	r := &jsonschema.Reflector{RequiredFromJSONSchemaTags: true}
	return r.Reflect(&Config{})
}

// SchemaJSON returns Schema as indented JSON.
func SchemaJSON() ([]byte, error) {
	out, err := json.MarshalIndent(Schema(), "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode config schema")
	}
	return out, nil
}
