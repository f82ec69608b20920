package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/invopop/jsonschema"
	validator "github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrCorrupt marks a stored document that cannot be used.
var ErrCorrupt = errors.New("corrupt snapshot")

const schemaResource = "snapshot.schema.json"

// GenerateSchema reflects the JSON Schema of the persisted snapshot.
func GenerateSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		Anonymous: true,
		// Newer builds may add fields; older builds must still load the file.
		AllowAdditionalProperties:  true,
		ExpandedStruct:             true,
		RequiredFromJSONSchemaTags: true,
	}

	schema := r.Reflect(&Snapshot{})
	schema.Title = "Sticky snapshot"
	schema.Description = "Notes and preferences persisted by sticky."

	return json.MarshalIndent(schema, "", "  ")
}

var compiledSchema = sync.OnceValues(func() (*validator.Schema, error) {
	data, err := GenerateSchema()
	if err != nil {
		return nil, fmt.Errorf("generate schema: %w", err)
	}
	compiler := validator.NewCompiler()
	if err := compiler.AddResource(schemaResource, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	schema, err := compiler.Compile(schemaResource)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
})

// Validate checks raw JSON against the snapshot schema.
func Validate(data []byte) error {
	schema, err := compiledSchema()
	if err != nil {
		return err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("%w: malformed json: %v", ErrCorrupt, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after document", ErrCorrupt)
	}

	if err := schema.Validate(doc); err != nil {
		var verr *validator.ValidationError
		if errors.As(err, &verr) {
			var messages []string
			collectErrors(verr, &messages)
			return fmt.Errorf("%w: schema validation failed:\n%s", ErrCorrupt, strings.Join(messages, "\n"))
		}
		return fmt.Errorf("%w: schema validation failed: %v", ErrCorrupt, err)
	}
	return nil
}

func collectErrors(err *validator.ValidationError, messages *[]string) {
	if len(err.Causes) == 0 {
		loc := err.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		*messages = append(*messages, fmt.Sprintf("- %s: %s", loc, err.Message))
	}
	for _, cause := range err.Causes {
		collectErrors(cause, messages)
	}
}

// Encode renders s the way it is stored: indented JSON, notes never null.
func Encode(s Snapshot) ([]byte, error) {
	if s.Notes == nil {
		s.Notes = []Note{}
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// Decode parses a stored document. Every failure wraps ErrCorrupt.
func Decode(data []byte) (Snapshot, error) {
	if !utf8.Valid(data) {
		return Snapshot{}, fmt.Errorf("%w: invalid utf-8", ErrCorrupt)
	}
	if err := Validate(data); err != nil {
		return Snapshot{}, err
	}
	s := Snapshot{Window: Window{AlwaysOnTop: true}}
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return s, nil
}
