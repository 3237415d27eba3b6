package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// validateResponse checks raw model output against the request schema.
// A nil schema accepts anything. Failures come back as *ErrInvalidResponse
// carrying the raw content for the call log.
func validateResponse(schema *Schema, raw json.RawMessage) error {
	if schema == nil {
		return nil
	}

	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return &ErrInvalidResponse{
			Content: raw,
			Err:     fmt.Errorf("invalid JSON: %w", err),
		}
	}

	compiled, err := schema.compile()
	if err != nil {
		return &ErrInvalidResponse{
			Content: raw,
			Err:     fmt.Errorf("compile schema %q: %w", schema.Name, err),
		}
	}

	if err := compiled.Validate(parsed); err != nil {
		return &ErrInvalidResponse{
			Content: raw,
			Err:     fmt.Errorf("schema validation failed: %w", err),
		}
	}

	return nil
}

// compile builds the validator form of the definition, once per Schema.
// The definition is round-tripped through JSON because the compiler wants
// plain JSON values and hand-written Go maps hold ints where JSON has
// only numbers.
func (s *Schema) compile() (*jsonschema.Schema, error) {
	s.once.Do(func() {
		raw, err := json.Marshal(s.Definition)
		if err != nil {
			s.compileErr = fmt.Errorf("marshal definition: %w", err)
			return
		}
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
		if err != nil {
			s.compileErr = fmt.Errorf("parse definition: %w", err)
			return
		}

		c := jsonschema.NewCompiler()
		url := fmt.Sprintf("schema://%s.json", s.Name)
		if err := c.AddResource(url, doc); err != nil {
			s.compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		s.compiled, s.compileErr = c.Compile(url)
	})
	return s.compiled, s.compileErr
}
