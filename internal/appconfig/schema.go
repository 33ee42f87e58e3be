package appconfig

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var schemaDocument string

// ValidateDocument checks a raw JSON config document against the embedded schema.
// All violations are reported in one error.
func ValidateDocument(data []byte) error {
	result, err := gojsonschema.Validate(gojsonschema.NewStringLoader(schemaDocument), gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	if result.Valid() {
		return nil
	}
	issues := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		issues = append(issues, e.String())
	}
	return errors.New("schema violations: " + strings.Join(issues, "; "))
}

// ValidateFile reads path and validates it with ValidateDocument.
func ValidateFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %q: %w", path, err)
	}
	return ValidateDocument(data)
}
