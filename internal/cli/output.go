package cli

import (
	"encoding/json"
	"fmt"
	"io"

	jmespath "github.com/jmespath-community/go-jmespath"
)

const (
	outputText = "text"
	outputJSON = "json"
)

func validateOutput(output, query string) error {
	if output != outputText && output != outputJSON {
		return fmt.Errorf("unsupported output format %q: use %q or %q", output, outputText, outputJSON)
	}
	if query == "" {
		return nil
	}
	if _, err := jmespath.Compile(query); err != nil {
		return fmt.Errorf("invalid --query expression: %w", err)
	}
	return nil
}

// render writes v as indented JSON, filtered through --query when set.
func (a *app) render(v any) error {
	if a.query == "" {
		return printJSON(a.out, v)
	}

	// Round-trip through JSON so the query sees the same field names as the output.
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("decode output: %w", err)
	}

	filtered, err := jmespath.Search(a.query, data)
	if err != nil {
		return fmt.Errorf("apply --query: %w", err)
	}
	return printJSON(a.out, filtered)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
