package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

func validateOutputFormat(outputFormat string) error {
	switch strings.ToLower(outputFormat) {
	case "table":
	case "json":
	case "yaml":
	default:
		return errors.Errorf("unknown output format %q", outputFormat)
	}
	return nil
}

// printStructured writes v as json or yaml. It reports false for the table
// format, which every command renders itself.
func printStructured(w io.Writer, outputFormat string, v interface{}) (bool, error) {
	switch strings.ToLower(outputFormat) {
	case "json":
		prettyJSON, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return true, errors.Wrap(err, "error formatting output")
		}
		fmt.Fprintln(w, string(prettyJSON))
		return true, nil
	case "yaml":
		// Round-trip through json so field names follow the json tags.
		raw, err := json.Marshal(v)
		if err != nil {
			return true, errors.Wrap(err, "error formatting output")
		}
		var generic interface{}
		if err := yaml.Unmarshal(raw, &generic); err != nil {
			return true, errors.Wrap(err, "error formatting output")
		}
		yamlBytes, err := yaml.Marshal(generic)
		if err != nil {
			return true, errors.Wrap(err, "error formatting output")
		}
		fmt.Fprint(w, string(yamlBytes))
		return true, nil
	}
	return false, nil
}
