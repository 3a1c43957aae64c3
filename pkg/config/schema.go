package config

import (
	// blank import for embeds
	_ "embed"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"sigs.k8s.io/yaml"
)

//go:embed schema/stack_config.json
var stackConfigSchema []byte

//go:embed schema/swarm_config.json
var swarmConfigSchema []byte

// validateSchema checks the raw YAML document at filename against schema.
// The most specific violation is returned as a *ValidationError.
func validateSchema(filename string, contents []byte, schema []byte) error {
	doc, err := yaml.YAMLToJSON(contents)
	if err != nil {
		return &ParseError{Filename: filename, Err: err}
	}
	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schema), gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return err
	}
	if result.Valid() {
		return nil
	}
	return schemaError(filename, mostSpecificError(result.Errors()))
}

func schemaError(filename string, err gojsonschema.ResultError) *ValidationError {
	field := err.Field()
	if field == "(root)" {
		field = ""
	}
	message := err.Description()
	switch err.Type() {
	case "required":
		field = joinField(field, detail(err, "property"))
		message = "must be set"
	case "additional_property_not_allowed":
		field = joinField(field, detail(err, "property"))
		message = "is not a known option"
	case "invalid_type":
		if expected := detail(err, "expected"); expected != "" {
			message = "must be a " + humanReadableType(expected)
		}
	}
	return &ValidationError{Filename: filename, Field: field, Message: message}
}

func detail(err gojsonschema.ResultError, key string) string {
	v, _ := err.Details()[key].(string)
	return v
}

func joinField(parent string, child string) string {
	if parent == "" {
		return child
	}
	if child == "" {
		return parent
	}
	return parent + "." + child
}

// mostSpecificError picks the error deepest in the document. Type errors win ties.
func mostSpecificError(errors []gojsonschema.ResultError) gojsonschema.ResultError {
	best := 0
	for i, err := range errors {
		if specificity(err) > specificity(errors[best]) {
			best = i
			continue
		}
		if specificity(err) == specificity(errors[best]) && err.Type() == "invalid_type" && errors[best].Type() != "invalid_type" {
			best = i
		}
	}
	return errors[best]
}

func specificity(err gojsonschema.ResultError) int {
	return len(strings.Split(err.Field(), "."))
}

func humanReadableType(definition string) string {
	if strings.HasPrefix(definition, "[") {
		allTypes := strings.Split(definition[1:len(definition)-1], ",")
		for i, t := range allTypes {
			allTypes[i] = humanReadableType(t)
		}
		if len(allTypes) == 1 {
			return allTypes[0]
		}
		return strings.Join(allTypes[:len(allTypes)-1], ", ") + " or " + allTypes[len(allTypes)-1]
	}
	switch definition {
	case "object":
		return "mapping"
	case "array":
		return "list"
	}
	return definition
}
