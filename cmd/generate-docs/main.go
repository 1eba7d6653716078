// generate-docs generates configuration documentation from the config
// structs using reflection, so the docs cannot drift from the code.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/anhed0nic/cilens/internal/config"
)

// FieldDoc represents documentation for a single field
type FieldDoc struct {
	Name        string
	Type        string
	Default     string
	Description string
	ValidValues []string
}

// SectionDoc represents documentation for a config section
type SectionDoc struct {
	Name        string
	Description string
	Fields      []FieldDoc
}

func main() {
	if len(os.Args) > 1 && os.Args[1] == "--help" {
		fmt.Println("Usage: generate-docs")
		fmt.Println("Generates documentation from config structs:")
		fmt.Println("  - config.example.toml")
		fmt.Println("  - config.schema.json")
		fmt.Println("  - docs/configuration.md")
		return
	}

	docs := buildDocumentation()

	if err := generateExampleTOML(docs); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating config.example.toml: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("✓ Generated config.example.toml")

	if err := generateJSONSchema(docs); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating config.schema.json: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("✓ Generated config.schema.json")

	if err := generateMarkdownDocs(docs); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating docs/configuration.md: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("✓ Generated docs/configuration.md")
}

func buildDocumentation() []SectionDoc {
	defaults := config.GetDefaults()

	return []SectionDoc{
		extractSection("gitlab", "GitLab collection settings", defaults.GitLab),
		extractSection("github", "GitHub Actions collection settings", defaults.GitHub),
		extractSection("output", "Report rendering settings", defaults.Output),
	}
}

// extractSection uses reflection to extract field documentation from struct
// tags; the section's defaults supply the documented default values.
func extractSection(name, description string, defaults interface{}) SectionDoc {
	section := SectionDoc{
		Name:        name,
		Description: description,
		Fields:      []FieldDoc{},
	}

	t := reflect.TypeOf(defaults)
	v := reflect.ValueOf(defaults)

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		docTag := field.Tag.Get("doc")
		if docTag == "" {
			continue
		}
		tomlTag := field.Tag.Get("toml")
		if tomlTag == "" {
			continue
		}

		fieldDoc := FieldDoc{
			Name:        tomlTag,
			Type:        getFieldType(field.Type),
			Description: docTag,
			Default:     getDefaultValue(v.Field(i), field.Type),
		}

		if enumTag := field.Tag.Get("enum"); enumTag != "" {
			fieldDoc.ValidValues = strings.Split(enumTag, ",")
		}

		section.Fields = append(section.Fields, fieldDoc)
	}

	return section
}

// getFieldType returns a string representation of the field type
func getFieldType(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "int"
	case reflect.Float32, reflect.Float64:
		return "float"
	case reflect.Bool:
		return "bool"
	case reflect.Ptr:
		return getFieldType(t.Elem())
	default:
		return t.String()
	}
}

// getDefaultValue returns a string representation of the default value
func getDefaultValue(v reflect.Value, t reflect.Type) string {
	if t.Kind() == reflect.Ptr {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return fmt.Sprintf("%d", v.Int())
	case reflect.Float32, reflect.Float64:
		return fmt.Sprintf("%g", v.Float())
	case reflect.Bool:
		if v.Bool() {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

func generateExampleTOML(docs []SectionDoc) error {
	var sb strings.Builder

	sb.WriteString(`# =============================================================================
# cilens Configuration Reference
# =============================================================================
# Every available option with its default value. Copy the sections you need
# into your own cilens.toml; everything is optional.
#
# Quick start:
#   [gitlab]
#   project-path = "group/project"
# =============================================================================

`)

	for _, section := range docs {
		sb.WriteString("# -----------------------------------------------------------------------------\n")
		sb.WriteString(fmt.Sprintf("# [%s] - %s\n", section.Name, section.Description))
		sb.WriteString("# -----------------------------------------------------------------------------\n\n")
		sb.WriteString(fmt.Sprintf("[%s]\n", section.Name))

		for _, field := range section.Fields {
			sb.WriteString(fmt.Sprintf("# %s\n", field.Description))
			sb.WriteString(fmt.Sprintf("# Default: %s\n", field.Default))
			if len(field.ValidValues) > 0 {
				sb.WriteString(fmt.Sprintf("# Valid values: %s\n", strings.Join(field.ValidValues, ", ")))
			}

			value := field.Default
			if field.Type == "string" && value != "" {
				value = fmt.Sprintf("%q", value)
			}
			if value == "" {
				sb.WriteString(fmt.Sprintf("# %s = \n", field.Name))
			} else {
				sb.WriteString(fmt.Sprintf("%s = %s\n", field.Name, value))
			}
			sb.WriteString("\n")
		}

		sb.WriteString("\n")
	}

	return os.WriteFile("config.example.toml", []byte(sb.String()), 0644)
}

func generateJSONSchema(docs []SectionDoc) error {
	schema := map[string]interface{}{
		"$schema":     "http://json-schema.org/draft-07/schema#",
		"title":       "cilens Configuration",
		"description": "Configuration schema for the cilens pipeline analytics CLI",
		"type":        "object",
		"properties":  make(map[string]interface{}),
	}

	properties := schema["properties"].(map[string]interface{})

	for _, section := range docs {
		sectionProps := map[string]interface{}{
			"type":        "object",
			"description": section.Description,
			"properties":  make(map[string]interface{}),
		}

		sectionFields := sectionProps["properties"].(map[string]interface{})
		for _, field := range section.Fields {
			fieldSchema := map[string]interface{}{
				"description": field.Description,
			}

			switch field.Type {
			case "string":
				fieldSchema["type"] = "string"
			case "int":
				fieldSchema["type"] = "integer"
			case "float":
				fieldSchema["type"] = "number"
			case "bool":
				fieldSchema["type"] = "boolean"
			}

			if field.Default != "" {
				switch field.Type {
				case "string":
					fieldSchema["default"] = field.Default
				case "int":
					var intVal int
					_, _ = fmt.Sscanf(field.Default, "%d", &intVal)
					fieldSchema["default"] = intVal
				case "float":
					var floatVal float64
					_, _ = fmt.Sscanf(field.Default, "%g", &floatVal)
					fieldSchema["default"] = floatVal
				case "bool":
					fieldSchema["default"] = field.Default == "true"
				}
			}

			if len(field.ValidValues) > 0 {
				fieldSchema["enum"] = field.ValidValues
			}

			sectionFields[field.Name] = fieldSchema
		}

		properties[section.Name] = sectionProps
	}

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile("config.schema.json", data, 0644)
}

func generateMarkdownDocs(docs []SectionDoc) error {
	var sb strings.Builder

	sb.WriteString(`# Configuration

cilens reads an optional ` + "`cilens.toml`" + ` from the working directory, or the
file given with ` + "`--config`" + `. Command-line flags override the config file;
the config file overrides built-in defaults. Unknown keys are rejected.

Generate a starter file with ` + "`cilens init`" + `; check an existing one with
` + "`cilens validate`" + `.

`)

	for _, section := range docs {
		sb.WriteString("### `[" + section.Name + "]`\n\n")
		sb.WriteString(section.Description + "\n\n")

		sb.WriteString("| Field | Type | Default | Description |\n")
		sb.WriteString("|-------|------|---------|-------------|\n")

		for _, field := range section.Fields {
			defaultVal := field.Default
			if defaultVal == "" {
				defaultVal = "-"
			}
			desc := field.Description
			if len(field.ValidValues) > 0 {
				desc += fmt.Sprintf(" (valid: `%s`)", strings.Join(field.ValidValues, "`, `"))
			}
			sb.WriteString(fmt.Sprintf("| `%s` | %s | `%s` | %s |\n",
				field.Name, field.Type, defaultVal, desc))
		}

		sb.WriteString("\n")
	}

	if err := os.MkdirAll("docs", 0755); err != nil {
		return err
	}

	return os.WriteFile("docs/configuration.md", []byte(sb.String()), 0644)
}
