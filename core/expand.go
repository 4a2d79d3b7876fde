package core

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"
)

// ConnectionParams describe a connection. Every field may be a template
// which reads the environment, e.g.
//
//	bigquery://{{ env "BQ_PROJECT" }}?json-key-file={{ required "BQ_KEY_FILE" }}
type ConnectionParams struct {
	ID   ConnectionID
	Name string
	Type string
	URL  string
}

var expandFuncs = template.FuncMap{
	"env": os.Getenv,
	"envOr": func(name, fallback string) string {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			return v
		}
		return fallback
	},
	"required": func(name string) (string, error) {
		v := os.Getenv(name)
		if v == "" {
			return "", fmt.Errorf("environment variable %s is not set", name)
		}
		return v, nil
	},
}

// Expand returns a copy of the parameters with every template evaluated.
func (p ConnectionParams) Expand() (ConnectionParams, error) {
	id, err := expandField("id", string(p.ID))
	if err != nil {
		return ConnectionParams{}, err
	}
	name, err := expandField("name", p.Name)
	if err != nil {
		return ConnectionParams{}, err
	}
	typ, err := expandField("type", p.Type)
	if err != nil {
		return ConnectionParams{}, err
	}
	url, err := expandField("url", p.URL)
	if err != nil {
		return ConnectionParams{}, err
	}

	return ConnectionParams{
		ID:   ConnectionID(id),
		Name: name,
		Type: typ,
		URL:  url,
	}, nil
}

func expandField(field, value string) (string, error) {
	if !strings.Contains(value, "{{") {
		return value, nil
	}

	tmpl, err := template.New(field).Funcs(expandFuncs).Parse(value)
	if err != nil {
		return "", fmt.Errorf("connection %s: %w", field, err)
	}

	var out bytes.Buffer
	if err := tmpl.Execute(&out, nil); err != nil {
		return "", fmt.Errorf("connection %s: %w", field, err)
	}

	return out.String(), nil
}
