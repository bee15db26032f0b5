package document

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/roach88/variantforge/internal/schema"
)

// File is the serialized form of a document: one page holding component
// sets. It can be written as YAML, JSON or CUE.
type File struct {
	Page       string          `yaml:"page" json:"page"`
	Components []ComponentSpec `yaml:"components" json:"components"`
}

// ComponentSpec describes a component set.
type ComponentSpec struct {
	ID                 string         `yaml:"id" json:"id"`
	Name               string         `yaml:"name" json:"name"`
	Path               string         `yaml:"path,omitempty" json:"path,omitempty"`
	Remote             bool           `yaml:"remote,omitempty" json:"remote,omitempty"`
	Width              float64        `yaml:"width,omitempty" json:"width,omitempty"`
	Height             float64        `yaml:"height,omitempty" json:"height,omitempty"`
	DocumentationLinks []string       `yaml:"documentation_links,omitempty" json:"documentation_links,omitempty"`
	Properties         []PropertySpec `yaml:"properties,omitempty" json:"properties,omitempty"`
	Variants           []VariantSpec  `yaml:"variants,omitempty" json:"variants,omitempty"`
}

// PropertySpec describes one property definition. Type is the host kind
// string (BOOLEAN, VARIANT, TEXT).
type PropertySpec struct {
	Name    string   `yaml:"name" json:"name"`
	Type    string   `yaml:"type" json:"type"`
	Options []string `yaml:"options,omitempty" json:"options,omitempty"`
	Default string   `yaml:"default,omitempty" json:"default,omitempty"`
}

// VariantSpec describes a variant child of a component set. Values maps each
// VARIANT property to the option this child represents.
type VariantSpec struct {
	ID      string            `yaml:"id,omitempty" json:"id,omitempty"`
	Name    string            `yaml:"name,omitempty" json:"name,omitempty"`
	Values  map[string]string `yaml:"values,omitempty" json:"values,omitempty"`
	Width   float64           `yaml:"width,omitempty" json:"width,omitempty"`
	Height  float64           `yaml:"height,omitempty" json:"height,omitempty"`
	Exposed []ExposedSpec     `yaml:"exposed_instances,omitempty" json:"exposed_instances,omitempty"`
}

// ExposedSpec describes a nested exposed instance inside a variant child.
type ExposedSpec struct {
	ID         string         `yaml:"id,omitempty" json:"id,omitempty"`
	Name       string         `yaml:"name" json:"name"`
	Remote     bool           `yaml:"remote,omitempty" json:"remote,omitempty"`
	Properties []PropertySpec `yaml:"properties,omitempty" json:"properties,omitempty"`
}

// BuildSchema converts property specs into a schema, preserving order.
func BuildSchema(specs []PropertySpec) (schema.Schema, error) {
	props := make([]schema.Property, 0, len(specs))
	for _, ps := range specs {
		kind, err := schema.ParseKind(ps.Type)
		if err != nil {
			return schema.Schema{}, errors.Wrapf(err, "property %q", ps.Name)
		}
		var def schema.PropertyDefinition
		switch kind {
		case schema.KindBoolean:
			def = schema.Boolean()
		case schema.KindVariant:
			def = schema.Variant(ps.Options...)
		case schema.KindText:
			def = schema.Text(ps.Default)
		}
		props = append(props, schema.P(ps.Name, def))
	}
	return schema.NewSchema(props...)
}

// LoadFile reads a document from path. The format is chosen by extension:
// .yaml/.yml, .json or .cue.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read document %s", path)
	}
	f, err := Parse(data, filepath.Ext(path), path)
	if err != nil {
		return nil, errors.Wrapf(err, "parse document %s", path)
	}
	return f, nil
}

// Parse decodes document bytes in the format named by ext. name is used in
// diagnostics.
func Parse(data []byte, ext, name string) (*File, error) {
	var f File
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, err
		}
	case ".json":
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, err
		}
	case ".cue":
		v := cuecontext.New().CompileBytes(data, cue.Filename(name))
		if err := v.Err(); err != nil {
			return nil, errors.Wrap(err, "compile CUE")
		}
		if err := v.Decode(&f); err != nil {
			return nil, errors.Wrap(err, "decode CUE")
		}
	default:
		return nil, errors.Newf("unsupported document format %q", ext)
	}
	return &f, nil
}
