package catalog

import (
	"bytes"
	"path"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/dynattr/pkg/domain/model"
	"github.com/secmon-lab/dynattr/pkg/domain/types"
	"gopkg.in/yaml.v3"
)

var (
	// ErrUnsupportedFormat is returned for a catalog file that is neither TOML nor YAML
	ErrUnsupportedFormat = goerr.New("unsupported catalog format")
	// ErrStorageNotConfigured is returned for a gs:// path without a storage client
	ErrStorageNotConfigured = goerr.New("cloud storage client is not configured")
)

// Catalog is a declarative set of templates and scope-bound fields
type Catalog struct {
	Templates []TemplateEntry `toml:"template" yaml:"template"`
	Fields    []FieldEntry    `toml:"field" yaml:"field"`
}

// TemplateEntry declares one template. Active defaults to true.
type TemplateEntry struct {
	Code        types.TemplateCode  `toml:"code" yaml:"code"`
	Name        string              `toml:"name" yaml:"name"`
	Description string              `toml:"description,omitempty" yaml:"description,omitempty"`
	Industry    string              `toml:"industry,omitempty" yaml:"industry,omitempty"`
	Color       string              `toml:"color,omitempty" yaml:"color,omitempty"`
	AppliesTo   types.Scope         `toml:"applies_to,omitempty" yaml:"applies_to,omitempty"`
	Active      *bool               `toml:"active,omitempty" yaml:"active,omitempty"`
	Fields      []model.FieldConfig `toml:"fields" yaml:"fields"`

	// Source is the file the entry was read from
	Source string `toml:"-" yaml:"-"`
}

// Template converts the entry into a domain template
func (e TemplateEntry) Template() *model.Template {
	t := &model.Template{
		Code:         e.Code,
		Name:         e.Name,
		Description:  e.Description,
		Industry:     e.Industry,
		Color:        e.Color,
		AppliesTo:    e.AppliesTo,
		FieldConfigs: e.Fields,
		Active:       e.Active == nil || *e.Active,
	}
	return t.Clone()
}

// FieldEntry declares one field definition bound to a scope
type FieldEntry struct {
	AppliesTo         types.Scope `toml:"applies_to" yaml:"applies_to"`
	Active            *bool       `toml:"active,omitempty" yaml:"active,omitempty"`
	model.FieldConfig `yaml:",inline"`

	Source string `toml:"-" yaml:"-"`
}

// Definition converts the entry into a field definition for its scope
func (e FieldEntry) Definition() *model.FieldDefinition {
	fd := e.FieldConfig.Definition(e.AppliesTo)
	fd.Active = e.Active == nil || *e.Active
	return fd
}

// Merge appends the entries of other, keeping their order
func (c *Catalog) Merge(other *Catalog) {
	if other == nil {
		return
	}
	c.Templates = append(c.Templates, other.Templates...)
	c.Fields = append(c.Fields, other.Fields...)
}

// Parse decodes a catalog file. The format is chosen by the extension of
// name: .toml, or .yaml / .yml. Unknown keys are rejected.
func Parse(name string, data []byte) (*Catalog, error) {
	var c Catalog

	switch ext := strings.ToLower(path.Ext(name)); ext {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&c); err != nil {
			return nil, goerr.Wrap(err, "failed to parse TOML catalog", goerr.V("path", name))
		}

	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&c); err != nil && !isEOF(err) {
			return nil, goerr.Wrap(err, "failed to parse YAML catalog", goerr.V("path", name))
		}

	default:
		return nil, goerr.Wrap(ErrUnsupportedFormat, "cannot parse catalog",
			goerr.V("path", name),
			goerr.V("extension", ext))
	}

	for i := range c.Templates {
		c.Templates[i].Source = name
	}
	for i := range c.Fields {
		c.Fields[i].Source = name
	}
	return &c, nil
}

// IsCatalogFile reports whether name has a catalog extension
func IsCatalogFile(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".toml", ".yaml", ".yml":
		return true
	}
	return false
}
