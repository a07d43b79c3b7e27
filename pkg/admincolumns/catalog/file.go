package catalog

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/tendant/admin-columns/pkg/admincolumns"
)

// File is the on-disk registry layout (YAML, JSON or TOML).
//
//	default_hidden: [guid]
//	content_types:
//	  - name: post
//	    label: Posts
//	    columns:
//	      - {key: cb, label: '<input type="checkbox" />'}
//	      - {key: title, label: Title}
//	    default_hidden: [tags]
type File struct {
	DefaultHidden []string          `yaml:"default_hidden" json:"default_hidden" toml:"default_hidden" env:"CATALOG_DEFAULT_HIDDEN" env-separator:","`
	ContentTypes  []FileContentType `yaml:"content_types" json:"content_types" toml:"content_types"`
}

// FileContentType describes one content type in a registry file. Public and
// show_ui default to true when omitted.
type FileContentType struct {
	Name          string       `yaml:"name" json:"name" toml:"name"`
	Label         string       `yaml:"label" json:"label" toml:"label"`
	Public        *bool        `yaml:"public" json:"public" toml:"public"`
	ShowUI        *bool        `yaml:"show_ui" json:"show_ui" toml:"show_ui"`
	Columns       []FileColumn `yaml:"columns" json:"columns" toml:"columns"`
	DefaultHidden []string     `yaml:"default_hidden" json:"default_hidden" toml:"default_hidden"`
}

// FileColumn is a single column entry in a registry file
type FileColumn struct {
	Key   string `yaml:"key" json:"key" toml:"key"`
	Label string `yaml:"label" json:"label" toml:"label"`
}

// LoadFile reads a registry file and builds a Registry from it
func LoadFile(path string) (*Registry, error) {
	var file File
	if err := cleanenv.ReadConfig(path, &file); err != nil {
		return nil, fmt.Errorf("failed to read catalog file %s: %w", path, err)
	}
	return file.Registry()
}

// Registry builds a Registry from the file contents
func (f File) Registry() (*Registry, error) {
	r := NewRegistry()
	r.SetDefaultHidden(toKeys(f.DefaultHidden)...)

	for _, fct := range f.ContentTypes {
		ct := ContentType{
			Name:          admincolumns.SanitizeContentType(fct.Name),
			Label:         fct.Label,
			Public:        boolOr(fct.Public, true),
			ShowUI:        boolOr(fct.ShowUI, true),
			DefaultHidden: toKeys(fct.DefaultHidden),
		}
		if ct.Label == "" {
			ct.Label = string(ct.Name)
		}
		for _, col := range fct.Columns {
			ct.Columns = append(ct.Columns, admincolumns.Column{Key: admincolumns.ColumnKey(col.Key), Label: col.Label})
		}
		if err := r.Register(ct); err != nil {
			return nil, err
		}
	}

	return r, nil
}

func toKeys(values []string) []admincolumns.ColumnKey {
	keys := make([]admincolumns.ColumnKey, 0, len(values))
	for _, v := range values {
		if v != "" {
			keys = append(keys, admincolumns.ColumnKey(v))
		}
	}
	return keys
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
