package registry

import (
	"fmt"
	"os"

	"github.com/alqadi/procuredocs/doctpl"
)

// LoadFile reads templates from a YAML or JSON file. The file holds either a
// list of templates or a mapping with a "templates" key.
func LoadFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("registry: %w", err)
	}
	defer f.Close()

	ts, err := doctpl.DecodeTemplates(f)
	if err != nil {
		return Config{}, fmt.Errorf("registry: loading %s: %w", path, err)
	}
	return Config{Templates: ts}, nil
}

// Merge returns a config holding the templates of every cfg in order.
func Merge(cfgs ...Config) Config {
	var out Config
	for _, c := range cfgs {
		out.Templates = append(out.Templates, c.Templates...)
	}
	return out
}
