package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/alqadi/procuredocs"
	"github.com/alqadi/procuredocs/doctpl"
)

const templatePrefix = "template://"

// RegisterResources adds the template resources backed by eng.
//
//   - templates://index lists every template
//   - template://{id} returns one template as a YAML list, the form the
//     registry loads from DOCS_TEMPLATES_FILE
func RegisterResources(s *Server, eng *procuredocs.Engine) {
	s.AddResource(Resource{
		URI:         "templates://index",
		Name:        "Document templates",
		Description: "Every registered template with its category, language, version and default flag.",
		MIMEType:    "application/json",
		Handler: func(ctx context.Context, uri string) ([]ResourceContent, error) {
			type entry struct {
				ID        string          `json:"id"`
				URI       string          `json:"uri"`
				Category  doctpl.Category `json:"category"`
				Language  doctpl.Language `json:"language"`
				Version   int             `json:"version"`
				IsActive  bool            `json:"isActive"`
				IsDefault bool            `json:"isDefault"`
			}
			var out []entry
			for _, t := range eng.Registry().Templates() {
				out = append(out, entry{t.ID, templatePrefix + t.ID, t.Category, t.Language, t.Version, t.IsActive, t.IsDefault})
			}
			b, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return nil, err
			}
			return []ResourceContent{{URI: uri, MIMEType: "application/json", Text: string(b)}}, nil
		},
	})

	s.AddResourceTemplate(ResourceTemplate{
		URITemplate: templatePrefix + "{id}",
		Name:        "Document template",
		Description: "A template definition with its sections and variables, as YAML.",
		MIMEType:    "application/yaml",
		Prefix:      templatePrefix,
		Handler: func(ctx context.Context, uri string) ([]ResourceContent, error) {
			id := strings.TrimPrefix(uri, templatePrefix)
			for _, t := range eng.Registry().Templates() {
				if t.ID != id {
					continue
				}
				b, err := yaml.Marshal([]*doctpl.Template{t})
				if err != nil {
					return nil, fmt.Errorf("encoding template %q: %w", id, err)
				}
				return []ResourceContent{{URI: uri, MIMEType: "application/yaml", Text: string(b)}}, nil
			}
			return nil, fmt.Errorf("%w: %q", procuredocs.ErrTemplateNotFound, id)
		},
	})
}
