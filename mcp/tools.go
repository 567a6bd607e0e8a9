package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"github.com/alqadi/procuredocs"
	"github.com/alqadi/procuredocs/binding"
	"github.com/alqadi/procuredocs/doctpl"
)

// RegisterTools adds the document tools backed by eng to the server.
func RegisterTools(s *Server, eng *procuredocs.Engine) {
	s.AddTool(listCategoriesTool(eng))
	s.AddTool(listVariablesTool(eng))
	s.AddTool(renderDocumentTool(eng))
	s.AddTool(previewDocumentTool(eng))
}

func decodeArgs(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func jsonResult(v any) (ToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ToolResult{}, err
	}
	return ToolResult{Content: []ContentBlock{{Type: "text", Text: string(b)}}}, nil
}

func listCategoriesTool(eng *procuredocs.Engine) Tool {
	return Tool{
		Name:        "list_categories",
		Description: "List the document categories (price_offer, order, invoice, contract) with their active templates and languages.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
		Handler: func(ctx context.Context, _ json.RawMessage) (ToolResult, error) {
			type entry struct {
				ID        string          `json:"id"`
				Language  doctpl.Language `json:"language"`
				IsDefault bool            `json:"isDefault"`
			}
			out := make(map[doctpl.Category][]entry)
			for _, t := range eng.Registry().Templates() {
				if t.IsActive {
					out[t.Category] = append(out[t.Category], entry{t.ID, t.Language, t.IsDefault})
				}
			}
			return jsonResult(out)
		},
	}
}

func listVariablesTool(eng *procuredocs.Engine) Tool {
	return Tool{
		Name:        "list_variables",
		Description: "List the variables a render context must supply for a category.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"category": map[string]any{
					"type":        "string",
					"description": "Document category",
					"enum":        doctpl.Categories,
				},
			},
			"required": []string{"category"},
		},
		Handler: func(ctx context.Context, raw json.RawMessage) (ToolResult, error) {
			var args struct {
				Category doctpl.Category `json:"category"`
			}
			if err := decodeArgs(raw, &args); err != nil {
				return ToolResult{}, err
			}
			vars, err := eng.Registry().Variables(args.Category)
			if err != nil {
				return ToolResult{}, err
			}
			return jsonResult(map[string]any{"category": args.Category, "variables": vars})
		},
	}
}

// documentArgs are the arguments shared by render_document and
// preview_document.
type documentArgs struct {
	Category   doctpl.Category `json:"category"`
	TemplateID string          `json:"templateId"`
	Language   doctpl.Language `json:"language"`
	Context    doctpl.Context  `json:"context"`
	Entity     json.RawMessage `json:"entity"`
	Currency   string          `json:"currency"`
	TaxRate    decimal.Decimal `json:"taxRate"`
	OutputPath string          `json:"outputPath"`
}

var documentSchema = map[string]any{
	"category": map[string]any{
		"type":        "string",
		"description": "Document category",
		"enum":        doctpl.Categories,
	},
	"templateId": map[string]any{
		"type":        "string",
		"description": "Optional template id. The category default is used when omitted.",
	},
	"language": map[string]any{
		"type":        "string",
		"description": "Preferred template language when no templateId is given",
		"enum":        []doctpl.Language{doctpl.Arabic, doctpl.English},
	},
	"context": map[string]any{
		"type":        "object",
		"description": "Flat binding context. Use list_variables for the expected keys.",
	},
	"entity": map[string]any{
		"type":        "object",
		"description": "Typed document (number, date, company, client, items, ...) used instead of context",
	},
	"currency": map[string]any{
		"type":        "string",
		"description": "ISO 4217 currency code for entity amounts",
	},
	"taxRate": map[string]any{
		"type":        "string",
		"description": "Tax rate applied to entity items, e.g. \"0.15\"",
	},
}

func (a documentArgs) request(eng *procuredocs.Engine) (procuredocs.Request, error) {
	req := procuredocs.Request{
		Category:   a.Category,
		TemplateID: a.TemplateID,
		Language:   a.Language,
		Context:    a.Context,
	}
	if (len(a.Entity) == 0) == (a.Context == nil) {
		return req, errors.New("exactly one of 'context' and 'entity' is required")
	}
	if len(a.Entity) == 0 {
		return req, nil
	}
	t, err := eng.Template(req)
	if err != nil {
		return req, err
	}
	b := binding.NewBuilder(t.Language, a.Currency, a.TaxRate, "SA")
	if req.Context, err = b.Bind(a.Category, a.Entity); err != nil {
		return req, err
	}
	req.TemplateID = t.ID
	return req, nil
}

func renderDocumentTool(eng *procuredocs.Engine) Tool {
	props := map[string]any{
		"outputPath": map[string]any{
			"type":        "string",
			"description": "Optional file path to save the PDF. If omitted, returns base64.",
		},
	}
	for k, v := range documentSchema {
		props[k] = v
	}
	return Tool{
		Name:        "render_document",
		Description: "Render a procurement document (price offer, order, invoice, contract) to PDF from a binding context or a typed entity. Returns the document metadata and the PDF.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": props,
			"required":   []string{"category"},
		},
		Handler: func(ctx context.Context, raw json.RawMessage) (ToolResult, error) {
			var args documentArgs
			if err := decodeArgs(raw, &args); err != nil {
				return ToolResult{}, err
			}
			req, err := args.request(eng)
			if err != nil {
				return ToolResult{}, err
			}
			doc, err := eng.Render(ctx, req)
			if err != nil {
				return ToolResult{}, err
			}
			meta, err := json.MarshalIndent(doc.Meta, "", "  ")
			if err != nil {
				return ToolResult{}, err
			}

			if args.OutputPath != "" {
				if err := os.WriteFile(args.OutputPath, doc.Bytes, 0644); err != nil {
					return ToolResult{}, fmt.Errorf("writing file: %w", err)
				}
				return ToolResult{
					Content: []ContentBlock{{
						Type: "text",
						Text: fmt.Sprintf("PDF written to %s (%d pages, %d bytes)\n%s", args.OutputPath, doc.Meta.PageCount, doc.Meta.ByteSize, meta),
					}},
				}, nil
			}

			return ToolResult{
				Content: []ContentBlock{
					{Type: "text", Text: string(meta)},
					{Type: "resource", MIMEType: "application/pdf", Data: base64.StdEncoding.EncodeToString(doc.Bytes)},
				},
			}, nil
		},
	}
}

func previewDocumentTool(eng *procuredocs.Engine) Tool {
	return Tool{
		Name:        "preview_document",
		Description: "Paginate a document without producing the PDF. Reports the page count and the labels of the blocks on every page.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": documentSchema,
			"required":   []string{"category"},
		},
		Handler: func(ctx context.Context, raw json.RawMessage) (ToolResult, error) {
			var args documentArgs
			if err := decodeArgs(raw, &args); err != nil {
				return ToolResult{}, err
			}
			req, err := args.request(eng)
			if err != nil {
				return ToolResult{}, err
			}
			l, err := eng.Layout(ctx, req)
			if err != nil {
				return ToolResult{}, err
			}
			pages := make([][]string, len(l.Pages))
			for i, p := range l.Pages {
				pages[i] = []string{}
				for _, pl := range p.Placements {
					if pl.Block.Label != "" {
						pages[i] = append(pages[i], pl.Block.Label)
					}
				}
			}
			return jsonResult(map[string]any{"pageCount": l.PageCount(), "pages": pages})
		},
	}
}
