package doctpl

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// newContent returns an empty content value for a section type.
func newContent(t SectionType) (Content, error) {
	switch t {
	case SectionHeader:
		return &HeaderContent{}, nil
	case SectionBody:
		return &BodyContent{}, nil
	case SectionTable:
		return &TableContent{}, nil
	case SectionSpacer:
		return &SpacerContent{}, nil
	case SectionTerms:
		return &TermsContent{}, nil
	case SectionFooter:
		return &FooterContent{}, nil
	}
	return nil, fmt.Errorf("doctpl: unknown section type %q", t)
}

// deref turns the pointer produced by newContent back into a value.
func deref(c Content) Content {
	switch v := c.(type) {
	case *HeaderContent:
		return *v
	case *BodyContent:
		return *v
	case *TableContent:
		return *v
	case *SpacerContent:
		return *v
	case *TermsContent:
		return *v
	case *FooterContent:
		return *v
	}
	return c
}

type sectionYAML struct {
	Type    SectionType `yaml:"type"`
	Order   int         `yaml:"order"`
	When    string      `yaml:"when,omitempty"`
	Content yaml.Node   `yaml:"content"`
}

// UnmarshalYAML decodes the section content according to its type.
func (s *Section) UnmarshalYAML(n *yaml.Node) error {
	var raw sectionYAML
	if err := n.Decode(&raw); err != nil {
		return err
	}
	c, err := newContent(raw.Type)
	if err != nil {
		return fmt.Errorf("line %d: %w", n.Line, err)
	}
	if !raw.Content.IsZero() {
		if err := raw.Content.Decode(c); err != nil {
			return fmt.Errorf("doctpl: %s section at line %d: %w", raw.Type, n.Line, err)
		}
	}
	*s = Section{Type: raw.Type, Order: raw.Order, When: raw.When, Content: deref(c)}
	return nil
}

// MarshalYAML writes the section with its content inline.
func (s Section) MarshalYAML() (interface{}, error) {
	return struct {
		Type    SectionType `yaml:"type"`
		Order   int         `yaml:"order"`
		When    string      `yaml:"when,omitempty"`
		Content Content     `yaml:"content"`
	}{s.Type, s.Order, s.When, s.Content}, nil
}

// UnmarshalJSON decodes the section content according to its type.
func (s *Section) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type    SectionType     `json:"type"`
		Order   int             `json:"order"`
		When    string          `json:"when,omitempty"`
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c, err := newContent(raw.Type)
	if err != nil {
		return err
	}
	if len(raw.Content) > 0 && string(raw.Content) != "null" {
		if err := json.Unmarshal(raw.Content, c); err != nil {
			return fmt.Errorf("doctpl: %s section: %w", raw.Type, err)
		}
	}
	*s = Section{Type: raw.Type, Order: raw.Order, When: raw.When, Content: deref(c)}
	return nil
}

// DecodeTemplates reads templates from r. The input is a YAML (or JSON)
// document that is either a list of templates or a mapping with a
// "templates" key. Templates are not validated.
func DecodeTemplates(r io.Reader) ([]Template, error) {
	dec := yaml.NewDecoder(r)
	var root yaml.Node
	if err := dec.Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("doctpl: decoding templates: %w", err)
	}
	node := &root
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}

	var list []Template
	switch node.Kind {
	case yaml.SequenceNode:
		if err := node.Decode(&list); err != nil {
			return nil, fmt.Errorf("doctpl: decoding templates: %w", err)
		}
	case yaml.MappingNode:
		var wrapped struct {
			Templates []Template `yaml:"templates"`
		}
		if err := node.Decode(&wrapped); err != nil {
			return nil, fmt.Errorf("doctpl: decoding templates: %w", err)
		}
		list = wrapped.Templates
	default:
		return nil, fmt.Errorf("doctpl: decoding templates: line %d: expected a list or a mapping", node.Line)
	}
	return list, nil
}
