package roster

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	apperrors "github.com/agbru/rosterfan/internal/errors"
)

// fileDocument is the on-disk layout. A bare list of records is accepted too.
type fileDocument struct {
	Records Roster `yaml:"records"`
}

// FileProvider reads the roster from a YAML or JSON file on every fetch.
type FileProvider struct {
	path string
}

// NewFileProvider returns a provider for the file at path.
func NewFileProvider(path string) *FileProvider {
	return &FileProvider{path: path}
}

// Path returns the file the provider reads.
func (p *FileProvider) Path() string { return p.path }

// FetchRoster reads, parses and validates the roster file.
func (p *FileProvider) FetchRoster(ctx context.Context) (Roster, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p.path)
	if err != nil {
		return nil, &apperrors.ProviderError{Source: p.path, Cause: err}
	}
	records, err := Parse(data)
	if err != nil {
		return nil, &apperrors.ProviderError{Source: p.path, Cause: err}
	}
	return records, nil
}

// Parse decodes a roster document: either a bare list of records or a
// mapping with a records key. JSON input is handled by the YAML decoder.
func Parse(data []byte) (Roster, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("decode roster: %w", err)
	}
	if len(root.Content) == 0 {
		return Roster{}, nil
	}

	var records Roster
	switch node := root.Content[0]; node.Kind {
	case yaml.SequenceNode:
		if err := node.Decode(&records); err != nil {
			return nil, fmt.Errorf("decode roster list: %w", err)
		}
	case yaml.MappingNode:
		var doc fileDocument
		if err := node.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode roster document: %w", err)
		}
		records = doc.Records
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return Roster{}, nil
		}
		return nil, fmt.Errorf("decode roster: line %d: expected a list or a records mapping", node.Line)
	default:
		return nil, fmt.Errorf("decode roster: line %d: expected a list or a records mapping", node.Line)
	}
	if records == nil {
		records = Roster{}
	}
	if err := Validate(records); err != nil {
		return nil, err
	}
	return records, nil
}
