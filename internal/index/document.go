package index

import (
	"fmt"

	"github.com/hideoutdb/searchd/internal/errors"
)

// DocType discriminates entity types sharing one index.
type DocType string

const (
	DocTypeItem     DocType = "item"
	DocTypeLocation DocType = "location"
	DocTypeModule   DocType = "module"
)

// ParseDocType parses a doc type literal from query input.
func ParseDocType(s string) (DocType, error) {
	switch DocType(s) {
	case DocTypeItem, DocTypeLocation, DocTypeModule:
		return DocType(s), nil
	default:
		return "", errors.New(errors.ErrCodeUnknownDocType,
			fmt.Sprintf("unknown doc type %q", s), nil)
	}
}

// decodeDocType parses a doc type literal read back from a stored document.
// Failure here means the index no longer matches the schema that wrote it,
// which is a bug, not a runtime condition.
func decodeDocType(s string) (DocType, error) {
	switch DocType(s) {
	case DocTypeItem, DocTypeLocation, DocTypeModule:
		return DocType(s), nil
	default:
		return "", errors.New(errors.ErrCodeDocDecode,
			fmt.Sprintf("stored document has unknown type literal %q", s), nil)
	}
}

// Document is one indexable unit derived from a catalog entity.
// ShortName and Kind are Item-specific and empty for other types.
type Document struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	ShortName   string  `json:"shortName,omitempty"`
	Description string  `json:"description"`
	Kind        string  `json:"kind,omitempty"`
	Type        DocType `json:"type"`
}

// Validate checks the invariants every indexed document must hold.
func (d *Document) Validate() error {
	if d.ID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "document id must not be empty", nil)
	}
	if _, err := ParseDocType(string(d.Type)); err != nil {
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("document %s: unknown doc type %q", d.ID, d.Type), nil)
	}
	return nil
}

// bleveDoc is the shape handed to the index. The external ID becomes the
// bleve document ID; short and full name land in the same ranked field,
// short name first.
type bleveDoc struct {
	Name        []string `json:"name"`
	Description string   `json:"description"`
	Kind        string   `json:"kind,omitempty"`
	Type        string   `json:"type"`
}

func toBleveDoc(d Document) bleveDoc {
	names := make([]string, 0, 2)
	if d.ShortName != "" {
		names = append(names, d.ShortName)
	}
	names = append(names, d.Name)

	return bleveDoc{
		Name:        names,
		Description: d.Description,
		Kind:        d.Kind,
		Type:        string(d.Type),
	}
}
