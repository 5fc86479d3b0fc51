package metadata

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/mishrapravin114/pharmadoc/internal/models"
)

// dateLayouts are the accepted formats for date-typed fields, most specific first
var dateLayouts = []string{
	"2006-01-02",
	"02.01.2006",
	"02/01/2006",
	"January 2, 2006",
}

// FieldExtractor extracts configured metadata fields from document text.
// It scans for "Field Name: value" lines, case-insensitively. PDF documents
// whose text was not extracted yield no values; required fields then fail the
// document rather than silently producing an empty record.
type FieldExtractor struct {
	logger arbor.ILogger
}

// NewFieldExtractor creates a new field extractor
func NewFieldExtractor(logger arbor.ILogger) *FieldExtractor {
	return &FieldExtractor{logger: logger}
}

// Extract returns the extracted field values keyed by field name.
// A missing or malformed required field is an error; optional fields are
// simply omitted.
func (e *FieldExtractor) Extract(ctx context.Context, doc *models.Document, fields []*models.MetadataField) (map[string]string, error) {
	values := make(map[string]string)

	for _, field := range fields {
		raw, found := findFieldValue(doc.Content, field.Name)
		if !found {
			if field.Required {
				return nil, fmt.Errorf("required field %q not found in %s", field.Name, doc.Name)
			}
			continue
		}

		value, err := normalizeValue(raw, field.Type)
		if err != nil {
			if field.Required {
				return nil, fmt.Errorf("field %q in %s: %w", field.Name, doc.Name, err)
			}
			e.logger.Debug().
				Str("document", doc.Name).
				Str("field", field.Name).
				Str("value", raw).
				Msg("Skipping malformed optional field value")
			continue
		}
		values[field.Name] = value
	}

	return values, nil
}

// findFieldValue scans content lines for a "name: value" pair, case-insensitive
func findFieldValue(content, name string) (string, bool) {
	prefix := strings.ToLower(name) + ":"
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if len(trimmed) < len(prefix) {
			continue
		}
		if strings.ToLower(trimmed[:len(prefix)]) == prefix {
			value := strings.TrimSpace(trimmed[len(prefix):])
			if value != "" {
				return value, true
			}
		}
	}
	return "", false
}

// normalizeValue validates and canonicalizes a raw value per field type
func normalizeValue(raw string, fieldType models.MetadataFieldType) (string, error) {
	switch fieldType {
	case models.FieldTypeNumber:
		if _, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64); err != nil {
			return "", fmt.Errorf("not a number: %q", raw)
		}
		return strings.ReplaceAll(raw, ",", ""), nil
	case models.FieldTypeDate:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return t.Format("2006-01-02"), nil
			}
		}
		return "", fmt.Errorf("not a recognized date: %q", raw)
	default:
		return raw, nil
	}
}
