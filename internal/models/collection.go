package models

import (
	"fmt"
	"time"
)

// Collection groups source documents for indexing and retrieval.
// A collection owns its documents, its metadata extraction fields, and any
// indexing jobs run against it.
type Collection struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Validate validates the collection
func (c *Collection) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("collection ID is required")
	}
	if c.Name == "" {
		return fmt.Errorf("collection name is required")
	}
	return nil
}

// MetadataFieldType constrains the value type of an extraction field
type MetadataFieldType string

const (
	FieldTypeText   MetadataFieldType = "text"
	FieldTypeNumber MetadataFieldType = "number"
	FieldTypeDate   MetadataFieldType = "date"
)

// MetadataField defines one metadata value to extract from every document in a
// collection (e.g. batch number, expiry date, active substance).
type MetadataField struct {
	ID           string            `json:"id" yaml:"id"`
	CollectionID string            `json:"collection_id" yaml:"collection_id"`
	Name         string            `json:"name" yaml:"name"`
	Type         MetadataFieldType `json:"type" yaml:"type"`
	// Prompt is the extraction instruction handed to the extraction pipeline.
	Prompt   string `json:"prompt,omitempty" yaml:"prompt,omitempty"`
	Required bool   `json:"required" yaml:"required"`
}

// Validate validates the metadata field definition
func (f *MetadataField) Validate() error {
	if f.Name == "" {
		return fmt.Errorf("field name is required")
	}
	switch f.Type {
	case FieldTypeText, FieldTypeNumber, FieldTypeDate:
	default:
		return fmt.Errorf("invalid field type: %s", f.Type)
	}
	return nil
}
