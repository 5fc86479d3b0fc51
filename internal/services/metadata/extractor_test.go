package metadata

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/mishrapravin114/pharmadoc/internal/models"
)

func field(name string, fieldType models.MetadataFieldType, required bool) *models.MetadataField {
	return &models.MetadataField{
		ID:           "fld_" + name,
		CollectionID: "col_1",
		Name:         name,
		Type:         fieldType,
		Required:     required,
	}
}

func testDoc(content string) *models.Document {
	return &models.Document{
		ID:      "doc_1",
		Name:    "protocol.txt",
		Content: content,
	}
}

func TestExtract(t *testing.T) {
	extractor := NewFieldExtractor(arbor.NewLogger())

	tests := []struct {
		name     string
		content  string
		fields   []*models.MetadataField
		expected map[string]string
		wantErr  bool
	}{
		{
			name:    "simple text field",
			content: "Study ID: NCT-4411\nSponsor: Acme Pharma",
			fields: []*models.MetadataField{
				field("Study ID", models.FieldTypeText, true),
				field("Sponsor", models.FieldTypeText, false),
			},
			expected: map[string]string{"Study ID": "NCT-4411", "Sponsor": "Acme Pharma"},
		},
		{
			name:    "field name matching is case-insensitive",
			content: "study id: NCT-9900",
			fields:  []*models.MetadataField{field("Study ID", models.FieldTypeText, true)},
			expected: map[string]string{
				"Study ID": "NCT-9900",
			},
		},
		{
			name:     "optional field missing is omitted",
			content:  "Sponsor: Acme Pharma",
			fields:   []*models.MetadataField{field("Batch Number", models.FieldTypeText, false)},
			expected: map[string]string{},
		},
		{
			name:    "required field missing fails",
			content: "Sponsor: Acme Pharma",
			fields:  []*models.MetadataField{field("Study ID", models.FieldTypeText, true)},
			wantErr: true,
		},
		{
			name:     "number normalized without separators",
			content:  "Sample Count: 1,250",
			fields:   []*models.MetadataField{field("Sample Count", models.FieldTypeNumber, true)},
			expected: map[string]string{"Sample Count": "1250"},
		},
		{
			name:    "malformed required number fails",
			content: "Sample Count: twelve",
			fields:  []*models.MetadataField{field("Sample Count", models.FieldTypeNumber, true)},
			wantErr: true,
		},
		{
			name:     "malformed optional number skipped",
			content:  "Sample Count: twelve",
			fields:   []*models.MetadataField{field("Sample Count", models.FieldTypeNumber, false)},
			expected: map[string]string{},
		},
		{
			name:     "date canonicalized to ISO",
			content:  "Approval Date: 02.03.2024",
			fields:   []*models.MetadataField{field("Approval Date", models.FieldTypeDate, true)},
			expected: map[string]string{"Approval Date": "2024-03-02"},
		},
		{
			name:     "iso date passes through",
			content:  "Approval Date: 2024-03-02",
			fields:   []*models.MetadataField{field("Approval Date", models.FieldTypeDate, true)},
			expected: map[string]string{"Approval Date": "2024-03-02"},
		},
		{
			name:    "unparseable required date fails",
			content: "Approval Date: sometime next year",
			fields:  []*models.MetadataField{field("Approval Date", models.FieldTypeDate, true)},
			wantErr: true,
		},
		{
			name:     "empty value treated as missing",
			content:  "Study ID:\nSponsor: Acme",
			fields:   []*models.MetadataField{field("Study ID", models.FieldTypeText, false)},
			expected: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := extractor.Extract(context.Background(), testDoc(tt.content), tt.fields)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, values)
		})
	}
}
