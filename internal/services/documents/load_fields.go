package documents

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
	"gopkg.in/yaml.v3"

	"github.com/mishrapravin114/pharmadoc/internal/interfaces"
	"github.com/mishrapravin114/pharmadoc/internal/models"
)

// fieldsFile is the on-disk shape of a metadata field definition file
type fieldsFile struct {
	CollectionID string                 `yaml:"collection_id"`
	Fields       []models.MetadataField `yaml:"fields"`
}

// LoadFieldsFromFiles loads metadata extraction field definitions from YAML
// files in the given directory. Files referencing an unknown collection are
// skipped with a warning so a partial directory never blocks startup.
func LoadFieldsFromFiles(ctx context.Context, storage interfaces.CollectionStorage, fieldsDir string, logger arbor.ILogger) error {
	if _, err := os.Stat(fieldsDir); os.IsNotExist(err) {
		logger.Debug().Str("dir", fieldsDir).Msg("Metadata fields directory does not exist, skipping")
		return nil
	}

	entries, err := os.ReadDir(fieldsDir)
	if err != nil {
		return fmt.Errorf("failed to read metadata fields directory: %w", err)
	}

	loadedCount := 0
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}

		filePath := filepath.Join(fieldsDir, entry.Name())
		data, err := os.ReadFile(filePath)
		if err != nil {
			logger.Warn().Err(err).Str("file", entry.Name()).Msg("Failed to read metadata fields file")
			continue
		}

		var file fieldsFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			logger.Warn().Err(err).Str("file", entry.Name()).Msg("Failed to parse metadata fields YAML")
			continue
		}

		if _, err := storage.GetCollection(ctx, file.CollectionID); err != nil {
			logger.Warn().
				Str("file", entry.Name()).
				Str("collection_id", file.CollectionID).
				Msg("Metadata fields file references unknown collection, skipping")
			continue
		}

		for i := range file.Fields {
			field := file.Fields[i]
			field.CollectionID = file.CollectionID
			if field.ID == "" {
				field.ID = fmt.Sprintf("fld_%s_%s", file.CollectionID, field.Name)
			}
			if err := storage.SaveMetadataField(ctx, &field); err != nil {
				logger.Warn().Err(err).Str("field", field.Name).Msg("Failed to save metadata field")
				continue
			}
			loadedCount++
		}
	}

	logger.Info().Int("count", loadedCount).Str("dir", fieldsDir).Msg("Loaded metadata field definitions")
	return nil
}
