package postgres

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SharedHelpers holds the pieces every postgres repository needs.
type SharedHelpers struct {
	db *gorm.DB
}

func NewSharedHelpers(db *gorm.DB) *SharedHelpers {
	return &SharedHelpers{db: db}
}

// getDB returns tx when the caller runs inside a transaction.
func (h *SharedHelpers) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return h.db
}

func toJSON(v interface{}) (datatypes.JSON, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode json column: %w", err)
	}
	return datatypes.JSON(data), nil
}

// decodeJSON leaves dest untouched for empty or null columns.
func decodeJSON(col datatypes.JSON, dest interface{}) error {
	if len(col) == 0 || string(col) == "null" {
		return nil
	}
	if err := json.Unmarshal(col, dest); err != nil {
		return fmt.Errorf("failed to decode json column: %w", err)
	}
	return nil
}
