package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/answer-key-service/internal/matrix"
	"github.com/SAP-F-2025/answer-key-service/internal/models"
	"github.com/SAP-F-2025/answer-key-service/internal/repositories"
)

type OutcomeMappingPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewOutcomeMappingPostgreSQL(db *gorm.DB) *OutcomeMappingPostgreSQL {
	return &OutcomeMappingPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

var _ repositories.OutcomeBackend = (*OutcomeMappingPostgreSQL)(nil)

func (r *OutcomeMappingPostgreSQL) FetchOutcomeMappings(ctx context.Context, courseID string) ([]matrix.Cell, error) {
	var rows []models.OutcomeMapping
	if err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("display_order ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list outcome mappings: %w", err)
	}
	return mappingsToCells(rows), nil
}

// SaveOutcomeMapping upserts one cell. Descriptions already stored are kept when
// the cell carries none.
func (r *OutcomeMappingPostgreSQL) SaveOutcomeMapping(ctx context.Context, courseID string, cell matrix.Cell) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		db := r.helpers.getDB(tx)

		var next int64
		if err := db.Model(&models.OutcomeMapping{}).
			Where("course_id = ?", courseID).
			Count(&next).Error; err != nil {
			return fmt.Errorf("failed to count outcome mappings: %w", err)
		}

		row := cellToMapping(courseID, cell)
		row.DisplayOrder = int(next)

		updates := []string{"value", "updated_at"}
		if cell.RowDescription != "" {
			updates = append(updates, "co_description")
		}
		if cell.ColumnDescription != "" {
			updates = append(updates, "po_description")
		}
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "course_id"}, {Name: "co"}, {Name: "po"}},
			DoUpdates: clause.AssignmentColumns(updates),
		}).Create(row).Error; err != nil {
			return fmt.Errorf("failed to save outcome mapping: %w", err)
		}
		return nil
	})
}

func mappingsToCells(rows []models.OutcomeMapping) []matrix.Cell {
	cells := make([]matrix.Cell, 0, len(rows))
	for _, m := range rows {
		cells = append(cells, matrix.Cell{
			Row:               m.CO,
			Column:            m.PO,
			Value:             m.Value,
			RowDescription:    m.CODescription,
			ColumnDescription: m.PODescription,
		})
	}
	return cells
}

func cellToMapping(courseID string, cell matrix.Cell) *models.OutcomeMapping {
	return &models.OutcomeMapping{
		CourseID:      courseID,
		CO:            cell.Row,
		PO:            cell.Column,
		Value:         cell.Value,
		CODescription: cell.RowDescription,
		PODescription: cell.ColumnDescription,
	}
}
