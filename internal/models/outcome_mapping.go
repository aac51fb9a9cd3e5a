package models

import "time"

// OutcomeMapping is the postgres row for one course-outcome to program-outcome cell.
type OutcomeMapping struct {
	ID            uint    `json:"id" gorm:"primaryKey"`
	CourseID      string  `json:"course_id" gorm:"not null;size:64;uniqueIndex:idx_course_co_po"`
	CO            string  `json:"co" gorm:"not null;size:32;uniqueIndex:idx_course_co_po"`
	PO            string  `json:"po" gorm:"not null;size:32;uniqueIndex:idx_course_co_po"`
	Value         float64 `json:"value" gorm:"not null;default:0"`
	CODescription string  `json:"co_description" gorm:"type:text"`
	PODescription string  `json:"po_description" gorm:"type:text"`
	DisplayOrder  int     `json:"display_order" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (OutcomeMapping) TableName() string {
	return "outcome_mappings"
}
