package models

import (
	"time"
)

// DefectStatus represents the status of a defect. Any status may move to any other.
type DefectStatus string

const (
	StatusNew         DefectStatus = "new"
	StatusInProgress  DefectStatus = "in_progress"
	StatusUnderReview DefectStatus = "under_review"
	StatusClosed      DefectStatus = "closed"
	StatusCancelled   DefectStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s DefectStatus) Valid() bool {
	switch s {
	case StatusNew, StatusInProgress, StatusUnderReview, StatusClosed, StatusCancelled:
		return true
	}
	return false
}

// DefectPriority represents the priority of a defect
type DefectPriority string

const (
	PriorityLow      DefectPriority = "low"
	PriorityMedium   DefectPriority = "medium"
	PriorityHigh     DefectPriority = "high"
	PriorityCritical DefectPriority = "critical"
)

// Valid reports whether p is a known priority.
func (p DefectPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// MaxDefectTitle is the longest accepted defect title, in characters.
const MaxDefectTitle = 500

// Defect represents a tracked issue inside a project
type Defect struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	Title        string         `json:"title" gorm:"size:500;not null"`
	Description  string         `json:"description" gorm:"type:text"`
	Status       DefectStatus   `json:"status" gorm:"type:varchar(20);not null;default:'new'"`
	Priority     DefectPriority `json:"priority" gorm:"type:varchar(20);not null;default:'medium'"`
	DueDate      *time.Time     `json:"due_date"`
	ProjectID    uint           `json:"project_id" gorm:"not null;index"`
	CreatedByID  uint           `json:"created_by_id" gorm:"column:created_by_id;not null;index"`
	AssignedToID *uint          `json:"assigned_to_id" gorm:"column:assigned_to_id;index"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`

	Project  *Project `json:"-" gorm:"foreignKey:ProjectID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Creator  *User    `json:"-" gorm:"foreignKey:CreatedByID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Assignee *User    `json:"-" gorm:"foreignKey:AssignedToID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// TableName specifies the table name for Defect Model
func (Defect) TableName() string {
	return "defects"
}

// Watchers returns the users with a stake in the defect besides the project manager.
func (d Defect) Watchers() []uint {
	ids := []uint{d.CreatedByID}
	if d.AssignedToID != nil && *d.AssignedToID != d.CreatedByID {
		ids = append(ids, *d.AssignedToID)
	}
	return ids
}
