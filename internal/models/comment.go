package models

import "time"

// Comment is a note left on a defect. Comments are removed with their defect.
type Comment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Text      string    `json:"text" gorm:"type:text;not null"`
	DefectID  uint      `json:"defect_id" gorm:"not null;index"`
	AuthorID  uint      `json:"author_id" gorm:"not null;index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Defect *Defect `json:"-" gorm:"foreignKey:DefectID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Author *User   `json:"-" gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// TableName specifies the table name for Comment Model
func (Comment) TableName() string {
	return "comments"
}
