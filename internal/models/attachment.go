package models

import "time"

// Attachment references a stored file tied to a defect and, optionally, to one of its comments.
type Attachment struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Filename    string    `json:"filename" gorm:"not null"`
	Filepath    string    `json:"filepath" gorm:"not null"`
	ContentType string    `json:"content_type"`
	DefectID    uint      `json:"defect_id" gorm:"not null;index"`
	CommentID   *uint     `json:"comment_id" gorm:"index"`
	UploadedAt  time.Time `json:"uploaded_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at"`

	Defect  *Defect  `json:"-" gorm:"foreignKey:DefectID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Comment *Comment `json:"-" gorm:"foreignKey:CommentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName specifies the table name for Attachment Model
func (Attachment) TableName() string {
	return "attachments"
}

// All lists every model in migration order.
func All() []any {
	return []any{&User{}, &Project{}, &Defect{}, &Comment{}, &Attachment{}}
}
