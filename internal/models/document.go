package models

import "time"

// Document is the record of one uploaded file. Records are immutable once
// created; the stored file on disk is retained unless cleanup is enabled.
type Document struct {
	ID            string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Filename      string    `json:"filename" gorm:"type:varchar(512)"`
	OriginalName  string    `json:"originalName" gorm:"type:varchar(255)"`
	FileType      string    `json:"fileType" gorm:"type:varchar(128)"`
	FileSize      int64     `json:"fileSize"`
	ExtractedText string    `json:"extractedText" gorm:"type:text"`
	// UploadedBy is a weak reference: anonymous uploads leave it nil, and a
	// later-deleted user does not invalidate the document.
	UploadedBy *string   `json:"uploadedBy" gorm:"type:varchar(36)"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
