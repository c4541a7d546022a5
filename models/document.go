package models

import "time"

// Document is one row of the document index: a pointer to a published artifact
// in blob storage. The unique index on (reference_type, reference_id, path)
// makes registration idempotent so a re-run upserts instead of duplicating.
type Document struct {
	ID            int    `gorm:"primary_key" json:"id"`
	ReferenceType string `gorm:"size:50;not null;uniqueIndex:uniq_doc_ref_path,priority:1" json:"reference_type"`
	ReferenceID   string `gorm:"size:64;not null;uniqueIndex:uniq_doc_ref_path,priority:2;index" json:"reference_id"`
	Path          string `gorm:"size:255;not null;uniqueIndex:uniq_doc_ref_path,priority:3" json:"path"`
	ContentType   string `gorm:"size:100;not null" json:"content_type"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
