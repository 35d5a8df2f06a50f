package attachment

import "time"

// Attachment is a file owned by any entity row; OwnerType names the owning table.
type Attachment struct {
	ID          string    `gorm:"primaryKey;size:36"`
	OwnerType   string    `gorm:"column:owner_type;not null;index:idx_attachment_owner"`
	OwnerID     int64     `gorm:"column:owner_id;not null;index:idx_attachment_owner"`
	FileKey     string    `gorm:"column:file_key;not null"`
	FileName    string    `gorm:"column:file_name"`
	ContentType string    `gorm:"column:content_type"`
	Extension   string    `gorm:"column:extension"`
	Size        int64     `gorm:"column:size"`
	AltText     string    `gorm:"column:alt_text"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
