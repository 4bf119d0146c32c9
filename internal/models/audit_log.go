package models

import "time"

// AuditLog records portal activity: logins, drafts, publications.
type AuditLog struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"index"`

	UserID    string `gorm:"size:64;index"`
	UserEmail string `gorm:"size:255"`

	Entity   string `gorm:"size:50;not null"` // "session", "rfp", "category"
	EntityID string `gorm:"size:64"`
	Action   string `gorm:"size:50;not null"` // "login", "draft", "publish" ...
	Details  string `gorm:"type:text"`
}

// WorkflowRecord holds the serialized RFP creation workflow of one browser
// session between requests.
type WorkflowRecord struct {
	Key       string `gorm:"primaryKey;size:64"`
	DraftID   string `gorm:"size:64"`
	State     string `gorm:"size:20;not null"`
	Payload   string `gorm:"type:text;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	// PendingSince отмечает вызов бэкенда, который ещё не завершился.
	PendingSince *time.Time
}
