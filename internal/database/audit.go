package database

import "procurement-portal/internal/models"

// Сущности журнала.
const (
	EntitySession  = "session"
	EntityRFP      = "rfp"
	EntityCategory = "category"
	EntityBid      = "bid"
	EntityVendor   = "vendor"
)

const (
	ActionLogin    = "login"
	ActionLogout   = "logout"
	ActionCreate   = "create"
	ActionDraft    = "draft"
	ActionPublish  = "publish"
	ActionSubmit   = "submit"
	ActionRegister = "register"
	ActionVerify   = "verification_request"
)

// CreateAuditLog пишет одну запись журнала. Без БД ничего не делает.
func CreateAuditLog(user *models.User, entity, entityID, action, details string) {
	if DB == nil {
		return
	}
	record := models.AuditLog{
		Entity:   entity,
		EntityID: entityID,
		Action:   action,
		Details:  details,
	}
	if user != nil {
		record.UserID = user.ID
		record.UserEmail = user.Email
	}
	_ = DB.Create(&record).Error
}

// AuditFilter сужает ListAuditLogs; пустые поля не фильтруют.
type AuditFilter struct {
	UserID string
	Entity string
	Action string
}

// ListAuditLogs: новые записи первыми.
func ListAuditLogs(filter AuditFilter, limit int) ([]models.AuditLog, error) {
	if DB == nil {
		return nil, nil
	}
	q := DB.Order("created_at desc").Limit(limit)
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.Entity != "" {
		q = q.Where("entity = ?", filter.Entity)
	}
	if filter.Action != "" {
		q = q.Where("action = ?", filter.Action)
	}
	var logs []models.AuditLog
	if err := q.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
