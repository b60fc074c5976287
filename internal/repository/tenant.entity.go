package repository

import (
	"github.com/bizgrid/notification-gateway/internal/model"
)

type TenantEntity struct {
	ID          int64  `db:"id"           gorm:"primaryKey;autoIncrement;column:id"`
	UserID      int64  `db:"user_id"      gorm:"column:user_id;not null;uniqueIndex"`
	CompanyName string `db:"company_name" gorm:"column:company_name"`
	Phone       string `db:"phone"        gorm:"column:phone"`
	Plan        string `db:"plan"         gorm:"column:plan;not null;default:free_trial"`
	Status      string `db:"status"       gorm:"column:status;not null;default:trialing"`
}

func (TenantEntity) TableName() string {
	return "tenants"
}

type UserRoleEntity struct {
	ID     int64  `db:"id"      gorm:"primaryKey;autoIncrement;column:id"`
	UserID int64  `db:"user_id" gorm:"column:user_id;not null;index"`
	Role   string `db:"role"    gorm:"column:role;not null;index"`
}

func (UserRoleEntity) TableName() string {
	return "user_roles"
}

func toTenantModel(e *TenantEntity) *model.Tenant {
	if e == nil {
		return nil
	}
	return &model.Tenant{
		ID:          e.ID,
		UserID:      e.UserID,
		CompanyName: e.CompanyName,
		Phone:       e.Phone,
		Plan:        model.SubscriptionPlan(e.Plan),
		Status:      model.SubscriptionStatus(e.Status),
	}
}

func toTenantEntity(m *model.Tenant) *TenantEntity {
	if m == nil {
		return nil
	}
	return &TenantEntity{
		ID:          m.ID,
		UserID:      m.UserID,
		CompanyName: m.CompanyName,
		Phone:       m.Phone,
		Plan:        string(m.Plan),
		Status:      string(m.Status),
	}
}
