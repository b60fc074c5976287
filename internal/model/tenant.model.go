package model

type SubscriptionPlan string

const (
	PlanFreeTrial SubscriptionPlan = "free_trial"
	PlanBasic     SubscriptionPlan = "basic"
	PlanStandard  SubscriptionPlan = "standard"
	PlanPro       SubscriptionPlan = "pro"
)

type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionPastDue   SubscriptionStatus = "past_due"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
	SubscriptionTrialing  SubscriptionStatus = "trialing"
)

// Tenant is a subscribing organization. UserID is the owning account the
// UI layer authenticates as; notifications address that user.
type Tenant struct {
	ID          int64              `json:"id"`
	UserID      int64              `json:"user_id"`
	CompanyName string             `json:"company_name"`
	Phone       string             `json:"phone"` // empty when no number on file
	Plan        SubscriptionPlan   `json:"plan"`
	Status      SubscriptionStatus `json:"status"`
}

func (Tenant) TableName() string { return "tenants" }

const RoleSuperAdmin = "super_admin"

// UserRole grants a platform-wide role to a user. Only super_admin is
// consulted by this core (billing reminder fan-out).
type UserRole struct {
	ID     int64  `json:"id"`
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
}

func (UserRole) TableName() string { return "user_roles" }
