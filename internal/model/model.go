package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Package status
const (
	PackagePending = "PENDING"
	PackageActive  = "ACTIVE"
	PackageExpired = "EXPIRED"
)

// BotActivation status
const (
	ActivationActive  = "ACTIVE"
	ActivationExpired = "EXPIRED"
)

// Earning type tag, shared with the transaction row written alongside it.
const (
	EarningDirectReferral = "DIRECT_REFERRAL"
	EarningLevelIncome    = "LEVEL_INCOME"
)

const TransactionCompleted = "COMPLETED"

// 用户
type User struct {
	ID             int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	ReferralCode   string          `gorm:"type:varchar(32);uniqueIndex;not null" json:"referral_code"`
	ReferredBy     *string         `gorm:"type:varchar(32);index" json:"referred_by"`
	EarningBalance decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"earning_balance"`
	CreatedAt      time.Time       `json:"created_at"`
}

// 投资套餐
type Package struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      int64           `gorm:"index;not null" json:"user_id"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"amount"`
	Status      string          `gorm:"type:varchar(16);index;not null;default:PENDING" json:"status"`
	ActivatedAt *time.Time      `json:"activated_at"`
	ExpiresAt   *time.Time      `json:"expires_at"`
	CreatedAt   time.Time       `json:"created_at"`
}

// BotActivation is the qualifying position that makes a user eligible for referral payouts.
type BotActivation struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"index:idx_user_status;not null" json:"user_id"`
	Tier      string    `gorm:"type:varchar(32);not null" json:"tier"`
	Status    string    `gorm:"type:varchar(16);index:idx_user_status;not null" json:"status"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// 推荐收益
type Earning struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        int64           `gorm:"index;not null" json:"user_id"` // 收益人
	FromUserID    int64           `gorm:"not null" json:"from_user_id"`  // 购买人
	PackageID     int64           `gorm:"uniqueIndex:uk_package_level;not null" json:"package_id"`
	TransactionID int64           `gorm:"not null" json:"transaction_id"`
	Level         int             `gorm:"uniqueIndex:uk_package_level;not null" json:"level"`
	Percentage    decimal.Decimal `gorm:"type:decimal(6,4);not null" json:"percentage"`
	Amount        decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"amount"`
	Type          string          `gorm:"type:varchar(32);not null" json:"type"`
	CreatedAt     time.Time       `json:"created_at"`
}

// 损失佣金
type LostCommission struct {
	ID         int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     int64           `gorm:"index;not null" json:"user_id"`
	FromUserID int64           `gorm:"not null" json:"from_user_id"`
	PackageID  int64           `gorm:"uniqueIndex:uk_lost_package_level;not null" json:"package_id"`
	Level      int             `gorm:"uniqueIndex:uk_lost_package_level;not null" json:"level"`
	Percentage decimal.Decimal `gorm:"type:decimal(6,4);not null" json:"percentage"`
	Amount     decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"amount"`
	Reason     string          `gorm:"type:varchar(128);not null" json:"reason"`
	CreatedAt  time.Time       `json:"created_at"`
}

// 账务流水
type Transaction struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      int64           `gorm:"index;not null" json:"user_id"`
	Type        string          `gorm:"type:varchar(32);not null" json:"type"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"amount"`
	Status      string          `gorm:"type:varchar(16);not null" json:"status"`
	Reference   string          `gorm:"type:varchar(64);index" json:"reference"`
	Description string          `gorm:"type:varchar(255)" json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Distribution marks a package whose referral earnings have been committed.
type Distribution struct {
	PackageID    int64     `gorm:"primaryKey;autoIncrement:false" json:"package_id"`
	EarningCount int       `gorm:"not null" json:"earning_count"`
	LostCount    int       `gorm:"not null" json:"lost_count"`
	CreatedAt    time.Time `json:"created_at"`
}

func (Distribution) TableName() string {
	return "referral_distributions"
}

// CommissionLevel is the admin-tunable percentage for one referral level.
type CommissionLevel struct {
	Level      int             `gorm:"primaryKey;autoIncrement:false" json:"level"`
	Percentage decimal.Decimal `gorm:"type:decimal(6,4);not null" json:"percentage"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

type Counter struct {
	Name  string `gorm:"type:varchar(32);primaryKey"`
	Value int64  `gorm:"not null;default:0"`
}

type App struct {
	AppID     string `gorm:"type:varchar(32);primaryKey"`
	PaySecret string `gorm:"type:varchar(64);not null"`
}

func (App) TableName() string {
	return "app"
}
