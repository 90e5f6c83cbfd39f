package model

import (
	"time"
)

// ContributeRecordModel 贡献记录，每个项目每个地址一行，金额为累计值，退款后清零但保留
type ContributeRecordModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProjectId     int64  `json:"project_id" gorm:"not null;uniqueIndex:idx_project_address"`
	Address       string `json:"address" gorm:"type:varchar(42);not null;uniqueIndex:idx_project_address"`
	AmountPledged string `json:"amount_pledged" gorm:"type:varchar(80);not null;default:'0'"`
	ReceiptCount  int64  `json:"receipt_count" gorm:"not null;default:0"`
}

// TableName 自定义表名
func (ContributeRecordModel) TableName() string {
	return "contribute_record"
}

// ReceiptModel 收据记录，每次认捐一行，收据编号全局唯一
type ReceiptModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	TokenId   string    `json:"token_id" gorm:"type:varchar(80);not null;uniqueIndex"`
	ProjectId int64     `json:"project_id" gorm:"not null;index"`
	Address   string    `json:"address" gorm:"type:varchar(42);not null;index"`
	Amount    string    `json:"amount" gorm:"type:varchar(80);not null"`
	MintedAt  time.Time `json:"minted_at" gorm:"not null"`
}

// TableName 自定义表名
func (ReceiptModel) TableName() string {
	return "receipt"
}
