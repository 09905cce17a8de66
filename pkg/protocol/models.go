package protocol

import (
	"time"

	"github.com/google/uuid"
	"github.com/simple-clinic/clinic-sync/pkg/syncstatus"
)

type Protocol struct {
	ID           uuid.UUID         `json:"id" gorm:"primaryKey;column:id"`
	Name         string            `json:"name" gorm:"column:name"`
	FollowUpDays int               `json:"follow_up_days" gorm:"column:follow_up_days"`
	CreatedAt    time.Time         `json:"created_at" gorm:"column:created_at"`
	UpdatedAt    time.Time         `json:"updated_at" gorm:"column:updated_at"`
	DeletedAt    *time.Time        `json:"deleted_at,omitempty" gorm:"column:deleted_at"`
	SyncStatus   syncstatus.Status `json:"sync_status" gorm:"column:sync_status"`
}

func (Protocol) TableName() string {
	return "protocols"
}

type ProtocolDrug struct {
	ID         uuid.UUID  `json:"id" gorm:"primaryKey;column:id"`
	ProtocolID uuid.UUID  `json:"protocol_id" gorm:"column:protocol_id;index"`
	Name       string     `json:"name" gorm:"column:name"`
	Dosage     string     `json:"dosage" gorm:"column:dosage"`
	RxNormCode string     `json:"rxnorm_code,omitempty" gorm:"column:rxnorm_code"`
	Order      int        `json:"order" gorm:"column:sort_order"`
	CreatedAt  time.Time  `json:"created_at" gorm:"column:created_at"`
	UpdatedAt  time.Time  `json:"updated_at" gorm:"column:updated_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty" gorm:"column:deleted_at"`
}

func (ProtocolDrug) TableName() string {
	return "protocol_drugs"
}

// DrugAndDosages is one drug name with every dosage the protocol allows,
// in prescribing order.
type DrugAndDosages struct {
	DrugName string         `json:"drug_name"`
	Drugs    []ProtocolDrug `json:"drugs"`
}
