package patient

import (
	"time"

	"github.com/google/uuid"
	"github.com/simple-clinic/clinic-sync/pkg/syncstatus"
	"gorm.io/datatypes"
)

const (
	StatusActive       = "active"
	StatusDead         = "dead"
	StatusMigrated     = "migrated"
	StatusUnresponsive = "unresponsive"
	StatusInactive     = "inactive"
)

const (
	PhoneTypeMobile   = "mobile"
	PhoneTypeLandline = "landline"
)

type Patient struct {
	ID             uuid.UUID         `json:"id" gorm:"primaryKey;column:id"`
	AddressID      uuid.UUID         `json:"address_id" gorm:"column:address_id;index"`
	FullName       string            `json:"full_name" gorm:"column:full_name"`
	SearchableName string            `json:"searchable_name" gorm:"column:searchable_name;index"`
	Gender         string            `json:"gender" gorm:"column:gender"`
	DateOfBirth    *datatypes.Date   `json:"date_of_birth,omitempty" gorm:"column:date_of_birth"`
	Age            *int              `json:"age,omitempty" gorm:"column:age"`
	AgeUpdatedAt   *time.Time        `json:"age_updated_at,omitempty" gorm:"column:age_updated_at"`
	Status         string            `json:"status" gorm:"column:status;index"`
	CreatedAt      time.Time         `json:"created_at" gorm:"column:created_at"`
	UpdatedAt      time.Time         `json:"updated_at" gorm:"column:updated_at"`
	DeletedAt      *time.Time        `json:"deleted_at,omitempty" gorm:"column:deleted_at"`
	SyncStatus     syncstatus.Status `json:"sync_status" gorm:"column:sync_status"`
}

func (Patient) TableName() string {
	return "patients"
}

type Address struct {
	ID              uuid.UUID  `json:"id" gorm:"primaryKey;column:id"`
	ColonyOrVillage string     `json:"colony_or_village" gorm:"column:colony_or_village"`
	District        string     `json:"district" gorm:"column:district"`
	State           string     `json:"state" gorm:"column:state"`
	Country         string     `json:"country" gorm:"column:country"`
	CreatedAt       time.Time  `json:"created_at" gorm:"column:created_at"`
	UpdatedAt       time.Time  `json:"updated_at" gorm:"column:updated_at"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty" gorm:"column:deleted_at"`
}

func (Address) TableName() string {
	return "patient_addresses"
}

type PhoneNumber struct {
	ID        uuid.UUID  `json:"id" gorm:"primaryKey;column:id"`
	PatientID uuid.UUID  `json:"patient_id" gorm:"column:patient_id;index"`
	Number    string     `json:"number" gorm:"column:number"`
	Type      string     `json:"phone_type" gorm:"column:phone_type"`
	Active    bool       `json:"active" gorm:"column:active"`
	CreatedAt time.Time  `json:"created_at" gorm:"column:created_at"`
	UpdatedAt time.Time  `json:"updated_at" gorm:"column:updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" gorm:"column:deleted_at"`
}

func (PhoneNumber) TableName() string {
	return "patient_phone_numbers"
}

// SearchResult is the read-only projection the search index returns.
type SearchResult struct {
	ID              uuid.UUID  `json:"id" gorm:"column:id"`
	FullName        string     `json:"full_name" gorm:"column:full_name"`
	Gender          string     `json:"gender" gorm:"column:gender"`
	DateOfBirth     *time.Time `json:"date_of_birth,omitempty" gorm:"column:date_of_birth"`
	Age             *int       `json:"age,omitempty" gorm:"column:age"`
	Status          string     `json:"status" gorm:"column:status"`
	AddressID       uuid.UUID  `json:"address_id" gorm:"column:address_id"`
	ColonyOrVillage string     `json:"colony_or_village" gorm:"column:colony_or_village"`
	District        string     `json:"district" gorm:"column:district"`
	State           string     `json:"state" gorm:"column:state"`
	PhoneNumber     string     `json:"phone_number,omitempty" gorm:"column:phone_number"`
	UpdatedAt       time.Time  `json:"updated_at" gorm:"column:updated_at"`
}

type NameAndID struct {
	ID       uuid.UUID `gorm:"column:id"`
	FullName string    `gorm:"column:full_name"`
}
