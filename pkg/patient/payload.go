package patient

import (
	"time"

	"github.com/google/uuid"
	"github.com/simple-clinic/clinic-sync/pkg/syncstatus"
	"github.com/simple-clinic/clinic-sync/pkg/textnorm"
	"gorm.io/datatypes"
)

type PatientPayload struct {
	ID           uuid.UUID            `json:"id"`
	FullName     string               `json:"full_name"`
	Gender       string               `json:"gender"`
	DateOfBirth  string               `json:"date_of_birth,omitempty"`
	Age          *int                 `json:"age,omitempty"`
	AgeUpdatedAt *time.Time           `json:"age_updated_at,omitempty"`
	Status       string               `json:"status"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
	DeletedAt    *time.Time           `json:"deleted_at,omitempty"`
	Address      *AddressPayload      `json:"address"`
	PhoneNumbers []PhoneNumberPayload `json:"phone_numbers"`
}

type AddressPayload struct {
	ID              uuid.UUID  `json:"id"`
	ColonyOrVillage string     `json:"colony_or_village"`
	District        string     `json:"district"`
	State           string     `json:"state"`
	Country         string     `json:"country"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty"`
}

type PhoneNumberPayload struct {
	ID        uuid.UUID  `json:"id"`
	Number    string     `json:"number"`
	Type      string     `json:"phone_type"`
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// ToDatabaseModel builds the reconciled local copy of a server patient.
// dob must be the already validated date of birth, if any.
func (p PatientPayload) ToDatabaseModel(dob *time.Time) Patient {
	var addressID uuid.UUID
	if p.Address != nil {
		addressID = p.Address.ID
	}
	status := p.Status
	if status == "" {
		status = StatusActive
	}

	var dateOfBirth *datatypes.Date
	if dob != nil {
		d := datatypes.Date(*dob)
		dateOfBirth = &d
	}

	return Patient{
		ID:             p.ID,
		AddressID:      addressID,
		FullName:       p.FullName,
		SearchableName: textnorm.Searchable(p.FullName),
		Gender:         p.Gender,
		DateOfBirth:    dateOfBirth,
		Age:            p.Age,
		AgeUpdatedAt:   p.AgeUpdatedAt,
		Status:         status,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
		DeletedAt:      p.DeletedAt,
		SyncStatus:     syncstatus.Done,
	}
}

func (a AddressPayload) ToDatabaseModel() Address {
	return Address{
		ID:              a.ID,
		ColonyOrVillage: a.ColonyOrVillage,
		District:        a.District,
		State:           a.State,
		Country:         a.Country,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
		DeletedAt:       a.DeletedAt,
	}
}

func (n PhoneNumberPayload) ToDatabaseModel(patientID uuid.UUID) PhoneNumber {
	return PhoneNumber{
		ID:        n.ID,
		PatientID: patientID,
		Number:    n.Number,
		Type:      n.Type,
		Active:    n.Active,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
		DeletedAt: n.DeletedAt,
	}
}

// ToPayload is the inverse mapping used when pushing local records.
func (p Patient) ToPayload(address Address, numbers []PhoneNumber) PatientPayload {
	var dob string
	if p.DateOfBirth != nil {
		dob = time.Time(*p.DateOfBirth).Format(PayloadDateLayout)
	}
	addressPayload := address.ToPayload()

	phonePayloads := make([]PhoneNumberPayload, 0, len(numbers))
	for _, n := range numbers {
		phonePayloads = append(phonePayloads, n.ToPayload())
	}

	return PatientPayload{
		ID:           p.ID,
		FullName:     p.FullName,
		Gender:       p.Gender,
		DateOfBirth:  dob,
		Age:          p.Age,
		AgeUpdatedAt: p.AgeUpdatedAt,
		Status:       p.Status,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
		DeletedAt:    p.DeletedAt,
		Address:      &addressPayload,
		PhoneNumbers: phonePayloads,
	}
}

func (a Address) ToPayload() AddressPayload {
	return AddressPayload{
		ID:              a.ID,
		ColonyOrVillage: a.ColonyOrVillage,
		District:        a.District,
		State:           a.State,
		Country:         a.Country,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
		DeletedAt:       a.DeletedAt,
	}
}

func (n PhoneNumber) ToPayload() PhoneNumberPayload {
	return PhoneNumberPayload{
		ID:        n.ID,
		Number:    n.Number,
		Type:      n.Type,
		Active:    n.Active,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
		DeletedAt: n.DeletedAt,
	}
}
