package protocol

import (
	"time"

	"github.com/google/uuid"
	"github.com/simple-clinic/clinic-sync/pkg/syncstatus"
)

type ProtocolPayload struct {
	ID           uuid.UUID             `json:"id"`
	Name         string                `json:"name"`
	FollowUpDays int                   `json:"follow_up_days"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
	DeletedAt    *time.Time            `json:"deleted_at,omitempty"`
	Drugs        []ProtocolDrugPayload `json:"protocol_drugs"`
}

type ProtocolDrugPayload struct {
	ID         uuid.UUID  `json:"id"`
	ProtocolID uuid.UUID  `json:"protocol_id"`
	Name       string     `json:"name"`
	Dosage     string     `json:"dosage"`
	RxNormCode string     `json:"rxnorm_code,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
}

func (p ProtocolPayload) ToDatabaseModel() Protocol {
	return Protocol{
		ID:           p.ID,
		Name:         p.Name,
		FollowUpDays: p.FollowUpDays,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
		DeletedAt:    p.DeletedAt,
		SyncStatus:   syncstatus.Done,
	}
}

// ToDatabaseModel keeps the position the server sent the drug in.
func (d ProtocolDrugPayload) ToDatabaseModel(order int) ProtocolDrug {
	return ProtocolDrug{
		ID:         d.ID,
		ProtocolID: d.ProtocolID,
		Name:       d.Name,
		Dosage:     d.Dosage,
		RxNormCode: d.RxNormCode,
		Order:      order,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
		DeletedAt:  d.DeletedAt,
	}
}

func (p Protocol) ToPayload(drugs []ProtocolDrug) ProtocolPayload {
	payload := ProtocolPayload{
		ID:           p.ID,
		Name:         p.Name,
		FollowUpDays: p.FollowUpDays,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
		DeletedAt:    p.DeletedAt,
		Drugs:        make([]ProtocolDrugPayload, 0, len(drugs)),
	}
	for _, d := range drugs {
		payload.Drugs = append(payload.Drugs, ProtocolDrugPayload{
			ID:         d.ID,
			ProtocolID: d.ProtocolID,
			Name:       d.Name,
			Dosage:     d.Dosage,
			RxNormCode: d.RxNormCode,
			CreatedAt:  d.CreatedAt,
			UpdatedAt:  d.UpdatedAt,
			DeletedAt:  d.DeletedAt,
		})
	}
	return payload
}
