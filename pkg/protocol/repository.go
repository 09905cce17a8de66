package protocol

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&Protocol{}, &ProtocolDrug{})
}

func (r *Repository) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

func (r *Repository) GetProtocol(ctx context.Context, id uuid.UUID) (Protocol, error) {
	var p Protocol
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&p)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return Protocol{}, ErrNotFound
	}
	if result.Error != nil {
		return Protocol{}, storeUnavailable("get protocol", result.Error)
	}
	return p, nil
}

func (r *Repository) SaveProtocols(ctx context.Context, protocols []Protocol) error {
	if len(protocols) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, UpdateAll: true}).
		Create(&protocols).Error
	if err != nil {
		return storeUnavailable("save protocols", err)
	}
	return nil
}

func (r *Repository) ReplaceDrugs(ctx context.Context, protocolIDs []uuid.UUID, drugs []ProtocolDrug) error {
	if len(protocolIDs) == 0 && len(drugs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(protocolIDs) > 0 {
			ids := make([]string, 0, len(protocolIDs))
			for _, id := range protocolIDs {
				ids = append(ids, id.String())
			}
			if err := tx.Where("protocol_id IN ?", ids).Delete(&ProtocolDrug{}).Error; err != nil {
				return storeUnavailable("delete protocol drugs", err)
			}
		}
		if len(drugs) == 0 {
			return nil
		}
		err := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, UpdateAll: true}).
			Create(&drugs).Error
		if err != nil {
			return storeUnavailable("insert protocol drugs", err)
		}
		return nil
	})
}

func (r *Repository) DrugsForProtocol(ctx context.Context, id uuid.UUID) ([]ProtocolDrug, error) {
	var drugs []ProtocolDrug
	err := r.db.WithContext(ctx).
		Where("protocol_id = ?", id.String()).
		Where("deleted_at IS NULL").
		Order("sort_order ASC").
		Find(&drugs).Error
	if err != nil {
		return nil, storeUnavailable("drugs for protocol", err)
	}
	return drugs, nil
}
