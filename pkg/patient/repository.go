package patient

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db       *gorm.DB
	phonetic *PhoneticMatcher
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, phonetic: NewPhoneticMatcher(2)}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&Patient{}, &Address{}, &PhoneNumber{})
}

func (r *Repository) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx, phonetic: r.phonetic})
	})
}

func (r *Repository) GetPatient(ctx context.Context, id uuid.UUID) (Patient, error) {
	var p Patient
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&p)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return Patient{}, ErrNotFound
	}
	if result.Error != nil {
		return Patient{}, storeUnavailable("get patient", result.Error)
	}
	return p, nil
}

func (r *Repository) SavePatients(ctx context.Context, patients []Patient) error {
	if len(patients) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, UpdateAll: true}).
		Create(&patients).Error
	if err != nil {
		return storeUnavailable("save patients", err)
	}
	return nil
}

func (r *Repository) SaveAddresses(ctx context.Context, addresses []Address) error {
	if len(addresses) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, UpdateAll: true}).
		Create(&addresses).Error
	if err != nil {
		return storeUnavailable("save addresses", err)
	}
	return nil
}

func (r *Repository) ReplacePhoneNumbers(ctx context.Context, patientIDs []uuid.UUID, numbers []PhoneNumber) error {
	if len(patientIDs) == 0 && len(numbers) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(patientIDs) > 0 {
			if err := tx.Where("patient_id IN ?", idStrings(patientIDs)).Delete(&PhoneNumber{}).Error; err != nil {
				return storeUnavailable("delete phone numbers", err)
			}
		}
		if len(numbers) == 0 {
			return nil
		}
		err := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, UpdateAll: true}).
			Create(&numbers).Error
		if err != nil {
			return storeUnavailable("insert phone numbers", err)
		}
		return nil
	})
}

func (r *Repository) searchQuery(ctx context.Context, status string) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("patients AS p").
		Select(`p.id, p.full_name, p.gender, p.date_of_birth, p.age, p.status, p.address_id, p.updated_at,
			a.colony_or_village, a.district, a.state,
			(SELECT ph.number FROM patient_phone_numbers ph
				WHERE ph.patient_id = p.id AND ph.deleted_at IS NULL
				ORDER BY ph.created_at DESC LIMIT 1) AS phone_number`).
		Joins("LEFT JOIN patient_addresses a ON a.id = p.address_id").
		Where("p.deleted_at IS NULL").
		Where("p.status = ?", status)
}

// SearchByName matches the normalised query anywhere in searchable_name,
// case-insensitively, ordered by full name.
func (r *Repository) SearchByName(ctx context.Context, query string, status string, limit int) ([]SearchResult, error) {
	var results []SearchResult
	q := r.searchQuery(ctx, status).
		Where("LOWER(p.searchable_name) LIKE ?", "%"+strings.ToLower(escapeLike(query))+"%").
		Order("p.full_name ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(&results).Error; err != nil {
		return nil, storeUnavailable("search by name", err)
	}
	return results, nil
}

// SearchByIDs returns matching rows in store order; callers reorder.
func (r *Repository) SearchByIDs(ctx context.Context, ids []uuid.UUID, status string) ([]SearchResult, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var results []SearchResult
	err := r.searchQuery(ctx, status).
		Where("p.id IN ?", idStrings(ids)).
		Scan(&results).Error
	if err != nil {
		return nil, storeUnavailable("search by ids", err)
	}
	return results, nil
}

func (r *Repository) NameAndIDs(ctx context.Context, status string) ([]NameAndID, error) {
	var rows []NameAndID
	err := r.db.WithContext(ctx).
		Model(&Patient{}).
		Select("id, full_name").
		Where("deleted_at IS NULL").
		Where("status = ?", status).
		Order("full_name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, storeUnavailable("name index", err)
	}
	return rows, nil
}

// FuzzySearch is the legacy phonetic / edit-distance lookup over active
// patients, closest names first.
func (r *Repository) FuzzySearch(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	index, err := r.NameAndIDs(ctx, StatusActive)
	if err != nil {
		return nil, err
	}

	type hit struct {
		id       uuid.UUID
		distance int
	}
	var hits []hit
	for _, row := range index {
		if ok, distance := r.phonetic.Matches(query, row.FullName); ok {
			hits = append(hits, hit{id: row.ID, distance: distance})
		}
	}
	if len(hits) == 0 {
		return nil, nil
	}
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].distance < hits[b].distance })
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}

	ids := make([]uuid.UUID, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.id)
	}
	results, err := r.SearchByIDs(ctx, ids, StatusActive)
	if err != nil {
		return nil, err
	}
	return OrderByIDs(ids, results), nil
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}

func escapeLike(s string) string {
	return strings.NewReplacer("%", "", "_", "").Replace(s)
}
