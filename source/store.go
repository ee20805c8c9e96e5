package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/ariebrainware/patient-checkin/model"
	cache "github.com/patrickmn/go-cache"
	"gorm.io/gorm"
)

// DefaultCacheTTL is how long a resolved patient stays cached per signature.
const DefaultCacheTTL = 5 * time.Minute

// Store resolves face signatures against the patients table.
type Store struct {
	db    *gorm.DB
	cache *cache.Cache

	hits   int64
	misses int64
}

// NewStore returns a Store caching lookups for ttl. A ttl <= 0 uses
// DefaultCacheTTL.
func NewStore(db *gorm.DB, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Store{db: db, cache: cache.New(ttl, 2*ttl)}
}

func (s *Store) FetchPatient(ctx context.Context, q Query) (model.Patient, error) {
	if q.Signature == "" {
		return model.Patient{}, ErrNoFace
	}
	if v, ok := s.cache.Get(q.Signature); ok {
		if p, ok := v.(model.Patient); ok {
			atomic.AddInt64(&s.hits, 1)
			return p.Clone(), nil
		}
	}
	atomic.AddInt64(&s.misses, 1)

	db := s.db.WithContext(ctx)

	var match model.FaceMatch
	if err := db.Where("signature = ?", q.Signature).First(&match).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Patient{}, ErrPatientNotFound
		}
		return model.Patient{}, fmt.Errorf("lookup face match: %w", err)
	}

	var row model.PatientRow
	err := db.Preload("MedicalHistory", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("position ASC")
	}).Where("patient_id = ?", match.PatientID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			slog.Warn("Face match points to a missing patient", "patient_id", match.PatientID)
			return model.Patient{}, ErrPatientNotFound
		}
		return model.Patient{}, fmt.Errorf("load patient %s: %w", match.PatientID, err)
	}

	p, err := row.Patient()
	if err != nil {
		return model.Patient{}, err
	}
	s.cache.SetDefault(q.Signature, p.Clone())
	return p, nil
}

// Invalidate drops the cached patient for signature.
func (s *Store) Invalidate(signature string) {
	s.cache.Delete(signature)
}

// CacheStats returns cache hit and miss counts.
func (s *Store) CacheStats() (hits, misses int64) {
	return atomic.LoadInt64(&s.hits), atomic.LoadInt64(&s.misses)
}
