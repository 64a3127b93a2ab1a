package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/smarthealth/clinic/internal/domain/timeslot"
	"github.com/smarthealth/clinic/internal/platform/cache"
)

const (
	bookedSlotsTTL = 10 * time.Minute
	// generation keys outlive every entry stamped with them
	generationTTL = 2 * bookedSlotsTTL
)

// cachedRepo serves BookedSlots from a cache. Every (doctor, date) has a
// generation token that writes replace after they commit. Cached entries
// carry the generation read before the underlying query and are ignored once
// it changes, so a slow read can never publish a set older than a committed
// write. Tokens are random, so an expired generation never comes back.
// Cache failures fall back to the underlying repository.
type cachedRepo struct {
	Repository
	store  cache.Store
	logger zerolog.Logger
}

// bookedEntry is the cached value for one (doctor, date).
type bookedEntry struct {
	Generation string          `json:"gen"`
	Slots      []timeslot.Slot `json:"slots"`
}

// WithBookedSlotCache decorates repo with a booked-slot cache.
func WithBookedSlotCache(repo Repository, store cache.Store, logger zerolog.Logger) Repository {
	return &cachedRepo{Repository: repo, store: store, logger: logger.With().Str("component", "booked_slot_cache").Logger()}
}

func bookedKey(doctorID uuid.UUID, date time.Time) string {
	return fmt.Sprintf("booked:%s:%s", doctorID, date.Format(DateLayout))
}

func generationKey(key string) string { return key + ":gen" }

// generation returns "" until the first write.
func (r *cachedRepo) generation(ctx context.Context, key string) (string, error) {
	raw, ok, err := r.store.Get(ctx, generationKey(key))
	if err != nil || !ok {
		return "", err
	}
	return string(raw), nil
}

func (r *cachedRepo) BookedSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]timeslot.Slot, error) {
	key := bookedKey(doctorID, date)
	gen, err := r.generation(ctx, key)
	if err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("cache generation read failed")
		return r.Repository.BookedSlots(ctx, doctorID, date)
	}

	if raw, ok, err := r.store.Get(ctx, key); err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
	} else if ok {
		var e bookedEntry
		if err := json.Unmarshal(raw, &e); err == nil && e.Generation == gen {
			return e.Slots, nil
		}
	}

	slots, err := r.Repository.BookedSlots(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(bookedEntry{Generation: gen, Slots: slots}); err == nil {
		if err := r.store.Set(ctx, key, raw, bookedSlotsTTL); err != nil {
			r.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
		}
	}
	return slots, nil
}

func (r *cachedRepo) Create(ctx context.Context, a *Appointment) error {
	err := r.Repository.Create(ctx, a)
	r.invalidate(ctx, bookedKey(a.DoctorID, a.Date))
	return err
}

// Update invalidates both the previous and the new (doctor, date).
func (r *cachedRepo) Update(ctx context.Context, a *Appointment) error {
	keys := []string{bookedKey(a.DoctorID, a.Date)}
	if prev, err := r.Repository.GetByID(ctx, a.ID); err == nil {
		if k := bookedKey(prev.DoctorID, prev.Date); k != keys[0] {
			keys = append(keys, k)
		}
	}
	err := r.Repository.Update(ctx, a)
	r.invalidate(ctx, keys...)
	return err
}

// invalidate moves every key to a new generation, then drops the entries.
func (r *cachedRepo) invalidate(ctx context.Context, keys ...string) {
	for _, k := range keys {
		if err := r.store.Set(ctx, generationKey(k), []byte(uuid.NewString()), generationTTL); err != nil {
			r.logger.Warn().Err(err).Str("key", k).Msg("cache generation bump failed")
		}
	}
	if err := r.store.Delete(ctx, keys...); err != nil {
		r.logger.Warn().Err(err).Strs("keys", keys).Msg("cache invalidation failed")
	}
}
