// Package memstore provides in-memory repository implementations with the
// same atomicity contract as the Postgres ones. It backs unit tests and
// local runs without a database.
package memstore

import (
	"context"
	"sync"
	"time"

	"gearshare/internal/domain/reservation"
	"gearshare/internal/domain/resource"
	"gearshare/internal/infra"

	"github.com/google/uuid"
)

type Store struct {
	mu            sync.RWMutex
	resources     map[uuid.UUID]*resource.Resource
	reservations  map[uuid.UUID]*reservation.Reservation
	resourceLocks map[uuid.UUID]*sync.Mutex
	lockMu        sync.Mutex
}

func New() *Store {
	return &Store{
		resources:     make(map[uuid.UUID]*resource.Resource),
		reservations:  make(map[uuid.UUID]*reservation.Reservation),
		resourceLocks: make(map[uuid.UUID]*sync.Mutex),
	}
}

func (s *Store) Resources() *ResourceRepository       { return &ResourceRepository{store: s} }
func (s *Store) Reservations() *ReservationRepository { return &ReservationRepository{store: s} }

// resourceLock returns the creation mutex for one resource, the in-memory
// equivalent of the advisory lock.
func (s *Store) resourceLock(id uuid.UUID) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	m, ok := s.resourceLocks[id]
	if !ok {
		m = &sync.Mutex{}
		s.resourceLocks[id] = m
	}
	return m
}

type ResourceRepository struct {
	store *Store
}

func (r *ResourceRepository) FindByID(_ context.Context, id uuid.UUID) (*resource.Resource, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	res, ok := r.store.resources[id]
	if !ok {
		return nil, infra.WrapRepoErr("resource not found", nil, infra.KindNotFound)
	}
	return cloneResource(res), nil
}

func (r *ResourceRepository) Create(_ context.Context, res *resource.Resource) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.resources[res.ID()]; exists {
		return infra.WrapRepoErr("resource already exists", nil, infra.KindConflict)
	}
	r.store.resources[res.ID()] = cloneResource(res)
	return nil
}

func (r *ResourceRepository) Update(_ context.Context, res *resource.Resource) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.resources[res.ID()]; !exists {
		return infra.WrapRepoErr("resource not found", nil, infra.KindNotFound)
	}
	r.store.resources[res.ID()] = cloneResource(res)
	return nil
}

type ReservationRepository struct {
	store *Store
}

func (r *ReservationRepository) CheckAndCreate(
	_ context.Context,
	res *reservation.Reservation,
	guard []reservation.Status,
	policy reservation.OverlapPolicy,
) error {
	lock := r.store.resourceLock(res.ResourceID())
	lock.Lock()
	defer lock.Unlock()

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.reservations {
		if existing.ResourceID() != res.ResourceID() {
			continue
		}
		if !statusIn(existing.Status(), guard) {
			continue
		}
		if res.Slot().Overlaps(existing.Slot(), policy) {
			return infra.WrapRepoErr("interval already reserved", nil, infra.KindConflict)
		}
	}

	r.store.reservations[res.ID()] = cloneReservation(res)
	return nil
}

func (r *ReservationRepository) FindByID(_ context.Context, id uuid.UUID) (*reservation.Reservation, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	res, ok := r.store.reservations[id]
	if !ok {
		return nil, infra.WrapRepoErr("reservation not found", nil, infra.KindNotFound)
	}
	return cloneReservation(res), nil
}

func (r *ReservationRepository) Update(_ context.Context, res *reservation.Reservation) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	current, ok := r.store.reservations[res.ID()]
	if !ok {
		return infra.WrapRepoErr("reservation not found", nil, infra.KindNotFound)
	}
	if current.Version() != res.Version() {
		return infra.WrapRepoErr("reservation version conflict", nil, infra.KindStale)
	}

	if res.HoldsInterval() {
		for _, other := range r.store.reservations {
			if other.ID() == res.ID() || other.ResourceID() != res.ResourceID() {
				continue
			}
			if !other.HoldsInterval() {
				continue
			}
			if res.Slot().Overlaps(other.Slot(), reservation.OverlapHalfOpen) {
				return infra.WrapRepoErr("interval already held by another reservation", nil, infra.KindConflict)
			}
		}
	}

	stored := cloneReservation(res)
	stored.SetVersion(res.Version() + 1)
	r.store.reservations[res.ID()] = stored
	res.SetVersion(res.Version() + 1)
	return nil
}

func (r *ReservationRepository) FindConflicts(
	_ context.Context,
	resourceID uuid.UUID,
	start, end time.Time,
	statuses []reservation.Status,
	excludeID *uuid.UUID,
	policy reservation.OverlapPolicy,
) ([]*reservation.Reservation, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	probe := reservation.ReconstructTimeSlot(start, end)
	var result []*reservation.Reservation
	for _, res := range r.store.reservations {
		if res.ResourceID() != resourceID {
			continue
		}
		if excludeID != nil && res.ID() == *excludeID {
			continue
		}
		if !statusIn(res.Status(), statuses) {
			continue
		}
		if probe.Overlaps(res.Slot(), policy) {
			result = append(result, cloneReservation(res))
		}
	}
	sortBySlotStart(result)
	return result, nil
}

func (r *ReservationRepository) DueExpirations(_ context.Context, requestedBefore time.Time, limit int) ([]uuid.UUID, error) {
	return r.collect(limit, func(res *reservation.Reservation) bool {
		return res.Status() == reservation.StatusPending && res.RequestedAt().Before(requestedBefore)
	})
}

func (r *ReservationRepository) DueActivations(_ context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	return r.collect(limit, func(res *reservation.Reservation) bool {
		return res.DueToStart(now)
	})
}

func (r *ReservationRepository) DueCompletions(_ context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	return r.collect(limit, func(res *reservation.Reservation) bool {
		return res.DueToComplete(now)
	})
}

func (r *ReservationRepository) collect(limit int, match func(*reservation.Reservation) bool) ([]uuid.UUID, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var ids []uuid.UUID
	for _, res := range r.store.reservations {
		if match(res) {
			ids = append(ids, res.ID())
			if limit > 0 && len(ids) >= limit {
				break
			}
		}
	}
	return ids, nil
}

func statusIn(s reservation.Status, set []reservation.Status) bool {
	for _, candidate := range set {
		if s == candidate {
			return true
		}
	}
	return false
}

func sortBySlotStart(items []*reservation.Reservation) {
	for i := 1; i < len(items); i++ {
		for j := i; j > 0 && items[j].Slot().Start().Before(items[j-1].Slot().Start()); j-- {
			items[j], items[j-1] = items[j-1], items[j]
		}
	}
}

func cloneResource(res *resource.Resource) *resource.Resource {
	return resource.Reconstruct(
		res.ID(), res.OwnerID(), res.Title(), res.Description(),
		res.Tiers(), res.Delivery(), res.Status(),
		res.CreatedAt(), res.UpdatedAt(),
	)
}

func cloneReservation(res *reservation.Reservation) *reservation.Reservation {
	var refund *reservation.RefundRecord
	if r := res.Refund(); r != nil {
		copied := *r
		refund = &copied
	}
	var dispute *reservation.DisputeRecord
	if d := res.Dispute(); d != nil {
		copied := *d
		dispute = &copied
	}
	return reservation.Reconstruct(
		res.ID(), res.Reference(),
		res.ResourceID(), res.RenterID(), res.OwnerID(),
		res.Slot(), res.Status(), res.Pricing(), res.DeliveryRequested(),
		res.Payment(), refund, dispute,
		res.RequestedAt(),
		cloneTime(res.ConfirmedAt()), cloneTime(res.CancelledAt()), cloneTime(res.CompletedAt()),
		res.Version(), res.UpdatedAt(),
	)
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	copied := *t
	return &copied
}
