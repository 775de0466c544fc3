package application

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingDomain "github.com/easyride/service-booking/internal/domain/booking"
	"github.com/easyride/service-booking/internal/domain/cancellation"
	"github.com/easyride/service-booking/internal/domain/notification"
	"github.com/easyride/service-booking/internal/domain/refund"
	reviewDomain "github.com/easyride/service-booking/internal/domain/review"
	vehicleDomain "github.com/easyride/service-booking/internal/domain/vehicle"
	"github.com/easyride/service-booking/internal/platform/domain"
	"github.com/easyride/service-booking/internal/platform/kafka"
)

// memStore is an in-memory stand-in for the database. Aggregates are stored
// by value so callers can only change state through a repository write.
type memStore struct {
	mu            sync.Mutex
	bookings      map[uuid.UUID]bookingDomain.Booking
	vehicles      map[uuid.UUID]vehicleDomain.Vehicle
	cancellations map[uuid.UUID]cancellation.Record
	reviews       map[uuid.UUID]reviewDomain.Review
}

func newMemStore() *memStore {
	return &memStore{
		bookings:      map[uuid.UUID]bookingDomain.Booking{},
		vehicles:      map[uuid.UUID]vehicleDomain.Vehicle{},
		cancellations: map[uuid.UUID]cancellation.Record{},
		reviews:       map[uuid.UUID]reviewDomain.Review{},
	}
}

type memSnapshot struct {
	bookings      map[uuid.UUID]bookingDomain.Booking
	vehicles      map[uuid.UUID]vehicleDomain.Vehicle
	cancellations map[uuid.UUID]cancellation.Record
	reviews       map[uuid.UUID]reviewDomain.Review
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return memSnapshot{
		bookings:      copyMap(s.bookings),
		vehicles:      copyMap(s.vehicles),
		cancellations: copyMap(s.cancellations),
		reviews:       copyMap(s.reviews),
	}
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings = snap.bookings
	s.vehicles = snap.vehicles
	s.cancellations = snap.cancellations
	s.reviews = snap.reviews
}

// memTx serializes transactions and rolls the store back on error.
type memTx struct {
	mu    sync.Mutex
	store *memStore
}

func (t *memTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	snap := t.store.snapshot()
	if err := fn(ctx); err != nil {
		t.store.restore(snap)
		return err
	}
	return nil
}

func paginate[T any](items []T, page, limit int) []T {
	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// --- bookings ---

type memBookingRepo struct{ s *memStore }

func (r *memBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bookings[id]
	if !ok {
		return nil, bookingDomain.ErrBookingNotFound
	}
	return &b, nil
}

func (r *memBookingRepo) filtered(match func(*bookingDomain.Booking) bool) []*bookingDomain.Booking {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, b := range r.s.bookings {
		b := b
		if match(&b) {
			out = append(out, &b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt().After(out[j].CreatedAt()) })
	return out
}

func (r *memBookingRepo) FindByUserID(_ context.Context, userID uuid.UUID, filter bookingDomain.ListFilter, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	all := r.filtered(func(b *bookingDomain.Booking) bool {
		return b.UserID() == userID && (filter.Status == "" || b.Status() == filter.Status)
	})
	return paginate(all, page, limit), int64(len(all)), nil
}

func (r *memBookingRepo) ListAll(_ context.Context, filter bookingDomain.ListFilter, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	all := r.filtered(func(b *bookingDomain.Booking) bool {
		return filter.Status == "" || b.Status() == filter.Status
	})
	return paginate(all, page, limit), int64(len(all)), nil
}

func (r *memBookingRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	counts := map[string]int64{}
	for _, b := range r.s.bookings {
		counts[string(b.Status())]++
	}
	return counts, nil
}

func (r *memBookingRepo) Save(_ context.Context, bk *bookingDomain.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, b := range r.s.bookings {
		if b.VehicleID() == bk.VehicleID() && b.Status().IsActive() {
			return vehicleDomain.ErrVehicleUnavailable
		}
	}
	r.s.bookings[bk.ID()] = *bk
	return nil
}

func (r *memBookingRepo) Update(_ context.Context, bk *bookingDomain.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.bookings[bk.ID()]
	if !ok || stored.Version() != bk.Version()-1 {
		return domain.ErrConcurrentModification
	}
	r.s.bookings[bk.ID()] = *bk
	return nil
}

func (r *memBookingRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.bookings[id]; !ok {
		return bookingDomain.ErrBookingNotFound
	}
	delete(r.s.bookings, id)
	return nil
}

// --- vehicles ---

type memVehicleRepo struct{ s *memStore }

func (r *memVehicleRepo) FindByID(_ context.Context, id uuid.UUID) (*vehicleDomain.Vehicle, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v, ok := r.s.vehicles[id]
	if !ok {
		return nil, vehicleDomain.ErrVehicleNotFound
	}
	return &v, nil
}

func (r *memVehicleRepo) List(_ context.Context, filter vehicleDomain.ListFilter, page, limit int) ([]*vehicleDomain.Vehicle, int64, error) {
	r.s.mu.Lock()
	var all []*vehicleDomain.Vehicle
	for _, v := range r.s.vehicles {
		v := v
		if filter.AvailableOnly && !v.IsAvailable() {
			continue
		}
		if !containsFold(v.Name(), filter.Name) || !containsFold(v.Brand(), filter.Brand) || !containsFold(v.VehicleType(), filter.VehicleType) {
			continue
		}
		all = append(all, &v)
	}
	r.s.mu.Unlock()
	sort.Slice(all, func(i, j int) bool { return all[i].Name() < all[j].Name() })
	return paginate(all, page, limit), int64(len(all)), nil
}

func (r *memVehicleRepo) Save(_ context.Context, v *vehicleDomain.Vehicle) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.vehicles {
		if existing.LicensePlate() == v.LicensePlate() {
			return domain.NewConflictError("license plate already registered")
		}
	}
	r.s.vehicles[v.ID()] = *v
	return nil
}

func (r *memVehicleRepo) rewrite(id uuid.UUID, fn func(v vehicleDomain.Vehicle) (*vehicleDomain.Vehicle, error)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v, ok := r.s.vehicles[id]
	if !ok {
		return vehicleDomain.ErrVehicleNotFound
	}
	next, err := fn(v)
	if err != nil {
		return err
	}
	r.s.vehicles[id] = *next
	return nil
}

func containsFold(s, term string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(strings.TrimSpace(term)))
}

func (r *memVehicleRepo) UpdateDetails(_ context.Context, v *vehicleDomain.Vehicle) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.vehicles[v.ID()]
	if !ok {
		return vehicleDomain.ErrVehicleNotFound
	}
	for id, existing := range r.s.vehicles {
		if id != v.ID() && existing.LicensePlate() == v.LicensePlate() {
			return domain.NewConflictError("license plate already registered")
		}
	}
	r.s.vehicles[v.ID()] = *vehicleDomain.Reconstruct(v.ID(), v.Name(), v.Brand(), v.VehicleType(), v.Model(), v.Year(),
		v.LicensePlate(), stored.PricePerDayCents(), stored.IsAvailable(), stored.TotalRating(), stored.ReviewCount(),
		stored.CreatedAt(), v.UpdatedAt())
	return nil
}

func (r *memVehicleRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v, ok := r.s.vehicles[id]
	if !ok {
		return vehicleDomain.ErrVehicleNotFound
	}
	if !v.IsAvailable() {
		return vehicleDomain.ErrVehicleUnavailable
	}
	delete(r.s.vehicles, id)
	return nil
}

func rebuild(v vehicleDomain.Vehicle, price int64, available bool, total, count int64) *vehicleDomain.Vehicle {
	return vehicleDomain.Reconstruct(v.ID(), v.Name(), v.Brand(), v.VehicleType(), v.Model(), v.Year(),
		v.LicensePlate(), price, available, total, count, v.CreatedAt(), time.Now().UTC())
}

func (r *memVehicleRepo) UpdatePrice(_ context.Context, id uuid.UUID, cents int64) error {
	return r.rewrite(id, func(v vehicleDomain.Vehicle) (*vehicleDomain.Vehicle, error) {
		return rebuild(v, cents, v.IsAvailable(), v.TotalRating(), v.ReviewCount()), nil
	})
}

func (r *memVehicleRepo) Hold(_ context.Context, id uuid.UUID) error {
	return r.rewrite(id, func(v vehicleDomain.Vehicle) (*vehicleDomain.Vehicle, error) {
		if !v.IsAvailable() {
			return nil, vehicleDomain.ErrVehicleUnavailable
		}
		return rebuild(v, v.PricePerDayCents(), false, v.TotalRating(), v.ReviewCount()), nil
	})
}

func (r *memVehicleRepo) Release(_ context.Context, id uuid.UUID) error {
	return r.rewrite(id, func(v vehicleDomain.Vehicle) (*vehicleDomain.Vehicle, error) {
		if v.IsAvailable() {
			return nil, domain.ErrConcurrentModification
		}
		return rebuild(v, v.PricePerDayCents(), true, v.TotalRating(), v.ReviewCount()), nil
	})
}

func (r *memVehicleRepo) AdjustRating(_ context.Context, id uuid.UUID, ratingDelta, countDelta int64) error {
	return r.rewrite(id, func(v vehicleDomain.Vehicle) (*vehicleDomain.Vehicle, error) {
		return rebuild(v, v.PricePerDayCents(), v.IsAvailable(), v.TotalRating()+ratingDelta, v.ReviewCount()+countDelta), nil
	})
}

// --- cancellations ---

type memCancellationRepo struct{ s *memStore }

func (r *memCancellationRepo) Save(_ context.Context, rec *cancellation.Record) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if existing, ok := r.s.cancellations[rec.BookingID()]; ok {
		if existing.IsPending() {
			return cancellation.ErrDuplicatePendingCancellation
		}
		return cancellation.ErrAlreadyCancelled
	}
	r.s.cancellations[rec.BookingID()] = *rec
	return nil
}

func (r *memCancellationRepo) FindByBookingID(_ context.Context, bookingID uuid.UUID) (*cancellation.Record, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.cancellations[bookingID]
	if !ok {
		return nil, cancellation.ErrCancellationNotFound
	}
	return &rec, nil
}

func (r *memCancellationRepo) MarkApproved(_ context.Context, rec *cancellation.Record) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.cancellations[rec.BookingID()]
	if !ok || !stored.IsPending() {
		return cancellation.ErrAlreadyProcessed
	}
	r.s.cancellations[rec.BookingID()] = *rec
	return nil
}

func (r *memCancellationRepo) List(_ context.Context, status cancellation.Status, page, limit int) ([]*cancellation.Record, int64, error) {
	r.s.mu.Lock()
	var all []*cancellation.Record
	for _, rec := range r.s.cancellations {
		rec := rec
		if status == "" || rec.Status() == status {
			all = append(all, &rec)
		}
	}
	r.s.mu.Unlock()
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt().After(all[j].CreatedAt()) })
	return paginate(all, page, limit), int64(len(all)), nil
}

// racingCancellationRepo runs beforeLookup once, on the first lookup, and
// then reports no record, as if another transaction committed right after the
// read.
type racingCancellationRepo struct {
	*memCancellationRepo
	beforeLookup func()
}

func (r *racingCancellationRepo) FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*cancellation.Record, error) {
	if hook := r.beforeLookup; hook != nil {
		r.beforeLookup = nil
		hook()
		return nil, cancellation.ErrCancellationNotFound
	}
	return r.memCancellationRepo.FindByBookingID(ctx, bookingID)
}

// --- reviews ---

type memReviewRepo struct{ s *memStore }

func (r *memReviewRepo) FindByID(_ context.Context, id uuid.UUID) (*reviewDomain.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rv, ok := r.s.reviews[id]
	if !ok {
		return nil, reviewDomain.ErrReviewNotFound
	}
	return &rv, nil
}

func (r *memReviewRepo) Save(_ context.Context, rv *reviewDomain.Review) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.reviews {
		if existing.UserID() == rv.UserID() && existing.BookingID() == rv.BookingID() {
			return reviewDomain.ErrDuplicateReview
		}
	}
	r.s.reviews[rv.ID()] = *rv
	return nil
}

func (r *memReviewRepo) Update(_ context.Context, rv *reviewDomain.Review, previousRating int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.reviews[rv.ID()]
	if !ok || stored.Rating() != previousRating {
		return domain.ErrConcurrentModification
	}
	r.s.reviews[rv.ID()] = *rv
	return nil
}

func (r *memReviewRepo) Delete(_ context.Context, rv *reviewDomain.Review) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.reviews[rv.ID()]
	if !ok || stored.Rating() != rv.Rating() {
		return domain.ErrConcurrentModification
	}
	delete(r.s.reviews, rv.ID())
	return nil
}

// staleReviewRepo serves reads from a frozen copy of the reviews, standing in
// for a transaction that read before a concurrent writer committed.
type staleReviewRepo struct {
	*memReviewRepo
	frozen map[uuid.UUID]reviewDomain.Review
}

func (r *staleReviewRepo) FindByID(ctx context.Context, id uuid.UUID) (*reviewDomain.Review, error) {
	if rv, ok := r.frozen[id]; ok {
		return &rv, nil
	}
	return r.memReviewRepo.FindByID(ctx, id)
}

func (r *memReviewRepo) collect(match func(*reviewDomain.Review) bool) []*reviewDomain.Review {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*reviewDomain.Review
	for _, rv := range r.s.reviews {
		rv := rv
		if match(&rv) {
			out = append(out, &rv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt().After(out[j].CreatedAt()) })
	return out
}

func (r *memReviewRepo) ListByVehicle(_ context.Context, vehicleID uuid.UUID, filter reviewDomain.ListFilter, page, limit int) ([]*reviewDomain.Review, int64, error) {
	all := r.collect(func(rv *reviewDomain.Review) bool {
		return rv.VehicleID() == vehicleID && (filter.Rating == 0 || rv.Rating() == filter.Rating)
	})
	switch filter.Sort {
	case reviewDomain.SortHighest:
		sort.SliceStable(all, func(i, j int) bool { return all[i].Rating() > all[j].Rating() })
	case reviewDomain.SortLowest:
		sort.SliceStable(all, func(i, j int) bool { return all[i].Rating() < all[j].Rating() })
	}
	return paginate(all, page, limit), int64(len(all)), nil
}

func (r *memReviewRepo) ListByBooking(_ context.Context, bookingID uuid.UUID) ([]*reviewDomain.Review, error) {
	return r.collect(func(rv *reviewDomain.Review) bool { return rv.BookingID() == bookingID }), nil
}

func (r *memReviewRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*reviewDomain.Review, error) {
	return r.collect(func(rv *reviewDomain.Review) bool { return rv.UserID() == userID }), nil
}

// --- notifications ---

type memNotificationRepo struct {
	mu    sync.Mutex
	items []*notification.Notification
	err   error
}

func (r *memNotificationRepo) Save(_ context.Context, n *notification.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.items = append(r.items, n)
	return nil
}

func (r *memNotificationRepo) FindByUserID(_ context.Context, userID uuid.UUID, page, limit int) ([]*notification.Notification, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*notification.Notification
	for i := len(r.items) - 1; i >= 0; i-- {
		if r.items[i].UserID() == userID {
			all = append(all, r.items[i])
		}
	}
	return paginate(all, page, limit), int64(len(all)), nil
}

func (r *memNotificationRepo) MarkRead(_ context.Context, id, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, n := range r.items {
		if n.ID() == id && n.UserID() == userID {
			r.items[i] = notification.Reconstruct(n.ID(), n.UserID(), n.Message(), n.Type(), true, n.CreatedAt())
			return nil
		}
	}
	return notification.ErrNotificationNotFound
}

func (r *memNotificationRepo) Delete(_ context.Context, id, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, n := range r.items {
		if n.ID() == id && n.UserID() == userID {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return notification.ErrNotificationNotFound
}

// recordingNotifier captures sends.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

type sentNotification struct {
	UserID  uuid.UUID
	Message string
	Type    notification.Type
}

func (n *recordingNotifier) Send(_ context.Context, userID uuid.UUID, message string, nType notification.Type) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{UserID: userID, Message: message, Type: nType})
}

func (n *recordingNotifier) types() []notification.Type {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]notification.Type, len(n.sent))
	for i, s := range n.sent {
		out[i] = s.Type
	}
	return out
}

// recordingPublisher captures published events and can be made to fail.
type recordingPublisher struct {
	mu     sync.Mutex
	events []kafka.CloudEvent
	err    error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, _ string, ce kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ce)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// --- fixture ---

type fixture struct {
	store     *memStore
	clock     *fakeClock
	notifier  *recordingNotifier
	publisher *recordingPublisher
	bookings  *BookingService
	reviews   *ReviewService
	vehicles  *VehicleService
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var fixtureStart = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

func newFixture() *fixture {
	store := newMemStore()
	tx := &memTx{store: store}
	clock := &fakeClock{now: fixtureStart}
	notifier := &recordingNotifier{}
	publisher := &recordingPublisher{}
	logger := zap.NewNop()

	bookingRepo := &memBookingRepo{s: store}
	vehicleRepo := &memVehicleRepo{s: store}

	bookings := NewBookingService(tx, bookingRepo, vehicleRepo, &memCancellationRepo{s: store},
		bookingDomain.NewDailyRatePricingStrategy(), refund.NewStandardPolicy(), notifier, publisher, logger)
	bookings.now = clock.Now

	reviews := NewReviewService(tx, &memReviewRepo{s: store}, bookingRepo, vehicleRepo, logger)
	reviews.now = clock.Now

	return &fixture{
		store:     store,
		clock:     clock,
		notifier:  notifier,
		publisher: publisher,
		bookings:  bookings,
		reviews:   reviews,
		vehicles:  NewVehicleService(vehicleRepo, logger),
	}
}

func (f *fixture) vehicle(id uuid.UUID) *vehicleDomain.Vehicle {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	v := f.store.vehicles[id]
	return &v
}

var errBoom = errors.New("boom")
