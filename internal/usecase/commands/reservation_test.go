//go:build unit

package commands_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"gearshare/internal/domain/money"
	"gearshare/internal/domain/reservation"
	"gearshare/internal/domain/resource"
	"gearshare/internal/infra"
	"gearshare/internal/infra/memstore"
	"gearshare/internal/pkg/clock"
	"gearshare/internal/pkg/errs"
	"gearshare/internal/usecase/commands"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	mu           sync.Mutex
	authorized   []string
	captured     []string
	refunded     []string
	refundKeys   []string
	refundRefs   map[string]string
	authorizeErr error
	captureErr   error
	refundErr    error
	seq          int
}

func (g *fakeGateway) Authorize(_ context.Context, _ money.Money, _ string, _ uuid.UUID) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.authorizeErr != nil {
		return "", g.authorizeErr
	}
	g.seq++
	ref := fmt.Sprintf("pay_%d", g.seq)
	g.authorized = append(g.authorized, ref)
	return ref, nil
}

func (g *fakeGateway) Capture(_ context.Context, ref string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.captureErr != nil {
		return g.captureErr
	}
	g.captured = append(g.captured, ref)
	return nil
}

// Refund deduplicates on the idempotency key the way a real processor
// would: a repeated key replays the original refund instead of issuing a
// second one, so refunded holds only the refunds that actually moved money.
func (g *fakeGateway) Refund(_ context.Context, ref string, _ money.Money, key string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.refundErr != nil {
		return "", g.refundErr
	}
	g.refundKeys = append(g.refundKeys, key)
	if g.refundRefs == nil {
		g.refundRefs = make(map[string]string)
	}
	if existing, ok := g.refundRefs[key]; ok {
		return existing, nil
	}
	g.refunded = append(g.refunded, ref)
	refundRef := "ref_" + ref
	g.refundRefs[key] = refundRef
	return refundRef, nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []commands.LifecycleEvent
}

func (n *fakeNotifier) Publish(_ context.Context, event commands.LifecycleEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *fakeNotifier) kinds() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	kinds := make([]string, len(n.events))
	for i, e := range n.events {
		kinds[i] = e.Kind
	}
	return kinds
}

type flatFees struct{}

func (flatFees) ServiceFee(base money.Money) money.Money { return base.MulFloat(0.10).Round2() }
func (flatFees) Taxes(money.Money) money.Money           { return money.Zero() }

type fixture struct {
	store    *memstore.Store
	gateway  *fakeGateway
	notifier *fakeNotifier
	clock    *clock.MockClock
	commands commands.ReservationCommands

	ownerID    uuid.UUID
	renterID   uuid.UUID
	resourceID uuid.UUID
}

var testStart = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memstore.New()
	gateway := &fakeGateway{}
	notifier := &fakeNotifier{}
	clk := clock.NewMockClock(testStart)

	f := &fixture{
		store:    store,
		gateway:  gateway,
		notifier: notifier,
		clock:    clk,
		ownerID:  uuid.New(),
		renterID: uuid.New(),
	}

	daily := money.FromFloat(50)
	weekly := money.FromFloat(300)
	res, err := resource.NewResource(
		f.ownerID,
		"Canon EOS R5 kit",
		"",
		resource.PricingTiers{
			Daily:    &daily,
			Weekly:   &weekly,
			Deposit:  money.FromFloat(100),
			Currency: "USD",
		},
		resource.DeliveryTerms{Available: true, Fee: money.FromFloat(15)},
		testStart,
	)
	require.NoError(t, err)
	require.NoError(t, store.Resources().Create(context.Background(), res))
	f.resourceID = res.ID()

	f.commands = commands.NewReservationCommands(
		store.Reservations(),
		store.Resources(),
		gateway,
		notifier,
		flatFees{},
		clk,
		commands.Config{ApprovalWindow: 48 * time.Hour, SweepBatchSize: 100},
		discardLogger(),
	)
	return f
}

func (f *fixture) create(t *testing.T, startOffset, endOffset time.Duration) *reservation.Reservation {
	t.Helper()
	created, err := f.commands.Create(context.Background(), commands.CreateReservationCommand{
		ResourceID: f.resourceID,
		RenterID:   f.renterID,
		Start:      testStart.Add(startOffset),
		End:        testStart.Add(endOffset),
	})
	require.NoError(t, err)
	return created
}

func (f *fixture) reload(t *testing.T, id uuid.UUID) *reservation.Reservation {
	t.Helper()
	entity, err := f.store.Reservations().FindByID(context.Background(), id)
	require.NoError(t, err)
	return entity
}

func TestCreate(t *testing.T) {
	t.Run("pending reservation with pricing snapshot", func(t *testing.T) {
		f := newFixture(t)

		created := f.create(t, 72*time.Hour, 96*time.Hour)

		assert.Equal(t, reservation.StatusPending, created.Status())
		// 24h rental: daily 50 + deposit 100 + 10% fee 5 = 155.
		assert.Equal(t, "50.00", created.Pricing().BaseAmount.String())
		assert.Equal(t, "155.00", created.Pricing().Total.String())
		assert.Equal(t, []string{commands.EventReservationRequested}, f.notifier.kinds())
	})

	t.Run("delivery fee added when requested", func(t *testing.T) {
		f := newFixture(t)

		created, err := f.commands.Create(context.Background(), commands.CreateReservationCommand{
			ResourceID:        f.resourceID,
			RenterID:          f.renterID,
			Start:             testStart.Add(72 * time.Hour),
			End:               testStart.Add(96 * time.Hour),
			DeliveryRequested: true,
		})
		require.NoError(t, err)
		assert.Equal(t, "15.00", created.Pricing().DeliveryFee.String())
		assert.Equal(t, "170.00", created.Pricing().Total.String())
	})

	t.Run("overlapping pending request rejected", func(t *testing.T) {
		f := newFixture(t)
		f.create(t, 72*time.Hour, 96*time.Hour)

		_, err := f.commands.Create(context.Background(), commands.CreateReservationCommand{
			ResourceID: f.resourceID,
			RenterID:   uuid.New(),
			Start:      testStart.Add(80 * time.Hour),
			End:        testStart.Add(90 * time.Hour),
		})
		require.ErrorIs(t, err, errs.ErrReservationConflict)
	})

	t.Run("back to back slots accepted under half-open policy", func(t *testing.T) {
		f := newFixture(t)
		f.create(t, 72*time.Hour, 96*time.Hour)

		_, err := f.commands.Create(context.Background(), commands.CreateReservationCommand{
			ResourceID: f.resourceID,
			RenterID:   uuid.New(),
			Start:      testStart.Add(96 * time.Hour),
			End:        testStart.Add(120 * time.Hour),
		})
		require.NoError(t, err)
	})

	t.Run("invalid interval", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.commands.Create(context.Background(), commands.CreateReservationCommand{
			ResourceID: f.resourceID,
			RenterID:   f.renterID,
			Start:      testStart.Add(2 * time.Hour),
			End:        testStart.Add(time.Hour),
		})
		require.ErrorIs(t, err, errs.ErrInvalidInterval)
	})

	t.Run("owner cannot book own resource", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.commands.Create(context.Background(), commands.CreateReservationCommand{
			ResourceID: f.resourceID,
			RenterID:   f.ownerID,
			Start:      testStart.Add(time.Hour),
			End:        testStart.Add(2 * time.Hour),
		})
		require.ErrorIs(t, err, errs.ErrSelfBooking)
	})

	t.Run("unknown resource", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.commands.Create(context.Background(), commands.CreateReservationCommand{
			ResourceID: uuid.New(),
			RenterID:   f.renterID,
			Start:      testStart.Add(time.Hour),
			End:        testStart.Add(2 * time.Hour),
		})
		require.ErrorIs(t, err, errs.ErrResourceNotFound)
	})

	t.Run("soft-deleted resource not bookable", func(t *testing.T) {
		f := newFixture(t)
		res, err := f.store.Resources().FindByID(context.Background(), f.resourceID)
		require.NoError(t, err)
		res.SoftDelete(testStart)
		require.NoError(t, f.store.Resources().Update(context.Background(), res))

		_, err = f.commands.Create(context.Background(), commands.CreateReservationCommand{
			ResourceID: f.resourceID,
			RenterID:   f.renterID,
			Start:      testStart.Add(time.Hour),
			End:        testStart.Add(2 * time.Hour),
		})
		require.ErrorIs(t, err, errs.ErrResourceDeleted)
	})
}

func TestApprove(t *testing.T) {
	t.Run("captures payment then confirms", func(t *testing.T) {
		f := newFixture(t)
		created := f.create(t, 72*time.Hour, 96*time.Hour)

		require.NoError(t, f.commands.Approve(context.Background(), created.ID(), f.ownerID))

		stored := f.reload(t, created.ID())
		assert.Equal(t, reservation.StatusConfirmed, stored.Status())
		assert.Equal(t, reservation.PaymentPaid, stored.Payment().Status)
		assert.NotEmpty(t, stored.Payment().IntentRef)
		assert.NotNil(t, stored.ConfirmedAt())
		assert.Len(t, f.gateway.captured, 1)
	})

	t.Run("only the owner may approve", func(t *testing.T) {
		f := newFixture(t)
		created := f.create(t, 72*time.Hour, 96*time.Hour)

		err := f.commands.Approve(context.Background(), created.ID(), f.renterID)
		require.ErrorIs(t, err, errs.ErrNotAllowed)
	})

	t.Run("payment failure leaves the request pending", func(t *testing.T) {
		f := newFixture(t)
		created := f.create(t, 72*time.Hour, 96*time.Hour)
		f.gateway.captureErr = errors.New("card declined")

		err := f.commands.Approve(context.Background(), created.ID(), f.ownerID)
		require.ErrorIs(t, err, errs.ErrPaymentFailed)

		stored := f.reload(t, created.ID())
		assert.Equal(t, reservation.StatusPending, stored.Status())
		assert.Equal(t, reservation.PaymentPending, stored.Payment().Status)
	})

	t.Run("repeat approval is a no-op without a second charge", func(t *testing.T) {
		f := newFixture(t)
		created := f.create(t, 72*time.Hour, 96*time.Hour)

		require.NoError(t, f.commands.Approve(context.Background(), created.ID(), f.ownerID))
		require.NoError(t, f.commands.Approve(context.Background(), created.ID(), f.ownerID))
		assert.Len(t, f.gateway.captured, 1)
	})

	t.Run("cancelled request cannot be approved", func(t *testing.T) {
		f := newFixture(t)
		created := f.create(t, 72*time.Hour, 96*time.Hour)
		require.NoError(t, f.commands.Cancel(context.Background(), created.ID(), f.renterID, ""))

		err := f.commands.Approve(context.Background(), created.ID(), f.ownerID)
		require.Error(t, err)
		assert.True(t, reservation.IsStateTransitionError(err))
		assert.Empty(t, f.gateway.authorized)
	})
}

func TestReject(t *testing.T) {
	f := newFixture(t)
	created := f.create(t, 72*time.Hour, 96*time.Hour)

	require.NoError(t, f.commands.Reject(context.Background(), created.ID(), f.ownerID))

	stored := f.reload(t, created.ID())
	assert.Equal(t, reservation.StatusCancelled, stored.Status())
	assert.Empty(t, f.gateway.refunded)

	// Rejecting again stays settled.
	require.NoError(t, f.commands.Reject(context.Background(), created.ID(), f.ownerID))
}

func TestCancel(t *testing.T) {
	t.Run("pending cancellation refunds nothing", func(t *testing.T) {
		f := newFixture(t)
		created := f.create(t, 72*time.Hour, 96*time.Hour)

		require.NoError(t, f.commands.Cancel(context.Background(), created.ID(), f.renterID, "changed my mind"))
		assert.Empty(t, f.gateway.refunded)

		stored := f.reload(t, created.ID())
		assert.Equal(t, reservation.StatusCancelled, stored.Status())
		assert.Nil(t, stored.Refund())
	})

	t.Run("confirmed cancellation with 48h notice refunds 90 percent", func(t *testing.T) {
		f := newFixture(t)
		created := f.create(t, 72*time.Hour, 96*time.Hour)
		require.NoError(t, f.commands.Approve(context.Background(), created.ID(), f.ownerID))

		require.NoError(t, f.commands.Cancel(context.Background(), created.ID(), f.renterID, "trip cancelled"))

		stored := f.reload(t, created.ID())
		require.NotNil(t, stored.Refund())
		assert.Equal(t, 0.9, stored.Refund().Percentage)
		// Total 155.00, 90% = 139.50.
		assert.Equal(t, "139.50", stored.Refund().Amount.String())
		assert.Equal(t, reservation.PaymentPartiallyRefunded, stored.Payment().Status)
		assert.Len(t, f.gateway.refunded, 1)
	})

	t.Run("late renter cancellation forfeits everything", func(t *testing.T) {
		f := newFixture(t)
		created := f.create(t, 72*time.Hour, 96*time.Hour)
		require.NoError(t, f.commands.Approve(context.Background(), created.ID(), f.ownerID))

		f.clock.Add(60 * time.Hour) // 12h before start

		require.NoError(t, f.commands.Cancel(context.Background(), created.ID(), f.renterID, "too late"))

		stored := f.reload(t, created.ID())
		assert.Equal(t, reservation.StatusCancelled, stored.Status())
		assert.Nil(t, stored.Refund())
		assert.Empty(t, f.gateway.refunded)
	})

	t.Run("owner cancellation refunds in full regardless of notice", func(t *testing.T) {
		f := newFixture(t)
		created := f.create(t, 72*time.Hour, 96*time.Hour)
		require.NoError(t, f.commands.Approve(context.Background(), created.ID(), f.ownerID))

		f.clock.Add(71 * time.Hour) // 1h before start

		require.NoError(t, f.commands.Cancel(context.Background(), created.ID(), f.ownerID, "equipment broke"))

		stored := f.reload(t, created.ID())
		require.NotNil(t, stored.Refund())
		assert.Equal(t, 1.0, stored.Refund().Percentage)
		assert.Equal(t, "155.00", stored.Refund().Amount.String())
		assert.Equal(t, reservation.PaymentRefunded, stored.Payment().Status)
	})

	t.Run("a stranger cannot cancel", func(t *testing.T) {
		f := newFixture(t)
		created := f.create(t, 72*time.Hour, 96*time.Hour)

		err := f.commands.Cancel(context.Background(), created.ID(), uuid.New(), "")
		require.ErrorIs(t, err, errs.ErrNotAllowed)
	})

	t.Run("refund failure keeps the reservation confirmed", func(t *testing.T) {
		f := newFixture(t)
		created := f.create(t, 72*time.Hour, 96*time.Hour)
		require.NoError(t, f.commands.Approve(context.Background(), created.ID(), f.ownerID))
		f.gateway.refundErr = errors.New("processor down")

		err := f.commands.Cancel(context.Background(), created.ID(), f.renterID, "")
		require.ErrorIs(t, err, errs.ErrPaymentFailed)

		stored := f.reload(t, created.ID())
		assert.Equal(t, reservation.StatusConfirmed, stored.Status())
	})
}

// staleOnceRepo fails the next Update with a stale kind, standing in for a
// concurrent writer that bumped the row version between load and store.
type staleOnceRepo struct {
	commands.ReservationRepository
	staleUpdates int
}

func (r *staleOnceRepo) Update(ctx context.Context, res *reservation.Reservation) error {
	if r.staleUpdates > 0 {
		r.staleUpdates--
		return infra.WrapRepoErr("reservation version moved", nil, infra.KindStale)
	}
	return r.ReservationRepository.Update(ctx, res)
}

func TestCancelRetryAfterStaleUpdateRefundsOnce(t *testing.T) {
	f := newFixture(t)
	repo := &staleOnceRepo{ReservationRepository: f.store.Reservations()}
	cmds := commands.NewReservationCommands(
		repo,
		f.store.Resources(),
		f.gateway,
		f.notifier,
		flatFees{},
		f.clock,
		commands.Config{ApprovalWindow: 48 * time.Hour, SweepBatchSize: 100},
		discardLogger(),
	)

	created := f.create(t, 72*time.Hour, 96*time.Hour)
	require.NoError(t, cmds.Approve(context.Background(), created.ID(), f.ownerID))

	repo.staleUpdates = 1

	err := cmds.Cancel(context.Background(), created.ID(), f.renterID, "trip cancelled")
	require.ErrorIs(t, err, errs.ErrStaleReservation)

	// Stale maps to 409 and the client retries the cancellation.
	require.NoError(t, cmds.Cancel(context.Background(), created.ID(), f.renterID, "trip cancelled"))

	// Both attempts carried the same idempotency key, so the processor
	// issued a single refund.
	require.Len(t, f.gateway.refundKeys, 2)
	assert.Equal(t, f.gateway.refundKeys[0], f.gateway.refundKeys[1])
	assert.Len(t, f.gateway.refunded, 1)

	stored := f.reload(t, created.ID())
	assert.Equal(t, reservation.StatusCancelled, stored.Status())
	require.NotNil(t, stored.Refund())
	assert.Equal(t, "139.50", stored.Refund().Amount.String())
}

func TestDisputeAndResolve(t *testing.T) {
	t.Run("dispute freezes and resolution cancels with refund", func(t *testing.T) {
		f := newFixture(t)
		created := f.create(t, 72*time.Hour, 96*time.Hour)
		require.NoError(t, f.commands.Approve(context.Background(), created.ID(), f.ownerID))

		require.NoError(t, f.commands.Dispute(context.Background(), created.ID(), f.renterID, "item broken"))

		stored := f.reload(t, created.ID())
		assert.Equal(t, reservation.StatusDisputed, stored.Status())

		// The sweep must not complete a frozen reservation.
		f.clock.Add(200 * time.Hour)
		completed, err := f.commands.CompleteDue(context.Background(), f.clock.Now())
		require.NoError(t, err)
		assert.Zero(t, completed)

		require.NoError(t, f.commands.ResolveDispute(context.Background(), commands.ResolveDisputeCommand{
			ReservationID:    created.ID(),
			Outcome:          reservation.ResolutionCancelled,
			RefundPercentage: 0.5,
		}))

		stored = f.reload(t, created.ID())
		assert.Equal(t, reservation.StatusCancelled, stored.Status())
		require.NotNil(t, stored.Refund())
		assert.Equal(t, 0.5, stored.Refund().Percentage)
		assert.Len(t, f.gateway.refunded, 1)
	})

	t.Run("resolution can complete without refund", func(t *testing.T) {
		f := newFixture(t)
		created := f.create(t, 72*time.Hour, 96*time.Hour)
		require.NoError(t, f.commands.Approve(context.Background(), created.ID(), f.ownerID))
		require.NoError(t, f.commands.Dispute(context.Background(), created.ID(), f.ownerID, "no-show claim"))

		require.NoError(t, f.commands.ResolveDispute(context.Background(), commands.ResolveDisputeCommand{
			ReservationID: created.ID(),
			Outcome:       reservation.ResolutionCompleted,
		}))

		stored := f.reload(t, created.ID())
		assert.Equal(t, reservation.StatusCompleted, stored.Status())
		assert.Empty(t, f.gateway.refunded)
	})

	t.Run("outsiders cannot dispute", func(t *testing.T) {
		f := newFixture(t)
		created := f.create(t, 72*time.Hour, 96*time.Hour)
		require.NoError(t, f.commands.Approve(context.Background(), created.ID(), f.ownerID))

		err := f.commands.Dispute(context.Background(), created.ID(), uuid.New(), "drive-by")
		require.ErrorIs(t, err, errs.ErrNotAllowed)
	})
}

func TestSweepTransitions(t *testing.T) {
	t.Run("pending requests expire after the approval window", func(t *testing.T) {
		f := newFixture(t)
		created := f.create(t, 100*time.Hour, 124*time.Hour)

		f.clock.Add(47 * time.Hour)
		expired, err := f.commands.ExpireDue(context.Background(), f.clock.Now())
		require.NoError(t, err)
		assert.Zero(t, expired)

		f.clock.Add(2 * time.Hour)
		expired, err = f.commands.ExpireDue(context.Background(), f.clock.Now())
		require.NoError(t, err)
		assert.Equal(t, 1, expired)

		stored := f.reload(t, created.ID())
		assert.Equal(t, reservation.StatusExpired, stored.Status())
	})

	t.Run("confirmed reservations activate and complete on schedule", func(t *testing.T) {
		f := newFixture(t)
		created := f.create(t, 72*time.Hour, 96*time.Hour)
		require.NoError(t, f.commands.Approve(context.Background(), created.ID(), f.ownerID))

		f.clock.Add(72 * time.Hour)
		activated, err := f.commands.ActivateDue(context.Background(), f.clock.Now())
		require.NoError(t, err)
		assert.Equal(t, 1, activated)
		assert.Equal(t, reservation.StatusActive, f.reload(t, created.ID()).Status())

		f.clock.Add(24 * time.Hour)
		completed, err := f.commands.CompleteDue(context.Background(), f.clock.Now())
		require.NoError(t, err)
		assert.Equal(t, 1, completed)
		assert.Equal(t, reservation.StatusCompleted, f.reload(t, created.ID()).Status())
	})

	t.Run("approved requests never expire", func(t *testing.T) {
		f := newFixture(t)
		created := f.create(t, 100*time.Hour, 124*time.Hour)
		require.NoError(t, f.commands.Approve(context.Background(), created.ID(), f.ownerID))

		f.clock.Add(80 * time.Hour)
		expired, err := f.commands.ExpireDue(context.Background(), f.clock.Now())
		require.NoError(t, err)
		assert.Zero(t, expired)
	})
}

func TestNotificationsAreEmitted(t *testing.T) {
	f := newFixture(t)
	created := f.create(t, 72*time.Hour, 96*time.Hour)
	require.NoError(t, f.commands.Approve(context.Background(), created.ID(), f.ownerID))
	require.NoError(t, f.commands.Cancel(context.Background(), created.ID(), f.renterID, ""))

	assert.Equal(t, []string{
		commands.EventReservationRequested,
		commands.EventReservationConfirmed,
		commands.EventReservationCancelled,
	}, f.notifier.kinds())
}
