package services

import (
	"context"
	"testing"
	"time"

	"github.com/arzan03/SchoolDesk/internal/models"
	"github.com/arzan03/SchoolDesk/internal/store"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignature(t *testing.T) {
	// hex(HMAC-SHA256("pay-secret", "order_1|pay_1"))
	sig := Signature([]byte(testPaymentSecret), "order_1", "pay_1")
	assert.Len(t, sig, 64)
	assert.Equal(t, sig, Signature([]byte(testPaymentSecret), "order_1", "pay_1"))
	assert.NotEqual(t, sig, Signature([]byte(testPaymentSecret), "order_1", "pay_2"))
	assert.NotEqual(t, sig, Signature([]byte("other"), "order_1", "pay_1"))
}

func TestPayments_CourseCheckout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.user(t, models.RoleStudent, "STU-1")
	f.course(t, "CRS-1", "TCH-1", 2)
	sess := sessionOf(student)

	order, err := f.svc.Payments.CreateOrder(ctx, sess, models.NewOrder{CourseID: "CRS-1"})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCreated, order.Status)
	assert.Equal(t, 499.0, order.Amount)
	assert.Equal(t, "INR", order.Currency)

	res, err := f.svc.Payments.Verify(ctx, sess, models.PaymentVerification{
		OrderID:   order.ID,
		PaymentID: "pay_1",
		Signature: Signature([]byte(testPaymentSecret), order.ID, "pay_1"),
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	require.NotNil(t, res.Enrollment)
	assert.Equal(t, "CRS-1", res.Enrollment.CourseID)
	assert.Equal(t, models.EnrollmentActive, res.Enrollment.Status)

	stored, err := f.repos.Payments.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, stored.Status)
	assert.Equal(t, "pay_1", stored.PaymentID)

	again, err := f.svc.Payments.Verify(ctx, sess, models.PaymentVerification{OrderID: order.ID, PaymentID: "pay_1", Signature: "stale"})
	require.NoError(t, err)
	assert.True(t, again.Success)
	assert.Equal(t, "payment already verified", again.Message)

	n, err := f.repos.Enrollments.Count(ctx, pairFilter("STU-1", "CRS-1"))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = f.svc.Payments.CreateOrder(ctx, sess, models.NewOrder{CourseID: "CRS-1"})
	assert.ErrorIs(t, err, ErrAlreadyEnrolled)
}

// flakyEnrollments fails the next failInserts inserts.
type flakyEnrollments struct {
	store.Collection[models.Enrollment]
	failInserts int
}

func (c *flakyEnrollments) Insert(ctx context.Context, doc *models.Enrollment) error {
	if c.failInserts > 0 {
		c.failInserts--
		return errors.New("transient store error")
	}
	return c.Collection.Insert(ctx, doc)
}

func TestPayments_GrantFailureKeepsOrderOpen(t *testing.T) {
	f := newFixture(t, func(r *store.Repos) {
		r.Enrollments = &flakyEnrollments{Collection: r.Enrollments, failInserts: 1}
	})
	ctx := context.Background()
	student := f.user(t, models.RoleStudent, "STU-1")
	f.course(t, "CRS-1", "TCH-1", 2)
	sess := sessionOf(student)

	order, err := f.svc.Payments.CreateOrder(ctx, sess, models.NewOrder{CourseID: "CRS-1"})
	require.NoError(t, err)
	pv := models.PaymentVerification{
		OrderID:   order.ID,
		PaymentID: "pay_1",
		Signature: Signature([]byte(testPaymentSecret), order.ID, "pay_1"),
	}

	_, err = f.svc.Payments.Verify(ctx, sess, pv)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transient store error")

	stored, err := f.repos.Payments.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCreated, stored.Status)

	res, err := f.svc.Payments.Verify(ctx, sess, pv)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "payment verified", res.Message)
	require.NotNil(t, res.Enrollment)
	assert.Equal(t, "CRS-1", res.Enrollment.CourseID)

	stored, err = f.repos.Payments.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, stored.Status)

	again, err := f.svc.Payments.Verify(ctx, sess, pv)
	require.NoError(t, err)
	assert.Equal(t, "payment already verified", again.Message)
	require.NotNil(t, again.Enrollment)
	assert.Equal(t, res.Enrollment.ID, again.Enrollment.ID)

	n, err := f.repos.Enrollments.Count(ctx, pairFilter("STU-1", "CRS-1"))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestPayments_BadSignature(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.user(t, models.RoleStudent, "STU-1")
	f.course(t, "CRS-1", "TCH-1", 2)
	sess := sessionOf(student)

	order, err := f.svc.Payments.CreateOrder(ctx, sess, models.NewOrder{CourseID: "CRS-1"})
	require.NoError(t, err)

	res, err := f.svc.Payments.Verify(ctx, sess, models.PaymentVerification{
		OrderID:   order.ID,
		PaymentID: "pay_1",
		Signature: Signature([]byte("wrong-secret"), order.ID, "pay_1"),
	})
	require.NoError(t, err)
	assert.False(t, res.Success)

	stored, err := f.repos.Payments.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentFailed, stored.Status)

	_, err = f.repos.Enrollments.FindOne(ctx, pairFilter("STU-1", "CRS-1"))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPayments_PlanCheckout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.user(t, models.RoleStudent, "STU-1")
	sess := sessionOf(student)

	plan, err := f.svc.Plans.Create(ctx, admin, models.NewPlan{Name: "Annual", Price: 999, DurationDays: 30, Active: true})
	require.NoError(t, err)
	retired, err := f.svc.Plans.Create(ctx, admin, models.NewPlan{Name: "Legacy", Price: 99, DurationDays: 30})
	require.NoError(t, err)

	_, err = f.svc.Payments.CreateOrder(ctx, sess, models.NewOrder{PlanID: retired.ID})
	assert.ErrorIs(t, err, ErrNotFound)

	order, err := f.svc.Payments.CreateOrder(ctx, sess, models.NewOrder{PlanID: plan.ID})
	require.NoError(t, err)
	assert.Equal(t, 999.0, order.Amount)

	before := time.Now().UTC()
	res, err := f.svc.Payments.Verify(ctx, sess, models.PaymentVerification{
		OrderID:   order.ID,
		PaymentID: "pay_9",
		Signature: Signature([]byte(testPaymentSecret), order.ID, "pay_9"),
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Nil(t, res.Enrollment)

	usr, err := f.repos.Users.Get(ctx, "STU-1")
	require.NoError(t, err)
	assert.Equal(t, plan.ID, usr.SubscriptionPlan)
	require.NotNil(t, usr.SubscriptionExpiry)
	assert.WithinDuration(t, before.AddDate(0, 0, 30), *usr.SubscriptionExpiry, time.Minute)
}

func TestPayments_Access(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, models.RoleStudent, "STU-1")
	other := f.user(t, models.RoleStudent, "STU-2")
	f.course(t, "CRS-1", "TCH-1", 2)
	draft := f.course(t, "CRS-2", "TCH-1", 2)
	require.NoError(t, f.repos.Courses.Update(ctx, draft.ID, store.Set{"published": false}))

	_, err := f.svc.Payments.CreateOrder(ctx, sessionOf(owner), models.NewOrder{CourseID: "CRS-2"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.Payments.CreateOrder(ctx, sessionOf(owner), models.NewOrder{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.Payments.CreateOrder(ctx, models.Session{UserID: "TCH-1", Role: models.RoleTeacher}, models.NewOrder{CourseID: "CRS-1"})
	assert.ErrorIs(t, err, ErrUnauthorized)

	order, err := f.svc.Payments.CreateOrder(ctx, sessionOf(owner), models.NewOrder{CourseID: "CRS-1"})
	require.NoError(t, err)

	_, err = f.svc.Payments.Verify(ctx, sessionOf(other), models.PaymentVerification{
		OrderID:   order.ID,
		PaymentID: "pay_1",
		Signature: Signature([]byte(testPaymentSecret), order.ID, "pay_1"),
	})
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.svc.Payments.Verify(ctx, sessionOf(owner), models.PaymentVerification{OrderID: "ORD-404", PaymentID: "p", Signature: "s"})
	assert.ErrorIs(t, err, ErrNotFound)

	mine, err := f.svc.Payments.List(ctx, sessionOf(other))
	require.NoError(t, err)
	assert.Empty(t, mine)

	all, err := f.svc.Payments.List(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
