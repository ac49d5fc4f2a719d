package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/arzan03/SchoolDesk/internal/metrics"
	"github.com/arzan03/SchoolDesk/internal/models"
	"github.com/arzan03/SchoolDesk/internal/store"
	"github.com/arzan03/SchoolDesk/internal/validation"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type PaymentService struct {
	repos       store.Repos
	enrollments *EnrollmentService
	secret      []byte
	currency    string
	now         func() time.Time
	log         logrus.FieldLogger
}

func NewPaymentService(repos store.Repos, enrollments *EnrollmentService, secret, currency string, log logrus.FieldLogger) *PaymentService {
	return &PaymentService{
		repos:       repos,
		enrollments: enrollments,
		secret:      []byte(secret),
		currency:    currency,
		now:         time.Now,
		log:         log,
	}
}

// Signature is hex(HMAC-SHA256(secret, orderID + "|" + paymentID)), the value
// the gateway sends back with a successful checkout.
func Signature(secret []byte, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *PaymentService) validSignature(orderID, paymentID, signature string) bool {
	expected := Signature(s.secret, orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// CreateOrder records a pending payment for a course or a plan at its current price.
func (s *PaymentService) CreateOrder(ctx context.Context, sess models.Session, no models.NewOrder) (models.Payment, error) {
	if err := authorize(sess, models.RoleStudent); err != nil {
		return models.Payment{}, err
	}
	if err := validation.Struct(no); err != nil {
		return models.Payment{}, err
	}

	pay := models.Payment{
		Base:      models.Base{ID: models.NewID("ORD")},
		StudentID: sess.UserID,
		Currency:  s.currency,
		Status:    models.PaymentCreated,
	}
	if no.CourseID != "" {
		course, err := s.repos.Courses.Get(ctx, no.CourseID)
		if err != nil || !course.Published {
			return models.Payment{}, notFound(orNotFound(err), "course", no.CourseID)
		}
		if _, err = s.repos.Enrollments.FindOne(ctx, pairFilter(sess.UserID, course.ID)); err == nil {
			return models.Payment{}, ErrAlreadyEnrolled
		}
		pay.CourseID, pay.Amount = course.ID, course.Price
	} else {
		plan, err := s.repos.Plans.Get(ctx, no.PlanID)
		if err != nil || !plan.Active {
			return models.Payment{}, notFound(orNotFound(err), "plan", no.PlanID)
		}
		pay.PlanID, pay.Amount = plan.ID, plan.Price
	}

	if err := s.repos.Payments.Insert(ctx, &pay); err != nil {
		return models.Payment{}, errors.Wrap(err, "create order")
	}
	s.log.WithFields(logrus.Fields{"order_id": pay.ID, "student_id": pay.StudentID, "amount": pay.Amount}).Info("order created")
	return pay, nil
}

func orNotFound(err error) error {
	if err == nil {
		return store.ErrNotFound
	}
	return err
}

// Verify confirms a checkout. A signature mismatch is not an error: the
// payment is marked failed and the result reports Success false. A valid
// signature marks it paid and grants the course enrollment or the plan.
func (s *PaymentService) Verify(ctx context.Context, sess models.Session, pv models.PaymentVerification) (models.PaymentResult, error) {
	if err := authorize(sess, models.RoleStudent, models.RoleSuperAdmin); err != nil {
		return models.PaymentResult{}, err
	}
	if err := validation.Struct(pv); err != nil {
		return models.PaymentResult{}, err
	}
	pay, err := s.repos.Payments.Get(ctx, pv.OrderID)
	if err != nil {
		return models.PaymentResult{}, notFound(err, "order", pv.OrderID)
	}
	if sess.Role == models.RoleStudent && pay.StudentID != sess.UserID {
		return models.PaymentResult{}, ErrUnauthorized
	}
	log := s.log.WithFields(logrus.Fields{"order_id": pay.ID, "payment_id": pv.PaymentID})

	if pay.Status == models.PaymentPaid {
		res := models.PaymentResult{Success: true, Message: "payment already verified", Payment: &pay}
		if pay.CourseID != "" {
			enr, _, err := s.enrollments.enroll(ctx, pay.StudentID, pay.CourseID)
			if err != nil {
				return models.PaymentResult{}, err
			}
			res.Enrollment = &enr
		}
		return res, nil
	}

	if !s.validSignature(pay.ID, pv.PaymentID, pv.Signature) {
		set := store.Set{"status": models.PaymentFailed, "paymentId": pv.PaymentID, "signature": pv.Signature}
		if err = s.repos.Payments.Update(ctx, pay.ID, set); err != nil {
			return models.PaymentResult{}, notFound(err, "order", pay.ID)
		}
		pay.Status, pay.PaymentID = models.PaymentFailed, pv.PaymentID
		metrics.PaymentsVerified.WithLabelValues("failed").Inc()
		log.Warn("payment signature mismatch")
		return models.PaymentResult{Success: false, Message: "payment verification failed", Payment: &pay}, nil
	}

	// The order only becomes paid once the purchase is granted, so a failed
	// grant leaves it open for another verification.
	res := models.PaymentResult{Success: true, Message: "payment verified", Payment: &pay}
	switch {
	case pay.CourseID != "":
		enr, _, err := s.enrollments.enroll(ctx, pay.StudentID, pay.CourseID)
		if err != nil {
			return models.PaymentResult{}, err
		}
		res.Enrollment = &enr
	case pay.PlanID != "":
		if err = s.activatePlan(ctx, pay.StudentID, pay.PlanID); err != nil {
			return models.PaymentResult{}, err
		}
	}

	set := store.Set{"status": models.PaymentPaid, "paymentId": pv.PaymentID, "signature": pv.Signature}
	if err = s.repos.Payments.Update(ctx, pay.ID, set); err != nil {
		return models.PaymentResult{}, notFound(err, "order", pay.ID)
	}
	pay.Status, pay.PaymentID, pay.Signature = models.PaymentPaid, pv.PaymentID, pv.Signature
	metrics.PaymentsVerified.WithLabelValues("paid").Inc()
	log.Info("payment verified")
	return res, nil
}

func (s *PaymentService) activatePlan(ctx context.Context, studentID, planID string) error {
	plan, err := s.repos.Plans.Get(ctx, planID)
	if err != nil {
		return notFound(err, "plan", planID)
	}
	expiry := s.now().UTC().AddDate(0, 0, plan.DurationDays)
	err = s.repos.Users.Update(ctx, studentID, store.Set{
		"subscriptionPlan":   plan.ID,
		"subscriptionExpiry": expiry,
	})
	if err != nil {
		return notFound(err, "student", studentID)
	}
	s.log.WithFields(logrus.Fields{"student_id": studentID, "plan_id": plan.ID, "expires": expiry}).Info("subscription activated")
	return nil
}

func (s *PaymentService) List(ctx context.Context, sess models.Session) ([]models.Payment, error) {
	var filter store.Filter
	switch sess.Role {
	case models.RoleSuperAdmin:
	case models.RoleStudent:
		filter = store.Where(store.Eq("studentId", sess.UserID))
	default:
		return nil, ErrUnauthorized
	}
	list, err := s.repos.Payments.Find(ctx, filter, store.FindOptions{SortBy: "createdAt", Desc: true})
	return list, errors.Wrap(err, "list payments")
}
