package models

type PaymentStatus string

const (
	PaymentCreated PaymentStatus = "created"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// Payment is keyed by the gateway order ID.
type Payment struct {
	Base      `bson:",inline"`
	PaymentID string        `bson:"paymentId,omitempty" json:"paymentId,omitempty"`
	Signature string        `bson:"signature,omitempty" json:"-"`
	StudentID string        `bson:"studentId" json:"studentId"`
	CourseID  string        `bson:"courseId,omitempty" json:"courseId,omitempty"`
	PlanID    string        `bson:"planId,omitempty" json:"planId,omitempty"`
	Amount    float64       `bson:"amount" json:"amount"`
	Currency  string        `bson:"currency" json:"currency"`
	Status    PaymentStatus `bson:"status" json:"status"`
}

type NewOrder struct {
	CourseID string `json:"courseId" validate:"required_without=PlanID,excluded_with=PlanID"`
	PlanID   string `json:"planId" validate:"required_without=CourseID"`
}

// PaymentVerification is the order/payment/signature triple returned by the gateway checkout.
type PaymentVerification struct {
	OrderID   string `json:"order_id" validate:"required"`
	PaymentID string `json:"payment_id" validate:"required"`
	Signature string `json:"signature" validate:"required"`
}

type PaymentResult struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message"`
	Payment    *Payment    `json:"payment,omitempty"`
	Enrollment *Enrollment `json:"enrollment,omitempty"`
}
