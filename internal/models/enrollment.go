package models

import "time"

type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "Active"
	EnrollmentCompleted EnrollmentStatus = "Completed"
	EnrollmentDropped   EnrollmentStatus = "Dropped"
)

type CertificateStatus string

const (
	CertificateNone    CertificateStatus = "none"
	CertificateApplied CertificateStatus = "applied"
	CertificateIssued  CertificateStatus = "issued"
)

type Enrollment struct {
	Base              `bson:",inline"`
	StudentID         string            `bson:"studentId" json:"studentId"`
	CourseID          string            `bson:"courseId" json:"courseId"`
	Progress          int               `bson:"progress" json:"progress"`
	Status            EnrollmentStatus  `bson:"status" json:"status"`
	CertificateStatus CertificateStatus `bson:"certificateStatus" json:"certificateStatus"`
	CompletedLessons  []string          `bson:"completedLessons" json:"completedLessons"`
	CompletedAt       *time.Time        `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
}

func (e Enrollment) HasCompleted(lessonID string) bool {
	for _, id := range e.CompletedLessons {
		if id == lessonID {
			return true
		}
	}
	return false
}

type NewEnrollment struct {
	StudentID string `json:"studentId" validate:"required"`
	CourseID  string `json:"courseId" validate:"required"`
}

type EnrollmentStatusUpdate struct {
	Status EnrollmentStatus `json:"status" validate:"required,oneof=Active Dropped"`
}

type EnrollmentFilter struct {
	StudentID         string `query:"student"`
	CourseID          string `query:"course"`
	Status            string `query:"status"`
	CertificateStatus string `query:"certificate_status"`
}
