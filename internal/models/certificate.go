package models

import (
	"strconv"
	"strings"
	"time"
)

type Certificate struct {
	Base         `bson:",inline"`
	StudentID    string    `bson:"studentId" json:"studentId"`
	CourseID     string    `bson:"courseId" json:"courseId"`
	EnrollmentID string    `bson:"enrollmentId,omitempty" json:"enrollmentId,omitempty"`
	StudentName  string    `bson:"studentName" json:"studentName"`
	CourseTitle  string    `bson:"courseTitle" json:"courseTitle"`
	IssueDate    time.Time `bson:"issueDate" json:"issueDate"`
	Marks        float64   `bson:"marks" json:"marks"`
}

// Sequence is the NN part of a "<studentId>/NN" certificate ID, 0 if malformed.
func (c Certificate) Sequence() int {
	i := strings.LastIndex(c.ID, "/")
	if i < 0 {
		return 0
	}
	n, err := strconv.Atoi(c.ID[i+1:])
	if err != nil {
		return 0
	}
	return n
}

type IssueCertificate struct {
	StudentID string    `json:"studentId" validate:"required"`
	CourseID  string    `json:"courseId" validate:"required"`
	Marks     float64   `json:"marks" validate:"gte=0,lte=100"`
	IssueDate time.Time `json:"issueDate"`
}

type CertificateFilter struct {
	StudentID string `json:"studentId" query:"student"`
	CourseID  string `json:"courseId" query:"course"`
	Search    string `json:"search" query:"search"`
}

type ApproveCertificate struct {
	Marks float64 `json:"marks" validate:"gte=0,lte=100"`
}

type BulkApprove struct {
	EnrollmentIDs []string `json:"enrollmentIds" validate:"required,min=1,dive,required"`
	Marks         float64  `json:"marks" validate:"gte=0,lte=100"`
}

type BulkFailure struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// BulkResult counts only approvals that actually produced a certificate.
type BulkResult struct {
	Approved     int           `json:"approved"`
	Certificates []Certificate `json:"certificates"`
	Failed       []BulkFailure `json:"failed"`
}
