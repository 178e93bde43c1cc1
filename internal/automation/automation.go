// Package automation runs the scheduled attendance corrections:
// auto-logout closes forgotten clock-ins after the organization's
// working day, auto-absent marks employees with no record for the day.
package automation

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/yuvamcybercure/hrsync/internal/domain"
)

// OrganizationSource lists the tenants whose attendance is automated.
type OrganizationSource interface {
	ListAutomationEnabled(ctx context.Context) ([]domain.Organization, error)
}

// EmployeeSource lists the people a tenant's auto-absent pass covers.
// ListActive returns active employees only; deactivated ones are never
// marked absent.
type EmployeeSource interface {
	ListActive(ctx context.Context, orgID primitive.ObjectID) ([]domain.Employee, error)
}

// AttendanceStore is the slice of the attendance collection the jobs
// read and correct.
type AttendanceStore interface {
	OpenForDate(ctx context.Context, orgID primitive.ObjectID, date string) ([]domain.Attendance, error)
	SetClockOut(ctx context.Context, id primitive.ObjectID, at time.Time, totalHours float64) error
	ExistsForDate(ctx context.Context, orgID, employeeID primitive.ObjectID, date string) (bool, error)
	CreateAbsent(ctx context.Context, orgID, employeeID primitive.ObjectID, date string) error
}
