package domain

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AttendanceDate is the layout of the date string attendance records are
// keyed by; one record per employee per date.
const AttendanceDate = "2006-01-02"

type AttendanceStatus string

const (
	AttendanceWorking AttendanceStatus = "working"
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
)

// Organization holds the per-tenant attendance automation settings.
// Field names mirror the documents written by the CRUD API.
type Organization struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name              string             `bson:"name" json:"name"`
	EndTime           string             `bson:"endTime" json:"endTime"` // "HH:MM"
	AutoLogoutOffset  int                `bson:"autoLogoutOffset" json:"autoLogoutOffset"`
	AutomationEnabled bool               `bson:"automationEnabled" json:"automationEnabled"`
	Active            bool               `bson:"active" json:"active"`
}

// EndHour parses the "HH:MM" working-day end into an hour of day.
func (o Organization) EndHour() (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(o.EndTime, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("parse endTime %q: %w", o.EndTime, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("endTime %q out of range", o.EndTime)
	}
	return h, nil
}

type Employee struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrgID  primitive.ObjectID `bson:"organizationId" json:"organizationId"`
	Name   string             `bson:"name" json:"name"`
	Email  string             `bson:"email,omitempty" json:"email,omitempty"`
	Active bool               `bson:"active" json:"active"`
}

type Attendance struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrgID      primitive.ObjectID `bson:"organizationId" json:"organizationId"`
	EmployeeID primitive.ObjectID `bson:"employeeId" json:"employeeId"`
	Date       string             `bson:"date" json:"date"`
	ClockIn    *time.Time         `bson:"clockIn,omitempty" json:"clockIn,omitempty"`
	ClockOut   *time.Time         `bson:"clockOut,omitempty" json:"clockOut,omitempty"`
	TotalHours float64            `bson:"totalHours" json:"totalHours"`
	Status     AttendanceStatus   `bson:"status" json:"status"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}
