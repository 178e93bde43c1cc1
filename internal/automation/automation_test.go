package automation

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/yuvamcybercure/hrsync/internal/domain"
)

type fakeOrgs struct {
	orgs []domain.Organization
	err  error
}

func (f *fakeOrgs) ListAutomationEnabled(context.Context) ([]domain.Organization, error) {
	return f.orgs, f.err
}

type fakeEmployees struct {
	byOrg  map[primitive.ObjectID][]domain.Employee
	failOn primitive.ObjectID
}

func (f *fakeEmployees) ListActive(_ context.Context, orgID primitive.ObjectID) ([]domain.Employee, error) {
	if f.failOn == orgID {
		return nil, errors.New("employees unavailable")
	}
	var out []domain.Employee
	for _, e := range f.byOrg[orgID] {
		if e.Active {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeAttendance struct {
	records       []*domain.Attendance
	clockOutCalls int
}

func (f *fakeAttendance) OpenForDate(_ context.Context, orgID primitive.ObjectID, date string) ([]domain.Attendance, error) {
	var out []domain.Attendance
	for _, rec := range f.records {
		if rec.OrgID == orgID && rec.Date == date && rec.ClockIn != nil && rec.ClockOut == nil {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (f *fakeAttendance) SetClockOut(_ context.Context, id primitive.ObjectID, at time.Time, totalHours float64) error {
	f.clockOutCalls++
	for _, rec := range f.records {
		if rec.ID == id {
			out := at
			rec.ClockOut = &out
			rec.TotalHours = totalHours
			rec.Status = domain.AttendancePresent
		}
	}
	return nil
}

func (f *fakeAttendance) ExistsForDate(_ context.Context, orgID, employeeID primitive.ObjectID, date string) (bool, error) {
	for _, rec := range f.records {
		if rec.OrgID == orgID && rec.EmployeeID == employeeID && rec.Date == date {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAttendance) CreateAbsent(_ context.Context, orgID, employeeID primitive.ObjectID, date string) error {
	if ok, _ := f.ExistsForDate(context.Background(), orgID, employeeID, date); ok {
		return nil
	}
	f.records = append(f.records, &domain.Attendance{
		ID:         primitive.NewObjectID(),
		OrgID:      orgID,
		EmployeeID: employeeID,
		Date:       date,
		Status:     domain.AttendanceAbsent,
	})
	return nil
}

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestAutoLogoutClosesOpenRecords(t *testing.T) {
	org := domain.Organization{ID: primitive.NewObjectID(), EndTime: "18:00", AutoLogoutOffset: 2, AutomationEnabled: true, Active: true}
	clockIn := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	att := &fakeAttendance{records: []*domain.Attendance{
		{ID: primitive.NewObjectID(), OrgID: org.ID, Date: "2026-03-02", ClockIn: &clockIn, Status: domain.AttendanceWorking},
	}}

	job := NewAutoLogout(&fakeOrgs{orgs: []domain.Organization{org}}, att, time.UTC)
	job.now = fixedNow(time.Date(2026, 3, 2, 20, 15, 0, 0, time.UTC))

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	rec := att.records[0]
	if rec.ClockOut == nil {
		t.Fatal("record left open")
	}
	want := time.Date(2026, 3, 2, 20, 0, 0, 0, time.UTC)
	if !rec.ClockOut.Equal(want) {
		t.Fatalf("clockOut = %v, want %v", rec.ClockOut, want)
	}
	if rec.TotalHours != 11 {
		t.Fatalf("totalHours = %v, want 11", rec.TotalHours)
	}
	if rec.Status != domain.AttendancePresent {
		t.Fatalf("status = %s", rec.Status)
	}

	// Second run in the same hour finds no open records: idempotent.
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("second Run() error: %v", err)
	}
	if att.clockOutCalls != 1 {
		t.Fatalf("clockOut written %d times, want 1", att.clockOutCalls)
	}
}

func TestAutoLogoutBeforeThresholdIsNoop(t *testing.T) {
	org := domain.Organization{ID: primitive.NewObjectID(), EndTime: "18:00", AutoLogoutOffset: 2}
	clockIn := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	att := &fakeAttendance{records: []*domain.Attendance{
		{ID: primitive.NewObjectID(), OrgID: org.ID, Date: "2026-03-02", ClockIn: &clockIn},
	}}

	job := NewAutoLogout(&fakeOrgs{orgs: []domain.Organization{org}}, att, time.UTC)
	job.now = fixedNow(time.Date(2026, 3, 2, 19, 59, 0, 0, time.UTC))

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if att.records[0].ClockOut != nil {
		t.Fatal("record closed before the logout hour")
	}
}

func TestAutoLogoutSkipsOrgWithLogoutPastMidnight(t *testing.T) {
	org := domain.Organization{ID: primitive.NewObjectID(), EndTime: "23:00", AutoLogoutOffset: 2}
	clockIn := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	att := &fakeAttendance{records: []*domain.Attendance{
		{ID: primitive.NewObjectID(), OrgID: org.ID, Date: "2026-03-02", ClockIn: &clockIn},
	}}

	job := NewAutoLogout(&fakeOrgs{orgs: []domain.Organization{org}}, att, time.UTC)
	job.now = fixedNow(time.Date(2026, 3, 2, 23, 30, 0, 0, time.UTC))

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if att.records[0].ClockOut != nil {
		t.Fatal("record closed although the logout hour is past midnight")
	}
}

func TestAutoLogoutClampsNegativeHours(t *testing.T) {
	org := domain.Organization{ID: primitive.NewObjectID(), EndTime: "18:00", AutoLogoutOffset: 2}
	// Clock-in after the synthesized logout instant.
	clockIn := time.Date(2026, 3, 2, 20, 30, 0, 0, time.UTC)
	att := &fakeAttendance{records: []*domain.Attendance{
		{ID: primitive.NewObjectID(), OrgID: org.ID, Date: "2026-03-02", ClockIn: &clockIn},
	}}

	job := NewAutoLogout(&fakeOrgs{orgs: []domain.Organization{org}}, att, time.UTC)
	job.now = fixedNow(time.Date(2026, 3, 2, 21, 0, 0, 0, time.UTC))

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if got := att.records[0].TotalHours; got != 0 {
		t.Fatalf("totalHours = %v, want clamp to 0", got)
	}
}

func TestAutoLogoutOrgFailureIsIsolated(t *testing.T) {
	bad := domain.Organization{ID: primitive.NewObjectID(), EndTime: "garbage"}
	good := domain.Organization{ID: primitive.NewObjectID(), EndTime: "08:00", AutoLogoutOffset: 1}
	clockIn := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	att := &fakeAttendance{records: []*domain.Attendance{
		{ID: primitive.NewObjectID(), OrgID: good.ID, Date: "2026-03-02", ClockIn: &clockIn},
	}}

	job := NewAutoLogout(&fakeOrgs{orgs: []domain.Organization{bad, good}}, att, time.UTC)
	job.now = fixedNow(time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC))

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if att.records[0].ClockOut == nil {
		t.Fatal("good org skipped because an earlier org failed")
	}
}

func TestAutoAbsentMarksMissingOnce(t *testing.T) {
	org := domain.Organization{ID: primitive.NewObjectID()}
	present := domain.Employee{ID: primitive.NewObjectID(), OrgID: org.ID, Active: true}
	missing := domain.Employee{ID: primitive.NewObjectID(), OrgID: org.ID, Active: true}
	clockIn := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	att := &fakeAttendance{records: []*domain.Attendance{
		{ID: primitive.NewObjectID(), OrgID: org.ID, EmployeeID: present.ID, Date: "2026-03-02", ClockIn: &clockIn},
	}}
	emps := &fakeEmployees{byOrg: map[primitive.ObjectID][]domain.Employee{
		org.ID: {present, missing},
	}}

	job := NewAutoAbsent(&fakeOrgs{orgs: []domain.Organization{org}}, emps, att, time.UTC)
	job.now = fixedNow(time.Date(2026, 3, 2, 23, 50, 0, 0, time.UTC))

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(att.records) != 2 {
		t.Fatalf("records = %d, want 2", len(att.records))
	}
	created := att.records[1]
	if created.EmployeeID != missing.ID || created.Status != domain.AttendanceAbsent {
		t.Fatalf("created record = %+v", created)
	}

	// Same-day re-run creates nothing.
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("second Run() error: %v", err)
	}
	if len(att.records) != 2 {
		t.Fatalf("re-run grew records to %d", len(att.records))
	}
}

func TestAutoAbsentSkipsInactiveEmployees(t *testing.T) {
	org := domain.Organization{ID: primitive.NewObjectID()}
	former := domain.Employee{ID: primitive.NewObjectID(), OrgID: org.ID, Active: false}
	current := domain.Employee{ID: primitive.NewObjectID(), OrgID: org.ID, Active: true}
	att := &fakeAttendance{}
	emps := &fakeEmployees{byOrg: map[primitive.ObjectID][]domain.Employee{
		org.ID: {former, current},
	}}

	job := NewAutoAbsent(&fakeOrgs{orgs: []domain.Organization{org}}, emps, att, time.UTC)
	job.now = fixedNow(time.Date(2026, 3, 2, 23, 50, 0, 0, time.UTC))

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(att.records) != 1 {
		t.Fatalf("records = %d, want only the active employee marked", len(att.records))
	}
	if att.records[0].EmployeeID != current.ID {
		t.Fatalf("marked employee = %s, want %s", att.records[0].EmployeeID.Hex(), current.ID.Hex())
	}
}

func TestAutoAbsentOrgFailureIsIsolated(t *testing.T) {
	broken := domain.Organization{ID: primitive.NewObjectID()}
	healthy := domain.Organization{ID: primitive.NewObjectID()}
	worker := domain.Employee{ID: primitive.NewObjectID(), OrgID: healthy.ID, Active: true}
	att := &fakeAttendance{}
	emps := &fakeEmployees{
		byOrg:  map[primitive.ObjectID][]domain.Employee{healthy.ID: {worker}},
		failOn: broken.ID,
	}

	job := NewAutoAbsent(&fakeOrgs{orgs: []domain.Organization{broken, healthy}}, emps, att, time.UTC)
	job.now = fixedNow(time.Date(2026, 3, 2, 23, 50, 0, 0, time.UTC))

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(att.records) != 1 {
		t.Fatalf("healthy org not processed, records = %d", len(att.records))
	}
}

func TestSchedulerRejectsBadSpec(t *testing.T) {
	logout := NewAutoLogout(&fakeOrgs{}, &fakeAttendance{}, time.UTC)
	absent := NewAutoAbsent(&fakeOrgs{}, &fakeEmployees{}, &fakeAttendance{}, time.UTC)

	if _, err := NewScheduler(SchedulerConfig{AutoLogoutSpec: "not a spec"}, logout, absent); err == nil {
		t.Fatal("NewScheduler accepted an invalid cron spec")
	}
	if _, err := NewScheduler(SchedulerConfig{}, logout, absent); err != nil {
		t.Fatalf("NewScheduler with defaults: %v", err)
	}
}
