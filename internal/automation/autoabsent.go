package automation

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/yuvamcybercure/hrsync/internal/domain"
)

// AutoAbsent writes an absent record for every active employee with no
// attendance for the current date. Create-if-missing, so re-runs within
// the same day are no-ops.
type AutoAbsent struct {
	orgs       OrganizationSource
	employees  EmployeeSource
	attendance AttendanceStore
	loc        *time.Location

	now func() time.Time
}

func NewAutoAbsent(orgs OrganizationSource, employees EmployeeSource, attendance AttendanceStore, loc *time.Location) *AutoAbsent {
	if loc == nil {
		loc = time.UTC
	}
	return &AutoAbsent{orgs: orgs, employees: employees, attendance: attendance, loc: loc, now: time.Now}
}

// Run executes one pass. Organizations fail independently.
func (j *AutoAbsent) Run(ctx context.Context) error {
	orgs, err := j.orgs.ListAutomationEnabled(ctx)
	if err != nil {
		return fmt.Errorf("auto-absent: %w", err)
	}
	for _, org := range orgs {
		if err := j.runOrg(ctx, org); err != nil {
			log.Error().Err(err).Str("module", "automation").Str("org", org.ID.Hex()).Msg("auto-absent org failed")
		}
	}
	return nil
}

func (j *AutoAbsent) runOrg(ctx context.Context, org domain.Organization) error {
	date := j.now().In(j.loc).Format(domain.AttendanceDate)

	employees, err := j.employees.ListActive(ctx, org.ID)
	if err != nil {
		return err
	}

	marked := 0
	for _, emp := range employees {
		exists, err := j.attendance.ExistsForDate(ctx, org.ID, emp.ID, date)
		if err != nil {
			log.Error().Err(err).Str("module", "automation").Str("employee", emp.ID.Hex()).Msg("attendance lookup failed")
			continue
		}
		if exists {
			continue
		}
		if err := j.attendance.CreateAbsent(ctx, org.ID, emp.ID, date); err != nil {
			log.Error().Err(err).Str("module", "automation").Str("employee", emp.ID.Hex()).Msg("absent marker failed")
			continue
		}
		marked++
	}
	if marked > 0 {
		log.Info().Str("module", "automation").Str("org", org.ID.Hex()).Int("marked", marked).Msg("auto-absent pass done")
	}
	return nil
}
