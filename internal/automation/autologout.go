package automation

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/yuvamcybercure/hrsync/internal/domain"
)

// AutoLogout force-closes open clock-ins once the organization's working
// day plus its grace offset has passed.
type AutoLogout struct {
	orgs       OrganizationSource
	attendance AttendanceStore
	loc        *time.Location

	now func() time.Time
}

func NewAutoLogout(orgs OrganizationSource, attendance AttendanceStore, loc *time.Location) *AutoLogout {
	if loc == nil {
		loc = time.UTC
	}
	return &AutoLogout{orgs: orgs, attendance: attendance, loc: loc, now: time.Now}
}

// Run executes one pass over all automation-enabled organizations. A
// failing organization is logged and skipped; the rest still run.
func (j *AutoLogout) Run(ctx context.Context) error {
	orgs, err := j.orgs.ListAutomationEnabled(ctx)
	if err != nil {
		return fmt.Errorf("auto-logout: %w", err)
	}
	for _, org := range orgs {
		if err := j.runOrg(ctx, org); err != nil {
			log.Error().Err(err).Str("module", "automation").Str("org", org.ID.Hex()).Msg("auto-logout org failed")
		}
	}
	return nil
}

func (j *AutoLogout) runOrg(ctx context.Context, org domain.Organization) error {
	endHour, err := org.EndHour()
	if err != nil {
		return err
	}
	logoutHour := endHour + org.AutoLogoutOffset
	if logoutHour >= 24 {
		// endTime plus the offset runs past midnight, so no hour of the
		// current day ever reaches it and the org is never auto-closed.
		log.Debug().Str("module", "automation").Str("org", org.ID.Hex()).Int("logoutHour", logoutHour).Msg("logout hour past midnight, org skipped")
		return nil
	}

	now := j.now().In(j.loc)
	if now.Hour() < logoutHour {
		return nil
	}

	date := now.Format(domain.AttendanceDate)
	open, err := j.attendance.OpenForDate(ctx, org.ID, date)
	if err != nil {
		return err
	}

	// Synthesized clock-out lands at logoutHour:00 of the current day.
	clockOut := time.Date(now.Year(), now.Month(), now.Day(), logoutHour, 0, 0, 0, j.loc)

	closed := 0
	for _, rec := range open {
		if rec.ClockIn == nil {
			continue
		}
		total := clockOut.Sub(*rec.ClockIn).Hours()
		if total < 0 {
			total = 0
		}
		if err := j.attendance.SetClockOut(ctx, rec.ID, clockOut, total); err != nil {
			log.Error().Err(err).Str("module", "automation").Str("record", rec.ID.Hex()).Msg("force clock-out failed")
			continue
		}
		closed++
	}
	if closed > 0 {
		log.Info().Str("module", "automation").Str("org", org.ID.Hex()).Int("closed", closed).Msg("auto-logout pass done")
	}
	return nil
}
