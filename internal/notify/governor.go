package notify

import (
	"time"

	"taskmate/internal/model"
)

// Admit applies the daily frequency cap to candidates already ordered by
// the eligibility pass. The day rollover runs first, unconditionally, so a
// stale counter can never survive a date change regardless of the enabled
// flag or cap state. The updated settings are returned for the caller to
// persist together with the admitted batch.
func Admit(candidates []Candidate, settings model.NotificationSettings, now time.Time, maxPerDay int) ([]Candidate, model.NotificationSettings) {
	today := now.Format(model.DateLayout)
	if settings.LastResetDate != today {
		settings.DailyCount = 0
		settings.LastResetDate = today
	}

	if !settings.Enabled || settings.DailyCount >= maxPerDay {
		return nil, settings
	}

	budget := maxPerDay - settings.DailyCount
	if budget > len(candidates) {
		budget = len(candidates)
	}

	admitted := candidates[:budget]
	settings.DailyCount += len(admitted)
	return admitted, settings
}
