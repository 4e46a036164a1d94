package domain

import (
	"time"

	"github.com/google/uuid"
)

// AchievementCode identifies an unlockable achievement.
type AchievementCode string

// Achievement codes
const (
	AchievementFirstSession   AchievementCode = "first_session"
	AchievementStreak3        AchievementCode = "streak_3"
	AchievementStreak7        AchievementCode = "streak_7"
	AchievementStreak30       AchievementCode = "streak_30"
	AchievementReviews100     AchievementCode = "reviews_100"
	AchievementReviews1000    AchievementCode = "reviews_1000"
	AchievementPerfectSession AchievementCode = "perfect_session"
)

// PerfectSessionMinReviews is the smallest session that counts as perfect.
const PerfectSessionMinReviews = 10

// Achievement is an unlocked achievement.
type Achievement struct {
	Code       AchievementCode `json:"code"`
	UnlockedAt time.Time       `json:"unlocked_at"`
}

// ProgressSummary aggregates a user's study history.
type ProgressSummary struct {
	UserID        uuid.UUID `json:"user_id"`
	CurrentStreak int       `json:"current_streak"`
	LongestStreak int       `json:"longest_streak"`
	// LastStudyDay is midnight UTC of the last calendar day studied,
	// calendar day taken in the user's time zone.
	LastStudyDay  *time.Time    `json:"last_study_day,omitempty"`
	TotalSessions int           `json:"total_sessions"`
	TotalReviews  int           `json:"total_reviews"`
	TotalCorrect  int           `json:"total_correct"`
	Achievements  []Achievement `json:"achievements"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// NewProgressSummary creates an empty summary.
func NewProgressSummary(userID uuid.UUID) *ProgressSummary {
	return &ProgressSummary{
		UserID:       userID,
		Achievements: []Achievement{},
	}
}

// CalendarDay truncates t to its calendar date in loc, expressed as
// midnight UTC so dates compare independent of zone.
func CalendarDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Has reports whether the achievement is already unlocked.
func (p *ProgressSummary) Has(code AchievementCode) bool {
	for _, a := range p.Achievements {
		if a.Code == code {
			return true
		}
	}
	return false
}

// RecordSession folds a finished session into the summary and returns the
// achievements it newly unlocked. day is the session's calendar day as
// produced by CalendarDay. A session with no reviews leaves the summary
// untouched and does not count towards streaks.
func (p *ProgressSummary) RecordSession(s SessionSummary, day time.Time) []Achievement {
	if s.Reviewed <= 0 {
		return nil
	}
	p.TotalSessions++
	p.TotalReviews += s.Reviewed
	p.TotalCorrect += s.Correct
	p.updateStreak(day)
	p.UpdatedAt = s.EndedAt

	var unlocked []Achievement
	unlock := func(code AchievementCode, cond bool) {
		if !cond || p.Has(code) {
			return
		}
		a := Achievement{Code: code, UnlockedAt: s.EndedAt}
		p.Achievements = append(p.Achievements, a)
		unlocked = append(unlocked, a)
	}

	unlock(AchievementFirstSession, p.TotalSessions >= 1)
	unlock(AchievementStreak3, p.CurrentStreak >= 3)
	unlock(AchievementStreak7, p.CurrentStreak >= 7)
	unlock(AchievementStreak30, p.CurrentStreak >= 30)
	unlock(AchievementReviews100, p.TotalReviews >= 100)
	unlock(AchievementReviews1000, p.TotalReviews >= 1000)
	unlock(AchievementPerfectSession, s.Perfect(PerfectSessionMinReviews))

	return unlocked
}

func (p *ProgressSummary) updateStreak(day time.Time) {
	switch {
	case p.LastStudyDay == nil:
		p.CurrentStreak = 1
	case day.Equal(*p.LastStudyDay):
		return
	case day.Before(*p.LastStudyDay):
		// late-arriving session from an earlier day
		return
	case day.Equal(p.LastStudyDay.AddDate(0, 0, 1)):
		p.CurrentStreak++
	default:
		p.CurrentStreak = 1
	}

	d := day
	p.LastStudyDay = &d
	if p.CurrentStreak > p.LongestStreak {
		p.LongestStreak = p.CurrentStreak
	}
}

// ActiveStreak is the current streak as of now; it reads zero once a full
// calendar day has been skipped.
func (p *ProgressSummary) ActiveStreak(now time.Time, loc *time.Location) int {
	if p.LastStudyDay == nil {
		return 0
	}
	today := CalendarDay(now, loc)
	if today.After(p.LastStudyDay.AddDate(0, 0, 1)) {
		return 0
	}
	return p.CurrentStreak
}
