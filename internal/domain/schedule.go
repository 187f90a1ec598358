package domain

const (
	DefaultTriggerSecond = 30

	// NotFired marks a schedule that has not produced a backup since the
	// trigger second was last assigned.
	NotFired = -1
)

type ScheduleState struct {
	Enabled         bool
	TriggerSecond   int
	LastFiredMinute int
}

// ScheduleUpdate is a partial update; nil fields are left untouched.
type ScheduleUpdate struct {
	Enabled       *bool
	TriggerSecond *int
}

func ValidTriggerSecond(s int) bool {
	return s >= 0 && s <= 59
}
