package incubator

import "time"

// Timeline bounds one session against its total duration and wrap-up window.
// It is the sole authority for truncating the agent loop.
type Timeline struct {
	start  time.Time
	total  time.Duration
	wrapUp time.Duration
}

// NewTimeline anchors a timeline at the session start.
func NewTimeline(start time.Time, total, wrapUp time.Duration) Timeline {
	return Timeline{start: start, total: total, wrapUp: wrapUp}
}

// Deadline returns the hard end of the session.
func (t Timeline) Deadline() time.Time {
	return t.start.Add(t.total)
}

// Remaining returns the time left before the deadline, never negative.
func (t Timeline) Remaining(now time.Time) time.Duration {
	remaining := t.Deadline().Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ForceSynthesis reports whether the session has entered its wrap-up window
// and must stop running agents and synthesize with what it has.
func (t Timeline) ForceSynthesis(now time.Time) bool {
	return t.Remaining(now) <= t.wrapUp
}

// FinalStretch reports whether an agent granted budget would run into the
// wrap-up window. Such an agent is told how little time is left so it
// delivers a final answer rather than an opening round.
func (t Timeline) FinalStretch(now time.Time, budget time.Duration) bool {
	return t.Remaining(now)-budget <= t.wrapUp
}

// RemainingMinutes returns whole minutes left, floored at zero.
func (t Timeline) RemainingMinutes(now time.Time) int {
	return int(t.Remaining(now) / time.Minute)
}

// ElapsedMinutes returns whole minutes since the session started, floored
// at zero.
func (t Timeline) ElapsedMinutes(now time.Time) int {
	elapsed := now.Sub(t.start)
	if elapsed < 0 {
		return 0
	}
	return int(elapsed / time.Minute)
}
