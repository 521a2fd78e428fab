package executor

import "time"

// WaitUntil sleeps until targetSeconds after start, compressed by timeScale
func WaitUntil(start time.Time, targetSeconds, timeScale int) {
	time.Sleep(time.Until(ScheduledAt(start, targetSeconds, timeScale)))
}

// ScheduledAt is the wall-clock time of a scenario offset
func ScheduledAt(start time.Time, targetSeconds, timeScale int) time.Time {
	if timeScale < 1 {
		timeScale = 1
	}
	return start.Add(time.Duration(targetSeconds) * time.Second / time.Duration(timeScale))
}

// GetElapsed returns seconds since start
func GetElapsed(start time.Time) float64 {
	return time.Since(start).Seconds()
}
