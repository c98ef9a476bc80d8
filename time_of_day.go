package main

import (
	"fmt"
	"strconv"
	"strings"
)

type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ParseTimeOfDay parses "HH:MM" as typed in reminder and schedule commands.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return TimeOfDay{}, fmt.Errorf("invalid time of day format: %s", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return TimeOfDay{}, err
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return TimeOfDay{}, err
	}
	if hour < 0 || hour > 23 {
		return TimeOfDay{}, fmt.Errorf("invalid hour: %d", hour)
	}
	if minute < 0 || minute > 59 {
		return TimeOfDay{}, fmt.Errorf("invalid minute: %d", minute)
	}
	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

// DailySpec returns a cron spec firing every day at this time.
func (t TimeOfDay) DailySpec() string {
	return fmt.Sprintf("%d %d * * *", t.Minute, t.Hour)
}

// MonthlySpec returns a cron spec firing on the given day of month at this
// time. Months without that day are skipped by the scheduler.
func (t TimeOfDay) MonthlySpec(day int) string {
	return fmt.Sprintf("%d %d %d * *", t.Minute, t.Hour, day)
}
