package model

import "regexp"

var clockPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// ParseClock переводит "HH:MM" в минуты от полуночи
func ParseClock(s string) (int, error) {
	if !clockPattern.MatchString(s) {
		return 0, Validationf("time %q must match HH:MM between 00:00 and 23:59", s)
	}
	hours := int(s[0]-'0')*10 + int(s[1]-'0')
	minutes := int(s[3]-'0')*10 + int(s[4]-'0')
	return hours*60 + minutes, nil
}

// Interval полуоткрытый отрезок [Start, End) в минутах
type Interval struct {
	Start int
	End   int
}

// ParseInterval проверяет формат и что конец строго позже начала
func ParseInterval(start, end string) (Interval, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Interval{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return Interval{}, err
	}
	if e <= s {
		return Interval{}, Validationf("end time %s must be after start time %s", end, start)
	}
	return Interval{Start: s, End: e}, nil
}

// Overlaps: смежные отрезки (a.End == b.Start) не пересекаются
func (a Interval) Overlaps(b Interval) bool {
	return !(a.End <= b.Start || a.Start >= b.End)
}
