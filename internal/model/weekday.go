package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Weekday учебный день недели: 1 = Monday ... 5 = Friday
type Weekday int

const (
	Monday Weekday = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
)

var weekdayNames = [...]string{"", "monday", "tuesday", "wednesday", "thursday", "friday"}

// Weekdays все допустимые дни в календарном порядке
func Weekdays() []Weekday {
	return []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday}
}

func (d Weekday) Valid() bool {
	return d >= Monday && d <= Friday
}

func (d Weekday) String() string {
	if !d.Valid() {
		return fmt.Sprintf("weekday(%d)", int(d))
	}
	return weekdayNames[d]
}

// ParseWeekday принимает имя дня без учёта регистра
func ParseWeekday(s string) (Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i := Monday; i <= Friday; i++ {
		if weekdayNames[i] == name {
			return i, nil
		}
	}
	return 0, Validationf("weekday %q must be one of monday..friday", s)
}

// MarshalJSON неустановленный день кодируется как null
func (d Weekday) MarshalJSON() ([]byte, error) {
	if d == 0 {
		return []byte("null"), nil
	}
	if !d.Valid() {
		return nil, fmt.Errorf("marshal weekday: invalid value %d", int(d))
	}
	return json.Marshal(d.String())
}

func (d *Weekday) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = 0
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return Validationf("weekday must be a string")
	}
	parsed, err := ParseWeekday(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
