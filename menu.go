package main

import "time"

var weekdayImages = map[time.Weekday]string{
	time.Monday:    "segunda.jpeg",
	time.Tuesday:   "terca.jpeg",
	time.Wednesday: "quarta.jpeg",
	time.Thursday:  "quinta.jpeg",
	time.Friday:    "sexta.jpeg",
}

// MenuImageName picks which weekday's menu image to serve at t.
// Saturday and Sunday always show Monday's menu. On weekdays, before the
// cutoff hour the previous day's menu is still up (Monday morning shows
// Monday, since there is no weekend menu); from the cutoff on, the
// current day's menu is shown.
func MenuImageName(t time.Time, cutoffHour int) string {
	day := t.Weekday()
	if day == time.Saturday || day == time.Sunday {
		return weekdayImages[time.Monday]
	}
	if t.Hour() < cutoffHour && day != time.Monday {
		return weekdayImages[day-1]
	}
	return weekdayImages[day]
}
