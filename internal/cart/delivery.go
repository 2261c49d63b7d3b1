package cart

import "time"

const deliveryBusinessDays = 3

// EstimatedDeliveryDate counts three business days forward from now,
// skipping Saturdays and Sundays. The day of now itself never counts, so a
// weekend order starts counting on Monday. The result is midnight of the
// delivery day in now's location.
func EstimatedDeliveryDate(now time.Time) time.Time {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	for added := 0; added < deliveryBusinessDays; {
		day = day.AddDate(0, 0, 1)
		if wd := day.Weekday(); wd != time.Saturday && wd != time.Sunday {
			added++
		}
	}
	return day
}
