package reports

import "github.com/JimmysRanch/scruffy-butts-21-sub000/internal/records"

// AppointmentSummary counts filtered appointments by outcome.
type AppointmentSummary struct {
	Total            int     `json:"total"`
	Completed        int     `json:"completed"`
	Scheduled        int     `json:"scheduled"`
	NoShows          int     `json:"no_shows"`
	Cancelled        int     `json:"cancelled"`
	CompletionRate   float64 `json:"completion_rate"`
	NoShowRate       float64 `json:"no_show_rate"`
	CancellationRate float64 `json:"cancellation_rate"`
}

// SummarizeAppointments counts statuses. Scheduled covers every status that has
// not reached an outcome yet (booked through ready for pickup).
func SummarizeAppointments(appts []records.Appointment) AppointmentSummary {
	var s AppointmentSummary
	s.Total = len(appts)
	for _, a := range appts {
		switch {
		case a.Status == records.StatusCompleted:
			s.Completed++
		case a.Status == records.StatusNoShow:
			s.NoShows++
		case a.Status == records.StatusCancelled:
			s.Cancelled++
		case a.Status.IsOpen():
			s.Scheduled++
		}
	}
	s.CompletionRate = ratio(s.Completed, s.Total)
	s.NoShowRate = ratio(s.NoShows, s.Total)
	s.CancellationRate = ratio(s.Cancelled, s.Total)
	return s
}

// billable reports whether the appointment still carries revenue.
func billable(a records.Appointment) bool {
	return a.Status != records.StatusCancelled && a.Status != records.StatusNoShow
}
