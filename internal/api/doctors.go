package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"jadwalpoli/internal/calendar"
	"jadwalpoli/internal/directory"
	"jadwalpoli/internal/metrics"
	"jadwalpoli/internal/schedule"
	"jadwalpoli/internal/simrs"
)

// EmptyScheduleMessage is shown for doctors without usable practice days.
const EmptyScheduleMessage = "Jadwal belum tersedia"

// DoctorInfo is the doctor header of schedule responses.
type DoctorInfo struct {
	Code           string `json:"code"`
	Name           string `json:"name"`
	Specialization string `json:"specialization"`
}

// ScheduleResponse is the response for GET /api/doctors/{code}/schedule.
type ScheduleResponse struct {
	Doctor    DoctorInfo                   `json:"doctor"`
	Empty     bool                         `json:"empty"`
	Message   string                       `json:"message,omitempty"`
	Clinics   []schedule.ClinicOccurrences `json:"clinics"`
	Stale     bool                         `json:"stale"`
	FetchedAt time.Time                    `json:"fetched_at"`
}

// CalendarCell is one day of the booking calendar.
type CalendarCell struct {
	Date       string `json:"date"`
	Day        int    `json:"day"`
	InMonth    bool   `json:"in_month"`
	Selectable bool   `json:"selectable"`
}

// CalendarResponse is the response for GET /api/doctors/{code}/calendar.
type CalendarResponse struct {
	DoctorCode      string         `json:"doctor_code"`
	Month           string         `json:"month"`
	PreviousMonth   string         `json:"previous_month"`
	NextMonth       string         `json:"next_month"`
	WindowStart     string         `json:"window_start"`
	WindowEnd       string         `json:"window_end"`
	Weekdays        []int          `json:"weekdays"`
	NoAvailableDays bool           `json:"no_available_days"`
	Cells           []CalendarCell `json:"cells"`
	Stale           bool           `json:"stale"`
}

// SelectRequest is the body of POST /api/doctors/{code}/calendar/select.
// Month defaults to the month of Date.
type SelectRequest struct {
	Date  string `json:"date"`
	Month string `json:"month,omitempty"`
}

// SelectResponse reports whether the date was accepted. A rejected date carries no error text.
type SelectResponse struct {
	Selected bool   `json:"selected"`
	Date     string `json:"date,omitempty"`
}

// handleSchedule returns the grouped schedule with next occurrences.
// GET /api/doctors/{code}/schedule
func (s *HTTPServer) handleSchedule(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("schedule")

	res, ok := s.lookupDoctor(w, r)
	if !ok {
		return
	}

	resp := ScheduleResponse{
		Doctor:    doctorInfo(res),
		Clinics:   []schedule.ClinicOccurrences{},
		Stale:     res.Stale,
		FetchedAt: res.FetchedAt,
	}
	ds, err := schedule.Build(*res.Doctor, s.today())
	switch {
	case errors.Is(err, schedule.ErrEmptySchedule):
		resp.Empty = true
		resp.Message = EmptyScheduleMessage
	case err != nil:
		writeError(w, http.StatusInternalServerError, "failed to build schedule")
		return
	default:
		resp.Clinics = ds.Clinics
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleCalendar returns the 42-day booking grid.
// GET /api/doctors/{code}/calendar?month=YYYY-MM
func (s *HTTPServer) handleCalendar(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("calendar")

	var month *calendar.Month
	if raw := r.URL.Query().Get("month"); raw != "" {
		m, err := calendar.ParseMonth(raw, s.opts.Location)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid month format; expected YYYY-MM")
			return
		}
		month = &m
	}

	res, ok := s.lookupDoctor(w, r)
	if !ok {
		return
	}

	sel := s.selection(res)
	if month != nil {
		sel.Show(*month)
	}

	window := calendar.DefaultWindow(s.today(), s.opts.MinDaysAhead, s.opts.MaxDaysAhead)
	displayed := sel.Displayed()
	resp := CalendarResponse{
		DoctorCode:      res.Doctor.Code,
		Month:           displayed.String(),
		PreviousMonth:   displayed.Previous().String(),
		NextMonth:       displayed.Next().String(),
		WindowStart:     calendar.FormatDate(window.Min),
		WindowEnd:       calendar.FormatDate(window.Max),
		Weekdays:        []int{},
		NoAvailableDays: sel.NoAvailableDays(),
		Stale:           res.Stale,
	}
	for _, d := range schedule.AvailableWeekdays(res.Doctor.Schedule).Sorted() {
		resp.Weekdays = append(resp.Weekdays, int(d))
	}
	for _, c := range sel.Grid() {
		resp.Cells = append(resp.Cells, CalendarCell{
			Date:       calendar.FormatDate(c.Date),
			Day:        c.Date.Day(),
			InMonth:    c.InMonth,
			Selectable: c.Selectable,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleSelect validates a picked date.
// POST /api/doctors/{code}/calendar/select
func (s *HTTPServer) handleSelect(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("calendar_select")

	var req SelectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	date, err := calendar.ParseDate(req.Date, s.opts.Location)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}
	month := calendar.MonthOf(date)
	if req.Month != "" {
		if month, err = calendar.ParseMonth(req.Month, s.opts.Location); err != nil {
			writeError(w, http.StatusBadRequest, "invalid month format; expected YYYY-MM")
			return
		}
	}

	res, ok := s.lookupDoctor(w, r)
	if !ok {
		return
	}

	sel := s.selection(res)
	sel.Show(month)
	picked, err := sel.Select(date)
	if err != nil {
		metrics.IncSelection("rejected")
		writeJSON(w, http.StatusOK, SelectResponse{Selected: false})
		return
	}
	metrics.IncSelection("accepted")
	writeJSON(w, http.StatusOK, SelectResponse{Selected: true, Date: picked})
}

func (s *HTTPServer) selection(res *directory.Result) *calendar.Selection {
	window := calendar.DefaultWindow(s.today(), s.opts.MinDaysAhead, s.opts.MaxDaysAhead)
	return calendar.NewSelection(schedule.AvailableWeekdays(res.Doctor.Schedule), window)
}

func (s *HTTPServer) lookupDoctor(w http.ResponseWriter, r *http.Request) (*directory.Result, bool) {
	code := r.PathValue("code")
	res, err := s.doctors.Lookup(r.Context(), code)
	switch {
	case errors.Is(err, simrs.ErrNotFound):
		writeError(w, http.StatusNotFound, "doctor not found")
		return nil, false
	case err != nil:
		s.logger.Error().Err(err).Str("doctor", code).Msg("doctor lookup failed")
		writeError(w, http.StatusBadGateway, "schedule unavailable")
		return nil, false
	}
	return res, true
}

func doctorInfo(res *directory.Result) DoctorInfo {
	return DoctorInfo{
		Code:           res.Doctor.Code,
		Name:           res.Doctor.Name,
		Specialization: res.Doctor.Specialization,
	}
}
