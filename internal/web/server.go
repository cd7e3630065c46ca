// Package web serves the monitor's status and configuration pages. Every
// request that touches the device is run on the scheduler goroutine
// through a Queue.
package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/sweeney/airmon/internal/datalog"
	"github.com/sweeney/airmon/internal/fault"
	"github.com/sweeney/airmon/internal/interval"
	"github.com/sweeney/airmon/internal/metrics"
	"github.com/sweeney/airmon/internal/status"
)

// RequestTimeout bounds how long a request waits for the scheduler.
const RequestTimeout = 5 * time.Second

// Glue is the set of device operations the pages use.
type Glue interface {
	Status() status.Snapshot
	Clock() (time.Time, error)
	SetClock(t time.Time) (time.Time, error)
	OpenLog() (io.ReadCloser, int64, error)
	Recalibration() (uint16, error)
	ForceRecalibration(ppm uint16) (uint16, error)
	TemperatureOffset() (float64, error)
	SetTemperatureOffset(c float64) (float64, error)
	Intervals() interval.Set
	SetIntervals(raw interval.Raw) (interval.Set, error)
}

// Server serves the pages over HTTP.
type Server struct {
	httpServer *http.Server
	glue       Glue
	queue      *Queue
	metrics    *metrics.Metrics

	// Location is used to interpret submitted clock values.
	Location *time.Location
}

// New creates a Server whose handlers run device operations through q.
// m may be nil.
func New(addr string, glue Glue, q *Queue, m *metrics.Metrics) *Server {
	s := &Server{glue: glue, queue: q, metrics: m, Location: time.Local}

	r := mux.NewRouter()
	r.Use(s.count)
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/index.html", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/index.json", s.handleJSON).Methods(http.MethodGet)
	r.HandleFunc("/clock", s.handleClock).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/log.csv", s.handleLog).Methods(http.MethodGet)
	r.HandleFunc("/calibration", s.handleCalibration).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/tempoffset", s.handleTempOffset).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/intervals", s.handleIntervals).Methods(http.MethodGet, http.MethodPost)
	if m != nil {
		r.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	}

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if route := mux.CurrentRoute(r); route != nil {
			if tmpl, err := route.GetPathTemplate(); err == nil {
				s.metrics.Request(tmpl)
			}
		}
		next.ServeHTTP(w, r)
	})
}

// do runs fn on the scheduler goroutine. On failure it writes the error
// response and returns false.
func (s *Server) do(w http.ResponseWriter, r *http.Request, fn func()) bool {
	ctx, cancel := context.WithTimeout(r.Context(), RequestTimeout)
	defer cancel()
	if err := s.queue.Do(ctx, fn); err != nil {
		http.Error(w, "device busy, try again", http.StatusServiceUnavailable)
		return false
	}
	return true
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	var snap status.Snapshot
	if !s.do(w, r, func() { snap = s.glue.Status() }) {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	render(w, "index", snap)
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	var snap status.Snapshot
	if !s.do(w, r, func() { snap = s.glue.Status() }) {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

// ParseClock parses a date (YYYY-MM-DD) and time (HH:MM or HH:MM:SS)
// in loc. Only the numeric form is checked; out-of-range fields roll over
// the way time.Date normalises them.
func ParseClock(date, clock string, loc *time.Location) (time.Time, error) {
	d := strings.Split(strings.TrimSpace(date), "-")
	c := strings.Split(strings.TrimSpace(clock), ":")
	if len(d) != 3 || len(c) < 2 || len(c) > 3 {
		return time.Time{}, fault.New(fault.ConfigInput, "parse clock", fmt.Errorf("malformed %q %q", date, clock))
	}
	if len(c) == 2 {
		c = append(c, "0")
	}
	var n [6]int
	for i, f := range append(d, c...) {
		v, err := strconv.Atoi(f)
		if err != nil || v < 0 {
			return time.Time{}, fault.New(fault.ConfigInput, "parse clock", fmt.Errorf("field %q: not a number", f))
		}
		n[i] = v
	}
	return time.Date(n[0], time.Month(n[1]), n[2], n[3], n[4], n[5], 0, loc), nil
}

type clockPage struct {
	Now     time.Time
	Message string
	Error   string
}

func (s *Server) handleClock(w http.ResponseWriter, r *http.Request) {
	var (
		page clockPage
		err  error
	)
	code := http.StatusOK
	if submitted(r, "date", "time") {
		t, perr := ParseClock(r.FormValue("date"), r.FormValue("time"), s.Location)
		if perr != nil {
			writePage(w, http.StatusBadRequest, "clock", clockPage{Error: "Invalid date or time: use YYYY-MM-DD and HH:MM[:SS]"})
			return
		}
		if !s.do(w, r, func() { page.Now, err = s.glue.SetClock(t) }) {
			return
		}
		if err != nil {
			code = http.StatusBadGateway
			page.Error = message(err)
		} else {
			page.Message = "Clock set to " + page.Now.Format(time.DateTime)
		}
	} else {
		if !s.do(w, r, func() { page.Now, err = s.glue.Clock() }) {
			return
		}
		if err != nil {
			page.Error = message(err)
		}
	}
	writePage(w, code, "clock", page)
}

func (s *Server) handleLog(w http.ResponseWriter, r *http.Request) {
	var (
		rc   io.ReadCloser
		size int64
		err  error
	)
	if !s.do(w, r, func() { rc, size, err = s.glue.OpenLog() }) {
		return
	}
	if errors.Is(err, datalog.ErrNotFound) {
		http.Error(w, "log file not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("web: %v", err)
		http.Error(w, message(err), http.StatusServiceUnavailable)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+datalog.DefaultFile+`"`)
	w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	if _, err := io.CopyN(w, rc, size); err != nil {
		log.Printf("web: log download: %v", err)
	}
}

type valuePage struct {
	Title   string
	Action  string
	Field   string
	Unit    string
	Value   string
	Message string
	Error   string
}

func (s *Server) handleCalibration(w http.ResponseWriter, r *http.Request) {
	page := valuePage{Title: "CO2 recalibration", Action: "/calibration", Field: "ppm", Unit: "ppm"}
	var (
		v   uint16
		err error
	)
	code := http.StatusOK
	if submitted(r, "ppm") {
		ppm, perr := strconv.ParseUint(r.FormValue("ppm"), 10, 16)
		if perr != nil {
			page.Error = "Invalid reference: enter a whole number of ppm"
			writePage(w, http.StatusBadRequest, "value", page)
			return
		}
		if !s.do(w, r, func() { v, err = s.glue.ForceRecalibration(uint16(ppm)) }) {
			return
		}
		if err == nil {
			page.Message = fmt.Sprintf("Recalibrated to %d ppm", ppm)
		}
	} else {
		if !s.do(w, r, func() { v, err = s.glue.Recalibration() }) {
			return
		}
	}
	if err != nil {
		code = http.StatusBadGateway
		page.Error = "Recalibration failed: " + message(err)
	} else {
		page.Value = strconv.FormatUint(uint64(v), 10)
	}
	writePage(w, code, "value", page)
}

func (s *Server) handleTempOffset(w http.ResponseWriter, r *http.Request) {
	page := valuePage{Title: "Temperature offset", Action: "/tempoffset", Field: "offset", Unit: "°C"}
	var (
		v   float64
		err error
	)
	code := http.StatusOK
	if submitted(r, "offset") {
		c, perr := strconv.ParseFloat(r.FormValue("offset"), 64)
		if perr != nil || math.IsNaN(c) || math.IsInf(c, 0) {
			page.Error = "Invalid offset: enter a number of °C"
			writePage(w, http.StatusBadRequest, "value", page)
			return
		}
		if !s.do(w, r, func() { v, err = s.glue.SetTemperatureOffset(c) }) {
			return
		}
		if err == nil {
			page.Message = "Temperature offset saved"
		}
	} else {
		if !s.do(w, r, func() { v, err = s.glue.TemperatureOffset() }) {
			return
		}
	}
	if err != nil {
		code = http.StatusBadGateway
		page.Error = "Temperature offset failed: " + message(err)
	} else {
		page.Value = strconv.FormatFloat(v, 'f', 2, 64)
	}
	writePage(w, code, "value", page)
}

type intervalRow struct {
	interval.Field
	Value int64
}

type intervalsPage struct {
	Rows    []intervalRow
	Message string
	Error   string
}

func newIntervalsPage(set interval.Set) intervalsPage {
	var p intervalsPage
	for _, f := range interval.Fields {
		p.Rows = append(p.Rows, intervalRow{Field: f, Value: set.Get(f.Name).Milliseconds()})
	}
	return p
}

func (s *Server) handleIntervals(w http.ResponseWriter, r *http.Request) {
	var (
		set interval.Set
		err error
	)
	code := http.StatusOK
	apply := submitted(r, intervalKeys()...)
	if apply {
		if perr := r.ParseForm(); perr != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		raw := interval.ParseForm(r.Form)
		if !s.do(w, r, func() { set, err = s.glue.SetIntervals(raw) }) {
			return
		}
	} else {
		if !s.do(w, r, func() { set = s.glue.Intervals() }) {
			return
		}
	}
	page := newIntervalsPage(set)
	switch {
	case errors.Is(err, interval.ErrPartial):
		page.Error = "Not submitted: every interval is required"
	case err != nil:
		code = http.StatusInternalServerError
		page.Error = "Not saved: " + message(err)
	case apply:
		page.Message = "Saved"
	}
	writePage(w, code, "intervals", page)
}

// submitted reports whether r applies a change. A POST always does; a GET
// does when its query carries any of keys.
func submitted(r *http.Request, keys ...string) bool {
	if r.Method == http.MethodPost {
		return true
	}
	q := r.URL.Query()
	for _, k := range keys {
		if q.Has(k) {
			return true
		}
	}
	return false
}

func intervalKeys() []string {
	keys := make([]string, len(interval.Fields))
	for i, f := range interval.Fields {
		keys[i] = f.Form
	}
	return keys
}

func writePage(w http.ResponseWriter, code int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	render(w, name, data)
}

// message translates an operation error for display.
func message(err error) string {
	var fe *fault.Error
	if errors.As(err, &fe) && fe.Err != nil {
		err = fe.Err
	}
	switch {
	case errors.Is(err, datalog.ErrNotFound):
		return "log file not found"
	case errors.Is(err, ErrBusy):
		return "device busy, try again"
	}
	return err.Error()
}
