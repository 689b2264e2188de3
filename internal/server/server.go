package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"os"
	"strconv"
	"time"

	"AtlasStatus/internal/collector"
	"AtlasStatus/internal/metrics"
	"AtlasStatus/internal/model"
	"AtlasStatus/internal/render"
	"AtlasStatus/internal/site"
	"AtlasStatus/internal/viewer"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// Server is the HTTP front of the dashboard: the page, chart images, CSV passthrough and the
// form endpoints that pan, zoom and smooth the charts.
type Server struct {
	site      *site.Site
	metrics   *metrics.Metrics
	router    *mux.Router
	httpSrv   *http.Server
	AccessLog io.Writer
}

func New(addr string, s *site.Site, m *metrics.Metrics) *Server {
	srv := &Server{site: s, metrics: m, AccessLog: os.Stdout}
	srv.router = srv.routes()
	srv.httpSrv = &http.Server{
		Addr:              addr,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	wrap := func(route string, h http.HandlerFunc) http.Handler { return s.metrics.WrapHandler(route, h) }

	r.Handle("/", wrap("page", s.getPage)).Methods("GET")
	r.Handle("/health", wrap("health", s.getHealth)).Methods("GET")
	r.Handle("/metrics", s.metrics.Handler()).Methods("GET")
	r.Handle("/{name}.csv", wrap("csv", s.getCSV)).Methods("GET")
	r.Handle("/charts/{name}.svg", wrap("chart", s.getChart(false))).Methods("GET")
	r.Handle("/charts/{name}/range.svg", wrap("range", s.getChart(true))).Methods("GET")

	r.Handle("/charts/{name}/window", wrap("window", s.interact(setWindow))).Methods("POST")
	r.Handle("/charts/{name}/pan", wrap("pan", s.interact(pan))).Methods("POST")
	r.Handle("/charts/{name}/zoom", wrap("zoom", s.interact(zoom))).Methods("POST")
	r.Handle("/charts/{name}/reset", wrap("reset", s.interact(reset))).Methods("POST")
	r.Handle("/charts/{name}/roll", wrap("roll", s.interact(roll))).Methods("POST")
	r.Handle("/charts/{name}/highlight", wrap("highlight", s.interact(highlight))).Methods("POST")
	r.Handle("/reload", wrap("reload", s.postReload)).Methods("POST")

	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.FS(render.Static()))))
	return r
}

// Handler returns the router wrapped in the access log.
func (s *Server) Handler() http.Handler {
	return handlers.LoggingHandler(s.AccessLog, s.router)
}

// ListenAndServe blocks until the server stops. It returns nil after Shutdown.
func (s *Server) ListenAndServe() error {
	s.httpSrv.Handler = s.Handler()
	log.Printf("[INFO] listening on %s", s.httpSrv.Addr)
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, "ok\n")
}

func (s *Server) getPage(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.site.WritePage(&buf, true); err != nil {
		log.Printf("[ERROR] render page: %v", err)
		http.Error(w, "page unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func (s *Server) getChart(overview bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if err := s.site.ChartSVG(&buf, mux.Vars(r)["name"], overview); err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Header().Set("Cache-Control", "no-store")
		w.Write(buf.Bytes())
	}
}

func (s *Server) getCSV(w http.ResponseWriter, r *http.Request) {
	data, err := s.site.Raw(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		if errors.Is(err, viewer.ErrUnknownChart) {
			writeError(w, err)
			return
		}
		log.Printf("[WARN] csv passthrough: %v", err)
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Write(data)
}

func (s *Server) postReload(w http.ResponseWriter, r *http.Request) {
	if err := s.site.Reload(r.Context()); err != nil {
		log.Printf("[ERROR] reload: %v", err)
		http.Error(w, "reload failed", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// interaction applies one form post to the named chart.
type interaction func(d *viewer.Dashboard, name string, r *http.Request) error

func (s *Server) interact(apply interaction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		d := s.site.Dashboard()
		if d == nil {
			http.Error(w, "no page loaded", http.StatusServiceUnavailable)
			return
		}
		if err := apply(d, mux.Vars(r)["name"], r); err != nil {
			writeError(w, err)
			return
		}
		if err := s.site.SaveDashboardState(d); err != nil {
			log.Printf("[WARN] save view state: %v", err)
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// badRequest marks a form value the handler could not parse.
type badRequest struct{ error }

func formTime(r *http.Request, key string) (time.Time, error) {
	t, err := collector.ParseTime(r.FormValue(key))
	if err != nil {
		return time.Time{}, badRequest{fmt.Errorf("%s: %w", key, err)}
	}
	return t, nil
}

func formFloat(r *http.Request, key string) (float64, error) {
	v, err := strconv.ParseFloat(r.FormValue(key), 64)
	if err != nil {
		return 0, badRequest{fmt.Errorf("%s: %w", key, err)}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, badRequest{fmt.Errorf("%s: must be a finite number", key)}
	}
	return v, nil
}

func setWindow(d *viewer.Dashboard, name string, r *http.Request) error {
	start, err := formTime(r, "start")
	if err != nil {
		return err
	}
	end, err := formTime(r, "end")
	if err != nil {
		return err
	}
	if !start.Before(end) {
		return badRequest{fmt.Errorf("start %s is not before end %s", start, end)}
	}
	if r.FormValue("clamp") != "" {
		return d.SelectRange(name, start, end)
	}
	return d.SetWindow(name, model.Window{Start: start, End: end})
}

// maxPanHours keeps a pan well inside time.Duration's range.
const maxPanHours = 100 * 366 * 24

func pan(d *viewer.Dashboard, name string, r *http.Request) error {
	hours, err := formFloat(r, "hours")
	if err != nil {
		return err
	}
	if math.Abs(hours) > maxPanHours {
		return badRequest{fmt.Errorf("hours: shift beyond %d hours", maxPanHours)}
	}
	return d.Pan(name, time.Duration(hours*float64(time.Hour)))
}

func zoom(d *viewer.Dashboard, name string, r *http.Request) error {
	factor, err := formFloat(r, "factor")
	if err != nil {
		return err
	}
	if factor <= 0 {
		return badRequest{errors.New("factor must be positive")}
	}
	return d.Zoom(name, factor)
}

func reset(d *viewer.Dashboard, name string, _ *http.Request) error {
	return d.ResetZoom(name)
}

func roll(d *viewer.Dashboard, name string, r *http.Request) error {
	period, err := strconv.Atoi(r.FormValue("period"))
	if err != nil {
		return badRequest{fmt.Errorf("period: %w", err)}
	}
	return d.SetRollPeriod(name, period)
}

func highlight(d *viewer.Dashboard, name string, r *http.Request) error {
	at, err := formTime(r, "at")
	if err != nil {
		return err
	}
	return d.Highlight(name, at)
}

func writeError(w http.ResponseWriter, err error) {
	var br badRequest
	switch {
	case errors.Is(err, viewer.ErrUnknownChart):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, viewer.ErrNotReady):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, viewer.ErrInvalidPeriod), errors.As(err, &br):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.Printf("[WARN] %v", err)
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	}
}
