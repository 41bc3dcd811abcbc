package http

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/tankbot/internal/backup"
	"github.com/mauv0809/tankbot/internal/ranking"
	"github.com/mauv0809/tankbot/internal/tank"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = map[string]*template.Template{
	"overview": parsePage("overview"),
	"tanks":    parsePage("tanks"),
	"recent":   parsePage("recent"),
}

func parsePage(name string) *template.Template {
	funcs := template.FuncMap{"stamp": tank.FormatTime}
	return template.Must(template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html"))
}

type pageData struct {
	Title string
	Token string
	Data  any
}

type overview struct {
	Counts   tank.Counts
	Champion *ranking.Record
	Backup   backup.Status
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, page, title string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := pages[page].ExecuteTemplate(w, "layout", pageData{
		Title: "Tank Highscores — " + title,
		Token: r.URL.Query().Get("token"),
		Data:  data,
	})
	if err != nil {
		log.FromContext(r.Context()).Error("Failed to render page", "page", page, "error", err)
	}
}

func (s *Server) HealthCheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).Debug("Received health check request")
		plain(w, http.StatusOK, "ok")
	}
}

func (s *Server) OverviewHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			plain(w, http.StatusNotFound, "Not found")
			return
		}
		counts, err := s.Tanks.Counts(r.Context())
		if err != nil {
			serverError(w, r, "Failed to count rows", err)
			return
		}
		champ, err := s.Ranking.Champion(r.Context(), tank.Filter{})
		if err != nil {
			serverError(w, r, "Failed to load champion", err)
			return
		}
		s.render(w, r, "overview", "Overview", overview{
			Counts:   counts,
			Champion: champ,
			Backup:   s.Backups.LastBackupStatus(),
		})
	}
}

func (s *Server) TanksHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tanks, err := s.Tanks.ListTanks(r.Context(), tank.Filter{})
		if err != nil {
			serverError(w, r, "Failed to list tanks", err)
			return
		}
		s.render(w, r, "tanks", "Tanks", tanks)
	}
}

func (s *Server) RecentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := s.Ranking.Recent(r.Context(), RecentLimit)
		if err != nil {
			serverError(w, r, "Failed to list submissions", err)
			return
		}
		s.render(w, r, "recent", "Recent", records)
	}
}

func (s *Server) StatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts, err := s.Tanks.Counts(r.Context())
		if err != nil {
			serverError(w, r, "Failed to count rows", err)
			return
		}
		champ, err := s.Ranking.Champion(r.Context(), tank.Filter{})
		if err != nil {
			serverError(w, r, "Failed to load champion", err)
			return
		}
		counters, err := s.Counters.GetAll()
		if err != nil {
			log.FromContext(r.Context()).Warn("Failed to read counters", "error", err)
		}
		writeJSON(w, Status{
			Counts:        counts,
			Champion:      champ,
			Backup:        s.Backups.LastBackupStatus(),
			Counters:      counters,
			UptimeSeconds: int64(time.Since(s.StartedAt).Seconds()),
		})
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to encode JSON response", "error", err)
	}
}

func plain(w http.ResponseWriter, code int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	fmt.Fprint(w, text)
}

func serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	log.FromContext(r.Context()).Error(msg, "error", err)
	plain(w, http.StatusInternalServerError, msg)
}
