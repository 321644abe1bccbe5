package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"assignment-planner/pkg/assignments"
	"assignment-planner/pkg/delivery"
	"assignment-planner/pkg/logger"
	"assignment-planner/pkg/planner"
	"assignment-planner/pkg/reminders"
)

const maxImportSize = 10 << 20

type server struct {
	planner *planner.Planner
	hub     *delivery.Hub
	log     logger.Logger
}

func newRouter(p *planner.Planner, hub *delivery.Hub, log logger.Logger) http.Handler {
	s := &server{planner: p, hub: hub, log: log}

	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	router.Route("/assignments", func(r chi.Router) {
		r.Get("/", s.listAssignments)
		r.Post("/", s.createAssignment)
		r.Delete("/", s.clearAssignments)

		r.Get("/{id}", s.getAssignment)
		r.Put("/{id}", s.updateAssignment)
		r.Delete("/{id}", s.deleteAssignment)
		r.Post("/{id}/toggle", s.toggleAssignment)
		r.Get("/{id}/ics", s.assignmentICS)
	})

	router.Post("/import", s.importCSV)
	router.Get("/export", s.exportCSV)
	router.Get("/stats", s.stats)
	router.Get("/courses", s.courses)

	router.Get("/filters", s.getFilters)
	router.Put("/filters", s.putFilters)

	router.Get("/notifications/permission", s.getPermission)
	router.Put("/notifications/permission", s.putPermission)

	if hub != nil {
		router.Get("/alerts", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, hub.Latest())
		})
		router.Delete("/alerts/{tag}", func(w http.ResponseWriter, r *http.Request) {
			hub.Dismiss(chi.URLParam(r, "tag"))
			w.WriteHeader(http.StatusNoContent)
		})
		router.Get("/ws", hub.ServeHTTP)
	}

	return router
}

// listenAndServe runs the HTTP server until ctx is canceled.
func listenAndServe(ctx context.Context, addr string, handler http.Handler, log logger.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server listening on http://%s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	if err != nil {
		return err
	}
	if err = <-errCh; err != http.ErrServerClosed {
		return err
	}
	return nil
}

// GET /assignments - Filtered listing. Without query parameters the saved
// filters apply.
func (s *server) listAssignments(w http.ResponseWriter, r *http.Request) {
	f := s.planner.Filters()
	if q := r.URL.Query(); len(q) > 0 {
		hideDone, _ := strconv.ParseBool(q.Get("hideDone"))
		f = assignments.Filters{
			Search:   q.Get("search"),
			Course:   q.Get("course"),
			Priority: q.Get("priority"),
			Status:   q.Get("status"),
			HideDone: hideDone,
			Sort:     assignments.SortMode(q.Get("sort")),
		}
		if f.Sort == "" {
			f.Sort = assignments.SortDueAsc
		}
	}
	writeJSON(w, http.StatusOK, s.planner.List(f))
}

// POST /assignments - Create an assignment
func (s *server) createAssignment(w http.ResponseWriter, r *http.Request) {
	var in planner.Input
	if !decodeBody(w, r, &in) {
		return
	}
	a, err := s.planner.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// DELETE /assignments - Remove everything
func (s *server) clearAssignments(w http.ResponseWriter, r *http.Request) {
	n := s.planner.ClearAll(r.Context())
	writeJSON(w, http.StatusOK, map[string]int{"removed": n})
}

func (s *server) getAssignment(w http.ResponseWriter, r *http.Request) {
	a, err := s.planner.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// PUT /assignments/{id} - Edit an assignment
func (s *server) updateAssignment(w http.ResponseWriter, r *http.Request) {
	var in planner.Input
	if !decodeBody(w, r, &in) {
		return
	}
	a, err := s.planner.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *server) deleteAssignment(w http.ResponseWriter, r *http.Request) {
	err := s.planner.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /assignments/{id}/toggle - Flip between done and todo
func (s *server) toggleAssignment(w http.ResponseWriter, r *http.Request) {
	a, err := s.planner.ToggleDone(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *server) assignmentICS(w http.ResponseWriter, r *http.Request) {
	name, body, err := s.planner.ICS(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Write([]byte(body))
}

// POST /import - Append the rows of a CSV body
func (s *server) importCSV(w http.ResponseWriter, r *http.Request) {
	n, err := s.planner.Import(r.Context(), http.MaxBytesReader(w, r.Body, maxImportSize))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"imported": n})
}

func (s *server) exportCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="assignments.csv"`)
	if err := s.planner.ExportCSV(w); err != nil {
		s.log.Error("Failed to export CSV: %v", err)
	}
}

func (s *server) stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.planner.Stats())
}

func (s *server) courses(w http.ResponseWriter, r *http.Request) {
	courses := s.planner.Courses()
	if courses == nil {
		courses = []string{}
	}
	writeJSON(w, http.StatusOK, courses)
}

func (s *server) getFilters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.planner.Filters())
}

func (s *server) putFilters(w http.ResponseWriter, r *http.Request) {
	var f assignments.Filters
	if !decodeBody(w, r, &f) {
		return
	}
	s.planner.SetFilters(r.Context(), f)
	writeJSON(w, http.StatusOK, s.planner.Filters())
}

type permissionBody struct {
	Permission reminders.Permission `json:"permission"`
}

func (s *server) getPermission(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, permissionBody{Permission: s.planner.Permission()})
}

// PUT /notifications/permission - Record the user's alert decision
func (s *server) putPermission(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Permission string `json:"permission"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	next, err := reminders.ParsePermission(req.Permission)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	err = s.planner.SetPermission(r.Context(), next)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, permissionBody{Permission: s.planner.Permission()})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil {
		http.Error(w, "Error parsing request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, planner.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, planner.ErrInvalid):
		status = http.StatusBadRequest
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
