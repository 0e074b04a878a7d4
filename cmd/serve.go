package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/uacensus/internal/dataset"
	"github.com/sells-group/uacensus/internal/model"
	"github.com/sells-group/uacensus/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve stored records, trends, and runs over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           buildRouter(st, cfg.Server.AllowedOrigins, cfg.Output.YearsPath()),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// buildRouter wires the read-only API over st. Per-year totals are served
// from the summarize output at yearsPath.
func buildRouter(st store.Store, origins []string, yearsPath string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/records", func(w http.ResponseWriter, r *http.Request) {
		var filter store.RecordFilter
		var err error
		if filter.UANo, err = queryInt(r, "ua_no"); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if filter.Year, err = queryInt(r, "year"); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if filter.Limit, err = queryInt(r, "limit"); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		records, err := st.ListRecords(r.Context(), filter)
		if err != nil {
			serverError(w, r, err)
			return
		}
		if records == nil {
			records = []model.CleanRecord{}
		}
		writeJSON(w, http.StatusOK, records)
	})

	r.Get("/trends", func(w http.ResponseWriter, r *http.Request) {
		trends, err := st.ListTrends(r.Context())
		if err != nil {
			serverError(w, r, err)
			return
		}
		if trends == nil {
			trends = []model.Trend{}
		}
		writeJSON(w, http.StatusOK, trends)
	})

	r.Get("/years", func(w http.ResponseWriter, r *http.Request) {
		if !fileExists(yearsPath) {
			writeError(w, http.StatusNotFound, eris.New("per-year totals not found, run summarize first"))
			return
		}
		years, err := dataset.ReadFile(yearsPath, dataset.ReadYearTotals)
		if err != nil {
			serverError(w, r, err)
			return
		}
		if years == nil {
			years = []model.YearTotal{}
		}
		writeJSON(w, http.StatusOK, years)
	})

	r.Get("/runs", func(w http.ResponseWriter, r *http.Request) {
		limit, err := queryInt(r, "limit")
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		runs, err := st.ListRuns(r.Context(), store.RunFilter{
			Status: model.RunStatus(r.URL.Query().Get("status")),
			Limit:  limit,
		})
		if err != nil {
			serverError(w, r, err)
			return
		}
		if runs == nil {
			runs = []model.Run{}
		}
		writeJSON(w, http.StatusOK, runs)
	})

	return r
}

// queryInt parses an optional non-negative integer query parameter; absent
// means zero.
func queryInt(r *http.Request, key string) (int, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, eris.Errorf("%s must be a non-negative integer", key)
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func serverError(w http.ResponseWriter, r *http.Request, err error) {
	zap.L().Error("serve: request failed",
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Error(err),
	)
	writeError(w, http.StatusInternalServerError, eris.New("internal error"))
}
