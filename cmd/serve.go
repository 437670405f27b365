package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/civicline/incident-admin/internal/trust"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the admin JSON API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		adm := trust.NewAdmin(st, cfg.Admin.Actor)
		router := newRouter(adm, cfg.Server.AllowedOrigins, cfg.Sweep.Concurrency, cfg.Sweep.RatePerSec)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: router,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("admin API listening", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

// newRouter builds the admin API. Split out so handler tests can mount it on
// an httptest server.
func newRouter(adm *trust.Admin, allowedOrigins []string, sweepConcurrency int, sweepRate float64) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/reporters", func(w http.ResponseWriter, req *http.Request) {
		opts := trust.ListOptions{
			Search: req.URL.Query().Get("search"),
			SortBy: req.URL.Query().Get("sort"),
			Desc:   req.URL.Query().Get("desc") == "true",
		}
		if label := req.URL.Query().Get("tier"); label != "" {
			tier, ok := trust.ParseTier(label)
			if !ok {
				respondError(w, http.StatusBadRequest, fmt.Sprintf("unknown tier %q", label))
				return
			}
			opts.Tier = &tier
		}
		if v := req.URL.Query().Get("flagged"); v != "" {
			flagged, err := strconv.ParseBool(v)
			if err != nil {
				respondError(w, http.StatusBadRequest, "flagged must be true or false")
				return
			}
			opts.Flagged = &flagged
		}

		reporters, err := adm.List(req.Context(), opts)
		if err != nil {
			respondTrustError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, reporters)
	})

	r.Get("/reporters/{id}", func(w http.ResponseWriter, req *http.Request) {
		rec, err := adm.Get(req.Context(), chi.URLParam(req, "id"))
		if err != nil {
			respondTrustError(w, err)
			return
		}
		tier := trust.Classify(rec.TrustScore)
		respondJSON(w, http.StatusOK, map[string]any{
			"reporter":   rec,
			"tier":       tier.Label(),
			"tier_color": tier.Color(),
		})
	})

	r.Post("/reporters/{id}/trust", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Score  int    `json:"score"`
			Reason string `json:"reason"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		id := chi.URLParam(req, "id")
		if err := adm.ManualOverride(req.Context(), id, body.Score, body.Reason); err != nil {
			respondTrustError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{
			"reporter_id": id,
			"score":       body.Score,
			"tier":        trust.Classify(body.Score).Label(),
		})
	})

	r.Post("/reporters/{id}/recalculate", func(w http.ResponseWriter, req *http.Request) {
		id := chi.URLParam(req, "id")
		score, err := adm.Recalculate(req.Context(), id)
		if err != nil {
			respondTrustError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{
			"reporter_id": id,
			"score":       score,
			"tier":        trust.Classify(score).Label(),
		})
	})

	r.Post("/reporters/{id}/flag", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Flagged bool   `json:"flagged"`
			Reason  string `json:"reason"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		id := chi.URLParam(req, "id")
		if err := adm.SetFlag(req.Context(), id, body.Flagged, body.Reason); err != nil {
			respondTrustError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{
			"reporter_id": id,
			"flagged":     body.Flagged,
		})
	})

	r.Post("/trust/recalculate-all", func(w http.ResponseWriter, req *http.Request) {
		result, err := adm.RecalculateAll(req.Context(), trust.SweepOptions{
			Concurrency: sweepConcurrency,
			RatePerSec:  sweepRate,
		})
		if err != nil {
			respondTrustError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, result)
	})

	r.Get("/reporters/{id}/audit", func(w http.ResponseWriter, req *http.Request) {
		limit := 50
		if v := req.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				respondError(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			limit = n
		}
		entries, err := adm.Audit(req.Context(), chi.URLParam(req, "id"), limit)
		if err != nil {
			respondTrustError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, entries)
	})

	return r
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

// respondTrustError maps trust-layer failures onto HTTP statuses: missing
// records are 404, validation failures 400, anything else an opaque 500.
func respondTrustError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, trust.ErrNotFound):
		respondError(w, http.StatusNotFound, "reporter not found")
	case errors.Is(err, trust.ErrInvalidArgument):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		zap.L().Error("admin API request failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
