package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mediaops/intake-cli/internal/fault"
	"github.com/mediaops/intake-cli/internal/intake"
	"github.com/mediaops/intake-cli/internal/model"
	"github.com/mediaops/intake-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the intake webhook server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		svc := newIntakeService(st)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newServeMux(svc, st),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// newServeMux wires the webhook routes.
func newServeMux(svc *intake.Service, st store.Store) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("POST /intake", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Text        string `json:"text"`
			URL         string `json:"url"`
			SubmittedBy string `json:"submitted_by"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}

		var (
			booking *model.Booking
			err     error
		)
		switch {
		case strings.TrimSpace(req.Text) != "":
			booking, err = svc.SubmitText(r.Context(), req.SubmittedBy, req.Text)
		case req.URL != "":
			booking, err = svc.SubmitURL(r.Context(), req.SubmittedBy, req.URL)
		default:
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "text or url is required"})
			return
		}
		if err != nil {
			writeFaultJSON(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, booking)
	})

	mux.HandleFunc("GET /bookings/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")

		booking, err := st.GetBooking(r.Context(), id)
		if err != nil {
			writeFaultJSON(w, err)
			return
		}
		timeline, err := st.Timeline(r.Context(), id)
		if err != nil {
			writeFaultJSON(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"booking":  booking,
			"timeline": timeline,
		})
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// writeFaultJSON maps the fault taxonomy onto HTTP status codes and keeps
// raw cause detail out of the response body.
func writeFaultJSON(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := map[string]any{"error": "internal error"}

	switch fault.KindOf(err) {
	case fault.KindInput:
		status = http.StatusBadRequest
	case fault.KindValidation:
		status = http.StatusUnprocessableEntity
		body["issues"] = fault.IssuesOf(err)
	case fault.KindConflict:
		status = http.StatusConflict
	case fault.KindNotFound:
		status = http.StatusNotFound
	case fault.KindUpstream, fault.KindParse:
		status = http.StatusBadGateway
	}

	var fe *fault.Error
	if eris.As(err, &fe) {
		body["error"] = fe.Safe()
	}

	zap.L().Warn("request failed", zap.Error(err))
	writeJSON(w, status, body)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
