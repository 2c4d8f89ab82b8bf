// mock-authorizer stands in for the wallet gateway's confirmation
// service in local development. It approves everything unless DENY is
// set, in which case every request is refused.
package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"

	"github.com/mobilewallet/bankd/internal/logging"
)

type confirmation struct {
	AccountNumber string `json:"accountNumber"`
	PaymentID     string `json:"paymentId"`
	Action        string `json:"action"`
}

func main() {
	logging.Init("mock-authorizer", "info", os.Getenv("APP_ENV"))

	deny := os.Getenv("DENY") != ""

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		respond(w, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("POST /identity", confirm("identity", deny))
	mux.HandleFunc("POST /transaction", confirm("transaction", deny))

	slog.Info("mock authorizer started", "addr", ":8081", "deny", deny)
	if err := http.ListenAndServe(":8081", mux); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func confirm(kind string, deny bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req confirmation
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			slog.Warn("malformed confirmation request", "kind", kind, "error", err)
			respond(w, map[string]any{"success": false, "message": "malformed request"})
			return
		}

		slog.Info("confirmation requested",
			"kind", kind,
			"account", req.AccountNumber,
			"payment_id", req.PaymentID,
			"action", req.Action,
		)

		if deny {
			respond(w, map[string]any{"success": false, "message": "denied by operator"})
			return
		}
		respond(w, map[string]any{"success": true, "message": "confirmed"})
	}
}

func respond(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}
