// Package gateway is the bank-side REST surface: operational controls
// for the broker fleet, account linking, and the callbacks through
// which the wallet gateway reports confirmation results.
package gateway

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/mobilewallet/bankd/internal/domain"
	"github.com/mobilewallet/bankd/internal/logging"
)

type fleetController interface {
	ConnectAll()
	DisconnectAll()
	Statuses() map[string]bool
}

type engineOps interface {
	ApplyStatusByPaymentID(ctx context.Context, paymentID string, status domain.TxStatus) error
	PublishBalance(ctx context.Context, accountNumber string) error
	PublishHistory(ctx context.Context, accountNumber string) error
	ProcessRequestedForAccount(ctx context.Context, accountNumber string) error
}

type accountLinker interface {
	LinkAccount(ctx context.Context, accountNumber string) (*LinkResult, error)
}

type Handler struct {
	fleet  fleetController
	engine engineOps
	linker accountLinker
}

func NewHandler(fleet fleetController, engine engineOps, linker accountLinker) *Handler {
	return &Handler{fleet: fleet, engine: engine, linker: linker}
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	RespondSuccess(w, http.StatusOK, "bank is running", map[string]any{
		"banks": h.fleet.Statuses(),
	})
}

func (h *Handler) Connect(w http.ResponseWriter, r *http.Request) {
	h.fleet.ConnectAll()
	RespondSuccess(w, http.StatusOK, "fleet connecting", map[string]any{
		"banks": h.fleet.Statuses(),
	})
}

func (h *Handler) Disconnect(w http.ResponseWriter, r *http.Request) {
	h.fleet.DisconnectAll()
	RespondSuccess(w, http.StatusOK, "fleet disconnected", map[string]any{
		"banks": h.fleet.Statuses(),
	})
}

type linkAccountRequest struct {
	AccountNumber string `json:"accountNumber"`
}

func (req linkAccountRequest) validate() []FieldError {
	var errs []FieldError
	if req.AccountNumber == "" {
		errs = append(errs, FieldError{Field: "accountNumber", Message: "required"})
	} else if len(req.AccountNumber) != ibanLength {
		errs = append(errs, FieldError{Field: "accountNumber", Message: "must be a 24 character IBAN"})
	}
	return errs
}

func (h *Handler) LinkAccount(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var req linkAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest)
		return
	}
	if fields := req.validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	result, err := h.linker.LinkAccount(r.Context(), req.AccountNumber)
	if err != nil {
		log.Warn("account linking failed", "account", req.AccountNumber, "error", err)
		RespondDomainError(r.Context(), w, err)
		return
	}

	log.Info("account linked", "account", req.AccountNumber)
	RespondSuccess(w, http.StatusCreated, "account linked", map[string]any{
		"accountNumber": result.Account.AccountNumber,
		"token":         result.Token,
	})
}

type transactionCallback struct {
	PaymentID string `json:"paymentId"`
	Status    string `json:"status"`
}

func (req transactionCallback) validate() []FieldError {
	var errs []FieldError
	if req.PaymentID == "" {
		errs = append(errs, FieldError{Field: "paymentId", Message: "required"})
	}
	if req.Status == "" {
		errs = append(errs, FieldError{Field: "status", Message: "required"})
	}
	return errs
}

// TransactionResult receives the wallet gateway's verdict on a pending
// payment. The carried status string is the gateway's vocabulary and
// is mapped onto the internal state machine before anything is
// written. A verdict for a payment that already left pending is
// answered with a conflict, not applied twice.
func (h *Handler) TransactionResult(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var req transactionCallback
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest)
		return
	}
	if fields := req.validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	status, ok := domain.FromGatewayStatus(req.Status)
	if !ok {
		RespondAppError(w, ErrUnknownStatus)
		return
	}

	if err := h.engine.ApplyStatusByPaymentID(r.Context(), req.PaymentID, status); err != nil {
		log.Warn("transaction result not applied", "payment_id", req.PaymentID, "status", req.Status, "error", err)
		RespondDomainError(r.Context(), w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, "status applied", nil)
}

type identityCallback struct {
	AccountNumber string `json:"accountNumber"`
	Action        string `json:"action"`
}

func (req identityCallback) validate() []FieldError {
	var errs []FieldError
	if req.AccountNumber == "" {
		errs = append(errs, FieldError{Field: "accountNumber", Message: "required"})
	}
	if req.Action == "" {
		errs = append(errs, FieldError{Field: "action", Message: "required"})
	}
	return errs
}

// IdentityResult receives a successful identity confirmation and
// releases the work that was parked behind it: answer the balance or
// history query, or push the account's requested payments into
// validation.
func (h *Handler) IdentityResult(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var req identityCallback
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest)
		return
	}
	if fields := req.validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	var err error
	switch req.Action {
	case "balance":
		err = h.engine.PublishBalance(r.Context(), req.AccountNumber)
	case "history":
		err = h.engine.PublishHistory(r.Context(), req.AccountNumber)
	case "transaction":
		err = h.engine.ProcessRequestedForAccount(r.Context(), req.AccountNumber)
	default:
		RespondAppError(w, ErrUnknownAction)
		return
	}
	if err != nil {
		log.Warn("identity result not applied", "account", req.AccountNumber, "action", req.Action, "error", err)
		RespondDomainError(r.Context(), w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, "action completed", nil)
}
