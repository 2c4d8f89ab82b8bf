// Package authz calls the external authorization service that confirms
// a requester's identity, or a specific transaction, before the engine
// finalizes anything. Calls are asynchronous: the caller gets a channel
// that eventually delivers exactly one tagged Result.
package authz

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/mobilewallet/bankd/internal/logging"
)

type Action string

const (
	ActionTransaction Action = "transaction"
	ActionBalance     Action = "balance"
	ActionHistory     Action = "history"
)

// Outcome tags the single continuation of an authorization call.
type Outcome int

const (
	// Success: round-trip completed and the authorizer answered
	// success:true.
	Success Outcome = iota
	// Denied: round-trip completed but the authorizer answered
	// success:false.
	Denied
	// Failure: the call never completed (transport error, bad body).
	Failure
	// Cancelled: the caller's context ended before a response arrived.
	Cancelled
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Denied:
		return "denied"
	case Failure:
		return "failure"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

type Result struct {
	Outcome Outcome
	Message string
	Err     error
}

type Client struct {
	identityURL    string
	transactionURL string
	httpClient     *http.Client
}

// NewClient builds a client against the two authorizer endpoints. The
// timeout bounds every call; there are no retries, calls are fire-once.
func NewClient(identityURL, transactionURL string, timeout time.Duration) *Client {
	return &Client{
		identityURL:    identityURL,
		transactionURL: transactionURL,
		httpClient:     &http.Client{Timeout: timeout},
	}
}

type requestPayload struct {
	AccountNumber string `json:"accountNumber"`
	PaymentID     string `json:"paymentId,omitempty"`
	Amount        string `json:"amount,omitempty"`
	Timestamp     string `json:"timestamp"`
	GUID          string `json:"guid,omitempty"`
	Action        string `json:"action,omitempty"`
}

type responsePayload struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ConfirmIdentity issues a generic identity confirmation for the given
// action. The answer to the underlying query travels back separately,
// through the confirmation gateway; this call only asks permission.
func (c *Client) ConfirmIdentity(ctx context.Context, accountNumber string, action Action) <-chan Result {
	payload := requestPayload{
		AccountNumber: accountNumber,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		GUID:          uuid.NewString(),
		Action:        string(action),
	}
	return c.post(ctx, c.identityURL, payload)
}

// ConfirmTransaction asks the authorizer to approve one payment order.
func (c *Client) ConfirmTransaction(ctx context.Context, accountNumber, paymentID string, amount float64) <-chan Result {
	payload := requestPayload{
		AccountNumber: accountNumber,
		PaymentID:     paymentID,
		Amount:        strconv.FormatFloat(amount, 'f', -1, 64),
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	}
	return c.post(ctx, c.transactionURL, payload)
}

func (c *Client) post(ctx context.Context, url string, payload requestPayload) <-chan Result {
	out := make(chan Result, 1)

	go func() {
		defer close(out)
		out <- c.doPost(ctx, url, payload)
	}()

	return out
}

func (c *Client) doPost(ctx context.Context, url string, payload requestPayload) Result {
	log := logging.FromContext(ctx)

	body, err := json.Marshal(payload)
	if err != nil {
		return Result{Outcome: Failure, Err: fmt.Errorf("authz: marshal: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Result{Outcome: Failure, Err: fmt.Errorf("authz: build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return Result{Outcome: Cancelled, Err: fmt.Errorf("authz: %w", err)}
		}
		return Result{Outcome: Failure, Err: fmt.Errorf("authz: send: %w", err)}
	}
	defer resp.Body.Close()

	log.Debug("authorization response received",
		"url", url,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return Result{Outcome: Failure, Err: fmt.Errorf("authz: read body: %w", err)}
	}

	var parsed responsePayload
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return Result{Outcome: Failure, Err: fmt.Errorf("authz: parse body: %w", err)}
	}

	if !parsed.Success {
		return Result{Outcome: Denied, Message: parsed.Message}
	}
	return Result{Outcome: Success, Message: parsed.Message}
}
