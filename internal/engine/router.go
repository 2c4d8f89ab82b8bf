package engine

import (
	"context"

	"github.com/mobilewallet/bankd/internal/authz"
	"github.com/mobilewallet/bankd/internal/logging"
	"github.com/mobilewallet/bankd/internal/wire"
)

// Handler is what the router drives. *Engine satisfies it; tests
// substitute a recorder.
type Handler interface {
	RecordRequested(ctx context.Context, order wire.PaymentOrder) (bool, error)
	ProcessOrder(ctx context.Context, order wire.PaymentOrder) error
	PublishBalance(ctx context.Context, accountNumber string) error
	PublishHistory(ctx context.Context, accountNumber string) error
	RejectPayment(ctx context.Context, paymentID string) error
}

type identityAuthorizer interface {
	ConfirmIdentity(ctx context.Context, accountNumber string, action authz.Action) <-chan authz.Result
}

// Router classifies inbound transport messages and dispatches them.
// With confirmation mode on, every dispatch is preceded by an identity
// or transaction authorization round-trip; with it off, queries are
// answered directly and payment orders go straight into validation.
//
// Malformed payloads are logged and dropped. There is no retry and no
// dead-letter queue; the transport redelivers or it does not.
type Router struct {
	handler     Handler
	authorizer  identityAuthorizer
	confirmMode bool
	metrics     *Metrics
}

func NewRouter(handler Handler, authorizer identityAuthorizer, confirmMode bool, metrics *Metrics) *Router {
	return &Router{
		handler:     handler,
		authorizer:  authorizer,
		confirmMode: confirmMode,
		metrics:     metrics,
	}
}

// HandleMessage is the single entry point for a delivery callback.
func (r *Router) HandleMessage(ctx context.Context, topic string, payload []byte) {
	log := logging.FromContext(ctx)
	channel := wire.Classify(topic)

	log.Debug("message arrived", "topic", topic, "channel", channel.String())

	switch channel {
	case wire.ChannelPaymentOrder:
		r.handlePaymentOrder(ctx, payload)

	case wire.ChannelBalance:
		r.handleQuery(ctx, channel, payload)

	case wire.ChannelHistory:
		r.handleQuery(ctx, channel, payload)

	case wire.ChannelLinkAccount:
		// Account linking goes through the admin gateway, not the
		// message engine.
		r.metrics.message(channel.String(), "ignored")

	default:
		log.Warn("message on unclassified topic dropped", "topic", topic)
		r.metrics.message(channel.String(), "dropped")
	}
}

func (r *Router) handlePaymentOrder(ctx context.Context, payload []byte) {
	log := logging.FromContext(ctx)

	var order wire.PaymentOrder
	if err := wire.Decode(payload, &order); err != nil {
		log.Error("malformed payment order dropped", "error", err)
		r.metrics.message(wire.ChannelPaymentOrder.String(), "malformed")
		return
	}
	if order.PaymentID == "" || order.SourceAccount == "" {
		log.Error("payment order missing required fields dropped")
		r.metrics.message(wire.ChannelPaymentOrder.String(), "malformed")
		return
	}

	if !r.confirmMode {
		if err := r.handler.ProcessOrder(ctx, order); err != nil {
			log.Error("payment order failed", "payment_id", order.PaymentID, "error", err)
			r.metrics.message(wire.ChannelPaymentOrder.String(), "error")
			return
		}
		r.metrics.message(wire.ChannelPaymentOrder.String(), "ok")
		return
	}

	// Confirmation mode: record the order as requested, then ask the
	// authorizer to confirm the holder's identity for it. A duplicate
	// delivery records nothing and must not re-trigger authorization.
	created, err := r.handler.RecordRequested(ctx, order)
	if err != nil {
		log.Error("payment order failed", "payment_id", order.PaymentID, "error", err)
		r.metrics.message(wire.ChannelPaymentOrder.String(), "error")
		return
	}
	if !created {
		r.metrics.message(wire.ChannelPaymentOrder.String(), "duplicate")
		return
	}

	r.metrics.message(wire.ChannelPaymentOrder.String(), "ok")
	r.awaitIdentity(ctx, order.SourceAccount, authz.ActionTransaction, order.PaymentID)
}

func (r *Router) handleQuery(ctx context.Context, channel wire.Channel, payload []byte) {
	log := logging.FromContext(ctx)

	// Query handlers only deal in single objects; arrays are skipped,
	// not treated as an error.
	if !wire.IsObject(payload) {
		r.metrics.message(channel.String(), "ignored")
		return
	}

	var req wire.BalanceRequest
	if err := wire.Decode(payload, &req); err != nil {
		log.Error("malformed query dropped", "channel", channel.String(), "error", err)
		r.metrics.message(channel.String(), "malformed")
		return
	}
	if req.AccountNumber == "" {
		log.Error("query missing accountNumber dropped", "channel", channel.String())
		r.metrics.message(channel.String(), "malformed")
		return
	}

	if r.confirmMode {
		action := authz.ActionBalance
		if channel == wire.ChannelHistory {
			action = authz.ActionHistory
		}
		r.metrics.message(channel.String(), "ok")
		r.awaitIdentity(ctx, req.AccountNumber, action, "")
		return
	}

	var err error
	switch channel {
	case wire.ChannelBalance:
		err = r.handler.PublishBalance(ctx, req.AccountNumber)
	case wire.ChannelHistory:
		err = r.handler.PublishHistory(ctx, req.AccountNumber)
	}
	if err != nil {
		log.Error("query failed", "channel", channel.String(), "account", req.AccountNumber, "error", err)
		r.metrics.message(channel.String(), "error")
		return
	}
	r.metrics.message(channel.String(), "ok")
}

// awaitIdentity consumes the identity-confirmation continuation. Only
// the transaction action rejects a payment on a non-success outcome;
// balance and history confirmations just log, since their answers
// travel back through the confirmation gateway independently.
func (r *Router) awaitIdentity(ctx context.Context, accountNumber string, action authz.Action, paymentID string) {
	results := r.authorizer.ConfirmIdentity(ctx, accountNumber, action)

	go func() {
		res := <-results
		r.metrics.authzResult(string(action), res.Outcome.String())

		bg := context.WithoutCancel(ctx)
		log := logging.FromContext(bg)

		if res.Outcome == authz.Success {
			log.Debug("identity confirmation accepted", "account", accountNumber, "action", string(action))
			return
		}

		log.Error("identity confirmation did not succeed",
			"account", accountNumber,
			"action", string(action),
			"outcome", res.Outcome.String(),
			"error", res.Err,
		)
		if action == authz.ActionTransaction && paymentID != "" {
			if err := r.handler.RejectPayment(bg, paymentID); err != nil {
				log.Error("failed to reject payment", "payment_id", paymentID, "error", err)
			}
		}
	}()
}
