package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mobilewallet/bankd/internal/domain"
	"github.com/mobilewallet/bankd/internal/logging"
	"github.com/mobilewallet/bankd/internal/wire"
)

// Notifier serializes response envelopes and publishes them on the
// outbound channels. Status updates for requested are internal
// bookkeeping and never leave the engine.
type Notifier struct {
	pub     Publisher
	metrics *Metrics
}

func NewNotifier(pub Publisher, metrics *Metrics) *Notifier {
	return &Notifier{pub: pub, metrics: metrics}
}

func (n *Notifier) StatusUpdate(ctx context.Context, update wire.StatusUpdate) error {
	if update.Status == string(domain.StatusRequested) {
		return nil
	}
	if err := n.publish(ctx, wire.PaymentOrderResponses, "status_update", update); err != nil {
		return fmt.Errorf("StatusUpdate: %w", err)
	}
	return nil
}

func (n *Notifier) OrderRejection(ctx context.Context, rejection wire.OrderRejection) error {
	if err := n.publish(ctx, wire.PaymentOrderResponses, "order_rejection", rejection); err != nil {
		return fmt.Errorf("OrderRejection: %w", err)
	}
	return nil
}

func (n *Notifier) Balance(ctx context.Context, resp wire.BalanceResponse) error {
	topic := wire.BalanceResponseTopic(resp.BankID, resp.AccountNumber)
	if err := n.publish(ctx, topic, "balance", resp); err != nil {
		return fmt.Errorf("Balance: %w", err)
	}
	return nil
}

func (n *Notifier) History(ctx context.Context, resp wire.HistoryResponse) error {
	topic := wire.HistoryResponseTopic(resp.BankID, resp.AccountNumber)
	if err := n.publish(ctx, topic, "history", resp); err != nil {
		return fmt.Errorf("History: %w", err)
	}
	return nil
}

func (n *Notifier) publish(ctx context.Context, topic, kind string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := n.pub.Publish(topic, payload); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}

	n.metrics.publish(kind)
	logging.FromContext(ctx).Debug("notification published", "topic", topic, "kind", kind)
	return nil
}
