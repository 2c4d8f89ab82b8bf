// Package wire defines the MQTT topic namespace and the JSON envelopes
// exchanged over it. Classification is a pure function over the topic
// string so routing is testable without a connected broker.
package wire

import "strings"

const (
	BankTopic             = "/bank"
	PaymentOrders         = BankTopic + "/payment_orders"
	PaymentOrderResponses = BankTopic + "/payment_order_responses"
	RequestBalance        = BankTopic + "/request/balance"
	ResponseBalance       = BankTopic + "/response/balance"
	RequestHistory        = BankTopic + "/request/history"
	ResponseHistory       = BankTopic + "/response/history"
	RequestLinkAccount    = BankTopic + "/request/link_account"
)

// Channel is the logical category of an inbound topic.
type Channel int

const (
	ChannelUnknown Channel = iota
	ChannelBalance
	ChannelHistory
	ChannelPaymentOrder
	ChannelLinkAccount
)

func (c Channel) String() string {
	switch c {
	case ChannelBalance:
		return "balance"
	case ChannelHistory:
		return "history"
	case ChannelPaymentOrder:
		return "payment_order"
	case ChannelLinkAccount:
		return "link_account"
	default:
		return "unknown"
	}
}

// Classify maps an inbound topic onto its channel. Matching is
// substring based, mirroring how the broker-side wildcards are laid
// out: each request subtree carries /{bic}/{account} below the prefix.
func Classify(topic string) Channel {
	switch {
	case strings.Contains(topic, PaymentOrders):
		return ChannelPaymentOrder
	case strings.Contains(topic, RequestBalance):
		return ChannelBalance
	case strings.Contains(topic, RequestHistory):
		return ChannelHistory
	case strings.Contains(topic, RequestLinkAccount):
		return ChannelLinkAccount
	default:
		return ChannelUnknown
	}
}

// SubscriptionTopics returns the four request subtrees one bank
// identity listens on.
func SubscriptionTopics(bic string) []string {
	return []string{
		RequestBalance + "/" + bic + "/#",
		RequestHistory + "/" + bic + "/#",
		RequestLinkAccount + "/" + bic + "/#",
		PaymentOrders + "/" + bic + "/#",
	}
}

func BalanceResponseTopic(bic, accountNumber string) string {
	return ResponseBalance + "/" + bic + "/" + accountNumber
}

func HistoryResponseTopic(bic, accountNumber string) string {
	return ResponseHistory + "/" + bic + "/" + accountNumber
}
