package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mobilewallet/bankd/internal/domain"
	"github.com/mobilewallet/bankd/internal/logging"
)

// ibanLength is the only IBAN validation currently done. The BIC sits
// in characters 4..8 of the account number.
const ibanLength = 24

type bankResolver interface {
	GetByBIC(ctx context.Context, bic string) (*domain.Bank, error)
}

type accountStore interface {
	GetByNumber(ctx context.Context, accountNumber string) (*domain.Account, error)
	Create(ctx context.Context, bankID int64, accountNumber string) (*domain.Account, error)
}

// Linker registers a new account under one of the hosted banks and
// notifies the wallet backend of the linking token. The notification
// is fire-and-forget; the wallet side confirms the token with the
// holder out of band.
type Linker struct {
	banks      bankResolver
	accounts   accountStore
	httpClient *http.Client
	linkURL    string
	devel      bool
}

func NewLinker(banks bankResolver, accounts accountStore, linkURL string, timeout time.Duration, devel bool) *Linker {
	return &Linker{
		banks:      banks,
		accounts:   accounts,
		httpClient: &http.Client{Timeout: timeout},
		linkURL:    linkURL,
		devel:      devel,
	}
}

type LinkResult struct {
	Account *domain.Account
	Token   string
}

func (l *Linker) LinkAccount(ctx context.Context, accountNumber string) (*LinkResult, error) {
	if len(accountNumber) != ibanLength {
		return nil, fmt.Errorf("LinkAccount: %w", domain.ErrInvalidAccount)
	}

	bic := accountNumber[4:8]
	bank, err := l.banks.GetByBIC(ctx, bic)
	if err != nil {
		return nil, fmt.Errorf("LinkAccount: %w", err)
	}

	if _, err := l.accounts.GetByNumber(ctx, accountNumber); err == nil {
		return nil, fmt.Errorf("LinkAccount: %w", domain.ErrAccountExists)
	}

	account, err := l.accounts.Create(ctx, bank.ID, accountNumber)
	if err != nil {
		return nil, fmt.Errorf("LinkAccount: %w", err)
	}

	token := uuid.New().String()
	if l.devel {
		// Short tokens are easier to type into the wallet app during
		// manual testing.
		token = token[:6]
	}

	l.notifyWallet(ctx, accountNumber, token)

	return &LinkResult{Account: account, Token: token}, nil
}

type linkNotification struct {
	AccountNumber string `json:"accountNumber"`
	Token         string `json:"token"`
	Timestamp     string `json:"timestamp"`
}

func (l *Linker) notifyWallet(ctx context.Context, accountNumber, token string) {
	bg := context.WithoutCancel(ctx)

	go func() {
		log := logging.FromContext(bg)

		body, err := json.Marshal(linkNotification{
			AccountNumber: accountNumber,
			Token:         token,
			Timestamp:     time.Now().UTC().Format(time.RFC3339),
		})
		if err != nil {
			log.Error("failed to encode link notification", "error", err)
			return
		}

		req, err := http.NewRequestWithContext(bg, http.MethodPost, l.linkURL, bytes.NewReader(body))
		if err != nil {
			log.Error("failed to build link notification request", "error", err)
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := l.httpClient.Do(req)
		if err != nil {
			log.Error("link notification failed", "account", accountNumber, "error", err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			log.Error("link notification rejected", "account", accountNumber, "status", resp.StatusCode)
			return
		}
		log.Info("link notification delivered", "account", accountNumber)
	}()
}
