package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mobilewallet/bankd/internal/domain"
)

type fakeBanks struct {
	bank *domain.Bank
}

func (f *fakeBanks) GetByBIC(ctx context.Context, bic string) (*domain.Bank, error) {
	if f.bank != nil && f.bank.BIC == bic {
		return f.bank, nil
	}
	return nil, domain.ErrBankNotFound
}

type fakeAccounts struct {
	existing map[string]*domain.Account
	created  []string
}

func (f *fakeAccounts) GetByNumber(ctx context.Context, accountNumber string) (*domain.Account, error) {
	if a, ok := f.existing[accountNumber]; ok {
		return a, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (f *fakeAccounts) Create(ctx context.Context, bankID int64, accountNumber string) (*domain.Account, error) {
	f.created = append(f.created, accountNumber)
	return &domain.Account{ID: 1, BankID: bankID, AccountNumber: accountNumber}, nil
}

const validIBAN = "NL01BANK0000000000000001"

func TestLinkAccountCreatesAndNotifies(t *testing.T) {
	notified := make(chan linkNotification, 1)
	wallet := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var n linkNotification
		require.NoError(t, json.NewDecoder(r.Body).Decode(&n))
		notified <- n
	}))
	t.Cleanup(wallet.Close)

	banks := &fakeBanks{bank: &domain.Bank{ID: 7, BIC: "BANK"}}
	accounts := &fakeAccounts{}
	linker := NewLinker(banks, accounts, wallet.URL, time.Second, false)

	result, err := linker.LinkAccount(context.Background(), validIBAN)
	require.NoError(t, err)
	assert.Equal(t, validIBAN, result.Account.AccountNumber)
	assert.Len(t, result.Token, 36)
	assert.Equal(t, []string{validIBAN}, accounts.created)

	select {
	case n := <-notified:
		assert.Equal(t, validIBAN, n.AccountNumber)
		assert.Equal(t, result.Token, n.Token)
		assert.NotEmpty(t, n.Timestamp)
	case <-time.After(2 * time.Second):
		t.Fatal("wallet was never notified")
	}
}

func TestLinkAccountShortTokenInDevelopment(t *testing.T) {
	wallet := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	t.Cleanup(wallet.Close)

	banks := &fakeBanks{bank: &domain.Bank{ID: 7, BIC: "BANK"}}
	linker := NewLinker(banks, &fakeAccounts{}, wallet.URL, time.Second, true)

	result, err := linker.LinkAccount(context.Background(), validIBAN)
	require.NoError(t, err)
	assert.Len(t, result.Token, 6)
}

func TestLinkAccountRejectsBadIBAN(t *testing.T) {
	banks := &fakeBanks{bank: &domain.Bank{ID: 7, BIC: "BANK"}}
	accounts := &fakeAccounts{}
	linker := NewLinker(banks, accounts, "http://wallet.invalid", time.Second, false)

	_, err := linker.LinkAccount(context.Background(), "NL01BANK001")
	assert.ErrorIs(t, err, domain.ErrInvalidAccount)
	assert.Empty(t, accounts.created)
}

func TestLinkAccountUnknownBank(t *testing.T) {
	linker := NewLinker(&fakeBanks{}, &fakeAccounts{}, "http://wallet.invalid", time.Second, false)

	_, err := linker.LinkAccount(context.Background(), "NL01ELSE0000000000000001")
	assert.ErrorIs(t, err, domain.ErrBankNotFound)
}

func TestLinkAccountAlreadyLinked(t *testing.T) {
	banks := &fakeBanks{bank: &domain.Bank{ID: 7, BIC: "BANK"}}
	accounts := &fakeAccounts{existing: map[string]*domain.Account{
		validIBAN: {ID: 1, AccountNumber: validIBAN},
	}}
	linker := NewLinker(banks, accounts, "http://wallet.invalid", time.Second, false)

	_, err := linker.LinkAccount(context.Background(), validIBAN)
	assert.ErrorIs(t, err, domain.ErrAccountExists)
	assert.Empty(t, accounts.created)
}
