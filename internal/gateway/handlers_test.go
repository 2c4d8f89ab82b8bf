package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mobilewallet/bankd/internal/domain"
)

type fakeFleet struct {
	connected   bool
	connects    int
	disconnects int
}

func (f *fakeFleet) ConnectAll()    { f.connects++; f.connected = true }
func (f *fakeFleet) DisconnectAll() { f.disconnects++; f.connected = false }
func (f *fakeFleet) Statuses() map[string]bool {
	return map[string]bool{"BANK": f.connected}
}

type fakeEngine struct {
	applied    map[string]domain.TxStatus
	balances   []string
	histories  []string
	resumed    []string
	applyErr   error
	publishErr error
}

func (f *fakeEngine) ApplyStatusByPaymentID(ctx context.Context, paymentID string, status domain.TxStatus) error {
	if f.applyErr != nil {
		return f.applyErr
	}
	if f.applied == nil {
		f.applied = map[string]domain.TxStatus{}
	}
	f.applied[paymentID] = status
	return nil
}

func (f *fakeEngine) PublishBalance(ctx context.Context, accountNumber string) error {
	f.balances = append(f.balances, accountNumber)
	return f.publishErr
}

func (f *fakeEngine) PublishHistory(ctx context.Context, accountNumber string) error {
	f.histories = append(f.histories, accountNumber)
	return f.publishErr
}

func (f *fakeEngine) ProcessRequestedForAccount(ctx context.Context, accountNumber string) error {
	f.resumed = append(f.resumed, accountNumber)
	return nil
}

type fakeLinker struct {
	result *LinkResult
	err    error
	linked []string
}

func (f *fakeLinker) LinkAccount(ctx context.Context, accountNumber string) (*LinkResult, error) {
	f.linked = append(f.linked, accountNumber)
	return f.result, f.err
}

func doRequest(t *testing.T, h http.HandlerFunc, method, body string) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h(rec, req)

	var resp APIResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return rec, resp
}

func TestStatusReportsFleet(t *testing.T) {
	fleet := &fakeFleet{connected: true}
	h := NewHandler(fleet, &fakeEngine{}, &fakeLinker{})

	rec, resp := doRequest(t, h.Status, http.MethodGet, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
}

func TestConnectAndDisconnectCycleFleet(t *testing.T) {
	fleet := &fakeFleet{}
	h := NewHandler(fleet, &fakeEngine{}, &fakeLinker{})

	rec, _ := doRequest(t, h.Connect, http.MethodGet, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, fleet.connects)

	rec, _ = doRequest(t, h.Disconnect, http.MethodGet, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, fleet.disconnects)
}

func TestLinkAccountValidation(t *testing.T) {
	linker := &fakeLinker{}
	h := NewHandler(&fakeFleet{}, &fakeEngine{}, linker)

	rec, resp := doRequest(t, h.LinkAccount, http.MethodPost, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", resp.Code)

	rec, _ = doRequest(t, h.LinkAccount, http.MethodPost, `{"accountNumber":"too-short"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, resp = doRequest(t, h.LinkAccount, http.MethodPost, `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, ErrInvalidRequest.Code, resp.Code)

	assert.Empty(t, linker.linked)
}

func TestLinkAccountSuccess(t *testing.T) {
	linker := &fakeLinker{
		result: &LinkResult{
			Account: &domain.Account{AccountNumber: "NL01BANK0000000000000001"},
			Token:   "tok-1",
		},
	}
	h := NewHandler(&fakeFleet{}, &fakeEngine{}, linker)

	rec, resp := doRequest(t, h.LinkAccount, http.MethodPost,
		`{"accountNumber":"NL01BANK0000000000000001"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, []string{"NL01BANK0000000000000001"}, linker.linked)
}

func TestLinkAccountConflict(t *testing.T) {
	linker := &fakeLinker{err: domain.ErrAccountExists}
	h := NewHandler(&fakeFleet{}, &fakeEngine{}, linker)

	rec, resp := doRequest(t, h.LinkAccount, http.MethodPost,
		`{"accountNumber":"NL01BANK0000000000000001"}`)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, ErrAccountExists.Code, resp.Code)
}

func TestTransactionResultMapsGatewayStatus(t *testing.T) {
	eng := &fakeEngine{}
	h := NewHandler(&fakeFleet{}, eng, &fakeLinker{})

	rec, _ := doRequest(t, h.TransactionResult, http.MethodPost,
		`{"paymentId":"pay-1","status":"CONFIRMED"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.StatusReceived, eng.applied["pay-1"])

	rec, _ = doRequest(t, h.TransactionResult, http.MethodPost,
		`{"paymentId":"pay-2","status":"ERROR"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.StatusRejected, eng.applied["pay-2"])
}

func TestTransactionResultUnknownStatus(t *testing.T) {
	eng := &fakeEngine{}
	h := NewHandler(&fakeFleet{}, eng, &fakeLinker{})

	rec, resp := doRequest(t, h.TransactionResult, http.MethodPost,
		`{"paymentId":"pay-1","status":"confirmed"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, ErrUnknownStatus.Code, resp.Code)
	assert.Empty(t, eng.applied)
}

func TestTransactionResultReplayConflicts(t *testing.T) {
	eng := &fakeEngine{applyErr: domain.ErrAlreadyProcessed}
	h := NewHandler(&fakeFleet{}, eng, &fakeLinker{})

	rec, resp := doRequest(t, h.TransactionResult, http.MethodPost,
		`{"paymentId":"pay-1","status":"CONFIRMED"}`)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, ErrAlreadyProcessed.Code, resp.Code)
}

func TestIdentityResultDispatchesByAction(t *testing.T) {
	eng := &fakeEngine{}
	h := NewHandler(&fakeFleet{}, eng, &fakeLinker{})

	doRequest(t, h.IdentityResult, http.MethodPost,
		`{"accountNumber":"acc-1","action":"balance"}`)
	doRequest(t, h.IdentityResult, http.MethodPost,
		`{"accountNumber":"acc-1","action":"history"}`)
	doRequest(t, h.IdentityResult, http.MethodPost,
		`{"accountNumber":"acc-1","action":"transaction"}`)

	assert.Equal(t, []string{"acc-1"}, eng.balances)
	assert.Equal(t, []string{"acc-1"}, eng.histories)
	assert.Equal(t, []string{"acc-1"}, eng.resumed)
}

func TestIdentityResultUnknownAction(t *testing.T) {
	eng := &fakeEngine{}
	h := NewHandler(&fakeFleet{}, eng, &fakeLinker{})

	rec, resp := doRequest(t, h.IdentityResult, http.MethodPost,
		`{"accountNumber":"acc-1","action":"selfie"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, ErrUnknownAction.Code, resp.Code)
	assert.Empty(t, eng.balances)
}
