package rails

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"talentbridge/config"

	"github.com/stretchr/testify/require"
)

// testCreds выдает ключи тестового сервера вместо переменных окружения.
type testCreds struct {
	base string
}

func (t testCreds) RailCredentials(rail string) (config.RailCredentials, error) {
	return config.RailCredentials{AccessKey: "AK_test", SecretKey: "SK_test", BaseURL: t.base}, nil
}

func newTestGateway(serverURL string) *Gateway {
	return NewGateway(testCreds{base: serverURL})
}

func TestTrolleySignature(t *testing.T) {
	var checked bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts := r.Header.Get("X-PR-Timestamp")
		require.NotEmpty(t, ts)
		tsInt, err := strconv.ParseInt(ts, 10, 64)
		require.NoError(t, err)
		require.WithinDuration(t, time.Now(), time.Unix(tsInt, 0), time.Minute)

		body, _ := io.ReadAll(r.Body)

		// Пересчитываем подпись так, как это делает сервер провайдера
		mac := hmac.New(sha256.New, []byte("SK_test"))
		mac.Write([]byte(ts))
		mac.Write([]byte(r.Method))
		mac.Write([]byte(r.URL.RequestURI()))
		mac.Write(body)
		expected := "prsign AK_test:" + hex.EncodeToString(mac.Sum(nil))

		require.Equal(t, expected, r.Header.Get("Authorization"))
		checked = true

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"available":[{"amount":1000,"currency":"usd"}],"pending":[]}`))
	}))
	defer server.Close()

	gw := newTestGateway(server.URL)
	balance, err := gw.GetBalance(context.Background(), RailTrolley, "R-123")
	require.NoError(t, err)
	require.True(t, checked)
	require.Len(t, balance.Available, 1)
	require.Equal(t, int64(1000), balance.Available[0].Amount)
}

func TestStripeBearerAuth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer SK_test", r.Header.Get("Authorization"))
		w.Write([]byte(`{"available":[],"pending":[]}`))
	}))
	defer server.Close()

	gw := newTestGateway(server.URL)
	_, err := gw.GetBalance(context.Background(), RailStripe, "acct_1")
	require.NoError(t, err)
}

// Чтения ретраятся с новой подписью на каждую попытку.
func TestGetRetriesTransportFailures(t *testing.T) {
	var attempts int
	signatures := map[string]bool{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		signatures[r.Header.Get("Authorization")+r.Header.Get("X-PR-Timestamp")] = true
		if attempts < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"available":[],"pending":[]}`))
	}))
	defer server.Close()

	gw := newTestGateway(server.URL)
	_, err := gw.GetBalance(context.Background(), RailTrolley, "R-123")
	require.NoError(t, err)
	require.Equal(t, 3, attempts)
}

func TestGetDoesNotRetryProviderRejection(t *testing.T) {
	var attempts int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"errors":[{"code":"invalid_key","message":"bad access key"}]}`))
	}))
	defer server.Close()

	gw := newTestGateway(server.URL)
	_, err := gw.GetBalance(context.Background(), RailTrolley, "R-123")

	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, "invalid_key", perr.Code)
	require.Equal(t, "bad access key", perr.Message)
	require.Equal(t, 1, attempts)
}

// Записи не повторяются молча: дубликат платежа хуже, чем ошибка.
func TestPostNeverRetries(t *testing.T) {
	var attempts int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		require.NotEmpty(t, r.Header.Get("Idempotency-Key"))
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	gw := newTestGateway(server.URL)
	_, err := gw.CreatePayment(context.Background(), RailTrolley, PaymentRequest{
		Amount: 100_00, Currency: "usd", Destination: "R-123",
	}, "key-1")

	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	require.Equal(t, 1, attempts)
}

func TestCreatePaymentRequiresIdempotencyKey(t *testing.T) {
	gw := newTestGateway("http://127.0.0.1:0")
	_, err := gw.CreatePayment(context.Background(), RailTrolley, PaymentRequest{Amount: 1}, "")
	require.Error(t, err)
}

func TestStripeErrorEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":{"type":"card_error","code":"card_declined","message":"Your card was declined."}}`))
	}))
	defer server.Close()

	gw := newTestGateway(server.URL)
	_, err := gw.CreatePayment(context.Background(), RailStripe, PaymentRequest{Amount: 1}, "key-1")

	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, RailStripe, perr.Rail)
	require.Equal(t, "card_declined", perr.Code)
	require.Equal(t, http.StatusPaymentRequired, perr.StatusCode)
}

func TestListPayoutsEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "5", r.URL.Query().Get("limit"))
		w.Write([]byte(`{"data":[{"id":"po_1","amount":5000,"currency":"usd","status":"paid"}]}`))
	}))
	defer server.Close()

	gw := newTestGateway(server.URL)
	payouts, err := gw.ListPayouts(context.Background(), RailTrolley, "R-123", 5)
	require.NoError(t, err)
	require.Len(t, payouts, 1)
	require.Equal(t, "po_1", payouts[0].ID)
	require.Equal(t, int64(5000), payouts[0].Amount)
}
