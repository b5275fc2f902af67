package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrderConvertsToPaise(t *testing.T) {
	var received map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/orders", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "rzp_test_key", user)
		assert.Equal(t, "secret", pass)

		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(Order{
			ID:       "order_ABC123",
			Amount:   int64(received["amount"].(float64)),
			Currency: "INR",
			Status:   "created",
		})
	}))
	defer server.Close()

	ps := NewPaymentService("rzp_test_key", "secret", server.URL)
	order, err := ps.CreateOrder(349.50, "INR", map[string]string{"booking_id": "7"})
	require.NoError(t, err)

	assert.Equal(t, "order_ABC123", order.ID)
	assert.Equal(t, int64(34950), order.Amount)
	assert.Equal(t, float64(34950), received["amount"])
	notes := received["notes"].(map[string]interface{})
	assert.Equal(t, "7", notes["booking_id"])
}

func TestCreateOrderGatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	ps := NewPaymentService("bad", "creds", server.URL)
	_, err := ps.CreateOrder(100, "INR", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func signPayment(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	ps := NewPaymentService("key", "secret", "")

	sig := signPayment("secret", "order_1", "pay_1")
	assert.True(t, ps.VerifySignature("order_1", "pay_1", sig))
	assert.NoError(t, ps.VerifyPayment("order_1", "pay_1", sig))

	// Tampered fields must fail
	assert.False(t, ps.VerifySignature("order_1", "pay_2", sig))
	assert.False(t, ps.VerifySignature("order_2", "pay_1", sig))
	assert.ErrorIs(t, ps.VerifyPayment("order_1", "pay_1", "deadbeef"), ErrInvalidSignature)

	// Wrong secret produces a different signature
	other := signPayment("other", "order_1", "pay_1")
	assert.False(t, ps.VerifySignature("order_1", "pay_1", other))
}
