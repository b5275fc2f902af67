package services

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrInvalidSignature is returned when a gateway callback fails HMAC verification
var ErrInvalidSignature = errors.New("payment signature verification failed")

// PaymentService talks to the Razorpay orders API and verifies callbacks
type PaymentService struct {
	keyID     string
	keySecret string
	baseURL   string
	client    *http.Client
}

// NewPaymentService creates a payment service for the given credentials.
// baseURL is overridable for tests.
func NewPaymentService(keyID, keySecret, baseURL string) *PaymentService {
	return &PaymentService{
		keyID:     keyID,
		keySecret: keySecret,
		baseURL:   baseURL,
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Order is the gateway's order object
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

// CreateOrder creates a gateway order. Amount is in rupees and converted to
// paise for the API.
func (ps *PaymentService) CreateOrder(amount float64, currency string, notes map[string]string) (*Order, error) {
	payload := map[string]interface{}{
		"amount":   int64(amount * 100),
		"currency": currency,
		"notes":    notes,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, ps.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(ps.keyID, ps.keySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := ps.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach payment gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("payment gateway returned status: %d", resp.StatusCode)
	}

	var order Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, fmt.Errorf("failed to decode gateway response: %w", err)
	}

	return &order, nil
}

// VerifySignature checks the HMAC-SHA256 signature over "order_id|payment_id"
func (ps *PaymentService) VerifySignature(orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(ps.keySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// VerifyPayment validates a gateway callback, returning ErrInvalidSignature
// on mismatch
func (ps *PaymentService) VerifyPayment(orderID, paymentID, signature string) error {
	if !ps.VerifySignature(orderID, paymentID, signature) {
		return ErrInvalidSignature
	}
	return nil
}
