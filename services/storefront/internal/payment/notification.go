package payment

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"github.com/Skotchmaster/storefront/pkg/errs"
)

var ErrBadSignature = fmt.Errorf("notification signature mismatch: %w", errs.ErrValidation)

// Notification is the asynchronous status callback posted by the gateway.
type Notification struct {
	OrderID           string `json:"order_id"`
	TransactionID     string `json:"transaction_id"`
	TransactionStatus string `json:"transaction_status"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
}

func (n Notification) Settled() bool {
	return n.TransactionStatus == StatusCapture || n.TransactionStatus == StatusSettlement
}

// Sign computes sha512(order_id + status_code + gross_amount + server_key), hex encoded.
func (n Notification) Sign(serverKey string) string {
	sum := sha512.Sum512([]byte(n.OrderID + n.StatusCode + n.GrossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

// Verify refuses every notification when no server key is configured;
// an empty key would make the signature computable by anyone.
func (n Notification) Verify(serverKey string) error {
	if serverKey == "" {
		return ErrNotConfigured
	}
	want := n.Sign(serverKey)
	if subtle.ConstantTimeCompare([]byte(want), []byte(n.SignatureKey)) != 1 {
		return ErrBadSignature
	}
	return nil
}
