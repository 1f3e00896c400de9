package payment

import (
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"
)

// MidtransGateway issues Snap tokens and reads transaction status from the Core API.
type MidtransGateway struct {
	snap      snap.Client
	core      coreapi.Client
	serverKey string
}

func NewMidtransGateway(serverKey, env string) *MidtransGateway {
	e := midtrans.Sandbox
	if env == "production" {
		e = midtrans.Production
	}
	g := &MidtransGateway{serverKey: serverKey}
	g.snap.New(serverKey, e)
	g.core.New(serverKey, e)
	return g
}

func (g *MidtransGateway) Checkout(_ context.Context, req CheckoutRequest) (*Checkout, error) {
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidInput
	}
	gross := req.Amount.Round(0).IntPart()

	resp, merr := g.snap.CreateTransaction(&snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  req.OrderID,
			GrossAmt: gross,
		},
		Items: &[]midtrans.ItemDetails{{
			ID:    req.OrderID,
			Name:  truncate(req.Description, 50),
			Price: gross,
			Qty:   1,
		}},
	})
	if merr != nil {
		return nil, mapMidtransError(merr)
	}
	return &Checkout{ProviderRef: req.OrderID, SnapToken: resp.Token, RedirectURL: resp.RedirectURL}, nil
}

func (g *MidtransGateway) Status(_ context.Context, p *Payment) (Status, error) {
	res, merr := g.core.CheckTransaction(p.OrderID)
	if merr != nil {
		// 404 until the customer picks a payment method in Snap
		if merr.StatusCode == http.StatusNotFound {
			return StatusPending, nil
		}
		return StatusPending, mapMidtransError(merr)
	}
	return midtransStatus(res.TransactionStatus, res.FraudStatus), nil
}

type midtransNotification struct {
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	TransactionID     string `json:"transaction_id"`
}

// ParseNotification verifies the HTTP notification signature:
// sha512(order_id + status_code + gross_amount + server_key).
func (g *MidtransGateway) ParseNotification(body []byte) (*ProviderEvent, error) {
	var n midtransNotification
	if err := json.Unmarshal(body, &n); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if n.OrderID == "" {
		return nil, ErrInvalidInput
	}

	sum := sha512.Sum512([]byte(n.OrderID + n.StatusCode + n.GrossAmount + g.serverKey))
	want := hex.EncodeToString(sum[:])
	if subtle.ConstantTimeCompare([]byte(want), []byte(n.SignatureKey)) != 1 {
		return nil, ErrInvalidSignature
	}

	return &ProviderEvent{
		Provider:    ProviderMidtrans,
		OrderID:     n.OrderID,
		ProviderRef: n.OrderID,
		Status:      midtransStatus(n.TransactionStatus, n.FraudStatus),
	}, nil
}

func midtransStatus(transaction, fraud string) Status {
	switch transaction {
	case "capture":
		if fraud == "challenge" {
			return StatusPending
		}
		if fraud == "deny" {
			return StatusFailed
		}
		return StatusSuccess
	case "settlement":
		return StatusSuccess
	case "deny", "failure":
		return StatusFailed
	case "cancel":
		return StatusCancel
	case "expire":
		return StatusExpire
	}
	return StatusPending
}

func mapMidtransError(merr *midtrans.Error) error {
	if merr.StatusCode >= http.StatusInternalServerError {
		return ErrProviderDown
	}
	return fmt.Errorf("midtrans: %s", merr.Message)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
