package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Galleee2002/fueradecontexto-api/internal/usecase"
)

const currencyID = "ARS"

// MercadoPago is the hosted-checkout client. Every call carries a bounded
// timeout; the gateway is treated as untrusted and possibly slow, and a
// timeout surfaces like any other gateway failure.
type MercadoPago struct {
	baseURL     string
	accessToken string
	httpc       *http.Client
}

func NewMercadoPago(baseURL, accessToken string, timeout time.Duration) *MercadoPago {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &MercadoPago{
		baseURL:     baseURL,
		accessToken: accessToken,
		httpc:       &http.Client{Timeout: timeout},
	}
}

var _ usecase.PaymentGateway = (*MercadoPago)(nil)

type preferenceItem struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	PictureURL string  `json:"picture_url,omitempty"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	CurrencyID string  `json:"currency_id"`
}

type preferenceBody struct {
	Items []preferenceItem `json:"items"`
	Payer struct {
		Email string `json:"email"`
	} `json:"payer"`
	Shipments struct {
		Cost float64 `json:"cost"`
		Mode string  `json:"mode"`
	} `json:"shipments"`
	BackURLs struct {
		Success string `json:"success"`
		Failure string `json:"failure"`
		Pending string `json:"pending"`
	} `json:"back_urls"`
	AutoReturn        string `json:"auto_return"`
	ExternalReference string `json:"external_reference"`
	NotificationURL   string `json:"notification_url"`
}

type preferenceResponse struct {
	ID        string `json:"id"`
	InitPoint string `json:"init_point"`
}

func (g *MercadoPago) CreatePreference(ctx context.Context, req usecase.PreferenceRequest) (*usecase.Preference, error) {
	order := req.Order

	var body preferenceBody
	for _, it := range order.Items {
		body.Items = append(body.Items, preferenceItem{
			ID:         it.ProductID,
			Title:      it.Snapshot.Name,
			PictureURL: it.Snapshot.ImageURL,
			Quantity:   it.Quantity,
			UnitPrice:  centsToUnits(it.UnitPriceCents),
			CurrencyID: currencyID,
		})
	}
	body.Payer.Email = order.PayerEmail
	body.Shipments.Cost = centsToUnits(order.ShippingCents)
	body.Shipments.Mode = "not_specified"
	body.BackURLs.Success = req.SuccessURL
	body.BackURLs.Failure = req.FailureURL
	body.BackURLs.Pending = req.PendingURL
	body.AutoReturn = "approved"
	body.ExternalReference = order.OrderNumber
	body.NotificationURL = req.NotifyURL

	var resp preferenceResponse
	if err := g.do(ctx, http.MethodPost, "/checkout/preferences", &body, &resp); err != nil {
		return nil, err
	}
	return &usecase.Preference{ID: resp.ID, CheckoutURL: resp.InitPoint}, nil
}

type paymentResponse struct {
	ID                json.Number `json:"id"`
	Status            string      `json:"status"`
	StatusDetail      string      `json:"status_detail"`
	PaymentTypeID     string      `json:"payment_type_id"`
	PreferenceID      string      `json:"preference_id"`
	ExternalReference string      `json:"external_reference"`
	TransactionAmount float64     `json:"transaction_amount"`
}

func (g *MercadoPago) GetPayment(ctx context.Context, paymentID string) (*usecase.Payment, error) {
	var resp paymentResponse
	if err := g.do(ctx, http.MethodGet, "/v1/payments/"+paymentID, nil, &resp); err != nil {
		return nil, err
	}
	return &usecase.Payment{
		ID:                resp.ID.String(),
		Status:            resp.Status,
		StatusDetail:      resp.StatusDetail,
		PaymentTypeID:     resp.PaymentTypeID,
		PreferenceID:      resp.PreferenceID,
		ExternalReference: resp.ExternalReference,
		AmountCents:       unitsToCents(resp.TransactionAmount),
	}, nil
}

func (g *MercadoPago) do(ctx context.Context, method, path string, body, out any) error {
	var rdr *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(b)
	} else {
		rdr = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+g.accessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.httpc.Do(req)
	if err != nil {
		return &usecase.GatewayError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &usecase.GatewayError{Op: method + " " + path, StatusCode: resp.StatusCode}
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &usecase.GatewayError{Op: method + " " + path, Err: fmt.Errorf("decode response: %w", err)}
		}
	}
	return nil
}

func centsToUnits(cents int64) float64 { return float64(cents) / 100 }

func unitsToCents(units float64) int64 { return int64(units*100 + 0.5) }
