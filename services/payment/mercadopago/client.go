package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"vitrine-checkout-api/models"
	"vitrine-checkout-api/types"
)

const (
	DefaultBaseURL = "https://api.mercadopago.com"
	RequestTimeout = 30 * time.Second
)

type Client struct {
	accessToken string
	publicKey   string
	baseURL     string
	client      *http.Client
}

func NewClient(accessToken, publicKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		MaxConnsPerHost:     100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	return &Client{
		accessToken: accessToken,
		publicKey:   publicKey,
		baseURL:     baseURL,
		client: &http.Client{
			Timeout:   RequestTimeout,
			Transport: transport,
		},
	}
}

// PublicKey é a chave exposta ao storefront para montar o widget de
// tokenização
func (c *Client) PublicKey() string {
	return c.publicKey
}

func (c *Client) CreateCardPayment(ctx context.Context, charge *types.CardCharge) (*types.PaymentResult, error) {
	body := createPaymentRequest{
		TransactionAmount: charge.Amount,
		Token:             charge.Token,
		Installments:      charge.Installments,
		IssuerID:          charge.IssuerID,
		PaymentMethodID:   charge.PaymentMethodID,
		Description:       charge.Description,
		ExternalReference: charge.ExternalRef,
		Payer: payerType{
			Email: charge.PayerEmail,
		},
	}

	if charge.PayerTaxID != "" {
		body.Payer.Identification = &identificationType{
			Type:   taxIDType(charge.PayerTaxIDType),
			Number: charge.PayerTaxID,
		}
	}

	headers := map[string]string{}
	if charge.DeviceID != "" {
		// Fingerprint é consultivo: segue em header próprio e nunca
		// bloqueia a submissão
		headers["X-meli-session-id"] = charge.DeviceID
	}

	var resp paymentResponse
	if err := c.post(ctx, "/v1/payments", body, headers, &resp); err != nil {
		return nil, err
	}

	return &types.PaymentResult{
		PaymentID:    strconv.FormatInt(resp.ID, 10),
		Status:       resp.Status,
		StatusDetail: resp.StatusDetail,
		CheckoutURL:  resp.CheckoutURL,
	}, nil
}

func (c *Client) CreatePixPayment(ctx context.Context, charge *types.PixCharge) (*types.PixResult, error) {
	body := createPaymentRequest{
		TransactionAmount: charge.Amount,
		PaymentMethodID:   "pix",
		Description:       charge.Description,
		ExternalReference: charge.ExternalRef,
		Payer: payerType{
			Email: charge.PayerEmail,
		},
	}

	if charge.PayerTaxID != "" {
		body.Payer.Identification = &identificationType{
			Type:   taxIDType(charge.PayerTaxIDType),
			Number: charge.PayerTaxID,
		}
	}

	var resp paymentResponse
	if err := c.post(ctx, "/v1/payments", body, nil, &resp); err != nil {
		return nil, err
	}

	if resp.PointOfInteraction == nil || resp.PointOfInteraction.TransactionData.QRCode == "" {
		return nil, fmt.Errorf("pix payment created without qr code data (payment %d)", resp.ID)
	}

	return &types.PixResult{
		PaymentID:    strconv.FormatInt(resp.ID, 10),
		QRCode:       resp.PointOfInteraction.TransactionData.QRCode,
		QRCodeBase64: resp.PointOfInteraction.TransactionData.QRCodeBase64,
	}, nil
}

func (c *Client) GetPaymentStatus(ctx context.Context, paymentID string) (models.OrderStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/v1/payments/"+paymentID, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build status request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	httpResp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to query payment status: %v", err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read status response: %v", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status query returned HTTP %d: %s", httpResp.StatusCode, string(raw))
	}

	var resp paymentResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("failed to parse status response: %v", err)
	}

	return models.OrderStatus(resp.Status), nil
}

func (c *Client) CreatePreapproval(ctx context.Context, pr *types.PreapprovalRequest) (string, error) {
	body := createPreapprovalRequest{
		Reason:            pr.Reason,
		PayerEmail:        pr.PayerEmail,
		ExternalReference: pr.ExternalRef,
		BackURL:           pr.BackURL,
		AutoRecurring: autoRecurring{
			Frequency:         1,
			FrequencyType:     "months",
			TransactionAmount: pr.Amount,
			CurrencyID:        "BRL",
		},
	}

	var resp preapprovalResponse
	if err := c.post(ctx, "/preapproval", body, nil, &resp); err != nil {
		return "", err
	}

	if resp.InitPoint == "" {
		return "", fmt.Errorf("preapproval %s created without init point", resp.ID)
	}

	return resp.InitPoint, nil
}

func (c *Client) post(ctx context.Context, path string, body interface{}, headers map[string]string, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	// Cada submissão é single-shot; a chave de idempotência protege contra
	// retries de rede duplicarem a cobrança
	req.Header.Set("X-Idempotency-Key", uuid.New().String())
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	httpResp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %v", err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("failed to read gateway response: %v", err)
	}

	log.Printf("Gateway %s responded %d in %v", path, httpResp.StatusCode, time.Since(start))

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		var apiErr apiError
		if jsonErr := json.Unmarshal(raw, &apiErr); jsonErr == nil && apiErr.Message != "" {
			return fmt.Errorf("gateway error (HTTP %d): %s", httpResp.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("gateway error (HTTP %d): %s", httpResp.StatusCode, string(raw))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to parse gateway response: %v", err)
	}

	return nil
}

func taxIDType(kind string) string {
	if kind == string(models.TaxIDCNPJ) {
		return "CNPJ"
	}
	return "CPF"
}
