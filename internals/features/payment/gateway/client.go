// internals/features/payment/gateway/client.go
package gateway

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"shulepay_backend/internals/configs"
)

// ResponseCodeAccepted is the provider's success sentinel. Anything else on a
// collection request is a business rejection, not a transport error.
const ResponseCodeAccepted = "INS-0"

var (
	// ErrEncryption: bad or missing provider public key. Configuration error,
	// fatal — retrying cannot help.
	ErrEncryption = errors.New("gateway: credential encryption failed")
	// ErrSessionRejected: getSession answered with a non-accepted code.
	// Transient as far as callers are concerned; initiation may be retried.
	ErrSessionRejected = errors.New("gateway: session request rejected")
)

// Client talks to the Vodacom M-Pesa OpenAPI. One instance per process,
// injected where needed.
type Client struct {
	cfg        configs.GatewayConfig
	httpClient *http.Client
	publicKey  *rsa.PublicKey
}

// Session is the short-lived credential from getSession. The provider
// mandates a cooldown after creation before the session is usable; ReadyAt
// is when that window closes. Treat it as a blocking precondition, not a
// retry-on-failure case.
type Session struct {
	ID      string
	ReadyAt time.Time
}

// CollectionResult is what a single-stage C2B request came back with. Raw is
// kept verbatim for the payment audit trail.
type CollectionResult struct {
	Success             bool
	ResponseCode        string
	ResponseDescription string
	TransactionID       string
	ConversationID      string
	Raw                 json.RawMessage
}

// StatusResult mirrors queryTransactionStatus.
type StatusResult struct {
	ResponseCode        string
	ResponseDescription string
	TransactionStatus   string
	Raw                 json.RawMessage
}

func NewClient(cfg configs.GatewayConfig) (*Client, error) {
	der, err := base64.StdEncoding.DecodeString(cfg.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: public key is not valid base64: %v", ErrEncryption, err)
	}
	parsed, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryption, err)
	}
	rsaKey, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: key is not RSA", ErrEncryption)
	}
	timeout := cfg.HTTPTimeout
	if timeout == 0 {
		timeout = 45 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		publicKey:  rsaKey,
	}, nil
}

// encryptCredential produces the bearer value the provider expects: the
// credential RSA-encrypted with their public key, base64-encoded.
func (c *Client) encryptCredential(credential string) (string, error) {
	cipher, err := rsa.EncryptPKCS1v15(rand.Reader, c.publicKey, []byte(credential))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncryption, err)
	}
	return base64.StdEncoding.EncodeToString(cipher), nil
}

func (c *Client) endpoint(path string) string {
	return fmt.Sprintf("%s/ipg/v2/%s/%s/", c.cfg.BaseURL, c.cfg.Market, path)
}

/* ===================== Session ===================== */

type sessionResponse struct {
	OutputResponseCode string `json:"output_ResponseCode"`
	OutputResponseDesc string `json:"output_ResponseDesc"`
	OutputSessionID    string `json:"output_SessionID"`
}

// OpenSession exchanges the encrypted API key for a session id. The returned
// session is not usable before ReadyAt; call WaitReady first.
func (c *Client) OpenSession(ctx context.Context) (*Session, error) {
	bearer, err := c.encryptCredential(c.cfg.APIKey)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("getSession"), nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req, bearer)

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var out sessionResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("gateway: decode session response: %w", err)
	}
	if out.OutputResponseCode != ResponseCodeAccepted || out.OutputSessionID == "" {
		return nil, fmt.Errorf("%w: code=%s desc=%s", ErrSessionRejected, out.OutputResponseCode, out.OutputResponseDesc)
	}

	return &Session{
		ID:      out.OutputSessionID,
		ReadyAt: time.Now().Add(c.cfg.SessionCooldown),
	}, nil
}

// WaitReady suspends until the session's cooldown has elapsed. The wait is a
// timer select, so the goroutine yields instead of pinning a worker, and it
// aborts when the caller's context does.
func (c *Client) WaitReady(ctx context.Context, s *Session) error {
	remaining := time.Until(s.ReadyAt)
	if remaining <= 0 {
		return nil
	}
	timer := time.NewTimer(remaining)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

/* ===================== Collection ===================== */

type collectionRequest struct {
	InputAmount                   string `json:"input_Amount"`
	InputCustomerMSISDN           string `json:"input_CustomerMSISDN"`
	InputCountry                  string `json:"input_Country"`
	InputCurrency                 string `json:"input_Currency"`
	InputServiceProviderCode      string `json:"input_ServiceProviderCode"`
	InputTransactionReference     string `json:"input_TransactionReference"`
	InputThirdPartyConversationID string `json:"input_ThirdPartyConversationID"`
	InputPurchasedItemsDesc       string `json:"input_PurchasedItemsDesc"`
}

type collectionResponse struct {
	OutputResponseCode   string `json:"output_ResponseCode"`
	OutputResponseDesc   string `json:"output_ResponseDesc"`
	OutputTransactionID  string `json:"output_TransactionID"`
	OutputConversationID string `json:"output_ConversationID"`
}

// InitiateCollection submits a single-stage C2B collection against an open,
// ready session. Success is strictly the accepted sentinel; any other code is
// a business failure the caller records as a failed payment.
func (c *Client) InitiateCollection(ctx context.Context, s *Session, msisdn string, amount float64, reference, description string) (*CollectionResult, error) {
	if err := c.WaitReady(ctx, s); err != nil {
		return nil, err
	}

	bearer, err := c.encryptCredential(s.ID)
	if err != nil {
		return nil, err
	}

	payload := collectionRequest{
		InputAmount:                   fmt.Sprintf("%.2f", amount),
		InputCustomerMSISDN:           msisdn,
		InputCountry:                  c.cfg.Country,
		InputCurrency:                 c.cfg.Currency,
		InputServiceProviderCode:      c.cfg.ServiceProviderCode,
		InputTransactionReference:     reference,
		InputThirdPartyConversationID: uuid.NewString(),
		InputPurchasedItemsDesc:       description,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("c2bPayment/singleStage"), bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	c.setHeaders(req, bearer)

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var out collectionResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("gateway: decode collection response: %w", err)
	}

	return &CollectionResult{
		Success:             out.OutputResponseCode == ResponseCodeAccepted,
		ResponseCode:        out.OutputResponseCode,
		ResponseDescription: out.OutputResponseDesc,
		TransactionID:       out.OutputTransactionID,
		ConversationID:      out.OutputConversationID,
		Raw:                 json.RawMessage(body),
	}, nil
}

/* ===================== Status query ===================== */

type statusResponse struct {
	OutputResponseCode              string `json:"output_ResponseCode"`
	OutputResponseDesc              string `json:"output_ResponseDesc"`
	OutputResponseTransactionStatus string `json:"output_ResponseTransactionStatus"`
}

// QueryStatus re-opens a session (cooldown included) and asks the provider
// for the current state of a transaction.
func (c *Client) QueryStatus(ctx context.Context, queryReference string) (*StatusResult, error) {
	s, err := c.OpenSession(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.WaitReady(ctx, s); err != nil {
		return nil, err
	}

	bearer, err := c.encryptCredential(s.ID)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("input_QueryReference", queryReference)
	q.Set("input_ServiceProviderCode", c.cfg.ServiceProviderCode)
	q.Set("input_Country", c.cfg.Country)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("queryTransactionStatus")+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req, bearer)

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var out statusResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("gateway: decode status response: %w", err)
	}

	return &StatusResult{
		ResponseCode:        out.OutputResponseCode,
		ResponseDescription: out.OutputResponseDesc,
		TransactionStatus:   out.OutputResponseTransactionStatus,
		Raw:                 json.RawMessage(body),
	}, nil
}

/* ===================== Shared plumbing ===================== */

func (c *Client) setHeaders(req *http.Request, bearer string) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Origin", "*")
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("gateway: read response: %w", err)
	}
	// The provider answers business rejections with 2xx and an output code;
	// anything else here is transport-level.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var out struct {
			Code string `json:"output_ResponseCode"`
			Desc string `json:"output_ResponseDesc"`
		}
		_ = json.Unmarshal(body, &out)
		if out.Code != "" {
			return body, nil
		}
		return nil, fmt.Errorf("gateway: http %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
