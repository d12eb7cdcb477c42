package sender

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/streetbite/vendorhub/internal/config"
	"github.com/streetbite/vendorhub/internal/domain"
	"github.com/streetbite/vendorhub/internal/pkg/httpretry"
	"github.com/streetbite/vendorhub/internal/pkg/logger"
)

// WhatsAppClient talks to the WhatsApp Cloud API.
type WhatsAppClient struct {
	baseURL       string
	version       string
	accessToken   string
	phoneNumberID string
	accountID     string
	http          httpretry.HTTPDoer
	log           *logger.Logger
}

// NewWhatsAppClient creates a client from config. Transient provider
// failures (429, 5xx) are retried by httpretry.
func NewWhatsAppClient(cfg config.WhatsAppConfig) *WhatsAppClient {
	httpClient := &http.Client{Timeout: cfg.Timeout()}
	return &WhatsAppClient{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		version:       cfg.APIVersion,
		accessToken:   cfg.AccessToken,
		phoneNumberID: cfg.PhoneNumberID,
		accountID:     cfg.BusinessAccountID,
		http:          httpretry.NewRetryClient(httpClient, 2),
		log:           logger.With("whatsapp"),
	}
}

// WithHTTPClient swaps the transport; used by tests.
func (c *WhatsAppClient) WithHTTPClient(d httpretry.HTTPDoer) *WhatsAppClient {
	c.http = d
	return c
}

type waParameter struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type waComponent struct {
	Type       string        `json:"type"`
	Parameters []waParameter `json:"parameters"`
}

type waTemplate struct {
	Name       string         `json:"name"`
	Language   map[string]any `json:"language"`
	Components []waComponent  `json:"components,omitempty"`
}

type waMessageRequest struct {
	MessagingProduct string     `json:"messaging_product"`
	RecipientType    string     `json:"recipient_type"`
	To               string     `json:"to"`
	Type             string     `json:"type"`
	Template         waTemplate `json:"template"`
}

type waError struct {
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

type waMessageResponse struct {
	waError
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// SendTemplate sends a template message with positional body parameters.
func (c *WhatsAppClient) SendTemplate(ctx context.Context, msg TemplateMessage) Result {
	lang := msg.Language
	if lang == "" {
		lang = "en"
	}
	payload := waMessageRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               msg.To,
		Type:             "template",
		Template: waTemplate{
			Name:     msg.TemplateName,
			Language: map[string]any{"code": lang},
		},
	}
	if len(msg.Variables) > 0 {
		params := make([]waParameter, len(msg.Variables))
		for i, v := range msg.Variables {
			params[i] = waParameter{Type: "text", Text: v}
		}
		payload.Template.Components = []waComponent{{Type: "body", Parameters: params}}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return failed(fmt.Sprintf("encoding message: %v", err))
	}
	endpoint := fmt.Sprintf("%s/%s/%s/messages", c.baseURL, c.version, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return failed(fmt.Sprintf("building request: %v", err))
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	var out waMessageResponse
	status, err := c.do(req, &out)
	if err != nil {
		c.log.Warn("template send failed", "phone", msg.To, "template", msg.TemplateName, "error", err)
		return failed(err.Error())
	}
	if out.Error != nil || status >= 300 {
		errMsg := fmt.Sprintf("whatsapp api returned status %d", status)
		if out.Error != nil {
			errMsg = fmt.Sprintf("(#%d) %s", out.Error.Code, out.Error.Message)
		}
		c.log.Warn("template send rejected", "phone", msg.To, "template", msg.TemplateName, "error", errMsg)
		return failed(errMsg)
	}
	if len(out.Messages) == 0 {
		return failed("whatsapp api returned no message id")
	}
	c.log.Debug("template sent", "phone", msg.To, "template", msg.TemplateName, "message_id", out.Messages[0].ID)
	return Result{Success: true, MessageID: out.Messages[0].ID}
}

// Approval is the provider-side review state of a template.
type Approval struct {
	Status         domain.ApprovalStatus
	RejectedReason string
	CheckedAt      time.Time
}

type waTemplateList struct {
	waError
	Data []struct {
		Name           string `json:"name"`
		Language       string `json:"language"`
		Status         string `json:"status"`
		RejectedReason string `json:"rejected_reason"`
	} `json:"data"`
}

// FetchApproval looks up a template's review status on the business account.
// A template the provider does not know is reported as not submitted.
func (c *WhatsAppClient) FetchApproval(ctx context.Context, name, language string) (Approval, error) {
	q := url.Values{}
	q.Set("name", name)
	q.Set("fields", "name,language,status,rejected_reason")
	endpoint := fmt.Sprintf("%s/%s/%s/message_templates?%s", c.baseURL, c.version, c.accountID, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Approval{}, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	var out waTemplateList
	status, err := c.do(req, &out)
	if err != nil {
		return Approval{}, err
	}
	if out.Error != nil {
		return Approval{}, fmt.Errorf("(#%d) %s", out.Error.Code, out.Error.Message)
	}
	if status >= 300 {
		return Approval{}, fmt.Errorf("whatsapp api returned status %d", status)
	}

	a := Approval{Status: domain.ApprovalNotSubmitted, CheckedAt: time.Now().UTC()}
	match := -1
	for i, t := range out.Data {
		if t.Name != name {
			continue
		}
		if match < 0 || t.Language == language {
			match = i
		}
	}
	if match >= 0 {
		t := out.Data[match]
		a.Status = mapApproval(t.Status)
		if a.Status == domain.ApprovalRejected {
			a.RejectedReason = t.RejectedReason
		}
	}
	return a, nil
}

func mapApproval(s string) domain.ApprovalStatus {
	switch strings.ToUpper(s) {
	case "APPROVED":
		return domain.ApprovalApproved
	case "REJECTED":
		return domain.ApprovalRejected
	case "PAUSED", "DISABLED":
		return domain.ApprovalPaused
	default:
		return domain.ApprovalPending
	}
}

func (c *WhatsAppClient) do(req *http.Request, out any) (int, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("whatsapp request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("reading whatsapp response: %w", err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil && resp.StatusCode < 300 {
			return resp.StatusCode, fmt.Errorf("decoding whatsapp response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
