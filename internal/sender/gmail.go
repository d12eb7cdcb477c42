package sender

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/mail"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/streetbite/vendorhub/internal/config"
	"github.com/streetbite/vendorhub/internal/pkg/httpretry"
	"github.com/streetbite/vendorhub/internal/pkg/logger"
)

// GmailSender sends through the Gmail API as the configured sender. An
// access token is minted from the refresh token on every call and is not
// kept beyond it.
type GmailSender struct {
	oauth        *oauth2.Config
	refreshToken string
	baseURL      string
	from         mail.Address
	httpClient   *http.Client
	http         httpretry.HTTPDoer
	log          *logger.Logger
}

// NewGmailSender creates a Gmail sender from config.
func NewGmailSender(cfg config.EmailConfig) *GmailSender {
	httpClient := &http.Client{Timeout: cfg.Timeout()}
	return &GmailSender{
		oauth: &oauth2.Config{
			ClientID:     cfg.GmailClientID,
			ClientSecret: cfg.GmailClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{"https://www.googleapis.com/auth/gmail.send"},
		},
		refreshToken: cfg.GmailRefreshToken,
		baseURL:      strings.TrimRight(cfg.GmailAPIBaseURL, "/"),
		from:         mail.Address{Name: cfg.FromName, Address: cfg.Sender},
		httpClient:   httpClient,
		http:         httpretry.NewRetryClient(httpClient, 2),
		log:          logger.With("gmail"),
	}
}

// WithTokenURL points token refresh at another endpoint; used by tests.
func (g *GmailSender) WithTokenURL(u string) *GmailSender {
	g.oauth.Endpoint = oauth2.Endpoint{TokenURL: u, AuthStyle: oauth2.AuthStyleInParams}
	return g
}

// WithHTTPClient swaps the transport for both token refresh and sends.
func (g *GmailSender) WithHTTPClient(c *http.Client) *GmailSender {
	g.httpClient = c
	g.http = c
	return g
}

func (g *GmailSender) accessToken(ctx context.Context) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, g.httpClient)
	tok, err := g.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: g.refreshToken}).Token()
	if err != nil {
		return "", fmt.Errorf("refreshing gmail access token: %w", err)
	}
	return tok.AccessToken, nil
}

type gmailSendResponse struct {
	ID    string `json:"id"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// SendEmail sends one HTML email.
func (g *GmailSender) SendEmail(ctx context.Context, e Email) Result {
	token, err := g.accessToken(ctx)
	if err != nil {
		g.log.Error("gmail token refresh failed", "error", err)
		return failed(err.Error())
	}

	raw := base64.URLEncoding.EncodeToString(buildMIME(g.from, e))
	body, _ := json.Marshal(map[string]string{"raw": raw})
	endpoint := g.baseURL + "/gmail/v1/users/me/messages/send"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return failed(fmt.Sprintf("building request: %v", err))
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.http.Do(req)
	if err != nil {
		g.log.Warn("gmail send failed", "email", e.To, "error", err)
		return failed(fmt.Sprintf("gmail request failed: %v", err))
	}
	defer resp.Body.Close()

	var out gmailSendResponse
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	_ = json.Unmarshal(data, &out)
	if resp.StatusCode >= 300 || out.Error != nil {
		msg := fmt.Sprintf("gmail api returned status %d", resp.StatusCode)
		if out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		g.log.Warn("gmail send rejected", "email", e.To, "status", resp.StatusCode, "error", msg)
		return failed(msg)
	}
	g.log.Debug("email sent", "email", e.To, "message_id", out.ID)
	return Result{Success: true, MessageID: out.ID}
}

func buildMIME(from mail.Address, e Email) []byte {
	to := mail.Address{Name: e.ToName, Address: e.To}
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", from.String())
	fmt.Fprintf(&b, "To: %s\r\n", to.String())
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", e.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("Content-Transfer-Encoding: base64\r\n\r\n")
	b.WriteString(wrap76(base64.StdEncoding.EncodeToString([]byte(e.HTML))))
	return b.Bytes()
}

func wrap76(s string) string {
	var b strings.Builder
	for len(s) > 76 {
		b.WriteString(s[:76])
		b.WriteString("\r\n")
		s = s[76:]
	}
	b.WriteString(s)
	return b.String()
}
