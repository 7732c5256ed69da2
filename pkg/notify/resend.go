package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"time"
)

const (
	ResendURL = "https://api.resend.com/emails"

	DefaultFrom = "עוזר קולי <onboarding@resend.dev>"
)

var emailTemplate = template.Must(template.New("email").Parse(`<div dir="rtl" style="font-family: Arial, sans-serif; max-width: 600px;">
  <h2>📞 סיכום שיחה</h2>
  <p><strong>מספר מתקשר:</strong> {{.Phone}}</p>
  <p><strong>מזהה שיחה:</strong> {{.CallID}}</p>
  <p><strong>זמן:</strong> {{.Time}}</p>
  <hr>
  <h3>💬 השיחה:</h3>
  {{range .Turns}}<p><strong>{{.Label}}:</strong> {{.Text}}</p>
  {{end}}<hr>
  <p style="color: #666; font-size: 12px;">נשלח אוטומטית מ-{{.Organization}}</p>
</div>`))

type emailTurn struct {
	Label string
	Text  string
}

type emailData struct {
	Phone        string
	CallID       string
	Time         string
	Organization string
	Turns        []emailTurn
}

type resendRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// ResendConfig configures ResendSink.
type ResendConfig struct {
	APIKey       string
	To           string
	From         string
	Organization string

	// URL overrides the API endpoint.
	URL string
}

// ResendSink emails summaries through the Resend HTTP API.
type ResendSink struct {
	config     ResendConfig
	httpClient *http.Client
}

func NewResendSink(config ResendConfig) *ResendSink {
	if config.From == "" {
		config.From = DefaultFrom
	}
	if config.URL == "" {
		config.URL = ResendURL
	}
	return &ResendSink{
		config:     config,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (r *ResendSink) Name() string { return "email" }

func (r *ResendSink) Send(ctx context.Context, s Summary) error {
	html, err := r.render(s)
	if err != nil {
		return fmt.Errorf("render email: %w", err)
	}

	body, err := json.Marshal(resendRequest{
		From:    r.config.From,
		To:      r.config.To,
		Subject: fmt.Sprintf("📞 שיחה חדשה מ-%s - %s", s.Phone, r.config.Organization),
		HTML:    html,
	})
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.config.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.config.APIKey)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("resend returned %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

func (r *ResendSink) render(s Summary) (string, error) {
	data := emailData{
		Phone:        s.Phone,
		CallID:       s.CallID,
		Time:         s.EndedAt.Format("02/01/2006 15:04:05"),
		Organization: r.config.Organization,
		Turns:        make([]emailTurn, 0, len(s.Turns)),
	}
	for _, t := range s.Turns {
		data.Turns = append(data.Turns, emailTurn{Label: SpeakerLabel(t.Speaker), Text: t.Text})
	}

	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
