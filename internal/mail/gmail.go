package mail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GmailSender delivers through the Gmail API on behalf of an authorised account.
type GmailSender struct {
	svc  *gmail.Service
	from string
	now  func() time.Time
}

// NewGmailSender loads OAuth client credentials and a previously saved token.
// Interactive consent is not performed; the token file must already exist.
func NewGmailSender(ctx context.Context, credentialsFile, tokenFile, from string) (*GmailSender, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("mail: read gmail credentials: %w", err)
	}
	cfg, err := google.ConfigFromJSON(b, gmail.GmailSendScope)
	if err != nil {
		return nil, fmt.Errorf("mail: parse gmail credentials: %w", err)
	}
	tok, err := tokenFromFile(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("mail: read gmail token: %w", err)
	}
	svc, err := gmail.NewService(ctx, option.WithHTTPClient(cfg.Client(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("mail: gmail client: %w", err)
	}
	return &GmailSender{svc: svc, from: from, now: time.Now}, nil
}

func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

func (s *GmailSender) Send(ctx context.Context, msg Message) (Report, error) {
	if err := msg.Validate(); err != nil {
		return Report{}, err
	}
	raw, err := Compose(s.from, msg, s.now())
	if err != nil {
		return Report{}, err
	}
	_, err = s.svc.Users.Messages.Send("me", &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString(raw),
	}).Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code >= http.StatusBadRequest && apiErr.Code < http.StatusInternalServerError {
			return Report{Rejected: append([]string(nil), msg.To...)}, nil
		}
		return Report{}, fmt.Errorf("mail: gmail send: %w", err)
	}
	return Report{Accepted: append([]string(nil), msg.To...)}, nil
}
