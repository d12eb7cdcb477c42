package sender

import (
	"context"
	"net/mail"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/streetbite/vendorhub/internal/pkg/logger"
)

// SESAPI is the subset of the SES v2 client used here.
type SESAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESSender sends email through Amazon SES.
type SESSender struct {
	client SESAPI
	from   mail.Address
	log    *logger.Logger
}

// NewSESSender creates an SES sender.
func NewSESSender(client SESAPI, fromName, fromAddress string) *SESSender {
	return &SESSender{
		client: client,
		from:   mail.Address{Name: fromName, Address: fromAddress},
		log:    logger.With("ses"),
	}
}

// SendEmail sends one HTML email.
func (s *SESSender) SendEmail(ctx context.Context, e Email) Result {
	to := mail.Address{Name: e.ToName, Address: e.To}
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.from.String()),
		Destination:      &types.Destination{ToAddresses: []string{to.String()}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(e.Subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(e.HTML), Charset: aws.String("UTF-8")},
				},
			},
		},
	}
	if e.Text != "" {
		input.Content.Simple.Body.Text = &types.Content{Data: aws.String(e.Text), Charset: aws.String("UTF-8")}
	}

	out, err := s.client.SendEmail(ctx, input)
	if err != nil {
		s.log.Warn("ses send failed", "email", e.To, "error", err)
		return failed(err.Error())
	}
	return Result{Success: true, MessageID: aws.ToString(out.MessageId)}
}
