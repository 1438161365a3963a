package services

import (
	"fmt"

	"invoicer/config"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// SMSSender отправляет SMS
type SMSSender interface {
	SendSMS(to, body string) error
}

// SMSService отправляет SMS через Twilio
type SMSService struct {
	client *twilio.RestClient
	from   string
}

// NewSMSService возвращает nil, если Twilio не настроен
func NewSMSService(cfg *config.Config) *SMSService {
	if cfg.Twilio.AccountSID == "" || cfg.Twilio.AuthToken == "" || cfg.Twilio.From == "" {
		return nil
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.Twilio.AccountSID,
		Password: cfg.Twilio.AuthToken,
	})
	return &SMSService{client: client, from: cfg.Twilio.From}
}

func (s *SMSService) SendSMS(to, body string) error {
	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(body)

	if _, err := s.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("failed to send sms: %w", err)
	}
	return nil
}
