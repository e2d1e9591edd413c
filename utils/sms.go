package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"
)

// SMSSender delivers a text message to a phone number. Abstracted for
// dependency injection and testing.
type SMSSender interface {
	Send(to, body string) error
}

type SMSConfig struct {
	GatewayURL string
	Token      string
	From       string
}

func GetSMSConfig() *SMSConfig {
	return &SMSConfig{
		GatewayURL: os.Getenv("SMS_GATEWAY_URL"),
		Token:      os.Getenv("SMS_GATEWAY_TOKEN"),
		From:       os.Getenv("SMS_FROM"),
	}
}

// GatewaySender posts messages to an HTTP SMS gateway.
type GatewaySender struct {
	client *http.Client
}

func NewSMSSender() SMSSender {
	return &GatewaySender{client: &http.Client{Timeout: 10 * time.Second}}
}

func (s *GatewaySender) Send(to, body string) error {
	config := GetSMSConfig()
	if config.GatewayURL == "" {
		// No gateway configured (local development): log the message so the
		// flow stays testable end to end.
		log.Printf("SMS gateway not configured, message to %s: %s", to, body)
		return nil
	}

	payload, err := json.Marshal(map[string]string{
		"to":   to,
		"from": config.From,
		"body": body,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, config.GatewayURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+config.Token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("SMS gateway returned HTTP %d", resp.StatusCode)
	}
	return nil
}

// SendOTP delivers a verification code without blocking the request path.
// Delivery failure is logged; the challenge stays valid so the user can ask
// for a new code.
func SendOTP(sender SMSSender, phone, code string) {
	go func() {
		body := fmt.Sprintf("Your BrewPass verification code is %s. It expires in 5 minutes.", code)
		if sender == nil {
			log.Printf("No SMS sender configured, message to %s: %s", phone, body)
			return
		}
		if err := sender.Send(phone, body); err != nil {
			log.Printf("Failed to send OTP to %s: %v", phone, err)
		}
	}()
}
