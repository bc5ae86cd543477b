package model

import (
	"encoding/json"
	"fmt"
)

// IntegrationType identifies an outbound lead integration.
type IntegrationType string

const (
	IntegrationGoogleSheets IntegrationType = "google_sheets"
	IntegrationN8N          IntegrationType = "n8n"
	IntegrationMetaAds      IntegrationType = "meta_ads"
)

// Credentials is implemented by each integration's credential schema.
type Credentials interface {
	integrationType() IntegrationType
}

// GoogleSheetsCredentials appends leads to a spreadsheet.
type GoogleSheetsCredentials struct {
	SpreadsheetID     string `json:"spreadsheet_id"`
	ServiceAccountKey string `json:"service_account_key"`
}

// N8NCredentials posts leads to an n8n webhook.
type N8NCredentials struct {
	WebhookURL string `json:"webhook_url"`
	AuthHeader string `json:"auth_header,omitempty"`
}

// MetaAdsCredentials reports conversions to the Meta pixel.
type MetaAdsCredentials struct {
	PixelID     string `json:"pixel_id"`
	AccessToken string `json:"access_token"`
}

func (GoogleSheetsCredentials) integrationType() IntegrationType { return IntegrationGoogleSheets }
func (N8NCredentials) integrationType() IntegrationType          { return IntegrationN8N }
func (MetaAdsCredentials) integrationType() IntegrationType      { return IntegrationMetaAds }

// Integration is a configured lead destination. Credentials is a tagged
// union keyed by Type; unmarshaling rejects unknown types.
type Integration struct {
	Type        IntegrationType `json:"type"`
	Name        string          `json:"name"`
	Active      bool            `json:"active"`
	Credentials Credentials     `json:"credentials"`
}

type integrationEnvelope struct {
	Type        IntegrationType `json:"type"`
	Name        string          `json:"name"`
	Active      bool            `json:"active"`
	Credentials json.RawMessage `json:"credentials"`
}

// UnmarshalJSON decodes the credential variant selected by the type tag.
func (i *Integration) UnmarshalJSON(data []byte) error {
	var env integrationEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}

	var creds Credentials
	switch env.Type {
	case IntegrationGoogleSheets:
		var c GoogleSheetsCredentials
		if err := json.Unmarshal(env.Credentials, &c); err != nil {
			return fmt.Errorf("decode google_sheets credentials: %w", err)
		}
		creds = c
	case IntegrationN8N:
		var c N8NCredentials
		if err := json.Unmarshal(env.Credentials, &c); err != nil {
			return fmt.Errorf("decode n8n credentials: %w", err)
		}
		creds = c
	case IntegrationMetaAds:
		var c MetaAdsCredentials
		if err := json.Unmarshal(env.Credentials, &c); err != nil {
			return fmt.Errorf("decode meta_ads credentials: %w", err)
		}
		creds = c
	default:
		return fmt.Errorf("unknown integration type: %q", env.Type)
	}

	i.Type = env.Type
	i.Name = env.Name
	i.Active = env.Active
	i.Credentials = creds
	return nil
}

// N8N returns the integration's n8n credentials, or false when the
// integration is of another type.
func (i Integration) N8N() (N8NCredentials, bool) {
	c, ok := i.Credentials.(N8NCredentials)
	return c, ok
}
