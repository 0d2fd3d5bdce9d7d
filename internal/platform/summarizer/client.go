// Package summarizer calls an external text-generation service to draft a
// discharge summary. The call is best effort: a failure never blocks the
// discharge itself.
package summarizer

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

type Request struct {
	PatientName   string    `json:"patient_name"`
	UHID          string    `json:"uhid"`
	Ward          string    `json:"ward,omitempty"`
	Department    string    `json:"department,omitempty"`
	AdmissionDate time.Time `json:"admission_date"`
	DischargeDate time.Time `json:"discharge_date"`
	StayDays      int       `json:"stay_days"`
}

type response struct {
	Summary string `json:"summary"`
	Error   string `json:"error,omitempty"`
}

type Client struct {
	http *resty.Client
}

// New returns a client for the summary service, or a disabled client when no
// URL is configured.
func New(baseURL, apiKey string) *Client {
	if baseURL == "" {
		return &Client{}
	}
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if apiKey != "" {
		c.SetAuthToken(apiKey)
	}
	return &Client{http: c}
}

func (c *Client) Enabled() bool {
	return c != nil && c.http != nil
}

// DischargeSummary requests a drafted summary for a completed stay.
func (c *Client) DischargeSummary(ctx context.Context, req Request) (string, error) {
	if !c.Enabled() {
		return "", fmt.Errorf("summarizer not configured")
	}

	var out response
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post("/v1/discharge-summary")
	if err != nil {
		return "", fmt.Errorf("call summary service: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("summary service returned %s", resp.Status())
	}
	if out.Error != "" {
		return "", fmt.Errorf("summary service error: %s", out.Error)
	}

	log.Debug().
		Str("uhid", req.UHID).
		Int("stay_days", req.StayDays).
		Msg("discharge summary drafted")
	return out.Summary, nil
}
