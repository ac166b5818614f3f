package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"earn-service/utils"

	"github.com/shopspring/decimal"
)

// AnnouncementRecord is the payload pushed to the record sync service.
type AnnouncementRecord struct {
	ListingID    string          `json:"listing_id"`
	Slug         string          `json:"slug"`
	Title        string          `json:"title"`
	SponsorID    string          `json:"sponsor_id"`
	Token        string          `json:"token"`
	RewardAmount decimal.Decimal `json:"reward_amount"`
	UsdValue     decimal.Decimal `json:"usd_value"`
	AnnouncedAt  time.Time       `json:"announced_at"`
	ExportURL    string          `json:"export_url,omitempty"`
	Winners      []WinnerRecord  `json:"winners"`
}

type WinnerRecord struct {
	SubmissionID string          `json:"submission_id"`
	UserID       string          `json:"user_id"`
	Username     string          `json:"username"`
	Position     int             `json:"position"`
	RewardInUSD  decimal.Decimal `json:"reward_in_usd"`
}

// RecordSyncer forwards announcement records to the spreadsheet/airtable sync.
type RecordSyncer interface {
	SyncAnnouncement(ctx context.Context, rec AnnouncementRecord) error
}

// SyncClient calls the internal sync service with a service token.
type SyncClient struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

func NewSyncClient(baseURL, token string) *SyncClient {
	return &SyncClient{
		BaseURL: baseURL,
		Token:   token,
		HTTPClient: utils.NewHTTPClient(30 * time.Second),
	}
}

func (c *SyncClient) SyncAnnouncement(ctx context.Context, rec AnnouncementRecord) error {
	base, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid sync service URL '%s': %w", c.BaseURL, err)
	}
	endpoint := base.JoinPath("/api/v1/internal/announcements").String()

	body, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Service-Token", c.Token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call sync service: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("sync service returned status %d: %s", resp.StatusCode, string(msg))
	}
	return nil
}
