// workers/user_sync_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"earn-service/models"
	"earn-service/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const profilesEndpoint = "/api/v1/public/profiles"

// RemoteProfile matches one entry of the profile service response.
type RemoteProfile struct {
	ID                string    `json:"id"`
	Username          string    `json:"username"`
	Email             string    `json:"email"`
	FirstName         *string   `json:"first_name,omitempty"`
	LastName          *string   `json:"last_name,omitempty"`
	ProfilePictureURL *string   `json:"profile_picture_url,omitempty"`
	CurrentSponsorID  *string   `json:"current_sponsor_id,omitempty"`
	Role              string    `json:"role"`
	IsKYCVerified     bool      `json:"is_kyc_verified"`
	WalletAddress     string    `json:"wallet_address"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type profileChangesResponse struct {
	Users []RemoteProfile `json:"users"`
}

// ProfileSyncWorker mirrors user profiles from the sync service into the users table.
type ProfileSyncWorker struct {
	db           *gorm.DB
	log          *zap.Logger
	baseURL      string
	serviceToken string
	httpClient   *http.Client
}

func NewProfileSyncWorker(db *gorm.DB, log *zap.Logger, syncServiceBaseURL, serviceToken string) *ProfileSyncWorker {
	return &ProfileSyncWorker{
		db:           db,
		log:          log,
		baseURL:      syncServiceBaseURL,
		serviceToken: serviceToken,
		httpClient: utils.NewHTTPClient(30 * time.Second),
	}
}

// Sync pulls every profile changed since the newest local one. It is scheduled every PROFILE_SYNC_INTERVAL.
func (w *ProfileSyncWorker) Sync(ctx context.Context) {
	since := w.lastSyncTime(ctx)
	n, err := w.syncBatch(ctx, since)
	if err != nil {
		w.log.Error("❌ [SYNC] profile sync failed", zap.Time("since", since), zap.Error(err))
		return
	}
	if n > 0 {
		w.log.Info("✅ [SYNC] profiles upserted", zap.Int("count", n))
	}
}

// lastSyncTime is the newest updated_at in users, or the epoch for a full backfill.
func (w *ProfileSyncWorker) lastSyncTime(ctx context.Context) time.Time {
	var users []models.User
	err := w.db.WithContext(ctx).Select("updated_at").Order("updated_at DESC").Limit(1).Find(&users).Error
	if err != nil || len(users) == 0 || users[0].UpdatedAt.IsZero() {
		return time.Unix(0, 0)
	}
	return users[0].UpdatedAt
}

func (w *ProfileSyncWorker) fetch(ctx context.Context, since time.Time) ([]RemoteProfile, error) {
	base, err := url.Parse(w.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid sync service URL %q: %w", w.baseURL, err)
	}
	endpoint := base.JoinPath(profilesEndpoint)
	q := endpoint.Query()
	q.Set("since", since.UTC().Format(time.RFC3339))
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Service-Token", w.serviceToken)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request to sync service failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("sync service returned status %d: %s", resp.StatusCode, string(body))
	}

	var response profileChangesResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode sync service response: %w", err)
	}
	return response.Users, nil
}

func (w *ProfileSyncWorker) syncBatch(ctx context.Context, since time.Time) (int, error) {
	remote, err := w.fetch(ctx, since)
	if err != nil {
		return 0, err
	}
	if len(remote) == 0 {
		return 0, nil
	}

	users := make([]models.User, 0, len(remote))
	for _, p := range remote {
		if p.ID == "" {
			continue
		}
		role := models.UserRoleUser
		if p.Role == string(models.UserRoleGod) {
			role = models.UserRoleGod
		}
		users = append(users, models.User{
			ID:               p.ID,
			Username:         p.Username,
			Email:            p.Email,
			FirstName:        p.FirstName,
			LastName:         p.LastName,
			PhotoURL:         p.ProfilePictureURL,
			CurrentSponsorID: p.CurrentSponsorID,
			Role:             role,
			IsKYCVerified:    p.IsKYCVerified,
			WalletAddress:    p.WalletAddress,
			CreatedAt:        p.CreatedAt,
			UpdatedAt:        p.UpdatedAt,
		})
	}
	if len(users) == 0 {
		return 0, nil
	}

	err = w.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"username", "email", "first_name", "last_name", "photo_url",
			"current_sponsor_id", "role", "is_kyc_verified", "wallet_address", "updated_at",
		}),
	}).CreateInBatches(&users, 100).Error
	if err != nil {
		// The next tick retries the same window.
		return 0, fmt.Errorf("upsert %d user(s): %w", len(users), err)
	}
	return len(users), nil
}
