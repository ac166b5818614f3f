package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"earn-service/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a private in-memory database. A single connection keeps
// every query on the same in-memory instance.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, models.AutoMigrate(db))
	return db
}

// inlineRunner runs jobs synchronously so tests can assert on their effects.
type inlineRunner struct{}

func (inlineRunner) Run(_ string, task func(ctx context.Context)) {
	task(context.Background())
}

type stubPrices struct {
	price decimal.Decimal
	err   error
	calls int
	// onLookup runs while the price request is in flight.
	onLookup func()
}

func (s *stubPrices) HistoricalUSDPrice(context.Context, string, time.Time) (decimal.Decimal, error) {
	s.calls++
	if s.onLookup != nil {
		s.onLookup()
	}
	return s.price, s.err
}

type recordingWebhook struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (w *recordingWebhook) Send(_ context.Context, content string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.messages = append(w.messages, content)
	return w.err
}

type recordingSyncer struct {
	records []AnnouncementRecord
}

func (s *recordingSyncer) SyncAnnouncement(_ context.Context, rec AnnouncementRecord) error {
	s.records = append(s.records, rec)
	return nil
}

type panickingSyncer struct{}

func (panickingSyncer) SyncAnnouncement(context.Context, AnnouncementRecord) error {
	panic("sync exploded")
}

type memoryStore struct {
	objects map[string][]byte
}

func (m *memoryStore) Put(_ context.Context, key string, body []byte, _ string) (string, error) {
	if m.objects == nil {
		m.objects = map[string][]byte{}
	}
	m.objects[key] = body
	return "https://cdn.test/" + key, nil
}

var errWebhookDown = errors.New("webhook returned 500")

// fixture is a published listing owned by sponsor "sp1" with sponsor member "owner".
type fixture struct {
	db      *gorm.DB
	listing models.Listing
	owner   models.User
}

func strPtr(s string) *string { return &s }

func newFixture(t *testing.T, rewards models.RewardMap, maxBonusSpots int) *fixture {
	t.Helper()
	db := newTestDB(t)

	require.NoError(t, db.Create(&models.Sponsor{ID: "sp1", Name: "Acme", Slug: "acme"}).Error)
	owner := models.User{ID: "owner", Username: "acme-admin", Email: "admin@acme.test", CurrentSponsorID: strPtr("sp1"), Role: models.UserRoleUser}
	outsider := models.User{ID: "outsider", Username: "mallory", Email: "mallory@test", CurrentSponsorID: strPtr("sp2"), Role: models.UserRoleUser}
	require.NoError(t, db.Create(&owner).Error)
	require.NoError(t, db.Create(&outsider).Error)

	sch, err := ScheduleFromRewards(rewards, maxBonusSpots)
	require.NoError(t, err)
	publishedAt := time.Now().Add(-72 * time.Hour).UTC()
	listing := models.Listing{
		ID:            "listing-1",
		Slug:          "build-a-dashboard",
		Title:         "Build a Dashboard",
		Type:          models.ListingTypeBounty,
		SponsorID:     "sp1",
		PocID:         owner.ID,
		Rewards:       datatypes.NewJSONType(rewards),
		MaxBonusSpots: maxBonusSpots,
		RewardAmount:  sch.TotalAmount(),
		UsdValue:      sch.TotalAmount(),
		Token:         "USDC",
		IsPublished:   true,
		PublishedAt:   &publishedAt,
		IsActive:      true,
		Status:        models.ListingStatusOpen,
	}
	require.NoError(t, db.Create(&listing).Error)

	return &fixture{db: db, listing: listing, owner: owner}
}

// addSubmission creates a talent and their submission. pos nil means not a winner.
func (f *fixture) addSubmission(t *testing.T, username string, pos *int, kyc bool) models.Submission {
	t.Helper()
	user := models.User{
		ID:            "user-" + username,
		Username:      username,
		Email:         username + "@talent.test",
		Role:          models.UserRoleUser,
		IsKYCVerified: kyc,
		WalletAddress: "wallet-" + username,
	}
	require.NoError(t, f.db.Create(&user).Error)

	sub := models.Submission{
		ID:             "sub-" + username,
		ListingID:      f.listing.ID,
		UserID:         user.ID,
		Link:           "https://example.com/" + username,
		IsWinner:       pos != nil,
		WinnerPosition: pos,
		Status:         models.SubmissionStatusPending,
		Label:          models.LabelUnreviewed,
		IsActive:       true,
	}
	require.NoError(t, f.db.Create(&sub).Error)
	return sub
}

func intPtr(i int) *int { return &i }

func nopLogger() *zap.Logger { return zap.NewNop() }
