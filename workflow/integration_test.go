package workflow

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mmdatafocus/lostfound_backend/config"
	"github.com/mmdatafocus/lostfound_backend/models"
	"github.com/mmdatafocus/lostfound_backend/utils"
)

// These tests need a real MySQL (DB_* env vars) and are gated behind
// INTEGRATION_TESTS=1:
//
//   INTEGRATION_TESTS=1 DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... \
//     go test ./workflow -run Integration

var integrationOnce sync.Once

func requireIntegration(t *testing.T) {
	t.Helper()
	if os.Getenv("INTEGRATION_TESTS") != "1" {
		t.Skip("set INTEGRATION_TESTS=1 to run DB integration tests")
	}
	integrationOnce.Do(func() {
		config.ConnectDatabaseWithRetry()
		if err := models.MigrateTable(); err != nil {
			t.Fatalf("migrate: %v", err)
		}
	})
}

func registerTestUser(t *testing.T, name string) (*models.User, context.Context) {
	t.Helper()
	payload, err := models.RegisterUser(context.Background(), &models.RegisterInput{
		Name:     name,
		Email:    fmt.Sprintf("%s-%s@example.com", name, uuid.NewString()),
		Password: "integration-pass",
	})
	if err != nil {
		t.Fatalf("register %s: %v", name, err)
	}
	ctx := utils.SetUserIdInContext(context.Background(), payload.User.ID)
	return payload.User, ctx
}

func uniqueCategory() string {
	// A fresh category per test isolates candidate pools between runs.
	return "cat-" + uuid.NewString()[:8]
}

func TestIntegration_MatchAndVerify(t *testing.T) {
	requireIntegration(t)

	category := uniqueCategory()
	date := time.Now().UTC().Truncate(24 * time.Hour)

	_, finderCtx := registerTestUser(t, "finder")
	owner, ownerCtx := registerTestUser(t, "owner")

	found, err := models.CreateFoundItem(finderCtx, &models.NewFoundItem{
		ItemName:       "black leather wallet",
		Category:       category,
		Description:    "black leather wallet with silver clasp",
		Location:       "central library",
		DateFound:      date,
		SecretQuestion: "What is attached to the keyring?",
		SecretAnswer:   "Red Keyring",
		WhereToFind:    "Front desk, building A",
	})
	if err != nil {
		t.Fatalf("create found item: %v", err)
	}

	lost, err := models.CreateLostItem(ownerCtx, &models.NewLostItem{
		ItemName:     "black leather wallet",
		Category:     category,
		Description:  "black leather wallet with silver clasp",
		Location:     "central library",
		DateLost:     date,
		SecretDetail: "has a torn inner lining",
	})
	if err != nil {
		t.Fatalf("create lost item: %v", err)
	}

	AutoMatchLostItem(ownerCtx, lost.ID)

	matches, err := models.GetMatchesForUser(ownerCtx)
	if err != nil {
		t.Fatalf("list matches: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match for owner, got %d", len(matches))
	}
	m := matches[0]
	if m.Status != models.MatchStatusMatched {
		t.Fatalf("expected matched status, got %s", m.Status)
	}
	if m.SecretQuestion == "" {
		t.Fatal("lost-report owner must see the secret question")
	}
	if m.WhereToFind != "" {
		t.Fatal("pickup location must be withheld before verification")
	}

	// Both reports are consumed.
	gotLost, _ := models.GetLostItemById(ownerCtx, lost.ID)
	gotFound, _ := models.GetFoundItemById(ownerCtx, found.ID)
	if gotLost.Status != models.ItemStatusMatched || gotFound.Status != models.ItemStatusMatched {
		t.Fatalf("expected both reports matched, got %s/%s", gotLost.Status, gotFound.Status)
	}

	// Two wrong answers, then the correct one (normalized differently).
	for i := 0; i < 2; i++ {
		res, err := models.VerifyMatch(ownerCtx, m.ID, "wrong answer")
		if err != nil {
			t.Fatalf("wrong attempt %d: %v", i+1, err)
		}
		if res.Verified {
			t.Fatalf("wrong attempt %d reported verified", i+1)
		}
	}
	res, err := models.VerifyMatch(ownerCtx, m.ID, "  red keyring ")
	if err != nil {
		t.Fatalf("correct attempt: %v", err)
	}
	if !res.Verified {
		t.Fatalf("expected verification to succeed: %+v", res)
	}

	matches, _ = models.GetMatchesForUser(ownerCtx)
	if matches[0].Status != models.MatchStatusVerified {
		t.Fatalf("expected verified, got %s", matches[0].Status)
	}
	if matches[0].WhereToFind == "" {
		t.Fatal("pickup location must be visible after verification")
	}

	gotLost, _ = models.GetLostItemById(ownerCtx, lost.ID)
	gotFound, _ = models.GetFoundItemById(ownerCtx, found.ID)
	if gotLost.Status != models.ItemStatusClosed || gotFound.Status != models.ItemStatusClosed {
		t.Fatalf("expected both reports closed, got %s/%s", gotLost.Status, gotFound.Status)
	}

	// The owner got notified about the match and the verification.
	notifications, err := models.GetNotifications(utils.SetUserIdInContext(context.Background(), owner.ID), false)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(notifications) < 2 {
		t.Fatalf("expected match and verification notifications, got %d", len(notifications))
	}
}

func TestIntegration_ExhaustionEscalatesAndAdminResolves(t *testing.T) {
	requireIntegration(t)

	category := uniqueCategory()
	date := time.Now().UTC().Truncate(24 * time.Hour)

	_, finderCtx := registerTestUser(t, "finder")
	_, ownerCtx := registerTestUser(t, "owner")
	admin, _ := registerTestUser(t, "admin")
	if err := models.GrantAdminAccess(context.Background(), admin.Email); err != nil {
		t.Fatalf("grant admin: %v", err)
	}
	adminCtx := utils.SetIsAdminInContext(
		utils.SetUserIdInContext(context.Background(), admin.ID), true)

	if _, err := models.CreateFoundItem(finderCtx, &models.NewFoundItem{
		ItemName:       "silver house key",
		Category:       category,
		Description:    "single silver house key on a red keyring",
		Location:       "science building",
		DateFound:      date,
		SecretQuestion: "What color is the keyring?",
		SecretAnswer:   "red",
		WhereToFind:    "Security office",
	}); err != nil {
		t.Fatalf("create found item: %v", err)
	}

	lost, err := models.CreateLostItem(ownerCtx, &models.NewLostItem{
		ItemName:     "silver house key",
		Category:     category,
		Description:  "single silver house key on a red keyring",
		Location:     "science building",
		DateLost:     date,
		SecretDetail: "key is slightly bent",
	})
	if err != nil {
		t.Fatalf("create lost item: %v", err)
	}

	AutoMatchLostItem(ownerCtx, lost.ID)
	matches, err := models.GetMatchesForUser(ownerCtx)
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d (err=%v)", len(matches), err)
	}
	matchId := matches[0].ID

	for i := 0; i < models.MaxVerificationAttempts; i++ {
		if _, err := models.VerifyMatch(ownerCtx, matchId, "blue"); err != nil {
			t.Fatalf("attempt %d: %v", i+1, err)
		}
	}
	if _, err := models.VerifyMatch(ownerCtx, matchId, "red"); err == nil {
		t.Fatal("expected attempts-exhausted error after escalation")
	}

	cases, err := models.GetPendingAdminCases(adminCtx)
	if err != nil {
		t.Fatalf("list admin cases: %v", err)
	}
	var caseId int
	for _, c := range cases {
		if c.MatchId == matchId {
			caseId = c.ID
		}
	}
	if caseId == 0 {
		t.Fatal("expected a pending admin case for the escalated match")
	}

	resolved, err := models.ResolveAdminCase(adminCtx, caseId, &models.ResolveCaseInput{
		Resolution: "Owner described the bent key over the phone.",
		Verified:   true,
	})
	if err != nil {
		t.Fatalf("resolve case: %v", err)
	}
	if resolved.Status != models.CaseStatusResolved {
		t.Fatalf("expected resolved, got %s", resolved.Status)
	}

	matches, _ = models.GetMatchesForUser(ownerCtx)
	if matches[0].Status != models.MatchStatusVerified {
		t.Fatalf("admin-verified match should be verified, got %s", matches[0].Status)
	}

	// Resolving twice is rejected.
	if _, err := models.ResolveAdminCase(adminCtx, caseId, &models.ResolveCaseInput{
		Resolution: "again", Verified: false,
	}); err == nil {
		t.Fatal("expected error resolving an already-resolved case")
	}
}

func TestIntegration_DuplicateFoundReportMerges(t *testing.T) {
	requireIntegration(t)

	category := uniqueCategory()
	date := time.Now().UTC().Truncate(24 * time.Hour)

	_, firstCtx := registerTestUser(t, "first-finder")
	_, secondCtx := registerTestUser(t, "second-finder")

	first, err := SubmitFoundReport(firstCtx, &models.NewFoundItem{
		ItemName:       "blue water bottle",
		Category:       category,
		Description:    "blue steel water bottle with stickers",
		Location:       "gym entrance",
		DateFound:      date,
		TimeFound:      "14:00",
		SecretQuestion: "What brand?",
		SecretAnswer:   "hydro",
		WhereToFind:    "Gym lost and found",
	})
	if err != nil {
		t.Fatalf("first report: %v", err)
	}
	if first.Duplicate {
		t.Fatal("first report must not be flagged duplicate")
	}

	second, err := SubmitFoundReport(secondCtx, &models.NewFoundItem{
		ItemName:       "blue water bottle",
		Category:       category,
		Description:    "blue steel water bottle with stickers",
		Location:       "gym entrance",
		DateFound:      date,
		TimeFound:      "14:30",
		SecretQuestion: "What brand?",
		SecretAnswer:   "hydro",
		WhereToFind:    "Gym lost and found",
	})
	if err != nil {
		t.Fatalf("second report: %v", err)
	}
	if !second.Duplicate {
		t.Fatal("near-identical report should merge into the first")
	}
	if second.MergedInto == nil || *second.MergedInto != first.Item.ID {
		t.Fatalf("expected merge into %d, got %+v", first.Item.ID, second.MergedInto)
	}

	merged, err := models.GetFoundItemById(firstCtx, first.Item.ID)
	if err != nil {
		t.Fatalf("reload original: %v", err)
	}
	if merged.DuplicateCount != 2 {
		t.Fatalf("expected duplicate_count 2, got %d", merged.DuplicateCount)
	}
}
