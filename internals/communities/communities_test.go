package communities_test

import (
	"testing"

	"github.com/scrimspace/scrim-server/internals/apperr"
	"github.com/scrimspace/scrim-server/internals/communities"
	"github.com/scrimspace/scrim-server/internals/testutil"
)

func TestCreateCommunityDefaults(t *testing.T) {
	g := testutil.DB(t)
	svc := communities.New(g)

	community, err := svc.CreateCommunity(communities.CreateCommunityRequestBody{Name: "apex customs"})
	if err != nil {
		t.Fatalf("create community: %v", err)
	}
	if community.Timezone != "UTC" {
		t.Fatalf("expected UTC default, got %s", community.Timezone)
	}
	if community.MaxTeamsPerCaptain != 2 {
		t.Fatalf("expected default captain limit 2, got %d", community.MaxTeamsPerCaptain)
	}
	if community.CommunityID == "" {
		t.Fatal("expected a generated community id")
	}
}

func TestCreateCommunityValidatesTimezone(t *testing.T) {
	g := testutil.DB(t)
	svc := communities.New(g)

	if _, err := svc.CreateCommunity(communities.CreateCommunityRequestBody{Name: "x", Timezone: "Mars/Olympus"}); !apperr.IsRule(err) {
		t.Fatalf("expected rule violation, got %v", err)
	}
	if _, err := svc.CreateCommunity(communities.CreateCommunityRequestBody{Name: "x", Timezone: "Asia/Kolkata"}); err != nil {
		t.Fatalf("valid timezone rejected: %v", err)
	}
	if _, err := svc.CreateCommunity(communities.CreateCommunityRequestBody{}); !apperr.IsRule(err) {
		t.Fatalf("expected rule violation for missing name, got %v", err)
	}
}

func TestUpdateCommunity(t *testing.T) {
	g := testutil.DB(t)
	testutil.SeedCommunity(t, g, "comm1")
	svc := communities.New(g)

	midnight := 0
	community, err := svc.UpdateCommunity(communities.UpdateCommunityRequestBody{
		CommunityID:        "comm1",
		Name:               "renamed",
		Timezone:           "Asia/Kolkata",
		MaxTeamsPerCaptain: 3,
		CleanupHour:        &midnight,
	})
	if err != nil {
		t.Fatalf("update community: %v", err)
	}
	if community.Name != "renamed" || community.Timezone != "Asia/Kolkata" {
		t.Fatalf("unexpected community after update: %+v", community)
	}
	if community.MaxTeamsPerCaptain != 3 {
		t.Fatalf("expected captain limit 3, got %d", community.MaxTeamsPerCaptain)
	}
	if community.CleanupHour != 0 {
		t.Fatalf("expected cleanup hour 0, got %d", community.CleanupHour)
	}

	// Omitted fields keep their value.
	community, err = svc.UpdateCommunity(communities.UpdateCommunityRequestBody{CommunityID: "comm1"})
	if err != nil {
		t.Fatalf("empty update: %v", err)
	}
	if community.Timezone != "Asia/Kolkata" || community.CleanupHour != 0 {
		t.Fatalf("empty update changed fields: %+v", community)
	}
}

func TestUpdateCommunityValidation(t *testing.T) {
	g := testutil.DB(t)
	testutil.SeedCommunity(t, g, "comm1")
	svc := communities.New(g)

	_, err := svc.UpdateCommunity(communities.UpdateCommunityRequestBody{
		CommunityID: "comm1", Timezone: "Mars/Olympus",
	})
	if !apperr.IsRule(err) {
		t.Fatalf("expected rule violation for bad timezone, got %v", err)
	}

	badHour := 24
	_, err = svc.UpdateCommunity(communities.UpdateCommunityRequestBody{
		CommunityID: "comm1", CleanupHour: &badHour,
	})
	if !apperr.IsRule(err) {
		t.Fatalf("expected rule violation for bad cleanup hour, got %v", err)
	}

	_, err = svc.UpdateCommunity(communities.UpdateCommunityRequestBody{CommunityID: "nope"})
	if !apperr.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestBanLifecycle(t *testing.T) {
	g := testutil.DB(t)
	testutil.SeedCommunity(t, g, "comm1")
	svc := communities.New(g)

	if err := svc.BanUser("comm1", 7); err != nil {
		t.Fatalf("ban user: %v", err)
	}
	if err := svc.BanUser("comm1", 7); !apperr.IsRule(err) {
		t.Fatalf("expected rule violation on double ban, got %v", err)
	}

	banned, err := svc.IsBanned("comm1", 7)
	if err != nil {
		t.Fatalf("is banned: %v", err)
	}
	if !banned {
		t.Fatal("expected user to be banned")
	}

	any, err := svc.AnyBanned("comm1", []int{5, 6, 7})
	if err != nil {
		t.Fatalf("any banned: %v", err)
	}
	if !any {
		t.Fatal("expected overlap with banned user")
	}
	any, err = svc.AnyBanned("comm1", []int{5, 6})
	if err != nil {
		t.Fatalf("any banned: %v", err)
	}
	if any {
		t.Fatal("expected no overlap")
	}

	if err := svc.UnbanUser("comm1", 7); err != nil {
		t.Fatalf("unban user: %v", err)
	}
	if err := svc.UnbanUser("comm1", 7); !apperr.IsRule(err) {
		t.Fatalf("expected rule violation on double unban, got %v", err)
	}
	banned, _ = svc.IsBanned("comm1", 7)
	if banned {
		t.Fatal("expected user to be unbanned")
	}
}

func TestBanUserUnknownCommunity(t *testing.T) {
	g := testutil.DB(t)
	if err := communities.New(g).BanUser("nope", 7); !apperr.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}
