package scrims_test

import (
	"testing"
	"time"

	"github.com/scrimspace/scrim-server/internals/apperr"
	"github.com/scrimspace/scrim-server/internals/scrims"
	"github.com/scrimspace/scrim-server/internals/testutil"
)

func TestCreateScrimValidatesBounds(t *testing.T) {
	g := testutil.DB(t)
	testutil.SeedCommunity(t, g, "comm1")
	svc := scrims.New(g, nil)

	cases := []scrims.CreateScrimRequestBody{
		{CommunityID: "comm1", Name: "bad", MaxTeams: 0, MinPlayersPerTeam: 1, MaxPlayersPerTeam: 5},
		{CommunityID: "comm1", Name: "bad", MaxTeams: 16, MinPlayersPerTeam: 0, MaxPlayersPerTeam: 5},
		{CommunityID: "comm1", Name: "bad", MaxTeams: 16, MinPlayersPerTeam: 5, MaxPlayersPerTeam: 4},
		{CommunityID: "comm1", Name: "bad", MaxTeams: 16, MinPlayersPerTeam: 1, MaxPlayersPerTeam: 5, MaxSubstitutesPerTeam: -1},
	}
	for i, body := range cases {
		if _, err := svc.CreateScrim(body); !apperr.IsRule(err) {
			t.Fatalf("case %d: expected rule violation, got %v", i, err)
		}
	}
}

func TestCreateScrimUnknownCommunity(t *testing.T) {
	g := testutil.DB(t)
	svc := scrims.New(g, nil)

	_, err := svc.CreateScrim(scrims.CreateScrimRequestBody{
		CommunityID: "nope", Name: "s", MaxTeams: 16, MinPlayersPerTeam: 1, MaxPlayersPerTeam: 5,
	})
	if !apperr.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreateScrimStartsInConfiguration(t *testing.T) {
	g := testutil.DB(t)
	testutil.SeedCommunity(t, g, "comm1")
	svc := scrims.New(g, nil)

	scrim, err := svc.CreateScrim(scrims.CreateScrimRequestBody{
		CommunityID: "comm1", Name: "friday night", MaxTeams: 16, MinPlayersPerTeam: 4, MaxPlayersPerTeam: 5,
	})
	if err != nil {
		t.Fatalf("create scrim: %v", err)
	}
	if scrim.Stage != scrims.StageConfiguration {
		t.Fatalf("expected stage %s, got %s", scrims.StageConfiguration, scrim.Stage)
	}
	if scrim.ScrimID == "" {
		t.Fatal("expected a generated scrim id")
	}
}

func TestStageProgression(t *testing.T) {
	g := testutil.DB(t)
	testutil.SeedCommunity(t, g, "comm1")
	testutil.SeedScrim(t, g, &scrims.Scrim{ScrimID: "scrim1", CommunityID: "comm1"})
	svc := scrims.New(g, nil)

	if err := svc.OpenRegistration("scrim1"); err != nil {
		t.Fatalf("open registration: %v", err)
	}
	if err := svc.CloseRegistration("scrim1"); err != nil {
		t.Fatalf("close registration: %v", err)
	}
	if err := svc.EndScrim("scrim1"); err != nil {
		t.Fatalf("end scrim: %v", err)
	}

	scrim, err := svc.GetScrim("scrim1")
	if err != nil {
		t.Fatalf("get scrim: %v", err)
	}
	if scrim.Stage != scrims.StageCompleted {
		t.Fatalf("expected stage %s, got %s", scrims.StageCompleted, scrim.Stage)
	}
	if scrim.RegistrationEndedTime == nil {
		t.Fatal("expected registration_ended_time to be stamped on close")
	}
}

func TestTransitionRejectsStaleStage(t *testing.T) {
	g := testutil.DB(t)
	testutil.SeedCommunity(t, g, "comm1")
	testutil.SeedScrim(t, g, &scrims.Scrim{
		ScrimID: "scrim1", CommunityID: "comm1", Stage: scrims.StageRegistration,
	})
	svc := scrims.New(g, nil)

	if err := svc.CloseRegistration("scrim1"); err != nil {
		t.Fatalf("first close: %v", err)
	}
	// The losing side of a close race sees the same stale-stage error.
	err := svc.CloseRegistration("scrim1")
	if !apperr.IsRule(err) {
		t.Fatalf("expected rule violation on second close, got %v", err)
	}

	err = svc.EndScrim("scrim1")
	if err != nil {
		t.Fatalf("end scrim: %v", err)
	}
	if err := svc.EndScrim("scrim1"); !apperr.IsRule(err) {
		t.Fatalf("expected rule violation on second end, got %v", err)
	}
}

func TestOpenRegistrationRequiresConfiguration(t *testing.T) {
	g := testutil.DB(t)
	testutil.SeedCommunity(t, g, "comm1")
	testutil.SeedScrim(t, g, &scrims.Scrim{
		ScrimID: "scrim1", CommunityID: "comm1", Stage: scrims.StageOngoing,
	})

	err := scrims.New(g, nil).OpenRegistration("scrim1")
	if !apperr.IsRule(err) {
		t.Fatalf("expected rule violation, got %v", err)
	}
}

func TestCancelScrim(t *testing.T) {
	g := testutil.DB(t)
	testutil.SeedCommunity(t, g, "comm1")
	svc := scrims.New(g, nil)

	for _, stage := range []string{scrims.StageConfiguration, scrims.StageRegistration, scrims.StageOngoing} {
		id := "scrim-" + stage
		testutil.SeedScrim(t, g, &scrims.Scrim{ScrimID: id, CommunityID: "comm1", Stage: stage})
		if err := svc.CancelScrim(id); err != nil {
			t.Fatalf("cancel from %s: %v", stage, err)
		}
		scrim, _ := svc.GetScrim(id)
		if scrim.Stage != scrims.StageCanceled {
			t.Fatalf("expected %s, got %s", scrims.StageCanceled, scrim.Stage)
		}
	}

	testutil.SeedScrim(t, g, &scrims.Scrim{ScrimID: "done", CommunityID: "comm1", Stage: scrims.StageCompleted})
	if err := svc.CancelScrim("done"); !apperr.IsRule(err) {
		t.Fatalf("expected rule violation canceling a completed scrim, got %v", err)
	}
	if err := svc.CancelScrim("scrim-" + scrims.StageOngoing); !apperr.IsRule(err) {
		t.Fatalf("expected rule violation canceling twice, got %v", err)
	}
}

func TestUpdateScrimOnlyInConfiguration(t *testing.T) {
	g := testutil.DB(t)
	testutil.SeedCommunity(t, g, "comm1")
	testutil.SeedScrim(t, g, &scrims.Scrim{ScrimID: "scrim1", CommunityID: "comm1"})
	svc := scrims.New(g, nil)

	subs := 2
	start := time.Now().Add(time.Hour)
	updated, err := svc.UpdateScrim(scrims.UpdateScrimRequestBody{
		ScrimID:               "scrim1",
		Name:                  "renamed",
		MaxTeams:              20,
		MaxSubstitutesPerTeam: &subs,
		RegistrationStartTime: &start,
	})
	if err != nil {
		t.Fatalf("update scrim: %v", err)
	}
	if updated.Name != "renamed" || updated.MaxTeams != 20 || updated.MaxSubstitutesPerTeam != 2 {
		t.Fatalf("update not applied: %+v", updated)
	}

	if err := svc.OpenRegistration("scrim1"); err != nil {
		t.Fatalf("open registration: %v", err)
	}
	_, err = svc.UpdateScrim(scrims.UpdateScrimRequestBody{ScrimID: "scrim1", Name: "too late"})
	if !apperr.IsRule(err) {
		t.Fatalf("expected rule violation, got %v", err)
	}
}

func TestDeleteScrimOnlyInConfiguration(t *testing.T) {
	g := testutil.DB(t)
	testutil.SeedCommunity(t, g, "comm1")
	testutil.SeedScrim(t, g, &scrims.Scrim{ScrimID: "scrim1", CommunityID: "comm1"})
	svc := scrims.New(g, nil)

	if err := svc.OpenRegistration("scrim1"); err != nil {
		t.Fatalf("open registration: %v", err)
	}
	if err := svc.DeleteScrim("scrim1"); !apperr.IsRule(err) {
		t.Fatalf("expected rule violation, got %v", err)
	}

	testutil.SeedScrim(t, g, &scrims.Scrim{ScrimID: "scrim2", CommunityID: "comm1"})
	if err := svc.DeleteScrim("scrim2"); err != nil {
		t.Fatalf("delete scrim: %v", err)
	}
	if _, err := svc.GetScrim("scrim2"); !apperr.IsNotFound(err) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}
