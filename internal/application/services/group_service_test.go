package services

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/taskmate/server/internal/domain/entities"
	"github.com/taskmate/server/internal/infrastructure/logger"
	"github.com/taskmate/server/internal/ports"
)

var inviteCodePattern = regexp.MustCompile(`^[0-9A-F]{8}$`)

func TestCreateGroup(t *testing.T) {
	now := time.Date(2026, time.January, 7, 12, 0, 0, 0, time.UTC) // Wednesday
	groupRepo := newFakeGroupRepo()
	svc := NewGroupService(groupRepo, &fakeClock{now: now}, logger.NewNop())

	admin := uuid.New()
	group, err := svc.CreateGroup(context.Background(), admin, ports.CreateGroupRequest{
		Name:           "Study buddies",
		ResetFrequency: entities.ResetWeekly,
	})
	if err != nil {
		t.Fatalf("CreateGroup returned error: %v", err)
	}

	if !inviteCodePattern.MatchString(group.InviteCode) {
		t.Errorf("invite code %q is not 8 uppercase hex characters", group.InviteCode)
	}
	if group.AdminID != admin {
		t.Errorf("admin_id = %s, want creator", group.AdminID)
	}
	if group.CoinMultiplier != 1 {
		t.Errorf("coin_multiplier = %d, want 1", group.CoinMultiplier)
	}

	wantNext := time.Date(2026, time.January, 11, 0, 0, 0, 0, time.UTC)
	if group.NextResetDate == nil || !group.NextResetDate.Equal(wantNext) {
		t.Errorf("next_reset_date = %v, want %s", group.NextResetDate, wantNext)
	}

	isMember, _ := groupRepo.IsMember(context.Background(), group.ID, admin)
	if !isMember {
		t.Error("creator was not added as a member")
	}
}

func TestCreateGroupDefaultsToWeekly(t *testing.T) {
	now := time.Date(2026, time.January, 7, 12, 0, 0, 0, time.UTC)
	svc := NewGroupService(newFakeGroupRepo(), &fakeClock{now: now}, logger.NewNop())

	group, err := svc.CreateGroup(context.Background(), uuid.New(), ports.CreateGroupRequest{Name: "defaults"})
	if err != nil {
		t.Fatalf("CreateGroup returned error: %v", err)
	}
	if group.ResetFrequency != entities.ResetWeekly {
		t.Errorf("frequency = %s, want weekly default", group.ResetFrequency)
	}
}

func TestJoinGroup(t *testing.T) {
	now := time.Date(2026, time.January, 7, 12, 0, 0, 0, time.UTC)
	groupRepo := newFakeGroupRepo()
	svc := NewGroupService(groupRepo, &fakeClock{now: now}, logger.NewNop())

	admin := &entities.User{ID: uuid.New()}
	group := &entities.Group{Name: "study", InviteCode: "A1B2C3D4", AdminID: admin.ID}
	groupRepo.add(group, admin)

	joiner := uuid.New()

	t.Run("case-insensitive code", func(t *testing.T) {
		joined, err := svc.JoinGroup(context.Background(), joiner, ports.JoinGroupRequest{InviteCode: "a1b2c3d4"})
		if err != nil {
			t.Fatalf("JoinGroup returned error: %v", err)
		}
		if joined.ID != group.ID {
			t.Errorf("joined group %s, want %s", joined.ID, group.ID)
		}
	})

	t.Run("duplicate join rejected", func(t *testing.T) {
		_, err := svc.JoinGroup(context.Background(), joiner, ports.JoinGroupRequest{InviteCode: "A1B2C3D4"})
		if !errors.Is(err, entities.ErrAlreadyMember) {
			t.Fatalf("expected ErrAlreadyMember, got %v", err)
		}
	})

	t.Run("unknown code rejected", func(t *testing.T) {
		_, err := svc.JoinGroup(context.Background(), uuid.New(), ports.JoinGroupRequest{InviteCode: "FFFFFFFF"})
		if !errors.Is(err, entities.ErrInvalidInviteCode) {
			t.Fatalf("expected ErrInvalidInviteCode, got %v", err)
		}
	})
}

func TestUpdateSettingsAdminOnly(t *testing.T) {
	now := time.Date(2026, time.January, 7, 12, 0, 0, 0, time.UTC)
	groupRepo := newFakeGroupRepo()
	svc := NewGroupService(groupRepo, &fakeClock{now: now}, logger.NewNop())

	admin := &entities.User{ID: uuid.New()}
	member := &entities.User{ID: uuid.New()}
	group := &entities.Group{Name: "study", AdminID: admin.ID, ResetFrequency: entities.ResetWeekly, CoinMultiplier: 1}
	groupRepo.add(group, admin, member)

	req := ports.UpdateGroupSettingsRequest{ResetFrequency: entities.ResetMonthly, CoinMultiplier: 2}

	if _, err := svc.UpdateSettings(context.Background(), member.ID, group.ID, req); !errors.Is(err, entities.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for non-admin, got %v", err)
	}

	updated, err := svc.UpdateSettings(context.Background(), admin.ID, group.ID, req)
	if err != nil {
		t.Fatalf("UpdateSettings returned error: %v", err)
	}

	if updated.ResetFrequency != entities.ResetMonthly || updated.CoinMultiplier != 2 {
		t.Errorf("settings = %s/%d, want monthly/2", updated.ResetFrequency, updated.CoinMultiplier)
	}

	// Boundary recomputed under the new cadence: 1st of next month.
	wantNext := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	if updated.NextResetDate == nil || !updated.NextResetDate.Equal(wantNext) {
		t.Errorf("next_reset_date = %v, want %s", updated.NextResetDate, wantNext)
	}
}

func TestGetGroupMembersOnly(t *testing.T) {
	now := time.Date(2026, time.January, 7, 12, 0, 0, 0, time.UTC)
	groupRepo := newFakeGroupRepo()
	svc := NewGroupService(groupRepo, &fakeClock{now: now}, logger.NewNop())

	member := &entities.User{ID: uuid.New()}
	group := &entities.Group{Name: "study", AdminID: member.ID}
	groupRepo.add(group, member)

	if _, err := svc.GetGroup(context.Background(), uuid.New(), group.ID); !errors.Is(err, entities.ErrNotGroupMember) {
		t.Fatalf("expected ErrNotGroupMember, got %v", err)
	}

	got, err := svc.GetGroup(context.Background(), member.ID, group.ID)
	if err != nil {
		t.Fatalf("GetGroup returned error: %v", err)
	}
	if got.ID != group.ID {
		t.Errorf("got group %s, want %s", got.ID, group.ID)
	}
}
