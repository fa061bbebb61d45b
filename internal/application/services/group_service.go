package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/taskmate/server/internal/domain/entities"
	"github.com/taskmate/server/internal/infrastructure/logger"
	"github.com/taskmate/server/internal/ports"
)

// GroupService handles group membership and settings
type GroupService struct {
	groupRepo ports.GroupRepository
	clock     Clock
	logger    *logger.Logger
}

// NewGroupService creates a new group service
func NewGroupService(groupRepo ports.GroupRepository, clock Clock, logger *logger.Logger) *GroupService {
	return &GroupService{
		groupRepo: groupRepo,
		clock:     clock,
		logger:    logger,
	}
}

// CreateGroup creates a group with a fresh invite code and makes the creator
// its admin and first member. The first reset boundary is computed up front so
// the reset sweep does not have to initialize it.
func (s *GroupService) CreateGroup(ctx context.Context, adminID uuid.UUID, req ports.CreateGroupRequest) (*entities.Group, error) {
	frequency := req.ResetFrequency
	if frequency == "" {
		frequency = entities.ResetWeekly
	}
	if !frequency.IsValid() {
		return nil, entities.ErrUnknownResetCadence
	}

	code, err := generateInviteCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate invite code: %w", err)
	}

	now := s.clock.Now()
	next, err := entities.NextResetDate(frequency, now)
	if err != nil {
		return nil, err
	}

	group := &entities.Group{
		Name:           req.Name,
		Description:    req.Description,
		AdminID:        adminID,
		InviteCode:     code,
		ResetFrequency: frequency,
		CoinMultiplier: 1,
		NextResetDate:  &next,
	}

	if err := s.groupRepo.Create(ctx, group); err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}

	if err := s.groupRepo.AddMember(ctx, group.ID, adminID); err != nil {
		return nil, fmt.Errorf("failed to add admin as member: %w", err)
	}

	s.logger.Info("Group created", "group_id", group.ID, "admin_id", adminID, "frequency", frequency)

	return group, nil
}

// GetGroup retrieves a group; members only
func (s *GroupService) GetGroup(ctx context.Context, userID, groupID uuid.UUID) (*entities.Group, error) {
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("group not found: %w", err)
	}

	isMember, err := s.groupRepo.IsMember(ctx, groupID, userID)
	if err != nil {
		return nil, fmt.Errorf("check membership: %w", err)
	}
	if !isMember {
		return nil, entities.ErrNotGroupMember
	}

	return group, nil
}

// ListMembers returns the group's members in join order; members only
func (s *GroupService) ListMembers(ctx context.Context, userID, groupID uuid.UUID) ([]*entities.User, error) {
	isMember, err := s.groupRepo.IsMember(ctx, groupID, userID)
	if err != nil {
		return nil, fmt.Errorf("check membership: %w", err)
	}
	if !isMember {
		return nil, entities.ErrNotGroupMember
	}

	members, err := s.groupRepo.ListMembers(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	return members, nil
}

// JoinGroup adds the user to the group matching the invite code. Codes are
// matched case-insensitively.
func (s *GroupService) JoinGroup(ctx context.Context, userID uuid.UUID, req ports.JoinGroupRequest) (*entities.Group, error) {
	code := strings.ToUpper(strings.TrimSpace(req.InviteCode))
	if code == "" {
		return nil, entities.ErrInvalidInviteCode
	}

	group, err := s.groupRepo.GetByInviteCode(ctx, code)
	if err != nil {
		return nil, entities.ErrInvalidInviteCode
	}

	if err := s.groupRepo.AddMember(ctx, group.ID, userID); err != nil {
		return nil, err
	}

	s.logger.Info("User joined group", "group_id", group.ID, "user_id", userID)

	return group, nil
}

// UpdateSettings changes the reset cadence and coin multiplier; admin only.
// The next reset boundary is recomputed from now under the new cadence.
func (s *GroupService) UpdateSettings(ctx context.Context, userID, groupID uuid.UUID, req ports.UpdateGroupSettingsRequest) (*entities.Group, error) {
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("group not found: %w", err)
	}

	if !group.IsAdmin(userID) {
		return nil, entities.ErrUnauthorized
	}

	if !req.ResetFrequency.IsValid() {
		return nil, entities.ErrUnknownResetCadence
	}

	if err := s.groupRepo.UpdateSettings(ctx, groupID, req.ResetFrequency, req.CoinMultiplier); err != nil {
		return nil, fmt.Errorf("failed to update settings: %w", err)
	}

	next, err := entities.NextResetDate(req.ResetFrequency, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := s.groupRepo.SetNextResetDate(ctx, groupID, next); err != nil {
		return nil, fmt.Errorf("failed to update reset boundary: %w", err)
	}

	group.ResetFrequency = req.ResetFrequency
	group.CoinMultiplier = req.CoinMultiplier
	group.NextResetDate = &next

	s.logger.Info("Group settings updated",
		"group_id", groupID,
		"frequency", req.ResetFrequency,
		"multiplier", req.CoinMultiplier,
	)

	return group, nil
}

// generateInviteCode returns an 8-character uppercase hex code.
func generateInviteCode() (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(buf)), nil
}
