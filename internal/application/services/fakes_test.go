package services

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/taskmate/server/internal/domain/entities"
	"github.com/taskmate/server/internal/ports"
)

// Hand-written in-memory fakes for the repository ports. Each fake keeps
// insertion order where the production queries guarantee an order.

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

// fakeUserRepo

type fakeUserRepo struct {
	users        map[uuid.UUID]*entities.User
	achievements map[uuid.UUID][]entities.Achievement
	addAchErr    error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:        make(map[uuid.UUID]*entities.User),
		achievements: make(map[uuid.UUID][]entities.Achievement),
	}
}

func (r *fakeUserRepo) Create(_ context.Context, user *entities.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*entities.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, entities.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*entities.User, error) {
	for _, user := range r.users {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, entities.ErrUserNotFound
}

func (r *fakeUserRepo) ListTopByLifetimeCoins(_ context.Context, limit int) ([]*entities.User, error) {
	users := make([]*entities.User, 0, len(r.users))
	for _, user := range r.users {
		users = append(users, user)
	}
	sort.SliceStable(users, func(i, j int) bool {
		if users[i].LifetimeCoins != users[j].LifetimeCoins {
			return users[i].LifetimeCoins > users[j].LifetimeCoins
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	if len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

func (r *fakeUserRepo) GetAchievements(_ context.Context, userID uuid.UUID) ([]entities.Achievement, error) {
	return r.achievements[userID], nil
}

func (r *fakeUserRepo) AddAchievement(_ context.Context, achievement *entities.Achievement) error {
	if r.addAchErr != nil {
		return r.addAchErr
	}
	for _, a := range r.achievements[achievement.UserID] {
		if a.Name == achievement.Name {
			return nil
		}
	}
	r.achievements[achievement.UserID] = append(r.achievements[achievement.UserID], *achievement)
	return nil
}

// fakeGroupRepo

type resetRecord struct {
	groupID uuid.UUID
	leader  *entities.PeriodStanding
	loser   *entities.PeriodStanding
	resetAt time.Time
	next    time.Time
}

type fakeGroupRepo struct {
	groups    map[uuid.UUID]*entities.Group
	order     []uuid.UUID
	membersOf map[uuid.UUID][]*entities.User

	boundarySets map[uuid.UUID]time.Time
	resets       []resetRecord

	listErr        error
	listMembersErr error
}

func newFakeGroupRepo() *fakeGroupRepo {
	return &fakeGroupRepo{
		groups:       make(map[uuid.UUID]*entities.Group),
		membersOf:    make(map[uuid.UUID][]*entities.User),
		boundarySets: make(map[uuid.UUID]time.Time),
	}
}

func (r *fakeGroupRepo) add(group *entities.Group, members ...*entities.User) {
	if group.ID == uuid.Nil {
		group.ID = uuid.New()
	}
	r.groups[group.ID] = group
	r.order = append(r.order, group.ID)
	r.membersOf[group.ID] = members
}

func (r *fakeGroupRepo) Create(_ context.Context, group *entities.Group) error {
	r.add(group)
	return nil
}

func (r *fakeGroupRepo) GetByID(_ context.Context, id uuid.UUID) (*entities.Group, error) {
	group, ok := r.groups[id]
	if !ok {
		return nil, entities.ErrGroupNotFound
	}
	return group, nil
}

func (r *fakeGroupRepo) GetByInviteCode(_ context.Context, code string) (*entities.Group, error) {
	for _, group := range r.groups {
		if group.InviteCode == code {
			return group, nil
		}
	}
	return nil, entities.ErrGroupNotFound
}

func (r *fakeGroupRepo) ListAll(_ context.Context) ([]*entities.Group, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	groups := make([]*entities.Group, 0, len(r.order))
	for _, id := range r.order {
		groups = append(groups, r.groups[id])
	}
	return groups, nil
}

func (r *fakeGroupRepo) UpdateSettings(_ context.Context, id uuid.UUID, frequency entities.ResetFrequency, coinMultiplier int) error {
	group, ok := r.groups[id]
	if !ok {
		return entities.ErrGroupNotFound
	}
	group.ResetFrequency = frequency
	group.CoinMultiplier = coinMultiplier
	return nil
}

func (r *fakeGroupRepo) AddMember(_ context.Context, groupID, userID uuid.UUID) error {
	for _, member := range r.membersOf[groupID] {
		if member.ID == userID {
			return entities.ErrAlreadyMember
		}
	}
	r.membersOf[groupID] = append(r.membersOf[groupID], &entities.User{ID: userID})
	return nil
}

func (r *fakeGroupRepo) ListMembers(_ context.Context, groupID uuid.UUID) ([]*entities.User, error) {
	if r.listMembersErr != nil {
		return nil, r.listMembersErr
	}
	return r.membersOf[groupID], nil
}

func (r *fakeGroupRepo) IsMember(_ context.Context, groupID, userID uuid.UUID) (bool, error) {
	for _, member := range r.membersOf[groupID] {
		if member.ID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeGroupRepo) SetNextResetDate(_ context.Context, id uuid.UUID, next time.Time) error {
	r.boundarySets[id] = next
	if group, ok := r.groups[id]; ok {
		group.NextResetDate = &next
	}
	return nil
}

func (r *fakeGroupRepo) RecordReset(_ context.Context, id uuid.UUID, leader, loser *entities.PeriodStanding, resetAt, next time.Time) error {
	r.resets = append(r.resets, resetRecord{groupID: id, leader: leader, loser: loser, resetAt: resetAt, next: next})
	if group, ok := r.groups[id]; ok {
		group.LastResetDate = &resetAt
		group.NextResetDate = &next
		group.WeeklyLeader = leader
		group.WeeklyLoser = loser
	}
	return nil
}

// fakeTaskRepo

type windowCounts struct {
	total     int
	completed int
	coins     int
}

type fakeTaskRepo struct {
	tasks map[uuid.UUID]*entities.Task
	order []uuid.UUID

	counts map[uuid.UUID]windowCounts

	listOverdueErr error
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{
		tasks:  make(map[uuid.UUID]*entities.Task),
		counts: make(map[uuid.UUID]windowCounts),
	}
}

func (r *fakeTaskRepo) add(task *entities.Task) *entities.Task {
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	r.tasks[task.ID] = task
	r.order = append(r.order, task.ID)
	return task
}

func (r *fakeTaskRepo) Create(_ context.Context, task *entities.Task) error {
	r.add(task)
	return nil
}

func (r *fakeTaskRepo) GetByID(_ context.Context, id uuid.UUID) (*entities.Task, error) {
	task, ok := r.tasks[id]
	if !ok {
		return nil, entities.ErrTaskNotFound
	}
	copied := *task
	return &copied, nil
}

func (r *fakeTaskRepo) Update(_ context.Context, task *entities.Task) error {
	if _, ok := r.tasks[task.ID]; !ok {
		return entities.ErrTaskNotFound
	}
	copied := *task
	r.tasks[task.ID] = &copied
	return nil
}

func (r *fakeTaskRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.tasks[id]; !ok {
		return entities.ErrTaskNotFound
	}
	delete(r.tasks, id)
	return nil
}

func (r *fakeTaskRepo) List(_ context.Context, filter ports.TaskFilter) ([]*entities.Task, error) {
	var tasks []*entities.Task
	for _, id := range r.order {
		task, ok := r.tasks[id]
		if !ok {
			continue
		}
		if filter.GroupID != nil && task.GroupID != *filter.GroupID {
			continue
		}
		if filter.UserID != nil && task.UserID != *filter.UserID {
			continue
		}
		if filter.Status != nil && task.Status != *filter.Status {
			continue
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func (r *fakeTaskRepo) ListOverduePending(_ context.Context, now time.Time) ([]*entities.Task, error) {
	if r.listOverdueErr != nil {
		return nil, r.listOverdueErr
	}
	var tasks []*entities.Task
	for _, id := range r.order {
		task, ok := r.tasks[id]
		if !ok {
			continue
		}
		if task.Status == entities.TaskStatusPending && task.DueDate.Before(now) && !task.Penalized {
			copied := *task
			tasks = append(tasks, &copied)
		}
	}
	return tasks, nil
}

func (r *fakeTaskRepo) MarkCompleted(_ context.Context, task *entities.Task) (bool, error) {
	stored, ok := r.tasks[task.ID]
	if !ok {
		return false, entities.ErrTaskNotFound
	}
	if stored.Status != entities.TaskStatusPending {
		return false, nil
	}
	copied := *task
	r.tasks[task.ID] = &copied
	return true, nil
}

func (r *fakeTaskRepo) CountInWindow(_ context.Context, _, userID uuid.UUID, _, _ time.Time) (int, int, int, error) {
	c := r.counts[userID]
	return c.total, c.completed, c.coins, nil
}

// fakeLedger

type deltaRecord struct {
	userID  uuid.UUID
	groupID uuid.UUID
	delta   int
}

type zeroRecord struct {
	groupID   uuid.UUID
	memberIDs []uuid.UUID
}

type fakeLedger struct {
	balances map[uuid.UUID]map[uuid.UUID]*entities.GroupCoin // groupID -> userID
	tasks    *fakeTaskRepo                                   // penalized flags live with the tasks

	deltas []deltaRecord
	zeroed []zeroRecord

	applyErrFor map[uuid.UUID]error
	listErr     error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		balances:    make(map[uuid.UUID]map[uuid.UUID]*entities.GroupCoin),
		applyErrFor: make(map[uuid.UUID]error),
	}
}

func (l *fakeLedger) setBalance(groupID, userID uuid.UUID, weekly, lifetime int) {
	if l.balances[groupID] == nil {
		l.balances[groupID] = make(map[uuid.UUID]*entities.GroupCoin)
	}
	l.balances[groupID][userID] = &entities.GroupCoin{
		UserID:        userID,
		GroupID:       groupID,
		WeeklyCoins:   weekly,
		LifetimeCoins: lifetime,
	}
}

func (l *fakeLedger) ApplyDelta(_ context.Context, userID, groupID uuid.UUID, delta int) error {
	if err := l.applyErrFor[userID]; err != nil {
		return err
	}
	if l.balances[groupID] == nil {
		l.balances[groupID] = make(map[uuid.UUID]*entities.GroupCoin)
	}
	entry, ok := l.balances[groupID][userID]
	if !ok {
		entry = &entities.GroupCoin{UserID: userID, GroupID: groupID}
		l.balances[groupID][userID] = entry
	}
	entry.WeeklyCoins += delta
	entry.LifetimeCoins += delta
	l.deltas = append(l.deltas, deltaRecord{userID: userID, groupID: groupID, delta: delta})
	return nil
}

func (l *fakeLedger) ApplyPenalty(ctx context.Context, taskID, userID, groupID uuid.UUID, penalty int) (bool, error) {
	if err := l.applyErrFor[userID]; err != nil {
		return false, err
	}
	task, ok := l.tasks.tasks[taskID]
	if !ok {
		return false, entities.ErrTaskNotFound
	}
	if task.Penalized {
		return false, nil
	}
	task.Penalized = true
	if err := l.ApplyDelta(ctx, userID, groupID, -penalty); err != nil {
		task.Penalized = false
		return false, err
	}
	return true, nil
}

func (l *fakeLedger) GetGroupBalance(_ context.Context, userID, groupID uuid.UUID) (*entities.GroupCoin, error) {
	if entry, ok := l.balances[groupID][userID]; ok {
		copied := *entry
		return &copied, nil
	}
	return &entities.GroupCoin{UserID: userID, GroupID: groupID}, nil
}

func (l *fakeLedger) ListGroupBalances(_ context.Context, groupID uuid.UUID) ([]entities.GroupCoin, error) {
	if l.listErr != nil {
		return nil, l.listErr
	}
	var balances []entities.GroupCoin
	for _, entry := range l.balances[groupID] {
		balances = append(balances, *entry)
	}
	return balances, nil
}

func (l *fakeLedger) ZeroWeekly(_ context.Context, groupID uuid.UUID, memberIDs []uuid.UUID) error {
	l.zeroed = append(l.zeroed, zeroRecord{groupID: groupID, memberIDs: memberIDs})
	for _, userID := range memberIDs {
		if entry, ok := l.balances[groupID][userID]; ok {
			entry.WeeklyCoins = 0
		}
	}
	return nil
}

// fakePublisher

type fakePublisher struct {
	taskCompleted int
	coinsUpdated  int
	publishErr    error
}

func (p *fakePublisher) PublishTaskCompleted(_ context.Context, _ *entities.Task, _ int) error {
	p.taskCompleted++
	return p.publishErr
}

func (p *fakePublisher) PublishCoinsUpdated(_ context.Context, _ uuid.UUID, _, _ int) error {
	p.coinsUpdated++
	return p.publishErr
}
