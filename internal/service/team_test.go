package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/praxislabs/praxis/internal/domain"
	"github.com/praxislabs/praxis/internal/repository"
)

// MockTeamProfileRepository is a mock implementation of TeamProfileRepository
type MockTeamProfileRepository struct {
	mock.Mock
}

func (m *MockTeamProfileRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Profile), args.Error(1)
}

func (m *MockTeamProfileRepository) ListByOrg(ctx context.Context, orgID string) ([]*domain.Profile, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Profile), args.Error(1)
}

// MockTeamGroupRepository is a mock implementation of TeamGroupRepository
type MockTeamGroupRepository struct {
	mock.Mock
}

func (m *MockTeamGroupRepository) GetByID(ctx context.Context, id string) (*domain.Group, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Group), args.Error(1)
}

func (m *MockTeamGroupRepository) ListMemberIDs(ctx context.Context, groupID string) ([]string, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockGroupEvaluator is a mock implementation of GroupEvaluator
type MockGroupEvaluator struct {
	mock.Mock
}

func (m *MockGroupEvaluator) ComputeMembers(ctx context.Context, group *domain.Group) ([]string, error) {
	args := m.Called(ctx, group)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockProgressAggregator is a mock implementation of ProgressAggregator
type MockProgressAggregator struct {
	mock.Mock
}

func (m *MockProgressAggregator) AggregateByUsers(ctx context.Context, userIDs []string) (map[string]repository.ProgressAggregate, error) {
	args := m.Called(ctx, userIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]repository.ProgressAggregate), args.Error(1)
}

// MockConversationStatsProvider is a mock implementation of ConversationStatsProvider
type MockConversationStatsProvider struct {
	mock.Mock
}

func (m *MockConversationStatsProvider) StatsByUsers(ctx context.Context, userIDs []string) (map[string]repository.ConversationStats, error) {
	args := m.Called(ctx, userIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]repository.ConversationStats), args.Error(1)
}

// MockCreditSummer is a mock implementation of CreditSummer
type MockCreditSummer struct {
	mock.Mock
}

func (m *MockCreditSummer) SumByUsers(ctx context.Context, userIDs []string) (map[string]float64, error) {
	args := m.Called(ctx, userIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]float64), args.Error(1)
}

type teamFixture struct {
	profiles  *MockTeamProfileRepository
	groups    *MockTeamGroupRepository
	evaluator *MockGroupEvaluator
	progress  *MockProgressAggregator
	convs     *MockConversationStatsProvider
	credits   *MockCreditSummer
	svc       *TeamService
	now       time.Time
}

func newTeamFixture() *teamFixture {
	f := &teamFixture{
		profiles:  new(MockTeamProfileRepository),
		groups:    new(MockTeamGroupRepository),
		evaluator: new(MockGroupEvaluator),
		progress:  new(MockProgressAggregator),
		convs:     new(MockConversationStatsProvider),
		credits:   new(MockCreditSummer),
		now:       time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = NewTeamService(f.profiles, f.groups, f.evaluator, f.progress, f.convs, f.credits)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *teamFixture) orgOfTen() {
	profiles := make([]*domain.Profile, 0, 10)
	for i := 0; i < 10; i++ {
		profiles = append(profiles, &domain.Profile{
			ID:       fmt.Sprintf("user-%d", i),
			OrgID:    "org-1",
			FullName: fmt.Sprintf("Member %02d", i),
			Role:     domain.RoleMember,
		})
	}
	f.profiles.On("ListByOrg", mock.Anything, "org-1").Return(profiles, nil)

	// Three members were active in the last 30 days. All completions
	// live on the first two members.
	recent := f.now.Add(-10 * 24 * time.Hour)
	stale := f.now.Add(-60 * 24 * time.Hour)
	progress := map[string]repository.ProgressAggregate{
		"user-0": {TotalMinutes: 600, CompletedCourses: 4, LastActivity: recent},
		"user-1": {TotalMinutes: 90, CompletedCourses: 1, LastActivity: recent},
		"user-2": {TotalMinutes: 45, CompletedCourses: 0, LastActivity: recent},
		"user-3": {TotalMinutes: 200, CompletedCourses: 0, LastActivity: stale},
	}
	f.progress.On("AggregateByUsers", mock.Anything, mock.Anything).Return(progress, nil)
	f.convs.On("StatsByUsers", mock.Anything, mock.Anything).
		Return(map[string]repository.ConversationStats{
			"user-0": {Count: 7, LastActivity: recent},
		}, nil)
	f.credits.On("SumByUsers", mock.Anything, mock.Anything).
		Return(map[string]float64{"user-0": 40, "user-1": 10}, nil)
}

func TestTeamService_BuildContext(t *testing.T) {
	ctx := context.Background()

	t.Run("summary counts active members and averages", func(t *testing.T) {
		f := newTeamFixture()
		f.orgOfTen()

		report, err := f.svc.BuildContext(ctx, "org-1", "")

		require.NoError(t, err)
		assert.Contains(t, report, "Members: 10")
		assert.Contains(t, report, "Active (last 30 days): 3")
		// 5 completions across 10 members.
		assert.Contains(t, report, "Avg courses completed: 0.5")
		assert.Contains(t, report, "Total credits earned: 50.0")
	})

	t.Run("top performers are the top twenty percent", func(t *testing.T) {
		f := newTeamFixture()
		f.orgOfTen()

		report, err := f.svc.BuildContext(ctx, "org-1", "all")
		require.NoError(t, err)

		_, after, found := strings.Cut(report, "=== TOP PERFORMERS ===")
		require.True(t, found)
		top, _, _ := strings.Cut(after, "=== NEEDS ATTENTION ===")
		// 10 members, top 20% = 2 entries.
		assert.Equal(t, 2, strings.Count(top, "- "))
		assert.Contains(t, top, "Member 00")
		assert.Contains(t, top, "Member 01")
	})

	t.Run("flags inactive and barely-started members", func(t *testing.T) {
		f := newTeamFixture()
		f.orgOfTen()

		report, err := f.svc.BuildContext(ctx, "org-1", "")
		require.NoError(t, err)

		_, after, found := strings.Cut(report, "=== NEEDS ATTENTION ===")
		require.True(t, found)
		attention, _, _ := strings.Cut(after, "=== ROSTER ===")
		// user-3 is inactive; users 4-9 never started; user-2 has 45
		// minutes and recent activity so is not flagged.
		assert.NotContains(t, attention, "Member 02")
		assert.Contains(t, attention, "Member 03: inactive for more than 30 days")
		assert.Contains(t, attention, "Member 04: no completions and under 30 learning minutes")
	})

	t.Run("roster carries engagement labels", func(t *testing.T) {
		f := newTeamFixture()
		f.orgOfTen()

		report, err := f.svc.BuildContext(ctx, "org-1", "")
		require.NoError(t, err)

		assert.Contains(t, report, "Member 00 [Active]")
		assert.Contains(t, report, "Member 03 [Declining]")
		assert.Contains(t, report, "Member 04 [Not Started]")
	})

	t.Run("empty org yields an empty report", func(t *testing.T) {
		f := newTeamFixture()
		f.profiles.On("ListByOrg", mock.Anything, "org-1").Return([]*domain.Profile{}, nil)

		report, err := f.svc.BuildContext(ctx, "org-1", "")
		require.NoError(t, err)
		assert.Contains(t, report, "Members: 0")
		f.progress.AssertNotCalled(t, "AggregateByUsers", mock.Anything, mock.Anything)
	})

	t.Run("static group narrows to its membership", func(t *testing.T) {
		f := newTeamFixture()
		f.orgOfTen()
		f.groups.On("GetByID", mock.Anything, "grp-1").Return(&domain.Group{
			ID: "grp-1", OrgID: "org-1", IsDynamic: false,
		}, nil)
		f.groups.On("ListMemberIDs", mock.Anything, "grp-1").
			Return([]string{"user-0", "user-1"}, nil)

		report, err := f.svc.BuildContext(ctx, "org-1", "grp-1")
		require.NoError(t, err)
		assert.Contains(t, report, "Members: 2")
		f.evaluator.AssertNotCalled(t, "ComputeMembers", mock.Anything, mock.Anything)
	})

	t.Run("dynamic group membership comes from the evaluator", func(t *testing.T) {
		f := newTeamFixture()
		f.orgOfTen()
		group := &domain.Group{ID: "grp-dyn", OrgID: "org-1", IsDynamic: true, Rule: "role=member"}
		f.groups.On("GetByID", mock.Anything, "grp-dyn").Return(group, nil)
		f.evaluator.On("ComputeMembers", mock.Anything, group).
			Return([]string{"user-0", "user-1", "user-2"}, nil)

		report, err := f.svc.BuildContext(ctx, "org-1", "grp-dyn")
		require.NoError(t, err)
		assert.Contains(t, report, "Members: 3")
		f.groups.AssertNotCalled(t, "ListMemberIDs", mock.Anything, mock.Anything)
	})

	t.Run("rejects a group from another organization", func(t *testing.T) {
		f := newTeamFixture()
		f.profiles.On("ListByOrg", mock.Anything, "org-1").Return([]*domain.Profile{{ID: "user-0", OrgID: "org-1"}}, nil)
		f.groups.On("GetByID", mock.Anything, "grp-foreign").Return(&domain.Group{
			ID: "grp-foreign", OrgID: "org-2",
		}, nil)

		report, err := f.svc.BuildContext(ctx, "org-1", "grp-foreign")
		assert.Empty(t, report)
		assert.ErrorIs(t, err, domain.ErrGroupNotFound)
	})
}

func TestTeamService_BuildContextForRequester(t *testing.T) {
	ctx := context.Background()

	t.Run("denies non-admin requesters with an empty report", func(t *testing.T) {
		f := newTeamFixture()
		f.profiles.On("GetByID", mock.Anything, "user-1").Return(&domain.Profile{
			ID: "user-1", OrgID: "org-1", Role: domain.RoleMember,
		}, nil)

		report, err := f.svc.BuildContextForRequester(ctx, "org-1", "user-1", "")

		require.NoError(t, err)
		assert.Empty(t, report)
		f.profiles.AssertNotCalled(t, "ListByOrg", mock.Anything, mock.Anything)
	})

	t.Run("denies when the group belongs to another organization", func(t *testing.T) {
		f := newTeamFixture()
		f.profiles.On("GetByID", mock.Anything, "admin-1").Return(&domain.Profile{
			ID: "admin-1", OrgID: "org-1", Role: domain.RoleOrgAdmin,
		}, nil)
		f.groups.On("GetByID", mock.Anything, "grp-foreign").Return(&domain.Group{
			ID: "grp-foreign", OrgID: "org-2",
		}, nil)

		report, err := f.svc.BuildContextForRequester(ctx, "org-1", "admin-1", "grp-foreign")

		require.NoError(t, err)
		assert.Empty(t, report)
	})

	t.Run("denies an admin requesting another organization's report", func(t *testing.T) {
		f := newTeamFixture()
		f.profiles.On("GetByID", mock.Anything, "admin-1").Return(&domain.Profile{
			ID: "admin-1", OrgID: "org-victim", Role: domain.RoleOrgAdmin,
		}, nil)

		report, err := f.svc.BuildContextForRequester(ctx, "org-attacker", "admin-1", "")

		require.NoError(t, err)
		assert.Empty(t, report)
		f.profiles.AssertNotCalled(t, "ListByOrg", mock.Anything, mock.Anything)
	})

	t.Run("builds for an org admin", func(t *testing.T) {
		f := newTeamFixture()
		f.orgOfTen()
		f.profiles.On("GetByID", mock.Anything, "admin-1").Return(&domain.Profile{
			ID: "admin-1", OrgID: "org-1", Role: domain.RoleOrgAdmin,
		}, nil)

		report, err := f.svc.BuildContextForRequester(ctx, "org-1", "admin-1", "")

		require.NoError(t, err)
		assert.Contains(t, report, "Members: 10")
	})
}

func TestRuleEvaluator_ComputeMembers(t *testing.T) {
	ctx := context.Background()

	profiles := new(MockTeamProfileRepository)
	profiles.On("ListByOrg", mock.Anything, "org-1").Return([]*domain.Profile{
		{ID: "user-1", OrgID: "org-1", Role: domain.RoleMember},
		{ID: "user-2", OrgID: "org-1", Role: domain.RoleOrgAdmin},
		{ID: "user-3", OrgID: "org-1", Role: domain.RoleMember},
	}, nil)

	evaluator := NewRuleEvaluator(profiles)

	t.Run("selects profiles matching the rule", func(t *testing.T) {
		ids, err := evaluator.ComputeMembers(ctx, &domain.Group{
			OrgID: "org-1", IsDynamic: true, Rule: "role=member",
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"user-1", "user-3"}, ids)
	})

	t.Run("unknown rules yield no members", func(t *testing.T) {
		ids, err := evaluator.ComputeMembers(ctx, &domain.Group{
			OrgID: "org-1", IsDynamic: true, Rule: "whatever",
		})
		require.NoError(t, err)
		assert.Empty(t, ids)
	})
}

func TestEngagementLabel(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		m    domain.MemberStats
		want string
	}{
		{"never touched anything", domain.MemberStats{}, "Not Started"},
		{"recent and heavy", domain.MemberStats{TotalMinutes: 400, CompletedCourses: 3, LastActivity: now.Add(-2 * 24 * time.Hour)}, "Highly Engaged"},
		{"recent but light", domain.MemberStats{TotalMinutes: 50, LastActivity: now.Add(-2 * 24 * time.Hour)}, "Active"},
		{"active this month", domain.MemberStats{TotalMinutes: 500, CompletedCourses: 5, LastActivity: now.Add(-20 * 24 * time.Hour)}, "Active"},
		{"fading out", domain.MemberStats{TotalMinutes: 500, LastActivity: now.Add(-60 * 24 * time.Hour)}, "Declining"},
		{"long gone", domain.MemberStats{TotalMinutes: 500, LastActivity: now.Add(-120 * 24 * time.Hour)}, "Inactive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, engagementLabel(tt.m, now))
		})
	}
}
