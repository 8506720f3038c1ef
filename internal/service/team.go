package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/praxislabs/praxis/internal/domain"
	"github.com/praxislabs/praxis/internal/repository"
	"github.com/praxislabs/praxis/internal/telemetry"
)

const (
	// allMembersSentinel selects the whole organization instead of a group.
	allMembersSentinel = "all"

	activeWindow    = 30 * 24 * time.Hour
	decliningWindow = 90 * 24 * time.Hour
	engagedWindow   = 7 * 24 * time.Hour
)

// TeamProfileRepository defines the profile reads team reports need
type TeamProfileRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
	ListByOrg(ctx context.Context, orgID string) ([]*domain.Profile, error)
}

// TeamGroupRepository defines the group reads team reports need
type TeamGroupRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Group, error)
	ListMemberIDs(ctx context.Context, groupID string) ([]string, error)
}

// GroupEvaluator computes membership for dynamic groups
type GroupEvaluator interface {
	ComputeMembers(ctx context.Context, group *domain.Group) ([]string, error)
}

// ProgressAggregator provides per-user learning aggregates
type ProgressAggregator interface {
	AggregateByUsers(ctx context.Context, userIDs []string) (map[string]repository.ProgressAggregate, error)
}

// ConversationStatsProvider provides per-user conversation aggregates
type ConversationStatsProvider interface {
	StatsByUsers(ctx context.Context, userIDs []string) (map[string]repository.ConversationStats, error)
}

// CreditSummer provides per-user credit ledger totals
type CreditSummer interface {
	SumByUsers(ctx context.Context, userIDs []string) (map[string]float64, error)
}

// TeamService aggregates per-member learning metrics into a formatted
// report consumed as agent context.
type TeamService struct {
	profileRepo  TeamProfileRepository
	groupRepo    TeamGroupRepository
	evaluator    GroupEvaluator
	progressRepo ProgressAggregator
	convRepo     ConversationStatsProvider
	creditRepo   CreditSummer
	now          func() time.Time
}

// NewTeamService creates a new TeamService instance
func NewTeamService(
	profileRepo TeamProfileRepository,
	groupRepo TeamGroupRepository,
	evaluator GroupEvaluator,
	progressRepo ProgressAggregator,
	convRepo ConversationStatsProvider,
	creditRepo CreditSummer,
) *TeamService {
	return &TeamService{
		profileRepo:  profileRepo,
		groupRepo:    groupRepo,
		evaluator:    evaluator,
		progressRepo: progressRepo,
		convRepo:     convRepo,
		creditRepo:   creditRepo,
		now:          time.Now,
	}
}

// BuildContext renders the team report for an organization or one of
// its groups. groupID may be empty or "all" to cover every member.
// Access control lives in BuildContextForRequester.
func (s *TeamService) BuildContext(ctx context.Context, orgID, groupID string) (string, error) {
	ctx, span := telemetry.StartSpan(ctx, "TeamService.BuildContext", telemetry.SpanAttributes{
		OrgID:     orgID,
		Operation: "team_report",
	})
	defer span.End()

	members, err := s.resolveMembers(ctx, orgID, groupID)
	if err != nil {
		return "", err
	}
	if len(members) == 0 {
		return "=== TEAM SUMMARY ===\nMembers: 0\n", nil
	}

	ids := make([]string, 0, len(members))
	for _, p := range members {
		ids = append(ids, p.ID)
	}

	progress, err := s.progressRepo.AggregateByUsers(ctx, ids)
	if err != nil {
		return "", err
	}
	convs, err := s.convRepo.StatsByUsers(ctx, ids)
	if err != nil {
		return "", err
	}
	credits, err := s.creditRepo.SumByUsers(ctx, ids)
	if err != nil {
		return "", err
	}

	stats := make([]domain.MemberStats, 0, len(members))
	for _, p := range members {
		m := domain.MemberStats{
			UserID:        p.ID,
			FullName:      p.FullName,
			CreditsEarned: credits[p.ID],
		}
		if agg, ok := progress[p.ID]; ok {
			m.TotalMinutes = agg.TotalMinutes
			m.CompletedCourses = agg.CompletedCourses
			m.LastActivity = agg.LastActivity
		}
		if cs, ok := convs[p.ID]; ok {
			m.Conversations = cs.Count
			if cs.LastActivity.After(m.LastActivity) {
				m.LastActivity = cs.LastActivity
			}
		}
		stats = append(stats, m)
	}

	return s.renderReport(stats), nil
}

// BuildContextForRequester enforces access before building: the
// requester must belong to the caller's organization, only org or
// platform admins may read team reports, and a requested group must
// belong to that same organization. Denial returns an empty report
// with no error.
func (s *TeamService) BuildContextForRequester(ctx context.Context, orgID, requesterID, groupID string) (string, error) {
	requester, err := s.profileRepo.GetByID(ctx, requesterID)
	if err != nil || requester.OrgID != orgID || !requester.IsAdmin() {
		return "", nil
	}
	if groupID != "" && groupID != allMembersSentinel {
		group, err := s.groupRepo.GetByID(ctx, groupID)
		if err != nil || group.OrgID != requester.OrgID {
			return "", nil
		}
	}
	return s.BuildContext(ctx, requester.OrgID, groupID)
}

func (s *TeamService) resolveMembers(ctx context.Context, orgID, groupID string) ([]*domain.Profile, error) {
	orgProfiles, err := s.profileRepo.ListByOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if groupID == "" || groupID == allMembersSentinel {
		return orgProfiles, nil
	}

	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.OrgID != orgID {
		return nil, domain.ErrGroupNotFound
	}

	var memberIDs []string
	if group.IsDynamic {
		memberIDs, err = s.evaluator.ComputeMembers(ctx, group)
	} else {
		memberIDs, err = s.groupRepo.ListMemberIDs(ctx, groupID)
	}
	if err != nil {
		return nil, err
	}

	inGroup := make(map[string]bool, len(memberIDs))
	for _, id := range memberIDs {
		inGroup[id] = true
	}
	members := make([]*domain.Profile, 0, len(memberIDs))
	for _, p := range orgProfiles {
		if inGroup[p.ID] {
			members = append(members, p)
		}
	}
	return members, nil
}

func (s *TeamService) renderReport(stats []domain.MemberStats) string {
	now := s.now()

	sort.Slice(stats, func(i, j int) bool { return stats[i].FullName < stats[j].FullName })

	var totalMinutes, totalCompleted, active int
	var totalCredits float64
	for _, m := range stats {
		totalMinutes += m.TotalMinutes
		totalCompleted += m.CompletedCourses
		totalCredits += m.CreditsEarned
		if isActive(m, now) {
			active++
		}
	}
	n := len(stats)

	var sb strings.Builder
	fmt.Fprintf(&sb, "=== TEAM SUMMARY ===\n")
	fmt.Fprintf(&sb, "Members: %d\n", n)
	fmt.Fprintf(&sb, "Active (last 30 days): %d\n", active)
	fmt.Fprintf(&sb, "Avg courses completed: %.1f\n", float64(totalCompleted)/float64(n))
	fmt.Fprintf(&sb, "Avg learning minutes: %.1f\n", float64(totalMinutes)/float64(n))
	fmt.Fprintf(&sb, "Total credits earned: %.1f\n", totalCredits)

	sb.WriteString("\n=== TOP PERFORMERS ===\n")
	for _, m := range topPerformers(stats) {
		fmt.Fprintf(&sb, "- %s: %d courses completed, %d learning minutes\n",
			m.FullName, m.CompletedCourses, m.TotalMinutes)
	}

	sb.WriteString("\n=== NEEDS ATTENTION ===\n")
	flagged := 0
	for _, m := range stats {
		reason, ok := attentionReason(m, now)
		if !ok {
			continue
		}
		flagged++
		fmt.Fprintf(&sb, "- %s: %s\n", m.FullName, reason)
	}
	if flagged == 0 {
		sb.WriteString("(none)\n")
	}

	sb.WriteString("\n=== ROSTER ===\n")
	for _, m := range stats {
		fmt.Fprintf(&sb, "- %s [%s]: %d courses, %d min, %d conversations, %.1f credits\n",
			m.FullName, engagementLabel(m, now), m.CompletedCourses, m.TotalMinutes,
			m.Conversations, m.CreditsEarned)
	}

	return sb.String()
}

// topPerformers returns the top 20% by performance score, minimum one,
// ties broken by name for deterministic output.
func topPerformers(stats []domain.MemberStats) []domain.MemberStats {
	ranked := make([]domain.MemberStats, len(stats))
	copy(ranked, stats)
	sort.Slice(ranked, func(i, j int) bool {
		si, sj := ranked[i].PerformanceScore(), ranked[j].PerformanceScore()
		if si != sj {
			return si > sj
		}
		return ranked[i].FullName < ranked[j].FullName
	})

	count := len(ranked) / 5
	if count < 1 {
		count = 1
	}
	return ranked[:count]
}

func isActive(m domain.MemberStats, now time.Time) bool {
	return !m.LastActivity.IsZero() && now.Sub(m.LastActivity) <= activeWindow
}

func attentionReason(m domain.MemberStats, now time.Time) (string, bool) {
	if m.CompletedCourses == 0 && m.TotalMinutes < 30 {
		return "no completions and under 30 learning minutes", true
	}
	if !isActive(m, now) {
		return "inactive for more than 30 days", true
	}
	return "", false
}

func engagementLabel(m domain.MemberStats, now time.Time) string {
	if m.TotalMinutes == 0 && m.CompletedCourses == 0 && m.Conversations == 0 {
		return "Not Started"
	}
	if m.LastActivity.IsZero() {
		return "Inactive"
	}
	since := now.Sub(m.LastActivity)
	switch {
	case since <= engagedWindow && (m.CompletedCourses >= 3 || m.TotalMinutes >= 300):
		return "Highly Engaged"
	case since <= activeWindow:
		return "Active"
	case since <= decliningWindow:
		return "Declining"
	default:
		return "Inactive"
	}
}

// RuleEvaluator is the default dynamic-group membership evaluator. A
// group rule selects org profiles by attribute, e.g. "role=member" or
// "role=org_admin". Unknown rules yield no members.
type RuleEvaluator struct {
	profileRepo TeamProfileRepository
}

// NewRuleEvaluator creates a new RuleEvaluator instance
func NewRuleEvaluator(profileRepo TeamProfileRepository) *RuleEvaluator {
	return &RuleEvaluator{profileRepo: profileRepo}
}

// ComputeMembers evaluates the group's rule against the organization's
// profiles.
func (e *RuleEvaluator) ComputeMembers(ctx context.Context, group *domain.Group) ([]string, error) {
	profiles, err := e.profileRepo.ListByOrg(ctx, group.OrgID)
	if err != nil {
		return nil, err
	}

	field, value, ok := strings.Cut(strings.TrimSpace(group.Rule), "=")
	if !ok {
		return nil, nil
	}

	var ids []string
	for _, p := range profiles {
		switch field {
		case "role":
			if string(p.Role) == value {
				ids = append(ids, p.ID)
			}
		}
	}
	return ids, nil
}
