package service

import (
	"context"
	"strings"

	"alcyxob/team-points/internal/apperr"
	"alcyxob/team-points/internal/domain"
	"alcyxob/team-points/internal/repository"
	"alcyxob/team-points/internal/streak"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const defaultProfileHistory = 20

// Profile is everything shown on a member's profile page.
type Profile struct {
	Member        *domain.Member         `json:"member"`
	LongestStreak int                    `json:"longestStreak"`
	History       []domain.LedgerEntry   `json:"history"`
	Completed     []domain.AwardableItem `json:"completed"`
	Achievements  []domain.Achievement   `json:"achievements"`
}

// achievementFacts are the inputs achievements are evaluated against.
type achievementFacts struct {
	streak     int
	points     int
	tournament bool
}

type achievementRule struct {
	id, title, description string
	earned                 func(achievementFacts) bool
}

var achievementRules = []achievementRule{
	{"streak_5", "Training Streak Bronze", "Attend 5 trainings in a row.", func(f achievementFacts) bool { return f.streak >= 5 }},
	{"streak_10", "Training Streak Silver", "Attend 10 trainings in a row.", func(f achievementFacts) bool { return f.streak >= 10 }},
	{"streak_15", "Training Streak Gold", "Attend 15 trainings in a row.", func(f achievementFacts) bool { return f.streak >= 15 }},
	{"points_100", "Point Hunter", "Collect 100 points.", func(f achievementFacts) bool { return f.points >= 100 }},
	{"points_500", "Point Wizard", "Collect 500 points.", func(f achievementFacts) bool { return f.points >= 500 }},
	{"tourney_win_1", "Tournament Champion", "Win your first tournament.", func(f achievementFacts) bool { return f.tournament }},
}

func achievements(f achievementFacts) []domain.Achievement {
	out := make([]domain.Achievement, 0, len(achievementRules))
	for _, r := range achievementRules {
		out = append(out, domain.Achievement{ID: r.id, Title: r.title, Description: r.description, Earned: r.earned(f)})
	}
	return out
}

type ProfileService interface {
	Profile(ctx context.Context, memberID primitive.ObjectID) (*Profile, error)
}

type profileService struct {
	store              repository.Store
	ledger             LedgerService
	historyLength      int
	tournamentKeywords []string
	logger             *zap.Logger
}

// NewProfileService creates the profile service. historyLength bounds the recent
// history shown; a ledger reason containing any of tournamentKeywords counts as a
// tournament win.
func NewProfileService(store repository.Store, ledger LedgerService, historyLength int, tournamentKeywords []string, logger *zap.Logger) ProfileService {
	if historyLength <= 0 {
		historyLength = defaultProfileHistory
	}
	keywords := make([]string, 0, len(tournamentKeywords))
	for _, k := range tournamentKeywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			keywords = append(keywords, k)
		}
	}
	return &profileService{
		store:              store,
		ledger:             ledger,
		historyLength:      historyLength,
		tournamentKeywords: keywords,
		logger:             logger,
	}
}

func (s *profileService) Profile(ctx context.Context, memberID primitive.ObjectID) (*Profile, error) {
	member, err := s.store.Members.GetByID(ctx, memberID)
	if err != nil {
		return nil, memberErr(err)
	}
	member.PasswordHash = ""

	sessions, err := s.store.Sessions.ListAll(ctx)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	completed, err := s.store.Items.ListCompletedBy(ctx, memberID)
	if err != nil {
		return nil, apperr.Storage(err)
	}

	profile := &Profile{
		Member:        member,
		LongestStreak: streak.Longest(sessions, memberID),
		History:       []domain.LedgerEntry{},
		Completed:     completed,
	}
	if profile.Completed == nil {
		profile.Completed = []domain.AwardableItem{}
	}

	// One pass over the full history: the first entries fill the recent list,
	// every entry is checked for a tournament win.
	tournament := false
	for e, err := range s.ledger.History(ctx, memberID, 0) {
		if err != nil {
			return nil, err
		}
		if len(profile.History) < s.historyLength {
			profile.History = append(profile.History, e)
		}
		if !tournament && s.isTournamentWin(e.Reason) {
			tournament = true
		}
		if tournament && len(profile.History) >= s.historyLength {
			break
		}
	}

	profile.Achievements = achievements(achievementFacts{
		streak:     profile.LongestStreak,
		points:     member.Points,
		tournament: tournament,
	})
	return profile, nil
}

func (s *profileService) isTournamentWin(reason string) bool {
	reason = strings.ToLower(reason)
	for _, k := range s.tournamentKeywords {
		if strings.Contains(reason, k) {
			return true
		}
	}
	return false
}
