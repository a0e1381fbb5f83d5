package analytics

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/automate/teams-server/models/system"
	"github.com/automate/teams-server/models/userdata"
	"github.com/automate/teams-server/repos"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	jobService = "analytics"
	jobItem    = "member-activity"
	fanOut     = 4
)

type Teams interface {
	ListTeamIds(ctx context.Context) ([]int64, error)
	ListMembers(ctx context.Context, teamId int64) ([]userdata.TeamMember, error)
	UpdateMemberActivity(ctx context.Context, teamId, userId int64, status string, lastActiveAt *time.Time) error
}

type Commits interface {
	CommitsByAuthor(ctx context.Context, teamId int64) ([]repos.AuthorCommits, error)
}

type Users interface {
	RefreshActivityStatus(ctx context.Context) (int64, error)
}

type Jobs interface {
	AddJob(ctx context.Context, job *system.Job) (int64, error)
	UpdateJob(ctx context.Context, job *system.Job) error
}

type MemberActivity struct {
	UserId       int64      `json:"user_id"`
	Username     string     `json:"username"`
	Status       string     `json:"status"`
	LastActiveAt *time.Time `json:"last_active_at,omitempty"`
}

type LeaderboardEntry struct {
	Rank         int       `json:"rank"`
	Author       string    `json:"author"`
	Commits      int64     `json:"commits"`
	LastCommitAt time.Time `json:"last_commit_at"`
}

type Service struct {
	teams   Teams
	commits Commits
	users   Users
	jobs    Jobs
	now     func() time.Time
}

func NewService(teams Teams, commits Commits, users Users, jobs Jobs) *Service {
	return &Service{teams: teams, commits: commits, users: users, jobs: jobs, now: time.Now}
}

// ComputeMemberActivity classifies every member of the team by their latest
// commit and stores the result on the membership rows.
func (s *Service) ComputeMemberActivity(ctx context.Context, teamId int64) ([]MemberActivity, error) {
	members, err := s.teams.ListMembers(ctx, teamId)
	if err != nil {
		return nil, err
	}

	authors, err := s.commits.CommitsByAuthor(ctx, teamId)
	if err != nil {
		return nil, err
	}

	lastCommit := make(map[string]time.Time, len(authors))
	for _, author := range authors {
		lastCommit[strings.ToLower(author.Author)] = author.LastCommitAt
	}

	now := s.now()
	res := make([]MemberActivity, 0, len(members))
	for _, member := range members {
		activity := MemberActivity{UserId: member.UserId}
		if member.User != nil {
			activity.Username = member.User.Username
			if last, ok := lastCommit[strings.ToLower(member.User.Username)]; ok {
				activity.LastActiveAt = &last
			}
		}
		activity.Status = Classify(activity.LastActiveAt, now)

		if err := s.teams.UpdateMemberActivity(ctx, teamId, member.UserId, activity.Status, activity.LastActiveAt); err != nil {
			return nil, err
		}
		res = append(res, activity)
	}

	return res, nil
}

// RefreshAll recomputes member activity for every team, then derives the
// activity status of each user. Progress is recorded as a job.
func (s *Service) RefreshAll(ctx context.Context) error {
	ids, err := s.teams.ListTeamIds(ctx)
	if err != nil {
		return err
	}

	job := &system.Job{Service: jobService, Item: jobItem, Total: int64(len(ids)), Details: make([]map[string]string, 0)}
	if _, err := s.jobs.AddJob(ctx, job); err != nil {
		log.Warn().Err(err).Msg("Could not record analytics job")
		job = nil
	}

	var done int64
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanOut)

	for _, id := range ids {
		id := id
		g.Go(func() error {
			_, err := s.ComputeMemberActivity(gctx, id)
			if err != nil {
				log.Error().Err(err).Int64("team", id).Msg("Could not compute member activity")
				if job != nil {
					mu.Lock()
					job.Details = append(job.Details, map[string]string{"team": strconv.FormatInt(id, 10), "error": err.Error()})
					mu.Unlock()
				}
				return nil
			}
			atomic.AddInt64(&done, 1)
			return nil
		})
	}
	_ = g.Wait()

	updated, err := s.users.RefreshActivityStatus(ctx)
	if err != nil {
		return err
	}

	if job != nil {
		job.Done = done
		job.Status = true
		if err := s.jobs.UpdateJob(ctx, job); err != nil {
			log.Warn().Err(err).Int64("job", job.Id).Msg("Could not update analytics job")
		}
	}

	log.Info().Int("teams", len(ids)).Int64("done", done).Int64("users", updated).Msg("Analytics refreshed")
	return nil
}

func (s *Service) Leaderboard(ctx context.Context, teamId int64) ([]LeaderboardEntry, error) {
	authors, err := s.commits.CommitsByAuthor(ctx, teamId)
	if err != nil {
		return nil, err
	}

	res := make([]LeaderboardEntry, len(authors))
	for i, author := range authors {
		res[i] = LeaderboardEntry{
			Rank:         i + 1,
			Author:       author.Author,
			Commits:      author.Commits,
			LastCommitAt: author.LastCommitAt,
		}
	}
	return res, nil
}
