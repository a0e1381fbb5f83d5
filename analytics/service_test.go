package analytics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/automate/teams-server/models/system"
	"github.com/automate/teams-server/models/userdata"
	"github.com/automate/teams-server/repos"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

type fakeTeams struct {
	mu       sync.Mutex
	members  map[int64][]userdata.TeamMember
	activity map[[2]int64]string
	failTeam int64
}

func (f *fakeTeams) ListTeamIds(context.Context) ([]int64, error) {
	ids := make([]int64, 0, len(f.members))
	for id := range f.members {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeTeams) ListMembers(_ context.Context, teamId int64) ([]userdata.TeamMember, error) {
	if teamId == f.failTeam {
		return nil, errors.New("boom")
	}
	return f.members[teamId], nil
}

func (f *fakeTeams) UpdateMemberActivity(_ context.Context, teamId, userId int64, status string, _ *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activity[[2]int64{teamId, userId}] = status
	return nil
}

type fakeCommits map[int64][]repos.AuthorCommits

func (f fakeCommits) CommitsByAuthor(_ context.Context, teamId int64) ([]repos.AuthorCommits, error) {
	return f[teamId], nil
}

type fakeUsers struct{ calls int }

func (f *fakeUsers) RefreshActivityStatus(context.Context) (int64, error) {
	f.calls++
	return 2, nil
}

type fakeJobs struct{ jobs []system.Job }

func (f *fakeJobs) AddJob(_ context.Context, job *system.Job) (int64, error) {
	job.Id = int64(len(f.jobs) + 1)
	f.jobs = append(f.jobs, *job)
	return job.Id, nil
}

func (f *fakeJobs) UpdateJob(_ context.Context, job *system.Job) error {
	f.jobs[job.Id-1] = *job
	return nil
}

func member(userId int64, username string) userdata.TeamMember {
	return userdata.TeamMember{UserId: userId, User: &userdata.User{Id: userId, Username: username}}
}

func newTestService() (*Service, *fakeTeams, *fakeUsers, *fakeJobs) {
	teams := &fakeTeams{
		members: map[int64][]userdata.TeamMember{
			1: {member(10, "alice"), member(11, "bob"), member(12, "carol")},
			2: {member(10, "alice")},
		},
		activity: map[[2]int64]string{},
	}
	commits := fakeCommits{
		1: {
			{Author: "Alice", Commits: 5, LastCommitAt: now.Add(-2 * day)},
			{Author: "bob", Commits: 2, LastCommitAt: now.Add(-20 * day)},
			{Author: "mallory", Commits: 1, LastCommitAt: now},
		},
	}
	users := &fakeUsers{}
	jobs := &fakeJobs{}
	svc := NewService(teams, commits, users, jobs)
	svc.now = func() time.Time { return now }
	return svc, teams, users, jobs
}

func TestClassify(t *testing.T) {
	at := func(d time.Duration) *time.Time {
		v := now.Add(-d)
		return &v
	}

	cases := []struct {
		name string
		last *time.Time
		want string
	}{
		{"never", nil, userdata.Inactive},
		{"today", at(time.Hour), userdata.Active7Days},
		{"seven days", at(7 * day), userdata.Active7Days},
		{"ten days", at(10 * day), userdata.Active14Days},
		{"three weeks", at(21 * day), userdata.Active30Days},
		{"two months", at(60 * day), userdata.Inactive},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.last, now))
		})
	}
}

func TestComputeMemberActivity(t *testing.T) {
	svc, teams, _, _ := newTestService()

	res, err := svc.ComputeMemberActivity(context.Background(), 1)
	require.NoError(t, err)

	require.Len(t, res, 3)
	assert.Equal(t, userdata.Active7Days, res[0].Status)
	assert.Equal(t, userdata.Active30Days, res[1].Status)
	assert.Equal(t, userdata.Inactive, res[2].Status)
	assert.Nil(t, res[2].LastActiveAt)
	assert.Equal(t, userdata.Active7Days, teams.activity[[2]int64{1, 10}])
}

func TestRefreshAll(t *testing.T) {
	t.Run("should refresh every team and record the job", func(t *testing.T) {
		svc, teams, users, jobs := newTestService()

		require.NoError(t, svc.RefreshAll(context.Background()))

		assert.Equal(t, userdata.Inactive, teams.activity[[2]int64{2, 10}])
		assert.Equal(t, 1, users.calls)
		require.Len(t, jobs.jobs, 1)
		assert.True(t, jobs.jobs[0].Status)
		assert.Equal(t, int64(2), jobs.jobs[0].Done)
		assert.Equal(t, int64(2), jobs.jobs[0].Total)
	})

	t.Run("should keep going when one team fails", func(t *testing.T) {
		svc, teams, _, jobs := newTestService()
		teams.failTeam = 2

		require.NoError(t, svc.RefreshAll(context.Background()))

		assert.Equal(t, int64(1), jobs.jobs[0].Done)
		require.Len(t, jobs.jobs[0].Details, 1)
		assert.Equal(t, "2", jobs.jobs[0].Details[0]["team"])
	})
}

func TestLeaderboard(t *testing.T) {
	svc, _, _, _ := newTestService()

	board, err := svc.Leaderboard(context.Background(), 1)
	require.NoError(t, err)

	require.Len(t, board, 3)
	assert.Equal(t, 1, board[0].Rank)
	assert.Equal(t, "Alice", board[0].Author)
	assert.Equal(t, 3, board[2].Rank)
}

func TestDaemon(t *testing.T) {
	svc, _, users, _ := newTestService()
	d := NewDaemon(svc, time.Hour)

	d.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, d.Stop(ctx))

	assert.Equal(t, 1, users.calls)
}
