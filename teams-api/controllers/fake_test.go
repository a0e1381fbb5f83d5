package controllers

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/automate/teams-server/invites"
	"github.com/automate/teams-server/models"
	"github.com/automate/teams-server/models/userdata"
)

// fakeDB backs the user, team and invite stores with maps.
type fakeDB struct {
	mu      sync.Mutex
	seq     int64
	users   map[int64]*userdata.User
	teams   map[int64]*userdata.Team
	members map[[2]int64]bool
	invites map[string]userdata.Invite
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		users:   map[int64]*userdata.User{},
		teams:   map[int64]*userdata.Team{},
		members: map[[2]int64]bool{},
		invites: map[string]userdata.Invite{},
	}
}

func (f *fakeDB) next() int64 {
	f.seq++
	return f.seq
}

func (f *fakeDB) UpsertGithubUser(_ context.Context, user *userdata.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.GithubId == user.GithubId {
			u.Username, u.Email = user.Username, user.Email
			*user = *u
			return nil
		}
	}
	user.Id = f.next()
	stored := *user
	f.users[user.Id] = &stored
	return nil
}

func (f *fakeDB) GetUser(_ context.Context, id int64) (*userdata.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		res := *u
		return &res, nil
	}
	return nil, models.ErrNotFound
}

func (f *fakeDB) GetUserByUsername(_ context.Context, username string) (*userdata.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			res := *u
			return &res, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeDB) AddTeamTx(_ context.Context, team *userdata.Team, creatorId int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	team.Id = f.next()
	team.Slug = "team"
	stored := *team
	f.teams[team.Id] = &stored
	f.members[[2]int64{creatorId, team.Id}] = true
	return nil
}

func (f *fakeDB) GetTeam(_ context.Context, teamId int64) (*userdata.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.teams[teamId]; ok {
		res := *t
		return &res, nil
	}
	return nil, models.ErrNotFound
}

func (f *fakeDB) ListUserTeams(_ context.Context, userId int64) ([]userdata.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res := make([]userdata.Team, 0)
	for key := range f.members {
		if key[0] == userId {
			if t, ok := f.teams[key[1]]; ok {
				res = append(res, *t)
			}
		}
	}
	return res, nil
}

func (f *fakeDB) DeleteTeam(_ context.Context, teamId int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.teams[teamId]; !ok {
		return models.ErrNotFound
	}
	delete(f.teams, teamId)
	for key := range f.members {
		if key[1] == teamId {
			delete(f.members, key)
		}
	}
	return nil
}

func (f *fakeDB) IsMember(_ context.Context, userId, teamId int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.members[[2]int64{userId, teamId}], nil
}

func (f *fakeDB) AddMember(_ context.Context, userId, teamId int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := [2]int64{userId, teamId}
	if f.members[key] {
		return models.ErrDuplicate
	}
	f.members[key] = true
	return nil
}

func (f *fakeDB) RemoveMember(_ context.Context, userId, teamId int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := [2]int64{userId, teamId}
	if !f.members[key] {
		return models.ErrNotFound
	}
	delete(f.members, key)
	return nil
}

func (f *fakeDB) ListMembers(_ context.Context, teamId int64) ([]userdata.TeamMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res := make([]userdata.TeamMember, 0)
	for key := range f.members {
		if key[1] == teamId {
			res = append(res, userdata.TeamMember{UserId: key[0], TeamId: teamId, User: f.users[key[0]]})
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].UserId < res[j].UserId })
	return res, nil
}

func (f *fakeDB) FindInviteByCode(_ context.Context, code string) (*userdata.Invite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if invite, ok := f.invites[code]; ok {
		return &invite, nil
	}
	return nil, models.ErrNotFound
}

func (f *fakeDB) CreateInvite(_ context.Context, invite *userdata.Invite) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.invites[invite.Code]; ok {
		return models.ErrDuplicate
	}
	invite.Id = f.next()
	f.invites[invite.Code] = *invite
	return nil
}

func (f *fakeDB) UpdateInviteStatus(_ context.Context, code string, from, to userdata.InviteStatus, acceptedAt *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	invite, ok := f.invites[code]
	if !ok || invite.Status != from {
		return models.ErrStaleState
	}
	invite.Status = to
	invite.AcceptedAt = acceptedAt
	f.invites[code] = invite
	return nil
}

func (f *fakeDB) listInvites(match func(userdata.Invite) bool) []userdata.Invite {
	f.mu.Lock()
	defer f.mu.Unlock()
	res := make([]userdata.Invite, 0)
	for _, invite := range f.invites {
		if match(invite) {
			res = append(res, invite)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Id > res[j].Id })
	return res
}

func (f *fakeDB) ListInvites(_ context.Context, teamId int64, status userdata.InviteStatus) ([]userdata.Invite, error) {
	return f.listInvites(func(i userdata.Invite) bool {
		return i.TeamId == teamId && (status == "" || i.Status == status)
	}), nil
}

func (f *fakeDB) ListInvitesForUser(_ context.Context, username string, status userdata.InviteStatus) ([]userdata.Invite, error) {
	return f.listInvites(func(i userdata.Invite) bool {
		return i.InvitedUser == username && (status == "" || i.Status == status)
	}), nil
}

func (f *fakeDB) RunInTx(ctx context.Context, fn func(ctx context.Context, tx invites.Store) error) error {
	return fn(ctx, f)
}
