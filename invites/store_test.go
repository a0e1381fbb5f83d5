package invites

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/automate/teams-server/models"
	"github.com/automate/teams-server/models/userdata"
)

type membership struct {
	userId, teamId int64
}

// memStore is an in-memory Store. Transactions are serialised and rolled back
// by restoring a snapshot.
type memStore struct {
	txMu    sync.Mutex
	mu      sync.Mutex
	seq     int64
	invites map[string]userdata.Invite
	members map[membership]bool
	down    bool

	// beforeUpdate runs ahead of each conditional status update, standing in
	// for a concurrent writer.
	beforeUpdate func(code string)
}

func newMemStore() *memStore {
	return &memStore{invites: map[string]userdata.Invite{}, members: map[membership]bool{}}
}

func (m *memStore) FindInviteByCode(_ context.Context, code string) (*userdata.Invite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return nil, models.ErrUnavailable
	}
	invite, ok := m.invites[code]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &invite, nil
}

func (m *memStore) CreateInvite(_ context.Context, invite *userdata.Invite) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return models.ErrUnavailable
	}
	if _, ok := m.invites[invite.Code]; ok {
		return models.ErrDuplicate
	}
	m.seq++
	invite.Id = m.seq
	m.invites[invite.Code] = *invite
	return nil
}

func (m *memStore) UpdateInviteStatus(_ context.Context, code string, from, to userdata.InviteStatus, acceptedAt *time.Time) error {
	if m.beforeUpdate != nil {
		m.beforeUpdate(code)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return models.ErrUnavailable
	}
	invite, ok := m.invites[code]
	if !ok || invite.Status != from {
		return models.ErrStaleState
	}
	invite.Status = to
	invite.AcceptedAt = acceptedAt
	m.invites[code] = invite
	return nil
}

func (m *memStore) list(match func(userdata.Invite) bool) []userdata.Invite {
	res := make([]userdata.Invite, 0)
	for _, invite := range m.invites {
		if match(invite) {
			res = append(res, invite)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Id > res[j].Id })
	return res
}

func (m *memStore) ListInvites(_ context.Context, teamId int64, status userdata.InviteStatus) ([]userdata.Invite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.list(func(i userdata.Invite) bool {
		return i.TeamId == teamId && (status == "" || i.Status == status)
	}), nil
}

func (m *memStore) ListInvitesForUser(_ context.Context, username string, status userdata.InviteStatus) ([]userdata.Invite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.list(func(i userdata.Invite) bool {
		return i.InvitedUser == username && (status == "" || i.Status == status)
	}), nil
}

func (m *memStore) IsMember(_ context.Context, userId, teamId int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return false, models.ErrUnavailable
	}
	return m.members[membership{userId, teamId}], nil
}

func (m *memStore) AddMember(_ context.Context, userId, teamId int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := membership{userId, teamId}
	if m.members[key] {
		return models.ErrDuplicate
	}
	m.members[key] = true
	return nil
}

func (m *memStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	invites := make(map[string]userdata.Invite, len(m.invites))
	for k, v := range m.invites {
		invites[k] = v
	}
	members := make(map[membership]bool, len(m.members))
	for k, v := range m.members {
		members[k] = v
	}
	m.mu.Unlock()

	if err := fn(ctx, m); err != nil {
		m.mu.Lock()
		m.invites, m.members = invites, members
		m.mu.Unlock()
		return err
	}
	return nil
}
