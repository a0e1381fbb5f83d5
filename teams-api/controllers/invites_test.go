package controllers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/automate/teams-server/invites"
	"github.com/automate/teams-server/models/userdata"
	"github.com/automate/teams-server/ratelimit"
	"github.com/automate/teams-server/server-go"
	"github.com/automate/teams-server/teams-api/config"
	"github.com/automate/teams-server/utils-go"
	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	alice = int64(1)
	bob   = int64(2)
	team  = int64(100)
)

var testSecret = []byte("controller-test-secret")

type testApp struct {
	app  *fiber.App
	db   *fakeDB
	mini *miniredis.Miniredis
}

func newTestApp(t *testing.T, limited bool) *testApp {
	t.Helper()

	db := newFakeDB()
	db.users[alice] = &userdata.User{Id: alice, Username: "alice"}
	db.users[bob] = &userdata.User{Id: bob, Username: "bob"}
	db.teams[team] = &userdata.Team{Id: team, Name: "Platform", Slug: "platform"}
	db.members[[2]int64{alice, team}] = true
	db.seq = team

	limiter := ratelimit.New(nil, ratelimit.Options{})
	var mini *miniredis.Miniredis
	if limited {
		mini = miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		limiter = ratelimit.New(ratelimit.NewRedisStore(client), ratelimit.Options{Enabled: true})
	}

	cfg := &config.Config{JwtParsedSecret: testSecret, JwtTtl: time.Hour}
	app := fiber.New(fiber.Config{ErrorHandler: server.ErrorHandler})
	router := utils.GetDefaultRouter(app)

	service := invites.NewService(db, limiter, nil, invites.Options{})
	RegisterTeamsController(router, cfg, TeamsController{Teams: db, Users: db, Limiter: limiter})
	RegisterInvitesController(router, cfg, InvitesController{Invites: service, Teams: db, Users: db, Limiter: limiter})

	return &testApp{app: app, db: db, mini: mini}
}

func token(t *testing.T, user int64) string {
	t.Helper()
	raw, err := utils.CreateJwt(utils.JwtConfig{
		User:     user,
		ExpireIn: time.Hour,
		Scope:    "basic",
		Subject:  "access",
		Secret:   testSecret,
	})
	require.NoError(t, err)
	return raw
}

func (a *testApp) do(t *testing.T, method, path string, user int64, body string) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if user != 0 {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token(t, user))
	}

	res, err := a.app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	out := map[string]interface{}{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return res, out
}

func (a *testApp) send(t *testing.T, user int64, invited string) (*http.Response, map[string]interface{}) {
	return a.do(t, fiber.MethodPost, "/api/invites/send", user, `{"teamId":100,"invitedUser":"`+invited+`"}`)
}

func TestSendRequiresToken(t *testing.T) {
	a := newTestApp(t, false)

	res, body := a.send(t, 0, "bob")
	assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)
	assert.Equal(t, "access_denied", body["error"])
}

func TestSendInvite(t *testing.T) {
	a := newTestApp(t, false)

	res, body := a.send(t, alice, "bob")
	require.Equal(t, fiber.StatusOK, res.StatusCode)
	assert.Equal(t, "Invite sent", body["message"])

	code, _ := body["code"].(string)
	assert.Len(t, code, invites.CodeLength)
	assert.Equal(t, userdata.InvitePending, a.db.invites[code].Status)
}

func TestSendInviteNotMember(t *testing.T) {
	a := newTestApp(t, false)

	res, body := a.send(t, bob, "carol")
	assert.Equal(t, fiber.StatusForbidden, res.StatusCode)
	assert.Equal(t, invites.ErrNotAuthorized.Error(), body["error"])
}

func TestSendInviteForSomeoneElse(t *testing.T) {
	a := newTestApp(t, false)

	res, _ := a.do(t, fiber.MethodPost, "/api/invites/send", alice, `{"userId":2,"teamId":100,"invitedUser":"carol"}`)
	assert.Equal(t, fiber.StatusForbidden, res.StatusCode)
}

func TestSendInviteValidation(t *testing.T) {
	a := newTestApp(t, false)

	res, _ := a.do(t, fiber.MethodPost, "/api/invites/send", alice, `{"teamId":100}`)
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)

	res, body := a.do(t, fiber.MethodPost, "/api/invites/send", alice, `not json`)
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)
	assert.Equal(t, "Could not parse request", body["error"])
}

func TestSendInviteRateLimited(t *testing.T) {
	a := newTestApp(t, true)

	for i := 0; i < int(ratelimit.Invites.Max); i++ {
		res, _ := a.send(t, alice, "bob")
		require.Equal(t, fiber.StatusOK, res.StatusCode, "send %d", i+1)
	}

	res, body := a.send(t, alice, "bob")
	require.Equal(t, fiber.StatusTooManyRequests, res.StatusCode)
	assert.Equal(t, "rate_limit_exceeded", body["error"])
	assert.Equal(t, ratelimit.Invites.Message, body["message"])
	assert.InDelta(t, 3600, body["retryAfter"], 1)
	assert.NotEmpty(t, res.Header.Get(fiber.HeaderRetryAfter))

	a.mini.FastForward(time.Hour + time.Second)

	res, _ = a.send(t, alice, "bob")
	assert.Equal(t, fiber.StatusOK, res.StatusCode)
}

func TestCheckLimit(t *testing.T) {
	a := newTestApp(t, true)

	for i := 0; i < 3; i++ {
		res, _ := a.send(t, alice, "bob")
		require.Equal(t, fiber.StatusOK, res.StatusCode)
	}

	res, body := a.do(t, fiber.MethodGet, "/api/invites/check-limit?teamId=100", alice, "")
	require.Equal(t, fiber.StatusOK, res.StatusCode)
	assert.EqualValues(t, 10, body["maxInvitesPerHour"])
	assert.EqualValues(t, 7, body["remaining"])
	assert.Equal(t, invites.LimitAvailable, body["status"])

	res, _ = a.do(t, fiber.MethodGet, "/api/invites/check-limit", alice, "")
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)

	res, body = a.do(t, fiber.MethodGet, "/api/invites/check-limit?teamId=100&userId=1", alice, "")
	require.Equal(t, fiber.StatusOK, res.StatusCode)
	assert.EqualValues(t, 7, body["remaining"])
}

func TestCheckLimitOtherUser(t *testing.T) {
	a := newTestApp(t, true)

	res, body := a.do(t, fiber.MethodGet, "/api/invites/check-limit?teamId=100&userId=2", alice, "")
	assert.Equal(t, fiber.StatusForbidden, res.StatusCode)
	assert.NotContains(t, body, "remaining")
}

func TestCheckLimitDisabled(t *testing.T) {
	a := newTestApp(t, false)

	_, body := a.do(t, fiber.MethodGet, "/api/invites/check-limit?teamId=100", alice, "")
	assert.Equal(t, invites.LimitDisabled, body["status"])
	assert.EqualValues(t, 10, body["remaining"])
}

func TestAcceptInvite(t *testing.T) {
	a := newTestApp(t, false)

	_, sent := a.send(t, alice, "bob")
	code := sent["code"].(string)

	res, body := a.do(t, fiber.MethodPost, "/api/invites/accept", bob, `{"code":"`+code+`"}`)
	require.Equal(t, fiber.StatusOK, res.StatusCode)
	assert.Equal(t, "Invite accepted", body["message"])
	assert.True(t, a.db.members[[2]int64{bob, team}])

	res, body = a.do(t, fiber.MethodPost, "/api/invites/accept", bob, `{"code":"`+code+`"}`)
	assert.Equal(t, fiber.StatusConflict, res.StatusCode)
	assert.Equal(t, "invite is already ACCEPTED", body["error"])

	res, _ = a.do(t, fiber.MethodGet, "/api/teams/100", bob, "")
	assert.Equal(t, fiber.StatusOK, res.StatusCode)
}

func TestAcceptUnknownInvite(t *testing.T) {
	a := newTestApp(t, false)

	res, body := a.do(t, fiber.MethodPost, "/api/invites/accept", bob, `{"code":"ABCDEF12"}`)
	assert.Equal(t, fiber.StatusNotFound, res.StatusCode)
	assert.Equal(t, invites.ErrNotFound.Error(), body["error"])

	res, _ = a.do(t, fiber.MethodPost, "/api/invites/accept", bob, `{"code":"short"}`)
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)
}

func TestAcceptExpiredInvite(t *testing.T) {
	a := newTestApp(t, false)

	now := time.Now()
	a.db.invites["EXPIRED1"] = userdata.Invite{
		Id:          1,
		Code:        "EXPIRED1",
		TeamId:      team,
		InvitedBy:   alice,
		InvitedUser: "bob",
		Status:      userdata.InvitePending,
		CreatedAt:   now.Add(-8 * 24 * time.Hour),
		ExpiresAt:   now.Add(-24 * time.Hour),
	}

	res, body := a.do(t, fiber.MethodPost, "/api/invites/accept", bob, `{"code":"EXPIRED1"}`)
	assert.Equal(t, fiber.StatusGone, res.StatusCode)
	assert.Equal(t, invites.ErrExpired.Error(), body["error"])
	assert.Equal(t, userdata.InviteExpired, a.db.invites["EXPIRED1"].Status)
}

func TestAcceptAsMember(t *testing.T) {
	a := newTestApp(t, false)

	_, sent := a.send(t, alice, "alice")

	res, body := a.do(t, fiber.MethodPost, "/api/invites/accept", alice, `{"code":"`+sent["code"].(string)+`"}`)
	assert.Equal(t, fiber.StatusConflict, res.StatusCode)
	assert.Equal(t, invites.ErrAlreadyMember.Error(), body["error"])
}

func TestRejectInvite(t *testing.T) {
	a := newTestApp(t, false)

	_, sent := a.send(t, alice, "bob")
	code := sent["code"].(string)

	res, body := a.do(t, fiber.MethodPost, "/api/invites/reject", bob, `{"code":"`+code+`"}`)
	require.Equal(t, fiber.StatusOK, res.StatusCode)
	assert.Equal(t, "Invite rejected", body["message"])

	res, _ = a.do(t, fiber.MethodPost, "/api/invites/accept", bob, `{"code":"`+code+`"}`)
	assert.Equal(t, fiber.StatusConflict, res.StatusCode)
	assert.False(t, a.db.members[[2]int64{bob, team}])
}

func TestListInvites(t *testing.T) {
	a := newTestApp(t, false)

	_, first := a.send(t, alice, "bob")
	_, _ = a.send(t, alice, "carol")
	_, _ = a.do(t, fiber.MethodPost, "/api/invites/reject", bob, `{"code":"`+first["code"].(string)+`"}`)

	res, err := a.app.Test(authorized(t, fiber.MethodGet, "/api/teams/100/invites?status=PENDING", alice), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, res.StatusCode)

	var pending []userdata.Invite
	require.NoError(t, json.NewDecoder(res.Body).Decode(&pending))
	require.Len(t, pending, 1)
	assert.Equal(t, "carol", pending[0].InvitedUser)

	res, err = a.app.Test(authorized(t, fiber.MethodGet, "/api/invites", bob), -1)
	require.NoError(t, err)

	var mine []userdata.Invite
	require.NoError(t, json.NewDecoder(res.Body).Decode(&mine))
	require.Len(t, mine, 1)
	assert.Equal(t, userdata.InviteRejected, mine[0].Status)

	res, _ = a.do(t, fiber.MethodGet, "/api/teams/100/invites", bob, "")
	assert.Equal(t, fiber.StatusForbidden, res.StatusCode)

	res, _ = a.do(t, fiber.MethodGet, "/api/teams/100/invites?status=UNKNOWN", alice, "")
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)
}

func authorized(t *testing.T, method, path string, user int64) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token(t, user))
	return req
}
