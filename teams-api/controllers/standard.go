package controllers

import (
	"context"
	"errors"
	"strconv"

	"github.com/automate/teams-server/invites"
	"github.com/automate/teams-server/models"
	"github.com/automate/teams-server/models/userdata"
	"github.com/automate/teams-server/providers/githubapi"
	"github.com/automate/teams-server/ratelimit"
	"github.com/automate/teams-server/teams-api/config"
	"github.com/automate/teams-server/utils-go"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

type UserRepository interface {
	UpsertGithubUser(ctx context.Context, user *userdata.User) error
	GetUser(ctx context.Context, id int64) (*userdata.User, error)
	GetUserByUsername(ctx context.Context, username string) (*userdata.User, error)
}

type TeamRepository interface {
	AddTeamTx(ctx context.Context, team *userdata.Team, creatorId int64) error
	GetTeam(ctx context.Context, teamId int64) (*userdata.Team, error)
	ListUserTeams(ctx context.Context, userId int64) ([]userdata.Team, error)
	DeleteTeam(ctx context.Context, teamId int64) error
	IsMember(ctx context.Context, userId, teamId int64) (bool, error)
	AddMember(ctx context.Context, userId, teamId int64) error
	RemoveMember(ctx context.Context, userId, teamId int64) error
	ListMembers(ctx context.Context, teamId int64) ([]userdata.TeamMember, error)
}

var errInvalidId = errors.New("invalid id")

// standardRoute returns the access token check shared by every protected route.
func standardRoute(config *config.Config) fiber.Handler {
	return utils.Protected(utils.JwtMiddlewareConfig{
		ReadFrom: "header",
		Subject:  "access",
		Scopes:   []string{"basic"},
		Secret:   config.JwtParsedSecret,
	})
}

// RegisterGlobalLimit counts every /api request per user and client IP. A
// valid token is read first so signed in callers are keyed by their id.
func RegisterGlobalLimit(r *utils.Router, config *config.Config, limiter *ratelimit.Limiter) {
	r.Use(utils.Protected(utils.JwtMiddlewareConfig{
		ReadFrom: "header",
		Subject:  "access",
		Scopes:   []string{"basic"},
		Secret:   config.JwtParsedSecret,
		Optional: true,
	}))
	r.Use(ratelimit.Middleware(limiter, ratelimit.Global))
}

func paramId(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		if sendErr := c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": name + " must be a positive integer"}); sendErr != nil {
			return 0, sendErr
		}
		return 0, utils.ErrResponded
	}
	return id, nil
}

// requireMember fails with invites.ErrNotAuthorized unless the current user
// belongs to the team.
func requireMember(c *fiber.Ctx, teams TeamRepository, teamId int64) error {
	member, err := teams.IsMember(c.UserContext(), utils.CurrentUser(c), teamId)
	if err != nil {
		return err
	}
	if !member {
		return invites.ErrNotAuthorized
	}
	return nil
}

func handleServiceError(c *fiber.Ctx, err error) error {
	if errors.Is(err, utils.ErrResponded) {
		return err
	}

	var limitErr *invites.RateLimitError
	if errors.As(err, &limitErr) {
		retryAfter := ratelimit.Seconds(limitErr.RetryAfter)
		c.Set(fiber.HeaderRetryAfter, strconv.FormatInt(retryAfter, 10))
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error":      "rate_limit_exceeded",
			"message":    ratelimit.Invites.Message,
			"retryAfter": retryAfter,
		})
	}

	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, invites.ErrNotAuthorized):
		status = fiber.StatusForbidden
	case errors.Is(err, invites.ErrNotFound), errors.Is(err, models.ErrNotFound), errors.Is(err, githubapi.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, invites.ErrInvalidState), errors.Is(err, invites.ErrAlreadyMember), errors.Is(err, models.ErrDuplicate):
		status = fiber.StatusConflict
	case errors.Is(err, invites.ErrExpired):
		status = fiber.StatusGone
	case errors.Is(err, githubapi.ErrUnauthorized):
		status = fiber.StatusUnauthorized
	case errors.Is(err, invites.ErrStorageUnavailable), errors.Is(err, models.ErrUnavailable):
		status = fiber.StatusServiceUnavailable
	default:
		log.Error().Err(err).Str("path", c.Path()).Msg("Unhandled error")
		return utils.StandardInternalError(c, err)
	}

	return c.Status(status).JSON(fiber.Map{
		"error": publicMessage(err),
	})
}

// publicMessage strips storage details from errors shown to clients.
func publicMessage(err error) string {
	switch {
	case errors.Is(err, invites.ErrStorageUnavailable), errors.Is(err, models.ErrUnavailable):
		return invites.ErrStorageUnavailable.Error()
	case errors.Is(err, invites.ErrInvalidState), errors.Is(err, invites.ErrExpired),
		errors.Is(err, invites.ErrAlreadyMember), errors.Is(err, invites.ErrNotAuthorized),
		errors.Is(err, invites.ErrNotFound):
		return err.Error()
	case errors.Is(err, models.ErrNotFound), errors.Is(err, githubapi.ErrNotFound):
		return "Not found"
	case errors.Is(err, models.ErrDuplicate):
		return "Already exists"
	}
	return err.Error()
}
