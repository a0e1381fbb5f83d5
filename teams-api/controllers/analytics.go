package controllers

import (
	"github.com/automate/teams-server/analytics"
	"github.com/automate/teams-server/ratelimit"
	"github.com/automate/teams-server/teams-api/config"
	"github.com/automate/teams-server/utils-go"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
)

type AnalyticsController struct {
	fx.In

	Analytics *analytics.Service
	Teams     TeamRepository
	Limiter   *ratelimit.Limiter
}

func RegisterAnalyticsController(r *utils.Router, config *config.Config, c AnalyticsController) {
	generous := ratelimit.Middleware(c.Limiter, ratelimit.Generous)
	teams := r.Group("/teams/:teamId", standardRoute(config))

	teams.Get("/analytics", generous, c.activity)
	teams.Get("/leaderboard", generous, c.leaderboard)
}

// activity recomputes and returns the member activity of the team.
func (r *AnalyticsController) activity(c *fiber.Ctx) error {
	teamId, err := paramId(c, "teamId")
	if err != nil {
		return err
	}

	if err := requireMember(c, r.Teams, teamId); err != nil {
		return handleServiceError(c, err)
	}

	res, err := r.Analytics.ComputeMemberActivity(c.UserContext(), teamId)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(res)
}

func (r *AnalyticsController) leaderboard(c *fiber.Ctx) error {
	teamId, err := paramId(c, "teamId")
	if err != nil {
		return err
	}

	if err := requireMember(c, r.Teams, teamId); err != nil {
		return handleServiceError(c, err)
	}

	res, err := r.Analytics.Leaderboard(c.UserContext(), teamId)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(res)
}
