package controllers

import (
	"github.com/automate/teams-server/teams-api/config"
	"github.com/automate/teams-server/utils-go"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
)

type UserController struct {
	fx.In

	Users UserRepository
	Teams TeamRepository
}

func RegisterUserController(r *utils.Router, config *config.Config, c UserController) {
	users := r.Group("/users", standardRoute(config))

	users.Get("/me", c.me)
	users.Get("/:username", c.getUser)
}

func (r *UserController) me(c *fiber.Ctx) error {
	user, err := r.Users.GetUser(c.UserContext(), utils.CurrentUser(c))
	if err != nil {
		return handleServiceError(c, err)
	}

	teams, err := r.Teams.ListUserTeams(c.UserContext(), user.Id)
	if err != nil {
		return handleServiceError(c, err)
	}
	user.Teams = teams

	return c.JSON(user)
}

func (r *UserController) getUser(c *fiber.Ctx) error {
	user, err := r.Users.GetUserByUsername(c.UserContext(), c.Params("username"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(user)
}
