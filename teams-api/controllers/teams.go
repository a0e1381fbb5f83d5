package controllers

import (
	"errors"

	"github.com/automate/teams-server/models"
	"github.com/automate/teams-server/models/userdata"
	"github.com/automate/teams-server/ratelimit"
	"github.com/automate/teams-server/teams-api/config"
	"github.com/automate/teams-server/utils-go"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
)

type createTeam struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

type addMember struct {
	Username string `json:"username" validate:"required,min=1,max=39"`
}

type TeamsController struct {
	fx.In

	Teams   TeamRepository
	Users   UserRepository
	Limiter *ratelimit.Limiter
}

func RegisterTeamsController(r *utils.Router, config *config.Config, c TeamsController) {
	teams := r.Group("/teams", standardRoute(config))
	perUser := ratelimit.Middleware(c.Limiter, ratelimit.PerUser)

	teams.Post("/", perUser, c.createTeam)
	teams.Get("/", c.listTeams)
	teams.Get("/:teamId", c.getTeam)
	teams.Delete("/:teamId", perUser, c.deleteTeam)
	teams.Get("/:teamId/members", c.listMembers)
	teams.Post("/:teamId/members", perUser, c.addMember)
	teams.Delete("/:teamId/members/:userId", perUser, c.removeMember)
}

func (r *TeamsController) createTeam(c *fiber.Ctx) error {
	body := new(createTeam)
	if err := utils.StandardBodyParse(c, body); err != nil {
		return err
	}

	team := &userdata.Team{Name: body.Name}
	if err := r.Teams.AddTeamTx(c.UserContext(), team, utils.CurrentUser(c)); err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(team)
}

func (r *TeamsController) listTeams(c *fiber.Ctx) error {
	teams, err := r.Teams.ListUserTeams(c.UserContext(), utils.CurrentUser(c))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(teams)
}

func (r *TeamsController) getTeam(c *fiber.Ctx) error {
	teamId, err := paramId(c, "teamId")
	if err != nil {
		return err
	}

	if err := requireMember(c, r.Teams, teamId); err != nil {
		return handleServiceError(c, err)
	}

	team, err := r.Teams.GetTeam(c.UserContext(), teamId)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(team)
}

func (r *TeamsController) deleteTeam(c *fiber.Ctx) error {
	teamId, err := paramId(c, "teamId")
	if err != nil {
		return err
	}

	if err := requireMember(c, r.Teams, teamId); err != nil {
		return handleServiceError(c, err)
	}

	if err := r.Teams.DeleteTeam(c.UserContext(), teamId); err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Team deleted"})
}

func (r *TeamsController) listMembers(c *fiber.Ctx) error {
	teamId, err := paramId(c, "teamId")
	if err != nil {
		return err
	}

	if err := requireMember(c, r.Teams, teamId); err != nil {
		return handleServiceError(c, err)
	}

	members, err := r.Teams.ListMembers(c.UserContext(), teamId)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(members)
}

func (r *TeamsController) addMember(c *fiber.Ctx) error {
	teamId, err := paramId(c, "teamId")
	if err != nil {
		return err
	}

	body := new(addMember)
	if err := utils.StandardBodyParse(c, body); err != nil {
		return err
	}

	if err := requireMember(c, r.Teams, teamId); err != nil {
		return handleServiceError(c, err)
	}

	user, err := r.Users.GetUserByUsername(c.UserContext(), body.Username)
	if err != nil {
		return handleServiceError(c, err)
	}

	if err := r.Teams.AddMember(c.UserContext(), user.Id, teamId); err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Member added", "user": user})
}

// removeMember removes a member. Removing yourself is how a user leaves a team.
func (r *TeamsController) removeMember(c *fiber.Ctx) error {
	teamId, err := paramId(c, "teamId")
	if err != nil {
		return err
	}
	userId, err := paramId(c, "userId")
	if err != nil {
		return err
	}

	if err := requireMember(c, r.Teams, teamId); err != nil {
		return handleServiceError(c, err)
	}

	if err := r.Teams.RemoveMember(c.UserContext(), userId, teamId); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User is not a member of this team"})
		}
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Member removed"})
}
