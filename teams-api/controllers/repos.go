package controllers

import (
	"time"

	"github.com/automate/teams-server/providers/githubapi"
	"github.com/automate/teams-server/ratelimit"
	"github.com/automate/teams-server/repos"
	"github.com/automate/teams-server/teams-api/config"
	"github.com/automate/teams-server/utils-go"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
)

type connectRepo struct {
	Owner string `json:"owner" validate:"required,min=1,max=100"`
	Repo  string `json:"repo" validate:"required,min=1,max=100"`
}

type listCommits struct {
	Limit int `query:"limit" validate:"omitempty,min=1,max=500"`
}

type ReposController struct {
	fx.In

	Teams   TeamRepository
	Repos   *repos.RepositoryRepo
	Syncer  *githubapi.Syncer
	Limiter *ratelimit.Limiter
}

func RegisterReposController(r *utils.Router, config *config.Config, c ReposController) {
	teams := r.Group("/teams/:teamId", standardRoute(config))
	perUser := ratelimit.Middleware(c.Limiter, ratelimit.PerUser)

	teams.Get("/repos", c.listRepos)
	teams.Post("/repos", perUser, c.connectRepo)
	teams.Delete("/repos/:owner/:repo", perUser, c.disconnectRepo)
	teams.Post("/repos/:owner/:repo/sync", perUser, c.syncRepo)
	teams.Get("/commits", c.listCommits)
}

func (r *ReposController) member(c *fiber.Ctx) (int64, error) {
	teamId, err := paramId(c, "teamId")
	if err != nil {
		return 0, err
	}

	if err := requireMember(c, r.Teams, teamId); err != nil {
		return 0, handleServiceError(c, err)
	}

	return teamId, nil
}

func (r *ReposController) listRepos(c *fiber.Ctx) error {
	teamId, err := r.member(c)
	if err != nil {
		return err
	}

	res, err := r.Repos.ListRepositories(c.UserContext(), teamId)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(res)
}

func (r *ReposController) connectRepo(c *fiber.Ctx) error {
	teamId, err := r.member(c)
	if err != nil {
		return err
	}

	body := new(connectRepo)
	if err := utils.StandardBodyParse(c, body); err != nil {
		return err
	}

	repo, err := r.Syncer.Connect(c.UserContext(), teamId, body.Owner, body.Repo)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(repo)
}

func (r *ReposController) disconnectRepo(c *fiber.Ctx) error {
	teamId, err := r.member(c)
	if err != nil {
		return err
	}

	repo, err := r.Repos.GetRepository(c.UserContext(), teamId, c.Params("owner")+"/"+c.Params("repo"))
	if err != nil {
		return handleServiceError(c, err)
	}

	if err := r.Repos.DeleteRepository(c.UserContext(), repo.Id); err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Repository disconnected"})
}

func (r *ReposController) syncRepo(c *fiber.Ctx) error {
	teamId, err := r.member(c)
	if err != nil {
		return err
	}

	repo, err := r.Repos.GetRepository(c.UserContext(), teamId, c.Params("owner")+"/"+c.Params("repo"))
	if err != nil {
		return handleServiceError(c, err)
	}

	added, err := r.Syncer.Sync(c.UserContext(), repo, time.Time{})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Repository synced", "added": added})
}

func (r *ReposController) listCommits(c *fiber.Ctx) error {
	teamId, err := r.member(c)
	if err != nil {
		return err
	}

	query := listCommits{Limit: 50}
	if err := utils.StandardQueryParse(c, &query); err != nil {
		return err
	}

	res, err := r.Repos.ListCommits(c.UserContext(), teamId, query.Limit)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(res)
}
