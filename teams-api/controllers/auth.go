package controllers

import (
	"github.com/automate/teams-server/providers/githubapi"
	"github.com/automate/teams-server/ratelimit"
	"github.com/automate/teams-server/teams-api/config"
	"github.com/automate/teams-server/utils-go"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
)

type githubLogin struct {
	Token string `json:"token" validate:"required,min=1,max=512"`
}

type AuthController struct {
	fx.In

	Users     UserRepository
	Connector githubapi.Connector
	Limiter   *ratelimit.Limiter
}

var (
	jwtSecret []byte
	jwtConfig utils.JwtConfig
)

func RegisterAuthController(r *utils.Router, config *config.Config, c AuthController) {
	jwtSecret = config.JwtParsedSecret
	jwtConfig = utils.JwtConfig{
		ExpireIn: config.JwtTtl,
		Scope:    "basic",
		Subject:  "access",
		Secret:   jwtSecret,
	}

	r.Post("/auth/github", ratelimit.Middleware(c.Limiter, ratelimit.Strict), c.githubLogin)
}

// githubLogin exchanges a GitHub token for an access token of this API.
func (r *AuthController) githubLogin(c *fiber.Ctx) error {
	body := new(githubLogin)
	if err := utils.StandardBodyParse(c, body); err != nil {
		return err
	}

	api, err := r.Connector(body.Token)
	if err != nil {
		return utils.StandardInternalError(c, err)
	}

	user, err := api.GetAuthenticatedUser(c.UserContext())
	if err != nil {
		return handleServiceError(c, err)
	}

	if err := r.Users.UpsertGithubUser(c.UserContext(), user); err != nil {
		return handleServiceError(c, err)
	}

	tokenConfig := jwtConfig
	tokenConfig.User = user.Id
	token, err := utils.CreateJwt(tokenConfig)
	if err != nil {
		return utils.StandardInternalError(c, err)
	}

	return c.JSON(fiber.Map{
		"access_token": token,
		"user":         user,
	})
}
