package controllers

import (
	"github.com/automate/teams-server/invites"
	"github.com/automate/teams-server/models/userdata"
	"github.com/automate/teams-server/ratelimit"
	"github.com/automate/teams-server/teams-api/config"
	"github.com/automate/teams-server/utils-go"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
)

type sendInvite struct {
	UserId      int64  `json:"userId" validate:"omitempty,gt=0"`
	TeamId      int64  `json:"teamId" validate:"required,gt=0"`
	InvitedUser string `json:"invitedUser" validate:"required,min=1,max=39"`
}

type inviteCode struct {
	Code string `json:"code" validate:"required,len=8,alphanum"`
}

type checkLimit struct {
	UserId int64 `query:"userId" validate:"omitempty,gt=0"`
	TeamId int64 `query:"teamId" validate:"required,gt=0"`
}

type listInvites struct {
	Status string `query:"status" validate:"omitempty,oneof=PENDING ACCEPTED REJECTED EXPIRED"`
}

type InvitesController struct {
	fx.In

	Invites *invites.Service
	Teams   TeamRepository
	Users   UserRepository
	Limiter *ratelimit.Limiter
}

func RegisterInvitesController(r *utils.Router, config *config.Config, c InvitesController) {
	protected := standardRoute(config)
	perUser := ratelimit.Middleware(c.Limiter, ratelimit.PerUser)

	r.Post("/invites/send", protected, c.send)
	r.Post("/invites/accept", protected, perUser, c.accept)
	r.Post("/invites/reject", protected, perUser, c.reject)
	r.Get("/invites/check-limit", protected, c.checkLimit)
	r.Get("/invites", protected, c.listMine)
	r.Get("/invites/:code", protected, c.get)
	r.Get("/teams/:teamId/invites", protected, c.listTeam)
}

// send creates an invite from the current user. A userId in the body must
// match the authenticated user.
func (r *InvitesController) send(c *fiber.Ctx) error {
	body := new(sendInvite)
	if err := utils.StandardBodyParse(c, body); err != nil {
		return err
	}

	inviterId := utils.CurrentUser(c)
	if body.UserId != 0 && body.UserId != inviterId {
		return handleServiceError(c, invites.ErrNotAuthorized)
	}

	invite, err := r.Invites.Send(c.UserContext(), inviterId, body.TeamId, body.InvitedUser)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Invite sent",
		"code":    invite.Code,
		"invite":  invite,
	})
}

func (r *InvitesController) accept(c *fiber.Ctx) error {
	body := new(inviteCode)
	if err := utils.StandardBodyParse(c, body); err != nil {
		return err
	}

	invite, err := r.Invites.Accept(c.UserContext(), body.Code, utils.CurrentUser(c))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Invite accepted",
		"invite":  invite,
	})
}

func (r *InvitesController) reject(c *fiber.Ctx) error {
	body := new(inviteCode)
	if err := utils.StandardBodyParse(c, body); err != nil {
		return err
	}

	invite, err := r.Invites.Reject(c.UserContext(), body.Code)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Invite rejected",
		"invite":  invite,
	})
}

func (r *InvitesController) get(c *fiber.Ctx) error {
	invite, err := r.Invites.Get(c.UserContext(), c.Params("code"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(invite)
}

func (r *InvitesController) checkLimit(c *fiber.Ctx) error {
	query := new(checkLimit)
	if err := utils.StandardQueryParse(c, query); err != nil {
		return err
	}

	userId := utils.CurrentUser(c)
	if query.UserId != 0 && query.UserId != userId {
		return handleServiceError(c, invites.ErrNotAuthorized)
	}

	return c.JSON(r.Invites.CheckLimit(c.UserContext(), userId, query.TeamId))
}

func (r *InvitesController) listTeam(c *fiber.Ctx) error {
	teamId, err := paramId(c, "teamId")
	if err != nil {
		return err
	}

	query := new(listInvites)
	if err := utils.StandardQueryParse(c, query); err != nil {
		return err
	}

	if err := requireMember(c, r.Teams, teamId); err != nil {
		return handleServiceError(c, err)
	}

	res, err := r.Invites.List(c.UserContext(), teamId, userdata.InviteStatus(query.Status))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(res)
}

// listMine lists invites addressed to the current user's GitHub username.
func (r *InvitesController) listMine(c *fiber.Ctx) error {
	query := new(listInvites)
	if err := utils.StandardQueryParse(c, query); err != nil {
		return err
	}

	user, err := r.Users.GetUser(c.UserContext(), utils.CurrentUser(c))
	if err != nil {
		return handleServiceError(c, err)
	}

	res, err := r.Invites.ListForUser(c.UserContext(), user.Username, userdata.InviteStatus(query.Status))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(res)
}
