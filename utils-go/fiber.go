package utils

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

const authScheme = "Bearer"

var validate = validator.New()

// ErrResponded is returned by helpers that already wrote the response; the
// server error handler leaves such responses untouched.
var ErrResponded = errors.New("response already sent")

type Router struct {
	fiber.Router
}

type JwtMiddlewareConfig struct {
	ReadFrom string
	Subject  string
	Scopes   []string
	Secret   []byte
	// Optional lets requests without a usable token through without a user.
	Optional bool
}

type ErrorResponse struct {
	FailedField string
	Tag         string
	Value       string
}

func GetDefaultRouter(app *fiber.App) *Router {
	temp := app.Group("/api")
	return &Router{Router: temp}
}

func Protected(config JwtMiddlewareConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		deny := func(status int, description string) error {
			if config.Optional {
				return c.Next()
			}
			return c.Status(status).JSON(fiber.Map{
				"error":             "access_denied",
				"error_description": description,
			})
		}

		rawToken, err := func() (string, error) {
			if config.ReadFrom == "header" {
				auth := c.Get(fiber.HeaderAuthorization)
				l := len(authScheme)
				if len(auth) > l+1 && strings.EqualFold(auth[:l], authScheme) {
					return auth[l+1:], nil
				}

				return "", errors.New("Missing or malformed JWT")
			} else if config.ReadFrom == "cookie" {
				token := c.Cookies("accessToken")
				if token == "" {
					return "", errors.New("Missing or malformed JWT")
				}

				return token, nil
			}
			return "", errors.New("Invalid token read location")
		}()
		if err != nil {
			return deny(fiber.StatusUnauthorized, err.Error())
		}

		claims, err := ParseJwt(rawToken, config.Secret)
		if err != nil {
			return deny(fiber.StatusUnauthorized, err.Error())
		}

		if sub, _ := claims["sub"].(string); sub != config.Subject {
			return deny(fiber.StatusUnauthorized, "Invalid JWT")
		}

		rawScope, _ := claims["scope"].(string)
		scopeArray := strings.Split(rawScope, " ")
		for _, scope := range config.Scopes {
			if IsInList(scope, &scopeArray) == -1 {
				return deny(fiber.StatusForbidden, "Invalid scope")
			}
		}

		rawUser, _ := claims["user"].(string)
		id, err := strconv.ParseInt(rawUser, 10, 64)
		if err != nil {
			return deny(fiber.StatusUnauthorized, "Invalid JWT")
		}

		c.Locals("user", id)

		return c.Next()
	}
}

// CurrentUser returns the user id set by Protected, or 0.
func CurrentUser(c *fiber.Ctx) int64 {
	id, _ := c.Locals("user").(int64)
	return id
}

func StandardInternalError(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": err.Error(),
	})
}

func StandardCouldNotParse(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "Could not parse request",
	})
}

// StandardBodyParse parses and validates the request body. When it returns a
// non-nil error the response has already been written.
func StandardBodyParse(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		if sendErr := StandardCouldNotParse(c); sendErr != nil {
			return sendErr
		}
		return ErrResponded
	}

	if errs := ValidateStruct(validate.Struct(out)); len(errs) > 0 {
		if sendErr := c.Status(fiber.StatusBadRequest).JSON(errs); sendErr != nil {
			return sendErr
		}
		return ErrResponded
	}

	return nil
}

func StandardQueryParse(c *fiber.Ctx, out interface{}) error {
	if err := c.QueryParser(out); err != nil {
		if sendErr := StandardCouldNotParse(c); sendErr != nil {
			return sendErr
		}
		return ErrResponded
	}

	if errs := ValidateStruct(validate.Struct(out)); len(errs) > 0 {
		if sendErr := c.Status(fiber.StatusBadRequest).JSON(errs); sendErr != nil {
			return sendErr
		}
		return ErrResponded
	}

	return nil
}
