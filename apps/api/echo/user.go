package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/topsell/tams/core/user"
)

const (
	registeredMsg    = "User registered and verified successfully"
	resetRequestMsg  = "If the email address supplied is associated with an account on this system, an email will arrive in your inbox shortly with instructions to reset your password."
	resetConfirmMsg  = "Password has been reset with the new password."
	registrationFail = "Server is not configured for auto-verified registration"
)

type authApi struct {
	auth     *authenticator
	svc      user.Service
	validate *validator.Validate
}

func registerAuthAPI(g *echo.Group, jwt echo.MiddlewareFunc, auth *authenticator, svc user.Service, validate *validator.Validate) {
	api := authApi{auth: auth, svc: svc, validate: validate}

	ag := g.Group("/auth")

	// un-authed endpoints
	ag.GET("/status", api.status)
	ag.POST("/register", api.register)
	ag.POST("/login", api.login)
	ag.POST("/logout", api.logout)
	ag.POST("/password-reset", api.resetPassword)
	ag.POST("/password-reset-confirm", api.confirmPasswordReset)

	// authed endpoints
	ag.POST("/token-refresh", api.refreshToken, jwt)
	ag.GET("/me", api.me, jwt)
}

// Handlers

func (api *authApi) status(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, StatusResponse{OK: true, Configured: api.svc.Configured()})
}

func (api *authApi) register(ctx echo.Context) error {
	if !api.svc.Configured() {
		return echo.NewHTTPError(http.StatusInternalServerError, registrationFail)
	}

	var data user.RegisterUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RegisterUser")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	reg, err := api.svc.Register(ctx.Request().Context(), data)
	if err != nil {
		if errors.Cause(err) == user.ErrRegistrationDisabled {
			return echo.NewHTTPError(http.StatusInternalServerError, registrationFail)
		}
		return errors.Wrap(err, "registering user")
	}

	return ctx.JSON(http.StatusOK, RegisterResponse{
		Success: true,
		Message: registeredMsg,
		User:    reg.User,
		Warning: reg.Warning,
	})
}

func (api *authApi) login(ctx echo.Context) error {
	var data user.LoginUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginUser")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, token, err := api.auth.authenticate(ctx, data.Email, data.Password, api.svc)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token, User: usr})
}

// logout is a no-op: tokens are stateless and dropped by the client.
func (api *authApi) logout(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: true})
}

func (api *authApi) refreshToken(ctx echo.Context) error {
	token, err := api.auth.refreshToken(ctx, api.svc)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, TokenResponse{Token: token})
}

func (api *authApi) me(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *authApi) resetPassword(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.RequestPasswordReset(ctx.Request().Context(), data.Email); err != nil {
		// do not return errors to attackers
		ctx.Logger().Errorf("%+v", errors.Wrap(err, "requesting password reset"))
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: true, Message: resetRequestMsg})
}

func (api *authApi) confirmPasswordReset(ctx echo.Context) error {
	var data user.ResetUserPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetUserPassword")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.ResetPassword(ctx.Request().Context(), data); err != nil {
		if errors.Cause(err) == user.ErrInvalidResetLink {
			return echo.NewHTTPError(http.StatusBadRequest, user.ErrInvalidResetLink.Error())
		}
		return errors.Wrap(err, "resetting password")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: true, Message: resetConfirmMsg})
}
