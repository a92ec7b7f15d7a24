package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"gatehouse/api/middleware"
	"gatehouse/internal/dto"
	"gatehouse/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type AuthHandler struct {
	Service  *service.AuthService
	Validate *validator.Validate
	Logger   logrus.FieldLogger
}

func NewAuthHandler(svc *service.AuthService, validate *validator.Validate, logger logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{
		Service:  svc,
		Validate: validate,
		Logger:   logger,
	}
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req dto.RegisterRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := h.validate(req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	input := service.RegisterInput{Email: req.Email, Password: req.Password}
	user, err := h.Service.Register(c.Request().Context(), input)
	if err != nil {
		return h.writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, dto.RegisterResponse{
		UserID:     user.ID,
		Email:      user.Email,
		IsVerified: user.IsVerified,
	})
}

func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	var req dto.VerifyEmailRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := h.validate(req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := h.Service.VerifyEmail(c.Request().Context(), req.UserID, req.Code); err != nil {
		return h.writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req dto.LoginRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := h.validate(req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	input := service.LoginInput{Email: req.Email, Password: req.Password}
	result, err := h.Service.Login(c.Request().Context(), input)
	if err != nil {
		return h.writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, mapLoginResponse(result))
}

func (h *AuthHandler) VerifyLogin2FA(c echo.Context) error {
	var req dto.Verify2FARequest
	if err := decodeJSON(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := h.validate(req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	result, err := h.Service.VerifyLogin2FA(c.Request().Context(), req.LoginID, req.Code)
	if err != nil {
		return h.writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, mapLoginResponse(result))
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	var req dto.RefreshRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := h.validate(req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	result, err := h.Service.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return h.writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, mapLoginResponse(result))
}

func (h *AuthHandler) Logout(c echo.Context) error {
	var req dto.LogoutRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := h.validate(req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := h.Service.Logout(c.Request().Context(), req.RefreshToken); err != nil {
		return h.writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) LogoutAll(c echo.Context) error {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	if err := h.Service.LogoutAll(c.Request().Context(), userID); err != nil {
		return h.writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) PasswordForgot(c echo.Context) error {
	var req dto.PasswordForgotRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := h.validate(req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := h.Service.ForgotPassword(c.Request().Context(), req.Email); err != nil {
		return h.writeServiceError(c, err)
	}
	// Same response whether or not the account exists.
	return c.JSON(http.StatusAccepted, map[string]string{
		"message": "if the account exists, a reset email has been sent",
	})
}

func (h *AuthHandler) PasswordReset(c echo.Context) error {
	var req dto.PasswordResetRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := h.validate(req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := h.Service.ResetPassword(c.Request().Context(), req.Token, req.NewPassword); err != nil {
		return h.writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) Me(c echo.Context) error {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	user, err := h.Service.GetCurrentUser(c.Request().Context(), userID)
	if err != nil {
		return h.writeServiceError(c, err)
	}
	if user == nil {
		return writeError(c, http.StatusNotFound, errors.New("user not found"))
	}
	return c.JSON(http.StatusOK, dto.UserResponseFromEntity(user))
}

func (h *AuthHandler) validate(payload any) error {
	if h.Validate == nil {
		return nil
	}
	return h.Validate.Struct(payload)
}

func (h *AuthHandler) writeServiceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return writeError(c, http.StatusBadRequest, err)
	case errors.Is(err, service.ErrEmailAlreadyRegistered):
		return writeError(c, http.StatusConflict, err)
	case errors.Is(err, service.ErrInvalidCredentials):
		return writeError(c, http.StatusUnauthorized, err)
	case errors.Is(err, service.ErrEmailNotVerified):
		return writeError(c, http.StatusForbidden, err)
	case errors.Is(err, service.ErrSecretNotFound),
		errors.Is(err, service.ErrInvalidSecret),
		errors.Is(err, service.ErrSecretExpired),
		errors.Is(err, service.ErrSecretExhausted),
		errors.Is(err, service.ErrWrongPurpose):
		return writeError(c, http.StatusBadRequest, err)
	case errors.Is(err, service.ErrInvalidOrExpiredToken):
		return writeError(c, http.StatusUnauthorized, err)
	case errors.Is(err, service.ErrUserNotFound):
		return writeError(c, http.StatusNotFound, err)
	}
	// Collaborator failures and programming errors: log the detail, return a
	// generic body.
	if h.Logger != nil {
		h.Logger.WithError(err).Error("internal error")
	}
	return writeError(c, http.StatusInternalServerError, errors.New("internal error"))
}

func decodeJSON(c echo.Context, target any) error {
	decoder := json.NewDecoder(c.Request().Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeError(c echo.Context, status int, err error) error {
	return c.JSON(status, map[string]string{"message": err.Error()})
}

func mapLoginResponse(result *service.LoginResult) *dto.LoginResponse {
	if result == nil {
		return &dto.LoginResponse{}
	}
	if result.TwoFARequired {
		return &dto.LoginResponse{
			TwoFARequired: true,
			LoginID:       result.LoginID,
		}
	}
	return &dto.LoginResponse{
		TokenType:        "bearer",
		AccessToken:      result.AccessToken,
		ExpiresIn:        result.ExpiresIn,
		RefreshToken:     result.RefreshToken,
		RefreshExpiresIn: result.RefreshExpiresIn,
	}
}
