package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/estateline/crm-api/internal/core/ports"
)

// UserHandler exposes the account administration and self-service endpoints.
type UserHandler struct {
	userService ports.UserService
}

func NewUserHandler(userService ports.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

type updateUserRequest struct {
	Name      string `json:"name"      validate:"required"`
	Email     string `json:"email"     validate:"required,email"`
	Password  string `json:"password"  validate:"omitempty,min=6"`
	Role      string `json:"role"      validate:"required,oneof=admin manager user"`
	ManagerID string `json:"managerId"`
}

type updateProfileRequest struct {
	Name     string `json:"name"     validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"omitempty,min=6"`
}

// All handles GET /api/auth/all (admin only).
//
// @Summary      List all users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        search  query     string  false  "Name or email substring"
// @Param        role    query     string  false  "Filter by role"
// @Success      200     {array}   domain.User
// @Failure      403     {object}  map[string]string
// @Router       /api/auth/all [get]
func (h *UserHandler) All(c echo.Context) error {
	users, err := h.userService.ListUsers(c.Request().Context(), ports.ListUsersFilter{
		Search: c.QueryParam("search"),
		Role:   c.QueryParam("role"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

// Managers handles GET /api/auth/managers.
//
// @Summary      List managers
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  domain.User
// @Router       /api/auth/managers [get]
func (h *UserHandler) Managers(c echo.Context) error {
	managers, err := h.userService.Managers(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, managers)
}

// AvailableUsers handles GET /api/auth/available-users. Managers see only
// their own team.
//
// @Summary      List assignable agents
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.User
// @Failure      403  {object}  map[string]string
// @Router       /api/auth/available-users [get]
func (h *UserHandler) AvailableUsers(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	users, err := h.userService.AvailableUsers(c.Request().Context(), caller)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

// Update handles PUT /api/auth/:id (admin only).
//
// @Summary      Edit a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "User ID"
// @Param        body  body      updateUserRequest  true  "Updated user details"
// @Success      200   {object}  domain.User
// @Failure      404   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /api/auth/{id} [put]
func (h *UserHandler) Update(c echo.Context) error {
	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	user, err := h.userService.UpdateUser(c.Request().Context(), ports.UpdateUserInput{
		ID:        c.Param("id"),
		Name:      req.Name,
		Email:     req.Email,
		Password:  req.Password,
		Role:      req.Role,
		ManagerID: req.ManagerID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Profile handles PUT /api/auth/profile, the self-service subset of an edit.
//
// @Summary      Update own profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateProfileRequest  true  "Updated profile"
// @Success      200   {object}  domain.User
// @Failure      422   {object}  map[string]string
// @Router       /api/auth/profile [put]
func (h *UserHandler) Profile(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	user, err := h.userService.UpdateProfile(c.Request().Context(), ports.UpdateProfileInput{
		UserID:   caller.UserID,
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}
