package server

import (
	"appfeed/internal/models"
	"appfeed/internal/service"

	"github.com/gofiber/fiber/v2"
)

type signUpRequest struct {
	AppID    string `json:"appId"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type signInRequest struct {
	AppID    string `json:"appId"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type updateLocationRequest struct {
	AppID     string `json:"appId"`
	UserID    string `json:"userId"`
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
}

type updateProfileRequest struct {
	AppID        string `json:"appId"`
	UserID       string `json:"userId"`
	Name         string `json:"name"`
	Bio          string `json:"bio"`
	ProfileImage string `json:"profileImage"`
}

// SignUp handles POST /api/user/signUp
func (s *Server) SignUp(c *fiber.Ctx) error {
	var req signUpRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	user, err := s.identity.SignUp(c.UserContext(), service.SignUpInput{
		AppID:    tenant(c, req.AppID),
		Username: req.Username,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"user": user})
}

// SignIn handles POST /api/user/signIn
func (s *Server) SignIn(c *fiber.Ctx) error {
	var req signInRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	user, err := s.identity.SignIn(c.UserContext(), service.SignInInput{
		AppID:    tenant(c, req.AppID),
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"user": user})
}

// GetAllUsers handles GET /api/user/getUsers/:appId
func (s *Server) GetAllUsers(c *fiber.Ctx) error {
	users, err := s.identity.ListUsers(c.UserContext(), tenant(c, c.Params("appId")))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return list(c, "allUsers", users, "No users found")
}

// GetFeedUsers handles GET /api/feeds/getUsers/:appId, the feeds-router
// alias of GetAllUsers.
func (s *Server) GetFeedUsers(c *fiber.Ctx) error {
	users, err := s.identity.ListUsers(c.UserContext(), tenant(c, c.Params("appId")))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return list(c, "users", users, "No users found")
}

// UpdateLocation handles POST /api/user/updateLocation
func (s *Server) UpdateLocation(c *fiber.Ctx) error {
	var req updateLocationRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if err := s.identity.UpdateLocation(c.UserContext(), service.UpdateLocationInput{
		AppID:     tenant(c, req.AppID),
		UserID:    req.UserID,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	}); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return success(c, "Location updated successfully")
}

// GetProfile handles GET /api/user/getProfile/:userId/:appId. A miss keeps
// the historical 400 with an empty user list.
func (s *Server) GetProfile(c *fiber.Ctx) error {
	users, err := s.identity.GetProfile(c.UserContext(), c.Params("userId"), tenant(c, c.Params("appId")))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	if len(users) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"user":         []models.User{},
			"errorMessage": "No user found",
			"code":         models.CodeNotFound,
		})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"user": users})
}

// UpdateProfile handles POST /api/user/updateProfile
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	var req updateProfileRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if err := s.identity.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		AppID:        tenant(c, req.AppID),
		UserID:       req.UserID,
		Name:         req.Name,
		Bio:          req.Bio,
		ProfileImage: req.ProfileImage,
	}); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return success(c, "Profile updated successfully")
}
