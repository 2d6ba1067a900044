package server

import (
	"appfeed/internal/models"
	"appfeed/internal/service"

	"github.com/gofiber/fiber/v2"
)

type addFeedRequest struct {
	AppID   string `json:"appId"`
	Caption string `json:"caption"`
	Image   string `json:"image"`
	UserID  string `json:"userId"`
}

type likeFeedRequest struct {
	AppID  string `json:"appId"`
	FeedID string `json:"feedId"`
	UserID string `json:"userId"`
}

type deleteFeedRequest struct {
	FeedID string `json:"feedId"`
}

// AddFeed handles POST /api/feeds/addFeed. Only a message is returned, never
// the stored feed.
func (s *Server) AddFeed(c *fiber.Ctx) error {
	var req addFeedRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if _, err := s.feeds.CreateFeed(c.UserContext(), service.CreateFeedInput{
		AppID:   tenant(c, req.AppID),
		Caption: req.Caption,
		Image:   req.Image,
		UserID:  req.UserID,
	}); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return success(c, "Feed added successfully")
}

// GetFeeds handles GET /api/feeds/getFeeds/:appId
func (s *Server) GetFeeds(c *fiber.Ctx) error {
	feeds, err := s.feeds.ListFeeds(c.UserContext(), tenant(c, c.Params("appId")))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return list(c, "feeds", feeds, "No feeds found!")
}

// GetMyFeeds handles GET /api/feeds/getMyFeeds/:appId/:userId
func (s *Server) GetMyFeeds(c *fiber.Ctx) error {
	feeds, err := s.feeds.ListFeedsByUser(c.UserContext(), tenant(c, c.Params("appId")), c.Params("userId"))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return list(c, "feeds", feeds, "No feeds found!")
}

// LikeFeed handles POST /api/feeds/likeFeed
func (s *Server) LikeFeed(c *fiber.Ctx) error {
	var req likeFeedRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	liked, err := s.feeds.ToggleLike(c.UserContext(), service.ToggleLikeInput{
		FeedID: req.FeedID,
		AppID:  tenant(c, req.AppID),
		UserID: req.UserID,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"successMessage": "Feed likes handled successfully",
		"liked":          liked,
	})
}

// DeleteFeed handles DELETE /api/feeds/deleteFeed with the feed id in the
// body. A missing feed still succeeds.
func (s *Server) DeleteFeed(c *fiber.Ctx) error {
	var req deleteFeedRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if _, err := s.feeds.DeleteFeed(c.UserContext(), req.FeedID); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return success(c, "Feed deleted successfully")
}
