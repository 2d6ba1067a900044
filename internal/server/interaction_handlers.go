package server

import (
	"appfeed/internal/models"
	"appfeed/internal/service"

	"github.com/gofiber/fiber/v2"
)

type addCommentRequest struct {
	AppID   string `json:"appId"`
	FeedID  string `json:"feedId"`
	Comment string `json:"comment"`
	UserID  string `json:"userId"`
}

type addReplyRequest struct {
	CommentID string `json:"commentId"`
	Reply     string `json:"reply"`
	UserID    string `json:"userId"`
}

// AddComment handles POST /api/feeds/addComment
func (s *Server) AddComment(c *fiber.Ctx) error {
	var req addCommentRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if _, err := s.interactions.AddComment(c.UserContext(), service.AddCommentInput{
		AppID:   tenant(c, req.AppID),
		FeedID:  req.FeedID,
		Comment: req.Comment,
		UserID:  req.UserID,
	}); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"data":           fiber.Map{},
		"successMessage": "Comment added successfully",
	})
}

// GetComments handles GET /api/feeds/getComments/:appId/:feedId
func (s *Server) GetComments(c *fiber.Ctx) error {
	comments, err := s.interactions.ListComments(c.UserContext(), tenant(c, c.Params("appId")), c.Params("feedId"))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return list(c, "comments", comments, "No comments found")
}

// GetAppComments handles GET /api/feeds/getComments/:appId. Comments are
// returned as stored, without author details.
func (s *Server) GetAppComments(c *fiber.Ctx) error {
	comments, err := s.interactions.ListCommentsByApp(c.UserContext(), tenant(c, c.Params("appId")))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return list(c, "comments", comments, "No comments found")
}

// AddReply handles POST /api/feeds/addReply
func (s *Server) AddReply(c *fiber.Ctx) error {
	var req addReplyRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if _, err := s.interactions.AddReply(c.UserContext(), service.AddReplyInput{
		CommentID: req.CommentID,
		Reply:     req.Reply,
		UserID:    req.UserID,
	}); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return success(c, "Reply added successfully")
}

// GetReplies handles GET /api/feeds/getReplies/:commentId
func (s *Server) GetReplies(c *fiber.Ctx) error {
	replies, err := s.interactions.ListReplies(c.UserContext(), c.Params("commentId"))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return list(c, "replies", replies, "No replies found")
}
