package handler

import (
	"Ripple/internal/api/dto"
	"Ripple/internal/pkg/response"
	"Ripple/internal/service"

	"github.com/gin-gonic/gin"
)

type PostHandler struct {
	feedSvc service.FeedService
}

func NewPostHandler(feedSvc service.FeedService) *PostHandler {
	return &PostHandler{feedSvc: feedSvc}
}

// CreatePost 发帖，带未来 scheduled_time 的帖子延迟发布
func (s *PostHandler) CreatePost(c *gin.Context) {
	var req dto.PostCreateDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}

	authorID := c.GetString("user_id")
	post, err := s.feedSvc.CreatePost(c.Request.Context(), authorID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, post)
}

// UpdatePost 编辑自己的帖子
func (s *PostHandler) UpdatePost(c *gin.Context) {
	var req dto.PostCreateDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}

	authorID := c.GetString("user_id")
	if err := s.feedSvc.UpdatePost(c.Request.Context(), authorID, c.Param("post_id"), &req); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// DeletePost 删除自己的帖子
func (s *PostHandler) DeletePost(c *gin.Context) {
	authorID := c.GetString("user_id")
	if err := s.feedSvc.DeletePost(c.Request.Context(), authorID, c.Param("post_id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// GetPost 帖子详情
func (s *PostHandler) GetPost(c *gin.Context) {
	post, err := s.feedSvc.GetPost(c.Request.Context(), c.Param("post_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, post)
}

// RecordEngagement 互动计数上报
func (s *PostHandler) RecordEngagement(c *gin.Context) {
	var req dto.EngagementDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}

	err := s.feedSvc.RecordEngagement(c.Request.Context(), c.Param("post_id"), req.Counter, req.Delta)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
