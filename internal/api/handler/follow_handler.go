package handler

import (
	"Ripple/internal/pkg/response"
	"Ripple/internal/service"

	"github.com/gin-gonic/gin"
)

type FollowHandler struct {
	feedSvc service.FeedService
}

func NewFollowHandler(feedSvc service.FeedService) *FollowHandler {
	return &FollowHandler{feedSvc: feedSvc}
}

// Follow 关注指定用户
func (s *FollowHandler) Follow(c *gin.Context) {
	followerID := c.GetString("user_id")
	if err := s.feedSvc.Follow(c.Request.Context(), c.Param("user_id"), followerID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// Unfollow 取关指定用户，重复取关是空操作
func (s *FollowHandler) Unfollow(c *gin.Context) {
	followerID := c.GetString("user_id")
	if err := s.feedSvc.Unfollow(c.Request.Context(), c.Param("user_id"), followerID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// GetFollowers 指定用户的关注者列表
func (s *FollowHandler) GetFollowers(c *gin.Context) {
	followers, err := s.feedSvc.GetFollowers(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, followers)
}

// GetFollowings 指定用户关注的账号列表
func (s *FollowHandler) GetFollowings(c *gin.Context) {
	followings, err := s.feedSvc.GetFollowing(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, followings)
}

// IsFollowing 当前用户是否关注了指定用户
func (s *FollowHandler) IsFollowing(c *gin.Context) {
	followerID := c.GetString("user_id")
	following, err := s.feedSvc.IsFollowing(c.Request.Context(), followerID, c.Param("user_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"is_following": following})
}
