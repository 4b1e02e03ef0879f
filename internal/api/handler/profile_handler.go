package handler

import (
	"Ripple/internal/api/dto"
	"Ripple/internal/pkg/response"
	"Ripple/internal/service"

	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	profileSvc service.ProfileService
}

func NewProfileHandler(profileSvc service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileSvc: profileSvc}
}

// Register 注册新用户
func (s *ProfileHandler) Register(c *gin.Context) {
	var req dto.RegisterDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}

	profile, err := s.profileSvc.CreateProfile(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, profile)
}

// Login 用户名或邮箱登录
func (s *ProfileHandler) Login(c *gin.Context) {
	var req struct {
		Account  string `json:"account"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}

	token, profile, err := s.profileSvc.Login(c.Request.Context(), req.Account, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{
		"token":   token,
		"profile": profile,
	})
}

// GetProfile 按 ID 查资料
func (s *ProfileHandler) GetProfile(c *gin.Context) {
	profile, err := s.profileSvc.GetProfile(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, profile)
}

// GetProfileByUsername 按用户名查资料
func (s *ProfileHandler) GetProfileByUsername(c *gin.Context) {
	profile, err := s.profileSvc.GetProfileByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, profile)
}

// SearchUsernames 用户名子串检索
func (s *ProfileHandler) SearchUsernames(c *gin.Context) {
	usernames, err := s.profileSvc.SearchUsernames(c.Request.Context(), c.Query("q"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, usernames)
}

// DeleteProfile 注销当前登录用户
func (s *ProfileHandler) DeleteProfile(c *gin.Context) {
	userID := c.GetString("user_id")
	if err := s.profileSvc.DeleteProfile(c.Request.Context(), userID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
