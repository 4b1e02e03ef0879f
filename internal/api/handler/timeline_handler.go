package handler

import (
	"Ripple/internal/pkg/response"
	"Ripple/internal/service"
	"strconv"

	"github.com/gin-gonic/gin"
)

const defaultPageSize = 50

type TimelineHandler struct {
	feedSvc service.FeedService
}

func NewTimelineHandler(feedSvc service.FeedService) *TimelineHandler {
	return &TimelineHandler{feedSvc: feedSvc}
}

// parseRange 解析 start/end 查询参数，默认取第一页
func parseRange(c *gin.Context) (int64, int64) {
	start, err := strconv.ParseInt(c.Query("start"), 10, 64)
	if err != nil {
		start = 0
	}
	end, err := strconv.ParseInt(c.Query("end"), 10, 64)
	if err != nil {
		end = start + defaultPageSize - 1
	}
	return start, end
}

// GetGlobal 热度排序的全局时间线
func (s *TimelineHandler) GetGlobal(c *gin.Context) {
	start, end := parseRange(c)
	posts, err := s.feedSvc.GetGlobalTimeline(c.Request.Context(), start, end)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, posts)
}

// GetHome 当前用户的首页时间线，空时回落到全局时间线
func (s *TimelineHandler) GetHome(c *gin.Context) {
	start, end := parseRange(c)
	userID := c.GetString("user_id")
	posts, err := s.feedSvc.GetHomeTimeline(c.Request.Context(), userID, start, end)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, posts)
}

// GetAuthor 指定作者的帖子时间线
func (s *TimelineHandler) GetAuthor(c *gin.Context) {
	start, end := parseRange(c)
	posts, err := s.feedSvc.GetAuthorTimeline(c.Request.Context(), c.Param("user_id"), start, end)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, posts)
}
