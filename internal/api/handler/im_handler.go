package handler

import (
	"Courier/internal/pkg/response"
	"Courier/internal/service"

	"github.com/gin-gonic/gin"
)

type IMHandler struct {
	imService service.IMService
}

func NewIMHandler(imService service.IMService) *IMHandler {
	return &IMHandler{imService: imService}
}

// GetOnlineUsers 当前进程内在线用户 ID 列表
func (s *IMHandler) GetOnlineUsers(c *gin.Context) {
	response.Success(c, gin.H{
		"users": s.imService.ListOnline(),
	})
}
