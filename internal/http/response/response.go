package response

import (
	"net/http"

	"github.com/revisit-loyalty/internal/constants"

	"github.com/gin-gonic/gin"
)

// Response 统一响应结构，HTTP 状态恒为 200，业务结果看 status_code
type Response struct {
	StatusCode int         `json:"status_code"`
	Msg        string      `json:"msg"`
	Data       interface{} `json:"data"`
}

// PageResponse 列表响应
type PageResponse struct {
	Response
	Pagination Pagination `json:"pagination"`
}

// Pagination 分页信息
type Pagination struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"page_size"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"total_page"`
	HasMore   bool  `json:"has_more"`
}

// Success 成功
func Success(c *gin.Context, data interface{}) {
	SuccessWithMsg(c, "success", data)
}

// SuccessWithMsg 成功并附带提示文案
func SuccessWithMsg(c *gin.Context, msg string, data interface{}) {
	c.JSON(http.StatusOK, Response{StatusCode: CodeOK, Msg: msg, Data: data})
}

// SuccessWithPage 列表成功
func SuccessWithPage(c *gin.Context, data interface{}, pagination Pagination) {
	c.JSON(http.StatusOK, PageResponse{
		Response:   Response{StatusCode: CodeOK, Msg: "success", Data: data},
		Pagination: pagination,
	})
}

// Reject 失败响应；data 为空且存在请求 ID 时只回写 request_id
func Reject(c *gin.Context, code int, msg string, data gin.H) {
	if id := requestID(c); id != "" {
		if data == nil {
			data = gin.H{}
		}
		if _, exists := data["request_id"]; !exists {
			data["request_id"] = id
		}
	}
	var payload interface{}
	if data != nil {
		payload = data
	}
	c.JSON(http.StatusOK, Response{StatusCode: code, Msg: msg, Data: payload})
}

// NewPagination 根据总数计算分页信息
func NewPagination(page, pageSize int, total int64) Pagination {
	p := Pagination{Page: page, PageSize: pageSize, Total: total}
	if pageSize > 0 {
		p.TotalPage = (total + int64(pageSize) - 1) / int64(pageSize)
	}
	p.HasMore = int64(page) < p.TotalPage
	return p
}

func requestID(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(constants.ContextKeyRequestID)
}
