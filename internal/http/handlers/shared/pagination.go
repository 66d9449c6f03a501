package shared

import "github.com/gin-gonic/gin"

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ReadPagination 读取 page/page_size 查询参数，page_size 上限 100
func ReadPagination(c *gin.Context) (int, int) {
	page := QueryInt(c, "page", 1)
	pageSize := QueryInt(c, "page_size", defaultPageSize)
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}
