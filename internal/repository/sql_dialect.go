package repository

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// dbDialectName 获取数据库方言名称，默认按 sqlite 处理。
func dbDialectName(db *gorm.DB) string {
	if db == nil || db.Dialector == nil {
		return "sqlite"
	}
	name := strings.ToLower(strings.TrimSpace(db.Dialector.Name()))
	if name == "" {
		return "sqlite"
	}
	return name
}

// likeOperator postgres 使用 ILIKE 保持大小写不敏感
func likeOperator(dialect string) string {
	switch strings.ToLower(strings.TrimSpace(dialect)) {
	case "postgres", "postgresql":
		return "ILIKE"
	default:
		return "LIKE"
	}
}

// escapeLike 转义关键字中的 LIKE 通配符
func escapeLike(keyword string) string {
	return likeEscaper.Replace(keyword)
}

// keywordCondition 构建多列模糊匹配条件及参数
func keywordCondition(dialect, keyword string, columns []string) (string, []interface{}) {
	pattern := "%" + escapeLike(strings.TrimSpace(keyword)) + "%"
	operator := likeOperator(dialect)
	parts := make([]string, 0, len(columns))
	args := make([]interface{}, 0, len(columns))
	for _, column := range columns {
		trimmed := strings.TrimSpace(column)
		if trimmed == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf(`%s %s ? ESCAPE '\'`, trimmed, operator))
		args = append(args, pattern)
	}
	return strings.Join(parts, " OR "), args
}

// keywordScope 关键字为空时不附加条件
func keywordScope(keyword string, columns ...string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if strings.TrimSpace(keyword) == "" {
			return db
		}
		condition, args := keywordCondition(dbDialectName(db), keyword, columns)
		if condition == "" {
			return db
		}
		return db.Where("("+condition+")", args...)
	}
}
