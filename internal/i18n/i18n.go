// Package i18n 接口提示文案
package i18n

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	LocalePTBR    = "pt-BR"
	LocaleENUS    = "en-US"
	DefaultLocale = LocalePTBR
)

var catalogs = map[string]map[string]string{
	LocalePTBR: ptBR,
	LocaleENUS: enUS,
}

// T 按语言取文案，缺失时回退到默认语言，再回退到 key 本身
func T(locale, key string) string {
	if msgs, ok := catalogs[normalize(locale)]; ok {
		if msg, ok := msgs[key]; ok {
			return msg
		}
	}
	if msg, ok := catalogs[DefaultLocale][key]; ok {
		return msg
	}
	return key
}

// Sprintf 取文案后格式化
func Sprintf(locale, key string, args ...interface{}) string {
	return fmt.Sprintf(T(locale, key), args...)
}

// ResolveLocale 从 ?lang= 或 Accept-Language 解析语言
func ResolveLocale(c *gin.Context) string {
	if c == nil {
		return DefaultLocale
	}
	if locale, ok := match(c.Query("lang")); ok {
		return locale
	}
	for _, part := range strings.Split(c.GetHeader("Accept-Language"), ",") {
		if locale, ok := match(strings.SplitN(part, ";", 2)[0]); ok {
			return locale
		}
	}
	return DefaultLocale
}

func normalize(locale string) string {
	if matched, ok := match(locale); ok {
		return matched
	}
	return DefaultLocale
}

func match(tag string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(tag))
	switch {
	case strings.HasPrefix(lower, "en"):
		return LocaleENUS, true
	case strings.HasPrefix(lower, "pt"):
		return LocalePTBR, true
	default:
		return "", false
	}
}
