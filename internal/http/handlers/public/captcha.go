package public

import (
	"strings"

	"github.com/revisit-loyalty/internal/http/handlers/shared"
	"github.com/revisit-loyalty/internal/http/response"
	"github.com/revisit-loyalty/internal/service"

	"github.com/gin-gonic/gin"
)

// CaptchaFields 注册请求携带的图片验证码答案
type CaptchaFields struct {
	CaptchaID   string `json:"captcha_id"`
	CaptchaCode string `json:"captcha_code"`
}

func (f CaptchaFields) payload() service.CaptchaPayload {
	return service.CaptchaPayload{
		CaptchaID:   strings.TrimSpace(f.CaptchaID),
		CaptchaCode: strings.TrimSpace(f.CaptchaCode),
	}
}

// captchaResponse 未启用时只返回 enabled=false
type captchaResponse struct {
	Enabled bool `json:"enabled"`
	*service.CaptchaChallenge
}

// GetImageCaptcha 下发注册用图片验证码
func (h *Handler) GetImageCaptcha(c *gin.Context) {
	if h.CaptchaService == nil || !h.CaptchaService.Enabled() {
		response.Success(c, captchaResponse{})
		return
	}
	challenge, err := h.CaptchaService.Generate()
	if err != nil {
		shared.RespondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, captchaResponse{Enabled: true, CaptchaChallenge: challenge})
}
