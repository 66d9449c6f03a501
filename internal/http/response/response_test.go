package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/revisit-loyalty/internal/constants"

	"github.com/gin-gonic/gin"
)

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body failed: %v", err)
	}
	return body
}

func TestFailWritesTagAndRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Set(constants.ContextKeyRequestID, "req-1")

	appErr := WrapError(CodeConflict, "Saldo insuficiente", nil).WithTag("insufficient_points", nil)
	Fail(c, appErr)

	if w.Code != http.StatusOK {
		t.Fatalf("http status want 200 got %d", w.Code)
	}
	body := decodeBody(t, w)
	if int(body["status_code"].(float64)) != CodeConflict {
		t.Fatalf("unexpected status_code: %v", body["status_code"])
	}
	data := body["data"].(map[string]interface{})
	if data["error"] != "insufficient_points" || data["request_id"] != "req-1" {
		t.Fatalf("unexpected data: %+v", data)
	}
}

func TestFailWithoutTagOmitsPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	Fail(c, WrapError(CodeInternal, "boom", errors.New("db down")))

	body := decodeBody(t, w)
	if body["data"] != nil {
		t.Fatalf("expected nil data, got %+v", body["data"])
	}
}

func TestAppErrorMessageAndUnwrap(t *testing.T) {
	cause := errors.New("db down")
	appErr := WrapError(CodeInternal, "Erro interno", cause).WithTag("internal_error", map[string]string{"phone": "customer_phone_invalid"})
	if !errors.Is(appErr, cause) {
		t.Fatalf("expected unwrap to reach cause")
	}
	if appErr.Error() != "internal_error: Erro interno: db down" {
		t.Fatalf("unexpected error text: %s", appErr.Error())
	}
	payload := appErr.Payload()
	fields, ok := payload["fields"].(map[string]string)
	if !ok || fields["phone"] != "customer_phone_invalid" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, 20, 41)
	if p.TotalPage != 3 || p.Page != 2 || p.Total != 41 || !p.HasMore {
		t.Fatalf("unexpected pagination: %+v", p)
	}
	if NewPagination(3, 20, 41).HasMore {
		t.Fatalf("last page must not report more")
	}
	if NewPagination(1, 0, 10).TotalPage != 0 {
		t.Fatalf("zero page size should yield zero pages")
	}
}

func TestSuccessWithPageFlattensEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	SuccessWithPage(c, []string{"a"}, NewPagination(1, 20, 1))

	body := decodeBody(t, w)
	if int(body["status_code"].(float64)) != CodeOK || body["msg"] != "success" {
		t.Fatalf("unexpected envelope: %+v", body)
	}
	pagination, ok := body["pagination"].(map[string]interface{})
	if !ok || pagination["total"].(float64) != 1 || pagination["has_more"] != false {
		t.Fatalf("unexpected pagination: %+v", body["pagination"])
	}
}

func TestRejectAddsRequestIDWithoutData(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Set(constants.ContextKeyRequestID, "req-9")

	Reject(c, CodeNotFound, "not found", nil)

	data, ok := decodeBody(t, w)["data"].(map[string]interface{})
	if !ok || data["request_id"] != "req-9" {
		t.Fatalf("unexpected data: %+v", data)
	}
}
