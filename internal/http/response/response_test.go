package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestCallableErrorEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodPost, "/qr/issue", nil)
	c.Set("request_id", "req-1")

	CallableError(c, CallableFailedPrecondition, "Subscription has expired")

	var body struct {
		StatusCode int               `json:"status_code"`
		Msg        string            `json:"msg"`
		Data       map[string]string `json:"data"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body failed: %v", err)
	}
	if body.StatusCode != CodePreconditionFailed {
		t.Fatalf("unexpected status code: %d", body.StatusCode)
	}
	if body.Data["code"] != CallableFailedPrecondition || body.Data["message"] != "Subscription has expired" {
		t.Fatalf("unexpected data: %+v", body.Data)
	}
	if body.Data["request_id"] != "req-1" {
		t.Fatalf("expected request id attached, got %+v", body.Data)
	}
}

func TestStatusForCallableUnknown(t *testing.T) {
	if got := StatusForCallable("bogus"); got != CodeInternal {
		t.Fatalf("unknown callable should map to internal, got %d", got)
	}
	if got := StatusForCallable(CallablePermissionDenied); got != CodeForbidden {
		t.Fatalf("permission-denied should map to 403, got %d", got)
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	root := errors.New("db down")
	appErr := WrapError(CallableInternal, "Failed to load cafe", root)
	if !errors.Is(appErr, root) {
		t.Fatalf("expected wrapped error to unwrap")
	}
	if appErr.Error() != "Failed to load cafe: db down" {
		t.Fatalf("unexpected message: %s", appErr.Error())
	}
}

func TestBuildPagination(t *testing.T) {
	got := BuildPagination(2, 20, 41)
	if got.TotalPage != 3 || got.Page != 2 || got.Total != 41 {
		t.Fatalf("unexpected pagination: %+v", got)
	}
	if BuildPagination(1, 0, 10).TotalPage != 0 {
		t.Fatalf("zero page size should yield zero pages")
	}
}
