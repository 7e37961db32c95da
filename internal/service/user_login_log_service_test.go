package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/beanpass/internal/constants"
	"github.com/beanpass/internal/repository"
)

func TestUserLoginLogRecordNormalizes(t *testing.T) {
	f := newServiceFixture(t, "login_log")
	svc := NewUserLoginLogService(repository.NewUserLoginLogRepository(f.db))

	if err := svc.Record(RecordLoginInput{
		UserID:    7,
		Email:     " Ana@Example.com ",
		Status:    "SUCCESS",
		UserAgent: strings.Repeat("a", 300),
		ClientIP:  " 10.0.0.1 ",
	}); err != nil {
		t.Fatalf("record success failed: %v", err)
	}
	if err := svc.Record(RecordLoginInput{UserID: 7, Email: "ana@example.com", Status: "weird"}); err != nil {
		t.Fatalf("record failure failed: %v", err)
	}

	logs, total, err := svc.ListByUser(7, 1, 20)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 2 || len(logs) != 2 {
		t.Fatalf("want 2 logs, got total=%d len=%d", total, len(logs))
	}
	// 倒序：最新一条为失败记录
	if logs[0].Status != constants.LoginLogStatusFailed || logs[0].FailReason != constants.LoginLogFailReasonInternalError {
		t.Fatalf("unknown status should become failed/internal_error, got %+v", logs[0])
	}
	success := logs[1]
	if success.Email != "ana@example.com" || success.FailReason != "" || success.ClientIP != "10.0.0.1" {
		t.Fatalf("unexpected success log: %+v", success)
	}
	if len(success.UserAgent) != maxUserAgentLength || success.Source != constants.LoginLogSourceAPI {
		t.Fatalf("user agent should be truncated and source set, got len=%d source=%s", len(success.UserAgent), success.Source)
	}
}

func TestUserLoginLogListRequiresUser(t *testing.T) {
	svc := NewUserLoginLogService(nil)
	if _, _, err := svc.ListByUser(0, 1, 20); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("want unauthenticated, got %v", err)
	}
	if err := svc.Record(RecordLoginInput{Email: "x@example.com"}); err != nil {
		t.Fatalf("record without repo should be a no-op, got %v", err)
	}
}
