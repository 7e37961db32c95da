package shared

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"
)

var errInvalidCallableValue = errors.New("invalid callable value")

// CallableID 可调用接口中的 ID，兼容字符串与数字两种写法，空值视为 0
type CallableID uint

// UnmarshalJSON 解析 "12" / 12 / "" / null
func (id *CallableID) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(bytes.Trim(b, `"`)))
	if raw == "" || raw == "null" {
		*id = 0
		return nil
	}
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return errInvalidCallableValue
	}
	*id = CallableID(value)
	return nil
}

// Ptr 非零时返回指针，用于可选字段
func (id *CallableID) Ptr() *uint {
	if id == nil || *id == 0 {
		return nil
	}
	value := uint(*id)
	return &value
}

// FormatID 以字符串形式输出 ID
func FormatID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// CallableTime 可调用接口中的时间，兼容毫秒时间戳（数字或字符串）与 RFC3339 字符串
type CallableTime struct {
	time.Time
	Set bool
}

// UnmarshalJSON 解析时间字段，null 或空串表示未提供
func (t *CallableTime) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var text string
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &text); err != nil {
			return err
		}
	} else {
		text = string(b)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if millis, err := strconv.ParseInt(text, 10, 64); err == nil {
		t.Time = time.UnixMilli(millis)
		t.Set = true
		return nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, text)
	if err != nil {
		return errInvalidCallableValue
	}
	t.Time = parsed
	t.Set = true
	return nil
}

// Ptr 已提供时返回指针
func (t CallableTime) Ptr() *time.Time {
	if !t.Set {
		return nil
	}
	value := t.Time
	return &value
}
