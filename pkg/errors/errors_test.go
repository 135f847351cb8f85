package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	err := NewAppError(ErrCodeInvalidInput, "test error", 400)
	expected := "INVALID_INPUT: test error"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestAppError_WithCause(t *testing.T) {
	originalErr := errors.New("original error")
	err := WrapError(originalErr, ErrCodeInternal, "wrapped error", 500)

	if err.Cause != originalErr {
		t.Errorf("Cause = %v, want %v", err.Cause, originalErr)
	}
	if !strings.Contains(err.Error(), "original error") {
		t.Errorf("Error() should contain cause, got: %v", err.Error())
	}
	if !errors.Is(err, originalErr) {
		t.Error("errors.Is should find the wrapped cause")
	}
}

func TestAppError_WithContext(t *testing.T) {
	err := NewAppError(ErrCodeInvalidInput, "test error", 400)
	err.WithContext("video_id", "video_1").WithContext("count", 42)

	if err.Context["video_id"] != "video_1" {
		t.Errorf("Context[video_id] = %v, want 'video_1'", err.Context["video_id"])
	}
	if err.Context["count"] != 42 {
		t.Errorf("Context[count] = %v, want 42", err.Context["count"])
	}
}

func TestNewForbiddenError(t *testing.T) {
	err := NewForbiddenError("no delete capability")
	if err.Code != ErrCodeForbidden {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeForbidden)
	}
	if err.HTTPStatus != 403 {
		t.Errorf("HTTPStatus = %v, want 403", err.HTTPStatus)
	}
}

func TestNewInvalidCapabilityError(t *testing.T) {
	err := NewInvalidCapabilityError("delete cannot be delegated")
	if err.Code != ErrCodeInvalidCapability {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidCapability)
	}
	if err.HTTPStatus != 422 {
		t.Errorf("HTTPStatus = %v, want 422", err.HTTPStatus)
	}
}

func TestNewNotFoundError(t *testing.T) {
	err := NewNotFoundError("video")
	if err.Code != ErrCodeNotFound {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeNotFound)
	}
	if err.HTTPStatus != 404 {
		t.Errorf("HTTPStatus = %v, want 404", err.HTTPStatus)
	}
	if err.Message != "video not found" {
		t.Errorf("Message = %v, want 'video not found'", err.Message)
	}
}

func TestIsAppError(t *testing.T) {
	appErr := NewAppError(ErrCodeInvalidInput, "test", 400)
	regularErr := errors.New("regular error")

	if !IsAppError(appErr) {
		t.Error("IsAppError() should return true for AppError")
	}
	if IsAppError(regularErr) {
		t.Error("IsAppError() should return false for regular error")
	}
}

func TestGetAppError_Wrapped(t *testing.T) {
	appErr := NewConflictError("id already in use")
	wrapped := fmt.Errorf("upload failed: %w", appErr)

	result := GetAppError(wrapped)
	if result != appErr {
		t.Errorf("GetAppError() = %v, want %v", result, appErr)
	}

	if GetAppError(errors.New("plain")) != nil {
		t.Error("GetAppError() should return nil for non-AppError")
	}
}
