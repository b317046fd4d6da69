package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestScanErrorError(t *testing.T) {
	err := NewUnreadableDocumentError("scan.bin", stderrors.New("bad magic"))

	msg := err.Error()
	if !strings.Contains(msg, "UNREADABLE_DOCUMENT") {
		t.Errorf("error string missing code: %s", msg)
	}
	if !strings.Contains(msg, "scan.bin") {
		t.Errorf("error string missing filename: %s", msg)
	}
	if !strings.Contains(msg, "bad magic") {
		t.Errorf("error string missing cause: %s", msg)
	}
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("root cause")
	err := NewRenderFailedError(3, 300, cause)

	if !stderrors.Is(err, cause) {
		t.Error("errors.Is must see through ScanError")
	}
}

func TestHasCode(t *testing.T) {
	err := NewScanTimeoutError("job-1", 5*time.Minute, nil)

	if !HasCode(err, ErrorScanTimeout) {
		t.Error("HasCode missed a direct ScanError")
	}
	if HasCode(err, ErrorQueueFailed) {
		t.Error("HasCode matched the wrong code")
	}

	wrapped := fmt.Errorf("handler: %w", err)
	if !HasCode(wrapped, ErrorScanTimeout) {
		t.Error("HasCode must unwrap nested errors")
	}

	if HasCode(stderrors.New("plain"), ErrorScanTimeout) {
		t.Error("HasCode matched a plain error")
	}
	if HasCode(nil, ErrorScanTimeout) {
		t.Error("HasCode matched nil")
	}
}

func TestToMap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := NewQueueFailedError("job-7", cause)

	m := err.ToMap()
	if m["error_code"] != "QUEUE_FAILED" {
		t.Errorf("error_code = %v", m["error_code"])
	}
	if m["cause"] != "connection refused" {
		t.Errorf("cause = %v", m["cause"])
	}
	if _, ok := m["timestamp"]; !ok {
		t.Error("timestamp missing")
	}

	details := NewRenderFailedError(2, 200, nil).ToMap()
	if details["page"] != 2 || details["dpi"] != 200 {
		t.Errorf("details not flattened: %v", details)
	}
}
