package observability

import (
	"testing"
	"time"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	RegisterMetrics()
	RegisterMetrics()

	RecordHTTPRequest("gatewayd", "GET", "/health", 200, 12*time.Millisecond)
	RecordRPCRequest("user-service", "user.register", "ok", 24*time.Millisecond)
	RecordRPCRequest("message-service", "", "framing_error", time.Millisecond)
}
