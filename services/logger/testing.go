package logsvc

import (
	"testing"

	"github.com/campusconnect/backend/core"
)

// TestLogger routes log output through testing.T so it only shows on failure.
type TestLogger struct {
	t *testing.T
}

var _ core.Logger = (*TestLogger)(nil)

func NewTestLogger(t *testing.T) *TestLogger {
	return &TestLogger{t: t}
}

func (l TestLogger) log(msg string, args []interface{}) {
	l.t.Helper()
	l.t.Log(append([]interface{}{msg}, args...)...)
}

func (l TestLogger) Debug(msg string, args ...interface{}) { l.log(msg, args) }
func (l TestLogger) Info(msg string, args ...interface{})  { l.log(msg, args) }
func (l TestLogger) Warn(msg string, args ...interface{})  { l.log(msg, args) }
func (l TestLogger) Error(msg string, args ...interface{}) { l.log(msg, args) }
func (l TestLogger) Fatal(msg string, args ...interface{}) {
	l.t.Helper()
	l.t.Fatal(append([]interface{}{msg}, args...)...)
}
