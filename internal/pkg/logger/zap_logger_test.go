package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsolatedLoggerAuditTrail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "review.log")
	l := NewIsolatedLogger(path)

	l.Info("Review", "approval decided", map[string]interface{}{"approval_id": "a1"})
	l.Warn("Review", "approval escalated", map[string]interface{}{"approval_id": "a2"})
	l.Info("Review", "approval decided", map[string]interface{}{"approval_id": "a3"})
	require.NoError(t, l.Sync())

	all, err := l.GetLogs("", 10, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a3", all[0].Details["approval_id"])
	assert.Equal(t, "Review", all[0].Module)
	assert.NotEmpty(t, all[0].Id)

	warns, err := l.GetLogs("WARN", 10, 0)
	require.NoError(t, err)
	require.Len(t, warns, 1)
	assert.Equal(t, "approval escalated", warns[0].Message)

	page, err := l.GetLogs("", 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "a2", page[0].Details["approval_id"])

	empty, err := l.GetLogs("", 10, 50)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestGetLogsMissingFile(t *testing.T) {
	l := &ZapLogger{filePath: filepath.Join(os.TempDir(), "does-not-exist", "x.log")}

	logs, err := l.GetLogs("", 10, 0)

	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestNopLoggerAcceptsNilDetails(t *testing.T) {
	l := NewNopLogger()
	l.Info("Test", "nothing", nil)
	l.Error("Test", "nothing", map[string]interface{}{"error": "x"})
	assert.Empty(t, mustLogs(t, l))
}

func mustLogs(t *testing.T, l *ZapLogger) []LogEntry {
	t.Helper()
	logs, err := l.GetLogs("", 0, 0)
	require.NoError(t, err)
	return logs
}
