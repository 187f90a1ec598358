package database

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/semmidev/keeper/internal/config"
	"github.com/semmidev/keeper/internal/domain"
)

const (
	maxDiagnosticBytes = 64 * 1024
	redacted           = "****"
	killGracePeriod    = 5 * time.Second
)

// MySQLDatabase runs the vendor client tools against the configured database.
type MySQLDatabase struct {
	config        *config.DatabaseConfig
	dumpBinary    string
	restoreBinary string
	maxOutput     int64
	timeout       time.Duration
}

func NewMySQL(cfg *config.DatabaseConfig, backup *config.BackupConfig) *MySQLDatabase {
	return &MySQLDatabase{
		config:        cfg,
		dumpBinary:    backup.DumpBinary,
		restoreBinary: backup.RestoreBinary,
		maxOutput:     backup.MaxOutputBytes,
		timeout:       backup.Timeout,
	}
}

func (m *MySQLDatabase) connectionArgs() []string {
	return []string{
		fmt.Sprintf("--host=%s", m.config.Host),
		fmt.Sprintf("--port=%d", m.config.Port),
		fmt.Sprintf("--user=%s", m.config.Username),
		"--skip-ssl",
	}
}

// Dump exports the whole database and returns the SQL text.
func (m *MySQLDatabase) Dump(ctx context.Context) ([]byte, error) {
	args := append(m.connectionArgs(),
		"--single-transaction",
		"--quick",
		"--hex-blob",
		m.config.Database,
	)

	stdout := &limitedBuffer{limit: m.maxOutput}
	if err := m.run(ctx, "dump", m.dumpBinary, args, stdout); err != nil {
		return nil, err
	}
	if stdout.overflow {
		return nil, &domain.CommandError{
			Op:     "dump",
			Detail: fmt.Sprintf("output exceeded %d bytes", m.maxOutput),
		}
	}

	return stdout.buf.Bytes(), nil
}

// Restore loads file into the database. The file is handed to the server as
// is; its content is not inspected.
func (m *MySQLDatabase) Restore(ctx context.Context, file domain.BackupFile) error {
	args := append(m.connectionArgs(),
		m.config.Database,
		"-e", fmt.Sprintf("SOURCE %s", file.Path),
	)

	return m.run(ctx, "restore", m.restoreBinary, args, &limitedBuffer{limit: maxDiagnosticBytes})
}

func (m *MySQLDatabase) Ping(ctx context.Context) error {
	args := append(m.connectionArgs(), "-e", "SELECT 1")

	if err := m.run(ctx, "ping", m.restoreBinary, args, &limitedBuffer{limit: maxDiagnosticBytes}); err != nil {
		return fmt.Errorf("mysql ping failed: %w", err)
	}

	return nil
}

func (m *MySQLDatabase) GetName() string {
	return m.config.Name
}

func (m *MySQLDatabase) GetType() string {
	return "mysql"
}

func (m *MySQLDatabase) run(ctx context.Context, op, binary string, args []string, stdout *limitedBuffer) error {
	runCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	stderr := &limitedBuffer{limit: maxDiagnosticBytes}

	cmd := exec.CommandContext(runCtx, binary, args...)
	cmd.Env = append(os.Environ(), "MYSQL_PWD="+m.config.Password)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = killGracePeriod

	err := cmd.Run()
	if err == nil {
		return nil
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return &domain.CommandError{
			Op:     op,
			Detail: fmt.Sprintf("timed out after %s", m.timeout),
			Err:    context.DeadlineExceeded,
		}
	}

	detail := strings.TrimSpace(stderr.buf.String())
	if detail == "" {
		detail = err.Error()
	}

	return &domain.CommandError{
		Op:     op,
		Detail: m.redact(detail),
		Err:    err,
	}
}

func (m *MySQLDatabase) redact(s string) string {
	if m.config.Password == "" {
		return s
	}
	return strings.ReplaceAll(s, m.config.Password, redacted)
}

// limitedBuffer keeps the first limit bytes written to it and drops the rest.
// Writes never fail so the child process is not blocked on a full pipe.
type limitedBuffer struct {
	buf      bytes.Buffer
	limit    int64
	overflow bool
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	remaining := b.limit - int64(b.buf.Len())
	if int64(len(p)) > remaining {
		b.overflow = true
		if remaining > 0 {
			b.buf.Write(p[:remaining])
		}
		return len(p), nil
	}

	b.buf.Write(p)
	return len(p), nil
}
