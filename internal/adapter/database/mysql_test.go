package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/semmidev/keeper/internal/config"
	"github.com/semmidev/keeper/internal/domain"
)

// fakeTool writes an executable shell script standing in for a client tool.
func fakeTool(t *testing.T, dir, name, body string) string {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestDatabase(dumpBinary, restoreBinary string, maxOutput int64, timeout time.Duration) *MySQLDatabase {
	return NewMySQL(
		&config.DatabaseConfig{
			Name:     "main",
			Host:     "db",
			Port:     3306,
			Username: "root",
			Password: "s3cret",
			Database: "test",
		},
		&config.BackupConfig{
			DumpBinary:     dumpBinary,
			RestoreBinary:  restoreBinary,
			MaxOutputBytes: maxOutput,
			Timeout:        timeout,
		},
	)
}

func TestMySQLDatabase_Dump(t *testing.T) {
	Convey("Given a MySQLDatabase with a fake dump tool", t, func() {
		dir := t.TempDir()
		ctx := context.Background()

		Convey("When the tool succeeds", func() {
			tool := fakeTool(t, dir, "mysqldump", `echo "-- args: $*"; echo "-- pwd: $MYSQL_PWD"`)
			db := newTestDatabase(tool, "mysql", 1024, time.Minute)

			payload, err := db.Dump(ctx)

			Convey("It should return the tool's standard output", func() {
				So(err, ShouldBeNil)
				out := string(payload)
				So(out, ShouldContainSubstring, "--host=db --port=3306 --user=root --skip-ssl")
				So(out, ShouldContainSubstring, "--single-transaction --quick --hex-blob test")
				So(out, ShouldContainSubstring, "-- pwd: s3cret")
			})

			Convey("It should keep the password out of the arguments", func() {
				So(string(payload), ShouldNotContainSubstring, "--password")
			})
		})

		Convey("When the tool exits non-zero", func() {
			tool := fakeTool(t, dir, "mysqldump", `echo "partial"; echo "Access denied (using password s3cret)" >&2; exit 2`)
			db := newTestDatabase(tool, "mysql", 1024, time.Minute)

			_, err := db.Dump(ctx)

			Convey("It should fail with the redacted error stream", func() {
				So(errors.Is(err, domain.ErrDumpFailed), ShouldBeTrue)
				So(errors.Is(err, domain.ErrRestoreFailed), ShouldBeFalse)
				So(domain.ErrorDetail(err), ShouldEqual, "Access denied (using password ****)")
			})
		})

		Convey("When the tool fails without diagnostics", func() {
			tool := fakeTool(t, dir, "mysqldump", `exit 3`)
			db := newTestDatabase(tool, "mysql", 1024, time.Minute)

			_, err := db.Dump(ctx)

			Convey("It should fall back to the exit status", func() {
				So(errors.Is(err, domain.ErrDumpFailed), ShouldBeTrue)
				So(domain.ErrorDetail(err), ShouldEqual, "exit status 3")
			})
		})

		Convey("When the tool cannot be spawned", func() {
			db := newTestDatabase(filepath.Join(dir, "missing-mysqldump"), "mysql", 1024, time.Minute)

			_, err := db.Dump(ctx)

			Convey("It should fail with the spawn error", func() {
				So(errors.Is(err, domain.ErrDumpFailed), ShouldBeTrue)
				So(domain.ErrorDetail(err), ShouldContainSubstring, "missing-mysqldump")
			})
		})

		Convey("When the output exceeds the limit", func() {
			tool := fakeTool(t, dir, "mysqldump", `head -c 4096 /dev/zero`)
			db := newTestDatabase(tool, "mysql", 1024, time.Minute)

			payload, err := db.Dump(ctx)

			Convey("It should fail instead of returning a truncated dump", func() {
				So(payload, ShouldBeNil)
				So(errors.Is(err, domain.ErrDumpFailed), ShouldBeTrue)
				So(domain.ErrorDetail(err), ShouldEqual, "output exceeded 1024 bytes")
			})
		})

		Convey("When the tool runs past the timeout", func() {
			tool := fakeTool(t, dir, "mysqldump", `exec sleep 5`)
			db := newTestDatabase(tool, "mysql", 1024, 100*time.Millisecond)

			started := time.Now()
			_, err := db.Dump(ctx)

			Convey("It should be killed and reported as a dump failure", func() {
				So(time.Since(started), ShouldBeLessThan, 4*time.Second)
				So(errors.Is(err, domain.ErrDumpFailed), ShouldBeTrue)
				So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
				So(domain.ErrorDetail(err), ShouldEqual, "timed out after 100ms")
			})
		})
	})
}

func TestMySQLDatabase_Restore(t *testing.T) {
	Convey("Given a MySQLDatabase with a fake client tool", t, func() {
		dir := t.TempDir()
		argsFile := filepath.Join(dir, "args")
		ctx := context.Background()
		file := domain.BackupFile{
			Name: "backup-01-03-2026_12-00-00.sql",
			Path: filepath.Join(dir, "backup-01-03-2026_12-00-00.sql"),
		}

		Convey("When the tool succeeds", func() {
			tool := fakeTool(t, dir, "mysql", `printf '%s\n' "$@" > `+argsFile)
			db := newTestDatabase("mysqldump", tool, 1024, time.Minute)

			err := db.Restore(ctx, file)

			Convey("It should load the file through a SOURCE directive", func() {
				So(err, ShouldBeNil)
				raw, readErr := os.ReadFile(argsFile)
				So(readErr, ShouldBeNil)
				args := strings.Split(strings.TrimSpace(string(raw)), "\n")
				So(args, ShouldResemble, []string{
					"--host=db",
					"--port=3306",
					"--user=root",
					"--skip-ssl",
					"test",
					"-e",
					"SOURCE " + file.Path,
				})
			})
		})

		Convey("When the tool rejects the file", func() {
			tool := fakeTool(t, dir, "mysql", `echo "ERROR 1064 (42000) at line 1: You have an error in your SQL syntax" >&2; exit 1`)
			db := newTestDatabase("mysqldump", tool, 1024, time.Minute)

			err := db.Restore(ctx, file)

			Convey("It should fail with the tool's message", func() {
				So(errors.Is(err, domain.ErrRestoreFailed), ShouldBeTrue)
				So(errors.Is(err, domain.ErrDumpFailed), ShouldBeFalse)
				So(domain.ErrorDetail(err), ShouldStartWith, "ERROR 1064")
			})
		})
	})
}

func TestMySQLDatabase_Ping(t *testing.T) {
	Convey("Given a MySQLDatabase", t, func() {
		dir := t.TempDir()

		Convey("When the server answers", func() {
			tool := fakeTool(t, dir, "mysql", `echo 1`)
			db := newTestDatabase("mysqldump", tool, 1024, time.Minute)

			So(db.Ping(context.Background()), ShouldBeNil)
			So(db.GetName(), ShouldEqual, "main")
			So(db.GetType(), ShouldEqual, "mysql")
		})

		Convey("When the server is unreachable", func() {
			tool := fakeTool(t, dir, "mysql", `echo "Can't connect to MySQL server on 'db'" >&2; exit 1`)
			db := newTestDatabase("mysqldump", tool, 1024, time.Minute)

			err := db.Ping(context.Background())

			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "mysql ping failed")
			So(errors.Is(err, domain.ErrDumpFailed), ShouldBeFalse)
			So(errors.Is(err, domain.ErrRestoreFailed), ShouldBeFalse)
		})
	})
}

func TestLimitedBuffer(t *testing.T) {
	Convey("Given a limitedBuffer", t, func() {
		buf := &limitedBuffer{limit: 5}

		Convey("When writes stay within the limit", func() {
			n, err := buf.Write([]byte("abc"))

			So(err, ShouldBeNil)
			So(n, ShouldEqual, 3)
			So(buf.overflow, ShouldBeFalse)
		})

		Convey("When writes cross the limit", func() {
			buf.Write([]byte("abc"))
			n, err := buf.Write([]byte("defgh"))

			Convey("It should keep the head, flag the overflow and still accept the write", func() {
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 5)
				So(buf.overflow, ShouldBeTrue)
				So(buf.buf.String(), ShouldEqual, "abcde")
			})
		})
	})
}
