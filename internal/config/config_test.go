package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

const sampleConfig = `
app:
  name: keeper-test
  log_level: debug
  timezone: UTC
database:
  host: mysql.local
  port: 3307
  username: app
  password: secret
  database: inventory
backup:
  local_path: /var/backups/keeper
  max_output_bytes: 1024
  timeout: 5m
  upload_targets:
    - type: s3
      enabled: true
      region: us-east-1
      bucket: keeper-dumps
    - type: telegram
      enabled: false
schedule:
  enabled: true
  trigger_second: 5
`

func TestLoad(t *testing.T) {
	Convey("Given the config loader", t, func() {
		tempDir := t.TempDir()

		Convey("When no file exists and it is not required", func() {
			cfg, err := Load(filepath.Join(tempDir, "missing.yaml"), false)

			Convey("It should fall back to the defaults", func() {
				So(err, ShouldBeNil)
				So(cfg.Database.Host, ShouldEqual, "db")
				So(cfg.Database.Port, ShouldEqual, 3306)
				So(cfg.Database.Username, ShouldEqual, "root")
				So(cfg.Database.Database, ShouldEqual, "test")
				So(cfg.Backup.LocalPath, ShouldEqual, "./backups")
				So(cfg.Backup.MaxOutputBytes, ShouldEqual, 64*1024*1024)
				So(cfg.Backup.Timeout, ShouldEqual, 30*time.Minute)
				So(cfg.Backup.DumpBinary, ShouldEqual, "mysqldump")
				So(cfg.Backup.RestoreBinary, ShouldEqual, "mysql")
				So(cfg.Schedule.Enabled, ShouldBeFalse)
				So(cfg.Schedule.TriggerSecond, ShouldEqual, 30)
				So(cfg.App.Timezone, ShouldEqual, "America/Sao_Paulo")
				So(cfg.Server.ListenAddr(), ShouldEqual, ":3000")
			})
		})

		Convey("When the file is required but missing", func() {
			_, err := Load(filepath.Join(tempDir, "missing.yaml"), true)

			Convey("It should return an error", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "failed to read config")
			})
		})

		Convey("When a YAML file is provided", func() {
			path := filepath.Join(tempDir, "config.yaml")
			So(os.WriteFile(path, []byte(sampleConfig), 0644), ShouldBeNil)

			cfg, err := Load(path, true)

			Convey("It should read every section", func() {
				So(err, ShouldBeNil)
				So(cfg.App.Name, ShouldEqual, "keeper-test")
				So(cfg.Database.Host, ShouldEqual, "mysql.local")
				So(cfg.Database.Port, ShouldEqual, 3307)
				So(cfg.Database.Password, ShouldEqual, "secret")
				So(cfg.Backup.MaxOutputBytes, ShouldEqual, 1024)
				So(cfg.Backup.Timeout, ShouldEqual, 5*time.Minute)
				So(cfg.Schedule.Enabled, ShouldBeTrue)
				So(cfg.Schedule.TriggerSecond, ShouldEqual, 5)
				So(len(cfg.Backup.UploadTargets), ShouldEqual, 2)
				So(len(cfg.GetEnabledUploadTargets()), ShouldEqual, 1)
				So(cfg.GetEnabledUploadTargets()[0].Bucket, ShouldEqual, "keeper-dumps")
			})
		})
	})
}

func TestLoad_ContainerEnv(t *testing.T) {
	Convey("Given the container variables are set", t, func() {
		t.Setenv("DB_HOST", "db.internal")
		t.Setenv("DB_USER", "backup")
		t.Setenv("DB_NAME", "shop")
		t.Setenv("BACKUP_DIR", "/data/backups")
		t.Setenv("BACKUP_BUFFER", "2048")
		t.Setenv("PORT", "8080")

		cfg, err := Load("", false)

		Convey("It should override the defaults", func() {
			So(err, ShouldBeNil)
			So(cfg.Database.Host, ShouldEqual, "db.internal")
			So(cfg.Database.Username, ShouldEqual, "backup")
			So(cfg.Database.Database, ShouldEqual, "shop")
			So(cfg.Backup.LocalPath, ShouldEqual, "/data/backups")
			So(cfg.Backup.MaxOutputBytes, ShouldEqual, 2048)
			So(cfg.Server.ListenAddr(), ShouldEqual, ":8080")
		})
	})
}

func TestLoad_InvalidTriggerSecond(t *testing.T) {
	Convey("Given a trigger second out of range", t, func() {
		t.Setenv("SCHEDULE_TRIGGER_SECOND", "60")

		_, err := Load("", false)

		Convey("It should reject the configuration", func() {
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "schedule.trigger_second")
		})
	})
}

func TestLoad_UnknownTimezone(t *testing.T) {
	Convey("Given an unknown time zone", t, func() {
		t.Setenv("APP_TIMEZONE", "Mars/Olympus_Mons")

		_, err := Load("", false)

		Convey("It should reject the configuration", func() {
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "app.timezone")
		})
	})
}

func TestConfig_Location(t *testing.T) {
	Convey("Given a config with the default time zone", t, func() {
		cfg := &Config{App: AppConfig{Timezone: "America/Sao_Paulo"}}

		Convey("It should resolve the IANA zone", func() {
			loc, err := cfg.Location()
			So(err, ShouldBeNil)
			So(loc.String(), ShouldEqual, "America/Sao_Paulo")
		})
	})
}
