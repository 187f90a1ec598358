package usecase

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/mock"

	"github.com/semmidev/keeper/internal/domain"
	"github.com/semmidev/keeper/internal/infrastructure/logger"
)

func TestAutoBackup_Run(t *testing.T) {
	Convey("Given an enabled schedule firing at second 30", t, func() {
		ctx := context.Background()
		schedule, _ := NewSchedule(true, 30)
		executor := &mockExecutor{}

		loc, _ := time.LoadLocation("America/Sao_Paulo")
		// 12:00:30 UTC is 09:00:30 in Sao Paulo; the second is the same.
		at := time.Date(2026, 3, 1, 12, 0, 30, 0, time.UTC)
		clock := fixedClock(loc, at)

		fired := make(chan domain.Trigger, 2)

		Convey("When the clock reaches the trigger second", func() {
			executor.On("Execute", mock.Anything, domain.TriggerAuto).Run(func(args mock.Arguments) {
				fired <- args.Get(1).(domain.Trigger)
			}).Return(domain.BackupFile{Name: "backup-01-03-2026_09-00-30.sql"}, nil).Once()

			job := NewAutoBackup(schedule, executor, clock, logger.Nop())
			So(job.Run(ctx), ShouldBeNil)

			Convey("It should start one automatic backup", func() {
				select {
				case trigger := <-fired:
					So(trigger, ShouldEqual, domain.TriggerAuto)
				case <-time.After(2 * time.Second):
					So("backup was not started", ShouldBeEmpty)
				}
				So(schedule.Get().LastFiredMinute, ShouldEqual, 0)
			})

			Convey("It should not fire again within the minute", func() {
				<-fired
				So(job.Run(ctx), ShouldBeNil)
				So(schedule.Get().LastFiredMinute, ShouldEqual, 0)
				executor.AssertNumberOfCalls(t, "Execute", 1)
			})
		})

		Convey("When the backup is busy or fails", func() {
			executor.On("Execute", mock.Anything, domain.TriggerAuto).Run(func(mock.Arguments) {
				fired <- domain.TriggerAuto
			}).Return(domain.BackupFile{}, domain.ErrBusy).Once()

			job := NewAutoBackup(schedule, executor, clock, logger.Nop())
			So(job.Run(ctx), ShouldBeNil)
			<-fired

			Convey("It should stay armed for the next minute", func() {
				executor.On("Execute", mock.Anything, domain.TriggerAuto).Run(func(mock.Arguments) {
					fired <- domain.TriggerAuto
				}).Return(domain.BackupFile{}, &domain.CommandError{Op: "dump", Detail: "down"}).Once()

				clock.now = func() time.Time { return at.Add(time.Minute) }
				So(job.Run(ctx), ShouldBeNil)
				<-fired

				So(schedule.Get().Enabled, ShouldBeTrue)
				So(schedule.Get().LastFiredMinute, ShouldEqual, 1)
			})
		})

		Convey("When it is not the trigger second", func() {
			job := NewAutoBackup(schedule, executor, fixedClock(loc, at.Add(time.Second)), logger.Nop())
			So(job.Run(ctx), ShouldBeNil)

			Convey("It should do nothing", func() {
				executor.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
				So(schedule.Get().LastFiredMinute, ShouldEqual, domain.NotFired)
			})
		})
	})
}

func TestAutoBackup_Wait(t *testing.T) {
	Convey("Given an automatic backup that is still running", t, func() {
		schedule, _ := NewSchedule(true, 30)
		executor := &mockExecutor{}
		clock := fixedClock(time.UTC, time.Date(2026, 3, 1, 12, 0, 30, 0, time.UTC))

		started := make(chan struct{})
		release := make(chan struct{})
		executor.On("Execute", mock.Anything, domain.TriggerAuto).Run(func(mock.Arguments) {
			close(started)
			<-release
		}).Return(domain.BackupFile{Name: "backup-01-03-2026_12-00-30.sql"}, nil).Once()

		job := NewAutoBackup(schedule, executor, clock, logger.Nop())
		So(job.Run(context.Background()), ShouldBeNil)
		<-started

		Convey("Wait should block until the backup returns", func() {
			waited := make(chan struct{})
			go func() {
				job.Wait()
				close(waited)
			}()

			select {
			case <-waited:
				So("Wait returned while the backup was running", ShouldBeEmpty)
			case <-time.After(100 * time.Millisecond):
			}

			close(release)

			select {
			case <-waited:
			case <-time.After(2 * time.Second):
				So("Wait did not return after the backup finished", ShouldBeEmpty)
			}
			executor.AssertExpectations(t)
		})
	})
}
