package usecase

import "time"

const (
	isoLayout       = "2006-01-02T15:04:05.000Z07:00"
	formattedLayout = "02/01/2006 15:04:05"
)

// Clock reads wall-clock time in the application time zone.
type Clock struct {
	location *time.Location
	now      func() time.Time
}

func NewClock(location *time.Location) *Clock {
	return &Clock{location: location, now: time.Now}
}

func (c *Clock) Now() time.Time {
	return c.now().In(c.location)
}

func (c *Clock) Location() *time.Location {
	return c.location
}

type CurrentTime struct {
	ISO       string `json:"iso"`
	Timestamp int64  `json:"timestamp"`
	Formatted string `json:"formatted"`
	Hour      int    `json:"hour"`
	Minute    int    `json:"minute"`
	Second    int    `json:"second"`
	Day       int    `json:"day"`
	Month     int    `json:"month"`
	Year      int    `json:"year"`
	Timezone  string `json:"timezone"`
}

func (c *Clock) CurrentTime() CurrentTime {
	now := c.Now()

	return CurrentTime{
		ISO:       now.Format(isoLayout),
		Timestamp: now.UnixMilli(),
		Formatted: now.Format(formattedLayout),
		Hour:      now.Hour(),
		Minute:    now.Minute(),
		Second:    now.Second(),
		Day:       now.Day(),
		Month:     int(now.Month()),
		Year:      now.Year(),
		Timezone:  c.location.String(),
	}
}
