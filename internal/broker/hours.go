package broker

import (
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/aa"
	"github.com/rickar/cal/v2/us"
)

// MarketCalendar answers whether the US equity market is open at a point in
// time: 09:30-16:00 US/Eastern, closed weekends and NYSE holidays. Gateways
// without a server-side market clock consult it locally.
type MarketCalendar struct {
	loc      *time.Location
	holidays *cal.Calendar
}

// NewMarketCalendar loads the US/Eastern location and the NYSE full-day
// holiday set. Weekend holidays shift to the adjacent weekday per the
// holidays' observance rules.
func NewMarketCalendar() (*MarketCalendar, error) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return nil, err
	}

	holidays := &cal.Calendar{Name: "NYSE"}
	holidays.AddHoliday(
		us.NewYear,
		us.MlkDay,
		us.PresidentsDay,
		aa.GoodFriday,
		us.MemorialDay,
		us.Juneteenth,
		us.IndependenceDay,
		us.LaborDay,
		us.ThanksgivingDay,
		us.ChristmasDay,
	)

	return &MarketCalendar{loc: loc, holidays: holidays}, nil
}

// IsOpen reports whether regular trading hours are in session at t.
func (c *MarketCalendar) IsOpen(t time.Time) bool {
	et := t.In(c.loc)

	if et.Weekday() == time.Saturday || et.Weekday() == time.Sunday {
		return false
	}

	if actual, observed, _ := c.holidays.IsHoliday(et); actual || observed {
		return false
	}

	open := time.Date(et.Year(), et.Month(), et.Day(), 9, 30, 0, 0, c.loc)
	close := time.Date(et.Year(), et.Month(), et.Day(), 16, 0, 0, 0, c.loc)

	return !et.Before(open) && !et.After(close)
}
