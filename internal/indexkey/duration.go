// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package indexkey

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrInvalidDuration is returned for strings that are not ISO 8601 durations.
var ErrInvalidDuration = errors.New("invalid ISO 8601 duration")

// MaxSpanYears bounds the nominal length of a parsed duration. It keeps the
// clock part and the record TTL well inside time.Duration's ~292 years.
const MaxSpanYears = 200

// Nominal unit lengths in hours, used only for the span bound.
const (
	hoursPerYear  = 365.2425 * 24
	hoursPerMonth = hoursPerYear / 12
)

// Duration is an ISO 8601 duration such as P10Y or P1Y2M10DT2H30M. Calendar
// parts are kept separate from clock parts because a year or a month has no
// fixed length.
type Duration struct {
	Years, Months, Weeks, Days int
	Hours, Minutes             int
	Seconds                    float64
}

// AddTo returns t advanced by d. Calendar parts use time.AddDate, so
// P1M from January 31 normalises the same way AddDate does.
func (d Duration) AddTo(t time.Time) time.Time {
	t = t.AddDate(d.Years, d.Months, d.Weeks*7+d.Days)
	clock := time.Duration(d.Hours)*time.Hour +
		time.Duration(d.Minutes)*time.Minute +
		time.Duration(d.Seconds*float64(time.Second))
	return t.Add(clock)
}

// ParseISODuration parses the PnYnMnWnDTnHnMnS form. Only the seconds
// component may carry a fraction; negative durations are rejected.
func ParseISODuration(s string) (Duration, error) {
	var d Duration
	if len(s) < 2 || s[0] != 'P' {
		return d, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}

	inTime := false
	seen := 0
	num := ""
	// order enforces Y M W D before T, then H M S.
	order := 0
	for i := 1; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9', c == '.' || c == ',':
			if c == ',' {
				c = '.'
			}
			num += string(c)
			continue
		case c == 'T':
			if inTime || num != "" {
				return d, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
			}
			inTime = true
			order = 0
			if i == len(s)-1 {
				return d, fmt.Errorf("%w: %q has no time components", ErrInvalidDuration, s)
			}
			continue
		}

		if num == "" {
			return d, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
		}
		rank, ok := unitRank(c, inTime)
		if !ok || rank <= order {
			return d, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
		}
		order = rank

		if c == 'S' && inTime {
			f, err := strconv.ParseFloat(num, 64)
			if err != nil {
				return d, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
			}
			d.Seconds = f
		} else {
			n, err := strconv.Atoi(num)
			if err != nil {
				return d, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
			}
			setUnit(&d, c, inTime, n)
		}
		num = ""
		seen++
	}
	if num != "" || seen == 0 {
		return d, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}
	if d.spanHours() > MaxSpanYears*hoursPerYear {
		return Duration{}, fmt.Errorf("%w: %q is longer than %d years", ErrInvalidDuration, s, MaxSpanYears)
	}
	return d, nil
}

// spanHours is the nominal length of d. It is computed in float64 so
// oversized components cannot wrap.
func (d Duration) spanHours() float64 {
	return float64(d.Years)*hoursPerYear +
		float64(d.Months)*hoursPerMonth +
		float64(d.Weeks)*7*24 +
		float64(d.Days)*24 +
		float64(d.Hours) +
		float64(d.Minutes)/60 +
		d.Seconds/3600
}

func unitRank(c byte, inTime bool) (int, bool) {
	if inTime {
		switch c {
		case 'H':
			return 1, true
		case 'M':
			return 2, true
		case 'S':
			return 3, true
		}
		return 0, false
	}
	switch c {
	case 'Y':
		return 1, true
	case 'M':
		return 2, true
	case 'W':
		return 3, true
	case 'D':
		return 4, true
	}
	return 0, false
}

func setUnit(d *Duration, c byte, inTime bool, n int) {
	if inTime {
		switch c {
		case 'H':
			d.Hours = n
		case 'M':
			d.Minutes = n
		}
		return
	}
	switch c {
	case 'Y':
		d.Years = n
	case 'M':
		d.Months = n
	case 'W':
		d.Weeks = n
	case 'D':
		d.Days = n
	}
}
