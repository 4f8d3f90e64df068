package indicator

import (
	"sort"
	"strconv"
)

// ConsecutiveDividendYears counts the unbroken run of calendar years with a
// dividend, starting from the most recent one. Ex-dates are YYYYMMDD or
// YYYY-MM-DD; only the leading four characters are read.
func ConsecutiveDividendYears(exDates []string) int {
	seen := make(map[int]struct{}, len(exDates))
	for _, d := range exDates {
		if len(d) < 4 {
			continue
		}
		year, err := strconv.Atoi(d[:4])
		if err != nil {
			continue
		}
		seen[year] = struct{}{}
	}
	if len(seen) == 0 {
		return 0
	}

	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))

	count := 1
	for i := 1; i < len(years); i++ {
		if years[i-1]-years[i] != 1 {
			break
		}
		count++
	}
	return count
}

// TrailingDividend sums per-share cash dividends paid within the window
// (asOf-365d, asOf]. Dates are compared as YYYYMMDD strings.
func TrailingDividend(dividends []Dividend, asOf string) float64 {
	from := yearBefore(asOf)

	var total float64
	for _, d := range dividends {
		if d.ExDate > from && d.ExDate <= asOf {
			total += d.CashPerShare
		}
	}
	return total
}

// Dividend is one cash distribution keyed by its ex-date (YYYYMMDD)
type Dividend struct {
	ExDate       string
	CashPerShare float64
}

func yearBefore(yyyymmdd string) string {
	if len(yyyymmdd) != 8 {
		return yyyymmdd
	}
	y, err := strconv.Atoi(yyyymmdd[:4])
	if err != nil {
		return yyyymmdd
	}
	return strconv.Itoa(y-1) + yyyymmdd[4:]
}
