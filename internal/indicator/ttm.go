package indicator

import (
	"sort"
	"strconv"
)

// Report is a cumulative year-to-date profit figure for a period end (YYYYMMDD)
type Report struct {
	PeriodEnd string
	Value     float64
}

// SingleQuarter converts cumulative YTD reports into single-quarter values.
// Q1 is kept as reported; later quarters subtract the previous quarter of the
// same year. A quarter whose predecessor is missing is dropped.
// Output is ordered newest first.
func SingleQuarter(reports []Report) []Report {
	byEnd := make(map[string]float64, len(reports))
	for _, r := range reports {
		if len(r.PeriodEnd) == 8 {
			byEnd[r.PeriodEnd] = r.Value
		}
	}

	prevQuarter := map[string]string{"0630": "0331", "0930": "0630", "1231": "0930"}

	out := make([]Report, 0, len(byEnd))
	for end, cum := range byEnd {
		year, mmdd := end[:4], end[4:]
		if mmdd == "0331" {
			out = append(out, Report{PeriodEnd: end, Value: cum})
			continue
		}
		prevMMDD, ok := prevQuarter[mmdd]
		if !ok {
			continue
		}
		prev, ok := byEnd[year+prevMMDD]
		if !ok {
			continue
		}
		out = append(out, Report{PeriodEnd: end, Value: cum - prev})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].PeriodEnd > out[j].PeriodEnd })
	return out
}

// LastFourQuarters returns the values of the four most recent consecutive
// single quarters, or nil when the run is shorter than four
func LastFourQuarters(singles []Report) []float64 {
	if len(singles) < 4 {
		return nil
	}

	values := make([]float64, 0, 4)
	for i := 0; i < 4; i++ {
		if i > 0 && previousQuarterEnd(singles[i-1].PeriodEnd) != singles[i].PeriodEnd {
			return nil
		}
		values = append(values, singles[i].Value)
	}
	return values
}

func previousQuarterEnd(end string) string {
	if len(end) != 8 {
		return ""
	}
	year, mmdd := end[:4], end[4:]
	switch mmdd {
	case "1231":
		return year + "0930"
	case "0930":
		return year + "0630"
	case "0630":
		return year + "0331"
	case "0331":
		y, err := strconv.Atoi(year)
		if err != nil {
			return ""
		}
		return strconv.Itoa(y-1) + "1231"
	}
	return ""
}
