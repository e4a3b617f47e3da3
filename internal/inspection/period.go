package inspection

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cargo-inspection/internal/constants"
)

// ErrInvalidPeriod 周期格式错误
var ErrInvalidPeriod = errors.New("invalid period")

// Period 复核周期（年 + 月）
type Period struct {
	Year  int
	Month int
}

// ParsePeriod 解析 YYYYMM 或 YYYY-MM
func ParsePeriod(value string) (Period, error) {
	raw := strings.ReplaceAll(strings.TrimSpace(value), "-", "")
	if len(raw) != 6 {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, value)
	}
	year, err := ParseYear(raw[:4])
	if err != nil {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, value)
	}
	month, err := strconv.Atoi(raw[4:])
	if err != nil || month < 1 || month > 12 {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, value)
	}
	return Period{Year: year, Month: month}, nil
}

// ParseYear 解析四位年份
func ParseYear(value string) (int, error) {
	raw := strings.TrimSpace(value)
	if len(raw) != 4 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPeriod, value)
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1900 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPeriod, value)
	}
	return year, nil
}

// PeriodOf 由时间得到所在周期
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: int(t.Month())}
}

// Name 周期名 YYYYMM
func (p Period) Name() string {
	return fmt.Sprintf("%04d%02d", p.Year, p.Month)
}

// MonthString 两位月份
func (p Period) MonthString() string {
	return fmt.Sprintf("%02d", p.Month)
}

// Before 是否早于 other 所在月份
func (p Period) Before(other Period) bool {
	if p.Year != other.Year {
		return p.Year < other.Year
	}
	return p.Month < other.Month
}

// DateRange 周期覆盖的交付日期区间（含首尾）
func (p Period) DateRange() (string, string) {
	first := time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return first.Format(constants.DateLayout), last.Format(constants.DateLayout)
}

// MonthsOf 某年的 12 个周期
func MonthsOf(year int) []Period {
	periods := make([]Period, 0, 12)
	for m := 1; m <= 12; m++ {
		periods = append(periods, Period{Year: year, Month: m})
	}
	return periods
}

// ParseDate 解析交付日期 YYYY-MM-DD
func ParseDate(value string) (time.Time, error) {
	return time.Parse(constants.DateLayout, strings.TrimSpace(value))
}
