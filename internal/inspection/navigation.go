package inspection

import (
	"fmt"
	"net/url"
)

// VerificationPath 月度复核页面路径
func VerificationPath(period Period, site string) string {
	return fmt.Sprintf("/verification/%04d/%02d/%s", period.Year, period.Month, url.PathEscape(site))
}

// VerificationPathByName 由 YYYYMM 周期名生成路径
func VerificationPathByName(name, site string) (string, error) {
	period, err := ParsePeriod(name)
	if err != nil {
		return "", err
	}
	return VerificationPath(period, site), nil
}

// ValidationPath 年度确认页面路径
func ValidationPath(year int, site string) string {
	return fmt.Sprintf("/validation/%04d/%s", year, url.PathEscape(site))
}
