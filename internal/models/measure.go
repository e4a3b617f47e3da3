package models

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Measure 可空数值（温度、重量、数量），未填写时 Valid=false
type Measure struct {
	decimal.NullDecimal
}

// NewMeasure 创建已填写的数值
func NewMeasure(value decimal.Decimal) Measure {
	return Measure{NullDecimal: decimal.NewNullDecimal(value)}
}

// MeasureFromInt 由整数创建数值
func MeasureFromInt(value int64) Measure {
	return NewMeasure(decimal.NewFromInt(value))
}

// IsSet 是否已填写
func (m Measure) IsSet() bool {
	return m.Valid
}

// AtLeast 已填写且不小于 min
func (m Measure) AtLeast(min int64) bool {
	return m.Valid && m.Decimal.GreaterThanOrEqual(decimal.NewFromInt(min))
}

// GreaterThan 已填写且严格大于阈值
func (m Measure) GreaterThan(threshold decimal.Decimal) bool {
	return m.Valid && m.Decimal.GreaterThan(threshold)
}

// MarshalJSON 输出为 JSON 数字，未填写输出 null
func (m Measure) MarshalJSON() ([]byte, error) {
	if !m.Valid {
		return []byte("null"), nil
	}
	return []byte(m.Decimal.String()), nil
}

// UnmarshalJSON 兼容数字、数字字符串、空串与 null
func (m *Measure) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		m.NullDecimal = decimal.NullDecimal{}
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			m.NullDecimal = decimal.NullDecimal{}
			return nil
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return err
		}
		m.NullDecimal = decimal.NewNullDecimal(d)
		return nil
	}
	d, err := decimal.NewFromString(string(trimmed))
	if err != nil {
		return err
	}
	m.NullDecimal = decimal.NewNullDecimal(d)
	return nil
}

// String 未填写返回空串
func (m Measure) String() string {
	if !m.Valid {
		return ""
	}
	return m.Decimal.String()
}
