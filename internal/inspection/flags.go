package inspection

import (
	"github.com/cargo-inspection/internal/constants"
	"github.com/cargo-inspection/internal/models"

	"github.com/shopspring/decimal"
)

// DefaultTemperatureThreshold 冷机温度上限（华氏度），严格大于才算超标
var DefaultTemperatureThreshold = decimal.NewFromInt(32)

// Flags 异常标记
type Flags struct {
	RequireAttention bool `json:"requireAttention"`
	TempExc          bool `json:"tempExc"`
}

// DeriveFlags 由检查内容推导异常标记
func DeriveFlags(record *models.OutboundRecord, threshold decimal.Decimal) Flags {
	if record == nil {
		return Flags{}
	}
	var flags Flags
	for _, item := range record.PoweredPalletJackInspection.Data().Checklist {
		if item == constants.PalletCheckProblem {
			flags.RequireAttention = true
			break
		}
	}
	if !flags.RequireAttention {
	areas:
		for _, area := range record.TrailerInspectionChecklist.Data().Checklist {
			for _, item := range area.Items {
				if item.Value == constants.TrailerCheckNo {
					flags.RequireAttention = true
					break areas
				}
			}
		}
	}
	flags.TempExc = record.LoadInformation.Data().RefrigeratorUnitTemperature.GreaterThan(threshold)
	return flags
}

// ApplyFlags 覆盖记录上的异常标记
func ApplyFlags(record *models.OutboundRecord, threshold decimal.Decimal) Flags {
	flags := DeriveFlags(record, threshold)
	if record != nil {
		record.RequireAttention = flags.RequireAttention
		record.TempExc = flags.TempExc
	}
	return flags
}
