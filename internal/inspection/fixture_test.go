package inspection

import (
	"github.com/cargo-inspection/internal/constants"
	"github.com/cargo-inspection/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// completeRecord 构造一份填写完整、全部检查通过的出库单
func completeRecord(routeNumber string, temperature int64) *models.OutboundRecord {
	cat := DefaultCatalog()
	pallet := cat.BlankPalletInspection()
	for i := range pallet.Checklist {
		pallet.Checklist[i] = constants.PalletCheckOK
	}
	trailer := cat.BlankTrailerInspection()
	for ai := range trailer.Checklist {
		for ii := range trailer.Checklist[ai].Items {
			trailer.Checklist[ai].Items[ii].Value = constants.TrailerCheckYes
		}
	}
	summary := cat.BlankLoadingSummary()
	summary.DateRecord = "2024-03-04"
	summary.TotalWeight = models.MeasureFromInt(12000)
	summary.TotalPallet = models.MeasureFromInt(18)
	summary.IceCream = "no"
	summary.FoilCount = models.MeasureFromInt(2)

	return &models.OutboundRecord{
		RouteNumber:    routeNumber,
		Site:           constants.SiteMD,
		DeliveryDate:   "2024-03-05",
		OutboundStatus: models.OutboundStatusNew,
		Carrier:        "EFC Fleet",
		RouteName:      "Baltimore North",
		Tractor:        "T-17",
		Trailer:        "R-204",
		Driver:         "Sam Ortiz",
		AssignedLoadEquipment: datatypes.NewJSONType(models.LoadEquipment{
			HandTruckNo:         "HT-3",
			PoweredPalletJackNo: "PJ-9",
			LoadBarCount:        models.MeasureFromInt(2),
		}),
		PoweredPalletJackInspection: datatypes.NewJSONType(pallet),
		LoadInformation: datatypes.NewJSONType(models.LoadInformation{
			CheckerName:                   "Ann",
			MergerName:                    "Bo",
			LoaderName:                    "Cy",
			InspectorName:                 "Di",
			InspectionDateTime:            "2024-03-04T21:00",
			LoadingDockNo:                 "7",
			RefrigeratorThermostat:        "Continuous",
			RefrigeratorUnitTemperature:   models.MeasureFromInt(temperature),
			ReeferTurningOnTime:           "20:30",
			ReeferTurningOnTemperature:    models.NewMeasure(decimal.RequireFromString("30.5")),
			ReeferAfterLoadingTemperature: models.MeasureFromInt(29),
			StartLoadingTime:              "21:05",
			FinishedLoadingTime:           "22:40",
		}),
		TrailerInspectionChecklist: datatypes.NewJSONType(trailer),
		LoadingSummary:             datatypes.NewJSONType(summary),
	}
}

func withReturn(r *models.OutboundRecord) *models.OutboundRecord {
	r.LoadingReturn = datatypes.NewJSONType(models.LoadingReturn{
		ReturnDateTime: "2024-03-05T16:00",
		ReturnLB:       "2",
		ReturnPW:       "1",
		ReturnHT:       "1",
	})
	return r
}

func setPallet(r *models.OutboundRecord, index int, value string) {
	pallet := r.PoweredPalletJackInspection.Data()
	pallet.Checklist[index] = value
	r.PoweredPalletJackInspection = datatypes.NewJSONType(pallet)
}

func setTrailer(r *models.OutboundRecord, area, item int, value string) {
	trailer := r.TrailerInspectionChecklist.Data()
	trailer.Checklist[area].Items[item].Value = value
	r.TrailerInspectionChecklist = datatypes.NewJSONType(trailer)
}

func setTemperature(r *models.OutboundRecord, value models.Measure) {
	info := r.LoadInformation.Data()
	info.RefrigeratorUnitTemperature = value
	r.LoadInformation = datatypes.NewJSONType(info)
}
