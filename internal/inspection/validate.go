package inspection

import (
	"fmt"
	"strings"

	"github.com/cargo-inspection/internal/constants"
	"github.com/cargo-inspection/internal/models"
)

// FieldError 字段级校验错误
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors 有序错误列表，首项为前端滚动定位目标
type ValidationErrors []FieldError

// First 首个错误字段，无错误返回空串
func (v ValidationErrors) First() string {
	if len(v) == 0 {
		return ""
	}
	return v[0].Field
}

// Fields 错误字段名列表
func (v ValidationErrors) Fields() []string {
	names := make([]string, 0, len(v))
	for _, item := range v {
		names = append(names, item.Field)
	}
	return names
}

// RouteExistsFunc 查询线路号是否已有记录
type RouteExistsFunc func(routeNumber string) (bool, error)

// RouteNumberExistsMessage 新建时线路号重复提示
const RouteNumberExistsMessage = "This Route Number already exists"

type collector struct {
	errs ValidationErrors
}

func (c *collector) add(field, message string) {
	c.errs = append(c.errs, FieldError{Field: field, Message: message})
}

func (c *collector) text(field, value, message string) {
	if strings.TrimSpace(value) == "" {
		c.add(field, message)
	}
}

func (c *collector) present(field string, value models.Measure, message string) {
	if !value.IsSet() {
		c.add(field, message)
	}
}

func (c *collector) atLeastOne(field string, value models.Measure, message string) {
	if !value.AtLeast(1) {
		c.add(field, message)
	}
}

// Validate 按模式校验出库单，错误顺序与表单顺序一致
// exists 仅在 new 模式使用，查询失败时不阻塞
func Validate(record *models.OutboundRecord, mode Mode, exists RouteExistsFunc) ValidationErrors {
	if record == nil {
		return ValidationErrors{{Field: "routeNumber", Message: "Route number is required"}}
	}
	c := &collector{}
	validateBase(c, record, mode, exists)
	if mode == ModeIncomplete {
		return c.errs
	}
	validateSections(c, record)
	if mode == ModeCompleted {
		ret := record.LoadingReturn.Data()
		c.text("returnDateTime", ret.ReturnDateTime, "Return Date is required")
		c.text("returnLB", ret.ReturnLB, "Return LB is required")
		c.text("returnPW", ret.ReturnPW, "Return PW is required")
		c.text("returnHT", ret.ReturnHT, "Return HT is required")
	}
	return c.errs
}

func validateBase(c *collector, r *models.OutboundRecord, mode Mode, exists RouteExistsFunc) {
	c.text("carrier", r.Carrier, "Carrier is required")
	c.text("site", r.Site, "Site is required")
	if r.Site != "" && constants.NormalizeSite(r.Site) == "" {
		c.add("site", "Site must be one of "+strings.Join(constants.Sites, ", "))
	}
	switch {
	case strings.TrimSpace(r.RouteNumber) == "":
		c.add("routeNumber", "Route number is required")
	case mode == ModeNew && exists != nil:
		if found, err := exists(r.RouteNumber); err == nil && found {
			c.add("routeNumber", RouteNumberExistsMessage)
		}
	}
	c.text("routeName", r.RouteName, "Route name is required")
	c.text("deliveryDate", r.DeliveryDate, "Delivery date is required")
	if _, err := ParseDate(r.DeliveryDate); r.DeliveryDate != "" && err != nil {
		c.add("deliveryDate", "Delivery date must be YYYY-MM-DD")
	}
	c.text("tractor", r.Tractor, "Tractor is required")
	c.text("trailer", r.Trailer, "Trailer is required")
	c.text("driver", r.Driver, "Driver is required")
}

func validateSections(c *collector, r *models.OutboundRecord) {
	cat := DefaultCatalog()

	equipment := r.AssignedLoadEquipment.Data()
	c.text("handTruckNo", equipment.HandTruckNo, "Hand Truck No is required")
	c.text("poweredPalletJackNo", equipment.PoweredPalletJackNo, "Powered Pallet Jack No is required")
	c.atLeastOne("loadBarCount", equipment.LoadBarCount, "Load Bar Count is required")

	pallet := r.PoweredPalletJackInspection.Data()
	for i, label := range cat.PalletJack {
		value := ""
		if i < len(pallet.Checklist) {
			value = pallet.Checklist[i]
		}
		if value != constants.PalletCheckOK && value != constants.PalletCheckProblem {
			c.add(fmt.Sprintf("pallet-check-%d", i), label+" is required")
		}
	}

	info := r.LoadInformation.Data()
	c.text("checkerName", info.CheckerName, "Checker Name is required")
	c.text("mergerName", info.MergerName, "Merger Name is required")
	c.text("loaderName", info.LoaderName, "Loader Name is required")
	c.text("inspectorName", info.InspectorName, "Inspector Name is required")
	c.text("inspectionDateTime", info.InspectionDateTime, "Inspection Date & Time is required")
	c.text("loadingDockNo", info.LoadingDockNo, "Loading Dock No is required")
	c.text("refrigeratorThermostat", info.RefrigeratorThermostat, "Refrigerator Thermostat is required")
	c.present("refrigeratorUnitTemperature", info.RefrigeratorUnitTemperature, "Refrigerator Unit Temperature is required")
	c.text("reeferTurningOnTime", info.ReeferTurningOnTime, "Reefer Turning On Time is required")
	c.present("reeferTurningOnTemperature", info.ReeferTurningOnTemperature, "Reefer Turning On Temperature is required")
	c.present("reeferAfterLoadingTemperature", info.ReeferAfterLoadingTemperature, "Reefer After Loading Temperature is required")
	c.text("startLoadingTime", info.StartLoadingTime, "Start Loading Time is required")
	c.text("finishedLoadingTime", info.FinishedLoadingTime, "Finished Loading Time is required")

	trailer := r.TrailerInspectionChecklist.Data()
	for ai, area := range cat.Trailer {
		for ii, label := range area.Items {
			value := ""
			if ai < len(trailer.Checklist) && ii < len(trailer.Checklist[ai].Items) {
				value = trailer.Checklist[ai].Items[ii].Value
			}
			if value != constants.TrailerCheckYes && value != constants.TrailerCheckNo {
				c.add(fmt.Sprintf("trailer-check-%d-%d", ai, ii), label+" is required")
			}
		}
	}

	summary := r.LoadingSummary.Data()
	c.text("dateRecord", summary.DateRecord, "Date Record is required")
	c.atLeastOne("totalWeight", summary.TotalWeight, "Total Weight is required")
	c.atLeastOne("totalPallet", summary.TotalPallet, "Total Pallet is required")
	c.text("iceCream", summary.IceCream, "Ice Cream selection is required")
	c.atLeastOne("foilCount", summary.FoilCount, "Foil Count is required")
}
