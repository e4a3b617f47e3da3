package backend

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/cargo-inspection/internal/constants"
	"github.com/cargo-inspection/internal/models"

	"gorm.io/datatypes"
)

// jsonText 远端以 JSON 字符串存放的嵌套对象，也兼容直接返回对象
type jsonText []byte

func (t *jsonText) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*t = nil
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*t = jsonText(strings.TrimSpace(s))
		return nil
	}
	*t = append((*t)[:0], trimmed...)
	return nil
}

func decodeSection[T any](raw jsonText) T {
	var out T
	if len(raw) == 0 {
		return out
	}
	_ = json.Unmarshal(raw, &out)
	return out
}

// flexBool 兼容 true/false、0/1 与字符串
type flexBool bool

func (f *flexBool) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	switch strings.ToLower(s) {
	case "true", "1":
		*f = true
	default:
		*f = false
	}
	return nil
}

// flexInt 兼容数字与数字字符串
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*f = flexInt(n)
	return nil
}

// flexStatus 可空状态编码
type flexStatus struct {
	set   bool
	value int
}

func (f *flexStatus) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*f = flexStatus{}
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*f = flexStatus{set: true, value: n}
	return nil
}

func (f flexStatus) review() *models.ReviewStatus {
	if !f.set {
		return nil
	}
	return models.ReviewStatusPtr(models.ReviewStatus(f.value))
}

// wireDate 截取 YYYY-MM-DD，兼容 ISO 时间
func wireDate(value string) string {
	value = strings.TrimSpace(value)
	if len(value) >= 10 {
		return value[:10]
	}
	return value
}

func wireTime(value string) *time.Time {
	date := wireDate(value)
	if date == "" {
		return nil
	}
	t, err := time.Parse(constants.DateLayout, date)
	if err != nil {
		return nil
	}
	return &t
}

func wireTimestamp(value string) time.Time {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}
	}
	return t
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(constants.DateLayout)
}

// outboundRow 远端读取的出库单行
type outboundRow struct {
	ID                       uint     `json:"outbound_id"`
	RouteNumber              string   `json:"route_number"`
	Site                     string   `json:"site"`
	DeliveryDate             string   `json:"delivery_date"`
	OutboundStatus           flexInt  `json:"outbound_status"`
	Carrier                  string   `json:"carrier"`
	RouteName                string   `json:"route_name"`
	Tractor                  string   `json:"tractor"`
	Trailer                  string   `json:"trailer"`
	Driver                   string   `json:"driver"`
	Helper                   string   `json:"helper"`
	AssignedLoadEquipment    jsonText `json:"assigned_load_equipment"`
	PoweredPltJackInspection jsonText `json:"powered_plt_jack_inspection"`
	LoadInfo                 jsonText `json:"load_info"`
	TrailerInspection        jsonText `json:"trailer_inspection"`
	LoadingSummary           jsonText `json:"loading_summary"`
	LoadingReturn            jsonText `json:"loading_return"`
	RequireAttention         flexBool `json:"require_attention"`
	TempExc                  flexBool `json:"temp_exc"`
	LastModifiedBy           string   `json:"last_modified_by"`
	UpdatedAt                string   `json:"updated_at"`
}

func (r *outboundRow) toModel() *models.OutboundRecord {
	return &models.OutboundRecord{
		ID:             r.ID,
		RouteNumber:    strings.TrimSpace(r.RouteNumber),
		Site:           strings.TrimSpace(r.Site),
		DeliveryDate:   wireDate(r.DeliveryDate),
		OutboundStatus: models.OutboundStatus(r.OutboundStatus),
		Carrier:        r.Carrier,
		RouteName:      r.RouteName,
		Tractor:        r.Tractor,
		Trailer:        r.Trailer,
		Driver:         r.Driver,
		Helper:         r.Helper,

		AssignedLoadEquipment:       datatypes.NewJSONType(decodeSection[models.LoadEquipment](r.AssignedLoadEquipment)),
		PoweredPalletJackInspection: datatypes.NewJSONType(decodeSection[models.PalletJackInspection](r.PoweredPltJackInspection)),
		LoadInformation:             datatypes.NewJSONType(decodeSection[models.LoadInformation](r.LoadInfo)),
		TrailerInspectionChecklist:  datatypes.NewJSONType(decodeSection[models.TrailerInspection](r.TrailerInspection)),
		LoadingSummary:              datatypes.NewJSONType(decodeSection[models.LoadingSummary](r.LoadingSummary)),
		LoadingReturn:               datatypes.NewJSONType(decodeSection[models.LoadingReturn](r.LoadingReturn)),

		RequireAttention: bool(r.RequireAttention),
		TempExc:          bool(r.TempExc),
		LastModifiedBy:   r.LastModifiedBy,
		UpdatedAt:        wireTimestamp(r.UpdatedAt),
	}
}

// outboundPayload 写入远端的出库单
type outboundPayload struct {
	OutboundStatus              int                         `json:"outboundStatus"`
	Carrier                     string                      `json:"carrier"`
	Site                        string                      `json:"site"`
	RouteNumber                 string                      `json:"routeNumber"`
	RouteName                   string                      `json:"routeName"`
	DeliveryDate                string                      `json:"deliveryDate"`
	Tractor                     string                      `json:"tractor"`
	Trailer                     string                      `json:"trailer"`
	Driver                      string                      `json:"driver"`
	Helper                      string                      `json:"helper"`
	AssignedLoadEquipment       models.LoadEquipment        `json:"assignedLoadEquipment"`
	PoweredPalletJackInspection models.PalletJackInspection `json:"poweredPalletJackInspection"`
	LoadInformation             models.LoadInformation      `json:"loadInformation"`
	TrailerInspectionChecklist  models.TrailerInspection    `json:"trailerInspectionChecklist"`
	LoadingSummary              models.LoadingSummary       `json:"loadingSummary"`
	LoadingReturn               models.LoadingReturn        `json:"loadingReturn"`
	RequireAttention            bool                        `json:"requireAttention"`
	TempExc                     bool                        `json:"tempExc"`
	LastModifiedBy              string                      `json:"lastModifiedBy"`
}

func newOutboundPayload(record *models.OutboundRecord) outboundPayload {
	return outboundPayload{
		OutboundStatus:              record.OutboundStatus.Code(),
		Carrier:                     record.Carrier,
		Site:                        record.Site,
		RouteNumber:                 record.RouteNumber,
		RouteName:                   record.RouteName,
		DeliveryDate:                record.DeliveryDate,
		Tractor:                     record.Tractor,
		Trailer:                     record.Trailer,
		Driver:                      record.Driver,
		Helper:                      record.Helper,
		AssignedLoadEquipment:       record.AssignedLoadEquipment.Data(),
		PoweredPalletJackInspection: record.PoweredPalletJackInspection.Data(),
		LoadInformation:             record.LoadInformation.Data(),
		TrailerInspectionChecklist:  record.TrailerInspectionChecklist.Data(),
		LoadingSummary:              record.LoadingSummary.Data(),
		LoadingReturn:               record.LoadingReturn.Data(),
		RequireAttention:            record.RequireAttention,
		TempExc:                     record.TempExc,
		LastModifiedBy:              record.LastModifiedBy,
	}
}

type verificationRow struct {
	ID                 uint       `json:"verification_id"`
	Name               string     `json:"name"`
	Site               string     `json:"site"`
	VerificationStatus flexStatus `json:"verification_status"`
	VerificationDate   string     `json:"verification_date"`
	VerifiedBy         string     `json:"verified_by"`
	Signature          string     `json:"signature"`
	SignatureDigest    string     `json:"signature_digest"`
	TotalOutbounds     flexInt    `json:"total_outbounds"`
}

func (r *verificationRow) toModel() *models.VerificationRecord {
	name := strings.TrimSpace(r.Name)
	record := &models.VerificationRecord{
		ID:                 r.ID,
		Name:               name,
		Site:               strings.TrimSpace(r.Site),
		VerificationStatus: r.VerificationStatus.review(),
		VerificationDate:   wireTime(r.VerificationDate),
		VerifiedBy:         r.VerifiedBy,
		Signature:          r.Signature,
		SignatureDigest:    r.SignatureDigest,
		TotalOutbounds:     int(r.TotalOutbounds),
	}
	if len(name) == 6 {
		record.Year, _ = strconv.Atoi(name[:4])
		record.Month, _ = strconv.Atoi(name[4:])
	}
	return record
}

type verificationPayload struct {
	Name               string `json:"name"`
	Site               string `json:"site"`
	VerificationStatus *int   `json:"verificationStatus"`
	VerificationDate   string `json:"verificationDate,omitempty"`
	VerifiedBy         string `json:"verifiedBy,omitempty"`
	Signature          string `json:"signature,omitempty"`
	SignatureDigest    string `json:"signatureDigest,omitempty"`
	TotalOutbounds     int    `json:"totalOutbounds"`
}

func statusCode(status *models.ReviewStatus) *int {
	if status == nil {
		return nil
	}
	code := int(*status)
	return &code
}

type validationRow struct {
	ID               uint       `json:"validation_id"`
	Year             flexInt    `json:"year"`
	Site             string     `json:"site"`
	ValidationStatus flexStatus `json:"validation_status"`
	ValidationDate   string     `json:"validation_date"`
	ValidatedBy      string     `json:"validated_by"`
	Signature        string     `json:"signature"`
	SignatureDigest  string     `json:"signature_digest"`
}

func (r *validationRow) toModel() *models.ValidationRecord {
	return &models.ValidationRecord{
		ID:               r.ID,
		Year:             int(r.Year),
		Site:             strings.TrimSpace(r.Site),
		ValidationStatus: r.ValidationStatus.review(),
		ValidationDate:   wireTime(r.ValidationDate),
		ValidatedBy:      r.ValidatedBy,
		Signature:        r.Signature,
		SignatureDigest:  r.SignatureDigest,
	}
}

type validationPayload struct {
	Year             int    `json:"year"`
	Site             string `json:"site"`
	ValidationStatus *int   `json:"validationStatus"`
	ValidationDate   string `json:"validationDate,omitempty"`
	ValidatedBy      string `json:"validatedBy,omitempty"`
	Signature        string `json:"signature,omitempty"`
	SignatureDigest  string `json:"signatureDigest,omitempty"`
}

// profileRow 远端人员档案，角色以 0/1 表示
type profileRow struct {
	UserID      uint     `json:"user_id,omitempty"`
	Name        string   `json:"name"`
	Username    string   `json:"username,omitempty"`
	Email       string   `json:"email,omitempty"`
	Site        string   `json:"site"`
	IsLoader    flexBool `json:"isLoader"`
	IsMerger    flexBool `json:"isMerger"`
	IsChecker   flexBool `json:"isChecker"`
	IsInspector flexBool `json:"isInspector"`
}

func (r *profileRow) toModel() models.Profile {
	username := strings.TrimSpace(r.Username)
	if username == "" {
		username = strings.TrimSpace(r.Name)
	}
	return models.Profile{
		ID:          r.UserID,
		Username:    username,
		Site:        strings.TrimSpace(r.Site),
		FullName:    strings.TrimSpace(r.Name),
		Email:       r.Email,
		IsChecker:   bool(r.IsChecker),
		IsMerger:    bool(r.IsMerger),
		IsLoader:    bool(r.IsLoader),
		IsInspector: bool(r.IsInspector),
		IsActive:    true,
	}
}

type profilePayload struct {
	UserID      uint   `json:"user_id,omitempty"`
	Name        string `json:"name"`
	Site        string `json:"site"`
	IsLoader    int    `json:"isLoader"`
	IsMerger    int    `json:"isMerger"`
	IsChecker   int    `json:"isChecker"`
	IsInspector int    `json:"isInspector"`
}

func boolFlag(v bool) int {
	if v {
		return 1
	}
	return 0
}

func newProfilePayload(profile *models.Profile) profilePayload {
	return profilePayload{
		UserID:      profile.ID,
		Name:        profile.DisplayName(),
		Site:        profile.Site,
		IsLoader:    boolFlag(profile.IsLoader),
		IsMerger:    boolFlag(profile.IsMerger),
		IsChecker:   boolFlag(profile.IsChecker),
		IsInspector: boolFlag(profile.IsInspector),
	}
}

// routeInfoRow ERP 线路信息（沿用 ERP 字段名）
type routeInfoRow struct {
	DocEntry    flexInt `json:"DocEntry"`
	Title       string  `json:"U_Title"`
	Site        string  `json:"Site"`
	DocDueDate  string  `json:"U_DocDueDate"`
	Driver      string  `json:"Name"`
	Helper      string  `json:"Name:2"`
	RouteNumber string  `json:"routeNumber"`
}

func (r *routeInfoRow) toModel(routeNumber string) *models.RouteSchedule {
	number := strings.TrimSpace(routeNumber)
	if number == "" {
		number = strings.TrimSpace(r.RouteNumber)
	}
	if number == "" && r.DocEntry > 0 {
		number = strconv.Itoa(int(r.DocEntry))
	}
	return &models.RouteSchedule{
		RouteNumber:  number,
		RouteName:    strings.TrimSpace(r.Title),
		Site:         strings.TrimSpace(r.Site),
		DeliveryDate: wireDate(r.DocDueDate),
		Driver:       strings.TrimSpace(r.Driver),
		Helper:       strings.TrimSpace(r.Helper),
	}
}

// dropdownOption 下拉项可能是字符串或对象
type dropdownOption string

func (o *dropdownOption) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*o = dropdownOption(strings.TrimSpace(s))
		return nil
	}
	var obj struct {
		Name     string `json:"name"`
		FullName string `json:"full_name"`
		Value    string `json:"value"`
	}
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return err
	}
	for _, candidate := range []string{obj.Name, obj.FullName, obj.Value} {
		if strings.TrimSpace(candidate) != "" {
			*o = dropdownOption(strings.TrimSpace(candidate))
			return nil
		}
	}
	*o = ""
	return nil
}
