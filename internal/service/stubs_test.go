package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cargo-inspection/internal/cache"
	"github.com/cargo-inspection/internal/config"
	"github.com/cargo-inspection/internal/constants"
	"github.com/cargo-inspection/internal/identity"
	"github.com/cargo-inspection/internal/inspection"
	"github.com/cargo-inspection/internal/models"
	"github.com/cargo-inspection/internal/queue"
	"github.com/cargo-inspection/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

var errStoreDown = errors.New("store down")

var testInspector = identity.Principal{Username: "louis", Email: "louis@example.com", Roles: []string{"INSPECTOR"}}

func fixedWorkflow(now time.Time) Workflow {
	return Workflow{
		Location:  time.UTC,
		Threshold: inspection.DefaultTemperatureThreshold,
		Now:       func() time.Time { return now },
	}
}

type outboundRepoStub struct {
	repository.OutboundRepository
	mu        sync.Mutex
	records   map[string]models.OutboundRecord
	upserts   int
	upsertErr error
	getErr    error
}

func newOutboundRepoStub(records ...*models.OutboundRecord) *outboundRepoStub {
	stub := &outboundRepoStub{records: make(map[string]models.OutboundRecord)}
	for _, record := range records {
		stub.records[record.RouteNumber] = *record
	}
	return stub
}

func (s *outboundRepoStub) GetByRouteNumber(_ context.Context, routeNumber string) (*models.OutboundRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	record, ok := s.records[routeNumber]
	if !ok {
		return nil, nil
	}
	return &record, nil
}

func (s *outboundRepoStub) Exists(ctx context.Context, routeNumber string) (bool, error) {
	record, err := s.GetByRouteNumber(ctx, routeNumber)
	return record != nil, err
}

func (s *outboundRepoStub) Upsert(_ context.Context, record *models.OutboundRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.upserts++
	s.records[record.RouteNumber] = *record
	return nil
}

func (s *outboundRepoStub) List(_ context.Context, filter repository.OutboundListFilter) ([]models.OutboundRecord, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.OutboundRecord, 0)
	for _, record := range s.records {
		if filter.Status != nil && record.OutboundStatus != *filter.Status {
			continue
		}
		if filter.Site != "" && record.Site != filter.Site {
			continue
		}
		out = append(out, record)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RouteNumber < out[j].RouteNumber })
	return out, int64(len(out)), nil
}

func (s *outboundRepoStub) ListByPeriod(_ context.Context, site, dateFrom, dateTo string) ([]models.OutboundRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.OutboundRecord, 0)
	for _, record := range s.records {
		if record.Site == site && record.DeliveryDate >= dateFrom && record.DeliveryDate <= dateTo {
			out = append(out, record)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RouteNumber < out[j].RouteNumber })
	return out, nil
}

func (s *outboundRepoStub) Stats(_ context.Context, filter repository.OutboundStatsFilter) (repository.OutboundStatsRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var row repository.OutboundStatsRow
	for _, record := range s.records {
		if filter.Site != "" && record.Site != filter.Site {
			continue
		}
		row.Total++
		switch record.OutboundStatus {
		case models.OutboundStatusCompleted:
			row.Completed++
		case models.OutboundStatusWaiting:
			row.Waiting++
		case models.OutboundStatusIncomplete:
			row.Incomplete++
		}
	}
	return row, nil
}

func (s *outboundRepoStub) ListYears(_ context.Context) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	years := make([]int, 0)
	for _, record := range s.records {
		years = append(years, record.DeliveryYear())
	}
	return years, nil
}

type verificationRepoStub struct {
	repository.VerificationRepository
	records   map[string]models.VerificationRecord
	upserts   int
	upsertErr error
}

func newVerificationRepoStub(records ...models.VerificationRecord) *verificationRepoStub {
	stub := &verificationRepoStub{records: make(map[string]models.VerificationRecord)}
	for _, record := range records {
		stub.records[record.Name+"/"+record.Site] = record
	}
	return stub
}

func (s *verificationRepoStub) Get(_ context.Context, name, site string) (*models.VerificationRecord, error) {
	record, ok := s.records[name+"/"+site]
	if !ok {
		return nil, nil
	}
	return &record, nil
}

func (s *verificationRepoStub) ListByYear(_ context.Context, year int, site string) ([]models.VerificationRecord, error) {
	out := make([]models.VerificationRecord, 0)
	for _, record := range s.records {
		if record.Year == year && record.Site == site {
			out = append(out, record)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *verificationRepoStub) Upsert(_ context.Context, record *models.VerificationRecord) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.upserts++
	s.records[record.Name+"/"+record.Site] = *record
	return nil
}

func (s *verificationRepoStub) ListYears(_ context.Context) ([]int, error) {
	years := make([]int, 0)
	for _, record := range s.records {
		years = append(years, record.Year)
	}
	return years, nil
}

type validationRepoStub struct {
	repository.ValidationRepository
	records map[string]models.ValidationRecord
	upserts int
}

func newValidationRepoStub() *validationRepoStub {
	return &validationRepoStub{records: make(map[string]models.ValidationRecord)}
}

func validationKey(year int, site string) string {
	return fmt.Sprintf("%s/%d", site, year)
}

func (s *validationRepoStub) Get(_ context.Context, year int, site string) (*models.ValidationRecord, error) {
	record, ok := s.records[validationKey(year, site)]
	if !ok {
		return nil, nil
	}
	return &record, nil
}

func (s *validationRepoStub) Upsert(_ context.Context, record *models.ValidationRecord) error {
	s.upserts++
	s.records[validationKey(record.Year, record.Site)] = *record
	return nil
}

type exporterStub struct {
	mu     sync.Mutex
	kinds  []string
	bodies [][]byte
	tokens []string
	err    error
}

func (e *exporterStub) Enabled() bool { return true }

func (e *exporterStub) Export(ctx context.Context, kind string, body []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.kinds = append(e.kinds, kind)
	e.bodies = append(e.bodies, body)
	if p, ok := identity.FromContext(ctx); ok {
		e.tokens = append(e.tokens, p.Username)
	}
	return e.err
}

func newInlineDispatcher(exporter PDFExporter) *ExportDispatcher {
	queueClient, _ := queue.NewClient(nil)
	return NewExportDispatcher(queueClient, exporter, config.ExportConfig{Enabled: true, TimeoutSeconds: 5})
}

func newTestLocker() *cache.Locker {
	return cache.NewLocker(time.Minute)
}

// completeOutbound 填写完整、全部检查通过的出库单
func completeOutbound(routeNumber string, temperature int64) *models.OutboundRecord {
	catalog := inspection.DefaultCatalog()
	pallet := catalog.BlankPalletInspection()
	for i := range pallet.Checklist {
		pallet.Checklist[i] = constants.PalletCheckOK
	}
	trailer := catalog.BlankTrailerInspection()
	for ai := range trailer.Checklist {
		for ii := range trailer.Checklist[ai].Items {
			trailer.Checklist[ai].Items[ii].Value = constants.TrailerCheckYes
		}
	}
	summary := catalog.BlankLoadingSummary()
	summary.DateRecord = "2024-03-04"
	summary.TotalWeight = models.MeasureFromInt(12000)
	summary.TotalPallet = models.MeasureFromInt(18)
	summary.IceCream = "no"
	summary.FoilCount = models.MeasureFromInt(2)

	return &models.OutboundRecord{
		RouteNumber:  routeNumber,
		Site:         constants.SiteMD,
		DeliveryDate: "2024-03-05",
		Carrier:      "EFC Fleet",
		RouteName:    "Baltimore North",
		Tractor:      "T-17",
		Trailer:      "R-204",
		Driver:       "Sam Ortiz",
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

func withLoadingReturn(record *models.OutboundRecord) *models.OutboundRecord {
	record.LoadingReturn = datatypes.NewJSONType(models.LoadingReturn{
		ReturnDateTime: "2024-03-05T16:00",
		ReturnLB:       "2",
		ReturnPW:       "1",
		ReturnHT:       "1",
	})
	return record
}

func storedOutbound(routeNumber, site, date string, status models.OutboundStatus) *models.OutboundRecord {
	return &models.OutboundRecord{RouteNumber: routeNumber, Site: site, DeliveryDate: date, OutboundStatus: status}
}

func approvedVerification(year, month int, site string) models.VerificationRecord {
	period := inspection.Period{Year: year, Month: month}
	return models.VerificationRecord{
		Name:               period.Name(),
		Site:               site,
		Year:               year,
		Month:              month,
		VerificationStatus: models.ReviewStatusPtr(models.ReviewStatusApproved),
	}
}

type profileRepoStub struct {
	repository.ProfileRepository
	profiles  map[uint]models.Profile
	nextID    uint
	lookups   int
	failRole  string
	createErr error
}

func newProfileRepoStub(profiles ...models.Profile) *profileRepoStub {
	stub := &profileRepoStub{profiles: make(map[uint]models.Profile)}
	for _, profile := range profiles {
		stub.nextID++
		profile.ID = stub.nextID
		stub.profiles[profile.ID] = profile
	}
	return stub
}

func (s *profileRepoStub) ListBySite(_ context.Context, site string) ([]models.Profile, error) {
	out := make([]models.Profile, 0)
	for _, profile := range s.profiles {
		if site == "" || profile.Site == site {
			out = append(out, profile)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *profileRepoStub) ListNamesByRole(ctx context.Context, role, site string) ([]string, error) {
	s.lookups++
	if role == s.failRole {
		return nil, errStoreDown
	}
	profiles, _ := s.ListBySite(ctx, site)
	names := make([]string, 0)
	for i := range profiles {
		if profiles[i].IsActive && profiles[i].HasRole(role) {
			names = append(names, profiles[i].DisplayName())
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *profileRepoStub) GetByID(_ context.Context, id uint) (*models.Profile, error) {
	profile, ok := s.profiles[id]
	if !ok {
		return nil, nil
	}
	return &profile, nil
}

func (s *profileRepoStub) GetByUsername(_ context.Context, username, site string) (*models.Profile, error) {
	for _, profile := range s.profiles {
		if profile.Username == username && profile.Site == site {
			found := profile
			return &found, nil
		}
	}
	return nil, nil
}

func (s *profileRepoStub) Create(_ context.Context, profile *models.Profile) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.nextID++
	profile.ID = s.nextID
	s.profiles[profile.ID] = *profile
	return nil
}

func (s *profileRepoStub) Update(_ context.Context, profile *models.Profile) error {
	s.profiles[profile.ID] = *profile
	return nil
}

func (s *profileRepoStub) Delete(_ context.Context, id uint) error {
	delete(s.profiles, id)
	return nil
}

type routeRepoStub struct {
	repository.RouteScheduleRepository
	schedules []models.RouteSchedule
	lookups   int
}

func (s *routeRepoStub) GetByRouteNumber(_ context.Context, routeNumber string) (*models.RouteSchedule, error) {
	s.lookups++
	for i := range s.schedules {
		if s.schedules[i].RouteNumber == routeNumber {
			found := s.schedules[i]
			return &found, nil
		}
	}
	return nil, nil
}

func (s *routeRepoStub) ListBySite(_ context.Context, site, dateFrom, dateTo string) ([]models.RouteSchedule, error) {
	out := make([]models.RouteSchedule, 0)
	for _, schedule := range s.schedules {
		if schedule.Site == site && schedule.DeliveryDate >= dateFrom && schedule.DeliveryDate <= dateTo {
			out = append(out, schedule)
		}
	}
	return out, nil
}
