package backend

import (
	"context"
	"encoding/json"
	"net/url"
	"sort"
	"strconv"

	"github.com/cargo-inspection/internal/models"
	"github.com/cargo-inspection/internal/repository"
)

// VerificationStore 远端月度复核存储
type VerificationStore struct {
	client *Client
}

// NewVerificationStore 创建远端月度复核存储
func NewVerificationStore(client *Client) *VerificationStore {
	return &VerificationStore{client: client}
}

var _ repository.VerificationRepository = (*VerificationStore)(nil)

// Get 按周期与站点获取，不存在返回 nil
func (s *VerificationStore) Get(ctx context.Context, name, site string) (*models.VerificationRecord, error) {
	var raw json.RawMessage
	if err := s.client.get(ctx, "verification/"+url.PathEscape(name)+"/"+url.PathEscape(site), nil, &raw); err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	row, ok, err := decodeOne[verificationRow](raw)
	if err != nil || !ok {
		return nil, err
	}
	record := row.toModel()
	if record.Name == "" {
		record.Name = name
	}
	if record.Site == "" {
		record.Site = site
	}
	return record, nil
}

// ListByYear 某站点某年的月度复核
func (s *VerificationStore) ListByYear(ctx context.Context, year int, site string) ([]models.VerificationRecord, error) {
	var rows []verificationRow
	if err := s.client.get(ctx, "verifications/"+strconv.Itoa(year)+"/"+url.PathEscape(site), nil, &rows); err != nil {
		if IsNotFound(err) {
			return []models.VerificationRecord{}, nil
		}
		return nil, err
	}
	records := make([]models.VerificationRecord, 0, len(rows))
	for i := range rows {
		records = append(records, *rows[i].toModel())
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i].Name < records[j].Name })
	return records, nil
}

// Upsert 写入月度复核
func (s *VerificationStore) Upsert(ctx context.Context, record *models.VerificationRecord) error {
	return s.client.upsert(ctx, "verification", verificationPayload{
		Name:               record.Name,
		Site:               record.Site,
		VerificationStatus: statusCode(record.VerificationStatus),
		VerificationDate:   formatDate(record.VerificationDate),
		VerifiedBy:         record.VerifiedBy,
		Signature:          record.Signature,
		SignatureDigest:    record.SignatureDigest,
		TotalOutbounds:     record.TotalOutbounds,
	})
}

// ListYears 远端年份下拉（[{year}]）
func (s *VerificationStore) ListYears(ctx context.Context) ([]int, error) {
	var rows []struct {
		Year flexInt `json:"year"`
	}
	if err := s.client.get(ctx, "validationDropdown", nil, &rows); err != nil {
		return nil, err
	}
	years := make([]int, 0, len(rows))
	for _, row := range rows {
		if row.Year > 0 {
			years = append(years, int(row.Year))
		}
	}
	return years, nil
}

// ValidationStore 远端年度确认存储
type ValidationStore struct {
	client *Client
}

// NewValidationStore 创建远端年度确认存储
func NewValidationStore(client *Client) *ValidationStore {
	return &ValidationStore{client: client}
}

var _ repository.ValidationRepository = (*ValidationStore)(nil)

// Get 按年份与站点获取，不存在返回 nil
func (s *ValidationStore) Get(ctx context.Context, year int, site string) (*models.ValidationRecord, error) {
	var raw json.RawMessage
	if err := s.client.get(ctx, "validation/"+strconv.Itoa(year)+"/"+url.PathEscape(site), nil, &raw); err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	row, ok, err := decodeOne[validationRow](raw)
	if err != nil || !ok {
		return nil, err
	}
	record := row.toModel()
	if record.Year == 0 {
		record.Year = year
	}
	if record.Site == "" {
		record.Site = site
	}
	return record, nil
}

// Upsert 写入年度确认
func (s *ValidationStore) Upsert(ctx context.Context, record *models.ValidationRecord) error {
	return s.client.upsert(ctx, "validation", validationPayload{
		Year:             record.Year,
		Site:             record.Site,
		ValidationStatus: statusCode(record.ValidationStatus),
		ValidationDate:   formatDate(record.ValidationDate),
		ValidatedBy:      record.ValidatedBy,
		Signature:        record.Signature,
		SignatureDigest:  record.SignatureDigest,
	})
}
