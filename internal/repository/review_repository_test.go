package repository

import (
	"context"
	"testing"
	"time"

	"github.com/cargo-inspection/internal/constants"
	"github.com/cargo-inspection/internal/models"
)

func TestVerificationUpsertAndList(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewVerificationRepository(db)
	ctx := context.Background()

	waiting := &models.VerificationRecord{
		Name: "202403", Site: constants.SiteMD, Year: 2024, Month: 3,
		VerificationStatus: models.ReviewStatusPtr(models.ReviewStatusWaitingForApproval),
	}
	if err := repo.Upsert(ctx, waiting); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	now := time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC)
	approved := &models.VerificationRecord{
		Name: "202403", Site: constants.SiteMD, Year: 2024, Month: 3,
		VerificationStatus: models.ReviewStatusPtr(models.ReviewStatusApproved),
		VerificationDate:   &now,
		VerifiedBy:         "louis",
		Signature:          "data:image/png;base64,AAAA",
		TotalOutbounds:     20,
	}
	if err := repo.Upsert(ctx, approved); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	got, err := repo.Get(ctx, "202403", constants.SiteMD)
	if err != nil || got == nil {
		t.Fatalf("get failed: %v", err)
	}
	if !got.IsApproved() || got.TotalOutbounds != 20 || got.VerifiedBy != "louis" {
		t.Fatalf("unexpected record: %+v", got)
	}

	other, err := repo.Get(ctx, "202403", constants.SiteSC)
	if err != nil || other != nil {
		t.Fatalf("other site should be absent: %v %v", other, err)
	}

	if err := repo.Upsert(ctx, &models.VerificationRecord{Name: "202312", Site: constants.SiteMD, Year: 2023, Month: 12}); err != nil {
		t.Fatalf("insert 2023 failed: %v", err)
	}
	list, err := repo.ListByYear(ctx, 2024, constants.SiteMD)
	if err != nil || len(list) != 1 {
		t.Fatalf("list by year failed: %v %v", list, err)
	}
	years, err := repo.ListYears(ctx)
	if err != nil || len(years) != 2 || years[0] != 2024 {
		t.Fatalf("years should be newest first: %v %v", years, err)
	}
}

func TestValidationUpsert(t *testing.T) {
	repo := NewValidationRepository(setupRepositoryTestDB(t))
	ctx := context.Background()

	if err := repo.Upsert(ctx, &models.ValidationRecord{Year: 2023, Site: constants.SiteSC}); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	got, err := repo.Get(ctx, 2023, constants.SiteSC)
	if err != nil || got == nil || got.State() != models.ReviewStatePending {
		t.Fatalf("absent status should be pending: %+v %v", got, err)
	}

	if err := repo.Upsert(ctx, &models.ValidationRecord{
		Year: 2023, Site: constants.SiteSC,
		ValidationStatus: models.ReviewStatusPtr(models.ReviewStatusApproved),
		ValidatedBy:      "amy",
	}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	got, _ = repo.Get(ctx, 2023, constants.SiteSC)
	if got == nil || !got.IsApproved() || got.ValidatedBy != "amy" {
		t.Fatalf("validation should be approved: %+v", got)
	}
}
