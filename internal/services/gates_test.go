package services

import (
	"context"
	"testing"

	"github.com/rapidaid/rapidaid/internal/models"
	"github.com/rapidaid/rapidaid/internal/testutil"
	"github.com/rapidaid/rapidaid/internal/types"
)

func familyInput(incidentID uint) AddFamilyInput {
	return AddFamilyInput{
		IncidentID:       incidentID,
		HeadOfFamilyName: "Sita Karki",
		Address:          "Ward 4",
		TotalMembers:     5,
		InjuredMembers:   1,
	}
}

func TestAddFamilyGates(t *testing.T) {
	tests := []struct {
		name   string
		role   types.Role
		status types.IncidentStatus
		want   *Error
	}{
		{"assessor on verified", types.RoleAssessmentTeam, types.IncidentVerified, nil},
		{"admin on verified", types.RoleAdmin, types.IncidentVerified, nil},
		{"assessor on reported", types.RoleAssessmentTeam, types.IncidentReported, ErrPrecondition},
		{"assessor on in rescue", types.RoleAssessmentTeam, types.IncidentInRescue, ErrPrecondition},
		{"assessor on resolved", types.RoleAssessmentTeam, types.IncidentResolved, ErrPrecondition},
		{"citizen on verified", types.RoleCitizen, types.IncidentVerified, ErrPermission},
		{"rescuer on verified", types.RoleRescueTeam, types.IncidentVerified, ErrPermission},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			svc := NewAssessmentService(f.deps)
			actor := testutil.CreateUser(t, f.db, tt.role)
			incident := testutil.CreateIncident(t, f.db, nil, tt.status)

			family, err := svc.AddFamily(context.Background(), actor.Principal(), familyInput(incident.ID))
			if tt.want != nil {
				expectKind(t, err, tt.want)
				if n := count(t, f.db, &models.AffectedFamily{}, ""); n != 0 {
					t.Fatalf("families = %d, want 0", n)
				}
				return
			}
			if err != nil {
				t.Fatalf("add family: %v", err)
			}
			if family.CreatedByID == nil || *family.CreatedByID != actor.ID {
				t.Fatalf("created_by = %v, want %d", family.CreatedByID, actor.ID)
			}
		})
	}
}

func TestAddFamilyRejectsImpossibleCounts(t *testing.T) {
	f := newFixture(t)
	svc := NewAssessmentService(f.deps)
	assessor := testutil.CreateUser(t, f.db, types.RoleAssessmentTeam)
	incident := testutil.CreateIncident(t, f.db, nil, types.IncidentVerified)

	in := familyInput(incident.ID)
	in.InjuredMembers = 3
	in.DeceasedMembers = 3

	_, err := svc.AddFamily(context.Background(), assessor.Principal(), in)
	expectKind(t, err, ErrPrecondition)
}

func TestRecordLossOncePerFamily(t *testing.T) {
	f := newFixture(t)
	svc := NewAssessmentService(f.deps)
	assessor := testutil.CreateUser(t, f.db, types.RoleAssessmentTeam)
	incident := testutil.CreateIncident(t, f.db, nil, types.IncidentVerified)
	ctx := context.Background()

	family, err := svc.AddFamily(ctx, assessor.Principal(), familyInput(incident.ID))
	if err != nil {
		t.Fatalf("add family: %v", err)
	}

	loss, err := svc.RecordLoss(ctx, assessor.Principal(), RecordLossInput{
		FamilyID:              family.ID,
		EstimatedPropertyLoss: 125000,
		LivestockLost:         2,
	})
	if err != nil {
		t.Fatalf("record loss: %v", err)
	}
	if loss.HouseDamage != types.HouseDamageNone {
		t.Fatalf("house damage = %q, want default none", loss.HouseDamage)
	}

	_, err = svc.RecordLoss(ctx, assessor.Principal(), RecordLossInput{FamilyID: family.ID, HouseDamage: types.HouseDamageFull})
	expectKind(t, err, ErrConflict)

	citizen := testutil.CreateUser(t, f.db, types.RoleCitizen)
	_, err = svc.RecordLoss(ctx, citizen.Principal(), RecordLossInput{FamilyID: family.ID})
	expectKind(t, err, ErrPermission)

	_, err = svc.RecordLoss(ctx, assessor.Principal(), RecordLossInput{FamilyID: 999})
	expectKind(t, err, ErrNotFound)

	got, err := svc.GetLoss(ctx, loss.ID)
	if err != nil {
		t.Fatalf("get loss: %v", err)
	}
	if got.Family == nil || got.Family.ID != family.ID || got.LivestockLost != 2 {
		t.Fatalf("loss = %+v", got)
	}
}

func ptr[T any](v T) *T { return &v }

func donorFixture(t *testing.T, f *fixture) (*DonationService, *models.User) {
	t.Helper()

	svc := NewDonationService(f.deps)
	user := testutil.CreateUser(t, f.db, types.RoleDonor)
	if _, err := svc.RegisterDonor(context.Background(), user.Principal(), ""); err != nil {
		t.Fatalf("register donor: %v", err)
	}
	return svc, user
}

func TestDonateRequiresDonorProfile(t *testing.T) {
	f := newFixture(t)
	svc := NewDonationService(f.deps)
	user := testutil.CreateUser(t, f.db, types.RoleDonor)
	incident := testutil.CreateIncident(t, f.db, nil, types.IncidentVerified)

	_, err := svc.Donate(context.Background(), user.Principal(), DonateInput{
		IncidentID:   incident.ID,
		DonationType: types.DonationMoney,
		Amount:       ptr(50.0),
	})
	expectKind(t, err, ErrPermission)
}

func TestRegisterDonorOnce(t *testing.T) {
	f := newFixture(t)
	svc, user := donorFixture(t, f)

	_, err := svc.RegisterDonor(context.Background(), user.Principal(), types.DonorOrganization)
	expectKind(t, err, ErrConflict)

	var donor models.Donor
	if err := f.db.Where("user_id = ?", user.ID).First(&donor).Error; err != nil {
		t.Fatalf("load donor: %v", err)
	}
	if donor.DonorType != types.DonorIndividual {
		t.Fatalf("donor type = %q, want individual", donor.DonorType)
	}
}

func TestDonationGates(t *testing.T) {
	for _, status := range []types.IncidentStatus{
		types.IncidentReported,
		types.IncidentVerified,
		types.IncidentInRescue,
		types.IncidentResolved,
	} {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture(t)
			svc, user := donorFixture(t, f)
			incident := testutil.CreateIncident(t, f.db, nil, status)

			_, err := svc.Donate(context.Background(), user.Principal(), DonateInput{
				IncidentID:   incident.ID,
				DonationType: types.DonationMoney,
				Amount:       ptr(100.0),
			})
			if status == types.IncidentResolved {
				expectKind(t, err, ErrPrecondition)
				if n := count(t, f.db, &models.Donation{}, ""); n != 0 {
					t.Fatalf("donations = %d, want 0", n)
				}
				return
			}
			if err != nil {
				t.Fatalf("donate: %v", err)
			}
		})
	}
}

func TestDonationValidation(t *testing.T) {
	tests := []struct {
		name string
		in   DonateInput
	}{
		{"money without amount", DonateInput{DonationType: types.DonationMoney}},
		{"money with zero amount", DonateInput{DonationType: types.DonationMoney, Amount: ptr(0.0)}},
		{"money with negative amount", DonateInput{DonationType: types.DonationMoney, Amount: ptr(-5.0)}},
		{"item without description", DonateInput{DonationType: types.DonationItem, Quantity: ptr(3)}},
		{"item without quantity", DonateInput{DonationType: types.DonationItem, ItemDescription: "Blankets"}},
		{"item with zero quantity", DonateInput{DonationType: types.DonationItem, ItemDescription: "Blankets", Quantity: ptr(0)}},
		{"unknown type", DonateInput{DonationType: "crypto", Amount: ptr(1.0)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			svc, user := donorFixture(t, f)
			incident := testutil.CreateIncident(t, f.db, nil, types.IncidentVerified)

			in := tt.in
			in.IncidentID = incident.ID
			_, err := svc.Donate(context.Background(), user.Principal(), in)
			expectKind(t, err, ErrPrecondition)
		})
	}
}

func TestDonateToFamilyAndDistribute(t *testing.T) {
	f := newFixture(t)
	svc, user := donorFixture(t, f)
	assessments := NewAssessmentService(f.deps)
	admin := testutil.CreateUser(t, f.db, types.RoleAdmin)
	incident := testutil.CreateIncident(t, f.db, nil, types.IncidentVerified)
	other := testutil.CreateIncident(t, f.db, nil, types.IncidentVerified)
	ctx := context.Background()

	family, err := assessments.AddFamily(ctx, admin.Principal(), familyInput(incident.ID))
	if err != nil {
		t.Fatalf("add family: %v", err)
	}
	stranger, err := assessments.AddFamily(ctx, admin.Principal(), familyInput(other.ID))
	if err != nil {
		t.Fatalf("add other family: %v", err)
	}

	_, err = svc.Donate(ctx, user.Principal(), DonateInput{
		IncidentID:      incident.ID,
		FamilyID:        &stranger.ID,
		DonationType:    types.DonationItem,
		ItemDescription: "Rice",
		Quantity:        ptr(10),
	})
	expectKind(t, err, ErrPrecondition)

	donation, err := svc.Donate(ctx, user.Principal(), DonateInput{
		IncidentID:      incident.ID,
		FamilyID:        &family.ID,
		DonationType:    types.DonationItem,
		ItemDescription: "Rice",
		Quantity:        ptr(10),
	})
	if err != nil {
		t.Fatalf("donate: %v", err)
	}

	_, err = svc.Distribute(ctx, user.Principal(), donation.ID, family.ID, "")
	expectKind(t, err, ErrPermission)

	_, err = svc.Distribute(ctx, admin.Principal(), donation.ID, stranger.ID, "")
	expectKind(t, err, ErrPrecondition)

	distribution, err := svc.Distribute(ctx, admin.Principal(), donation.ID, family.ID, "https://photos.example.org/rice.jpg")
	if err != nil {
		t.Fatalf("distribute: %v", err)
	}
	if distribution.DistributedByID == nil || *distribution.DistributedByID != admin.ID {
		t.Fatalf("distribution = %+v", distribution)
	}

	mine, err := svc.ListDonations(ctx, user.Principal())
	if err != nil {
		t.Fatalf("list own donations: %v", err)
	}
	if len(mine) != 1 {
		t.Fatalf("own donations = %d, want 1", len(mine))
	}

	someoneElse := testutil.CreateUser(t, f.db, types.RoleDonor)
	theirs, err := svc.ListDonations(ctx, someoneElse.Principal())
	if err != nil {
		t.Fatalf("list other donations: %v", err)
	}
	if len(theirs) != 0 {
		t.Fatalf("other donor sees %d donations", len(theirs))
	}
}
