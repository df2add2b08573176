package db

import (
	"context"
	"sync"
	"testing"
	"time"

	"verivault/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func strp(s string) *string { return &s }

func TestMemStore_PersonDuplicateIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	require.NoError(t, s.CreatePerson(ctx, &models.Person{FirstName: "Ana", LastName: "Ruiz", Type: models.PersonVendor}))
	err := s.CreatePerson(ctx, &models.Person{FirstName: "ana", LastName: "RUIZ", Type: models.PersonVendor})
	assert.ErrorIs(t, err, ErrDuplicate)

	// same name, different type is a different person
	require.NoError(t, s.CreatePerson(ctx, &models.Person{FirstName: "Ana", LastName: "Ruiz", Type: models.PersonGuest}))
}

func TestMemStore_ListPeopleFilterAndPage(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	for _, p := range []models.Person{
		{FirstName: "Ana", LastName: "Ruiz", Type: models.PersonVendor, Company: "Acme"},
		{FirstName: "Bo", LastName: "Chen", Type: models.PersonStaff, Department: "IT"},
		{FirstName: "Cy", LastName: "Diaz", Type: models.PersonVendor, Company: "Globex"},
	} {
		p := p
		require.NoError(t, s.CreatePerson(ctx, &p))
	}

	vendors, total, err := s.ListPeople(ctx, PersonQuery{Type: models.PersonVendor})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, vendors, 2)

	byCompany, _, err := s.ListPeople(ctx, PersonQuery{Q: "acme"})
	require.NoError(t, err)
	require.Len(t, byCompany, 1)
	assert.Equal(t, "Ruiz", byCompany[0].LastName)

	page, total, err := s.ListPeople(ctx, PersonQuery{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, page, 1)
	assert.Equal(t, "Diaz", page[0].LastName)
}

func TestMemStore_UpdatePersonOverwritesOnlyGivenFields(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	p := &models.Person{FirstName: "Ana", LastName: "Ruiz", Type: models.PersonVendor, Phone: "555"}
	require.NoError(t, s.CreatePerson(ctx, p))

	got, err := s.UpdatePerson(ctx, p.ID, PersonPatch{Company: strp("Acme")})
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Company)
	assert.Equal(t, "555", got.Phone)

	_, err = s.UpdatePerson(ctx, 99, PersonPatch{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemStore_EntryDateFilterAndMerge(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	day := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.CreateEntry(ctx, &models.DailyEntry{Timestamp: day.Add(-time.Hour), Type: models.EntryNote}))
	e := &models.DailyEntry{Timestamp: day.Add(9 * time.Hour), Type: models.EntryGuest,
		Details: datatypes.JSONMap{"name": "Ana", "host": "Bo"}}
	require.NoError(t, s.CreateEntry(ctx, e))
	require.NoError(t, s.CreateEntry(ctx, &models.DailyEntry{Timestamp: day.Add(10 * time.Hour), Type: models.EntryNote}))

	today, total, err := s.ListEntries(ctx, EntryQuery{From: day, To: day.Add(24 * time.Hour)})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, models.EntryNote, today[0].Type, "newest first")

	guests, _, err := s.ListEntries(ctx, EntryQuery{From: day, To: day.Add(24 * time.Hour), Type: models.EntryGuest})
	require.NoError(t, err)
	require.Len(t, guests, 1)

	got, err := s.UpdateEntry(ctx, e.ID, EntryPatch{Details: map[string]any{"host": "Cy", "badge": "V12"}})
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.Details["name"])
	assert.Equal(t, "Cy", got.Details["host"])
	assert.Equal(t, "V12", got.Details["badge"])

	require.NoError(t, s.DeleteEntry(ctx, e.ID))
	assert.ErrorIs(t, s.DeleteEntry(ctx, e.ID), ErrNotFound)
}

func TestMemStore_PackageCreatesEntryAndPickupOnce(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	p := &models.Package{TrackingNumber: "1Z999", Carrier: "UPS", Recipient: "Bo Chen", ReceivedBy: "officer"}
	require.NoError(t, s.CreatePackage(ctx, p))
	assert.Equal(t, models.PackageReceived, p.Status)

	entries, _, err := s.ListEntries(ctx, EntryQuery{Type: models.EntryPackage})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "1Z999", entries[0].Details["trackingNumber"])

	got, err := s.PickupPackage(ctx, p.ID, "Bo Chen")
	require.NoError(t, err)
	assert.Equal(t, models.PackagePickedUp, got.Status)
	require.NotNil(t, got.PickedUpAt)

	_, err = s.PickupPackage(ctx, p.ID, "Bo Chen")
	assert.ErrorIs(t, err, ErrAlreadyPickedUp)
}

func TestMemStore_ReportsBySubmissionID(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	r := &models.Report{SubmissionID: "RPT-000001", ReportType: "security-audit", Status: models.ReportGenerated,
		Attachments: datatypes.JSONSlice[models.Attachment]{{Filename: "a.png"}}}
	require.NoError(t, s.CreateReport(ctx, r))
	assert.ErrorIs(t, s.CreateReport(ctx, &models.Report{SubmissionID: "RPT-000001"}), ErrDuplicate)

	got, err := s.FindReportBySubmissionID(ctx, "RPT-000001")
	require.NoError(t, err)
	assert.Equal(t, r.ID, got.ID)

	keep, err := s.AttachmentFilenames(ctx)
	require.NoError(t, err)
	assert.Contains(t, keep, "a.png")

	require.NoError(t, s.DeleteReport(ctx, r.ID))
	_, err = s.FindReportByID(ctx, r.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemStore_CheckoutIsExclusive(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	radio := &models.Equipment{Serial: "R-1", Name: "Radio"}
	require.NoError(t, s.CreateEquipment(ctx, radio))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.CheckoutEquipment(ctx, "officer", radio.ID, nil, ""); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, ErrAlreadyCheckedOut)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)

	open, err := s.ListCheckouts(ctx, CheckoutQuery{Status: "open"})
	require.NoError(t, err)
	require.Len(t, open, 1)
	require.NotNil(t, open[0].DueAt)

	listed, err := s.ListEquipment(ctx, EquipmentQuery{Status: "open"})
	require.NoError(t, err)
	require.Len(t, listed.Items, 1)
	assert.Equal(t, "officer", *listed.Items[0].Officer)

	first, err := s.ReturnCheckout(ctx, open[0].ID, "officer")
	require.NoError(t, err)
	again, err := s.ReturnCheckout(ctx, open[0].ID, "someone-else")
	require.NoError(t, err)
	assert.Equal(t, first.ReturnedAt, again.ReturnedAt)
	assert.Equal(t, "officer", *again.ReturnedBy)

	_, err = s.CheckoutEquipment(ctx, "supervisor", radio.ID, nil, "")
	require.NoError(t, err)
}

func TestPage(t *testing.T) {
	l, o := Page(0, -5)
	assert.Equal(t, DefaultLimit, l)
	assert.Equal(t, 0, o)
	l, _ = Page(10000, 0)
	assert.Equal(t, MaxLimit, l)
}
