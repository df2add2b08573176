package db

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"verivault/models"
)

// MemStore is the process-local Store. State lives as long as the process.
type MemStore struct {
	mu sync.RWMutex

	users         map[uint]*models.User
	verifications []models.VerificationLog
	people        map[uint]*models.Person
	packages      map[uint]*models.Package
	entries       map[uint]*models.DailyEntry
	reports       map[uint]*models.Report
	dailyLogs     map[uint]*models.DailyLog
	equipment     map[uint]*models.Equipment
	checkouts     map[uint]*models.Checkout

	seq map[string]uint
}

var _ Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{
		users:     make(map[uint]*models.User),
		people:    make(map[uint]*models.Person),
		packages:  make(map[uint]*models.Package),
		entries:   make(map[uint]*models.DailyEntry),
		reports:   make(map[uint]*models.Report),
		dailyLogs: make(map[uint]*models.DailyLog),
		equipment: make(map[uint]*models.Equipment),
		checkouts: make(map[uint]*models.Checkout),
		seq:       make(map[string]uint),
	}
}

// next must be called with mu held.
func (m *MemStore) next(table string) uint {
	m.seq[table]++
	return m.seq[table]
}

// window applies limit/offset to an already ordered slice.
func window[T any](all []T, limit, offset int) []T {
	limit, offset = Page(limit, offset)
	if offset >= len(all) {
		return []T{}
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end]
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), sub)
}

// --- Users ---

func (m *MemStore) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if strings.EqualFold(existing.Username, u.Username) {
			return ErrDuplicate
		}
	}
	if u.ID == 0 {
		u.ID = m.next("users")
	} else if _, ok := m.users[u.ID]; ok {
		return ErrDuplicate
	} else if u.ID > m.seq["users"] {
		m.seq["users"] = u.ID
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *MemStore) FindUserByID(_ context.Context, id uint) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MemStore) FindUserByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemStore) ListUsers(_ context.Context, q string, limit, offset int) (ListUsersResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q = strings.ToLower(strings.TrimSpace(q))
	var all []models.User
	for _, u := range m.users {
		if q != "" && !containsFold(u.Username, q) && !containsFold(u.FullName, q) {
			continue
		}
		all = append(all, *u)
	}
	slices.SortFunc(all, func(a, b models.User) int { return int(a.ID) - int(b.ID) })
	return ListUsersResult{Users: window(all, limit, offset), Total: int64(len(all))}, nil
}

func (m *MemStore) UpdateUserPin(_ context.Context, id uint, pinHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.PinHash = pinHash
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemStore) TouchUserLogin(_ context.Context, id uint, ip, ua string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	now := time.Now().UTC()
	u.LastLoginAt, u.LastSeenAt = &now, &now
	u.LoginCount++
	u.LastLoginIP, u.LastLoginUA = ip, ua
	return nil
}

func (m *MemStore) TouchUserSeen(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	now := time.Now().UTC()
	u.LastSeenAt = &now
	return nil
}

// --- Verification log ---

func (m *MemStore) LogVerification(_ context.Context, l *models.VerificationLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l.ID = m.next("verifications")
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	m.verifications = append(m.verifications, *l)
	return nil
}

func (m *MemStore) ListVerifications(_ context.Context, userID uint, limit, offset int) ([]models.VerificationLog, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var all []models.VerificationLog
	for i := len(m.verifications) - 1; i >= 0; i-- {
		if userID == 0 || m.verifications[i].UserID == userID {
			all = append(all, m.verifications[i])
		}
	}
	return window(all, limit, offset), int64(len(all)), nil
}

// --- People ---

func (m *MemStore) CreatePerson(_ context.Context, p *models.Person) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.people {
		if samePerson(existing, p) {
			return ErrDuplicate
		}
	}
	p.ID = m.next("people")
	if p.AddedAt.IsZero() {
		p.AddedAt = time.Now().UTC()
	}
	p.UpdatedAt = p.AddedAt
	cp := *p
	m.people[p.ID] = &cp
	return nil
}

func samePerson(a, b *models.Person) bool {
	return strings.EqualFold(a.FirstName, b.FirstName) &&
		strings.EqualFold(a.LastName, b.LastName) &&
		a.Type == b.Type
}

func (m *MemStore) FindPersonByID(_ context.Context, id uint) (*models.Person, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.people[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MemStore) ListPeople(_ context.Context, q PersonQuery) ([]models.Person, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	needle := strings.ToLower(strings.TrimSpace(q.Q))
	var all []models.Person
	for _, p := range m.people {
		if q.Type != "" && p.Type != q.Type {
			continue
		}
		if needle != "" &&
			!containsFold(p.FirstName+" "+p.LastName, needle) &&
			!containsFold(p.Company, needle) {
			continue
		}
		all = append(all, *p)
	}
	slices.SortFunc(all, func(a, b models.Person) int {
		if c := strings.Compare(a.LastName, b.LastName); c != 0 {
			return c
		}
		if c := strings.Compare(a.FirstName, b.FirstName); c != 0 {
			return c
		}
		return int(a.ID) - int(b.ID)
	})
	return window(all, q.Limit, q.Offset), int64(len(all)), nil
}

func (m *MemStore) UpdatePerson(_ context.Context, id uint, patch PersonPatch) (*models.Person, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.people[id]
	if !ok {
		return nil, ErrNotFound
	}
	next := *p
	patch.apply(&next)
	for oid, other := range m.people {
		if oid != id && samePerson(other, &next) {
			return nil, ErrDuplicate
		}
	}
	next.UpdatedAt = time.Now().UTC()
	*p = next
	cp := next
	return &cp, nil
}

func (m *MemStore) DeletePerson(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.people[id]; !ok {
		return ErrNotFound
	}
	delete(m.people, id)
	return nil
}

// --- Packages ---

func (m *MemStore) CreatePackage(_ context.Context, p *models.Package) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.next("packages")
	if p.ReceivedAt.IsZero() {
		p.ReceivedAt = time.Now().UTC()
	}
	p.Status = models.PackageReceived
	p.UpdatedAt = p.ReceivedAt
	cp := *p
	m.packages[p.ID] = &cp

	e := packageEntry(p)
	e.ID = m.next("entries")
	e.CreatedAt, e.UpdatedAt = p.ReceivedAt, p.ReceivedAt
	m.entries[e.ID] = e
	return nil
}

func (m *MemStore) FindPackageByID(_ context.Context, id uint) (*models.Package, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.packages[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MemStore) ListPackages(_ context.Context, q PackageQuery) ([]models.Package, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	needle := strings.ToLower(strings.TrimSpace(q.Q))
	var all []models.Package
	for _, p := range m.packages {
		if q.Status != "" && p.Status != q.Status {
			continue
		}
		if needle != "" &&
			!containsFold(p.Recipient, needle) &&
			!containsFold(p.TrackingNumber, needle) &&
			!containsFold(p.Carrier, needle) {
			continue
		}
		all = append(all, *p)
	}
	slices.SortFunc(all, func(a, b models.Package) int {
		if c := b.ReceivedAt.Compare(a.ReceivedAt); c != 0 {
			return c
		}
		return int(b.ID) - int(a.ID)
	})
	return window(all, q.Limit, q.Offset), int64(len(all)), nil
}

func (m *MemStore) UpdatePackage(_ context.Context, id uint, patch PackagePatch) (*models.Package, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.packages[id]
	if !ok {
		return nil, ErrNotFound
	}
	patch.apply(p)
	p.UpdatedAt = time.Now().UTC()
	cp := *p
	return &cp, nil
}

func (m *MemStore) PickupPackage(_ context.Context, id uint, by string) (*models.Package, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.packages[id]
	if !ok {
		return nil, ErrNotFound
	}
	if p.Status == models.PackagePickedUp {
		return nil, ErrAlreadyPickedUp
	}
	now := time.Now().UTC()
	p.Status = models.PackagePickedUp
	p.PickedUpAt = &now
	p.PickedUpBy = &by
	p.UpdatedAt = now
	cp := *p
	return &cp, nil
}

func (m *MemStore) DeletePackage(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.packages[id]; !ok {
		return ErrNotFound
	}
	delete(m.packages, id)
	return nil
}

// --- Daily entries ---

func cloneEntry(e *models.DailyEntry) *models.DailyEntry {
	cp := *e
	cp.Details = maps.Clone(e.Details)
	return &cp
}

func (m *MemStore) CreateEntry(_ context.Context, e *models.DailyEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = m.next("entries")
	now := time.Now().UTC()
	if e.Timestamp.IsZero() {
		e.Timestamp = now
	}
	e.CreatedAt, e.UpdatedAt = now, now
	m.entries[e.ID] = cloneEntry(e)
	return nil
}

func (m *MemStore) FindEntryByID(_ context.Context, id uint) (*models.DailyEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneEntry(e), nil
}

func (m *MemStore) ListEntries(_ context.Context, q EntryQuery) ([]models.DailyEntry, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var all []models.DailyEntry
	for _, e := range m.entries {
		if !q.From.IsZero() && e.Timestamp.Before(q.From) {
			continue
		}
		if !q.To.IsZero() && !e.Timestamp.Before(q.To) {
			continue
		}
		if q.Type != "" && e.Type != q.Type {
			continue
		}
		all = append(all, *cloneEntry(e))
	}
	slices.SortFunc(all, func(a, b models.DailyEntry) int {
		if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
			return c
		}
		return int(b.ID) - int(a.ID)
	})
	return window(all, q.Limit, q.Offset), int64(len(all)), nil
}

func (m *MemStore) UpdateEntry(_ context.Context, id uint, patch EntryPatch) (*models.DailyEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	patch.apply(e)
	e.UpdatedAt = time.Now().UTC()
	return cloneEntry(e), nil
}

func (m *MemStore) DeleteEntry(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[id]; !ok {
		return ErrNotFound
	}
	delete(m.entries, id)
	return nil
}

// --- Reports ---

func cloneReport(r *models.Report) *models.Report {
	cp := *r
	cp.FormData = maps.Clone(r.FormData)
	cp.Attachments = slices.Clone(r.Attachments)
	return &cp
}

func (m *MemStore) CreateReport(_ context.Context, r *models.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.reports {
		if existing.SubmissionID == r.SubmissionID {
			return ErrDuplicate
		}
	}
	r.ID = m.next("reports")
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	m.reports[r.ID] = cloneReport(r)
	return nil
}

func (m *MemStore) FindReportByID(_ context.Context, id uint) (*models.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.reports[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneReport(r), nil
}

func (m *MemStore) FindReportBySubmissionID(_ context.Context, submissionID string) (*models.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.reports {
		if r.SubmissionID == submissionID {
			return cloneReport(r), nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemStore) ListReports(_ context.Context, q ReportQuery) ([]models.Report, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var all []models.Report
	for _, r := range m.reports {
		if q.Type != "" && r.ReportType != q.Type {
			continue
		}
		if q.Status != "" && r.Status != q.Status {
			continue
		}
		all = append(all, *cloneReport(r))
	}
	slices.SortFunc(all, func(a, b models.Report) int { return int(b.ID) - int(a.ID) })
	return window(all, q.Limit, q.Offset), int64(len(all)), nil
}

func (m *MemStore) DeleteReport(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reports[id]; !ok {
		return ErrNotFound
	}
	delete(m.reports, id)
	return nil
}

// --- Daily logs ---

func cloneDailyLog(l *models.DailyLog) *models.DailyLog {
	cp := *l
	cp.FormData = maps.Clone(l.FormData)
	cp.Attachments = slices.Clone(l.Attachments)
	return &cp
}

func (m *MemStore) CreateDailyLog(_ context.Context, l *models.DailyLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.dailyLogs {
		if existing.SubmissionID == l.SubmissionID {
			return ErrDuplicate
		}
	}
	l.ID = m.next("daily_logs")
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	m.dailyLogs[l.ID] = cloneDailyLog(l)
	return nil
}

func (m *MemStore) FindDailyLogByID(_ context.Context, id uint) (*models.DailyLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.dailyLogs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneDailyLog(l), nil
}

func (m *MemStore) FindDailyLogBySubmissionID(_ context.Context, submissionID string) (*models.DailyLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, l := range m.dailyLogs {
		if l.SubmissionID == submissionID {
			return cloneDailyLog(l), nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemStore) ListDailyLogs(_ context.Context, limit, offset int) ([]models.DailyLog, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	all := make([]models.DailyLog, 0, len(m.dailyLogs))
	for _, l := range m.dailyLogs {
		all = append(all, *cloneDailyLog(l))
	}
	slices.SortFunc(all, func(a, b models.DailyLog) int { return int(b.ID) - int(a.ID) })
	return window(all, limit, offset), int64(len(all)), nil
}

func (m *MemStore) DeleteDailyLog(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.dailyLogs[id]; !ok {
		return ErrNotFound
	}
	delete(m.dailyLogs, id)
	return nil
}

func (m *MemStore) AttachmentFilenames(_ context.Context) (map[string]struct{}, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keep := make(map[string]struct{})
	for _, r := range m.reports {
		for _, a := range r.Attachments {
			keep[a.Filename] = struct{}{}
		}
	}
	for _, l := range m.dailyLogs {
		for _, a := range l.Attachments {
			keep[a.Filename] = struct{}{}
		}
	}
	return keep, nil
}

// --- Equipment ---

func (m *MemStore) CreateEquipment(_ context.Context, e *models.Equipment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.equipment {
		if existing.Serial == e.Serial {
			return ErrDuplicate
		}
	}
	e.ID = m.next("equipment")
	if e.Status == "" {
		e.Status = models.EquipmentActive
	}
	now := time.Now().UTC()
	e.CreatedAt, e.UpdatedAt = now, now
	cp := *e
	m.equipment[e.ID] = &cp
	return nil
}

func (m *MemStore) FindEquipmentByID(_ context.Context, id uint) (*models.Equipment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.equipment[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *MemStore) ListEquipment(_ context.Context, q EquipmentQuery) (*PagedEquipment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	now := time.Now()
	needle := strings.ToLower(strings.TrimSpace(q.Q))

	var rows []EquipmentRow
	for _, e := range m.equipment {
		if needle != "" && !containsFold(e.Serial, needle) && !containsFold(e.Name, needle) {
			continue
		}
		row := EquipmentRow{
			ID: e.ID, Serial: e.Serial, Name: e.Name, Status: e.Status,
			InUse: e.InUse, CreatedAt: e.CreatedAt, UpdatedAt: e.UpdatedAt,
		}
		if c := m.openCheckout(e.ID); c != nil {
			id, officer, at := c.ID, c.Officer, c.CheckedOutAt
			row.CheckoutID, row.Officer, row.CheckedOutAt, row.DueAt = &id, &officer, &at, c.DueAt
			row.Overdue = c.DueAt != nil && c.DueAt.Before(now)
		}
		switch q.Status {
		case "open":
			if !row.InUse {
				continue
			}
		case "available":
			if row.InUse || row.Status != models.EquipmentActive {
				continue
			}
		case "overdue":
			if !row.Overdue {
				continue
			}
		case "inactive":
			if row.Status == models.EquipmentActive {
				continue
			}
		}
		rows = append(rows, row)
	}
	slices.SortFunc(rows, func(a, b EquipmentRow) int { return int(b.ID) - int(a.ID) })
	return &PagedEquipment{Total: int64(len(rows)), Items: window(rows, q.Limit, q.Offset)}, nil
}

// openCheckout must be called with mu held.
func (m *MemStore) openCheckout(equipmentID uint) *models.Checkout {
	var latest *models.Checkout
	for _, c := range m.checkouts {
		if c.EquipmentID != equipmentID || c.ReturnedAt != nil {
			continue
		}
		if latest == nil || c.CheckedOutAt.After(latest.CheckedOutAt) {
			latest = c
		}
	}
	return latest
}

func (m *MemStore) CheckoutEquipment(_ context.Context, officer string, equipmentID uint, dueAt *time.Time, note string) (*models.Checkout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.equipment[equipmentID]
	if !ok {
		return nil, ErrNotFound
	}
	if e.Status != models.EquipmentActive {
		return nil, ErrInactive
	}
	if e.InUse || m.openCheckout(equipmentID) != nil {
		return nil, ErrAlreadyCheckedOut
	}
	c := newCheckout(equipmentID, officer, dueAt, note)
	c.ID = m.next("checkouts")
	c.CreatedAt, c.UpdatedAt = c.CheckedOutAt, c.CheckedOutAt
	m.checkouts[c.ID] = c
	e.InUse = true
	e.UpdatedAt = c.CheckedOutAt
	cp := *c
	return &cp, nil
}

func (m *MemStore) ReturnCheckout(_ context.Context, checkoutID uint, returnedBy string) (*models.Checkout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.checkouts[checkoutID]
	if !ok {
		return nil, ErrNotFound
	}
	if c.ReturnedAt == nil {
		now := time.Now().UTC()
		c.ReturnedAt = &now
		c.ReturnedBy = &returnedBy
		c.UpdatedAt = now
		if e, ok := m.equipment[c.EquipmentID]; ok {
			e.InUse = false
			e.UpdatedAt = now
		}
	}
	cp := *c
	return &cp, nil
}

func (m *MemStore) ListCheckouts(_ context.Context, q CheckoutQuery) ([]models.Checkout, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Checkout
	for _, c := range m.checkouts {
		if q.Officer != "" && c.Officer != q.Officer {
			continue
		}
		if q.EquipmentID != 0 && c.EquipmentID != q.EquipmentID {
			continue
		}
		switch q.Status {
		case "open":
			if c.ReturnedAt != nil {
				continue
			}
		case "returned":
			if c.ReturnedAt == nil {
				continue
			}
		}
		out = append(out, *c)
	}
	slices.SortFunc(out, func(a, b models.Checkout) int {
		if c := b.CheckedOutAt.Compare(a.CheckedOutAt); c != 0 {
			return c
		}
		return int(b.ID) - int(a.ID)
	})
	return out, nil
}
