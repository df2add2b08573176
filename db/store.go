package db

import (
	"context"
	"errors"
	"time"

	"verivault/models"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicate         = errors.New("record already exists")
	ErrAlreadyCheckedOut = errors.New("equipment already checked out")
	ErrAlreadyPickedUp   = errors.New("package already picked up")
	ErrInactive          = errors.New("equipment is not active")
)

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// Page 把 limit/offset 收敛到合法范围
func Page(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

type ListUsersResult struct {
	Users []models.User `json:"users"`
	Total int64         `json:"total"`
}

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	FindUserByID(ctx context.Context, id uint) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	ListUsers(ctx context.Context, q string, limit, offset int) (ListUsersResult, error)
	UpdateUserPin(ctx context.Context, id uint, pinHash string) error
	TouchUserLogin(ctx context.Context, id uint, ip, ua string) error
	TouchUserSeen(ctx context.Context, id uint) error
}

type VerificationLogStore interface {
	LogVerification(ctx context.Context, l *models.VerificationLog) error
	ListVerifications(ctx context.Context, userID uint, limit, offset int) ([]models.VerificationLog, int64, error)
}

type PersonQuery struct {
	Q      string
	Type   string
	Limit  int
	Offset int
}

// PersonPatch 只覆盖非 nil 字段
type PersonPatch struct {
	FirstName  *string `json:"firstName"`
	LastName   *string `json:"lastName"`
	Type       *string `json:"type"`
	Company    *string `json:"company"`
	Department *string `json:"department"`
	Phone      *string `json:"phone"`
}

func (p PersonPatch) apply(dst *models.Person) {
	setStr(&dst.FirstName, p.FirstName)
	setStr(&dst.LastName, p.LastName)
	setStr(&dst.Type, p.Type)
	setStr(&dst.Company, p.Company)
	setStr(&dst.Department, p.Department)
	setStr(&dst.Phone, p.Phone)
}

type PersonStore interface {
	CreatePerson(ctx context.Context, p *models.Person) error
	FindPersonByID(ctx context.Context, id uint) (*models.Person, error)
	ListPeople(ctx context.Context, q PersonQuery) ([]models.Person, int64, error)
	UpdatePerson(ctx context.Context, id uint, patch PersonPatch) (*models.Person, error)
	DeletePerson(ctx context.Context, id uint) error
}

type PackageQuery struct {
	Q      string
	Status string
	Limit  int
	Offset int
}

type PackagePatch struct {
	TrackingNumber *string `json:"trackingNumber"`
	Carrier        *string `json:"carrier"`
	Recipient      *string `json:"recipient"`
	Sender         *string `json:"sender"`
	Description    *string `json:"description"`
}

func (p PackagePatch) apply(dst *models.Package) {
	setStr(&dst.TrackingNumber, p.TrackingNumber)
	setStr(&dst.Carrier, p.Carrier)
	setStr(&dst.Recipient, p.Recipient)
	setStr(&dst.Sender, p.Sender)
	setStr(&dst.Description, p.Description)
}

type PackageStore interface {
	// CreatePackage 同时写入一条 package 类型的当日记录
	CreatePackage(ctx context.Context, p *models.Package) error
	FindPackageByID(ctx context.Context, id uint) (*models.Package, error)
	ListPackages(ctx context.Context, q PackageQuery) ([]models.Package, int64, error)
	UpdatePackage(ctx context.Context, id uint, patch PackagePatch) (*models.Package, error)
	PickupPackage(ctx context.Context, id uint, by string) (*models.Package, error)
	DeletePackage(ctx context.Context, id uint) error
}

// EntryQuery 的 From/To 为零值时不按时间过滤
type EntryQuery struct {
	From   time.Time
	To     time.Time
	Type   string
	Limit  int
	Offset int
}

type EntryPatch struct {
	Type    *string        `json:"type"`
	Details map[string]any `json:"details"`
}

func (p EntryPatch) apply(dst *models.DailyEntry) {
	setStr(&dst.Type, p.Type)
	if len(p.Details) == 0 {
		return
	}
	merged := make(map[string]any, len(dst.Details)+len(p.Details))
	for k, v := range dst.Details {
		merged[k] = v
	}
	for k, v := range p.Details {
		merged[k] = v
	}
	dst.Details = merged
}

type EntryStore interface {
	CreateEntry(ctx context.Context, e *models.DailyEntry) error
	FindEntryByID(ctx context.Context, id uint) (*models.DailyEntry, error)
	ListEntries(ctx context.Context, q EntryQuery) ([]models.DailyEntry, int64, error)
	UpdateEntry(ctx context.Context, id uint, patch EntryPatch) (*models.DailyEntry, error)
	DeleteEntry(ctx context.Context, id uint) error
}

type ReportQuery struct {
	Type   string
	Status string
	Limit  int
	Offset int
}

type ReportStore interface {
	CreateReport(ctx context.Context, r *models.Report) error
	FindReportByID(ctx context.Context, id uint) (*models.Report, error)
	FindReportBySubmissionID(ctx context.Context, submissionID string) (*models.Report, error)
	ListReports(ctx context.Context, q ReportQuery) ([]models.Report, int64, error)
	DeleteReport(ctx context.Context, id uint) error
}

type DailyLogStore interface {
	CreateDailyLog(ctx context.Context, l *models.DailyLog) error
	FindDailyLogByID(ctx context.Context, id uint) (*models.DailyLog, error)
	FindDailyLogBySubmissionID(ctx context.Context, submissionID string) (*models.DailyLog, error)
	ListDailyLogs(ctx context.Context, limit, offset int) ([]models.DailyLog, int64, error)
	DeleteDailyLog(ctx context.Context, id uint) error
}

type CheckoutQuery struct {
	Officer     string
	EquipmentID uint
	Status      string // "", "open", "returned"
}

type EquipmentStore interface {
	CreateEquipment(ctx context.Context, e *models.Equipment) error
	FindEquipmentByID(ctx context.Context, id uint) (*models.Equipment, error)
	ListEquipment(ctx context.Context, q EquipmentQuery) (*PagedEquipment, error)
	CheckoutEquipment(ctx context.Context, officer string, equipmentID uint, dueAt *time.Time, note string) (*models.Checkout, error)
	ReturnCheckout(ctx context.Context, checkoutID uint, returnedBy string) (*models.Checkout, error)
	ListCheckouts(ctx context.Context, q CheckoutQuery) ([]models.Checkout, error)
}

// AttachmentIndex 列出仍被记录引用的上传文件名，供孤儿文件清理使用
type AttachmentIndex interface {
	AttachmentFilenames(ctx context.Context) (map[string]struct{}, error)
}

type Store interface {
	UserStore
	VerificationLogStore
	PersonStore
	PackageStore
	EntryStore
	ReportStore
	DailyLogStore
	EquipmentStore
	AttachmentIndex
}

func setStr(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
