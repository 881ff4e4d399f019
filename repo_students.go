package auth

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var SetStudentPinSQL = `UPDATE "students" AS "std"
SET
	"pin_hash" = ?,
	"has_pin_set" = TRUE,
	"pin_last_changed" = ?
WHERE
	"std"."deleted_at" IS NULL
AND (
	"std"."id" = ?
) RETURNING *;`

type Students interface {
	repository.Repository[*Student]

	GetByRegNumber(ctx context.Context, regNumber string) (*Student, error)
	GetByRegNumberTx(ctx context.Context, tx bun.IDB, regNumber string) (*Student, error)

	SetPin(ctx context.Context, id uuid.UUID, pinHash string) (*Student, error)
	SetPinTx(ctx context.Context, tx bun.IDB, id uuid.UUID, pinHash string) (*Student, error)

	ListWithoutPin(ctx context.Context) ([]*Student, error)
	PinReport(ctx context.Context) ([]PinStatus, error)
}

type students struct {
	repository.Repository[*Student]
	db *bun.DB
}

var (
	_ Students                        = (*students)(nil)
	_ repository.Repository[*Student] = (*students)(nil)
)

func NewStudentsRepository(db *bun.DB) Students {
	repo := repository.NewRepository[*Student](db, repository.ModelHandlers[*Student]{
		NewRecord: func() *Student { return &Student{} },
		GetID: func(s *Student) uuid.UUID {
			if s == nil {
				return uuid.Nil
			}
			return s.ID
		},
		SetID: func(s *Student, id uuid.UUID) {
			if s != nil {
				s.ID = id
			}
		},
		GetIdentifier: func() string {
			return "reg_number"
		},
	})

	return &students{
		Repository: repo,
		db:         db,
	}
}

func (a *students) GetByRegNumber(ctx context.Context, regNumber string) (*Student, error) {
	return a.GetByRegNumberTx(ctx, a.db, regNumber)
}

func (a *students) GetByRegNumberTx(ctx context.Context, tx bun.IDB, regNumber string) (*Student, error) {
	record := &Student{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.reg_number = ?", regNumber).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"reg_number": regNumber,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *students) Create(ctx context.Context, record *Student, criteria ...repository.InsertCriteria) (*Student, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *students) CreateTx(ctx context.Context, tx bun.IDB, record *Student, criteria ...repository.InsertCriteria) (*Student, error) {
	prepareStudentDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

// SetPin installs a new PIN hash, marking the credential set and stamping the
// change. Covers first issuance, admin resets, and student-initiated changes
// alike; any previous PIN stops working immediately.
func (a *students) SetPin(ctx context.Context, id uuid.UUID, pinHash string) (*Student, error) {
	return a.SetPinTx(ctx, a.db, id, pinHash)
}

func (a *students) SetPinTx(ctx context.Context, tx bun.IDB, id uuid.UUID, pinHash string) (*Student, error) {
	res, err := a.Repository.RawTx(ctx, tx, SetStudentPinSQL, pinHash, time.Now(), id.String())
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return res[0], nil
}

func (a *students) ListWithoutPin(ctx context.Context) ([]*Student, error) {
	var records []*Student
	err := a.db.NewSelect().
		Model(&records).
		Where("?TableAlias.has_pin_set = FALSE").
		Order("reg_number ASC").
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}

func (a *students) PinReport(ctx context.Context) ([]PinStatus, error) {
	var records []*Student
	err := a.db.NewSelect().
		Model(&records).
		Column("id", "reg_number", "has_pin_set", "pin_last_changed").
		Order("reg_number ASC").
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	report := make([]PinStatus, 0, len(records))
	for _, record := range records {
		report = append(report, PinStatus{
			StudentID:      record.ID,
			RegNumber:      record.RegNumber,
			HasPinSet:      record.HasPinSet,
			PinLastChanged: record.PinLastChanged,
		})
	}

	return report, nil
}

func prepareStudentDefaults(record *Student) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}
