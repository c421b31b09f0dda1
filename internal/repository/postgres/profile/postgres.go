package profile

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	profiledomain "sharespend/internal/domain/profile"
)

type profileRow struct {
	UserID             string          `gorm:"column:user_id;primaryKey"`
	Email              *string         `gorm:"column:email"`
	DisplayName        string          `gorm:"column:display_name"`
	Nickname           string          `gorm:"column:nickname"`
	ActiveGroupID      *string         `gorm:"column:active_group_id"`
	GroupName          string          `gorm:"column:group_name"`
	MemberCount        int             `gorm:"column:member_count"`
	TotalGroupExpenses decimal.Decimal `gorm:"column:total_group_expenses"`
	TotalPaid          decimal.Decimal `gorm:"column:total_paid"`
	UserExpenses       decimal.Decimal `gorm:"column:user_expenses"`
	CreatedAt          time.Time       `gorm:"column:created_at"`
	UpdatedAt          time.Time       `gorm:"column:updated_at"`
}

func (profileRow) TableName() string {
	return "profiles"
}

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetProfile(ctx context.Context, userID string) (*profiledomain.Profile, error) {
	var row profileRow
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, profiledomain.ErrProfileNotFound
		}
		return nil, err
	}
	profile := row.toDomain()
	return &profile, nil
}

func (r *PostgresRepository) CreateIfMissing(ctx context.Context, profile *profiledomain.Profile) error {
	now := time.Now().UTC()
	row := fromDomain(profile)
	row.CreatedAt = now
	row.UpdatedAt = now

	updates := map[string]interface{}{}
	if row.Email != nil {
		updates["email"] = row.Email
	}

	onConflict := clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}}
	if len(updates) == 0 {
		onConflict.DoNothing = true
	} else {
		onConflict.DoUpdates = clause.Assignments(updates)
	}

	return r.db.WithContext(ctx).Clauses(onConflict).Create(&row).Error
}

// SaveProfile writes every group data column. The e-mail and creation time are
// left as they are.
func (r *PostgresRepository) SaveProfile(ctx context.Context, profile *profiledomain.Profile) error {
	now := time.Now().UTC()
	row := fromDomain(profile)
	row.CreatedAt = now
	row.UpdatedAt = now

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"display_name",
				"nickname",
				"active_group_id",
				"group_name",
				"member_count",
				"total_group_expenses",
				"total_paid",
				"user_expenses",
				"updated_at",
			}),
		}).
		Create(&row).Error
	if err != nil {
		return err
	}

	profile.UpdatedAt = now
	return nil
}

func (row profileRow) toDomain() profiledomain.Profile {
	profile := profiledomain.Profile{
		UserID:             row.UserID,
		DisplayName:        row.DisplayName,
		Nickname:           row.Nickname,
		ActiveGroupID:      row.ActiveGroupID,
		GroupName:          row.GroupName,
		MemberCount:        row.MemberCount,
		TotalGroupExpenses: row.TotalGroupExpenses,
		TotalPaid:          row.TotalPaid,
		UserExpenses:       row.UserExpenses,
		CreatedAt:          row.CreatedAt,
		UpdatedAt:          row.UpdatedAt,
	}
	if row.Email != nil {
		profile.Email = *row.Email
	}
	return profile
}

func fromDomain(profile *profiledomain.Profile) profileRow {
	row := profileRow{
		UserID:             profile.UserID,
		DisplayName:        profile.DisplayName,
		Nickname:           profile.Nickname,
		ActiveGroupID:      profile.ActiveGroupID,
		GroupName:          profile.GroupName,
		MemberCount:        profile.MemberCount,
		TotalGroupExpenses: profile.TotalGroupExpenses,
		TotalPaid:          profile.TotalPaid,
		UserExpenses:       profile.UserExpenses,
	}
	if profile.Email != "" {
		email := profile.Email
		row.Email = &email
	}
	return row
}
