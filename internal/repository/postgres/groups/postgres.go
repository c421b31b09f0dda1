package groups

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	groupsdomain "sharespend/internal/domain/groups"
)

type groupRow struct {
	ID           string    `gorm:"column:id;primaryKey"`
	Name         string    `gorm:"column:name"`
	MemberCount  int       `gorm:"column:member_count"`
	AccessSecret string    `gorm:"column:access_secret"`
	CreatorID    string    `gorm:"column:creator_id"`
	CreatorName  string    `gorm:"column:creator_name"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (groupRow) TableName() string {
	return "groups"
}

type membershipRow struct {
	ID       string     `gorm:"column:id;primaryKey"`
	GroupID  string     `gorm:"column:group_id"`
	UserID   string     `gorm:"column:user_id"`
	IsActive bool       `gorm:"column:is_active"`
	JoinedAt time.Time  `gorm:"column:joined_at"`
	LeftAt   *time.Time `gorm:"column:left_at"`
}

func (membershipRow) TableName() string {
	return "group_members"
}

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(groupsdomain.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx})
	})
}

func (r *PostgresRepository) ListActiveGroups(ctx context.Context, userID string) ([]groupsdomain.Group, error) {
	var rows []groupRow
	if err := r.db.WithContext(ctx).
		Table("groups").
		Select("groups.*").
		Joins("join group_members on group_members.group_id = groups.id").
		Where("group_members.user_id = ? AND group_members.is_active = ?", userID, true).
		Order("group_members.joined_at asc, groups.created_at asc").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	groups := make([]groupsdomain.Group, 0, len(rows))
	for _, row := range rows {
		groups = append(groups, row.toDomain())
	}
	return groups, nil
}

func (r *PostgresRepository) CountActiveGroups(ctx context.Context, userID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&membershipRow{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PostgresRepository) GetGroup(ctx context.Context, groupID string) (*groupsdomain.Group, error) {
	return r.findGroup(ctx, "id = ?", groupID, groupsdomain.ErrGroupNotFound)
}

func (r *PostgresRepository) GetGroupByAccessSecret(ctx context.Context, secret string) (*groupsdomain.Group, error) {
	return r.findGroup(ctx, "access_secret = ?", secret, groupsdomain.ErrAccessSecretNotFound)
}

func (r *PostgresRepository) findGroup(ctx context.Context, query string, arg interface{}, notFound error) (*groupsdomain.Group, error) {
	var row groupRow
	if err := r.db.WithContext(ctx).Where(query, arg).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound
		}
		return nil, err
	}
	group := row.toDomain()
	return &group, nil
}

func (r *PostgresRepository) IsAccessSecretTaken(ctx context.Context, secret string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&groupRow{}).Where("access_secret = ?", secret).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PostgresRepository) CreateGroup(ctx context.Context, group *groupsdomain.Group) error {
	row := groupRow{
		ID:           group.ID,
		Name:         group.Name,
		MemberCount:  group.MemberCount,
		AccessSecret: group.AccessSecret,
		CreatorID:    group.CreatorID,
		CreatorName:  group.CreatorName,
		CreatedAt:    group.CreatedAt,
	}
	return r.db.WithContext(ctx).Create(&row).Error
}

func (r *PostgresRepository) GetActiveMembership(ctx context.Context, groupID, userID string) (*groupsdomain.Membership, error) {
	var row membershipRow
	if err := r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ? AND is_active = ?", groupID, userID, true).
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, groupsdomain.ErrMembershipNotFound
		}
		return nil, err
	}
	membership := row.toDomain()
	return &membership, nil
}

func (r *PostgresRepository) AddMembership(ctx context.Context, membership *groupsdomain.Membership) error {
	row := membershipRow{
		ID:       membership.ID,
		GroupID:  membership.GroupID,
		UserID:   membership.UserID,
		IsActive: membership.Active,
		JoinedAt: membership.JoinedAt,
		LeftAt:   membership.LeftAt,
	}
	return r.db.WithContext(ctx).Create(&row).Error
}

func (r *PostgresRepository) DeactivateMembership(ctx context.Context, groupID, userID string, leftAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&membershipRow{}).
		Where("group_id = ? AND user_id = ? AND is_active = ?", groupID, userID, true).
		Updates(map[string]interface{}{
			"is_active": false,
			"left_at":   leftAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (row groupRow) toDomain() groupsdomain.Group {
	return groupsdomain.Group{
		ID:           row.ID,
		Name:         row.Name,
		MemberCount:  row.MemberCount,
		AccessSecret: row.AccessSecret,
		CreatorID:    row.CreatorID,
		CreatorName:  row.CreatorName,
		CreatedAt:    row.CreatedAt,
	}
}

func (row membershipRow) toDomain() groupsdomain.Membership {
	return groupsdomain.Membership{
		ID:       row.ID,
		GroupID:  row.GroupID,
		UserID:   row.UserID,
		Active:   row.IsActive,
		JoinedAt: row.JoinedAt,
		LeftAt:   row.LeftAt,
	}
}
