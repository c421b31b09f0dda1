package expenses

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	expensesdomain "sharespend/internal/domain/expenses"
)

type expenseRow struct {
	ID          int64           `gorm:"column:id;primaryKey;autoIncrement"`
	UserID      string          `gorm:"column:user_id"`
	GroupID     *string         `gorm:"column:group_id"`
	Amount      decimal.Decimal `gorm:"column:amount"`
	Description string          `gorm:"column:description"`
	Category    string          `gorm:"column:category"`
	PayerName   string          `gorm:"column:payer_name"`
	Date        time.Time       `gorm:"column:date"`
	CreatedAt   time.Time       `gorm:"column:created_at"`
}

func (expenseRow) TableName() string {
	return "expenses"
}

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// ListByGroup returns newest first.
func (r *PostgresRepository) ListByGroup(ctx context.Context, groupID string) ([]expensesdomain.Expense, error) {
	var rows []expenseRow
	if err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("date desc, id desc").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	items := make([]expensesdomain.Expense, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toDomain())
	}
	return items, nil
}

func (r *PostgresRepository) CreateExpense(ctx context.Context, expense *expensesdomain.Expense) error {
	row := fromDomain(expense)
	row.CreatedAt = time.Now().UTC()
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}
	expense.ID = row.ID
	return nil
}

func (r *PostgresRepository) DeleteExpense(ctx context.Context, groupID string, expenseID int64) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("group_id = ? AND id = ?", groupID, expenseID).
		Delete(&expenseRow{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *PostgresRepository) DeleteByGroup(ctx context.Context, groupID string) (int64, error) {
	result := r.db.WithContext(ctx).Where("group_id = ?", groupID).Delete(&expenseRow{})
	return result.RowsAffected, result.Error
}

func (r *PostgresRepository) DeleteByUserInGroup(ctx context.Context, userID, groupID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND group_id = ?", userID, groupID).
		Delete(&expenseRow{})
	return result.RowsAffected, result.Error
}

func (r *PostgresRepository) AssignUngrouped(ctx context.Context, userID, groupID string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&expenseRow{}).
		Where("user_id = ? AND group_id IS NULL", userID).
		Update("group_id", groupID)
	return result.RowsAffected, result.Error
}

func (row expenseRow) toDomain() expensesdomain.Expense {
	return expensesdomain.Expense{
		ID:          row.ID,
		UserID:      row.UserID,
		GroupID:     row.GroupID,
		Amount:      row.Amount,
		Description: row.Description,
		Category:    row.Category,
		PayerName:   row.PayerName,
		Date:        row.Date,
	}
}

func fromDomain(expense *expensesdomain.Expense) expenseRow {
	return expenseRow{
		UserID:      expense.UserID,
		GroupID:     expense.GroupID,
		Amount:      expense.Amount,
		Description: expense.Description,
		Category:    expense.Category,
		PayerName:   expense.PayerName,
		Date:        expense.Date,
	}
}
