// Package session holds the per-user view of groups, expenses and totals.
//
// A Coordinator applies every mutation to its in-memory state first and then
// reconciles with the Store. Adding and deleting expenses are rolled back when
// the store call fails; clearing, settling and resetting keep their local
// effect and only log the failure.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"sharespend/internal/domain/expenses"
	"sharespend/internal/domain/groups"
	"sharespend/internal/domain/profile"
	"sharespend/pkg/debounce"
	"sharespend/pkg/logger"
)

const (
	DefaultAutoSaveDelay = 500 * time.Millisecond
	autoSaveTimeout      = 5 * time.Second
)

// Identity is what the auth layer knows about the user.
type Identity struct {
	Email string
	Name  string
}

type Options struct {
	AutoSaveDelay time.Duration
	MaxGroups     int
	Logger        logger.Logger
	Metrics       *Metrics
	Now           func() time.Time
}

func (o Options) withDefaults() Options {
	if o.AutoSaveDelay <= 0 {
		o.AutoSaveDelay = DefaultAutoSaveDelay
	}
	if o.MaxGroups <= 0 {
		o.MaxGroups = groups.DefaultMaxGroups
	}
	if o.Logger == nil {
		o.Logger = logger.Discard()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

type Coordinator struct {
	userID    string
	identity  Identity
	store     Store
	log       logger.Logger
	metrics   *Metrics
	maxGroups int
	now       func() time.Time

	// opMu serializes mutating operations; mu guards st and is never held
	// across a store call.
	opMu   sync.Mutex
	mu     sync.RWMutex
	st     state
	loaded bool
	closed bool
	tempID int64

	saveMu   sync.Mutex
	autosave *debounce.Debouncer
}

func New(userID string, identity Identity, store Store, opts Options) *Coordinator {
	opts = opts.withDefaults()
	c := &Coordinator{
		userID:    userID,
		identity:  identity,
		store:     store,
		log:       opts.Logger.With("user_id", userID),
		metrics:   opts.Metrics,
		maxGroups: opts.MaxGroups,
		now:       opts.Now,
		st:        state{data: defaultGroupData()},
	}
	c.autosave = debounce.New(opts.AutoSaveDelay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), autoSaveTimeout)
		defer cancel()
		_ = c.save(ctx)
	})
	return c
}

func (c *Coordinator) UserID() string {
	return c.userID
}

// Load replaces the in-memory state with what the store holds. The persisted
// active group is reselected and its totals recomputed from its expenses.
func (c *Coordinator) Load(ctx context.Context) (err error) {
	defer func() { c.metrics.operation("load", err) }()

	c.opMu.Lock()
	defer c.opMu.Unlock()
	if c.closed {
		return ErrClosed
	}

	p, err := c.store.LoadProfile(ctx, c.userID)
	switch {
	case errors.Is(err, profile.ErrProfileNotFound):
		fresh := profile.New(c.userID, c.identity.Email, c.identity.Name)
		if fresh.DisplayName == "" {
			fresh.DisplayName = profile.DefaultDisplayName(c.identity.Email)
		}
		p = &fresh
	case err != nil:
		c.log.InternalError("session.load: profile", err)
		return ErrLoadFailed
	}

	roster, err := c.store.ListGroups(ctx, c.userID)
	if err != nil {
		c.log.InternalError("session.load: groups", err)
		return ErrLoadFailed
	}

	next := state{data: defaultGroupData(), groups: roster}
	next.data.UserName = p.DisplayName
	next.data.Nickname = p.Nickname

	if active, ok := findActiveGroup(roster, p); ok {
		items, err := c.store.ListExpenses(ctx, active.ID)
		if err != nil {
			c.log.InternalError("session.load: expenses", err, "group_id", active.ID)
			return ErrLoadFailed
		}
		next.data.TotalPaid = p.TotalPaid
		next.selectGroup(active, items)
	}

	c.mu.Lock()
	c.st = next
	c.loaded = true
	c.mu.Unlock()

	c.log.Debug("session.load: loaded", "groups", len(roster), "group_selected", next.selected != nil)
	return nil
}

func findActiveGroup(roster []groups.Group, p *profile.Profile) (groups.Group, bool) {
	if p.ActiveGroupID != nil {
		for _, group := range roster {
			if group.ID == *p.ActiveGroupID {
				return group, true
			}
		}
	}
	// rows saved before the active group id existed only carry the name
	if p.GroupName != "" {
		for _, group := range roster {
			if group.Name == p.GroupName {
				return group, true
			}
		}
	}
	return groups.Group{}, false
}

func (c *Coordinator) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := c.st.snapshot()
	snap.UserID = c.userID
	snap.Loaded = c.loaded
	snap.MaxGroups = c.maxGroups
	return snap
}

// AddExpense prepends the expense under a temporary negative id, persists it
// and swaps in the stored id. A failed write removes it and reverts the totals.
func (c *Coordinator) AddExpense(ctx context.Context, amount, description, category string) (created *expenses.Expense, err error) {
	defer func() { c.metrics.operation("add_expense", err) }()

	draft, err := expenses.Validate(amount, description, category)
	if err != nil {
		return nil, err
	}

	c.opMu.Lock()
	defer c.opMu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}

	c.mu.Lock()
	if c.st.selected == nil {
		c.mu.Unlock()
		return nil, ErrNoGroupSelected
	}
	groupID := c.st.selected.ID
	c.tempID--
	tempID := c.tempID
	optimistic := expenses.Expense{
		ID:          tempID,
		UserID:      c.userID,
		GroupID:     &groupID,
		Amount:      draft.Amount,
		Description: draft.Description,
		Category:    draft.Category,
		PayerName:   c.st.data.PayerName(),
		Date:        c.now().UTC(),
	}
	c.st.insertExpenseAt(0, optimistic)
	applied := delta{total: draft.Amount, user: draft.Amount, paid: decimal.Zero}
	applied.applyTo(&c.st.data)
	c.mu.Unlock()
	c.autosave.Trigger()

	stored, err := c.store.CreateExpense(ctx, expenses.CreateExpenseInput{
		UserID:      c.userID,
		GroupID:     groupID,
		PayerName:   optimistic.PayerName,
		Amount:      optimistic.Amount,
		Description: optimistic.Description,
		Category:    optimistic.Category,
		Date:        optimistic.Date,
	})
	if err != nil {
		c.mu.Lock()
		if index := c.st.findExpense(tempID); index >= 0 {
			c.st.removeExpenseAt(index)
		}
		applied.inverse().applyTo(&c.st.data)
		c.mu.Unlock()
		c.autosave.Trigger()

		c.metrics.rollback("add_expense")
		c.log.InternalError("session.add_expense: store failed, rolled back", err, "group_id", groupID)
		return nil, ErrSaveFailed
	}

	c.mu.Lock()
	result := optimistic
	if index := c.st.findExpense(tempID); index >= 0 {
		c.st.expenses[index].ID = stored.ID
		result = c.st.expenses[index]
	}
	c.mu.Unlock()

	return &result, nil
}

func (c *Coordinator) DeleteExpense(ctx context.Context, id int64) (err error) {
	defer func() { c.metrics.operation("delete_expense", err) }()

	c.opMu.Lock()
	defer c.opMu.Unlock()
	if c.closed {
		return ErrClosed
	}
	return c.deleteExpense(ctx, "delete_expense", id)
}

// deleteExpense floors each total at zero and remembers exactly how much it
// subtracted so the rollback restores the same amounts.
func (c *Coordinator) deleteExpense(ctx context.Context, op string, id int64) error {
	c.mu.Lock()
	if c.st.selected == nil {
		c.mu.Unlock()
		return ErrNoGroupSelected
	}
	groupID := c.st.selected.ID
	index := c.st.findExpense(id)
	if index < 0 {
		c.mu.Unlock()
		return ErrExpenseNotFound
	}
	removed := c.st.removeExpenseAt(index)
	applied := delta{
		total: decimal.Min(c.st.data.TotalGroupExpenses, removed.Amount).Neg(),
		user:  decimal.Min(c.st.data.UserExpenses, removed.Amount).Neg(),
		paid:  decimal.Zero,
	}
	applied.applyTo(&c.st.data)
	c.mu.Unlock()
	c.autosave.Trigger()

	err := c.store.DeleteExpense(ctx, groupID, id)
	if errors.Is(err, expenses.ErrExpenseNotFound) {
		c.log.Warn("session."+op+": expense already gone from store", "group_id", groupID, "expense_id", id)
		return nil
	}
	if err != nil {
		c.mu.Lock()
		c.st.insertExpenseAt(index, removed)
		applied.inverse().applyTo(&c.st.data)
		c.mu.Unlock()
		c.autosave.Trigger()

		c.metrics.rollback(op)
		c.log.InternalError("session."+op+": store failed, rolled back", err, "group_id", groupID, "expense_id", id)
		return ErrSaveFailed
	}
	return nil
}

// CheckExpense records the expense as paid and deletes it. The totals end up
// unchanged while TotalPaid grows by the amount.
func (c *Coordinator) CheckExpense(ctx context.Context, id int64) (err error) {
	defer func() { c.metrics.operation("check_expense", err) }()

	c.opMu.Lock()
	defer c.opMu.Unlock()
	if c.closed {
		return ErrClosed
	}

	c.mu.Lock()
	if c.st.selected == nil {
		c.mu.Unlock()
		return ErrNoGroupSelected
	}
	index := c.st.findExpense(id)
	if index < 0 {
		c.mu.Unlock()
		return ErrExpenseNotFound
	}
	amount := c.st.expenses[index].Amount
	applied := delta{total: amount, user: amount, paid: amount}
	applied.applyTo(&c.st.data)
	c.mu.Unlock()

	if err := c.deleteExpense(ctx, "check_expense", id); err != nil {
		c.mu.Lock()
		applied.inverse().applyTo(&c.st.data)
		c.mu.Unlock()
		c.autosave.Trigger()
		return err
	}
	return nil
}

func (c *Coordinator) ClearExpenses(ctx context.Context) (err error) {
	defer func() { c.metrics.operation("clear_expenses", err) }()

	c.opMu.Lock()
	defer c.opMu.Unlock()
	if c.closed {
		return ErrClosed
	}

	c.mu.Lock()
	if c.st.selected == nil {
		c.mu.Unlock()
		return ErrNoGroupSelected
	}
	groupID := c.st.selected.ID
	c.st.expenses = nil
	c.st.data.TotalGroupExpenses = decimal.Zero
	c.st.data.UserExpenses = decimal.Zero
	c.mu.Unlock()
	c.autosave.Trigger()

	c.clearRemote(ctx, "clear_expenses", groupID)
	return nil
}

// SettleBalance moves everything the user spent into TotalPaid and clears the
// group's expenses.
func (c *Coordinator) SettleBalance(ctx context.Context) (err error) {
	defer func() { c.metrics.operation("settle_balance", err) }()

	c.opMu.Lock()
	defer c.opMu.Unlock()
	if c.closed {
		return ErrClosed
	}

	c.mu.Lock()
	if c.st.selected == nil {
		c.mu.Unlock()
		return ErrNoGroupSelected
	}
	groupID := c.st.selected.ID
	c.st.data.TotalPaid = c.st.data.TotalPaid.Add(c.st.data.UserExpenses)
	c.st.data.TotalGroupExpenses = decimal.Zero
	c.st.data.UserExpenses = decimal.Zero
	c.st.expenses = nil
	c.mu.Unlock()
	c.autosave.Trigger()

	c.clearRemote(ctx, "settle_balance", groupID)
	return nil
}

// ResetAll zeroes the totals and clears the selected group's expenses. Names
// and the selection are kept.
func (c *Coordinator) ResetAll(ctx context.Context) (err error) {
	defer func() { c.metrics.operation("reset_all", err) }()

	c.opMu.Lock()
	defer c.opMu.Unlock()
	if c.closed {
		return ErrClosed
	}

	c.mu.Lock()
	groupID := ""
	if c.st.selected != nil {
		groupID = c.st.selected.ID
	}
	c.st.data.TotalGroupExpenses = decimal.Zero
	c.st.data.UserExpenses = decimal.Zero
	c.st.data.TotalPaid = decimal.Zero
	c.st.expenses = nil
	c.mu.Unlock()
	c.autosave.Trigger()

	if groupID != "" {
		c.clearRemote(ctx, "reset_all", groupID)
	}
	return nil
}

func (c *Coordinator) clearRemote(ctx context.Context, op, groupID string) {
	if err := c.store.ClearExpenses(ctx, groupID); err != nil {
		c.log.InternalError("session."+op+": store failed, keeping local state", err, "group_id", groupID)
	}
}

// UpdateGroupData merges patch into the state. The change reaches the store
// through the debounced auto-save. It waits for an in-flight operation so a
// rollback never reverts on top of the patched totals.
func (c *Coordinator) UpdateGroupData(patch GroupDataPatch) (err error) {
	defer func() { c.metrics.operation("update_group_data", err) }()

	if patch.UserName != nil {
		trimmed := strings.TrimSpace(*patch.UserName)
		patch.UserName = &trimmed
	}
	if patch.Nickname != nil {
		trimmed := strings.TrimSpace(*patch.Nickname)
		patch.Nickname = &trimmed
	}
	if err := patch.validate(); err != nil {
		return err
	}

	c.opMu.Lock()
	defer c.opMu.Unlock()
	if c.closed {
		return ErrClosed
	}

	c.mu.Lock()
	patch.applyTo(&c.st.data)
	c.mu.Unlock()
	c.autosave.Trigger()
	return nil
}

// CreateNewGroup creates a group and selects it. The group cap is checked
// against the local roster before anything is sent to the store.
func (c *Coordinator) CreateNewGroup(ctx context.Context, name string, memberCount int) (created *groups.Group, err error) {
	defer func() { c.metrics.operation("create_group", err) }()

	c.opMu.Lock()
	defer c.opMu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}

	c.mu.RLock()
	rosterSize := len(c.st.groups)
	creatorName := c.st.data.PayerName()
	c.mu.RUnlock()

	if rosterSize >= c.maxGroups {
		return nil, ErrGroupLimitReached
	}
	if memberCount < groups.MinMembers || memberCount > groups.MaxMembers {
		return nil, ErrInvalidMemberCount
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrGroupNameRequired
	}

	group, err := c.store.CreateGroup(ctx, groups.CreateGroupInput{
		UserID:      c.userID,
		CreatorName: creatorName,
		Name:        name,
		MemberCount: memberCount,
	})
	if err != nil {
		switch {
		case errors.Is(err, groups.ErrGroupLimitReached):
			return nil, ErrGroupLimitReached
		case errors.Is(err, groups.ErrInvalidMemberCount):
			return nil, ErrInvalidMemberCount
		case errors.Is(err, groups.ErrNameRequired):
			return nil, ErrGroupNameRequired
		}
		c.log.InternalError("session.create_group: store failed", err)
		return nil, ErrSaveFailed
	}

	c.mu.Lock()
	c.st.groups = append(c.st.groups, *group)
	c.st.selectGroup(*group, nil)
	c.mu.Unlock()
	c.autosave.Trigger()

	c.log.Info("session.create_group: created", "group_id", group.ID)
	return group, nil
}

// SelectGroup loads the group's expenses and recomputes the totals from them.
func (c *Coordinator) SelectGroup(ctx context.Context, groupID string) (err error) {
	defer func() { c.metrics.operation("select_group", err) }()

	c.opMu.Lock()
	defer c.opMu.Unlock()
	if c.closed {
		return ErrClosed
	}

	c.mu.RLock()
	index := c.st.findGroup(groupID)
	var group groups.Group
	if index >= 0 {
		group = c.st.groups[index]
	}
	c.mu.RUnlock()
	if index < 0 {
		return ErrGroupNotFound
	}

	return c.selectGroup(ctx, "select_group", group)
}

func (c *Coordinator) selectGroup(ctx context.Context, op string, group groups.Group) error {
	items, err := c.store.ListExpenses(ctx, group.ID)
	if err != nil {
		c.log.InternalError("session."+op+": load expenses failed", err, "group_id", group.ID)
		return ErrLoadFailed
	}

	c.mu.Lock()
	c.st.selectGroup(group, items)
	c.mu.Unlock()
	c.autosave.Trigger()
	return nil
}

// JoinGroup joins the group behind secret, moves the user's ungrouped expenses
// into it and selects it. Joining a group the user already belongs to is not
// an error.
func (c *Coordinator) JoinGroup(ctx context.Context, secret string) (joined *groups.Group, err error) {
	defer func() { c.metrics.operation("join_group", err) }()

	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, ErrGroupNotFound
	}

	c.opMu.Lock()
	defer c.opMu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}

	c.mu.RLock()
	var existing *groups.Group
	for i := range c.st.groups {
		if c.st.groups[i].AccessSecret == secret {
			group := c.st.groups[i]
			existing = &group
			break
		}
	}
	alreadySelected := existing != nil && c.st.selected != nil && c.st.selected.ID == existing.ID
	rosterSize := len(c.st.groups)
	c.mu.RUnlock()

	if existing != nil {
		if alreadySelected {
			return existing, nil
		}
		if err := c.selectGroup(ctx, "join_group", *existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	// at the cap only look the secret up, so an unknown code still reads as
	// not found and no membership is requested
	if rosterSize >= c.maxGroups {
		if _, err := c.store.FindGroup(ctx, secret); err != nil {
			if errors.Is(err, groups.ErrAccessSecretNotFound) || errors.Is(err, groups.ErrGroupNotFound) {
				c.log.BusinessError("session.join_group: unknown secret", err)
				return nil, ErrGroupNotFound
			}
			c.log.InternalError("session.join_group: lookup failed", err)
			return nil, ErrLoadFailed
		}
		return nil, ErrGroupLimitReached
	}

	result, err := c.store.JoinGroup(ctx, c.userID, secret)
	if err != nil {
		switch {
		case errors.Is(err, groups.ErrAccessSecretNotFound), errors.Is(err, groups.ErrGroupNotFound):
			c.log.BusinessError("session.join_group: unknown secret", err)
			return nil, ErrGroupNotFound
		case errors.Is(err, groups.ErrGroupLimitReached):
			return nil, ErrGroupLimitReached
		}
		c.log.InternalError("session.join_group: store failed", err)
		return nil, ErrSaveFailed
	}
	group := *result.Group

	c.mu.Lock()
	if c.st.findGroup(group.ID) < 0 {
		c.st.groups = append(c.st.groups, group)
	}
	c.mu.Unlock()

	if err := c.store.AdoptUngrouped(ctx, c.userID, group.ID); err != nil {
		c.log.InternalError("session.join_group: adopt ungrouped expenses failed", err, "group_id", group.ID)
	}

	if err := c.selectGroup(ctx, "join_group", group); err != nil {
		return nil, err
	}

	c.log.Info("session.join_group: joined", "group_id", group.ID, "already_member", result.AlreadyMember)
	return &group, nil
}

// LeaveGroup deactivates the membership and deletes the user's own expenses in
// the group. Leaving the selected group resets the group fields.
func (c *Coordinator) LeaveGroup(ctx context.Context, groupID string) (err error) {
	defer func() { c.metrics.operation("leave_group", err) }()

	c.opMu.Lock()
	defer c.opMu.Unlock()
	if c.closed {
		return ErrClosed
	}

	c.mu.RLock()
	index := c.st.findGroup(groupID)
	c.mu.RUnlock()
	if index < 0 {
		return ErrGroupNotFound
	}

	err = c.store.LeaveGroup(ctx, c.userID, groupID)
	if err != nil && !errors.Is(err, groups.ErrMembershipNotFound) {
		c.log.InternalError("session.leave_group: store failed", err, "group_id", groupID)
		return ErrSaveFailed
	}

	if err := c.store.RemoveUserExpenses(ctx, c.userID, groupID); err != nil {
		c.log.InternalError("session.leave_group: remove own expenses failed", err, "group_id", groupID)
	}

	c.mu.Lock()
	if index := c.st.findGroup(groupID); index >= 0 {
		c.st.groups = append(c.st.groups[:index:index], c.st.groups[index+1:]...)
	}
	if c.st.selected != nil && c.st.selected.ID == groupID {
		c.st.clearSelection()
	}
	c.mu.Unlock()
	c.autosave.Trigger()

	c.log.Info("session.leave_group: left", "group_id", groupID)
	return nil
}

// Flush writes a pending auto-save now.
func (c *Coordinator) Flush(ctx context.Context) error {
	if !c.autosave.Cancel() {
		return nil
	}
	return c.save(ctx)
}

// Close flushes the pending auto-save and rejects later operations.
func (c *Coordinator) Close(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	err := c.Flush(ctx)
	c.autosave.Stop()
	return err
}

// save writes the current group data to the profile row. Nothing is written
// while the user has neither names nor a group.
func (c *Coordinator) save(ctx context.Context) error {
	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	c.mu.RLock()
	if !c.loaded || c.st.data.empty() {
		c.mu.RUnlock()
		return nil
	}
	data := c.st.data
	var activeGroupID *string
	if c.st.selected != nil {
		id := c.st.selected.ID
		activeGroupID = &id
	}
	c.mu.RUnlock()

	p := profile.Profile{
		UserID:             c.userID,
		Email:              c.identity.Email,
		DisplayName:        data.UserName,
		Nickname:           data.Nickname,
		ActiveGroupID:      activeGroupID,
		GroupName:          data.GroupName,
		MemberCount:        data.MemberCount,
		TotalGroupExpenses: data.TotalGroupExpenses,
		TotalPaid:          data.TotalPaid,
		UserExpenses:       data.UserExpenses,
	}
	if err := c.store.SaveProfile(ctx, &p); err != nil {
		c.metrics.operation("autosave", ErrSaveFailed)
		c.log.InternalError("session.autosave: store failed", err)
		return ErrSaveFailed
	}
	c.metrics.operation("autosave", nil)
	return nil
}
