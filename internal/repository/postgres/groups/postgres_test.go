package groups

import (
	"context"
	"errors"
	"testing"
	"time"

	"sharespend/internal/db/dbtest"
	groupsdomain "sharespend/internal/domain/groups"
)

func TestGroupsRepositoryMembershipLifecycle(t *testing.T) {
	repo := NewPostgres(dbtest.SQLite(t))
	svc := groupsdomain.NewService(repo, 2)
	ctx := context.Background()

	group, err := svc.CreateGroup(ctx, groupsdomain.CreateGroupInput{
		UserID:      "user-1",
		CreatorName: "Maria",
		Name:        "Island trip",
		MemberCount: 3,
	})
	if err != nil {
		t.Fatalf("create group: %v", err)
	}

	taken, err := repo.IsAccessSecretTaken(ctx, group.AccessSecret)
	if err != nil || !taken {
		t.Fatalf("expected secret to be taken, got %v, %v", taken, err)
	}

	found, err := repo.GetGroupByAccessSecret(ctx, group.AccessSecret)
	if err != nil {
		t.Fatalf("lookup by secret: %v", err)
	}
	if found.ID != group.ID || found.MemberCount != 3 || found.CreatorName != "Maria" {
		t.Fatalf("unexpected group %+v", found)
	}

	joined, err := svc.JoinGroup(ctx, "user-2", group.AccessSecret)
	if err != nil || joined.AlreadyMember {
		t.Fatalf("join: %+v, %v", joined, err)
	}
	again, err := svc.JoinGroup(ctx, "user-2", group.AccessSecret)
	if err != nil || !again.AlreadyMember {
		t.Fatalf("expected idempotent join, got %+v, %v", again, err)
	}

	if err := svc.LeaveGroup(ctx, "user-2", group.ID); err != nil {
		t.Fatalf("leave: %v", err)
	}
	groups, err := repo.ListActiveGroups(ctx, "user-2")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(groups) != 0 {
		t.Fatalf("expected no visible groups after leaving, got %d", len(groups))
	}

	// rejoining after leaving adds a fresh active row next to the historical one
	if _, err := svc.JoinGroup(ctx, "user-2", group.AccessSecret); err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	var rows int64
	if err := repo.db.Model(&membershipRow{}).Where("user_id = ?", "user-2").Count(&rows).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if rows != 2 {
		t.Fatalf("expected 2 membership rows, got %d", rows)
	}
}

func TestGroupsRepositoryNotFound(t *testing.T) {
	repo := NewPostgres(dbtest.SQLite(t))
	ctx := context.Background()

	if _, err := repo.GetGroup(ctx, "missing"); !errors.Is(err, groupsdomain.ErrGroupNotFound) {
		t.Fatalf("expected ErrGroupNotFound, got %v", err)
	}
	if _, err := repo.GetGroupByAccessSecret(ctx, "#missing"); !errors.Is(err, groupsdomain.ErrAccessSecretNotFound) {
		t.Fatalf("expected ErrAccessSecretNotFound, got %v", err)
	}
	if _, err := repo.GetActiveMembership(ctx, "g", "u"); !errors.Is(err, groupsdomain.ErrMembershipNotFound) {
		t.Fatalf("expected ErrMembershipNotFound, got %v", err)
	}
	left, err := repo.DeactivateMembership(ctx, "g", "u", time.Now())
	if err != nil || left {
		t.Fatalf("expected nothing to deactivate, got %v, %v", left, err)
	}
}

func TestGroupsRepositoryTransactionRollsBack(t *testing.T) {
	repo := NewPostgres(dbtest.SQLite(t))
	ctx := context.Background()
	boom := errors.New("boom")

	err := repo.Transaction(ctx, func(tx groupsdomain.Repository) error {
		if err := tx.CreateGroup(ctx, &groupsdomain.Group{
			ID:           "g-1",
			Name:         "x",
			MemberCount:  2,
			AccessSecret: "#AB1!CD2@E",
			CreatorID:    "u",
			CreatedAt:    time.Now().UTC(),
		}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, err := repo.GetGroup(ctx, "g-1"); !errors.Is(err, groupsdomain.ErrGroupNotFound) {
		t.Fatalf("expected group to be rolled back, got %v", err)
	}
}
