package repos

import (
	"context"
	"testing"
	"time"

	"github.com/personaforge/personaforge/internal/types"
)

func TestCountActiveOnPort(t *testing.T) {
	gdb := openTestDB(t)
	log := testLogger(t)
	chars := NewCharacterRepo(gdb, log)
	deploys := NewDeploymentRepo(gdb, log)
	ctx := context.Background()

	ch := seedCharacter(t, chars, "Nova", "nova")

	if err := deploys.Create(ctx, nil, &types.Deployment{
		CharacterID: ch.ID, ContainerName: "nova-bot", Port: 9090,
		Status: types.DeploymentStatusRunning,
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := deploys.Create(ctx, nil, &types.Deployment{
		CharacterID: ch.ID, ContainerName: "nova-bot", Port: 9091,
		Status: types.DeploymentStatusFailed,
	}); err != nil {
		t.Fatalf("create failed-status row: %v", err)
	}

	n, err := deploys.CountActiveOnPort(ctx, nil, 9090)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 active on 9090, got %d", n)
	}

	// Terminal rows do not hold their port.
	n, err = deploys.CountActiveOnPort(ctx, nil, 9091)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected failed row to release port, got %d", n)
	}
}

func TestActivePortUniqueIndex(t *testing.T) {
	gdb := openTestDB(t)
	log := testLogger(t)
	chars := NewCharacterRepo(gdb, log)
	deploys := NewDeploymentRepo(gdb, log)
	ctx := context.Background()

	ch := seedCharacter(t, chars, "Nova", "nova")

	if err := deploys.Create(ctx, nil, &types.Deployment{
		CharacterID: ch.ID, ContainerName: "nova-bot", Port: 9090,
		Status: types.DeploymentStatusDeploying,
	}); err != nil {
		t.Fatalf("first insert: %v", err)
	}

	err := deploys.Create(ctx, nil, &types.Deployment{
		CharacterID: ch.ID, ContainerName: "nova-bot", Port: 9090,
		Status: types.DeploymentStatusDeploying,
	})
	if err == nil {
		t.Fatalf("expected unique violation for duplicate active port")
	}
	if !IsUniqueViolation(err) {
		t.Fatalf("expected unique violation, got %v", err)
	}

	// A terminal row on the same port is fine: the index only covers
	// deploying/running.
	if err := deploys.Create(ctx, nil, &types.Deployment{
		CharacterID: ch.ID, ContainerName: "nova-bot", Port: 9090,
		Status: types.DeploymentStatusFailed,
	}); err != nil {
		t.Fatalf("terminal row should not collide: %v", err)
	}
}

func TestUpdateStatusAndDeployedAt(t *testing.T) {
	gdb := openTestDB(t)
	log := testLogger(t)
	chars := NewCharacterRepo(gdb, log)
	deploys := NewDeploymentRepo(gdb, log)
	ctx := context.Background()

	ch := seedCharacter(t, chars, "Nova", "nova")
	d := &types.Deployment{
		CharacterID: ch.ID, ContainerName: "nova-bot", Port: 9090,
		Status: types.DeploymentStatusDeploying,
	}
	if err := deploys.Create(ctx, nil, d); err != nil {
		t.Fatalf("create: %v", err)
	}

	now := time.Now().UTC()
	if err := deploys.UpdateStatus(ctx, nil, d.ID, types.DeploymentStatusRunning, "", &now); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := deploys.GetByID(ctx, nil, d.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != types.DeploymentStatusRunning {
		t.Fatalf("expected running, got %s", got.Status)
	}
	if got.DeployedAt == nil {
		t.Fatalf("expected deployed_at to be stamped")
	}
}

func TestListWithCharacterNewestFirst(t *testing.T) {
	gdb := openTestDB(t)
	log := testLogger(t)
	chars := NewCharacterRepo(gdb, log)
	deploys := NewDeploymentRepo(gdb, log)
	ctx := context.Background()

	ch := seedCharacter(t, chars, "Nova", "nova")
	ch.Occupation = "navigator"
	if err := chars.Update(ctx, nil, ch); err != nil {
		t.Fatalf("update: %v", err)
	}

	for i, port := range []int{9090, 9091, 9092} {
		d := &types.Deployment{
			CharacterID: ch.ID, ContainerName: "nova-bot", Port: port,
			Status:    types.DeploymentStatusFailed,
			CreatedAt: time.Now().UTC().Add(time.Duration(i) * time.Second),
		}
		if err := deploys.Create(ctx, nil, d); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	rows, err := deploys.ListWithCharacter(ctx, nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0].Port != 9092 || rows[2].Port != 9090 {
		t.Fatalf("expected newest first, got ports %d,%d,%d", rows[0].Port, rows[1].Port, rows[2].Port)
	}
	if rows[0].CharacterName != "Nova" || rows[0].CharacterOccupation != "navigator" {
		t.Fatalf("expected joined character fields, got %+v", rows[0])
	}
}
