// seed inserts development sample data for local testing. Run via ./scripts/seed.sh.
// Idempotent: skips inserts if the dev user (dev@example.com) already exists.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"workspace-tracker/internal/config"
	"workspace-tracker/internal/db"
	identitydomain "workspace-tracker/internal/identity/domain"
	membershipdomain "workspace-tracker/internal/membership/domain"
	membershiprepo "workspace-tracker/internal/membership/repository"
	projectdomain "workspace-tracker/internal/project/domain"
	projectrepo "workspace-tracker/internal/project/repository"
	"workspace-tracker/internal/security"
	taskdomain "workspace-tracker/internal/task/domain"
	taskrepo "workspace-tracker/internal/task/repository"
	userdomain "workspace-tracker/internal/user/domain"
	userrepo "workspace-tracker/internal/user/repository"
	workspacedomain "workspace-tracker/internal/workspace/domain"
	workspacerepo "workspace-tracker/internal/workspace/repository"
)

const (
	devPassword = "DevPassword123!"

	devUserID     = "dev-user-001"
	devUserEmail  = "dev@example.com"
	adminUserID   = "dev-user-002"
	adminEmail    = "admin@example.com"
	memberUserID  = "dev-user-003"
	memberEmail   = "member@example.com"
	devWorkspace  = "dev-workspace-001"
	devProjectID  = "dev-project-001"
	devTask1ID    = "dev-task-001"
	devTask2ID    = "dev-task-002"
	devOwnerMemID = "dev-membership-001"
)

type seedUser struct {
	id, email, name string
	role            membershipdomain.Role
}

var seedUsers = []seedUser{
	{devUserID, devUserEmail, "Dev Owner", membershipdomain.RoleOwner},
	{adminUserID, adminEmail, "Dev Admin", membershipdomain.RoleAdmin},
	{memberUserID, memberEmail, "Dev Member", membershipdomain.RoleMember},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	users := userrepo.NewPostgresRepository(conn)
	workspaces := workspacerepo.NewPostgresRepository(conn)
	memberships := membershiprepo.NewPostgresRepository(conn)
	projects := projectrepo.NewPostgresRepository(conn)
	tasks := taskrepo.NewPostgresRepository(conn)
	ctx := context.Background()

	existing, err := users.GetByEmail(ctx, devUserEmail)
	if err != nil {
		log.Fatalf("seed check: %v", err)
	}
	if existing != nil {
		log.Println("Seed already applied (dev@example.com exists). Skipping.")
		os.Exit(0)
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	passwordHash, err := hasher.Hash([]byte(devPassword))
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}
	now := time.Now().UTC()

	for _, su := range seedUsers {
		if err := users.CreateWithIdentity(ctx, &userdomain.User{
			ID:        su.id,
			Email:     su.email,
			Name:      su.name,
			Status:    userdomain.UserStatusActive,
			CreatedAt: now,
			UpdatedAt: now,
		}, &identitydomain.Identity{
			ID:           su.id + "-identity",
			UserID:       su.id,
			Provider:     identitydomain.IdentityProviderLocal,
			ProviderID:   su.email,
			PasswordHash: passwordHash,
			CreatedAt:    now,
		}); err != nil {
			log.Fatalf("create user %s: %v", su.email, err)
		}
	}

	if err := workspaces.CreateWorkspaceWithOwner(ctx, &workspacedomain.Workspace{
		ID:          devWorkspace,
		Name:        "Acme Dev",
		Description: "Sample workspace",
		Settings:    map[string]string{"default_task_status": string(taskdomain.StatusTodo)},
		CreatedBy:   devUserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, &membershipdomain.Membership{
		ID:          devOwnerMemID,
		UserID:      devUserID,
		WorkspaceID: devWorkspace,
		Role:        membershipdomain.RoleOwner,
		CreatedAt:   now,
	}); err != nil {
		log.Fatalf("create workspace: %v", err)
	}

	for _, su := range seedUsers[1:] {
		if err := memberships.CreateMembership(ctx, &membershipdomain.Membership{
			ID:          su.id + "-membership",
			UserID:      su.id,
			WorkspaceID: devWorkspace,
			Role:        su.role,
			CreatedAt:   now,
		}); err != nil {
			log.Fatalf("create membership %s: %v", su.email, err)
		}
	}

	if err := projects.CreateProject(ctx, &projectdomain.Project{
		ID:          devProjectID,
		WorkspaceID: devWorkspace,
		Name:        "Launch",
		Description: "Sample project",
		CreatedBy:   devUserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}); err != nil {
		log.Fatalf("create project: %v", err)
	}

	for _, t := range []*taskdomain.Task{
		{ID: devTask1ID, ProjectID: devProjectID, Title: "Write release notes", Status: taskdomain.StatusTodo, AssigneeID: memberUserID},
		{ID: devTask2ID, ProjectID: devProjectID, Title: "Review permissions", Status: taskdomain.StatusInProgress, AssigneeID: adminUserID},
	} {
		t.CreatedBy = devUserID
		t.CreatedAt = now
		t.UpdatedAt = now
		if err := tasks.CreateTask(ctx, t); err != nil {
			log.Fatalf("create task %s: %v", t.ID, err)
		}
	}

	log.Println("Seed completed successfully.")
	for _, su := range seedUsers {
		fmt.Printf("%s login: %s / %s\n", su.role, su.email, devPassword)
	}
}
