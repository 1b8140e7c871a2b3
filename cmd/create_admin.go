package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/psds-microservice/backoffice-service/internal/database"
	"github.com/psds-microservice/backoffice-service/internal/model"
	"github.com/psds-microservice/backoffice-service/internal/repository"
	"github.com/psds-microservice/backoffice-service/internal/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var createAdminFlags struct {
	email    string
	name     string
	password string
	role     string
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Provision an admin account (bootstrap replacement for open self-registration)",
	RunE:  runCreateAdmin,
}

func init() {
	f := createAdminCmd.Flags()
	f.StringVar(&createAdminFlags.email, "email", "", "admin email (required)")
	f.StringVar(&createAdminFlags.name, "name", "", "display name (required)")
	f.StringVar(&createAdminFlags.password, "password", "", "initial password, at least 8 characters (required)")
	f.StringVar(&createAdminFlags.role, "role", string(model.AdminRoleAdmin), "admin, editor or viewer")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("name")
	_ = createAdminCmd.MarkFlagRequired("password")
	rootCmd.AddCommand(createAdminCmd)
}

func runCreateAdmin(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if err := database.MigrateUp(cfg.DatabaseURL(), log); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	db, err := database.Open(cfg.DSN(), log)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	creds := service.NewCredentialService(
		repository.NewAdminRepository(db),
		repository.NewClientRepository(db),
		service.NewPasswordHasher(cfg.BcryptCost),
		false,
		log,
	)

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	a, err := creds.CreateAdmin(ctx, service.AdminInput{
		Name:     createAdminFlags.name,
		Email:    createAdminFlags.email,
		Password: createAdminFlags.password,
		Role:     model.AdminRole(createAdminFlags.role),
	})
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	log.Info("admin created", zap.String("id", a.ID), zap.String("email", a.Email), zap.String("role", string(a.Role)))
	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", a.ID, a.Email, a.Role)
	return nil
}
