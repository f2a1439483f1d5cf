package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"farmvet-auth.backend/internal/config"
	"farmvet-auth.backend/internal/domain/entities"
	domainrepo "farmvet-auth.backend/internal/domain/repositories"
	"farmvet-auth.backend/internal/infrastructure/datasources/postgres"
	"farmvet-auth.backend/internal/infrastructure/repositories"
	"farmvet-auth.backend/internal/usecases"
	"farmvet-auth.backend/pkg/crypto"
)

type adminStore interface {
	ExistsBy(ctx context.Context, field domainrepo.AccountField, value string) (bool, error)
	Create(ctx context.Context, account *entities.Account) error
}

type createAdminDeps struct {
	loadEnv func() error
	loadCfg func() (*config.Config, error)
	prepare func(cfg *config.Config) (adminStore, io.Closer, error)
	getenv  func(string) string
	out     io.Writer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func defaultCreateAdminDeps() createAdminDeps {
	return createAdminDeps{
		loadEnv: func() error { return godotenv.Load() },
		loadCfg: config.Load,
		prepare: func(cfg *config.Config) (adminStore, io.Closer, error) {
			db, err := postgres.NewConnection(cfg.Database)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to connect db: %w", err)
			}
			if cfg.Database.AutoMigrate {
				if err := postgres.Migrate(db); err != nil {
					return nil, nil, err
				}
			}
			sqlDB, err := db.DB()
			if err != nil {
				return nil, nil, fmt.Errorf("failed to init sql db: %w", err)
			}
			crypto.SetCost(cfg.Security.BcryptCost)
			return repositories.NewAccountRepository(db), sqlDB, nil
		},
		getenv: os.Getenv,
		out:    os.Stdout,
	}
}

type adminInput struct {
	username string
	email    string
	phone    string
	fullName string
	address  string
	password string
}

func (in adminInput) validate() error {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"--username", in.username},
		{"--email", in.email},
		{"--phone", in.phone},
		{"--full-name", in.fullName},
		{"password (--password or ADMIN_PASSWORD)", in.password},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required: %s", strings.Join(missing, ", "))
	}
	return usecases.CheckStrength(in.password, in.username, in.email, in.fullName)
}

func runCreateAdmin(args []string, deps createAdminDeps) error {
	def := defaultCreateAdminDeps()
	if deps.loadEnv == nil {
		deps.loadEnv = def.loadEnv
	}
	if deps.loadCfg == nil {
		deps.loadCfg = def.loadCfg
	}
	if deps.prepare == nil {
		deps.prepare = def.prepare
	}
	if deps.getenv == nil {
		deps.getenv = def.getenv
	}
	if deps.out == nil {
		deps.out = def.out
	}

	fs := flag.NewFlagSet("create-admin", flag.ContinueOnError)
	var in adminInput
	fs.StringVar(&in.username, "username", "", "admin username (required)")
	fs.StringVar(&in.email, "email", "", "admin email (required)")
	fs.StringVar(&in.phone, "phone", "", "admin phone (required)")
	fs.StringVar(&in.fullName, "full-name", "", "admin full name (required)")
	fs.StringVar(&in.address, "address", "", "admin address")
	fs.StringVar(&in.password, "password", "", "admin password; defaults to ADMIN_PASSWORD")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := deps.loadEnv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	if in.password == "" {
		in.password = deps.getenv("ADMIN_PASSWORD")
	}
	in.email = strings.ToLower(strings.TrimSpace(in.email))
	if err := in.validate(); err != nil {
		return err
	}

	cfg, err := deps.loadCfg()
	if err != nil {
		return err
	}
	store, closer, err := deps.prepare(cfg)
	if err != nil {
		return err
	}
	if closer == nil {
		closer = nopCloser{}
	}
	defer closer.Close()

	ctx := context.Background()
	for _, check := range []struct {
		field domainrepo.AccountField
		value string
	}{
		{domainrepo.AccountFieldUsername, in.username},
		{domainrepo.AccountFieldEmail, in.email},
		{domainrepo.AccountFieldPhone, in.phone},
	} {
		taken, err := store.ExistsBy(ctx, check.field, check.value)
		if err != nil {
			return fmt.Errorf("failed to check %s: %w", check.field, err)
		}
		if taken {
			return fmt.Errorf("an account with this %s already exists", check.field)
		}
	}

	hash, err := crypto.HashPassword(in.password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	admin := &entities.Account{
		Username:      in.username,
		Email:         in.email,
		Phone:         in.phone,
		FullName:      in.fullName,
		Address:       in.address,
		PasswordHash:  hash,
		Role:          entities.RoleAdmin,
		Status:        entities.StatusApproved,
		EmailVerified: true,
		PhoneVerified: true,
		IsActive:      true,
	}
	if err := store.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed creating admin: %w", err)
	}

	_, _ = fmt.Fprintln(deps.out, "Created ADMIN account")
	_, _ = fmt.Fprintf(deps.out, "id=%s\n", admin.ID.String())
	_, _ = fmt.Fprintf(deps.out, "username=%s\n", admin.Username)
	_, _ = fmt.Fprintf(deps.out, "email=%s\n", admin.Email)
	return nil
}

func main() {
	if err := runCreateAdmin(os.Args[1:], defaultCreateAdminDeps()); err != nil {
		log.Fatal(err)
	}
}
