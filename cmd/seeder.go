package cmd

import (
	"fmt"
	"log"
	"log/slog"

	"github.com/frahmantamala/finance-tracker/internal/category"
	categoryPostgres "github.com/frahmantamala/finance-tracker/internal/category/postgres"
	"github.com/frahmantamala/finance-tracker/internal/core/events"
	"github.com/frahmantamala/finance-tracker/internal/rule"
	rulePostgres "github.com/frahmantamala/finance-tracker/internal/rule/postgres"
	"github.com/frahmantamala/finance-tracker/internal/user"
	userPostgres "github.com/frahmantamala/finance-tracker/internal/user/postgres"
	"github.com/frahmantamala/finance-tracker/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	seedDemoUser     bool
	seedDemoPassword string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed default categories, system rules and the admin account",
	Long: `Seed the database with the default system categories and categorization rules,
and create the superuser account configured under seed.*. Safe to run repeatedly.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		lg := logger.LoggerWrapper()
		bus := events.NewEventBus(lg)
		ruleService, _ := newRuleService(db, bus, lg)

		result, err := ruleService.EnsureDefaults()
		if err != nil {
			log.Fatalf("failed to seed default rules: %v", err)
		}
		fmt.Printf("Default categories ensured: %d, system rules created: %d\n", result.CategoriesEnsured, result.RulesCreated)

		userService := user.NewService(userPostgres.NewUserRepository(db.Gorm), cfg.Security.BCryptCost, lg)

		if cfg.Seed.AdminPassword == "" {
			fmt.Println("seed.admin_password not set; skipping admin account")
		} else {
			seedUser(userService, user.CreateUserDTO{
				Email:    cfg.Seed.AdminEmail,
				Name:     cfg.Seed.AdminName,
				Password: cfg.Seed.AdminPassword,
				Role:     user.RoleSuperuser,
			})
		}

		if seedDemoUser {
			seedUser(userService, user.CreateUserDTO{
				Email:    "demo@example.com",
				Name:     "Demo User",
				Password: seedDemoPassword,
				Role:     user.RoleStandard,
			})
		}

		bus.Wait()
	},
}

func seedUser(svc *user.Service, dto user.CreateUserDTO) {
	u, created, err := svc.EnsureUser(dto)
	if err != nil {
		log.Fatalf("failed to seed user %s: %v", dto.Email, err)
	}
	if created {
		fmt.Printf("Seeded %s user: %s\n", u.Role, u.Email)
		return
	}
	fmt.Printf("%s already exists; left unchanged\n", u.Email)
}

// newRuleService builds the rule engine over the shared pool, returning the
// category service it resolves names through.
func newRuleService(db *Database, publisher events.Publisher, lg *slog.Logger) (*rule.Service, *category.Service) {
	categoryService := category.NewService(categoryPostgres.NewCategoryRepository(db.Gorm), lg)
	ruleService := rule.NewService(
		rulePostgres.NewRuleRepository(db.Gorm),
		categoryService,
		rulePostgres.NewTransactionStore(db.Gorm),
		publisher,
		lg,
	)
	return ruleService, categoryService
}

func init() {
	seedCmd.Flags().BoolVar(&seedDemoUser, "demo", false, "also create a standard demo@example.com account")
	seedCmd.Flags().StringVar(&seedDemoPassword, "demo-password", "password123", "password for the demo account")
}
