package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/frahmantamala/finance-tracker/internal/core/events"
	"github.com/frahmantamala/finance-tracker/internal/rule"
	"github.com/frahmantamala/finance-tracker/internal/user"
	"github.com/frahmantamala/finance-tracker/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	rulesScope  string
	rulesUserID int64
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Export and import categorization rules as YAML",
}

var rulesExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write rules to a YAML file, or stdout when no file is given",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		svc, closeDB := openRuleService()
		defer closeDB()

		scope := rulesScopeFlag()
		out, err := svc.ExportYAML(rulesUserID, scope)
		if err != nil {
			log.Fatalf("failed to export rules: %v", err)
		}

		if len(args) == 0 {
			if _, err := os.Stdout.Write(out); err != nil {
				log.Fatalf("failed to write rules: %v", err)
			}
			return
		}
		if err := os.WriteFile(args[0], out, 0o644); err != nil {
			log.Fatalf("failed to write %s: %v", args[0], err)
		}
		fmt.Printf("Exported %s rules to %s\n", scope, args[0])
	},
}

var rulesImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Create rules from a YAML file, skipping names that already exist",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		data, err := os.ReadFile(args[0])
		if err != nil {
			log.Fatalf("failed to read %s: %v", args[0], err)
		}

		svc, closeDB := openRuleService()
		defer closeDB()

		// the CLI runs with operator rights, so system rules are writable
		perms := user.PermissionsForRole(user.RoleSuperuser)
		result, err := svc.ImportYAML(rulesUserID, perms, rulesScopeFlag(), data)
		if err != nil {
			log.Fatalf("failed to import rules: %v", err)
		}

		fmt.Printf("Imported %d of %d rules\n", result.Imported, result.Total)
		for _, e := range result.Errors {
			fmt.Println("  error:", e)
		}
	},
}

func rulesScopeFlag() rule.Scope {
	switch rule.Scope(rulesScope) {
	case rule.ScopeSystem:
		return rule.ScopeSystem
	case rule.ScopePersonal:
		if rulesUserID <= 0 {
			log.Fatal("--user-id is required for personal rules")
		}
		return rule.ScopePersonal
	}
	log.Fatalf("unknown scope %q, expected system or personal", rulesScope)
	return ""
}

func openRuleService() (*rule.Service, func()) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := initDB(cfg.Database)
	if err != nil {
		log.Fatalf("failed to init db: %v", err)
	}

	lg := logger.LoggerWrapper()
	bus := events.NewEventBus(lg)
	events.RegisterActivityLogger(bus, lg)

	svc, _ := newRuleService(db, bus, lg)
	return svc, func() {
		bus.Wait()
		_ = db.Close()
	}
}

func init() {
	rulesCmd.PersistentFlags().StringVar(&rulesScope, "scope", string(rule.ScopeSystem), "rule scope: system or personal")
	rulesCmd.PersistentFlags().Int64Var(&rulesUserID, "user-id", 0, "owner of personal rules")

	rulesCmd.AddCommand(rulesExportCmd)
	rulesCmd.AddCommand(rulesImportCmd)
	rootCmd.AddCommand(rulesCmd)
}
