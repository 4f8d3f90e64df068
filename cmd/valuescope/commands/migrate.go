package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "데이터베이스 스키마 적용",
	Long: `내장된 SQL 마이그레이션을 순서대로 적용합니다.
이미 적용된 파일은 schema_migrations 로 건너뜁니다.`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	applied, err := a.db.Migrate(cmd.Context())
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	if len(applied) == 0 {
		fmt.Println("✅ Schema is up to date")
		return nil
	}
	for _, name := range applied {
		fmt.Printf("  applied %s\n", name)
	}
	fmt.Printf("✅ Applied %d migration(s)\n", len(applied))
	return nil
}
