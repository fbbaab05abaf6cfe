package cli

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/reqmaster/reqmaster/internal/db"
)

func init() {
	RootCmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			gdb, err := openDB(cfg)
			if err != nil {
				return err
			}
			if err := db.Migrate(gdb); err != nil {
				return err
			}
			log.Printf("migrate done")
			return nil
		},
	})
}
