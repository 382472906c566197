package commands

import (
	"cropcare/internal/database"
	"cropcare/internal/models"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

func (f *CommandFactory) NewRolesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roles",
		Short: "Inspect the role catalog",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "seed",
		Short: "Insert missing built-in roles",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := database.SeedRoles(f.db.WithContext(cmd.Context())); err != nil {
				return oops.In("roles").Wrapf(err, "seed roles")
			}
			cmd.Println("Roles seeded")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Verify every built-in role exists in the roles table",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := database.VerifyRoleCatalog(f.db.WithContext(cmd.Context())); err != nil {
				return oops.In("roles").Wrapf(err, "role catalog check")
			}
			for _, role := range models.Roles() {
				info, _ := models.LookupRole(role)
				cmd.Printf("%-10s requires_tenant=%t requires_staff=%t\n", role, info.RequiresTenant, info.RequiresStaff)
			}
			return nil
		},
	})
	return cmd
}
