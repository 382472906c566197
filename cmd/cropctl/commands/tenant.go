package commands

import (
	"cropcare/internal/services"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

func (f *CommandFactory) NewTenantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Manage companies",
	}
	cmd.AddCommand(f.newCreateTenantCmd(), f.newShowTenantCmd())
	return cmd
}

func (f *CommandFactory) newCreateTenantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a company together with its admin. Usage: cropctl tenant create --tax-id [id] --name [name] --admin-email [email] --admin-password [password]",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			taxID, _ := cmd.Flags().GetString("tax-id")
			name, _ := cmd.Flags().GetString("name")
			email, _ := cmd.Flags().GetString("admin-email")
			password, _ := cmd.Flags().GetString("admin-password")

			result, err := f.memberships.RegisterAdmin(cmd.Context(), services.RegisterAdminParams{
				UserParams: services.UserParams{Email: email, Password: password},
				TaxID:      taxID,
				TenantName: name,
			})
			if err != nil {
				return oops.In("tenant").With("tax_id", taxID).Wrapf(err, "create tenant")
			}

			cmd.Printf("Tenant created: id=%d tax_id=%s admin=%s\n", result.Tenant.ID, result.Tenant.TaxID, result.User.Email)
			return nil
		},
	}
	cmd.Flags().String("tax-id", "", "company tax id")
	cmd.Flags().String("name", "", "company name")
	cmd.Flags().String("admin-email", "", "admin email")
	cmd.Flags().String("admin-password", "", "admin password")
	for _, flag := range []string{"tax-id", "name", "admin-email", "admin-password"} {
		_ = cmd.MarkFlagRequired(flag)
	}
	return cmd
}

func (f *CommandFactory) newShowTenantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a company with its active worker and code counts",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			taxID, _ := cmd.Flags().GetString("tax-id")
			tenant, err := f.tenants.GetByTaxID(cmd.Context(), taxID)
			if err != nil {
				return oops.In("tenant").With("tax_id", taxID).Wrapf(err, "load tenant")
			}
			summary, err := f.tenants.Summary(cmd.Context(), tenant.ID)
			if err != nil {
				return oops.In("tenant").With("tenant_id", tenant.ID).Wrapf(err, "load summary")
			}

			cmd.Printf("id=%d tax_id=%s name=%q active_workers=%d active_codes=%d\n",
				summary.ID, summary.TaxID, summary.Name, summary.ActiveWorkers, summary.ActiveCodes)
			return nil
		},
	}
	cmd.Flags().String("tax-id", "", "company tax id")
	_ = cmd.MarkFlagRequired("tax-id")
	return cmd
}
