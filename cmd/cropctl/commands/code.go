package commands

import (
	"time"

	"cropcare/internal/models"
	"cropcare/internal/services"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

func (f *CommandFactory) NewCodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "code",
		Short: "Manage invitation codes",
	}
	cmd.AddCommand(
		f.newCreateCodeCmd(),
		f.newValidateCodeCmd(),
		f.newRevokeCodeCmd(),
		f.newRedeemCodeCmd(),
	)
	return cmd
}

// tenantOwner 以公司所有者身份创建邀请码
func (f *CommandFactory) tenantOwner(cmd *cobra.Command, taxID string) (*models.Tenant, uint, error) {
	tenant, err := f.tenants.GetByTaxID(cmd.Context(), taxID)
	if err != nil {
		return nil, 0, oops.In("code").With("tax_id", taxID).Wrapf(err, "load tenant")
	}
	if tenant.OwnerID == nil {
		return nil, 0, oops.In("code").With("tenant_id", tenant.ID).Errorf("tenant has no owner")
	}
	return tenant, *tenant.OwnerID, nil
}

func (f *CommandFactory) newCreateCodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an invitation code for a company. Usage: cropctl code create --tax-id [id] --max-uses [n] --ttl [duration]",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			taxID, _ := cmd.Flags().GetString("tax-id")
			maxUses, _ := cmd.Flags().GetInt("max-uses")
			ttl, _ := cmd.Flags().GetDuration("ttl")
			noExpiry, _ := cmd.Flags().GetBool("no-expiry")
			manual, _ := cmd.Flags().GetString("code")

			tenant, ownerID, err := f.tenantOwner(cmd, taxID)
			if err != nil {
				return err
			}

			p := services.CreateCodeParams{
				TenantID:   tenant.ID,
				CreatorID:  ownerID,
				MaxUses:    maxUses,
				NoExpiry:   noExpiry,
				ManualCode: manual,
			}
			if ttl > 0 {
				expires := time.Now().Add(ttl)
				p.ExpiresAt = &expires
			}

			code, err := f.invitations.CreateInvitationCode(cmd.Context(), p)
			if err != nil {
				return oops.In("code").With("tenant_id", tenant.ID).Wrapf(err, "create code")
			}
			cmd.Printf("Code created: id=%d code=%s max_uses=%d\n", code.ID, code.Code, code.MaxUses)
			return nil
		},
	}
	cmd.Flags().String("tax-id", "", "company tax id")
	cmd.Flags().Int("max-uses", 1, "how many users can redeem the code")
	cmd.Flags().Duration("ttl", 0, "validity period, defaults to the configured TTL")
	cmd.Flags().Bool("no-expiry", false, "code never expires")
	cmd.Flags().String("code", "", "use this code instead of a generated one")
	_ = cmd.MarkFlagRequired("tax-id")
	return cmd
}

func (f *CommandFactory) newValidateCodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [code]",
		Short: "Show whether a code can still be redeemed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			preview, err := f.invitations.ValidateCode(cmd.Context(), args[0])
			if err != nil {
				return oops.In("code").With("code", args[0]).Wrapf(err, "validate code")
			}
			if preview.Valid {
				cmd.Printf("%s valid tenant=%q remaining=%d\n", preview.Code, preview.TenantName, preview.RemainingUses)
				return nil
			}
			cmd.Printf("%s invalid reason=%s\n", preview.Code, preview.Reason)
			return nil
		},
	}
}

func (f *CommandFactory) newRevokeCodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revoke",
		Short: "Revoke an invitation code",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			taxID, _ := cmd.Flags().GetString("tax-id")
			id, _ := cmd.Flags().GetUint("id")

			tenant, err := f.tenants.GetByTaxID(cmd.Context(), taxID)
			if err != nil {
				return oops.In("code").With("tax_id", taxID).Wrapf(err, "load tenant")
			}
			code, err := f.invitations.RevokeCode(cmd.Context(), tenant.ID, id)
			if err != nil {
				return oops.In("code").With("code_id", id).Wrapf(err, "revoke code")
			}
			cmd.Printf("Code revoked: %s\n", code.Code)
			return nil
		},
	}
	cmd.Flags().String("tax-id", "", "company tax id")
	cmd.Flags().Uint("id", 0, "code id")
	_ = cmd.MarkFlagRequired("tax-id")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func (f *CommandFactory) newRedeemCodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "redeem [code]",
		Short: "Redeem a code on behalf of an existing user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("user-email")

			var user models.User
			if err := f.db.WithContext(cmd.Context()).Where("email = ?", models.NormalizeEmail(email)).First(&user).Error; err != nil {
				return oops.In("code").With("email", email).Wrapf(err, "load user")
			}

			membership, err := f.redemption.RedeemWithMetadata(cmd.Context(), args[0], user.ID, models.UsageMetadata{Source: "cli"})
			if err != nil {
				return oops.In("code").With("code", args[0]).With("user_id", user.ID).Wrapf(err, "redeem code")
			}
			cmd.Printf("User %s joined tenant %d as %s\n", user.Email, membership.TenantIDValue(), membership.Role)
			return nil
		},
	}
	cmd.Flags().String("user-email", "", "email of the user joining the company")
	_ = cmd.MarkFlagRequired("user-email")
	return cmd
}
