package commands

import (
	"context"

	"cropcare/internal/services"
	"cropcare/pkg/config"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// CommandFactory 命令共用的数据库连接和服务
type CommandFactory struct {
	db          *gorm.DB
	cfg         *config.Config
	tenants     *services.TenantService
	invitations *services.InvitationService
	redemption  *services.RedemptionService
	memberships *services.MembershipService
}

func NewCommandFactory(db *gorm.DB, cfg *config.Config) *CommandFactory {
	opts := services.OptionsFromConfig(cfg)
	redemption := services.NewRedemptionService(db, opts)
	return &CommandFactory{
		db:          db,
		cfg:         cfg,
		tenants:     services.NewTenantService(db),
		invitations: services.NewInvitationService(db, opts),
		redemption:  redemption,
		memberships: services.NewMembershipService(db, redemption),
	}
}

func (f *CommandFactory) NewRootCmd(ctx context.Context) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "cropctl",
		Short:         "Operator CLI for tenants, invitation codes and the role catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetContext(ctx)

	rootCmd.AddCommand(f.NewTenantCmd())
	rootCmd.AddCommand(f.NewCodeCmd())
	rootCmd.AddCommand(f.NewRolesCmd())
	return rootCmd
}
