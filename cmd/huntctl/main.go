// Command huntctl manages admin accounts of the QR hunt backend.
package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"qr-hunt-backend/internal/config"
	"qr-hunt-backend/internal/database"
	"qr-hunt-backend/internal/logger"
	"qr-hunt-backend/internal/models"
	"qr-hunt-backend/internal/services"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "huntctl",
		Short:        "Administration tool for the QR hunt backend",
		SilenceUsage: true,
	}
	root.AddCommand(adminCmd())
	return root
}

func adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage admin users",
	}
	cmd.AddCommand(adminCreateCmd(), adminListCmd())
	return cmd
}

func openAuthService() (*services.AuthService, error) {
	cfg := config.Load()
	db, err := database.Connect(cfg, logger.New(cfg.LogLevel))
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, err
	}
	return services.NewAuthService(db, cfg.JWTSecret), nil
}

func adminCreateCmd() *cobra.Command {
	var in services.CreateAdminInput
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an admin user",
		Example: "  huntctl admin create --email boss@centro.cz --password 's3cret-pass' --role superadmin\n" +
			"  huntctl admin create --email pult@centro.cz --password 'counter-pass' --name 'Info pult'",
		RunE: func(cmd *cobra.Command, _ []string) error {
			auth, err := openAuthService()
			if err != nil {
				return err
			}
			admin, err := auth.CreateAdmin(context.Background(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s) id=%s\n", admin.Email, admin.Role, admin.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Email, "email", "", "login email")
	cmd.Flags().StringVar(&in.Password, "password", "", "password, at least 8 characters")
	cmd.Flags().StringVar(&in.Role, "role", models.RoleStaff, "superadmin or staff")
	cmd.Flags().StringVar(&in.DisplayName, "name", "", "display name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func adminListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List admin users",
		RunE: func(cmd *cobra.Command, _ []string) error {
			auth, err := openAuthService()
			if err != nil {
				return err
			}
			admins, err := auth.ListAdmins(context.Background())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "EMAIL\tROLE\tNAME\tCREATED")
			for _, a := range admins {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", a.Email, a.Role, a.DisplayName, a.CreatedAt.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}
}
