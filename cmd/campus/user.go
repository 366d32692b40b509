package main

import (
	"context"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"campus/cmd/identity"
	"campus/cmd/internal/app"
)

// openUserStore is swapped out in tests. The returned func releases the connection pool.
var openUserStore = func(ctx context.Context, cfg app.Config) (identity.Store, func(), error) {
	pool, err := app.NewDBPool(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	st, err := identity.NewPostgresStore(pool)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	return st, pool.Close, nil
}

// NewUserCmd creates the user administration subcommand.
func NewUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Administer accounts directly in the database",
	}
	cmd.PersistentFlags().String("database-url", "", "PostgreSQL connection url")

	setRole := &cobra.Command{
		Use:   "set-role",
		Short: "Change an account's role (use this to create the first admin)",
		Args:  cobra.NoArgs,
		RunE:  runSetRole,
	}
	setRole.Flags().String("email", "", "account email (required)")
	setRole.Flags().String("role", "admin", "role to assign: user or admin")
	_ = setRole.MarkFlagRequired("email")
	cmd.AddCommand(setRole)

	return cmd
}

func runSetRole(cmd *cobra.Command, _ []string) error {
	email, _ := cmd.Flags().GetString("email")
	roleArg, _ := cmd.Flags().GetString("role")

	cfg, err := loadConfig(cmd.Flags())
	if err != nil {
		return err
	}
	if err := requireDatabase(cfg); err != nil {
		return err
	}

	ctx := commandContext(cmd)
	users, release, err := openUserStore(ctx, cfg)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer release()

	u, err := setUserRole(ctx, users, email, roleArg, time.Now().UTC())
	if err != nil {
		return err
	}
	cmd.Printf("%s (%s) is now %s\n", u.Username, u.Email, u.Role)
	return nil
}

func setUserRole(ctx context.Context, users identity.Store, email, roleArg string, now time.Time) (identity.User, error) {
	role, ok := identity.ParseRole(roleArg)
	if !ok || roleArg == "" {
		return identity.User{}, oops.Code("INVALID_ROLE").With("role", roleArg).Errorf("role must be user or admin")
	}

	u, err := users.GetUserByEmail(ctx, email)
	if err != nil {
		return identity.User{}, oops.Code("USER_LOOKUP_FAILED").With("email", email).Wrap(err)
	}

	updated, err := users.UpdateUser(ctx, u.ID, identity.UserPatch{Role: &role}, now)
	if err != nil {
		return identity.User{}, oops.Code("USER_UPDATE_FAILED").With("email", email).Wrap(err)
	}
	return updated, nil
}
