package main

import (
	"context"
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"spice-portal-backend/config"
	"spice-portal-backend/db"
	"spice-portal-backend/initializers"
	approvalrequesthandler "spice-portal-backend/lib/approval-request"
	lookupprovider "spice-portal-backend/lib/dicts/lookup"
	xlsexport "spice-portal-backend/lib/export/xls"
	filestorage "spice-portal-backend/lib/file-storage"
	notificationhandler "spice-portal-backend/lib/notification"
	usersstore "spice-portal-backend/lib/users/store"
	authutils "spice-portal-backend/lib/utils/auth-utils"
	"spice-portal-backend/lib/utils/lock"
	connectionhub "spice-portal-backend/lib/ws/hub/connection-hub"
	"spice-portal-backend/models"
	approvalapimodels "spice-portal-backend/models/api/approval"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "portal-admin",
		Short:         "Maintenance commands of the spice portal backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			initializers.InitLogger()
			config.InitConfig()
			initializers.ApplyLogLevel(config.Conf.App.LogLevel, nil)
		},
	}
	root.AddCommand(
		migrateCommand(),
		seedCommand(),
		exportApprovalsCommand(),
		finalizeSagasCommand(),
		issueTokenCommand(),
	)
	return root
}

func connect(migrate bool) error {
	return db.Connect(initializers.DBOptions(migrate))
}

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := connect(true); err != nil {
				return err
			}
			log.Info("database schema is up to date")
			return nil
		},
	}
}

func seedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Add the administrator and fill empty lookups",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := connect(false); err != nil {
				return err
			}
			db.InitPreload()
			return nil
		},
	}
}

func exportApprovalsCommand() *cobra.Command {
	var (
		out    string
		status string
	)
	cmd := &cobra.Command{
		Use:   "export-approvals",
		Short: "Write the approval request list to an xlsx file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := connect(false); err != nil {
				return err
			}
			initApprovals(cmd.Context())
			xlsexport.NewHandler()
			list, err := approvalrequesthandler.Instance.ListAll(approvalapimodels.ListFilter{
				Status: models.ApprovalStatus(status),
			})
			if err != nil {
				return err
			}
			buf, err := xlsexport.Instance.ExportApprovalList(list)
			if err != nil {
				return err
			}
			if err = os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
				return errors.Wrapf(err, "error writing %s", out)
			}
			log.WithField("file", out).WithField("rows", len(list)).Info("approval requests exported")
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "approval-requests.xlsx", "output file")
	cmd.Flags().StringVar(&status, "status", "", "only requests with the status (pending, approved, denied)")
	return cmd
}

func finalizeSagasCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "finalize-sagas",
		Short: "Complete remote approvals whose change was applied but not recorded",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := connect(false); err != nil {
				return err
			}
			initApprovals(cmd.Context())
			finalized, err := approvalrequesthandler.Instance.FinalizeAppliedSagas(cmd.Context())
			if err != nil {
				return err
			}
			log.WithField("count", finalized).Info("applied approvals finalized")
			return nil
		},
	}
}

func issueTokenCommand() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "issue-token",
		Short: "Sign an access token for a portal user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if config.Conf.Auth.JWTSecret == "" {
				return errors.New("AUTH_JWT_SECRET is not set")
			}
			if err := connect(false); err != nil {
				return err
			}
			user, err := usersstore.NewInstance(db.DB).GetByEmail(email)
			if err != nil {
				return err
			}
			if user == nil {
				return errors.Wrapf(models.ErrNotFound, "user %s", email)
			}
			token, err := authutils.GetToken(config.Conf.Auth.JWTSecret, user.ID, user.FullName, user.Role, config.Conf.TokenTTL())
			if err != nil {
				return err
			}
			cmd.Println(token)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "user e-mail")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// initApprovals builds the approval handler without the http server, pushes only reach stored rows
func initApprovals(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	initializers.InitS3(ctx)
	initializers.InitSmtp()
	filestorage.NewHandler(config.Conf.S3.BucketName)
	lock.InitResourceLock(ctx, config.Conf.Render.Slots)
	connectionhub.Init()
	notificationhandler.NewHandler()
	lookupprovider.NewHandler(config.Conf.LookupCacheTTL())
	approvalrequesthandler.NewHandler(initializers.InitGateway(), approvalrequesthandler.Config{
		MinRemarksLength: config.Conf.Approval.MinRemarksLength,
		LockWait:         config.Conf.LockWait(),
	})
}
