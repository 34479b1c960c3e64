package initializers

import (
	"context"

	log "github.com/sirupsen/logrus"
	"spice-portal-backend/config"
	"spice-portal-backend/fiberlog"
	approvalrequesthandler "spice-portal-backend/lib/approval-request"
	approvalpresenter "spice-portal-backend/lib/approval-request/presenter"
	sagaworker "spice-portal-backend/lib/approval-request/saga-worker"
	certificatehandler "spice-portal-backend/lib/certificate"
	lookupprovider "spice-portal-backend/lib/dicts/lookup"
	xlsexport "spice-portal-backend/lib/export/xls"
	filestorage "spice-portal-backend/lib/file-storage"
	notificationhandler "spice-portal-backend/lib/notification"
	profilehandler "spice-portal-backend/lib/profile"
	"spice-portal-backend/lib/rbac"
	resourcegateway "spice-portal-backend/lib/resource-gateway"
	gatewayclient "spice-portal-backend/lib/resource-gateway/client"
	"spice-portal-backend/lib/utils/lock"
	connectionhub "spice-portal-backend/lib/ws/hub/connection-hub"
)

var LoggerConfig *fiberlog.Config

func InitAllServices(ctx context.Context) {
	LoggerConfig = InitLogger()
	config.InitConfig()
	ApplyLogLevel(config.Conf.App.LogLevel, LoggerConfig)
	InitDBConnection()
	InitS3(ctx)
	InitSmtp()
	filestorage.NewHandler(config.Conf.S3.BucketName)
	lock.InitResourceLock(ctx, config.Conf.Render.Slots)
	connectionhub.Init()
	notificationhandler.NewHandler()
	lookupprovider.NewHandler(config.Conf.LookupCacheTTL())

	gateway := InitGateway()
	approvalrequesthandler.NewHandler(gateway, approvalrequesthandler.Config{
		MinRemarksLength: config.Conf.Approval.MinRemarksLength,
		LockWait:         config.Conf.LockWait(),
	})
	approvalpresenter.NewHandler(gateway, lookupprovider.Instance)
	profilehandler.NewHandler()
	certificatehandler.NewHandler()
	xlsexport.NewHandler()
	rbac.NewHandler()

	sagaworker.StartWorker(ctx, config.Conf.SagaWorkerInterval())
}

// InitGateway the approval workflow reaches the target records in process or through the remote api
func InitGateway() resourcegateway.Provider {
	if config.Conf.Approval.GatewayMode == config.GatewayModeRemote {
		log.WithField("base_url", config.Conf.Gateway.BaseURL).Info("approvals are applied through the remote gateway")
		return gatewayclient.NewProvider(gatewayclient.Config{
			BaseURL:   config.Conf.Gateway.BaseURL,
			Token:     config.Conf.Gateway.Token,
			Timeout:   config.Conf.GatewayTimeout(),
			RateLimit: config.Conf.Gateway.RateLimit,
			Burst:     config.Conf.Gateway.Burst,
		})
	}
	return resourcegateway.NewLocal(profilehandler.Resources(), certificatehandler.Actions())
}
