package sagaworker

import (
	"context"
	"time"

	approvalrequesthandler "spice-portal-backend/lib/approval-request"
	baseworker "spice-portal-backend/lib/utils/base-worker"
)

func StartWorker(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	i := &impl{
		BaseImpl:  *baseworker.NewInstance("ApprovalSagaWorker", 30*time.Second, interval),
		approvals: approvalrequesthandler.Instance,
	}
	go i.Run(ctx, i.handle)
}

type impl struct {
	baseworker.BaseImpl
	approvals approvalrequesthandler.Provider
}

func (i impl) handle(ctx context.Context) {
	logger := i.GetLogger()
	finalized, err := i.approvals.FinalizeAppliedSagas(ctx)
	if err != nil {
		logger.WithError(err).Error("error finalizing applied approvals")
		return
	}
	if finalized > 0 {
		logger.WithField("count", finalized).Info("applied approvals finalized")
	}
}
