package cron

import log "log/slog"

// InitCron 注册任务并启动调度，启动前先校准一次在线镜像，清掉上次进程残留的成员
func InitCron(mgr *Manager) error {
	if err := mgr.RegisterJobs(); err != nil {
		return err
	}
	mgr.presenceSyncJob.Run()
	mgr.Start()
	log.Info("定时任务已就绪", "presence_sync", mgr.presenceSyncSpec, "entries", len(mgr.engine.Entries()))
	return nil
}
