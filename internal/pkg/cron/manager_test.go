package cron

import (
	"Courier/internal/job"
	"Courier/internal/pkg/consts"
	rdb "Courier/internal/pkg/redis"
	"Courier/internal/service"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestManager_RegisterJobs(t *testing.T) {
	t.Run("should accept a six field spec", func(t *testing.T) {
		mgr := NewCronManager("0 */1 * * * *", job.NewPresenceSyncJob(nil, nil))
		require.NoError(t, mgr.RegisterJobs())
	})

	t.Run("should reject an invalid spec", func(t *testing.T) {
		mgr := NewCronManager("every minute", job.NewPresenceSyncJob(nil, nil))
		require.Error(t, mgr.RegisterJobs())
	})
}

type emptyLister struct{}

func (emptyLister) ListOnline() []uint64 { return nil }

func TestInitCron_ClearsStaleMirrorBeforeScheduling(t *testing.T) {
	req := require.New(t)
	mr := miniredis.RunT(t)
	rdb.Rdb = goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Rdb.Close() })

	// Given members left over by a previous process
	_, err := mr.SAdd(consts.IMOnlineUsersKey, "7", "8")
	req.NoError(err)

	// When the scheduler starts with nobody connected
	mgr := NewCronManager("0 */1 * * * *", job.NewPresenceSyncJob(emptyLister{}, service.NewPresenceMirror()))
	req.NoError(InitCron(mgr))
	t.Cleanup(mgr.Stop)

	// Then the mirror is cleared and the job is scheduled
	req.False(mr.Exists(consts.IMOnlineUsersKey))
	req.Len(mgr.engine.Entries(), 1)
}
