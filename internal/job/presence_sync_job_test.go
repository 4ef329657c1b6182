package job

import (
	"Courier/internal/pkg/consts"
	rdb "Courier/internal/pkg/redis"
	"Courier/internal/service"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type staticLister []uint64

func (s staticLister) ListOnline() []uint64 { return s }

func TestPresenceSyncJob_Run(t *testing.T) {
	req := require.New(t)
	mr := miniredis.RunT(t)
	rdb.Rdb = goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Rdb.Close() })

	// Given a stale mirror containing a user who is no longer connected
	_, err := mr.SAdd(consts.IMOnlineUsersKey, "99", "1")
	req.NoError(err)

	// When the job runs with the in-memory online set
	NewPresenceSyncJob(staticLister{1, 2}, service.NewPresenceMirror()).Run()

	// Then the mirror matches exactly
	members, err := mr.Members(consts.IMOnlineUsersKey)
	req.NoError(err)
	req.ElementsMatch([]string{"1", "2"}, members)

	// And an empty process clears it
	NewPresenceSyncJob(staticLister{}, service.NewPresenceMirror()).Run()
	req.False(mr.Exists(consts.IMOnlineUsersKey))
}
