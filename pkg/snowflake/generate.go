package snowflake

import (
	"errors"
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node *snowflake.Node
	once sync.Once

	errNodeIDOutOfRange = errors.New("snowflake machine/datacenter id out of range [0, 31]")
	errNotInitialized   = errors.New("snowflake generator is not initialized")
)

// Init 初始化进程级 ID 生成器。
// 节点号由 dataCenterID(高5位) 和 machineID(低5位) 拼成，两者都取 0~31。
func Init(machineID, dataCenterID int64) error {
	var initErr error

	once.Do(func() {
		if machineID < 0 || machineID > 31 || dataCenterID < 0 || dataCenterID > 31 {
			initErr = errNodeIDOutOfRange
			return
		}

		node, initErr = snowflake.NewNode(dataCenterID<<5 | machineID)
	})

	return initErr
}

// NextID 生成下一个全局唯一 ID（通知消息等跨进程去重用）
func NextID() (int64, error) {
	if node == nil {
		return 0, errNotInitialized
	}
	return node.Generate().Int64(), nil
}
