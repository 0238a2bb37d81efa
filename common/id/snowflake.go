package id

import (
	"strconv"
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node *snowflake.Node
	once sync.Once
)

// Init initializes the Snowflake node with the given node ID.
// Calling it more than once is a no-op.
func Init(nodeID int64) error {
	var err error
	once.Do(func() {
		node, err = snowflake.NewNode(nodeID)
	})
	return err
}

// NewRun returns a time-ordered identifier for one migrator invocation.
// Every log line of a run carries it so that extraction and replay logs
// of the same project can be told apart.
func NewRun() string {
	if node == nil {
		_ = Init(1)
	}
	return strconv.FormatInt(node.Generate().Int64(), 36)
}
