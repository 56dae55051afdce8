package utilities

import (
	"os"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/segmentio/ksuid"
)

// NewRequestID generates a KSUID string correlating the log lines of one
// HTTP request.
func NewRequestID() string {
	return ksuid.New().String()
}

// NewRunID generates a snowflake ID string tagging one run of a batch job.
// The node ID comes from the environment variable SNOWFLAKE_NODE and
// defaults to 1. If the node cannot be initialized it falls back to a KSUID
// so a unique ID is still returned.
func NewRunID() string {
	nodeID := int64(1)
	if v := os.Getenv("SNOWFLAKE_NODE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			nodeID = n
		}
	}
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return ksuid.New().String()
	}
	return node.Generate().String()
}
