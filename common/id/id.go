// Package id generates unique int64 identifiers for database records.
package id

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

var node *snowflake.Node

// Init must be called once at startup before New. nodeID distinguishes
// concurrently running instances.
func Init(nodeID int64) error {
	n, err := snowflake.NewNode(nodeID)
	if err != nil {
		return fmt.Errorf("initializing snowflake node: %w", err)
	}
	node = n
	return nil
}

func New() int64 {
	return node.Generate().Int64()
}
