package product

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/gplcatalog/internal/domain"
)

// Partition names one of the persisted product stores.
type Partition string

const (
	// PartitionAll holds every product of the last completed sync.
	PartitionAll Partition = "all"
	// PartitionThemes holds theme-classified products.
	PartitionThemes Partition = "themes"
	// PartitionPlugins holds plugin-classified products.
	PartitionPlugins Partition = "plugins"
)

// Partitions lists every partition in persistence order.
var Partitions = []Partition{PartitionAll, PartitionThemes, PartitionPlugins}

// ParsePartition accepts the query-string spellings used by the HTTP API.
// An empty name selects PartitionAll.
func ParsePartition(name string) (Partition, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "all":
		return PartitionAll, nil
	case "themes", "theme":
		return PartitionThemes, nil
	case "plugins", "plugin":
		return PartitionPlugins, nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownPartition, name)
	}
}

func (p Partition) String() string { return string(p) }
