package dataset

// Registers s3:// and gs:// connectors so shard and cache URLs on object
// storage resolve through the standard AFS service.
import (
	_ "github.com/viant/afsc/gs"
	_ "github.com/viant/afsc/s3"
)
