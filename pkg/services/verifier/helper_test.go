package verifier

import (
	"path/filepath"
	"testing"

	"github.com/nspcc-dev/starkroot/pkg/core/storage/dbconfig"
)

func boltOptions(t *testing.T) dbconfig.BoltDBOptions {
	return dbconfig.BoltDBOptions{FilePath: filepath.Join(t.TempDir(), "scratch.bolt")}
}
