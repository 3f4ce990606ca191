package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveOperation_CountsErrors(t *testing.T) {
	before := testutil.ToFloat64(OperationErrors.WithLabelValues("test_op"))

	var ok error
	ObserveOperation("test_op", time.Now(), &ok)
	assert.Equal(t, before, testutil.ToFloat64(OperationErrors.WithLabelValues("test_op")))

	failed := errors.New("boom")
	ObserveOperation("test_op", time.Now(), &failed)
	assert.Equal(t, before+1, testutil.ToFloat64(OperationErrors.WithLabelValues("test_op")))

	ObserveOperation("test_op", time.Now(), nil)
	assert.Equal(t, before+1, testutil.ToFloat64(OperationErrors.WithLabelValues("test_op")))
}

func TestWriteTextfile(t *testing.T) {
	ClustersFound.Set(7)

	path := filepath.Join(t.TempDir(), "reachmap.prom")
	require.NoError(t, WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "reachmap_cluster_clusters 7")
}

func TestWriteTextfile_BadDir(t *testing.T) {
	err := WriteTextfile(filepath.Join(t.TempDir(), "missing", "reachmap.prom"))
	assert.Error(t, err)
}
