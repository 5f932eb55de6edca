package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Records(t *testing.T) {
	m := New()

	m.Transition("search", "ok")
	m.Transition("search", "ok")
	m.MetadataFetch("miss", 2)
	m.CatalogLoad(errors.New("boom"))
	m.ObserveRecommend(5 * time.Millisecond)
	m.SetActiveSessions(3)

	require.Equal(t, 2.0, testutil.ToFloat64(m.transitions.WithLabelValues("search", "ok")))
	require.Equal(t, 2.0, testutil.ToFloat64(m.metadataAbsent))
	require.Equal(t, 1.0, testutil.ToFloat64(m.catalogLoads.WithLabelValues("error")))
	require.Equal(t, 3.0, testutil.ToFloat64(m.activeSessions))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.Transition("play", "ok")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Equal(t, 200, rec.Code)
	require.True(t, strings.Contains(string(body), `melodimatch_transitions_total{action="play",outcome="ok"} 1`))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.Transition("search", "ok")
	m.ObserveRecommend(time.Second)
	m.MetadataFetch("hit", 0)
	m.CatalogLoad(nil)
	m.PrefetchDropped()
	m.SetActiveSessions(1)
	require.Nil(t, m.Registry())
}
