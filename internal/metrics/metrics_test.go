package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(DispatchRuns.WithLabelValues("4h"))
	IncDispatchRun("4h")
	assert.Equal(t, before+1, testutil.ToFloat64(DispatchRuns.WithLabelValues("4h")))

	before = testutil.ToFloat64(DispatchOutcomes.WithLabelValues("skipped"))
	IncDispatchOutcome("skipped")
	assert.Equal(t, before+1, testutil.ToFloat64(DispatchOutcomes.WithLabelValues("skipped")))

	okBefore := testutil.ToFloat64(GmailQueries.WithLabelValues(ResultSuccess))
	errBefore := testutil.ToFloat64(GmailQueries.WithLabelValues(ResultError))
	ObserveGmailQuery(nil)
	ObserveGmailQuery(errors.New("boom"))
	assert.Equal(t, okBefore+1, testutil.ToFloat64(GmailQueries.WithLabelValues(ResultSuccess)))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(GmailQueries.WithLabelValues(ResultError)))

	before = testutil.ToFloat64(SlackPosts.WithLabelValues(ResultError))
	ObserveSlackPost(errors.New("boom"))
	assert.Equal(t, before+1, testutil.ToFloat64(SlackPosts.WithLabelValues(ResultError)))

	// histogram only needs to accept observations
	ObserveDispatchDuration(1500 * time.Millisecond)
}

func TestInstrument(t *testing.T) {
	h := Instrument("/test", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	before := testutil.ToFloat64(HTTPRequests.WithLabelValues("/test", "418"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(HTTPRequests.WithLabelValues("/test", "418")))
}

func TestHandler(t *testing.T) {
	IncDispatchRun("1h")

	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "productivity_bot_dispatch_runs_total")
}
