// Pulseboard - Cross-Service Metrics Aggregation and Goal Tracking
// Copyright 2026 Pulseboard contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseboard/pulseboard

package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordDBQuery(t *testing.T) {
	before := testutil.CollectAndCount(DBQueryErrors)

	RecordDBQuery("SELECT", "metrics", 10*time.Millisecond, nil)
	RecordDBQuery("INSERT", "goals", 5*time.Millisecond, nil)
	RecordDBQuery("UPDATE", "goals", 100*time.Millisecond, errors.New("connection refused"))

	after := testutil.CollectAndCount(DBQueryErrors)
	if after <= before {
		t.Errorf("expected error counter series to grow, before %d after %d", before, after)
	}
}

func TestRecordAPIRequest(t *testing.T) {
	RecordAPIRequest("GET", "/api/v1/metrics", "200", 25*time.Millisecond)
	RecordAPIRequest("POST", "/api/v1/goals", "201", 12*time.Millisecond)
	RecordAPIRequest("GET", "/api/v1/metrics", "500", time.Second)

	got := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/metrics", "200"))
	if got < 1 {
		t.Errorf("expected at least one 200 request recorded, got %f", got)
	}
}

func TestRecordSyncRun(t *testing.T) {
	RecordSyncRun("partners_crm", 2*time.Second, 150, nil)

	processed := testutil.ToFloat64(SyncRecordsProcessed.WithLabelValues("partners_crm"))
	if processed < 150 {
		t.Errorf("expected at least 150 records processed, got %f", processed)
	}
	if testutil.ToFloat64(SyncLastSuccess.WithLabelValues("partners_crm")) == 0 {
		t.Error("expected last success timestamp to be set")
	}

	failuresBefore := testutil.ToFloat64(SyncErrors.WithLabelValues("projects", "upstream"))
	RecordSyncRun("projects", time.Second, 0, errors.New("upstream unavailable"))
	failuresAfter := testutil.ToFloat64(SyncErrors.WithLabelValues("projects", "upstream"))
	if failuresAfter != failuresBefore+1 {
		t.Errorf("expected one new sync error, before %f after %f", failuresBefore, failuresAfter)
	}
}

func TestRecordScheduledJob(t *testing.T) {
	okBefore := testutil.ToFloat64(ScheduledJobRuns.WithLabelValues("retention", "success"))
	RecordScheduledJob("retention", 300*time.Millisecond, nil)
	okAfter := testutil.ToFloat64(ScheduledJobRuns.WithLabelValues("retention", "success"))
	if okAfter != okBefore+1 {
		t.Errorf("expected success count to increment, before %f after %f", okBefore, okAfter)
	}

	RecordScheduledJob("sync", time.Second, errors.New("breaker open"))
	if testutil.ToFloat64(ScheduledJobRuns.WithLabelValues("sync", "failure")) < 1 {
		t.Error("expected failure count recorded")
	}
}

func TestTrackActiveRequest(t *testing.T) {
	base := testutil.ToFloat64(APIActiveRequests)

	TrackActiveRequest(true)
	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != base+2 {
		t.Errorf("expected gauge %f, got %f", base+2, got)
	}

	TrackActiveRequest(false)
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != base {
		t.Errorf("expected gauge back to %f, got %f", base, got)
	}
}

func TestConcurrentMetricRecording(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				RecordDBQuery("SELECT", "metrics", time.Millisecond, nil)
				RecordAPIRequest("GET", "/api/v1/health", "200", time.Millisecond)
				TrackActiveRequest(true)
				TrackActiveRequest(false)
			}
		}()
	}
	wg.Wait()
}
