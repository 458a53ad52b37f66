// Reelscope - Semantic Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelscope

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordRecommendation(t *testing.T) {
	before := testutil.ToFloat64(RecommendRequests.WithLabelValues("profile_empty"))
	RecordRecommendation("profile_empty", 3*time.Millisecond)
	after := testutil.ToFloat64(RecommendRequests.WithLabelValues("profile_empty"))

	if after-before != 1 {
		t.Errorf("counter delta = %v, want 1", after-before)
	}
}

func TestRecordIngest(t *testing.T) {
	acc := testutil.ToFloat64(IngestItems.WithLabelValues("bulk", "accepted"))
	fail := testutil.ToFloat64(IngestItems.WithLabelValues("bulk", "failed"))

	RecordIngest("bulk", 97, 3, time.Second)

	if d := testutil.ToFloat64(IngestItems.WithLabelValues("bulk", "accepted")) - acc; d != 97 {
		t.Errorf("accepted delta = %v", d)
	}
	if d := testutil.ToFloat64(IngestItems.WithLabelValues("bulk", "failed")) - fail; d != 3 {
		t.Errorf("failed delta = %v", d)
	}
}

func TestRecordSnapshotCountsErrors(t *testing.T) {
	before := testutil.ToFloat64(SnapshotErrors.WithLabelValues("save"))
	RecordSnapshot("save", time.Millisecond, nil)
	RecordSnapshot("save", time.Millisecond, errors.New("disk full"))

	if d := testutil.ToFloat64(SnapshotErrors.WithLabelValues("save")) - before; d != 1 {
		t.Errorf("error delta = %v, want 1", d)
	}
}

func TestSetCatalog(t *testing.T) {
	SetCatalog(500, 4)
	if v := testutil.ToFloat64(CatalogItems); v != 500 {
		t.Errorf("CatalogItems = %v", v)
	}
	if v := testutil.ToFloat64(CatalogGeneration); v != 4 {
		t.Errorf("CatalogGeneration = %v", v)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	TrackActiveRequest(true)
	TrackActiveRequest(false)
	if d := testutil.ToFloat64(APIActiveRequests) - before; d != 1 {
		t.Errorf("active delta = %v, want 1", d)
	}
}
