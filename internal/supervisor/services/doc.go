// Reelscope - Semantic Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelscope

// Package services adapts Reelscope components to suture.Service.
//
// Each wrapper implements Serve(ctx) error and String() so suture can
// supervise and name it. Services that finish their work return
// suture.ErrDoNotRestart; long-running ones block until ctx is canceled.
package services
