// Copyright 2026 The RAGPrepTool Authors
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.

package ragprep

import "time"

// ImageOrigin records where an image came from.
type ImageOrigin string

const (
	// OriginEmbedded marks images extracted from inside the source document.
	OriginEmbedded ImageOrigin = "embedded"
	// OriginRemote marks images fetched from a remote URL reference.
	OriginRemote ImageOrigin = "remote"
)

// ImageDecision is the normalizer's terminal verdict for one image.
type ImageDecision string

const (
	// DecisionFile keeps the image as a media file referenced from markdown.
	DecisionFile ImageDecision = "kept-as-file"
	// DecisionInline embeds the image as a base64 data URI.
	DecisionInline ImageDecision = "kept-inline-base64"
	// DecisionDropped removes the image as decorative.
	DecisionDropped ImageDecision = "dropped-decorative"
)

// ImageAsset is one extracted image. Once the normalizer sets Decision the
// asset is immutable. Assets belong to exactly one conversion run.
type ImageAsset struct {
	// Key is the stable media filename, derived from a content hash, e.g.
	// "img_3f2a9c81d4e0.png". Empty for dropped or inlined assets.
	Key      string
	Bytes    []byte
	Origin   ImageOrigin
	Decision ImageDecision
	// DataURI is set only for inlined assets.
	DataURI string
	Width   int
	Height  int
}

// Metadata is the per-document record packaged as metadata.json.
type Metadata struct {
	SourceFilename   string    `json:"source_filename"`
	Format           string    `json:"format"`
	PageOrSlideCount *int      `json:"page_or_slide_count"`
	ImageCount       int       `json:"image_count"`
	ProcessedAt      time.Time `json:"processed_at"`
	SizeBytes        int64     `json:"size_bytes"`
	ModifiedAt       time.Time `json:"modified_at"`
	Title            string    `json:"title,omitempty"`
}

// ConversionResult is the finished output for one source document. The
// dispatcher finalizes it; the packaging collaborator consumes it. Every
// image reference left in Markdown resolves to exactly one asset in Images,
// and every kept-as-file asset is referenced at least once.
type ConversionResult struct {
	Markdown string
	// Images holds surviving assets in first-referenced order.
	Images   []ImageAsset
	Metadata Metadata
	// FetchFailures lists remote references left unresolved. Recoverable;
	// reported in the batch summary only.
	FetchFailures []RemoteFetchError
}

// DocumentState tracks a document through the batch.
type DocumentState string

const (
	// StatePending means the document is queued but not yet dispatched.
	StatePending DocumentState = "PENDING"
	// StateDispatched means an extraction path is running.
	StateDispatched DocumentState = "DISPATCHED"
	// StateSucceeded means the output bundle was produced.
	StateSucceeded DocumentState = "SUCCEEDED"
	// StateFailedRecoverable means the document was skipped and the batch
	// continued. There is no retry.
	StateFailedRecoverable DocumentState = "FAILED_RECOVERABLE"
)

// DocumentStatus is one entry in the status stream consumed by the front end.
type DocumentStatus struct {
	Filename string
	State    DocumentState
	// Reason is the human-readable failure reason for skipped documents.
	Reason string
	// FetchFailures counts recoverable remote image failures for this
	// document.
	FetchFailures int
}

// BatchSummary reports a completed folder run.
type BatchSummary struct {
	Total     int
	Succeeded int
	Skipped   []DocumentStatus
	// FetchFailures is the batch-wide count of unresolved remote images.
	FetchFailures int
}
