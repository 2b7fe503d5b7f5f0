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

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	ragprep "github.com/TadeuszNorek/RAGPrepTool"
)

var version = "dev"

func main() {
	opts := ragprep.DefaultOptions()

	var (
		inputDir     string
		outputDir    string
		converterBin string
		timeoutSecs  int
		verbose      bool
		showVersion  bool
	)

	flag.StringVar(&inputDir, "i", "", "Input directory of source documents")
	flag.StringVar(&inputDir, "input", "", "Input directory of source documents")
	flag.StringVar(&outputDir, "o", "", "Output directory for bundles")
	flag.StringVar(&outputDir, "output", "", "Output directory for bundles")
	flag.StringVar(&opts.OutputSuffix, "suffix", "_rag", "Suffix appended to output basenames")
	flag.BoolVar(&opts.EmbedSmallImages, "embed-small", false, "Inline small images as base64 data URIs")
	flag.IntVar(&opts.SmallImageThresholdKB, "embed-threshold", opts.SmallImageThresholdKB, "Size threshold in KB for inlining images")
	flag.BoolVar(&opts.ExcludeDecorative, "exclude-decorative", false, "Drop images smaller than the decorative threshold")
	flag.IntVar(&opts.DecorativeThresholdPx, "decorative-threshold", opts.DecorativeThresholdPx, "Decorative size threshold in pixels")
	flag.BoolVar(&opts.ApplyMaxResolution, "max-res", false, "Downsample images beyond the resolution cap")
	flag.IntVar(&opts.MaxImageResPx, "max-res-px", opts.MaxImageResPx, "Resolution cap in pixels")
	flag.BoolVar(&opts.TableOfContents, "toc", false, "Ask the external converter for a table of contents")
	flag.IntVar(&opts.RemoteFetchWorkers, "fetch-workers", opts.RemoteFetchWorkers, "Concurrent remote image downloads")
	flag.IntVar(&timeoutSecs, "fetch-timeout", int(opts.RemoteFetchTimeout/time.Second), "Per-download timeout in seconds")
	flag.StringVar(&converterBin, "converter", "", "External converter binary (default: pandoc)")
	flag.BoolVar(&verbose, "verbose", false, "Verbose logging")
	flag.BoolVar(&showVersion, "v", false, "Show version")
	flag.BoolVar(&showVersion, "version", false, "Show version")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ragprep -i <input-dir> -o <output-dir> [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Convert documents to markdown bundles for retrieval pipelines.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("ragprep %s\n", version)
		os.Exit(0)
	}

	if inputDir == "" || outputDir == "" {
		flag.Usage()
		os.Exit(2)
	}

	opts.RemoteFetchTimeout = time.Duration(timeoutSecs) * time.Second

	logger := logrus.New()
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	copts := []ragprep.ConverterOption{
		ragprep.WithLogger(logger),
		ragprep.WithStatusCallback(printStatus),
	}
	if converterBin != "" {
		copts = append(copts, ragprep.WithConverterBinary(converterBin))
	}
	conv := ragprep.New(opts, copts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := conv.ProcessFolder(ctx, inputDir, outputDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\n%d of %d document(s) converted\n", summary.Succeeded, summary.Total)
	if summary.FetchFailures > 0 {
		fmt.Printf("%d remote image(s) could not be fetched\n", summary.FetchFailures)
	}
	for _, skipped := range summary.Skipped {
		fmt.Printf("skipped %s: %s\n", skipped.Filename, skipped.Reason)
	}
	if len(summary.Skipped) > 0 {
		os.Exit(1)
	}
}

func printStatus(status ragprep.DocumentStatus) {
	switch status.State {
	case ragprep.StateDispatched:
		fmt.Printf("converting %s ...\n", status.Filename)
	case ragprep.StateSucceeded:
		if status.FetchFailures > 0 {
			fmt.Printf("done       %s (%d remote image(s) failed)\n", status.Filename, status.FetchFailures)
		} else {
			fmt.Printf("done       %s\n", status.Filename)
		}
	case ragprep.StateFailedRecoverable:
		fmt.Printf("skipped    %s: %s\n", status.Filename, status.Reason)
	}
}
