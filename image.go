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

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif" // decode only
	"image/jpeg"
	"image/png"

	_ "golang.org/x/image/bmp"  // decode only
	_ "golang.org/x/image/tiff" // decode only
	_ "golang.org/x/image/webp" // decode only

	"golang.org/x/image/draw"
)

// normalizeImage applies the decorative filter, the resolution cap, and the
// inline-embedding policy to raw image bytes. It writes no files; the caller
// decides where the surviving bytes go.
//
// A decode failure returns UnsupportedImageFormatError, which callers must
// treat as "drop this image and continue", never as fatal to the document.
func normalizeImage(raw []byte, origin ImageOrigin, opts *Options) (ImageAsset, error) {
	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return ImageAsset{}, &UnsupportedImageFormatError{Err: err}
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	asset := ImageAsset{
		Origin: origin,
		Width:  w,
		Height: h,
	}

	if opts.ExcludeDecorative && opts.DecorativeThresholdPx > 0 &&
		w < opts.DecorativeThresholdPx && h < opts.DecorativeThresholdPx {
		asset.Decision = DecisionDropped
		return asset, nil
	}

	resized := false
	if opts.ApplyMaxResolution && opts.MaxImageResPx > 0 && (w > opts.MaxImageResPx || h > opts.MaxImageResPx) {
		img = downsample(img, opts.MaxImageResPx)
		b := img.Bounds()
		asset.Width, asset.Height = b.Dx(), b.Dy()
		resized = true
	}

	// JPEG sources stay JPEG, everything else is written as PNG. Untouched
	// sources that are already in the target format keep their exact bytes
	// so identical inputs hash identically.
	ext := ".png"
	if format == "jpeg" {
		ext = ".jpg"
	}
	data := raw
	if resized || (format != "png" && format != "jpeg") {
		var buf bytes.Buffer
		if ext == ".jpg" {
			err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
		} else {
			err = png.Encode(&buf, img)
		}
		if err != nil {
			return ImageAsset{}, fmt.Errorf("encode image: %w", err)
		}
		data = buf.Bytes()
	}
	asset.Bytes = data

	if opts.EmbedSmallImages && opts.SmallImageThresholdKB > 0 &&
		len(data) < opts.SmallImageThresholdKB*1024 {
		mime := "image/png"
		if ext == ".jpg" {
			mime = "image/jpeg"
		}
		asset.Decision = DecisionInline
		asset.DataURI = fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data))
		return asset, nil
	}

	asset.Decision = DecisionFile
	asset.Key = imageKey(data, ext)
	return asset, nil
}

// downsample scales img so its larger dimension equals maxDim, preserving
// aspect ratio. It never upsamples.
func downsample(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxDim && h <= maxDim {
		return img
	}

	var nw, nh int
	if w >= h {
		nw = maxDim
		nh = int(float64(h)*float64(maxDim)/float64(w) + 0.5)
	} else {
		nh = maxDim
		nw = int(float64(w)*float64(maxDim)/float64(h) + 0.5)
	}
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// imageKey derives a stable, collision-free media filename from content, so
// identical images within a document deduplicate to one file.
func imageKey(data []byte, ext string) string {
	sum := sha256.Sum256(data)
	return "img_" + hex.EncodeToString(sum[:6]) + ext
}
