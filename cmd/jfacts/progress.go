// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// phase is a step of an extraction run, in run order.
type phase int

const (
	phaseLoading phase = iota
	phaseProject
	phaseExtracting
	phaseArchives
	phaseFlushing
)

var phaseLabels = [...]string{
	phaseLoading:    "Parsing sources",
	phaseProject:    "Discovering projects",
	phaseExtracting: "Extracting packages",
	phaseArchives:   "Reading archives",
	phaseFlushing:   "Writing facts",
}

func (ph phase) String() string {
	if ph < 0 || int(ph) >= len(phaseLabels) {
		return fmt.Sprintf("phase(%d)", int(ph))
	}
	return phaseLabels[ph]
}

// progress draws one bar per phase. The zero value draws nothing, which is
// what --json, -q and a non-terminal stderr get.
type progress struct {
	w       io.Writer
	noColor bool
}

func newProgress(globals GlobalFlags) progress {
	if globals.Quiet || globals.JSON || !isatty.IsTerminal(os.Stderr.Fd()) {
		return progress{}
	}
	return progress{w: os.Stderr, noColor: globals.NoColor}
}

func (p progress) enabled() bool { return p.w != nil }

// start opens the bar of ph. A negative total draws a spinner. The bar is
// nil when progress is off; advance and finish accept that.
func (p progress) start(ph phase, total int64) *progressbar.ProgressBar {
	if !p.enabled() {
		return nil
	}
	opts := []progressbar.Option{
		progressbar.OptionSetDescription(ph.String()),
		progressbar.OptionSetWriter(p.w),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionEnableColorCodes(!p.noColor),
	}
	if total < 0 {
		opts = append(opts, progressbar.OptionSpinnerType(14))
	} else {
		opts = append(opts,
			progressbar.OptionShowCount(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionThrottle(65*time.Millisecond),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "=",
				SaucerHead:    ">",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)
	}
	return progressbar.NewOptions64(total, opts...)
}

func advance(bar *progressbar.ProgressBar) {
	if bar != nil {
		_ = bar.Add(1)
	}
}

func finish(bar *progressbar.ProgressBar) {
	if bar != nil {
		_ = bar.Finish()
	}
}
