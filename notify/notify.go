/* Copyright 2026 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package notify announces changes to a story's history.
//
// Notifications are fire-and-forget.  Whatever watches them, a UI
// enabling its back button or a broker forwarding updates, can't
// affect the engine.
package notify

import (
	"context"
)

// HistoryUpdate is the Event type sent whenever the active moment
// changes.
const HistoryUpdate = "historyupdate"

// Event describes a change.
type Event struct {
	Type string `json:"type"`

	// Index is the index of the active moment.
	Index int `json:"index"`

	// Length is the number of played moments.
	Length int `json:"length"`

	// Size is the number of moments including the future ones.
	Size int `json:"size"`

	// Title is the active passage.
	Title string `json:"title"`
}

// Notifier receives Events.
type Notifier interface {
	Notify(ctx context.Context, e Event)
}

// Func adapts a function into a Notifier.
type Func func(ctx context.Context, e Event)

func (f Func) Notify(ctx context.Context, e Event) {
	f(ctx, e)
}

// Fanout sends each Event to every member in order.
type Fanout []Notifier

func (fs Fanout) Notify(ctx context.Context, e Event) {
	for _, n := range fs {
		if n != nil {
			n.Notify(ctx, e)
		}
	}
}

// Discard ignores everything.
var Discard Notifier = Func(func(context.Context, Event) {})
