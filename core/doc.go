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

// Package core provides the value model shared by the rest of tale.
//
// Story state is a pair of Stores: the story variables ($name),
// which are snapshotted into history moments, and the temporary
// variables (_name), which are cleared every time a passage is
// played.  Values in a Store follow a small JavaScript-flavored
// model:
//
//   nil                       null
//   Undefined                 undefined
//   bool                      boolean
//   float64                   number
//   string                    string
//   []interface{}             array
//   map[string]interface{}    object
//   time.Time                 Date
//
// Author code (backtick arguments, <<set>> expressions, link
// setters) is evaluated by an Evaluator against a Scope.  See the
// interpreters directory for implementations.
package core
