/* Copyright 2018-2019 Comcast Cable Communications Management, LLC
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

// Package core provides the core gear for reading explorations.
//
// An Exploration is a directed graph of States.  Each State has some
// Content, an interactive Widget, and Parameter Changes.  The Widget
// has Handlers (such as "submit" or "click"), and each Handler has an
// ordered list of Rules.  A Rule is an operator (a predicate over the
// reader's answer), a destination State (or End), and optional
// feedback.  The last Rule of every Handler is the "Default" rule,
// which always matches.
//
// The primary type is Reader, and the primary method is Transition().
// Given a current State, the reader's raw answer, and the session's
// Params, Transition binds parameters, normalizes the answer
// according to the Widget's kind, evaluates the Rules (first match
// wins), records the answer, and composes the output for the
// destination State.
//
// Rules can have guards, which are compiled by Interpreters (see
// GuardSource) when the Exploration is compiled.  A guard that fails
// (or errors) just means that its Rule doesn't match.  Answers can't
// crash the engine: a malformed answer simply fails every predicate
// except "Default".
//
// I/O happens through small interfaces: Explorations (fetching and
// answer recording), Renderer (markup for content and feedback),
// Catalog (widget code), and EventSink (analytics).  Randomness comes
// from an injected Chooser.
//
// To use this package, make an Exploration. Then Compile() it.  You
// might also want to Analyze() it (see package tools).  Then hand a
// store of explorations to a Reader and call Start() and
// Transition().
package core
