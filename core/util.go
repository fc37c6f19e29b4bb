/* Copyright 2018 Comcast Cable Communications Management, LLC
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

package core

import (
	"encoding/json"
	"fmt"
	"html"
	"math/rand"
	"regexp"
	"strconv"
	"time"
)

// alphabet is used by Gensym.
var alphabet = []byte("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")

// Gensym makes a random string of the given length.
func Gensym(n int) string {
	bs := make([]byte, n)
	for i := 0; i < len(bs); i++ {
		bs[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return string(bs)
}

// Canonicalize round-trips the value through JSON, so numbers become
// float64s, structs become maps, and so on.
func Canonicalize(x interface{}) (interface{}, error) {
	js, err := json.Marshal(&x)
	if err != nil {
		return nil, err
	}
	var y interface{}
	if err = json.Unmarshal(js, &y); err != nil {
		return nil, err
	}
	return y, nil
}

// AnswerKey is the deterministic representation of a recorded answer
// that keys a State's UnresolvedAnswers.
//
// The key is JSON.  Map keys are sorted (encoding/json does that), so
// equal composite values have equal keys.
func AnswerKey(x interface{}) (string, error) {
	y, err := Canonicalize(x)
	if err != nil {
		return "", err
	}
	js, err := json.Marshal(y)
	if err != nil {
		return "", err
	}
	return string(js), nil
}

// Timestamp returns a string representing the current time in
// RFC3339Nano.
func Timestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// placeholder matches {{name}} (with optional spaces).
var placeholder = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// Stringify renders a parameter value for inclusion in text.
//
// Integral numbers don't get a decimal point.  Nil is the empty
// string.  Composite values are JSON.
func Stringify(x interface{}) string {
	switch vv := x.(type) {
	case nil:
		return ""
	case string:
		return vv
	case float64:
		return strconv.FormatFloat(vv, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(vv), 'f', -1, 32)
	case int, int64, int32, bool, json.Number:
		return fmt.Sprint(vv)
	default:
		js, err := json.Marshal(&x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(js)
	}
}

// ResolveString replaces each {{name}} with the Stringify of that
// parameter.  Unbound names resolve to the empty string.
func ResolveString(s string, ps Params) string {
	return placeholder.ReplaceAllStringFunc(s, func(m string) string {
		name := placeholder.FindStringSubmatch(m)[1]
		return Stringify(ps[name])
	})
}

// ResolveHTML is ResolveString for authored markup.  The markup stays
// as it is, but each substituted value is HTML-escaped.
func ResolveHTML(s string, ps Params) string {
	return placeholder.ReplaceAllStringFunc(s, func(m string) string {
		name := placeholder.FindStringSubmatch(m)[1]
		return html.EscapeString(Stringify(ps[name]))
	})
}

// ResolveValue resolves placeholders in the given value.
//
// A string that is exactly one placeholder resolves to the bound value
// itself, so "{{n}}" can be a number.  Maps and slices are resolved
// recursively into new maps and slices.
func ResolveValue(x interface{}, ps Params) interface{} {
	switch vv := x.(type) {
	case string:
		if m := placeholder.FindStringSubmatchIndex(vv); m != nil && m[0] == 0 && m[1] == len(vv) {
			return ps[vv[m[2]:m[3]]]
		}
		return ResolveString(vv, ps)
	case map[string]interface{}:
		return ResolveParams(vv, ps)
	case []interface{}:
		acc := make([]interface{}, len(vv))
		for i, y := range vv {
			acc[i] = ResolveValue(y, ps)
		}
		return acc
	default:
		return x
	}
}

// ResolveParams returns a new map with placeholders in the given
// map's values resolved.
func ResolveParams(m map[string]interface{}, ps Params) map[string]interface{} {
	acc := make(map[string]interface{}, len(m))
	for k, v := range m {
		acc[k] = ResolveValue(v, ps)
	}
	return acc
}
