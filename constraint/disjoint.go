// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package constraint

// valueClass groups built-in constraints by the shape of value they accept.
type valueClass uint8

const (
	classNone    valueClass = iota // accepts values of several shapes
	classInteger                   // optionally signed base-10 digits
	classNumber                    // finite floating point
	classBool                      // "true" or "false"
	classUUID                      // RFC 4122 text forms
	classAlpha                     // ASCII letters
)

var classes = map[string]valueClass{
	"int":     classInteger,
	"long":    classInteger,
	"min":     classInteger,
	"max":     classInteger,
	"range":   classInteger,
	"decimal": classNumber,
	"double":  classNumber,
	"float":   classNumber,
	"bool":    classBool,
	"guid":    classUUID,
	"uuid":    classUUID,
	"alpha":   classAlpha,
}

// disjointClasses lists class pairs that share no value. A 32-digit UUID is
// a valid float but overflows int64; hex UUIDs may be all letters.
var disjointClasses = map[[2]valueClass]bool{
	{classInteger, classAlpha}: true,
	{classInteger, classBool}:  true,
	{classInteger, classUUID}:  true,
	{classNumber, classAlpha}:  true,
	{classNumber, classBool}:   true,
	{classBool, classUUID}:     true,
}

// Disjoint reports whether no value can satisfy both a and b. It only knows
// the built-in type constraints; custom constraints and regex never count
// as disjoint.
func Disjoint(a, b Spec) bool {
	ca, cb := classes[a.Name], classes[b.Name]
	if ca == classNone || cb == classNone {
		return false
	}

	return disjointClasses[[2]valueClass{ca, cb}] || disjointClasses[[2]valueClass{cb, ca}]
}
