// Copyright 2017-26 the original author or authors.
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

package pbf

import (
	"bytes"
	"os"
	"runtime/trace"
	"strconv"
	"testing"

	"m4o.io/osmstream"
)

func BenchmarkRead(b *testing.B) {
	var buf bytes.Buffer

	w := NewWriter(&buf)
	if err := w.Initialize(); err != nil {
		b.Fatal(err)
	}

	for _, e := range nodes(100_000) {
		if err := osmstream.Dispatch(w, e); err != nil {
			b.Fatal(err)
		}
	}

	if err := w.Close(); err != nil {
		b.Fatal(err)
	}

	t, err := strconv.ParseBool(os.Getenv("PBF_TRACE"))
	if err == nil && t {
		f, e := os.Create("trace.out")
		if e != nil {
			b.Errorf("Error opening trace file: %v", e)
		} else {
			defer f.Close()
			_ = trace.Start(f)
			defer trace.Stop()
		}
	}

	pbs, _ := strconv.Atoi(os.Getenv("PBF_PROTO_BUFFER_SIZE"))
	in := bytes.NewReader(buf.Bytes())

	b.ResetTimer()

	for n := 0; n < b.N; n++ {
		if _, err := in.Seek(0, 0); err != nil {
			b.Fatal(err)
		}

		r := NewReader(in, WithProtoBufferSize(pbs))
		if err := r.Initialize(); err != nil {
			b.Fatal(err)
		}

		for r.MoveNext(osmstream.IgnoreNone) {
		}

		if err := r.Err(); err != nil {
			b.Fatal(err)
		}

		r.Close()
	}
}
