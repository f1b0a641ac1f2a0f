package fuzztests

import (
	"context"
	"path/filepath"
	"testing"

	"naggy/internal/compileargs"
	"naggy/internal/session"
)

func FuzzReparse(f *testing.F) {
	addSourceSeeds(f)
	dir := f.TempDir()
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clamp(input, maxFuzzInput)
		path := filepath.Join(dir, "fuzz.c")
		s, err := session.New(path, compileargs.Build(compileargs.Config{Dialect: compileargs.C99}), session.WithMaxDiagnostics(32))
		if err != nil {
			t.Fatal(err)
		}
		defer s.Close()

		ctx := context.Background()
		if err := s.ProcessText(ctx, string(input)); err != nil {
			t.Fatalf("ProcessText: %v", err)
		}
		if _, err := s.Diagnostics(ctx); err != nil {
			t.Fatalf("Diagnostics: %v", err)
		}
		pre, err := s.Preprocessor(ctx)
		if err != nil {
			t.Fatal(err)
		}
		ranges, err := pre.SkippedBlockLineNumbers()
		if err != nil {
			t.Fatal(err)
		}
		for i, r := range ranges {
			if r.Start < 1 || r.End < r.Start {
				t.Fatalf("bad range %+v", r)
			}
			if i > 0 && r.Start <= ranges[i-1].End {
				t.Fatalf("ranges overlap or are unsorted: %+v", ranges)
			}
		}
	})
}
