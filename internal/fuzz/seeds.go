package fuzztests

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"naggy/internal/driver"
)

const (
	maxSeedBytes = 64 << 10
	maxFuzzInput = 1 << 16
)

var sourceSeeds = []string{
	"",
	"int func(){}\n",
	"#if 0\na\nb\n#endif\n",
	"#ifdef x\n#define foo x*y\n#endif\n",
	"#define SQ(a) ((a)*(a))\nint v = SQ(3);\n",
	"#if defined(A) && A > 2\n#elif __has_include(<stdio.h>)\n#else\n#endif\n",
	"#define CAT(a, b) a ## b\n#define STR(x) #x\nconst char *s = STR(CAT(1, 2));\n",
	"/* unterminated\n",
	"'\\x41' \"str\\\n ing\" 0x1FULL 1.5e-3f .5 0b101\n",
	"#include \"missing.h\"\nint main(void) { return undeclared; }\n",
	"template <class T> struct S { T v; };\nauto r = R\"(raw)\";\n",
}

var exprSeeds = []string{
	"0",
	"1 + 2 * 3",
	"(1 ? 2 : 3) << 4",
	"-1 < 0u",
	"defined(X) || !defined Y",
	"0x7fffffffffffffff + 1",
	"1 / 0",
	"'a' == 97",
	"(((",
	"1 ? : 2",
}

func addSourceSeeds(f *testing.F) {
	for _, s := range sourceSeeds {
		f.Add([]byte(s))
	}
	addTestdataSeeds(f)
}

func addTestdataSeeds(f *testing.F) {
	root := filepath.Join("..", "..", "testdata")
	if _, err := os.Stat(root); err != nil {
		return
	}
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() || !driver.IsSource(path) {
			return nil
		}
		// #nosec G304 -- path comes from repository testdata walk
		src, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		f.Add(clamp(src, maxSeedBytes))
		return nil
	})
}

func clamp(src []byte, limit int) []byte {
	if len(src) > limit {
		src = src[:limit]
	}
	return append([]byte(nil), src...)
}
