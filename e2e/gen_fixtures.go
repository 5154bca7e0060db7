//go:build ignore

// gen_fixtures creates test inputs for a pixbatch smoke run.
// Usage: go run gen_fixtures.go <output_dir>
//
//	pixbatch compress <output_dir> --target-kb 200 -o out
//	pixbatch convert  <output_dir> --format webp -o out
//	pixbatch resize   <output_dir> -W 320 -H 320 -o out
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/AnyUserName/pixbatch/internal/testimg"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: gen_fixtures <output_dir>")
		os.Exit(1)
	}
	dir := os.Args[1]
	if err := os.MkdirAll(filepath.Join(dir, "cards"), 0o755); err != nil {
		panic(err)
	}

	// Noisy photo, large enough that 200 KB needs several attempts.
	write(filepath.Join(dir, "photo.jpg"), testimg.JPEG(testimg.Noise(1600, 1200, 7), 95))

	// Banner (JPEG, 400x225)
	write(filepath.Join(dir, "banner.jpg"), testimg.JPEG(testimg.Gradient(400, 225), 85))

	// Cards with the same name in different directories, bundled as "card (1).png".
	for i := 1; i <= 2; i++ {
		sub := filepath.Join(dir, "cards", fmt.Sprintf("set-%d", i))
		if err := os.MkdirAll(sub, 0o755); err != nil {
			panic(err)
		}
		write(filepath.Join(sub, "card.png"), testimg.PNG(testimg.Gradient(200, 150)))
	}

	// Transparent logo: converting to JPEG flattens it onto white.
	write(filepath.Join(dir, "logo.png"), testimg.PNG(testimg.AlphaGradient(500, 500)))

	// Not an image: silently skipped by every command.
	write(filepath.Join(dir, "notes.txt"), []byte("fixtures for pixbatch\n"))

	// Image extension, broken bytes: an error record in the report.
	write(filepath.Join(dir, "broken.png"), []byte("definitely not a png"))

	fmt.Fprintf(os.Stderr, "[gen_fixtures] created 7 fixtures in %s\n", dir)
}

func write(path string, data []byte) {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		panic(err)
	}
}
