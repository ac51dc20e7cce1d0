//go:build ignore

// build.go - macrocli build system
// Usage: go run build.go [-target=TARGET] [-v]
// Targets: build, test, clean, release

package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"
)

const (
	binary  = "macrocli"
	mainPkg = "./cmd/macrocli"
)

var (
	rootDir string
	distDir string

	// release platforms as GOOS/GOARCH pairs
	platforms = [][2]string{
		{"linux", "amd64"},
		{"linux", "arm64"},
		{"darwin", "arm64"},
		{"windows", "amd64"},
	}

	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

func init() {
	cwd, err := os.Getwd()
	if err != nil {
		panic(fmt.Sprintf("Failed to get current directory: %v", err))
	}
	rootDir = cwd
	distDir = filepath.Join(rootDir, "dist")

	if _, err := os.Stat(filepath.Join(rootDir, "go.mod")); os.IsNotExist(err) {
		panic("go.mod not found, run build.go from the module root")
	}
}

func main() {
	target := flag.String("target", "build", "Build target")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	if runtime.GOOS == "windows" {
		colorReset, colorRed, colorGreen, colorYellow, colorCyan = "", "", "", "", ""
	}

	fmt.Printf("%s=== %s build (%s) ===%s\n", colorCyan, binary, *target, colorReset)
	startTime := time.Now()

	var err error
	switch *target {
	case "build":
		err = build(runtime.GOOS, runtime.GOARCH, *verbose)
	case "test":
		err = runTests(*verbose)
	case "clean":
		err = clean()
	case "release":
		err = release(*verbose)
	default:
		showHelp()
		os.Exit(1)
	}
	if err != nil {
		printError(err.Error())
		os.Exit(1)
	}

	printSuccess(fmt.Sprintf("Build completed in %s", time.Since(startTime).Round(time.Millisecond)))
}

func printInfo(msg string) {
	fmt.Printf("%s[INFO]%s %s\n", colorCyan, colorReset, msg)
}

func printSuccess(msg string) {
	fmt.Printf("%s[OK]%s %s\n", colorGreen, colorReset, msg)
}

func printError(msg string) {
	fmt.Printf("%s[ERROR]%s %s\n", colorRed, colorReset, msg)
}

func printWarning(msg string) {
	fmt.Printf("%s[WARN]%s %s\n", colorYellow, colorReset, msg)
}

func build(goos, goarch string, verbose bool) error {
	name := binary
	if goos == "windows" {
		name += ".exe"
	}
	out := filepath.Join(distDir, goos+"_"+goarch, name)
	if goos == runtime.GOOS && goarch == runtime.GOARCH {
		out = filepath.Join(distDir, name)
	}
	printInfo(fmt.Sprintf("Building %s for %s/%s", out, goos, goarch))

	args := []string{"build", "-trimpath", "-ldflags", "-s -w", "-o", out}
	if verbose {
		args = append(args, "-v")
	}
	cmd := exec.Command("go", append(args, mainPkg)...)
	cmd.Env = append(os.Environ(), "GOOS="+goos, "GOARCH="+goarch, "CGO_ENABLED=0")
	return run(cmd)
}

func runTests(verbose bool) error {
	args := []string{"test", "-race", "-count=1"}
	if verbose {
		args = append(args, "-v")
	}
	return run(exec.Command("go", append(args, "./...")...))
}

func release(verbose bool) error {
	for _, p := range platforms {
		if err := build(p[0], p[1], verbose); err != nil {
			return fmt.Errorf("%s/%s: %w", p[0], p[1], err)
		}
	}
	return nil
}

func clean() error {
	if _, err := os.Stat(distDir); os.IsNotExist(err) {
		printWarning("nothing to clean")
		return nil
	}
	printInfo("Removing " + distDir)
	return os.RemoveAll(distDir)
}

func run(cmd *exec.Cmd) error {
	cmd.Dir = rootDir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func showHelp() {
	fmt.Println(`Usage: go run build.go [-target=TARGET] [-v]

Targets:
  build    build dist/macrocli for this platform (default)
  test     run all tests with the race detector
  clean    remove dist/
  release  cross-compile for linux, darwin and windows`)
}
