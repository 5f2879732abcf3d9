//go:build ignore

// Runs each package's tests in isolation from the caller's environment.
//
//	go run test_runner.go
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

var packages = []string{
	"./pkg/config",
	"./pkg/utils",
	"./pkg/constants",
	"./pkg/httpClient",
	"./pkg/schedule",
	"./pkg/extract",
	"./pkg/media",
	"./pkg/resolver",
	"./cmd/finder",
	"./cmd/playlist",
	"./cmd/main",
}

// Variables read by config.Load that would otherwise leak into the tests.
var isolatedEnv = []string{
	"HOME_URL",
	"CONTENT_BASE",
	"PROBE_WORKERS",
	"PLAYLIST_OUTPUT",
	"MANIFEST_PATH",
	"REQUESTS_PER_SECOND",
}

func main() {
	start := time.Now()

	tempDir, err := os.MkdirTemp("", "exptv_finder_test_*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "create temp dir: %v\n", err)
		os.Exit(1)
	}
	defer os.RemoveAll(tempDir)

	env := testEnv(tempDir)

	var failed []string
	for _, pkg := range packages {
		cmd := exec.Command("go", "test", pkg)
		cmd.Env = env
		out, err := cmd.CombinedOutput()
		if err != nil {
			failed = append(failed, pkg)
			fmt.Printf("FAIL %s\n", pkg)
			for _, line := range strings.Split(string(out), "\n") {
				if strings.Contains(line, "FAIL:") || strings.Contains(line, "Error") || strings.Contains(line, "panic:") {
					fmt.Printf("    %s\n", line)
				}
			}
			continue
		}
		fmt.Printf("ok   %s\n", pkg)
	}

	fmt.Printf("\n%d/%d packages passed in %v\n",
		len(packages)-len(failed), len(packages), time.Since(start).Round(time.Millisecond))
	if len(failed) > 0 {
		os.Exit(1)
	}
}

func testEnv(tempDir string) []string {
	var env []string
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if !isolated(name) {
			env = append(env, kv)
		}
	}
	return append(env,
		"PLAYLIST_OUTPUT="+filepath.Join(tempDir, "Exp.m3u"),
		"REQUESTS_PER_SECOND=0",
	)
}

func isolated(name string) bool {
	for _, n := range isolatedEnv {
		if n == name {
			return true
		}
	}
	return false
}
