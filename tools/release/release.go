// Command release cross-compiles mml with the baked-in API keys and packs one archive per
// target into dist/.
package main

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

const (
	executableName = "mml"
	environmentPkg = "github.com/meza/minecraft-launcher/internal/environment"
)

// buildToken is a secret read from the environment or .env and stamped into the binary.
type buildToken struct {
	envVar   string
	symbol   string
	required bool
}

var buildTokens = []buildToken{
	{envVar: "CURSEFORGE_API_KEY", symbol: "curseforgeAPIKeyDefault", required: true},
	{envVar: "POSTHOG_API_KEY", symbol: "posthogAPIKeyDefault", required: true},
	{envVar: "MODRINTH_API_KEY", symbol: "modrinthAPIKeyDefault"},
}

type target struct {
	goos   string
	goarch string
}

func (t target) String() string {
	return t.goos + "/" + t.goarch
}

func (t target) binaryName() string {
	if t.goos == "windows" {
		return executableName + ".exe"
	}
	return executableName
}

var defaultTargets = []target{
	{goos: "darwin", goarch: "amd64"},
	{goos: "darwin", goarch: "arm64"},
	{goos: "linux", goarch: "amd64"},
	{goos: "linux", goarch: "arm64"},
	{goos: "windows", goarch: "amd64"},
	{goos: "windows", goarch: "arm64"},
}

type runner interface {
	Run(*exec.Cmd) error
}

type execRunner struct{}

func (execRunner) Run(command *exec.Cmd) error {
	command.Stdout = os.Stdout
	command.Stderr = os.Stderr
	return command.Run()
}

type MissingTokensError struct {
	Names []string
}

func (e *MissingTokensError) Error() string {
	return fmt.Sprintf("missing build token(s): %s; set them in the environment or in .env at the repo root", strings.Join(e.Names, " "))
}

type releaseTool struct {
	root    string
	version string
	env     []string
	targets []target
	goBin   string
	runner  runner
	logger  *log.Logger
}

var getwd = os.Getwd

func main() {
	os.Exit(runMain(os.Args[1:]))
}

func runMain(args []string) int {
	flags := pflag.NewFlagSet("release", pflag.ContinueOnError)
	version := flags.String("version", "dev", "version stamped into the binary and the archive names")
	skipArchive := flags.Bool("no-archive", false, "only build the binaries")
	if err := flags.Parse(args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	workingDir, err := getwd()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	root, err := findRepoRoot(workingDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	tool := &releaseTool{
		root:    root,
		version: normalizeVersion(*version),
		env:     os.Environ(),
		targets: defaultTargets,
		goBin:   "go",
		runner:  execRunner{},
		logger:  log.New(os.Stdout, "release: ", 0),
	}
	if err := tool.build(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	if *skipArchive {
		return 0
	}
	if err := tool.archive(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

func (tool *releaseTool) build() error {
	dotenv, err := readDotenv(filepath.Join(tool.root, ".env"))
	if err != nil {
		return errors.Wrap(err, "read .env")
	}
	env := mergeEnv(tool.env, dotenv)
	ldflags, err := ldflagsFor(env, tool.version)
	if err != nil {
		return err
	}

	for _, platform := range tool.targets {
		output := filepath.Join(tool.root, "build", platform.goos, platform.goarch, platform.binaryName())
		tool.logger.Printf("building %s -> %s", platform, output)

		targetEnv := make(map[string]string, len(env)+3)
		for key, value := range env {
			targetEnv[key] = value
		}
		targetEnv["GOOS"] = platform.goos
		targetEnv["GOARCH"] = platform.goarch
		targetEnv["CGO_ENABLED"] = "0"

		command := exec.Command(tool.goBin, "build", "-trimpath", "-ldflags", ldflags, "-o", output, ".")
		command.Dir = tool.root
		command.Env = envSlice(targetEnv)
		if err := tool.runner.Run(command); err != nil {
			return errors.Wrapf(err, "build %s", platform)
		}
	}
	return nil
}

// archive packs each built binary: zip for Windows, tar.gz elsewhere.
func (tool *releaseTool) archive() error {
	dist := filepath.Join(tool.root, "dist")
	if err := os.RemoveAll(dist); err != nil {
		return errors.Wrap(err, "clean dist")
	}
	if err := os.MkdirAll(dist, 0o755); err != nil {
		return errors.Wrap(err, "create dist")
	}

	for _, platform := range tool.targets {
		binary := filepath.Join(tool.root, "build", platform.goos, platform.goarch, platform.binaryName())
		base := fmt.Sprintf("%s-%s-%s-%s", executableName, tool.version, platform.goos, platform.goarch)
		var output string
		var err error
		if platform.goos == "windows" {
			output = filepath.Join(dist, base+".zip")
			err = writeZip(output, binary)
		} else {
			output = filepath.Join(dist, base+".tar.gz")
			err = writeTarGz(output, binary)
		}
		if err != nil {
			return errors.Wrapf(err, "package %s", platform)
		}
		tool.logger.Printf("created %s", output)
	}
	return nil
}

func readDotenv(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	return godotenv.Parse(bytes.NewReader(data))
}

// mergeEnv lets the process environment win over .env.
func mergeEnv(base []string, dotenv map[string]string) map[string]string {
	env := make(map[string]string, len(base)+len(dotenv))
	for key, value := range dotenv {
		env[key] = value
	}
	for _, entry := range base {
		if key, value, ok := strings.Cut(entry, "="); ok {
			env[key] = value
		}
	}
	return env
}

func envSlice(env map[string]string) []string {
	entries := make([]string, 0, len(env))
	for key, value := range env {
		entries = append(entries, key+"="+value)
	}
	sort.Strings(entries)
	return entries
}

func ldflagsFor(env map[string]string, version string) (string, error) {
	var missing []string
	flags := []string{"-s", "-w", fmt.Sprintf("-X %s.appVersionDefault=%s", environmentPkg, version)}
	for _, token := range buildTokens {
		value := env[token.envVar]
		if value == "" {
			if token.required {
				missing = append(missing, token.envVar)
			}
			continue
		}
		flags = append(flags, fmt.Sprintf("-X %s.%s=%s", environmentPkg, token.symbol, value))
	}
	if len(missing) > 0 {
		return "", &MissingTokensError{Names: missing}
	}
	return strings.Join(flags, " "), nil
}

func normalizeVersion(version string) string {
	trimmed := strings.TrimPrefix(strings.TrimSpace(version), "v")
	if trimmed == "" {
		return "dev"
	}
	return strings.NewReplacer("/", "-", "\\", "-", ":", "-", " ", "-").Replace(trimmed)
}

func writeZip(output string, binary string) (returnErr error) {
	info, source, err := openBinary(binary)
	if err != nil {
		return err
	}
	defer source.Close()

	file, err := os.Create(output) // #nosec G304 -- rooted in dist with a normalized version.
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && returnErr == nil {
			returnErr = closeErr
		}
	}()

	writer := zip.NewWriter(file)
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = filepath.Base(binary)
	header.Method = zip.Deflate
	entry, err := writer.CreateHeader(header)
	if err != nil {
		return err
	}
	if _, err := io.Copy(entry, source); err != nil {
		return err
	}
	return writer.Close()
}

func writeTarGz(output string, binary string) (returnErr error) {
	info, source, err := openBinary(binary)
	if err != nil {
		return err
	}
	defer source.Close()

	file, err := os.Create(output) // #nosec G304 -- rooted in dist with a normalized version.
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && returnErr == nil {
			returnErr = closeErr
		}
	}()

	compressed := gzip.NewWriter(file)
	archive := tar.NewWriter(compressed)
	if err := archive.WriteHeader(&tar.Header{
		Name:    filepath.Base(binary),
		Mode:    0o755,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}); err != nil {
		return err
	}
	if _, err := io.Copy(archive, source); err != nil {
		return err
	}
	if err := archive.Close(); err != nil {
		return err
	}
	return compressed.Close()
}

func openBinary(path string) (os.FileInfo, *os.File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "stat build output")
	}
	if !info.Mode().IsRegular() {
		return nil, nil, errors.Errorf("build output is not a file: %s", path)
	}
	file, err := os.Open(path) // #nosec G304 -- path comes from the build layout.
	if err != nil {
		return nil, nil, err
	}
	return info, file, nil
}

func findRepoRoot(start string) (string, error) {
	current := start
	for {
		if _, err := os.Stat(filepath.Join(current, "go.mod")); err == nil {
			return current, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", errors.New("failed to locate repo root (missing go.mod); run from the repo")
		}
		current = parent
	}
}
