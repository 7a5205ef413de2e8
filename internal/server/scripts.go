package server

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

const (
	unixScript    = "run.sh"
	windowsScript = "run.bat"
	userJVMArgs   = "user_jvm_args.txt"
)

func (s *Installer) presentScripts(dir string) []string {
	found := make([]string, 0, 2)
	for _, name := range []string{unixScript, windowsScript} {
		if exists, _ := afero.Exists(s.deps.Fs, filepath.Join(dir, name)); exists {
			found = append(found, name)
		}
	}
	return found
}

// rewriteScripts points the split-layout start scripts at javaPath and replaces the heap and
// agent flags in user_jvm_args.txt. Without scripts it does nothing.
func (s *Installer) rewriteScripts(dir string, javaPath string, flags []string) ([]string, error) {
	scripts := s.presentScripts(dir)
	if len(scripts) == 0 {
		return scripts, nil
	}
	fs := s.deps.Fs
	if javaPath != "" {
		for _, name := range scripts {
			path := filepath.Join(dir, name)
			data, err := afero.ReadFile(fs, path)
			if err != nil {
				return nil, err
			}
			mode := os.FileMode(0644)
			if name == unixScript {
				mode = os.FileMode(0755)
			}
			rewritten := replaceJavaInvocation(string(data), javaPath)
			if err := afero.WriteFile(fs, path, []byte(rewritten), mode); err != nil {
				return nil, err
			}
		}
	}

	argsPath := filepath.Join(dir, userJVMArgs)
	existing, err := afero.ReadFile(fs, argsPath)
	if err != nil {
		existing = nil
	}
	if err := afero.WriteFile(fs, argsPath, []byte(rewriteJVMArgs(string(existing), flags)), 0644); err != nil {
		return nil, err
	}
	return scripts, nil
}

// replaceJavaInvocation swaps the bare `java` command of each launch line for the managed JVM.
func replaceJavaInvocation(script string, javaPath string) string {
	newline := "\n"
	if strings.Contains(script, "\r\n") {
		newline = "\r\n"
	}
	lines := strings.Split(script, newline)
	for index, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		if !strings.HasPrefix(trimmed, "java ") {
			continue
		}
		indent := line[:len(line)-len(trimmed)]
		lines[index] = indent + `"` + javaPath + `"` + strings.TrimPrefix(trimmed, "java")
	}
	return strings.Join(lines, newline)
}

// rewriteJVMArgs keeps comments and unrelated flags of user_jvm_args.txt.
func rewriteJVMArgs(existing string, flags []string) string {
	kept := make([]string, 0)
	for _, line := range strings.Split(strings.ReplaceAll(existing, "\r\n", "\n"), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if !strings.HasPrefix(trimmed, "#") {
			fields := strings.Fields(trimmed)
			remaining := fields[:0]
			for _, field := range fields {
				if !managedFlag(field) {
					remaining = append(remaining, field)
				}
			}
			if len(remaining) == 0 {
				continue
			}
			trimmed = strings.Join(remaining, " ")
		}
		kept = append(kept, trimmed)
	}
	kept = append(kept, strings.Join(flags, " "))
	return strings.Join(kept, "\n") + "\n"
}

func managedFlag(field string) bool {
	return strings.HasPrefix(field, "-Xmx") || strings.HasPrefix(field, "-Xms") || strings.HasPrefix(field, "-javaagent:")
}
