package version

import "strings"

// ExpandTemplate substitutes every ${name} in arg that values knows. Unknown placeholders stay.
func ExpandTemplate(arg string, values map[string]string) string {
	if !strings.Contains(arg, "${") {
		return arg
	}
	var builder strings.Builder
	rest := arg
	for {
		start := strings.Index(rest, "${")
		if start < 0 {
			builder.WriteString(rest)
			break
		}
		end := strings.Index(rest[start:], "}")
		if end < 0 {
			builder.WriteString(rest)
			break
		}
		end += start
		name := rest[start+2 : end]
		builder.WriteString(rest[:start])
		if value, ok := values[name]; ok {
			builder.WriteString(value)
		} else {
			builder.WriteString(rest[start : end+1])
		}
		rest = rest[end+1:]
	}
	return builder.String()
}

func expandAll(args []string, values map[string]string) []string {
	expanded := make([]string, 0, len(args))
	for _, arg := range args {
		value := ExpandTemplate(arg, values)
		if value == "" {
			continue
		}
		expanded = append(expanded, value)
	}
	return expanded
}

// legacyJVMArguments stand in for manifests that only carry minecraftArguments.
var legacyJVMArguments = []string{"-Djava.library.path=${natives_directory}", "-cp", "${classpath}"}

// relativize swaps absolute locations for the placeholders portable command strings use.
func relativize(arg string, javaPath string, minecraftDir string) string {
	if javaPath != "" {
		arg = strings.ReplaceAll(arg, javaPath, "${java_path}")
	}
	if minecraftDir != "" {
		arg = strings.ReplaceAll(arg, minecraftDir, "${minecraft_directory}")
	}
	return arg
}
