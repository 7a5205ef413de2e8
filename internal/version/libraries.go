package version

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
)

// DefaultLibraryRepository serves vendor libraries that only declare a name.
const DefaultLibraryRepository = "https://libraries.minecraft.net/"

var (
	// FabricPreferred keys replace any vendor entry when a fabric or quilt profile is merged.
	FabricPreferred = keySet(
		"org.ow2.asm:asm",
		"org.ow2.asm:asm-analysis",
		"org.ow2.asm:asm-commons",
		"org.ow2.asm:asm-tree",
		"org.ow2.asm:asm-util",
	)
	ForgeChecked    = keySet("com.google.guava:guava", "com.google.guava:failureaccess")
	NeoForgeChecked = keySet("org.ow2.asm:asm", "org.apache.logging.log4j:log4j-slf4j2-impl")
)

func keySet(keys ...string) map[string]bool {
	set := make(map[string]bool, len(keys))
	for _, key := range keys {
		set[key] = true
	}
	return set
}

func libraryKey(library Library) string {
	coordinate, err := ParseCoordinate(library.Name)
	if err != nil {
		return normalizedName(library.Name)
	}
	return coordinate.Key()
}

func libraryVersion(library Library) string {
	coordinate, err := ParseCoordinate(library.Name)
	if err != nil {
		return ""
	}
	return coordinate.Version
}

func normalizedName(name string) string {
	if at := strings.Index(name, "@"); at >= 0 {
		return name[:at]
	}
	return name
}

// isNative marks entries keyed by OS rather than coordinate; they never collapse.
func isNative(library Library) bool {
	if len(library.Natives) > 0 {
		return true
	}
	coordinate, err := ParseCoordinate(library.Name)
	return err == nil && strings.HasPrefix(coordinate.Classifier, "natives-")
}

// MergeLibraries appends extra to base. Base entries whose key is in prefer and also present in
// extra are dropped so the extra entry wins.
func MergeLibraries(base []Library, extra []Library, prefer map[string]bool) []Library {
	contributed := make(map[string]bool, len(extra))
	for _, library := range extra {
		if key := libraryKey(library); prefer[key] {
			contributed[key] = true
		}
	}
	merged := make([]Library, 0, len(base)+len(extra))
	for _, library := range base {
		if contributed[libraryKey(library)] && !isNative(library) {
			continue
		}
		merged = append(merged, library)
	}
	return append(merged, extra...)
}

// DedupeChecked keeps only the highest version of every key in checked, at the position of its
// first occurrence. Other entries pass through untouched.
func DedupeChecked(libraries []Library, checked map[string]bool) []Library {
	winners := make(map[string]Library)
	for _, library := range libraries {
		key := libraryKey(library)
		if !checked[key] || isNative(library) {
			continue
		}
		current, seen := winners[key]
		if !seen || CompareVersions(libraryVersion(library), libraryVersion(current)) > 0 {
			winners[key] = library
		}
	}

	emitted := make(map[string]bool, len(winners))
	result := make([]Library, 0, len(libraries))
	for _, library := range libraries {
		key := libraryKey(library)
		if !checked[key] || isNative(library) {
			result = append(result, library)
			continue
		}
		if emitted[key] {
			continue
		}
		emitted[key] = true
		result = append(result, winners[key])
	}
	return result
}

// DedupeLibraries keeps one entry per group:artifact, classifier and rule set, ignoring any
// @extension suffix. The highest version wins and takes the position of the first occurrence;
// equal versions keep the first. Entries guarded by different rules stay apart until the host is
// known, and Classpath settles them. Natives pass through.
func DedupeLibraries(libraries []Library) []Library {
	winners := make(map[string]Library, len(libraries))
	for _, library := range libraries {
		if isNative(library) {
			continue
		}
		key := classpathKey(library.Name) + "|" + rulesKey(library.Rules)
		current, seen := winners[key]
		if !seen || CompareVersions(libraryVersion(library), libraryVersion(current)) > 0 {
			winners[key] = library
		}
	}

	emitted := make(map[string]bool, len(winners))
	result := make([]Library, 0, len(winners))
	for _, library := range libraries {
		if isNative(library) {
			result = append(result, library)
			continue
		}
		key := classpathKey(library.Name) + "|" + rulesKey(library.Rules)
		if emitted[key] {
			continue
		}
		emitted[key] = true
		result = append(result, winners[key])
	}
	return result
}

// classpathKey separates artifacts that share a coordinate but not a classifier, such as
// forge :client and :universal.
func classpathKey(name string) string {
	coordinate, err := ParseCoordinate(name)
	if err != nil {
		return normalizedName(name)
	}
	return coordinate.Key() + ":" + coordinate.Classifier
}

func rulesKey(rules []Rule) string {
	if len(rules) == 0 {
		return ""
	}
	encoded, err := json.Marshal(rules)
	if err != nil {
		return fmt.Sprint(rules)
	}
	return string(encoded)
}

// ResolvedLibrary is a library after rule filtering, bound to a file under the libraries root.
type ResolvedLibrary struct {
	Name string
	Path string
	URL  string
	Sha1 string
	Size int64
	// Native libraries are extracted into the natives directory and kept off the classpath.
	Native  bool
	Exclude []string
}

// ResolveLibraries filters libraries against platform and binds each to its artifact. Legacy
// natives resolve the host classifier with ${arch} fixed to 64.
func ResolveLibraries(libraries []Library, platform Platform, features Features, librariesDir string) []ResolvedLibrary {
	resolved := make([]ResolvedLibrary, 0, len(libraries))
	for _, library := range libraries {
		if !RulesAllow(library.Rules, platform, features) {
			continue
		}
		if len(library.Natives) > 0 {
			if native, ok := resolveNative(library, platform, librariesDir); ok {
				resolved = append(resolved, native)
			}
			continue
		}
		if artifact, ok := resolveArtifact(library, librariesDir); ok {
			resolved = append(resolved, artifact)
		}
	}
	return resolved
}

func resolveArtifact(library Library, librariesDir string) (ResolvedLibrary, bool) {
	entry := ResolvedLibrary{Name: library.Name}
	if library.Downloads != nil && library.Downloads.Artifact != nil {
		artifact := library.Downloads.Artifact
		relative := artifact.Path
		if relative == "" {
			coordinate, err := ParseCoordinate(library.Name)
			if err != nil {
				return entry, false
			}
			relative = coordinate.Path()
		}
		entry.Path = filepath.Join(librariesDir, filepath.FromSlash(relative))
		entry.URL = artifact.URL
		entry.Sha1 = artifact.Sha1
		entry.Size = artifact.Size
		return entry, true
	}
	if library.Downloads != nil && len(library.Downloads.Classifiers) > 0 {
		return entry, false
	}

	coordinate, err := ParseCoordinate(library.Name)
	if err != nil {
		return entry, false
	}
	repository := library.URL
	if repository == "" {
		repository = DefaultLibraryRepository
	}
	entry.Path = filepath.Join(librariesDir, filepath.FromSlash(coordinate.Path()))
	entry.URL = coordinate.URL(repository)
	entry.Sha1 = library.Sha1
	entry.Size = library.Size
	return entry, true
}

func resolveNative(library Library, platform Platform, librariesDir string) (ResolvedLibrary, bool) {
	classifier, ok := library.Natives[platform.OS]
	if !ok {
		return ResolvedLibrary{}, false
	}
	classifier = strings.ReplaceAll(classifier, "${arch}", "64")
	entry := ResolvedLibrary{Name: library.Name, Native: true}
	if library.Extract != nil {
		entry.Exclude = library.Extract.Exclude
	}

	if library.Downloads != nil {
		if artifact, found := library.Downloads.Classifiers[classifier]; found {
			relative := artifact.Path
			if relative == "" {
				coordinate, err := ParseCoordinate(library.Name)
				if err != nil {
					return entry, false
				}
				relative = coordinate.WithClassifier(classifier).Path()
			}
			entry.Path = filepath.Join(librariesDir, filepath.FromSlash(relative))
			entry.URL = artifact.URL
			entry.Sha1 = artifact.Sha1
			entry.Size = artifact.Size
			return entry, true
		}
	}

	coordinate, err := ParseCoordinate(library.Name)
	if err != nil {
		return entry, false
	}
	coordinate = coordinate.WithClassifier(classifier)
	repository := library.URL
	if repository == "" {
		repository = DefaultLibraryRepository
	}
	entry.Path = filepath.Join(librariesDir, filepath.FromSlash(coordinate.Path()))
	entry.URL = coordinate.URL(repository)
	return entry, true
}

// Classpath lists the non-native library paths, one per group:artifact and classifier with the
// highest version winning at the first position, then the client jar.
func Classpath(libraries []ResolvedLibrary, clientJar string) []string {
	winners := make(map[string]ResolvedLibrary, len(libraries))
	for _, library := range libraries {
		if library.Native {
			continue
		}
		key := resolvedKey(library)
		current, seen := winners[key]
		if !seen || CompareVersions(libraryVersion(Library{Name: library.Name}), libraryVersion(Library{Name: current.Name})) > 0 {
			winners[key] = library
		}
	}

	seen := make(map[string]bool, len(libraries)+1)
	entries := make([]string, 0, len(winners)+1)
	for _, library := range libraries {
		if library.Native {
			continue
		}
		key := resolvedKey(library)
		winner := winners[key]
		if seen[key] || seen[winner.Path] {
			continue
		}
		seen[key] = true
		seen[winner.Path] = true
		entries = append(entries, winner.Path)
	}
	if clientJar != "" && !seen[clientJar] {
		entries = append(entries, clientJar)
	}
	return entries
}

// resolvedKey falls back to the path for entries without a readable coordinate.
func resolvedKey(library ResolvedLibrary) string {
	if _, err := ParseCoordinate(library.Name); err != nil {
		return "path:" + library.Path
	}
	return classpathKey(library.Name)
}
