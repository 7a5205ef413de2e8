package version

import (
	"fmt"
	"path"
	"strings"
)

// Coordinate is a maven name group:artifact:version[:classifier][@extension].
type Coordinate struct {
	Group      string
	Artifact   string
	Version    string
	Classifier string
	Extension  string
}

func ParseCoordinate(name string) (Coordinate, error) {
	extension := "jar"
	if at := strings.LastIndex(name, "@"); at >= 0 {
		extension = name[at+1:]
		name = name[:at]
	}
	parts := strings.Split(name, ":")
	if len(parts) < 3 || len(parts) > 4 {
		return Coordinate{}, fmt.Errorf("invalid maven coordinate %q", name)
	}
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			return Coordinate{}, fmt.Errorf("invalid maven coordinate %q", name)
		}
	}
	coordinate := Coordinate{Group: parts[0], Artifact: parts[1], Version: parts[2], Extension: extension}
	if len(parts) == 4 {
		coordinate.Classifier = parts[3]
	}
	return coordinate, nil
}

func (c Coordinate) String() string {
	name := c.Group + ":" + c.Artifact + ":" + c.Version
	if c.Classifier != "" {
		name += ":" + c.Classifier
	}
	if c.Extension != "" && c.Extension != "jar" {
		name += "@" + c.Extension
	}
	return name
}

// Key identifies the artifact regardless of version.
func (c Coordinate) Key() string {
	return c.Group + ":" + c.Artifact
}

func (c Coordinate) WithClassifier(classifier string) Coordinate {
	c.Classifier = classifier
	return c
}

// Path is the slash-separated maven repository path.
func (c Coordinate) Path() string {
	file := c.Artifact + "-" + c.Version
	if c.Classifier != "" {
		file += "-" + c.Classifier
	}
	extension := c.Extension
	if extension == "" {
		extension = "jar"
	}
	return path.Join(strings.ReplaceAll(c.Group, ".", "/"), c.Artifact, c.Version, file+"."+extension)
}

// URL joins the coordinate path onto a repository root.
func (c Coordinate) URL(repository string) string {
	return strings.TrimSuffix(repository, "/") + "/" + c.Path()
}
