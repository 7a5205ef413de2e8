package version

import (
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/text/language"
)

// GameLanguage turns a BCP 47 tag into the <lang>_<COUNTRY> form of options.txt. A tag without a
// region gets its most likely one.
func GameLanguage(tag string) string {
	parsed, err := language.Parse(strings.ReplaceAll(tag, "_", "-"))
	if err != nil {
		return "en_US"
	}
	base, _ := parsed.Base()
	region, _ := parsed.Region()
	return base.String() + "_" + strings.ToUpper(region.String())
}

// writeDefaultOptions seeds options.txt once. An existing file is the player's and is left alone.
func writeDefaultOptions(fs afero.Fs, path string, tag string) (bool, error) {
	exists, err := afero.Exists(fs, path)
	if err != nil || exists {
		return false, err
	}
	return true, afero.WriteFile(fs, path, []byte("lang:"+GameLanguage(tag)+"\n"), 0644)
}
