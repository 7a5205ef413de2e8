package version

// Features are the launcher feature flags conditional rules can test.
type Features map[string]bool

// RulesAllow requires every allow rule to match and every disallow rule to miss. No rules means
// allowed.
func RulesAllow(rules []Rule, platform Platform, features Features) bool {
	for _, rule := range rules {
		matched := rule.matches(platform, features)
		if rule.Action == "disallow" {
			if matched {
				return false
			}
			continue
		}
		if !matched {
			return false
		}
	}
	return true
}

// os.version constraints are not evaluated; they only ever narrow a JVM flag for a Windows release.
func (rule Rule) matches(platform Platform, features Features) bool {
	if rule.OS != nil {
		if rule.OS.Name != "" && rule.OS.Name != platform.OS {
			return false
		}
		if rule.OS.Arch != "" && rule.OS.Arch != platform.Arch {
			return false
		}
	}
	for name, want := range rule.Features {
		if features[name] != want {
			return false
		}
	}
	return true
}

func flattenArguments(arguments []Argument, platform Platform, features Features) []string {
	values := make([]string, 0, len(arguments))
	for _, argument := range arguments {
		if !RulesAllow(argument.Rules, platform, features) {
			continue
		}
		values = append(values, argument.Value...)
	}
	return values
}
