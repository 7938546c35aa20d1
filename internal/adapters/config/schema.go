package config

// Manifest represents the structure of the loom.yaml project manifest.
type Manifest struct {
	Name          string           `yaml:"name"`
	Namespace     string           `yaml:"namespace"`
	Configuration ConfigurationDTO `yaml:"configuration"`

	// ComponentDirs lists project-relative directories whose documents are
	// compiled as components.
	ComponentDirs []string `yaml:"componentDirs"`
}

// ConfigurationDTO represents the compiler configuration block.
type ConfigurationDTO struct {
	Name            string   `yaml:"name"`
	LanguageVersion string   `yaml:"languageVersion"`
	Extensions      []string `yaml:"extensions"`
}
