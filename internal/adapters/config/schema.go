package config

// Knitfile represents the structure of the knit.yaml configuration file.
// Relative paths are taken from the directory holding the file.
type Knitfile struct {
	Version     string            `yaml:"version"`
	Root        string            `yaml:"root"`
	Entries     []string          `yaml:"entries"`
	Output      string            `yaml:"output"`
	SearchPaths []string          `yaml:"searchPaths"`
	Extensions  []string          `yaml:"extensions"`
	Include     []string          `yaml:"include"`
	Alias       map[string]string `yaml:"alias"`
	Parallel    int               `yaml:"parallel"`

	TreeShaking   bool     `yaml:"treeShaking"`
	CodeSplitting bool     `yaml:"codeSplitting"`
	Split         []string `yaml:"split"`

	SourceMap     bool   `yaml:"sourcemap"`
	SourceMapFile string `yaml:"sourcemapFile"`
	SourceMapMode string `yaml:"sourcemapMode"`

	CacheFile string `yaml:"cacheFile"`

	Minify          bool   `yaml:"minify"`
	StripTypes      bool   `yaml:"stripTypes"`
	Exec            string `yaml:"exec"`
	ContinueOnError bool   `yaml:"continueOnError"`
}
