package goupi

// ConfigParser turns TOML text into a Configuration.
type ConfigParser interface {
	ParseConfig(text []byte) (Configuration, error)
}

// Converter renders Markdown to HTML. Raw HTML and any link protocol in the
// source are passed through untouched.
type Converter interface {
	ToHTML(markdown []byte) (string, error)
}
