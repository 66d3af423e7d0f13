package archive

import "strings"

// loadPlainJAR handles a jar with no vendor wrapper: the zip itself is
// the classpath. The main class, when present, comes from the
// standard jar META-INF/MANIFEST.MF MIDlet-1 attribute; id falls back
// to an empty string, left for the caller to assign from the
// filename.
func loadPlainJAR(jarData []byte, files map[string][]byte) (*App, error) {
	app := &App{
		Format:  FormatPlainJAR,
		JarData: jarData,
		Files:   files,
	}

	manifest, ok := files["META-INF/MANIFEST.MF"]
	if !ok {
		return app, nil
	}
	fields, err := manifestFields(manifest)
	if err != nil {
		return app, nil
	}
	app.MainClass = midlet1MainClass(fields["MIDlet-1"])
	if app.MainClass == "" {
		app.MainClass = strings.TrimSpace(fields["Main-Class"])
	}
	return app, nil
}
