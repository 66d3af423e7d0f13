package archive

import (
	"fmt"
	"strings"
)

// loadSKT unpacks an SKT archive: a <id>.msd manifest whose MIDlet-1
// line names the main class and whose DD-ProgName line gives the app
// id, plus a <id>.jar payload (spec §6 "SKT").
func loadSKT(files map[string][]byte) (*App, error) {
	rest := make(map[string][]byte, len(files))
	for name, data := range files {
		rest[name] = data
	}

	msdName := findMsd(files)
	if msdName == "" {
		return nil, fmt.Errorf("archive: skt archive has no .msd manifest")
	}
	fields, err := manifestFields(files[msdName])
	if err != nil {
		return nil, fmt.Errorf("archive: skt manifest: %w", err)
	}
	delete(rest, msdName)

	app := &App{Format: FormatSKT}
	app.MainClass = midlet1MainClass(fields["MIDlet-1"])
	app.ID = fields["DD-ProgName"]
	if app.ID == "" {
		app.ID = strings.TrimSuffix(msdName, ".msd")
	}

	jarName := strings.TrimSuffix(msdName, ".msd") + ".jar"
	jar, ok := files[jarName]
	if !ok {
		return nil, fmt.Errorf("archive: skt archive has no %s payload", jarName)
	}
	app.JarData = jar
	delete(rest, jarName)

	app.Files = rest
	return app, nil
}

// midlet1MainClass extracts the main class name from a MIDlet-1
// property value, a comma-separated "name,icon,MainClass" triple.
func midlet1MainClass(value string) string {
	parts := strings.Split(value, ",")
	if len(parts) < 3 {
		return ""
	}
	return strings.TrimSpace(parts[2])
}
