package archive

import (
	"fmt"
	"strings"
)

// loadKTF unpacks a KTF archive: an __adf__ manifest naming the app id
// and main class, a client.bin.<bss_size> vendor binary, and a jar
// named <AID>.jar (spec §6 "KTF").
func loadKTF(files map[string][]byte) (*App, error) {
	rest := make(map[string][]byte, len(files))
	for name, data := range files {
		rest[name] = data
	}

	app := &App{Format: FormatKTF}

	if adf, ok := files["__adf__"]; ok {
		fields, err := manifestFields(adf)
		if err != nil {
			return nil, fmt.Errorf("archive: ktf manifest: %w", err)
		}
		app.ID = fields["AID"]
		app.MainClass = fields["MClass"]
	}

	var binName string
	for name, data := range files {
		if strings.HasPrefix(name, "client.bin") {
			binName = name
			app.VendorBinary = data
		}
	}
	if binName == "" {
		return nil, fmt.Errorf("archive: ktf archive has no client.bin payload")
	}
	bssSize, err := parseBSSSize(binName)
	if err != nil {
		return nil, err
	}
	app.BSSSize = bssSize
	delete(rest, binName)

	jarName := app.ID + ".jar"
	jar, ok := files[jarName]
	if !ok {
		// Some archives carry exactly one .jar regardless of its name.
		for name, data := range files {
			if strings.HasSuffix(name, ".jar") {
				jarName = name
				jar = data
				ok = true
				break
			}
		}
	}
	if !ok {
		return nil, fmt.Errorf("archive: ktf archive has no jar payload")
	}
	app.JarData = jar
	delete(rest, jarName)
	delete(rest, "__adf__")

	app.Files = rest
	return app, nil
}
