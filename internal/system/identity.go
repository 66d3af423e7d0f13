package system

// Identity names the running application: the values extracted from a
// vendor manifest (KTF __adf__'s AID/PID/MClass, LGT app_info, or an
// SKT .msd) or synthesized for a plain JAR (spec §6 "Archive formats").
type Identity struct {
	AppID      string // AID: / unique id within the archive format
	ProviderID string // PID:, empty for formats that don't have one
	MainClass  string // MClass:, the JVM main class binary name
	JarPath    string // filesystem path to the app's .jar
}
