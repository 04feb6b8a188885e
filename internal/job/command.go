package job

import "strings"

// Environment variables the training entry point reads its run context from.
const (
	EnvOutputDir  = "JAKETUNE_OUTPUT_DIR"
	EnvMetricsURI = "JAKETUNE_METRICS_URI"
)

// ContainerCommand splits script into a command and, when pip packages are
// listed, wraps it in a shell that installs them first. The script and its
// args are passed through "$0" "$@" so they are never re-parsed by the shell.
func ContainerCommand(script string, args, pip []string) (command, cmdArgs []string) {
	fields := strings.Fields(script)
	if len(pip) == 0 {
		return fields, args
	}

	quoted := make([]string, len(pip))
	for i, p := range pip {
		quoted[i] = shellQuote(p)
	}
	install := "pip install --quiet -- " + strings.Join(quoted, " ") + ` && exec "$0" "$@"`
	return []string{"sh", "-c", install}, append(fields, args...)
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
